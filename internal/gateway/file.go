package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ledger/internal/core"
)

// FileGateway keeps the ledger in a local JSON file.
type FileGateway struct {
	path string
}

func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: path}
}

// Load returns an empty ledger when the file does not exist yet.
func (g *FileGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	b, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.PersistenceError{Op: "read ledger file", Err: err}
	}
	var records []core.Transaction
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, &core.PersistenceError{Op: "decode ledger file", Err: err}
	}
	return records, nil
}

// Save writes to a temp file and renames it over the ledger.
func (g *FileGateway) Save(ctx context.Context, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &core.PersistenceError{Op: "encode ledger file", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o700); err != nil {
		return &core.PersistenceError{Op: "create ledger dir", Err: err}
	}
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return &core.PersistenceError{Op: "write ledger file", Err: err}
	}
	if err := os.Rename(tmp, g.path); err != nil {
		return &core.PersistenceError{Op: "replace ledger file", Err: fmt.Errorf("rename %s: %w", tmp, err)}
	}
	return nil
}
