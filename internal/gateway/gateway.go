// Package gateway loads and saves a user's whole ledger. The core only
// sees Load and Save; authentication and transport stay behind it.
package gateway

import (
	"context"
	"errors"

	"ledger/internal/core"
	"ledger/internal/log"
)

// ErrUnauthorized means the session token is missing, invalid or expired
// and the user has to log in again.
var ErrUnauthorized = errors.New("unauthorized")

// Gateway persists the full ledger. Save replaces whatever was stored.
type Gateway interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, records []core.Transaction) error
}

// LoadSoft loads through g and degrades to an empty ledger on any error.
func LoadSoft(ctx context.Context, g Gateway, logger *log.Logger) []core.Transaction {
	records, err := g.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Ledger load failed, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		return nil
	}
	return records
}
