package sheets

import (
	"context"
	"strings"

	"ledger/internal/core"
)

// Owner identifies whose ledger a tab mirrors.
type Owner struct {
	ID       string
	Username string
}

// LedgerMirror replaces the mirrored copy of one user's ledger. Each call
// rewrites the whole tab, so the last write wins.
type LedgerMirror interface {
	MirrorLedger(ctx context.Context, owner Owner, records []core.Transaction) error
}

// Header is the first row of every mirrored tab.
var Header = []string{"ID", "Дата", "Тип", "Товар", "Количество", "Ед.", "Цена", "Сумма", "Создано"}

// TabTitle names the tab holding an owner's ledger.
func TabTitle(base string, owner Owner) string {
	name := owner.Username
	if name == "" {
		name = owner.ID
	}
	title := strings.TrimSpace(base + " " + name)
	// Sheets caps titles at 100 characters
	if r := []rune(title); len(r) > 100 {
		title = string(r[:100])
	}
	return title
}

// Rows renders records as sheet values, header first. Amounts are written
// as plain decimal strings so the sheet keeps full precision.
func Rows(records []core.Transaction) [][]interface{} {
	rows := make([][]interface{}, 0, len(records)+1)
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, tx := range records {
		rows = append(rows, []interface{}{
			tx.ID,
			tx.Date.String(),
			tx.Type.Label(),
			tx.Product.Label(),
			tx.Amount.String(),
			tx.Unit.Label(),
			tx.Price.String(),
			tx.Signed().String(),
			tx.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}
