package sheets

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func TestTabTitle(t *testing.T) {
	if got := TabTitle("Ledger", Owner{ID: "1", Username: "anna"}); got != "Ledger anna" {
		t.Errorf("TabTitle = %q", got)
	}
	if got := TabTitle("Ledger", Owner{ID: "1"}); got != "Ledger 1" {
		t.Errorf("TabTitle without username = %q", got)
	}
	long := TabTitle("Ledger", Owner{Username: strings.Repeat("я", 200)})
	if n := len([]rune(long)); n != 100 {
		t.Errorf("title length = %d runes, want 100", n)
	}
}

func TestRows(t *testing.T) {
	tx, err := core.NewTransaction(42, core.Purchase, core.Cherry, decimal.RequireFromString("2.5"), core.Kilogram,
		decimal.RequireFromString("0.3"), core.NewDate(2025, 6, 1), time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	rows := Rows([]core.Transaction{tx})
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[0][0] != "ID" || len(rows[0]) != len(Header) {
		t.Errorf("bad header %v", rows[0])
	}
	want := []interface{}{int64(42), "2025-06-01", "Закупка", "Вишня", "2.5", "кг", "0.3", "-0.75", "2025-06-01 10:30:00"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("column %d = %v, want %v", i, rows[1][i], v)
		}
	}

	if got := Rows(nil); len(got) != 1 {
		t.Errorf("empty ledger should produce only the header, got %d rows", len(got))
	}
}
