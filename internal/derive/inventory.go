package derive

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Stock is the running position of one product. Balance may be negative
// when more was sold than bought.
type Stock struct {
	Product       core.Product
	Balance       decimal.Decimal
	Unit          core.Unit // unit of the last record seen for the product
	PurchaseTotal decimal.Decimal
	SaleTotal     decimal.Decimal
}

type Inventory map[core.Product]Stock

// ComputeInventory folds records into per-product balances. Products
// never traded are absent.
func ComputeInventory(records []core.Transaction) Inventory {
	inv := make(Inventory)
	for _, tx := range records {
		s, ok := inv[tx.Product]
		if !ok {
			s = Stock{Product: tx.Product}
		}
		switch tx.Type {
		case core.Purchase:
			s.Balance = s.Balance.Add(tx.Amount)
			s.PurchaseTotal = s.PurchaseTotal.Add(tx.Total)
		case core.Sale:
			s.Balance = s.Balance.Sub(tx.Amount)
			s.SaleTotal = s.SaleTotal.Add(tx.Total)
		}
		s.Unit = tx.Unit
		inv[tx.Product] = s
	}
	return inv
}

// InStock lists products with a positive balance in catalog order.
func (inv Inventory) InStock() []Stock {
	var out []Stock
	for _, p := range core.Products() {
		if s, ok := inv[p]; ok && s.Balance.IsPositive() {
			out = append(out, s)
		}
	}
	return out
}

type Totals struct {
	PurchaseTotal decimal.Decimal
	SaleTotal     decimal.Decimal
	Profit        decimal.Decimal
}

func ComputeTotals(records []core.Transaction) Totals {
	var t Totals
	for _, tx := range records {
		switch tx.Type {
		case core.Purchase:
			t.PurchaseTotal = t.PurchaseTotal.Add(tx.Total)
		case core.Sale:
			t.SaleTotal = t.SaleTotal.Add(tx.Total)
		}
	}
	t.Profit = t.SaleTotal.Sub(t.PurchaseTotal)
	return t
}
