// Package derive computes the read-only views of a ledger: filtered and
// sorted lists, inventory balances, totals and calendar buckets.
//
// Every function is pure. Inputs are never mutated.
package derive

import (
	"fmt"
	"slices"

	"ledger/internal/core"
)

// Filter selects records by type or by product key.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPurchase Filter = "purchase"
	FilterSale     Filter = "sale"
)

// SortKey orders a filtered list.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortAmountDesc SortKey = "amount"
	SortPriceDesc  SortKey = "price"
)

// ProductFilter returns the filter matching a single product.
func ProductFilter(p core.Product) Filter { return Filter(p) }

// ParseFilter maps a wire value to a Filter. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); {
	case s == "":
		return FilterAll, nil
	case f == FilterAll, f == FilterPurchase, f == FilterSale:
		return f, nil
	case core.Product(s).Valid():
		return f, nil
	}
	return "", core.Invalid("filter", fmt.Sprintf("unknown filter %q", s))
}

// ParseSortKey maps a wire value to a SortKey. The empty string means newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortAmountDesc, SortPriceDesc:
		return k, nil
	}
	return "", core.Invalid("sort", fmt.Sprintf("unknown sort key %q", s))
}

// Product returns the product a product filter selects.
func (f Filter) Product() (core.Product, bool) {
	p := core.Product(f)
	return p, p.Valid()
}

func (f Filter) Match(tx core.Transaction) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterPurchase:
		return tx.Type == core.Purchase
	case FilterSale:
		return tx.Type == core.Sale
	}
	return tx.Product == core.Product(f)
}

// FilterAndSort returns the records matching filter ordered by key. Ties
// keep their relative order under every key, so Newest is the reverse of
// Oldest only when creation times differ.
func FilterAndSort(records []core.Transaction, filter Filter, key SortKey) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, tx := range records {
		if filter.Match(tx) {
			out = append(out, tx)
		}
	}
	slices.SortStableFunc(out, compareBy(key))
	return out
}

func compareBy(key SortKey) func(a, b core.Transaction) int {
	switch key {
	case SortOldest:
		return func(a, b core.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortAmountDesc:
		return func(a, b core.Transaction) int { return b.Amount.Cmp(a.Amount) }
	case SortPriceDesc:
		return func(a, b core.Transaction) int { return b.Price.Cmp(a.Price) }
	default:
		return func(a, b core.Transaction) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
}

// RecentPurchases returns up to n purchases, newest first.
func RecentPurchases(records []core.Transaction, n int) []core.Transaction {
	out := FilterAndSort(records, FilterPurchase, SortNewest)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
