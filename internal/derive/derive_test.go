package derive

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type txRow struct {
	id      int64
	typ     core.TxType
	product core.Product
	amount  string
	unit    core.Unit
	price   string
	date    core.Date
}

func build(t *testing.T, rows ...txRow) []core.Transaction {
	t.Helper()
	out := make([]core.Transaction, 0, len(rows))
	for _, s := range rows {
		date := s.date
		if date.IsZero() {
			date = core.NewDate(2025, 6, 1)
		}
		tx, err := core.NewTransaction(s.id, s.typ, s.product, dec(s.amount), s.unit, dec(s.price),
			date, base.Add(time.Duration(s.id)*time.Minute))
		require.NoError(t, err)
		out = append(out, tx)
	}
	return out
}

func ids(records []core.Transaction) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func sample(t *testing.T) []core.Transaction {
	return build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Cherry, amount: "10", unit: core.Kilogram, price: "100"},
		txRow{id: 2, typ: core.Sale, product: core.Cherry, amount: "3", unit: core.Kilogram, price: "150"},
		txRow{id: 3, typ: core.Purchase, product: core.Apple, amount: "10", unit: core.Box, price: "20"},
		txRow{id: 4, typ: core.Sale, product: core.Apple, amount: "2", unit: core.Box, price: "150"},
		txRow{id: 5, typ: core.Purchase, product: core.Plum, amount: "1.5", unit: core.Kilogram, price: "80"},
	)
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"":         FilterAll,
		"all":      FilterAll,
		"purchase": FilterPurchase,
		"sale":     FilterSale,
		"cherry":   ProductFilter(core.Cherry),
	}
	for in, want := range cases {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFilter("mango")
	assert.ErrorIs(t, err, core.ErrValidation)

	p, ok := ProductFilter(core.Pear).Product()
	assert.True(t, ok)
	assert.Equal(t, core.Pear, p)
	_, ok = FilterSale.Product()
	assert.False(t, ok)
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{"": SortNewest, "newest": SortNewest, "oldest": SortOldest, "amount": SortAmountDesc, "price": SortPriceDesc} {
		got, err := ParseSortKey(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSortKey("total")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestFilterAndSortFilters(t *testing.T) {
	records := sample(t)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(FilterAndSort(records, FilterAll, SortOldest)))
	assert.Equal(t, []int64{5, 3, 1}, ids(FilterAndSort(records, FilterPurchase, SortNewest)))
	assert.Equal(t, []int64{4, 2}, ids(FilterAndSort(records, FilterSale, SortNewest)))

	for _, tx := range FilterAndSort(records, ProductFilter(core.Apple), SortNewest) {
		assert.Equal(t, core.Apple, tx.Product)
	}
	assert.Empty(t, FilterAndSort(records, ProductFilter(core.Pear), SortNewest))
	assert.Empty(t, FilterAndSort(nil, FilterAll, SortNewest))
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	records := sample(t)
	_ = FilterAndSort(records, FilterAll, SortAmountDesc)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(records))
}

func TestNewestAndOldestAreInverse(t *testing.T) {
	records := sample(t)
	newest := ids(FilterAndSort(records, FilterAll, SortNewest))
	oldest := ids(FilterAndSort(records, FilterAll, SortOldest))
	for i := range newest {
		assert.Equal(t, newest[i], oldest[len(oldest)-1-i])
	}
}

func TestAmountDescIsMonotonic(t *testing.T) {
	sorted := FilterAndSort(sample(t), FilterAll, SortAmountDesc)
	for i := len(sorted) - 1; i > 0; i-- {
		assert.True(t, sorted[i].Amount.LessThanOrEqual(sorted[i-1].Amount))
	}
	byPrice := FilterAndSort(sample(t), FilterAll, SortPriceDesc)
	for i := 1; i < len(byPrice); i++ {
		assert.True(t, byPrice[i].Price.LessThanOrEqual(byPrice[i-1].Price))
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Pear, amount: "5", unit: core.Kilogram, price: "1"},
		txRow{id: 2, typ: core.Purchase, product: core.Plum, amount: "7", unit: core.Kilogram, price: "1"},
		txRow{id: 3, typ: core.Purchase, product: core.Apple, amount: "5", unit: core.Kilogram, price: "1"},
	)
	assert.Equal(t, []int64{2, 1, 3}, ids(FilterAndSort(records, FilterAll, SortAmountDesc)))
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterAndSort(records, FilterAll, SortPriceDesc)))
}

func TestCreatedAtTiesKeepInsertionOrderBothWays(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Pear, amount: "1", unit: core.Kilogram, price: "1"},
		txRow{id: 2, typ: core.Purchase, product: core.Plum, amount: "1", unit: core.Kilogram, price: "1"},
		txRow{id: 3, typ: core.Purchase, product: core.Apple, amount: "1", unit: core.Kilogram, price: "1"},
	)
	records[1].CreatedAt = records[0].CreatedAt

	assert.Equal(t, []int64{3, 1, 2}, ids(FilterAndSort(records, FilterAll, SortNewest)))
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterAndSort(records, FilterAll, SortOldest)))
}

func TestComputeInventoryEmpty(t *testing.T) {
	inv := ComputeInventory(nil)
	assert.Empty(t, inv)
	assert.Empty(t, inv.InStock())
}

func TestComputeInventoryPurchaseThenSale(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Strawberry, amount: "10", unit: core.Kilogram, price: "5"},
		txRow{id: 2, typ: core.Sale, product: core.Strawberry, amount: "4", unit: core.Kilogram, price: "8"},
	)
	s := ComputeInventory(records)[core.Strawberry]
	assert.True(t, s.Balance.Equal(dec("6")), s.Balance.String())
	assert.True(t, s.PurchaseTotal.Equal(dec("50")))
	assert.True(t, s.SaleTotal.Equal(dec("32")))
	assert.Equal(t, core.Kilogram, s.Unit)
}

func TestInventoryUsesLastSeenUnitAndHidesEmptyStock(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Apple, amount: "3", unit: core.Kilogram, price: "5"},
		txRow{id: 2, typ: core.Purchase, product: core.Apple, amount: "1", unit: core.Box, price: "5"},
		txRow{id: 3, typ: core.Purchase, product: core.Pear, amount: "2", unit: core.Kilogram, price: "5"},
		txRow{id: 4, typ: core.Sale, product: core.Pear, amount: "2", unit: core.Kilogram, price: "7"},
		txRow{id: 5, typ: core.Sale, product: core.Plum, amount: "1", unit: core.Kilogram, price: "7"},
	)
	inv := ComputeInventory(records)
	assert.Equal(t, core.Box, inv[core.Apple].Unit)
	assert.True(t, inv[core.Pear].Balance.IsZero())
	assert.True(t, inv[core.Pear].SaleTotal.Equal(dec("14")), "totals kept for empty stock")
	assert.True(t, inv[core.Plum].Balance.Equal(dec("-1")))

	inStock := inv.InStock()
	require.Len(t, inStock, 1)
	assert.Equal(t, core.Apple, inStock[0].Product)
}

func TestInStockFollowsCatalogOrder(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Other, amount: "1", unit: core.Piece, price: "1"},
		txRow{id: 2, typ: core.Purchase, product: core.Blueberry, amount: "1", unit: core.Gram, price: "1"},
		txRow{id: 3, typ: core.Purchase, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1"},
	)
	var got []core.Product
	for _, s := range ComputeInventory(records).InStock() {
		got = append(got, s.Product)
	}
	assert.Equal(t, []core.Product{core.Cherry, core.Blueberry, core.Other}, got)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.True(t, totals.PurchaseTotal.IsZero())
	assert.True(t, totals.SaleTotal.IsZero())
	assert.True(t, totals.Profit.IsZero())
}

func TestCherryScenario(t *testing.T) {
	store := ledger.New()
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Cherry, amount: "10", unit: core.Kilogram, price: "100"},
		txRow{id: 2, typ: core.Sale, product: core.Cherry, amount: "3", unit: core.Kilogram, price: "150"},
	)

	require.NoError(t, store.Add(records[0]))
	inv, totals := ComputeInventory(store.All()), ComputeTotals(store.All())
	assert.True(t, inv[core.Cherry].Balance.Equal(dec("10")))
	assert.True(t, totals.PurchaseTotal.Equal(dec("1000")))
	assert.True(t, totals.Profit.Equal(dec("-1000")))

	require.NoError(t, store.Add(records[1]))
	inv, totals = ComputeInventory(store.All()), ComputeTotals(store.All())
	assert.True(t, inv[core.Cherry].Balance.Equal(dec("7")))
	assert.True(t, totals.SaleTotal.Equal(dec("450")))
	assert.True(t, totals.Profit.Equal(dec("-550")))

	require.True(t, store.Remove(1))
	inv, totals = ComputeInventory(store.All()), ComputeTotals(store.All())
	assert.True(t, inv[core.Cherry].Balance.Equal(dec("-3")))
	assert.True(t, totals.PurchaseTotal.IsZero())
	assert.True(t, totals.Profit.Equal(dec("450")))
}

func TestTotalsMatchFreshRecomputation(t *testing.T) {
	store := ledger.New()
	all := sample(t)
	for _, tx := range all {
		require.NoError(t, store.Add(tx))
	}
	store.Remove(3)
	store.Remove(42)
	require.NoError(t, store.Add(all[2]))
	store.Remove(1)

	fresh := build(t,
		txRow{id: 2, typ: core.Sale, product: core.Cherry, amount: "3", unit: core.Kilogram, price: "150"},
		txRow{id: 3, typ: core.Purchase, product: core.Apple, amount: "10", unit: core.Box, price: "20"},
		txRow{id: 4, typ: core.Sale, product: core.Apple, amount: "2", unit: core.Box, price: "150"},
		txRow{id: 5, typ: core.Purchase, product: core.Plum, amount: "1.5", unit: core.Kilogram, price: "80"},
	)
	got, want := ComputeTotals(store.All()), ComputeTotals(fresh)
	assert.True(t, got.PurchaseTotal.Equal(want.PurchaseTotal))
	assert.True(t, got.SaleTotal.Equal(want.SaleTotal))
	assert.True(t, got.Profit.Equal(want.Profit))
}

func TestBucketByMonth(t *testing.T) {
	records := build(t,
		txRow{id: 1, typ: core.Purchase, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2025, 6, 14)},
		txRow{id: 2, typ: core.Purchase, product: core.Plum, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2025, 6, 14)},
		txRow{id: 3, typ: core.Sale, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2025, 6, 14)},
		txRow{id: 4, typ: core.Sale, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2025, 5, 31)},
		txRow{id: 5, typ: core.Sale, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2025, 7, 1)},
		txRow{id: 6, typ: core.Sale, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1", date: core.NewDate(2024, 6, 14)},
	)
	buckets := BucketByMonth(records, 2025, time.June)
	assert.Equal(t, map[int]DayBucket{14: {PurchaseCount: 2, SaleCount: 1}}, buckets)
	assert.Empty(t, BucketByMonth(records, 2025, time.August))
}

func TestShiftMonth(t *testing.T) {
	y, m := ShiftMonth(2025, time.January, -1)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)
	y, m = ShiftMonth(2025, time.December, 1)
	assert.Equal(t, 2026, y)
	assert.Equal(t, time.January, m)
}

func TestRecentPurchases(t *testing.T) {
	var rows []txRow
	for i := int64(1); i <= 12; i++ {
		rows = append(rows, txRow{id: i, typ: core.Purchase, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1"})
	}
	rows = append(rows, txRow{id: 13, typ: core.Sale, product: core.Cherry, amount: "1", unit: core.Kilogram, price: "1"})
	recent := RecentPurchases(build(t, rows...), 10)
	require.Len(t, recent, 10)
	assert.Equal(t, int64(12), recent[0].ID)
	assert.Equal(t, int64(3), recent[9].ID)
}
