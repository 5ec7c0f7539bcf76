package render

import (
	"strings"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/controller"
	"ledger/internal/core"
	"ledger/internal/derive"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(t *testing.T, id int64, typ core.TxType, p core.Product, amount string, u core.Unit, price string, date core.Date) core.Transaction {
	t.Helper()
	out, err := core.NewTransaction(id, typ, p, dec(amount), u, dec(price), date, time.Unix(id, 0).UTC())
	require.NoError(t, err)
	return out
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05.03.2025", FormatDate(core.NewDate(2025, 3, 5)))
	assert.Equal(t, "", FormatDate(core.Date{}))
}

func TestFormatMoneyRoundsToMinorUnits(t *testing.T) {
	assert.Equal(t, money.New(123457, money.RUB).Display(), FormatMoney(dec("1234.5678")))
	assert.Equal(t, money.New(-55000, money.RUB).Display(), FormatMoney(dec("-550")))
}

func TestTransactionRows(t *testing.T) {
	records := []core.Transaction{
		tx(t, 1, core.Purchase, core.Cherry, "10", core.Kilogram, "100", core.NewDate(2025, 6, 1)),
		tx(t, 2, core.Sale, core.Apple, "2.5", core.Box, "40", core.NewDate(2025, 6, 2)),
	}
	rows := TransactionRows(records)
	require.Len(t, rows, 2)

	assert.Equal(t, "Закупка: Вишня", rows[0].Title)
	assert.Equal(t, "01.06.2025", rows[0].Date)
	assert.Equal(t, "10 кг", rows[0].Quantity)
	assert.True(t, strings.HasPrefix(rows[0].Total, "-"))
	assert.Equal(t, "-"+money.New(100000, money.RUB).Display(), rows[0].Total)

	assert.Equal(t, "Продажа: Яблоки", rows[1].Title)
	assert.Equal(t, "2.5 ящ", rows[1].Quantity)
	assert.Contains(t, rows[1].Price, "/ящ")
	assert.Equal(t, "+"+money.New(10000, money.RUB).Display(), rows[1].Total)
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "У вас нет закупок", EmptyMessage(derive.FilterPurchase))
	assert.Equal(t, "У вас нет продаж", EmptyMessage(derive.FilterSale))
	assert.Equal(t, "Добавьте свою первую операцию!", EmptyMessage(derive.FilterAll))
	assert.Equal(t, "Добавьте свою первую операцию!", EmptyMessage(derive.ProductFilter(core.Pear)))
}

func TestInventoryCards(t *testing.T) {
	stocks := []derive.Stock{
		{Product: core.Cherry, Balance: dec("7"), Unit: core.Kilogram},
		{Product: core.Pear, Balance: dec("0"), Unit: core.Box},
		{Product: core.Plum, Balance: dec("-3"), Unit: core.Kilogram},
		{Product: core.Other, Balance: dec("1.005"), Unit: core.Piece},
	}
	cards := InventoryCards(stocks)
	require.Len(t, cards, 2)
	assert.Equal(t, Card{Product: core.Cherry, Label: "Вишня", Balance: "7.00", Unit: "кг"}, cards[0])
	assert.Equal(t, "Другой товар", cards[1].Label)
	assert.Equal(t, "шт", cards[1].Unit)
}

func TestTotalsCard(t *testing.T) {
	card := Totals(derive.Totals{PurchaseTotal: dec("1000"), SaleTotal: dec("450"), Profit: dec("-550")})
	assert.True(t, card.Loss)
	assert.Equal(t, money.New(-55000, money.RUB).Display(), card.Profit)
	assert.Equal(t, money.New(45000, money.RUB).Display(), card.Sales)
}

func TestCalendarGridMondayFirst(t *testing.T) {
	// June 2025 starts on a Sunday.
	buckets := map[int]derive.DayBucket{14: {PurchaseCount: 2, SaleCount: 1}}
	cal := CalendarGrid(2025, time.June, buckets, core.NewDate(2025, 6, 15))

	assert.Equal(t, "Июнь 2025", cal.Title)
	require.Len(t, cal.Weeks, 6)
	for i := 0; i < 6; i++ {
		assert.True(t, cal.Weeks[0][i].Blank(), "leading blank %d", i)
	}
	assert.Equal(t, 1, cal.Weeks[0][6].Day)
	assert.Equal(t, 30, cal.Weeks[5][0].Day)
	assert.True(t, cal.Weeks[5][1].Blank())

	sat := cal.Weeks[2][5]
	assert.Equal(t, 14, sat.Day)
	assert.Equal(t, 2, sat.Purchases)
	assert.Equal(t, 1, sat.Sales)
	assert.True(t, cal.Weeks[2][6].Today)
	assert.False(t, sat.Today)
}

func TestCalendarGridNoLeadingBlankOnMonday(t *testing.T) {
	// September 2025 starts on a Monday.
	cal := CalendarGrid(2025, time.September, nil, core.NewDate(2024, 9, 1))
	assert.Equal(t, 1, cal.Weeks[0][0].Day)
	for _, w := range cal.Weeks {
		for _, c := range w {
			assert.False(t, c.Today)
		}
	}
}

func sampleView(t *testing.T) controller.View {
	records := []core.Transaction{
		tx(t, 1, core.Purchase, core.Cherry, "10", core.Kilogram, "100", core.NewDate(2025, 6, 14)),
		tx(t, 2, core.Sale, core.Cherry, "3", core.Kilogram, "150", core.NewDate(2025, 6, 14)),
	}
	inv := derive.ComputeInventory(records)
	return controller.View{
		Filter:    derive.FilterAll,
		Sort:      derive.SortNewest,
		List:      derive.FilterAndSort(records, derive.FilterAll, derive.SortNewest),
		Inventory: inv,
		InStock:   inv.InStock(),
		Recent:    derive.RecentPurchases(records, 10),
		Totals:    derive.ComputeTotals(records),
		Year:      2025,
		Month:     time.June,
		Buckets:   derive.BucketByMonth(records, 2025, time.June),
	}
}

func TestMarkdownReport(t *testing.T) {
	md := Markdown(sampleView(t), core.NewDate(2025, 6, 20))
	assert.Contains(t, md, "## Итоги")
	assert.Contains(t, md, "Продажа: Вишня")
	assert.Contains(t, md, "| Вишня | 7.00 | кг |")
	assert.Contains(t, md, "## Июнь 2025")
	assert.Contains(t, md, "14 З:1 П:1")
	assert.Contains(t, md, "**20**")
}

func TestMarkdownEmptyStates(t *testing.T) {
	v := controller.View{Filter: derive.FilterSale, Year: 2025, Month: time.June}
	md := Markdown(v, core.NewDate(2025, 6, 1))
	assert.Contains(t, md, EmptyListTitle)
	assert.Contains(t, md, "У вас нет продаж")
	assert.Contains(t, md, EmptyInventory)
	assert.Contains(t, md, EmptyRecent)
}

func TestHTML(t *testing.T) {
	html, err := HTML(TotalsMarkdown(sampleView(t)))
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h2>Итоги</h2>")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("## Склад\n\nВишня 7.00 кг\n", 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Вишня")
}

func TestNotificationTitle(t *testing.T) {
	assert.Equal(t, "Успешно!", NotificationTitle(controller.NotifySuccess))
	assert.Equal(t, "Ошибка!", NotificationTitle(controller.NotifyError))
}
