// Package render turns derived ledger data into presentational structures
// and text. It never reads the ledger itself.
package render

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"ledger/internal/controller"
	"ledger/internal/core"
	"ledger/internal/derive"
)

// Currency is the ISO code every amount is displayed in.
const Currency = money.RUB

const (
	EmptyListTitle     = "Операции не найдены"
	EmptyInventory     = "Нет товаров на складе"
	EmptyRecent        = "Добавьте первую закупку!"
	emptyPurchases     = "У вас нет закупок"
	emptySales         = "У вас нет продаж"
	emptyFirstActivity = "Добавьте свою первую операцию!"
)

// Row is one line of the transaction list.
type Row struct {
	ID       int64
	Type     core.TxType
	Title    string // "Закупка: Вишня"
	Date     string // DD.MM.YYYY
	Quantity string // "10 кг"
	Price    string // "Цена: 100 ₽/кг"
	Total    string // signed, "-1.000,00 ₽"
}

// Card is one product in the inventory summary.
type Card struct {
	Product core.Product
	Label   string
	Balance string // two decimals
	Unit    string
}

type TotalsCard struct {
	Purchases string
	Sales     string
	Profit    string
	Loss      bool
}

// FormatDate renders d as DD.MM.YYYY.
func FormatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02.01.2006")
}

// FormatMoney displays an amount in Currency, rounded to minor units.
func FormatMoney(d decimal.Decimal) string {
	return money.New(core.Cents(d), Currency).Display()
}

func currencySymbol() string {
	return money.GetCurrency(Currency).Grapheme
}

func TypeLabel(t core.TxType) string {
	return t.Label()
}

func TransactionRows(records []core.Transaction) []Row {
	rows := make([]Row, 0, len(records))
	for _, tx := range records {
		unit := tx.Unit.Label()
		rows = append(rows, Row{
			ID:       tx.ID,
			Type:     tx.Type,
			Title:    fmt.Sprintf("%s: %s", TypeLabel(tx.Type), tx.Product.Label()),
			Date:     FormatDate(tx.Date),
			Quantity: fmt.Sprintf("%s %s", tx.Amount.String(), unit),
			Price:    fmt.Sprintf("Цена: %s %s/%s", tx.Price.String(), currencySymbol(), unit),
			Total:    signed(tx),
		})
	}
	return rows
}

func signed(tx core.Transaction) string {
	s := FormatMoney(tx.Total)
	if tx.Type == core.Purchase {
		return "-" + s
	}
	return "+" + s
}

// EmptyMessage is shown when the filtered list is empty.
func EmptyMessage(filter derive.Filter) string {
	switch filter {
	case derive.FilterPurchase:
		return emptyPurchases
	case derive.FilterSale:
		return emptySales
	default:
		return emptyFirstActivity
	}
}

// InventoryCards renders stocks with a positive balance only.
func InventoryCards(stocks []derive.Stock) []Card {
	var cards []Card
	for _, s := range stocks {
		if !s.Balance.IsPositive() {
			continue
		}
		cards = append(cards, Card{
			Product: s.Product,
			Label:   s.Product.Label(),
			Balance: s.Balance.StringFixed(2),
			Unit:    s.Unit.Label(),
		})
	}
	return cards
}

func Totals(t derive.Totals) TotalsCard {
	return TotalsCard{
		Purchases: FormatMoney(t.PurchaseTotal),
		Sales:     FormatMoney(t.SaleTotal),
		Profit:    FormatMoney(t.Profit),
		Loss:      t.Profit.IsNegative(),
	}
}

// NotificationTitle is the heading of a toast of the given kind.
func NotificationTitle(kind controller.NotificationKind) string {
	if kind == controller.NotifySuccess {
		return "Успешно!"
	}
	return "Ошибка!"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
