package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

const (
	Purchase TxType = "purchase"
	Sale     TxType = "sale"
)

const (
	Cherry     Product = "cherry"
	Strawberry Product = "strawberry"
	Raspberry  Product = "raspberry"
	Blueberry  Product = "blueberry"
	Apple      Product = "apple"
	Pear       Product = "pear"
	Plum       Product = "plum"
	Other      Product = "other"
)

const (
	Kilogram Unit = "kg"
	Gram     Unit = "g"
	Piece    Unit = "pcs"
	Box      Unit = "box"
	Crate    Unit = "crate"
)

type (
	TxType  string
	Product string
	Unit    string

	Date struct {
		time.Time
	}

	// Transaction is a single purchase or sale. Total is stored as computed
	// at creation and never recomputed.
	Transaction struct {
		ID        int64           `json:"id"`
		Type      TxType          `json:"type"`
		Product   Product         `json:"product"`
		Amount    decimal.Decimal `json:"amount"`
		Unit      Unit            `json:"unit"`
		Price     decimal.Decimal `json:"price"`
		Total     decimal.Decimal `json:"total"`
		Date      Date            `json:"date"`
		CreatedAt time.Time       `json:"createdAt"`
	}
)

func init() {
	// Ledger documents carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var productLabels = map[Product]string{
	Cherry:     "Вишня",
	Strawberry: "Клубника",
	Raspberry:  "Малина",
	Blueberry:  "Черника",
	Apple:      "Яблоки",
	Pear:       "Груши",
	Plum:       "Сливы",
	Other:      "Другой товар",
}

var unitLabels = map[Unit]string{
	Kilogram: "кг",
	Gram:     "г",
	Piece:    "шт",
	Box:      "ящ",
	Crate:    "кор",
}

// Products returns the catalog in display order.
func Products() []Product {
	return []Product{Cherry, Strawberry, Raspberry, Blueberry, Apple, Pear, Plum, Other}
}

// Units returns the known units in display order.
func Units() []Unit {
	return []Unit{Kilogram, Gram, Piece, Box, Crate}
}

func (t TxType) Valid() bool { return t == Purchase || t == Sale }

func (t TxType) Label() string {
	switch t {
	case Purchase:
		return "Закупка"
	case Sale:
		return "Продажа"
	}
	return string(t)
}

func (p Product) Valid() bool {
	_, ok := productLabels[p]
	return ok
}

// Label returns the display name, or the raw key for unknown products.
func (p Product) Label() string {
	if l, ok := productLabels[p]; ok {
		return l
	}
	return string(p)
}

func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

func (u Unit) Label() string {
	if l, ok := unitLabels[u]; ok {
		return l
	}
	return string(u)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD business date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTransaction builds a record with its total computed from amount and price.
func NewTransaction(id int64, typ TxType, product Product, amount decimal.Decimal, unit Unit, price decimal.Decimal, date Date, createdAt time.Time) (Transaction, error) {
	tx := Transaction{
		ID:        id,
		Type:      typ,
		Product:   product,
		Amount:    amount,
		Unit:      unit,
		Price:     price,
		Total:     amount.Mul(price),
		Date:      date,
		CreatedAt: createdAt,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return Invalid("id", "must be positive")
	}
	if !t.Type.Valid() {
		return Invalid("type", "unknown transaction type")
	}
	if !t.Product.Valid() {
		return Invalid("product", "unknown product")
	}
	if !t.Amount.IsPositive() {
		return Invalid("amount", "must be positive")
	}
	if !t.Unit.Valid() {
		return Invalid("unit", "unknown unit")
	}
	if !t.Price.IsPositive() {
		return Invalid("price", "must be positive")
	}
	// Older documents were written with binary floats, compare at display precision.
	if !t.Total.Round(2).Equal(t.Amount.Mul(t.Price).Round(2)) {
		return Invalid("total", "must equal amount * price")
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", "required")
	}
	return nil
}

// Signed returns the total as a cash flow: negative for purchases.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Purchase {
		return t.Total.Neg()
	}
	return t.Total
}
