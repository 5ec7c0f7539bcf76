package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"ledger/internal/controller"
	"ledger/internal/core"
)

// Markdown renders the full report for a view.
func Markdown(v controller.View, today core.Date) string {
	var b strings.Builder
	writeTotals(&b, v)
	writeList(&b, v)
	writeInventory(&b, v)
	writeCalendar(&b, v, today)
	return b.String()
}

// ListMarkdown renders only the transaction list section.
func ListMarkdown(v controller.View) string {
	var b strings.Builder
	writeList(&b, v)
	return b.String()
}

// InventoryMarkdown renders the stock cards and recent purchases.
func InventoryMarkdown(v controller.View) string {
	var b strings.Builder
	writeInventory(&b, v)
	return b.String()
}

func TotalsMarkdown(v controller.View) string {
	var b strings.Builder
	writeTotals(&b, v)
	return b.String()
}

func CalendarMarkdown(v controller.View, today core.Date) string {
	var b strings.Builder
	writeCalendar(&b, v, today)
	return b.String()
}

func writeTotals(b *strings.Builder, v controller.View) {
	t := Totals(v.Totals)
	b.WriteString("## Итоги\n\n")
	fmt.Fprintf(b, "| Закупки | Продажи | Прибыль |\n|---|---|---|\n| %s | %s | %s |\n\n", t.Purchases, t.Sales, t.Profit)
}

func writeList(b *strings.Builder, v controller.View) {
	b.WriteString("## Операции\n\n")
	rows := TransactionRows(v.List)
	if len(rows) == 0 {
		fmt.Fprintf(b, "**%s**\n\n%s\n\n", EmptyListTitle, EmptyMessage(v.Filter))
		return
	}
	writeRows(b, rows)
}

func writeRows(b *strings.Builder, rows []Row) {
	b.WriteString("| ID | Операция | Дата | Количество | Цена | Сумма |\n|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			r.ID, escapeCell(r.Title), r.Date, escapeCell(r.Quantity), escapeCell(r.Price), r.Total)
	}
	b.WriteString("\n")
}

func writeInventory(b *strings.Builder, v controller.View) {
	b.WriteString("## Склад\n\n")
	cards := InventoryCards(v.InStock)
	if len(cards) == 0 {
		b.WriteString(EmptyInventory + "\n\n")
	} else {
		b.WriteString("| Товар | Остаток | Ед. |\n|---|---|---|\n")
		for _, c := range cards {
			fmt.Fprintf(b, "| %s | %s | %s |\n", c.Label, c.Balance, c.Unit)
		}
		b.WriteString("\n")
	}

	b.WriteString("### Последние закупки\n\n")
	if len(v.Recent) == 0 {
		fmt.Fprintf(b, "**%s**\n\n%s\n\n", EmptyListTitle, EmptyRecent)
		return
	}
	writeRows(b, TransactionRows(v.Recent))
}

func writeCalendar(b *strings.Builder, v controller.View, today core.Date) {
	cal := CalendarGrid(v.Year, v.Month, v.Buckets, today)
	fmt.Fprintf(b, "## %s\n\n|", cal.Title)
	for _, d := range Weekdays {
		b.WriteString(" " + d + " |")
	}
	b.WriteString("\n|" + strings.Repeat("---|", 7) + "\n")
	for _, week := range cal.Weeks {
		b.WriteString("|")
		for _, c := range week {
			b.WriteString(" " + cellText(c) + " |")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func cellText(c Cell) string {
	if c.Blank() {
		return ""
	}
	s := fmt.Sprint(c.Day)
	if c.Today {
		s = "**" + s + "**"
	}
	if c.Purchases > 0 {
		s += fmt.Sprintf(" З:%d", c.Purchases)
	}
	if c.Sales > 0 {
		s += fmt.Sprintf(" П:%d", c.Sales)
	}
	return s
}

// Terminal renders markdown for a terminal of the given width.
func Terminal(md string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML converts markdown to an HTML fragment.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
