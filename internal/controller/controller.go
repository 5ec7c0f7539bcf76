// Package controller turns user intents into ledger mutations, persists
// them without waiting and asks the attached renderer to redraw.
package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/derive"
	"ledger/internal/gateway"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

// RecentLimit caps the recent purchases shown next to the inventory.
const RecentLimit = 10

const (
	MsgAdded   = "Операция успешно добавлена!"
	MsgDeleted = "Операция удалена!"
)

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Region is a bit set naming the parts of the view to redraw.
type Region uint8

const (
	RegionList Region = 1 << iota
	RegionInventory
	RegionTotals
	RegionCalendar

	RegionAll = RegionList | RegionInventory | RegionTotals | RegionCalendar
)

func (r Region) Has(part Region) bool { return r&part != 0 }

type Notifier interface {
	Notify(kind NotificationKind, message string)
}

type NotifierFunc func(kind NotificationKind, message string)

func (f NotifierFunc) Notify(kind NotificationKind, message string) { f(kind, message) }

type Renderer interface {
	Render(view View, regions Region)
}

type RendererFunc func(view View, regions Region)

func (f RendererFunc) Render(view View, regions Region) { f(view, regions) }

// FormValues are the raw strings of the add-transaction form.
type FormValues struct {
	Type    string
	Product string
	Amount  string
	Unit    string
	Price   string
	Date    string // YYYY-MM-DD, empty means today
}

// View is everything a renderer needs, derived from one ledger snapshot.
type View struct {
	Filter derive.Filter
	Sort   derive.SortKey
	List   []core.Transaction

	Inventory derive.Inventory
	InStock   []derive.Stock
	Recent    []core.Transaction
	Totals    derive.Totals

	Year    int
	Month   time.Month
	Buckets map[int]derive.DayBucket
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller processes one event at a time.
type Controller struct {
	store    *ledger.Store
	saver    gateway.Saver
	notifier Notifier
	renderer Renderer
	logger   *log.Logger
	now      func() time.Time

	mu     sync.Mutex
	filter derive.Filter
	sort   derive.SortKey
	year   int
	month  time.Month
}

func New(store *ledger.Store, saver gateway.Saver, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		saver:    saver,
		notifier: NotifierFunc(func(NotificationKind, string) {}),
		renderer: RendererFunc(func(View, Region) {}),
		logger:   log.New(log.DefaultConfig()),
		now:      time.Now,
		filter:   derive.FilterAll,
		sort:     derive.SortNewest,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentController)
	today := c.now()
	c.year, c.month = today.Year(), today.Month()
	return c
}

// Load replaces the ledger with the stored copy when it is non-empty.
func (c *Controller) Load(ctx context.Context, gw gateway.Gateway) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if records := gateway.LoadSoft(ctx, gw, c.logger); len(records) > 0 {
		c.store.ReplaceAll(records)
		c.logger.InfoContext(ctx, "Ledger loaded", log.FieldRecordCount, len(records))
	}
	c.renderLocked(RegionAll)
}

// SubmitTransaction validates the form and appends a new record. Nothing
// changes when it returns an error.
func (c *Controller) SubmitTransaction(f FormValues) (core.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.parse(f)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := c.store.Add(tx); err != nil {
		return core.Transaction{}, err
	}
	c.logger.Info("Transaction added", log.NewFields().WithTransaction(tx).WithOperation(log.OpCreate).ToSlice()...)

	c.saver.Save(c.store.All())
	c.renderLocked(RegionAll)
	c.notifier.Notify(NotifySuccess, MsgAdded)
	return tx, nil
}

// DeleteTransaction removes a record by id. Unknown ids are ignored.
func (c *Controller) DeleteTransaction(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.store.Remove(id)
	if removed {
		c.logger.Info("Transaction deleted", log.FieldTxID, id, log.FieldOperation, log.OpDelete)
	}
	c.saver.Save(c.store.All())
	c.renderLocked(RegionAll)
	c.notifier.Notify(NotifyError, MsgDeleted)
	return removed
}

func (c *Controller) ChangeFilter(filter derive.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
	c.renderLocked(RegionList)
}

func (c *Controller) ChangeSort(key derive.SortKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = key
	c.renderLocked(RegionList)
}

// ChangeMonth moves the calendar by delta months.
func (c *Controller) ChangeMonth(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.year, c.month = derive.ShiftMonth(c.year, c.month, delta)
	c.renderLocked(RegionCalendar)
}

// SetMonth shows the given month on the calendar.
func (c *Controller) SetMonth(year int, month time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.year, c.month = derive.ShiftMonth(year, month, 0)
	c.renderLocked(RegionCalendar)
}

// Snapshot derives the full view from the current ledger.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Today returns the controller clock's current date.
func (c *Controller) Today() core.Date {
	return core.DateOf(c.now())
}

func (c *Controller) viewLocked() View {
	records := c.store.All()
	inv := derive.ComputeInventory(records)
	return View{
		Filter:    c.filter,
		Sort:      c.sort,
		List:      derive.FilterAndSort(records, c.filter, c.sort),
		Inventory: inv,
		InStock:   inv.InStock(),
		Recent:    derive.RecentPurchases(records, RecentLimit),
		Totals:    derive.ComputeTotals(records),
		Year:      c.year,
		Month:     c.month,
		Buckets:   derive.BucketByMonth(records, c.year, c.month),
	}
}

func (c *Controller) renderLocked(regions Region) {
	c.renderer.Render(c.viewLocked(), regions)
}

func (c *Controller) parse(f FormValues) (core.Transaction, error) {
	for _, field := range []struct{ name, value string }{
		{"type", f.Type}, {"product", f.Product}, {"amount", f.Amount}, {"unit", f.Unit}, {"price", f.Price},
	} {
		if strings.TrimSpace(field.value) == "" {
			return core.Transaction{}, core.Invalid(field.name, "required")
		}
	}
	amount, err := core.ParseDecimal(f.Amount)
	if err != nil {
		return core.Transaction{}, core.Invalid("amount", "must be a positive number")
	}
	price, err := core.ParseDecimal(f.Price)
	if err != nil {
		return core.Transaction{}, core.Invalid("price", "must be a positive number")
	}

	now := c.now()
	date := core.DateOf(now)
	if strings.TrimSpace(f.Date) != "" {
		if date, err = core.ParseDate(f.Date); err != nil {
			return core.Transaction{}, core.Invalid("date", "expected YYYY-MM-DD")
		}
	}

	return core.NewTransaction(
		c.store.NextID(now),
		core.TxType(strings.TrimSpace(f.Type)),
		core.Product(strings.TrimSpace(f.Product)),
		amount,
		core.Unit(strings.TrimSpace(f.Unit)),
		price,
		date,
		now.UTC(),
	)
}
