package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/controller"
	"ledger/internal/derive"
	"ledger/internal/render"
)

// viewFlags are the list and calendar options shared by the view commands.
type viewFlags struct {
	filter string
	sort   string
	month  string
	shift  int
}

func (v *viewFlags) setListFlags(f *flag.FlagSet) {
	f.StringVar(&v.filter, "filter", string(derive.FilterAll), "all, purchase, sale or a product key")
	f.StringVar(&v.sort, "sort", string(derive.SortNewest), "newest, oldest, amount or price")
}

func (v *viewFlags) setMonthFlags(f *flag.FlagSet) {
	f.StringVar(&v.month, "month", "", "calendar month as YYYY-MM, current month when empty")
	f.IntVar(&v.shift, "shift", 0, "move the calendar by this many months")
}

// apply pushes the parsed options into the controller.
func (v *viewFlags) apply(ctrl *controller.Controller) error {
	if v.filter != "" {
		filter, err := derive.ParseFilter(v.filter)
		if err != nil {
			return err
		}
		ctrl.ChangeFilter(filter)
	}
	if v.sort != "" {
		key, err := derive.ParseSortKey(v.sort)
		if err != nil {
			return err
		}
		ctrl.ChangeSort(key)
	}
	if v.month != "" {
		t, err := time.Parse("2006-01", strings.TrimSpace(v.month))
		if err != nil {
			return fmt.Errorf("invalid month %q, want YYYY-MM", v.month)
		}
		ctrl.SetMonth(t.Year(), t.Month())
	}
	if v.shift != 0 {
		ctrl.ChangeMonth(v.shift)
	}
	return nil
}

// showView loads the ledger, applies the flags and prints one section.
func showView(ctx context.Context, g *globals, v *viewFlags, section func(*controller.Controller, controller.View) string) subcommands.ExitStatus {
	a, err := openApp(ctx, g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = a.close(ctx) }()

	if err := v.apply(a.ctrl); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	g.printMarkdown(section(a.ctrl, a.ctrl.Snapshot()))
	return subcommands.ExitSuccess
}

type listCmd struct {
	g *globals
	v viewFlags
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions" }
func (*listCmd) Usage() string {
	return `ledger list [-filter <filter>] [-sort <key>]

  Lists transactions, newest first by default.
`
}
func (c *listCmd) SetFlags(f *flag.FlagSet) { c.v.setListFlags(f) }
func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return showView(ctx, c.g, &c.v, func(_ *controller.Controller, v controller.View) string {
		return render.ListMarkdown(v)
	})
}

type inventoryCmd struct{ g *globals }

func (*inventoryCmd) Name() string           { return "inventory" }
func (*inventoryCmd) Synopsis() string       { return "show stock per product and recent purchases" }
func (*inventoryCmd) Usage() string          { return "ledger inventory\n" }
func (*inventoryCmd) SetFlags(*flag.FlagSet) {}
func (c *inventoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return showView(ctx, c.g, &viewFlags{}, func(_ *controller.Controller, v controller.View) string {
		return render.InventoryMarkdown(v)
	})
}

type totalsCmd struct{ g *globals }

func (*totalsCmd) Name() string           { return "totals" }
func (*totalsCmd) Synopsis() string       { return "show purchase, sale and profit totals" }
func (*totalsCmd) Usage() string          { return "ledger totals\n" }
func (*totalsCmd) SetFlags(*flag.FlagSet) {}
func (c *totalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return showView(ctx, c.g, &viewFlags{}, func(_ *controller.Controller, v controller.View) string {
		return render.TotalsMarkdown(v)
	})
}

type calendarCmd struct {
	g *globals
	v viewFlags
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "show a month of activity" }
func (*calendarCmd) Usage() string {
	return `ledger calendar [-month YYYY-MM] [-shift <n>]

  Shows purchases and sales per day, weeks starting on Monday.
`
}
func (c *calendarCmd) SetFlags(f *flag.FlagSet) { c.v.setMonthFlags(f) }
func (c *calendarCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return showView(ctx, c.g, &c.v, func(ctrl *controller.Controller, v controller.View) string {
		return render.CalendarMarkdown(v, ctrl.Today())
	})
}

type reportCmd struct {
	g *globals
	v viewFlags
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show totals, list, inventory and calendar" }
func (*reportCmd) Usage() string {
	return `ledger report [-filter <filter>] [-sort <key>] [-month YYYY-MM] [-shift <n>]
`
}
func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.v.setListFlags(f)
	c.v.setMonthFlags(f)
}
func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return showView(ctx, c.g, &c.v, func(ctrl *controller.Controller, v controller.View) string {
		return render.Markdown(v, ctrl.Today())
	})
}
