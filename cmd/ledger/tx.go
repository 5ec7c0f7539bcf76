package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"ledger/internal/controller"
	"ledger/internal/core"
	"ledger/internal/render"
)

type addCmd struct {
	g    *globals
	form controller.FormValues
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a purchase or a sale" }
func (*addCmd) Usage() string {
	return `ledger add -type purchase|sale -product <product> -amount <n> -unit <unit> -price <n> [-date YYYY-MM-DD]

  Adds a transaction. Amount and price accept a comma or a dot as decimal
  separator. The date defaults to today.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.form.Type, "type", string(core.Purchase), "purchase or sale")
	f.StringVar(&c.form.Product, "product", "", "product key, e.g. cherry")
	f.StringVar(&c.form.Amount, "amount", "", "quantity")
	f.StringVar(&c.form.Unit, "unit", string(core.Kilogram), "unit key, e.g. kg")
	f.StringVar(&c.form.Price, "price", "", "price per unit")
	f.StringVar(&c.form.Date, "date", "", "business date (YYYY-MM-DD), today when empty")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, c.g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.writable(); err != nil {
		_ = a.close(ctx)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	tx, err := a.ctrl.SubmitTransaction(c.form)
	if closeErr := a.close(ctx); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", closeErr)
	}
	if errors.Is(err, core.ErrValidation) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	row := render.TransactionRows([]core.Transaction{tx})[0]
	fmt.Fprintf(c.g.out(), "#%d %s, %s, %s, %s, %s\n", tx.ID, row.Title, row.Date, row.Quantity, row.Price, row.Total)
	return subcommands.ExitSuccess
}

type deleteCmd struct{ g *globals }

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete transactions by id" }
func (*deleteCmd) Usage() string {
	return `ledger delete <id>...

  Removes the transactions with the given ids. Unknown ids are ignored.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one id is required")
		return subcommands.ExitUsageError
	}
	ids := make([]int64, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", arg)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	}

	a, err := openApp(ctx, c.g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.writable(); err != nil {
		_ = a.close(ctx)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, id := range ids {
		if !a.ctrl.DeleteTransaction(id) {
			fmt.Fprintf(os.Stderr, "No transaction #%d\n", id)
		}
	}
	if err := a.close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
