// Command ledger is the terminal client: it records purchases and sales
// and shows the list, inventory, totals and calendar of the ledger kept on
// a ledger server, or in a local file with -file.
package main

import (
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"ledger/internal/cli"
	"ledger/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	g := &globals{logger: cli.SetupClientLogger()}
	flag.StringVar(&g.serverURL, "server", cfg.ServerURL, "ledger server base URL")
	flag.StringVar(&g.sessionFile, "session", cfg.SessionFile, "path of the saved login session")
	flag.StringVar(&g.file, "file", "", "keep the ledger in this local JSON file instead of the server")
	flag.BoolVar(&g.plain, "plain", false, "print markdown instead of styled terminal output")
	flag.IntVar(&g.width, "width", 100, "terminal width for styled output")

	completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	register(commander, g)

	flag.Parse()
	ctx, stop := cli.SignalContext(g.logger)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func register(c *subcommands.Commander, g *globals) {
	c.Register(&loginCmd{g: g}, "account")
	c.Register(&registerCmd{g: g}, "account")
	c.Register(&logoutCmd{g: g}, "account")

	c.Register(&addCmd{g: g}, "transactions")
	c.Register(&deleteCmd{g: g}, "transactions")

	c.Register(&listCmd{g: g}, "views")
	c.Register(&inventoryCmd{g: g}, "views")
	c.Register(&totalsCmd{g: g}, "views")
	c.Register(&calendarCmd{g: g}, "views")
	c.Register(&reportCmd{g: g}, "views")
}
