package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"ledger/internal/cli"
	"ledger/internal/gateway"
)

type loginCmd struct {
	g        *globals
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in and remember the session" }
func (*loginCmd) Usage() string {
	return `ledger login -u <username> [-p <password>]

  Logs in to the ledger server. The password is read from stdin when -p is
  omitted.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
	f.StringVar(&c.password, "p", "", "password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(os.Stderr, "Error: -u is required")
		return subcommands.ExitUsageError
	}
	password, err := passwordOrPrompt(c.password, os.Stdin, c.g.errOut())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := login(ctx, c.g, c.username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.g.out(), "Вход выполнен: %s\n", c.username)
	return subcommands.ExitSuccess
}

func login(ctx context.Context, g *globals, username, password string) error {
	res, err := gateway.NewHTTPGateway(g.serverURL, "").Login(ctx, username, password)
	if err != nil {
		return err
	}
	return cli.SaveSession(g.sessionFile, cli.Session{
		ServerURL: g.serverURL,
		Token:     res.Token,
		UserID:    res.User.ID,
		Username:  res.User.Username,
		IsAdmin:   res.User.IsAdmin,
	})
}

type registerCmd struct {
	g        *globals
	username string
	password string
	email    string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account and log in" }
func (*registerCmd) Usage() string {
	return `ledger register -u <username> [-p <password>] [-email <address>]

  Creates an account on the ledger server. The first account becomes the
  administrator.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "username")
	f.StringVar(&c.password, "p", "", "password")
	f.StringVar(&c.email, "email", "", "e-mail address")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		fmt.Fprintln(os.Stderr, "Error: -u is required")
		return subcommands.ExitUsageError
	}
	password, err := passwordOrPrompt(c.password, os.Stdin, c.g.errOut())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitFailure
	}

	user, err := gateway.NewHTTPGateway(c.g.serverURL, "").Register(ctx, c.username, password, c.email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if user.IsAdmin {
		fmt.Fprintf(c.g.out(), "Пользователь создан: %s (администратор)\n", user.Username)
	} else {
		fmt.Fprintf(c.g.out(), "Пользователь создан: %s\n", user.Username)
	}

	if err := login(ctx, c.g, c.username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error logging in: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type logoutCmd struct{ g *globals }

func (*logoutCmd) Name() string           { return "logout" }
func (*logoutCmd) Synopsis() string       { return "forget the saved session" }
func (*logoutCmd) Usage() string          { return "ledger logout\n" }
func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (c *logoutCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	if err := cli.ClearSession(c.g.sessionFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// passwordOrPrompt returns flagValue, or reads the password from in. A
// terminal gets a prompt without echo; anything else is read as one line.
func passwordOrPrompt(flagValue string, in io.Reader, prompt io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(prompt, "Пароль: ")

	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		password = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	return password, nil
}
