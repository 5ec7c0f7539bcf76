package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"ledger/internal/cli"
	"ledger/internal/controller"
	"ledger/internal/core"
	"ledger/internal/gateway"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/render"
)

var (
	errNotLoggedIn    = errors.New("not logged in, run `ledger login` first")
	errSessionExpired = errors.New("session expired, run `ledger login` again")
)

// globals are the top-level flags shared by every command.
type globals struct {
	serverURL   string
	sessionFile string
	file        string
	plain       bool
	width       int

	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func (g *globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *globals) errOut() io.Writer {
	if g.stderr == nil {
		return os.Stderr
	}
	return g.stderr
}

// gateway picks the local file or the logged-in server.
func (g *globals) gateway() (gateway.Gateway, error) {
	if g.file != "" {
		return gateway.NewFileGateway(g.file), nil
	}
	s, err := cli.LoadSession(g.sessionFile)
	if errors.Is(err, cli.ErrNoSession) {
		return nil, errNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	server := s.ServerURL
	if server == "" {
		server = g.serverURL
	}
	return gateway.NewHTTPGateway(server, s.Token), nil
}

// printMarkdown writes md styled for the terminal, or raw with -plain.
func (g *globals) printMarkdown(md string) {
	if !g.plain {
		if styled, err := render.Terminal(md, g.width); err == nil {
			md = styled
		} else {
			g.logger.Warn("Terminal rendering failed", log.FieldError, err)
		}
	}
	fmt.Fprint(g.out(), md)
}

// trackingGateway remembers the outcome of the last Load so an expired
// session can be told apart from an empty ledger.
type trackingGateway struct {
	gateway.Gateway
	loadErr error
}

func (t *trackingGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	records, err := t.Gateway.Load(ctx)
	t.loadErr = err
	return records, err
}

// app is one command's session: a loaded ledger behind a controller with
// saves running in the background.
type app struct {
	ctrl    *controller.Controller
	saver   *gateway.AsyncSaver
	loadErr error
}

func openApp(ctx context.Context, g *globals) (*app, error) {
	gw, err := g.gateway()
	if err != nil {
		return nil, err
	}
	tracked := &trackingGateway{Gateway: gw}
	saver := gateway.NewAsyncSaver(tracked, g.logger, 0)

	ctrl := controller.New(ledger.New(), saver,
		controller.WithLogger(g.logger),
		controller.WithNotifier(controller.NotifierFunc(func(kind controller.NotificationKind, msg string) {
			fmt.Fprintf(g.errOut(), "%s %s\n", render.NotificationTitle(kind), msg)
		})))
	ctrl.Load(ctx, tracked)

	if errors.Is(tracked.loadErr, gateway.ErrUnauthorized) {
		_ = saver.Close(ctx)
		return nil, errSessionExpired
	}
	return &app{ctrl: ctrl, saver: saver, loadErr: tracked.loadErr}, nil
}

// writable fails when the stored ledger could not be read. Views may show
// the empty fallback, but saving it would replace the stored copy.
func (a *app) writable() error {
	if a.loadErr != nil {
		return fmt.Errorf("ledger could not be loaded, nothing was changed: %w", a.loadErr)
	}
	return nil
}

// close waits for queued saves. Failed saves are reported, not retried.
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := a.saver.Close(ctx); err != nil {
		return fmt.Errorf("waiting for save: %w", err)
	}
	if n := a.saver.Failures(); n > 0 {
		return fmt.Errorf("%d save(s) failed, the server copy may be out of date", n)
	}
	return nil
}
