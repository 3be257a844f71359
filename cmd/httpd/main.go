// Command httpd serves static files over HTTP/1.1.
//
// Each connection carries a single request. The process exits with 0 on
// SIGINT or SIGTERM, 1 when it can not start serving, and 2 on bad flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"static-httpd/application/http/actor/server"
	"static-httpd/application/http/static"
	"static-httpd/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Getenv, os.Stderr))
}

func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	cfg, err := parseConfig(args, getenv, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errFlags):
		fmt.Fprintln(stderr, err)
		return 2
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := cfg.newLogger(stderr)

	handler, err := static.New(cfg.static)
	if err != nil {
		logger.Error("failed to open content root", "root", cfg.static.Root, "error", err)
		return 1
	}
	defer handler.Close()

	l, err := tcp.Listen(ctx, cfg.addr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.addr, "error", err)
		return 1
	}
	defer l.Close()

	srv := server.New(l, logger, clock.New(), handler.Handle, cfg.server)
	srv.Start()

	logger.Info("serving files", "root", handler.Root(), "addr", l.Addr())

	<-ctx.Done()
	logger.Info("shutting down", "reason", context.Cause(ctx))

	if err := srv.Close(); err != nil {
		logger.Error("failed to stop server", "error", err)
		return 1
	}

	return 0
}
