package main

import (
	"flag"
	"io"
	"log/slog"
	"strings"
	"time"

	"static-httpd/application/http/actor/server"
	"static-httpd/application/http/static"

	"github.com/pkg/errors"
)

const envPrefix = "HTTPD_"

type config struct {
	addr string

	server server.Options
	static static.Options

	logLevel  slog.Level
	logFormat string
}

var (
	errFlags  = errors.New("invalid flags")
	errConfig = errors.New("invalid configuration")
)

// parseConfig reads the configuration from args.
// A flag not given in args takes the value of the HTTPD_<FLAG> environment variable, if any.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (config, error) {
	cfg := config{
		server: server.DefaultOptions(),
		static: static.DefaultOptions(),
	}

	var (
		maxHeaderBytes uint
		logLevel       string
	)

	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.addr, "addr", "127.0.0.1:8080", "address to listen on, as host:port")
	fs.StringVar(&cfg.static.Root, "root", cfg.static.Root, "directory to serve files from")
	fs.StringVar(&cfg.static.Index, "index", cfg.static.Index, "document served for a directory")
	fs.StringVar(&cfg.static.NotFoundPage, "not-found", "", "file under root used as the body of 404 responses")
	fs.DurationVar(&cfg.server.Serve.Timeout.ReadTimeout, "read-timeout", 30*time.Second, "time allowed to receive a request head")
	fs.DurationVar(&cfg.server.Serve.Timeout.WriteTimeout, "write-timeout", 30*time.Second, "time allowed to write a response")
	fs.UintVar(&maxHeaderBytes, "max-header-bytes", cfg.server.Serve.Decode.MaxHeaderBytes, "limit on the size of a request head")
	fs.UintVar(&cfg.server.MaxConns, "max-conns", 0, "limit on connections served at once, 0 for no limit")
	fs.StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "one of text, json")

	var presetErr error
	fs.VisitAll(func(f *flag.Flag) {
		key := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		v := getenv(key)
		if v == "" || presetErr != nil {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			presetErr = errors.Wrapf(errConfig, "%s: %v", key, err)
		}
	})
	if presetErr != nil {
		return config{}, presetErr
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config{}, err
		}
		return config{}, errors.Wrap(errFlags, err.Error())
	}
	if fs.NArg() > 0 {
		return config{}, errors.Wrapf(errFlags, "unexpected arguments: %v", fs.Args())
	}

	if err := cfg.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, errors.Wrapf(errConfig, "log level %q", logLevel)
	}

	switch cfg.logFormat {
	case "text", "json":
	default:
		return config{}, errors.Wrapf(errConfig, "log format %q", cfg.logFormat)
	}

	if maxHeaderBytes == 0 {
		return config{}, errors.Wrap(errConfig, "max header bytes should be positive")
	}
	cfg.server.Serve.Decode.MaxHeaderBytes = maxHeaderBytes

	if cfg.server.Serve.Timeout.ReadTimeout < 0 || cfg.server.Serve.Timeout.WriteTimeout < 0 {
		return config{}, errors.Wrap(errConfig, "timeouts should not be negative")
	}

	return cfg, nil
}

func (cfg config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.logLevel}

	if cfg.logFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
