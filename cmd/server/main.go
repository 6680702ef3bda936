package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
	"github.com/corvino/roomtalk/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "chat TCP port")
	flag.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "HTTP API port (0 disables)")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "maximum concurrent sessions")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// A bare port argument is accepted for compatibility with the classic
	// "server <port>" invocation.
	if flag.NArg() > 0 {
		port, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(0))
			os.Exit(2)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core := chat.New(cfg.MaxSessions, logger)
	tcp := server.NewTCPServer(core, cfg, logger)
	if err := tcp.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tcp.Serve(ctx)
	})
	if cfg.HTTPAddr() != "" {
		httpSrv := server.NewHTTP(core, cfg, logger)
		g.Go(func() error {
			return httpSrv.Serve(ctx)
		})
	}

	logger.Info("roomtalk server running", "chat_addr", tcp.Addr().String(), "http_addr", cfg.HTTPAddr())
	<-ctx.Done()
	logger.Info("shutting down")
	return g.Wait()
}

func setupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level(),
		AddSource: cfg.LogLevel == "debug",
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
