package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/battmon/internal/config"
	"github.com/Dicklesworthstone/battmon/internal/export"
	"github.com/Dicklesworthstone/battmon/internal/logger"
	"github.com/Dicklesworthstone/battmon/internal/sampler"
	"github.com/Dicklesworthstone/battmon/internal/store"
	"github.com/Dicklesworthstone/battmon/internal/ui"
	"github.com/Dicklesworthstone/battmon/internal/window"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	cfg, err := config.FromFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		log.Println(err)
		return 2
	}

	logOut, closeLog, err := logWriter(cfg)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeLog()
	var appLog logger.Logger = logger.Discard()
	if logOut != nil {
		appLog = logger.New(cfg.LogLevel, cfg.LogFormat, logOut)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg, appLog)
	defer closeStore()

	src, err := sampler.NewBatterySource(cfg.Source)
	if err != nil {
		appLog.Error("battery source", "error", err)
		return 1
	}
	s := sampler.New(cfg.Interval, src, st, appLog)
	appLog.Info("battmon: starting", "source", src.Name(), "store", cfg.Store, "interval", cfg.Interval)

	if cfg.JSON {
		s.Restore(ctx)
		snap, err := s.Tick(ctx, time.Now())
		if err != nil {
			log.Println(err)
			return 1
		}
		if err := export.WriteOne(os.Stdout, snap); err != nil {
			log.Println(err)
			return 1
		}
		return 0
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)
	snaps := s.Stream(gCtx)

	g.Go(func() error {
		if cfg.JSONStream {
			return export.Stream(gCtx, os.Stdout, snaps)
		}
		return ui.Run(gCtx, ui.New(snaps, cancel))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("battmon failed", "error", err)
		return 1
	}
	appLog.Info("battmon stopped")
	return 0
}

// logWriter picks where logs go. A nil writer means the TUI owns the
// terminal and logs are discarded.
func logWriter(cfg config.Config) (io.Writer, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if cfg.JSON || cfg.JSONStream {
		return os.Stderr, func() {}, nil
	}
	return nil, func() {}, nil
}

// openStore falls back to no persistence when the configured store is
// unreachable; the window then only lives for this process.
func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (store.Store, func()) {
	switch cfg.Store {
	case "file":
		return store.NewFile(cfg.StatePath), func() {}
	case "redis":
		r, err := store.NewRedis(ctx, store.RedisOptions{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "battmon:",
			TTL:      window.StaleAfter,
		})
		if err != nil {
			log.Error("failed to init redis, window will not persist", "error", err)
			return store.Nop{}, func() {}
		}
		log.Info("redis connected")
		return r, func() { r.Close() }
	}
	return store.Nop{}, func() {}
}
