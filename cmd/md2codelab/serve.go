package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/config"
	"github.com/alnah/go-md2codelab/internal/dateutil"
	"github.com/alnah/go-md2codelab/internal/fetch"
	"github.com/alnah/go-md2codelab/internal/hints"
	"github.com/alnah/go-md2codelab/internal/identity"
	"github.com/alnah/go-md2codelab/internal/logging"
	"github.com/alnah/go-md2codelab/internal/server"
	"github.com/alnah/go-md2codelab/internal/store"
)

// runServe runs the web service until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, positional[0])
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}
	applyServeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(flags, cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store.DSN, store.WithClock(env.Now))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("store.close_failed", "error", cerr.Error())
		}
	}()

	srv, err := newServer(cfg, st, log, env.Now)
	if err != nil {
		return err
	}

	log.Info("serve.starting",
		"addr", cfg.Server.Addr,
		"db", cfg.Store.DSN,
		"allowed_prefix", cfg.Fetch.AllowedPrefix,
		"version", Version,
	)

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		if errors.Is(err, server.ErrListen) {
			return fmt.Errorf("%w%s", err, hints.ForListen(cfg.Server.Addr))
		}
		return err
	}

	log.Info("serve.stopped")
	return nil
}

// applyServeFlags merges serve flags into cfg. CLI wins.
func applyServeFlags(f *serveFlags, cfg *config.Config) {
	applyFetchFlags(&f.fetch, cfg)
	setString(&cfg.Server.Addr, f.addr)
	setString(&cfg.Store.DSN, f.dsn)
	setString(&cfg.Views.DateFormat, f.dateFormat)
	setString(&cfg.Log.Level, f.logLevel)
	setString(&cfg.Log.Format, f.logFormat)
	setString(&cfg.Assets.BasePath, f.assetPath)
	if f.viewsLimit > 0 {
		cfg.Views.Limit = f.viewsLimit
	}
}

// newLogger builds the service logger. --quiet keeps errors only and
// --verbose turns on debug output.
func newLogger(f *serveFlags, cfg *config.Config) (logging.Logger, error) {
	level := cfg.Log.Level
	switch {
	case f.common.quiet:
		level = "error"
	case f.common.verbose:
		level = "debug"
	}
	return logging.New(logging.Config{Level: level, Format: cfg.Log.Format, AddSource: f.common.verbose})
}

// newServer wires the conversion service and its HTTP surface from cfg.
func newServer(cfg *config.Config, st md2codelab.Store, log logging.Logger, now func() time.Time) (*server.Server, error) {
	loader, err := newAssetLoader(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}

	renderer, err := md2codelab.NewRenderer(md2codelab.WithAssetLoader(loader))
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(cfg.Fetch.AllowedPrefix,
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
	)
	svc := md2codelab.NewService(fetcher, st, identity.NewGenerator(now),
		md2codelab.WithRenderer(renderer),
		md2codelab.WithClock(now),
	)

	dates, err := dateutil.NewFormatter(cfg.Views.DateFormat, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("views.dateFormat: %w", err)
	}

	return server.New(svc,
		server.WithLogger(log),
		server.WithAllowedPrefix(cfg.Fetch.AllowedPrefix),
		server.WithViewsLimit(cfg.Views.Limit),
		server.WithDateFormatter(dates),
		server.WithAssets(loader),
		server.WithClock(now),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// newAssetLoader resolves the custom asset directory, falling back to the
// embedded assets when path is empty.
func newAssetLoader(path string) (md2codelab.AssetLoader, error) {
	loader, err := md2codelab.NewAssetLoader(path)
	if err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForAssetPath())
	}
	return loader, nil
}
