package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spoolwatch/internal/auth"
	"github.com/five82/spoolwatch/internal/config"
	"github.com/five82/spoolwatch/internal/metrics"
	"github.com/five82/spoolwatch/internal/prefs"
	"github.com/five82/spoolwatch/internal/spooler"
	"github.com/five82/spoolwatch/internal/state"
	"github.com/five82/spoolwatch/internal/submit"
	"github.com/five82/spoolwatch/internal/ui"
)

const gateTimeout = 10 * time.Second

// Options configure the spoolwatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/spoolwatch/prefs.toml
	ServerURL  string        // overrides the config file when set
	PollEvery  time.Duration // zero uses the configured interval
	File       string        // prefills the submission form
}

// Connect loads the configuration, applies command-line overrides and builds
// a client that resumes any saved session.
func Connect(opts Options) (config.Config, *spooler.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	client, err := spooler.NewClient(cfg.ServerURL, cfg.SessionPath())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init spooler client: %w", err)
	}
	return cfg, client, nil
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, client, err := Connect(opts)
	if err != nil {
		return err
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	// The TUI owns the terminal; diagnostics go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath()), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.LogPath(), "spoolwatch")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	store := state.NewStore(cfg.LogLines)
	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("metrics listener: %v", err)
			}
		}()
	}

	syncer := NewSyncer(client, store, collector)
	gate(ctx, client, store)

	syncer.StartRefresher(ctx)
	StartPoller(ctx, syncer, cfg.PollInterval)
	StartPush(ctx, client, syncer, PushOptions{
		BaseDelay:   cfg.ReconnectBase,
		MaxDelay:    cfg.ReconnectMax,
		MaxAttempts: cfg.ReconnectAttempts,
	})

	return ui.Run(ctx, ui.Options{
		Context:     ctx,
		Client:      client,
		Store:       store,
		Refresher:   syncer,
		Submitter:   submit.Submitter{API: client, Allowed: cfg.AllowedExtensions},
		Metrics:     collector,
		ServerLabel: client.BaseURL(),
		LogPath:     cfg.LogPath(),
		ThemeName:   userPrefs.Theme,
		PrefsPath:   opts.PrefsPath,
		Username:    cfg.Username,
		File:        opts.File,
	})
}

// gate decides the first view from the server's session check.
func gate(ctx context.Context, checker auth.Checker, store *state.Store) auth.Route {
	gateCtx, cancel := context.WithTimeout(ctx, gateTimeout)
	defer cancel()
	session, route := auth.Gate(gateCtx, checker)
	if route == auth.RouteDashboard {
		store.SetSession(session)
	} else {
		store.RequireLogin()
	}
	return route
}
