// scmlite - A terminal client for the SCM Lite shipment tracker.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/config"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/history"
	"github.com/morganforge/scmlite-tui/internal/poll"
	"github.com/morganforge/scmlite-tui/internal/token"
	"github.com/morganforge/scmlite-tui/internal/ui"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default: ~/.scmlite/config.toml)")
		backendURL  = flag.String("backend", "", "backend base URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("scmlite %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *backendURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, backendURL string) error {
	if err := config.EnsureDir(); err != nil {
		return err
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
		if p, perr := config.Path(); perr == nil {
			configPath = p
		}
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
		if verr := cfg.Validate(); verr != nil {
			return verr
		}
	}

	// Background errors (failed poll fetches, history writes) go to a log
	// file; stderr belongs to the TUI.
	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	})

	store := token.NewStore()
	g := guard.New(store, client)
	flow := authflow.New(client, store)

	var hist *history.Store
	if cfg.History.Enabled {
		path, herr := cfg.HistoryPath()
		if herr != nil {
			return herr
		}
		hist, herr = history.Open(path, cfg.History.RetainRows)
		if herr != nil {
			logger.Printf("history disabled: %v", herr)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	sink := ui.NewProgramSink(hist, logger)
	engine := poll.New(g, client, sink, time.Duration(cfg.Poll.IntervalSecs)*time.Second, logger)
	g.SetCancelHook(engine.Stop)

	theme := styles.NewTheme()
	model := ui.New(ui.Deps{
		Theme:   theme,
		Config:  cfg,
		Client:  client,
		Store:   store,
		Guard:   g,
		Flow:    flow,
		Engine:  engine,
		History: hist,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	sink.SetProgram(program)

	// Reload the config when the file changes on disk. Only values that
	// can take effect without a restart are applied.
	if configPath != "" {
		watcher, werr := config.NewWatcher(configPath, func(next *config.Config) {
			program.Send(ui.ConfigReloadedMsg{Config: next})
		})
		if werr == nil {
			if werr = watcher.Watch(); werr == nil {
				defer watcher.Close()
			} else {
				logger.Printf("config watcher failed: %v", werr)
			}
		} else {
			logger.Printf("config watcher unavailable: %v", werr)
		}
	}

	defer engine.Stop()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// openLogger sets up the background log file under the config directory.
func openLogger() (*log.Logger, func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "scmlite.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(f, "", log.LstdFlags)
	return logger, func() { f.Close() }, nil
}
