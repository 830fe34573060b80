// icarus inspect - terminal client for the Xopsentia component
// inspection demo.
//
// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icarus698x/landing-page/internal/api"
	"github.com/icarus698x/landing-page/internal/chat"
	"github.com/icarus698x/landing-page/internal/config"
	"github.com/icarus698x/landing-page/internal/sas"
	"github.com/icarus698x/landing-page/internal/speech"
	"github.com/icarus698x/landing-page/internal/storage"
	chatui "github.com/icarus698x/landing-page/internal/ui/chat"
	"github.com/icarus698x/landing-page/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	apiURL := flag.String("api", "", "override the inspection service URL")
	flag.Parse()

	if *showVersion {
		fmt.Printf("icarus %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "icarus: %v\n", err)
		os.Exit(1)
	}
}

func run(apiURL string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	// TUI output owns the terminal; route logs to a file when debugging.
	if os.Getenv("ICARUS_DEBUG") != "" {
		f, err := tea.LogToFile("icarus-debug.log", "debug")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	client := api.NewClient(cfg.API.BaseURL)
	if cfg.API.TimeoutSecs > 0 && cfg.API.TimeoutSecs != int(api.DefaultTimeout/time.Second) {
		client = client.WithHTTPClients(&http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
		}, nil)
	}

	session := chat.NewSession(client)
	var store *storage.ChatStore
	if cfg.History.Enabled {
		if cfg.History.Dir != "" {
			store, err = storage.NewChatStoreWithDir(cfg.History.Dir)
		} else {
			store, err = storage.NewChatStore()
		}
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if cfg.History.MaxSessions > 0 {
			store.MaxSessions = cfg.History.MaxSessions
		}
		session = session.WithArchiver(store)
	}

	resolver := sas.NewResolver(client)

	theme := styles.NewTheme()
	m := chatui.New(theme, session, resolver, cfg.UI).
		WithRecognizer(speech.NewUnavailable())
	if store != nil {
		m = m.WithHistory(store)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Stream events arrive on the session's submit goroutine; posting
	// through the program keeps all rendering on the update loop.
	session.OnUpdate(func() {
		p.Send(chatui.SessionUpdatedMsg{})
	})

	_, err = p.Run()
	return err
}
