package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nav-telemetry/tui/internal/app"
	"github.com/nav-telemetry/tui/internal/client"
	"github.com/nav-telemetry/tui/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to console config file")
	wsURL := flag.String("url", "", "WebSocket URL of the telemetry daemon (overrides config)")
	token := flag.String("token", "", "Auth token (overrides config)")
	style := flag.String("style", "", "Glamour style for event details: dark, light, notty (overrides config)")
	logPath := flag.String("log", "", "Write client logs to this file instead of discarding them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *wsURL != "" {
		cfg.URL = *wsURL
	}
	if *token != "" {
		cfg.Token = *token
	}
	if *style != "" {
		cfg.Style = *style
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The alternate screen owns the terminal; keep reconnect noise off it.
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "navtel")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ws := client.NewWSClient(cfg.URL, cfg.Token)
	httpClient := client.NewHTTPClient(cfg.HTTPBase(), cfg.Token)

	m := app.New(ws, httpClient, app.Options{
		Style:     cfg.Style,
		Poll:      cfg.Poll,
		MaxEvents: cfg.MaxEvents,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
