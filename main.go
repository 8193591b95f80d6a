package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spotdemo4/message-panel/internal/backend"
	"github.com/spotdemo4/message-panel/internal/telemetry"
	"github.com/spotdemo4/message-panel/internal/tui"
)

var version = "dev"

func main() {
	err := run()
	if err != nil {
		tui.PrintErr("error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	c, err := getConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI, diagnostics go to a file
	f, err := tea.LogToFile(c.logFile, "message-panel")
	if err != nil {
		tui.PrintWarn("warning: could not open log file %s: %v", c.logFile, err)
		log.SetOutput(io.Discard)
	} else {
		defer f.Close()
	}

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		tui.PrintWarn("warning: could not set up tracing: %v", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()

		err := shutdown(sctx)
		if err != nil {
			log.Printf("could not flush traces: %v", err)
		}
	}()

	client := backend.New(c.url,
		backend.WithTimeout(c.timeout),
		backend.WithHeaders(c.headers),
	)

	panel := tui.New(ctx, client,
		tui.WithLogger(log.Default()),
		tui.WithVersion(version),
		tui.WithHealthCheck(client.Health),
	)
	defer panel.Close()

	_, err = tea.NewProgram(panel, tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return err
	}

	return nil
}
