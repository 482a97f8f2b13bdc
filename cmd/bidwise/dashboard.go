package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bidwise/bidwise/internal/store"
	"github.com/bidwise/bidwise/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Open the interactive dashboard.

Keys: tab/shift+tab switch panels, up/down and enter select a project,
n creates a project, s changes the selected project's status, r reloads,
q quits. Logs are written to dashboard.log in the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// The terminal belongs to the UI; logs go to a file.
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		logPath := filepath.Join(cfg.Storage.DataDir, "dashboard.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()
		logger := setupLogging(cfg, logFile)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		st := store.New(newBackend(cfg, logger), logger)
		model := tui.New(ctx, st)
		defer model.Close()

		logger.Info("dashboard started", "base_url", cfg.API.BaseURL, "version", version)
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}
