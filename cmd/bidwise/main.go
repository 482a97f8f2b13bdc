package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/bidwise/bidwise/internal/config"
)

var version = "dev"

var (
	noColor    bool
	jsonOutput bool
	baseURL    string
)

var rootCmd = &cobra.Command{
	Use:   "bidwise",
	Short: "School connectivity procurement dashboard",
	Long: `bidwise tracks procurement projects, the bids submitted for them,
network traffic and implementation progress.

It talks to the procurement REST API configured as api.base_url. Run
"bidwise backend" to serve a local development API backed by SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
			noColor = true
		}
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of formatted output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "override api.base_url for this invocation")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(bidsCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(trafficCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(backendCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bidwise version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bidwise version %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if baseURL != "" {
		if err := config.ValidateBaseURL(baseURL); err != nil {
			return config.Config{}, err
		}
		cfg.API.BaseURL = baseURL
	}
	return cfg, nil
}

// setupLogging installs the default slog logger writing to w at the
// configured level.
func setupLogging(cfg config.Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
