package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bidwise/bidwise/internal/api"
	"github.com/bidwise/bidwise/internal/config"
	"github.com/bidwise/bidwise/internal/storage"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Serve the procurement API from a local SQLite database",
	Long: `Serve the procurement API from a local SQLite database for development.

An empty database is filled from --seed, or from the built-in demo data.
When api.token is set, every route except /health requires it as a bearer token.

Examples:
  bidwise backend
  bidwise backend --seed ./fixtures/regions.yaml --port 5050`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedPath, _ := cmd.Flags().GetString("seed")
		noSeed, _ := cmd.Flags().GetBool("no-seed")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		logger := setupLogging(cfg, stderr)

		return runBackend(cfg, logger, seedPath, noSeed)
	},
}

func init() {
	backendCmd.Flags().String("seed", "", "YAML file to seed an empty database with")
	backendCmd.Flags().Bool("no-seed", false, "leave an empty database empty")
	backendCmd.Flags().Int("port", 0, "override server.port")
	backendCmd.Flags().String("host", "", "override server.host")
}

func runBackend(cfg config.Config, logger *slog.Logger, seedPath string, noSeed bool) error {
	db, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()

	if !noSeed {
		if err := seedIfEmpty(db, seedPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewBackendHandler(api.BackendDeps{
			Store:  db,
			Token:  cfg.API.Token,
			Logger: logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	printStatus("Listening", "http://%s", srv.Addr)
	printStatus("Database", "%s", cfg.Storage.DataDir)
	if cfg.API.Token != "" {
		printStatus("Auth", "bearer token required")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func seedIfEmpty(db *storage.Store, seedPath string) error {
	empty, err := db.Empty()
	if err != nil {
		return fmt.Errorf("inspecting database: %w", err)
	}
	if !empty {
		if seedPath != "" {
			printWarning("database already has projects, ignoring --seed %s", seedPath)
		}
		return nil
	}

	seed, source := storage.Seed{}, "built-in demo data"
	if seedPath != "" {
		seed, err = storage.LoadSeed(seedPath)
		source = seedPath
	} else {
		seed, err = storage.DemoSeed()
	}
	if err != nil {
		return err
	}

	printStep("Seeding empty database from %s", source)
	if err := db.ApplySeed(seed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	printSuccess("Seeded %d projects, %d bids, %d traffic samples", len(seed.Projects), len(seed.Bids), len(seed.Traffic))
	return nil
}
