package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/bidwise/bidwise/internal/client"
	"github.com/bidwise/bidwise/internal/config"
	"github.com/bidwise/bidwise/internal/store"
)

// newBackend builds the REST client for cfg. Tests replace it to point the
// commands at an httptest server.
var newBackend = func(cfg config.Config, logger *slog.Logger) store.Backend {
	return client.New(cfg.API.BaseURL,
		client.WithToken(cfg.API.Token),
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
	)
}

// openStore loads configuration and returns a view-state store wired to the
// configured API. Logs go to stderr.
func openStore() (*store.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	logger := setupLogging(cfg, stderr)
	return store.New(newBackend(cfg, logger), logger), cfg, nil
}

// commandContext bounds a one-shot command by a multiple of the request
// timeout; LoadInitial issues several requests in sequence.
func commandContext(cfg config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 4*cfg.API.Timeout+time.Second)
}
