// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/journeys/pkg/lease"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/persistence/file"
	"github.com/dukex/journeys/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the store named by databaseURL. File stores share
// claims across processes through Redis when redisURL is set.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL, redisURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		var opts []file.Option

		if redisURL != "" {
			locker, err := lease.NewRedisLockerFromURL(ctx, redisURL)
			if err != nil {
				return nil, fmt.Errorf("failed to connect claim locker: %w", err)
			}

			opts = append(opts, file.WithLocker(locker))
		}

		root := strings.TrimPrefix(databaseURL, "file://")

		logger.InfoContext(ctx, "Using file persistence", slog.String("root", root), slog.Bool("redis_locker", redisURL != ""))

		return file.NewPersistence(root, opts...), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
