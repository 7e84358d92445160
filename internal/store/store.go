// Package store persists generated programs per user.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/fitness-planner/internal/config"
	"github.com/jonathan/fitness-planner/internal/logger"
	"github.com/jonathan/fitness-planner/internal/types"
)

// ErrNotFound is returned by Get when the user has no stored program.
var ErrNotFound = errors.New("plan not found")

// PlanStore saves and loads the latest program of each user.
type PlanStore interface {
	Get(ctx context.Context, userID string) (*types.Program, error)
	Set(ctx context.Context, userID string, program *types.Program) error
	Close() error
}

// Open returns the store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (PlanStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	log.Info("opening plan store", "backend", backend)

	switch backend {
	case "", config.StoreMemory:
		return NewMemoryStore(cfg.MemoryStoreSize)
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.StoreTTL.Std())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func checkUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is required")
	}
	return nil
}
