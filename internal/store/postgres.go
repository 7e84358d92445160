package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/fitness-planner/internal/types"
)

const createPlansTable = `CREATE TABLE IF NOT EXISTS workout_plans (
	user_id            TEXT PRIMARY KEY,
	plan               JSONB NOT NULL,
	program_start_date DATE NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps one row per user in the workout_plans table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore establishes a connection pool and creates the table if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createPlansTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create workout_plans table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Get implements PlanStore.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*types.Program, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT plan FROM workout_plans WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	var program types.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &program, nil
}

// Set implements PlanStore. An existing row for the user is replaced.
func (s *PostgresStore) Set(ctx context.Context, userID string, program *types.Program) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if program.StartDate.IsZero() {
		return errors.New("program has no start date")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO workout_plans (user_id, plan, program_start_date)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET plan = $2, program_start_date = $3, updated_at = NOW()`,
		userID, jsonBytes, program.StartDate.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
