package store

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jonathan/fitness-planner/internal/types"
)

// DefaultMemorySize bounds the number of users kept by a MemoryStore.
const DefaultMemorySize = 1024

// MemoryStore keeps programs in a bounded LRU cache. Entries are stored as
// JSON so callers never share memory with the store.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore creates a store holding at most size users.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Get implements PlanStore.
func (s *MemoryStore) Get(_ context.Context, userID string) (*types.Program, error) {
	raw, ok := s.cache.Get(userID)
	if !ok {
		return nil, ErrNotFound
	}
	var program types.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &program, nil
}

// Set implements PlanStore.
func (s *MemoryStore) Set(_ context.Context, userID string, program *types.Program) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	raw, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	s.cache.Add(userID, raw)
	return nil
}

// Len returns the number of stored programs.
func (s *MemoryStore) Len() int { return s.cache.Len() }

// Close implements PlanStore.
func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
