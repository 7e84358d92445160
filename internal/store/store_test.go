package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fitness-planner/internal/config"
	"github.com/jonathan/fitness-planner/internal/types"
)

func sampleProgram(start types.Date) *types.Program {
	return &types.Program{
		ProgramLengthDays: 90,
		StartDate:         start,
		Template: types.TrainingTemplate{
			Meta: types.ProgramMeta{Summary: "Strength Base"},
		},
		Workouts: []types.ScheduledWorkout{
			{ID: "day-1", Day: 1, Name: "Upper A", ScheduledDate: start},
		},
	}
}

func TestMemoryStore_SetGet(t *testing.T) {
	s, err := NewMemoryStore(4)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	start := types.NewDate(2025, 1, 1)
	require.NoError(t, s.Set(ctx, "u-1", sampleProgram(start)))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Strength Base", got.Template.Meta.Summary)
	assert.Equal(t, start, got.StartDate)
	require.Len(t, got.Workouts, 1)
	assert.Equal(t, "day-1", got.Workouts[0].ID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s, err := NewMemoryStore(0)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s, err := NewMemoryStore(4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "u-1", sampleProgram(types.NewDate(2025, 1, 1))))
	require.NoError(t, s.Set(ctx, "u-1", sampleProgram(types.NewDate(2025, 2, 1))))

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", got.StartDate.String())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	s, err := NewMemoryStore(4)
	require.NoError(t, err)
	ctx := context.Background()

	program := sampleProgram(types.NewDate(2025, 1, 1))
	require.NoError(t, s.Set(ctx, "u-1", program))
	program.Workouts[0].Name = "changed"

	got, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Upper A", got.Workouts[0].Name)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	p := sampleProgram(types.NewDate(2025, 1, 1))

	require.NoError(t, s.Set(ctx, "a", p))
	require.NoError(t, s.Set(ctx, "b", p))
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "c", p))

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryStore_RequiresUserID(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)
	assert.Error(t, s.Set(context.Background(), " ", sampleProgram(types.NewDate(2025, 1, 1))))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{StoreBackend: config.StoreMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, &config.Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, &config.Config{StoreBackend: "s3"}, nil)
	assert.ErrorContains(t, err, "unknown store backend")
}
