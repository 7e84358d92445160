package planning

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/types"
)

// StageDetails names the combined detail fan-out in errors.
const StageDetails = "details"

// Batch splits ids into consecutive groups of at most size ids, keeping order.
func Batch(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batch := make([]string, end-start)
		copy(batch, ids[start:end])
		batches = append(batches, batch)
	}
	return batches
}

// GenerateDetails generates workout details in batches, recovery details and
// coach notes concurrently and merges them. Any failing call fails the whole
// operation and cancels the calls still running.
func (p *Planner) GenerateDetails(ctx context.Context, assessment types.Assessment, bp *types.PlanBlueprint) (*types.PlanDetails, error) {
	batches := Batch(bp.WorkoutDayTypeIDs(), p.batchSize())
	recoveryIDs := bp.RecoveryDayTypeIDs()

	p.log().Info("generating plan details",
		"workout_batches", len(batches),
		"recovery_day_types", len(recoveryIDs))
	start := time.Now()

	g, gCtx := errgroup.WithContext(ctx)

	// Each goroutine writes only its own slot.
	workoutResults := make([]types.DayTypeDetails, len(batches))
	var recovery types.DayTypeDetails
	var notes *types.CoachNotes

	for i, batch := range batches {
		g.Go(func() error {
			details, err := p.GenerateWorkoutDetails(gCtx, assessment, bp, batch)
			if err != nil {
				return err
			}
			workoutResults[i] = details
			return nil
		})
	}

	if len(recoveryIDs) > 0 {
		g.Go(func() error {
			details, err := p.GenerateRecoveryDetails(gCtx, assessment, bp, recoveryIDs)
			if err != nil {
				return err
			}
			recovery = details
			return nil
		})
	}

	g.Go(func() error {
		n, err := p.GenerateCoachNotes(gCtx, assessment, bp)
		if err != nil {
			return err
		}
		notes = n
		return nil
	})

	if err := g.Wait(); err != nil {
		p.log().Error("plan details failed", "error", err, "kind", generation.KindOf(err))
		return nil, err
	}

	merged, err := MergeDetails(append(workoutResults, recovery)...)
	if err != nil {
		return nil, err
	}

	p.log().Info("plan details generated", "day_types", len(merged), "duration", time.Since(start))
	return &types.PlanDetails{DayTypeDetails: merged, GlobalCoachNotes: *notes}, nil
}

// MergeDetails merges detail maps keyed by day type id. An id present in more
// than one part is a composition error.
func MergeDetails(parts ...types.DayTypeDetails) (types.DayTypeDetails, error) {
	merged := make(types.DayTypeDetails)
	for _, part := range parts {
		for _, id := range part.IDs() {
			if _, dup := merged[id]; dup {
				return nil, &generation.Error{
					Kind:    generation.KindComposition,
					Stage:   StageDetails,
					Message: fmt.Sprintf("day type %q was generated by more than one call", id),
				}
			}
			merged[id] = part[id]
		}
	}
	return merged, nil
}
