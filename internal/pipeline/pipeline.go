// Package pipeline provides the high-level orchestration for 90-day program generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fitness-planner/internal/assembly"
	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/logger"
	"github.com/jonathan/fitness-planner/internal/planning"
	"github.com/jonathan/fitness-planner/internal/types"
)

// DefaultBudget is the wall-clock limit of one generation run.
const DefaultBudget = 55 * time.Second

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

type progressKey struct{}

// WithProgress returns a context whose runs also report progress to cb, in
// addition to the pipeline's configured callback.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

// Config holds the pipeline's collaborators and limits.
type Config struct {
	Planner *planning.Planner
	// Budget bounds a whole run; zero means DefaultBudget.
	Budget time.Duration
	// Clock supplies the current time for the start date; nil means time.Now.
	Clock func() time.Time
	Logger *logger.Logger
	// OnProgress, if set, is called from the run's goroutine.
	OnProgress ProgressCallback
	// SingleDetailCall generates all details with one request instead of the batched fan-out.
	SingleDetailCall bool
}

// Pipeline runs blueprint, detail and assembly stages for one assessment at a
// time. It holds no state between runs and is safe for concurrent use.
type Pipeline struct {
	planner    *planning.Planner
	budget     time.Duration
	clock      func() time.Time
	log        *logger.Logger
	onProgress ProgressCallback
	single     bool
}

// TimeoutError is returned when a run exceeds its budget.
type TimeoutError struct {
	Budget time.Duration
	// Step is the step that was running when the budget ran out.
	Step string
}

func (e *TimeoutError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("plan generation exceeded %s during %s", e.Budget, e.Step)
	}
	return fmt.Sprintf("plan generation exceeded %s", e.Budget)
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Planner == nil || cfg.Planner.Client == nil {
		return nil, errors.New("pipeline: a planner with an LLM client is required")
	}
	p := &Pipeline{
		planner:    cfg.Planner,
		budget:     cfg.Budget,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		onProgress: cfg.OnProgress,
		single:     cfg.SingleDetailCall,
	}
	if p.budget <= 0 {
		p.budget = DefaultBudget
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	return p, nil
}

// StartDate returns the program start date for a run beginning at now: the
// following calendar day in UTC.
func StartDate(now time.Time) types.Date {
	return types.DateOf(now).AddDays(1)
}

type runResult struct {
	program *types.Program
	err     error
}

// Generate90DayPlan generates and assembles a complete program. It returns a
// *TimeoutError when the budget runs out; in-flight stage calls are canceled.
func (p *Pipeline) Generate90DayPlan(ctx context.Context, assessment types.Assessment) (*types.Program, error) {
	if err := assessment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assessment: %w", err)
	}

	runID := uuid.NewString()
	log := p.log.With("run_id", runID, "user_id", assessment.UserID)
	start := StartDate(p.clock())

	runCtx, cancel := context.WithTimeout(ctx, p.budget)
	defer cancel()

	tracker := &stepTracker{}
	done := make(chan runResult, 1)
	began := time.Now()

	go func() {
		program, err := p.run(runCtx, runID, assessment, start, tracker)
		done <- runResult{program: program, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if timedOut(ctx, runCtx) {
				return nil, p.timeout(log, tracker.current())
			}
			log.Error("plan generation failed", "step", tracker.current(), "error", res.err, "kind", generation.KindOf(res.err))
			return nil, res.err
		}
		log.Info("plan generated",
			"workouts", len(res.program.Workouts),
			"start_date", res.program.StartDate.String(),
			"duration", time.Since(began))
		return res.program, nil
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, p.timeout(log, tracker.current())
	}
}

func timedOut(parent, run context.Context) bool {
	return parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded)
}

func (p *Pipeline) timeout(log *logger.Logger, step string) error {
	log.Warn("plan generation timed out", "budget", p.budget, "step", step)
	return &TimeoutError{Budget: p.budget, Step: step}
}

func (p *Pipeline) run(ctx context.Context, runID string, assessment types.Assessment, start types.Date, tracker *stepTracker) (*types.Program, error) {
	tracker.set(StepBlueprint)
	p.emit(ctx, runID, StepBlueprint, "Designing program blueprint", nil)
	bp, err := p.planner.GenerateBlueprint(ctx, assessment)
	if err != nil {
		return nil, fmt.Errorf("blueprint: %w", err)
	}
	p.emit(ctx, runID, StepBlueprint, "Blueprint ready", bp.ProgramOverview)

	tracker.set(StepDetails)
	p.emit(ctx, runID, StepDetails, fmt.Sprintf("Generating details for %d day types", len(bp.SplitDesign.DayTypes)), nil)
	var details *types.PlanDetails
	if p.single {
		details, err = p.planner.GeneratePlanDetails(ctx, assessment, bp)
	} else {
		details, err = p.planner.GenerateDetails(ctx, assessment, bp)
	}
	if err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	p.emit(ctx, runID, StepDetails, "Details ready", nil)

	tracker.set(StepAssemble)
	program, err := assembly.Assemble(bp, details, assessment, start)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	p.emit(ctx, runID, StepAssemble, fmt.Sprintf("Scheduled %d workouts from %s", len(program.Workouts), start), nil)

	return program, nil
}

// emit calls the configured and per-run progress callbacks
func (p *Pipeline) emit(ctx context.Context, runID, step, message string, content any) {
	perRun, _ := ctx.Value(progressKey{}).(ProgressCallback)
	if p.onProgress == nil && perRun == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: stepCategory(step),
		Message:  fmt.Sprintf("Step %d/%d: %s", stepNumber(step), len(Steps), message),
		RunID:    runID,
		Content:  content,
	}
	if p.onProgress != nil {
		p.onProgress(event)
	}
	if perRun != nil {
		perRun(event)
	}
}
