// Package planning implements the LLM generation stages of a 90-day program:
// the blueprint, the per-day-type details, coach notes and coach hints.
package planning

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/logger"
	"github.com/jonathan/fitness-planner/internal/prompts"
	"github.com/jonathan/fitness-planner/internal/schemas"
	"github.com/jonathan/fitness-planner/internal/types"
)

// Stage names used in errors and logs
const (
	StageBlueprint       = "blueprint"
	StageWorkoutDetails  = "workout_details"
	StageRecoveryDetails = "recovery_details"
	StageCoachNotes      = "coach_notes"
	StagePlanDetails     = "plan_details"
	StageCoachHint       = "coach_hint"
	StageCoachCheckIn    = "coach_checkin"
)

// Defaults
const (
	DefaultBatchSize    = 3
	DefaultStageTimeout = 45 * time.Second
)

// Planner runs generation stages against an llm.Client. The zero value of every
// field except Client is usable.
type Planner struct {
	Client llm.Client
	Logger *logger.Logger
	// Policy is used by the blueprint and detail stages.
	Policy generation.Policy
	// LightPolicy is used by coach notes and coach hints.
	LightPolicy generation.Policy
	// StageTimeout bounds each completion call.
	StageTimeout time.Duration
	// BatchSize is the number of workout day types per detail call.
	BatchSize int
}

// New returns a Planner with default policies.
func New(client llm.Client, log *logger.Logger) *Planner {
	return &Planner{
		Client:       client,
		Logger:       log,
		Policy:       generation.DefaultPolicy(),
		LightPolicy:  generation.LightPolicy(),
		StageTimeout: DefaultStageTimeout,
		BatchSize:    DefaultBatchSize,
	}
}

func (p *Planner) log() *logger.Logger {
	if p.Logger == nil {
		return logger.NewNop()
	}
	return p.Logger
}

func (p *Planner) batchSize() int {
	if p.BatchSize < 1 {
		return DefaultBatchSize
	}
	return p.BatchSize
}

func (p *Planner) policy(light bool) generation.Policy {
	pol := p.Policy
	if light {
		pol = p.LightPolicy
	}
	if pol.MaxAttempts == 0 {
		if light {
			pol = generation.LightPolicy()
		} else {
			pol = generation.DefaultPolicy()
		}
	}
	if pol.OnAttempt == nil {
		log := p.log()
		pol.OnAttempt = func(a generation.Attempt) {
			kv := []interface{}{"stage", a.Stage, "attempt", a.Number, "kind", generation.KindOf(a.Err), "error", a.Err}
			if a.Final {
				log.Warn("stage attempt failed, giving up", kv...)
				return
			}
			log.Info("stage attempt failed, retrying", append(kv, "delay", a.Delay)...)
		}
	}
	return pol
}

// stageSpec describes one generation stage. Every stage of the package runs
// through runStage; they differ only in prompts, limits and decoding.
type stageSpec struct {
	name      string
	promptKey string
	tier      llm.ModelTier
	maxTokens int
	light     bool
}

// runStage renders the stage prompts, calls the model and decodes the result,
// retrying per policy. decode must return a *generation.Error (usually from
// ValidationFailure) for content it rejects.
func runStage[T any](ctx context.Context, p *Planner, spec stageSpec, data map[string]string, decode func(raw []byte) (T, error)) (T, error) {
	var zero T

	system, err := prompts.Render(prompts.Planning, spec.promptKey+"-system", data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", spec.name, err)
	}
	user, err := prompts.Render(prompts.Planning, spec.promptKey+"-user", data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", spec.name, err)
	}

	stage := generation.Stage{
		Name:      spec.name,
		System:    system,
		User:      user,
		Tier:      spec.tier,
		MaxTokens: spec.maxTokens,
		Timeout:   p.StageTimeout,
	}

	start := time.Now()
	v, err := generation.WithRetry(ctx, spec.name, p.policy(spec.light), func(ctx context.Context, _ int) (T, error) {
		raw, err := generation.CallStage(ctx, p.Client, stage)
		if err != nil {
			return zero, err
		}
		return decode(raw)
	})
	if err != nil {
		return zero, err
	}

	p.log().Debug("stage completed", "stage", spec.name, "duration", time.Since(start))
	return v, nil
}

// decodeFailure classifies an error from schemas.Decode for stage.
func decodeFailure(stage string, err error) error {
	var loadErr *schemas.SchemaLoadError
	if errors.As(err, &loadErr) {
		return &generation.Error{Kind: generation.KindComposition, Stage: stage, Message: "schema unavailable", Cause: err}
	}
	return generation.ValidationFailure(stage, err)
}

// profileData returns the prompt values describing the user.
func profileData(a types.Assessment) map[string]string {
	a = a.WithDefaults()
	goalDescription := a.GoalDescription
	if strings.TrimSpace(goalDescription) == "" {
		goalDescription = "not provided"
	}
	return map[string]string{
		"Age":             strconv.Itoa(a.Age),
		"Weight":          strconv.FormatFloat(a.WeightKG, 'f', -1, 64),
		"Height":          strconv.FormatFloat(a.HeightCM, 'f', -1, 64),
		"Gender":          a.Gender,
		"Goals":           a.GoalSummary(),
		"GoalDescription": goalDescription,
		"WeeklyDays":      strconv.Itoa(a.WeeklyDays),
		"DailyMinutes":    strconv.Itoa(a.DailyMinutes),
		"Experience":      a.TrainingExperience,
		"Injuries":        a.InjuriesOrPain,
		"PriorityAreas":   a.PriorityAreas,
		"ActivityLevel":   a.ActivityLevel,
		"Equipment":       a.EquipmentDescription(),
	}
}

// merge returns a new map holding the entries of every map, later maps winning.
func merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
