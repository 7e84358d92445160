package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/normalize"
	"github.com/jonathan/fitness-planner/internal/schemas"
	"github.com/jonathan/fitness-planner/internal/types"
)

var (
	workoutDetailsStage = stageSpec{
		name:      StageWorkoutDetails,
		promptKey: "workout-details",
		tier:      llm.TierStandard,
		maxTokens: 8192,
	}
	recoveryDetailsStage = stageSpec{
		name:      StageRecoveryDetails,
		promptKey: "recovery-details",
		tier:      llm.TierLite,
		maxTokens: 2048,
	}
	coachNotesStage = stageSpec{
		name:      StageCoachNotes,
		promptKey: "coach-notes",
		tier:      llm.TierLite,
		maxTokens: 3072,
		light:     true,
	}
	planDetailsStage = stageSpec{
		name:      StagePlanDetails,
		promptKey: "plan-details",
		tier:      llm.TierAdvanced,
		maxTokens: 16384,
	}
)

// GenerateWorkoutDetails generates details for the given workout day type ids.
// The result holds exactly the requested ids.
func (p *Planner) GenerateWorkoutDetails(ctx context.Context, assessment types.Assessment, bp *types.PlanBlueprint, ids []string) (types.DayTypeDetails, error) {
	return p.dayTypeDetails(ctx, workoutDetailsStage, schemas.WorkoutDetails, assessment, bp, ids)
}

// GenerateRecoveryDetails generates details for the given recovery day type ids.
// The result holds exactly the requested ids.
func (p *Planner) GenerateRecoveryDetails(ctx context.Context, assessment types.Assessment, bp *types.PlanBlueprint, ids []string) (types.DayTypeDetails, error) {
	return p.dayTypeDetails(ctx, recoveryDetailsStage, schemas.RecoveryDetails, assessment, bp, ids)
}

func (p *Planner) dayTypeDetails(ctx context.Context, spec stageSpec, schema schemas.Name, assessment types.Assessment, bp *types.PlanBlueprint, ids []string) (types.DayTypeDetails, error) {
	if len(ids) == 0 {
		return types.DayTypeDetails{}, nil
	}

	data := merge(profileData(assessment), programData(bp), map[string]string{
		"DayTypes":   describeDayTypes(bp, ids),
		"DayTypeIDs": strings.Join(ids, ", "),
	})

	p.log().Debug("generating day type details", "stage", spec.name, "day_type_ids", ids)
	return runStage(ctx, p, spec, data, func(raw []byte) (types.DayTypeDetails, error) {
		return DecodeDayTypeDetails(spec.name, schema, raw, ids)
	})
}

// DecodeDayTypeDetails normalizes and validates a detail map and checks that
// every id in want is present. Entries not in want are dropped.
func DecodeDayTypeDetails(stage string, schema schemas.Name, raw []byte, want []string) (types.DayTypeDetails, error) {
	fixed, err := normalize.JSON(raw, normalize.DayTypeDetails)
	if err != nil {
		return nil, &generation.Error{Kind: generation.KindParse, Stage: stage, Message: "details are not valid JSON", Cause: err}
	}

	var details types.DayTypeDetails
	if err := schemas.Decode(schema, fixed, &details); err != nil {
		return nil, decodeFailure(stage, err)
	}

	out, err := pick(details, want)
	if err != nil {
		return nil, generation.ValidationFailure(stage, err)
	}
	return out, nil
}

// pick returns the entries of details named by want, or a *schemas.ValidationError
// listing the missing ids.
func pick(details types.DayTypeDetails, want []string) (types.DayTypeDetails, error) {
	out := make(types.DayTypeDetails, len(want))
	var missing []schemas.FieldError
	for _, id := range want {
		d, ok := details[id]
		if !ok {
			missing = append(missing, schemas.FieldError{Field: id, Message: "no details returned for requested day type"})
			continue
		}
		out[id] = d
	}
	if len(missing) > 0 {
		return nil, &schemas.ValidationError{Errors: missing}
	}
	return out, nil
}

// GenerateCoachNotes generates the program-level coach notes.
func (p *Planner) GenerateCoachNotes(ctx context.Context, assessment types.Assessment, bp *types.PlanBlueprint) (*types.CoachNotes, error) {
	overview, err := json.Marshal(bp.ProgramOverview)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageCoachNotes, err)
	}
	macros := bp.NutritionOverview.DailyMacros
	data := merge(profileData(assessment), map[string]string{
		"Overview": string(overview),
		"Macros": fmt.Sprintf("%d kcal, %gg protein, %gg carbs, %gg fats",
			macros.Calories, macros.ProteinGrams, macros.CarbsGrams, macros.FatsGrams),
	})

	return runStage(ctx, p, coachNotesStage, data, func(raw []byte) (*types.CoachNotes, error) {
		var notes types.CoachNotes
		if err := schemas.Decode(schemas.CoachNotes, raw, &notes); err != nil {
			return nil, decodeFailure(StageCoachNotes, err)
		}
		return &notes, nil
	})
}

// GeneratePlanDetails generates every day type's details and the coach notes
// in a single call. It is the single-request alternative to GenerateDetails.
func (p *Planner) GeneratePlanDetails(ctx context.Context, assessment types.Assessment, bp *types.PlanBlueprint) (*types.PlanDetails, error) {
	encoded, err := json.Marshal(bp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StagePlanDetails, err)
	}
	data := merge(profileData(assessment), map[string]string{"Blueprint": string(encoded)})
	want := bp.ReferencedDayTypeIDs()

	p.log().Info("generating plan details", "day_types", len(want))
	return runStage(ctx, p, planDetailsStage, data, func(raw []byte) (*types.PlanDetails, error) {
		return DecodePlanDetails(raw, bp)
	})
}

// DecodePlanDetails normalizes and validates a combined details document.
// Every day type referenced by the blueprint's template must be present;
// ids outside the catalog are dropped.
func DecodePlanDetails(raw []byte, bp *types.PlanBlueprint) (*types.PlanDetails, error) {
	fixed, err := normalize.JSON(raw, func(doc any) any {
		return normalize.Document(doc, normalize.DefaultOptions())
	})
	if err != nil {
		return nil, &generation.Error{Kind: generation.KindParse, Stage: StagePlanDetails, Message: "plan details are not valid JSON", Cause: err}
	}

	var details types.PlanDetails
	if err := schemas.Decode(schemas.PlanDetails, fixed, &details); err != nil {
		return nil, decodeFailure(StagePlanDetails, err)
	}

	if _, err := pick(details.DayTypeDetails, bp.ReferencedDayTypeIDs()); err != nil {
		return nil, generation.ValidationFailure(StagePlanDetails, err)
	}
	for id := range details.DayTypeDetails {
		if _, ok := bp.DayTypeByID(id); !ok {
			delete(details.DayTypeDetails, id)
		}
	}
	return &details, nil
}

func programData(bp *types.PlanBlueprint) map[string]string {
	return map[string]string{
		"ProgramTitle": bp.ProgramOverview.Title,
		"PrimaryGoal":  bp.ProgramOverview.PrimaryGoal,
	}
}

// describeDayTypes lists the given day types for a prompt, one per line.
func describeDayTypes(bp *types.PlanBlueprint, ids []string) string {
	var sb strings.Builder
	for _, id := range ids {
		dt, ok := bp.DayTypeByID(id)
		if !ok {
			fmt.Fprintf(&sb, "- %s\n", id)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s (%s). %s", dt.ID, dt.Label, dt.Category, dt.FocusDescription)
		if dt.IncludesCardio {
			sb.WriteString(" Includes cardio.")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
