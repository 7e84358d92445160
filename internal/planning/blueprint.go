package planning

import (
	"context"

	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/normalize"
	"github.com/jonathan/fitness-planner/internal/schemas"
	"github.com/jonathan/fitness-planner/internal/types"
)

var blueprintStage = stageSpec{
	name:      StageBlueprint,
	promptKey: "blueprint",
	tier:      llm.TierStandard,
	maxTokens: 4096,
}

// GenerateBlueprint produces a validated program blueprint for the assessment.
// Responses are normalized before validation; invalid ones are retried.
func (p *Planner) GenerateBlueprint(ctx context.Context, assessment types.Assessment) (*types.PlanBlueprint, error) {
	p.log().Info("generating blueprint", "user_id", assessment.UserID, "weekly_days", assessment.WeeklyDays)

	bp, err := runStage(ctx, p, blueprintStage, profileData(assessment), DecodeBlueprint)
	if err != nil {
		return nil, err
	}

	p.log().Info("blueprint generated",
		"title", bp.ProgramOverview.Title,
		"day_types", len(bp.SplitDesign.DayTypes))
	return bp, nil
}

// DecodeBlueprint normalizes and validates a raw blueprint document.
func DecodeBlueprint(raw []byte) (*types.PlanBlueprint, error) {
	fixed, err := normalize.JSON(raw, normalize.Blueprint)
	if err != nil {
		return nil, &generation.Error{Kind: generation.KindParse, Stage: StageBlueprint, Message: "blueprint is not valid JSON", Cause: err}
	}

	var bp types.PlanBlueprint
	if err := schemas.Decode(schemas.Blueprint, fixed, &bp); err != nil {
		return nil, decodeFailure(StageBlueprint, err)
	}
	return &bp, nil
}
