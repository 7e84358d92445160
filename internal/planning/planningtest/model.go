// Package planningtest provides a scripted model that answers every planning
// stage with valid content, for tests of packages built on top of planning.
package planningtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/llm/llmtest"
	"github.com/jonathan/fitness-planner/internal/types"
)

// System prompt phrases identifying each stage
const (
	MatchBlueprint       = "Design a 90-day program blueprint"
	MatchWorkoutDetails  = "Generate workout details"
	MatchRecoveryDetails = "Generate recovery day details"
	MatchCoachNotes      = "Write coach notes"
	MatchPlanDetails     = "Generate complete plan details"
	MatchCoachHint       = "Write one coaching hint"
	MatchCoachCheckIn    = "Reply to a workout check-in"
)

// Blueprint returns a valid blueprint with four workout day types and one
// recovery day type. Each 7-day half of the template holds four workouts.
func Blueprint() *types.PlanBlueprint {
	pattern := []string{"upper_a", "lower_a", "recovery_a", "full_body_a", "conditioning_a", "recovery_a", "recovery_a"}
	template := make([]types.MicrocycleDay, 0, types.MicrocycleLengthDays)
	for i := 0; i < types.MicrocycleLengthDays; i++ {
		template = append(template, types.MicrocycleDay{DayIndex: i + 1, DayTypeID: pattern[i%len(pattern)]})
	}

	return &types.PlanBlueprint{
		UserProfile: types.UserProfile{
			Goal:                 "Build strength",
			TrainingDaysPerWeek:  4,
			SessionLengthMinutes: 45,
			EquipmentAccess:      "Full gym access",
			ExperienceLevel:      "intermediate",
			Age:                  30,
			Gender:               "male",
			HeightCM:             178,
			WeightKG:             80,
		},
		ProgramOverview: types.ProgramOverview{
			Title:          "90-Day Strength Foundation",
			PrimaryGoal:    "Build strength",
			SecondaryGoals: []string{"Improve conditioning"},
			Summary:        "Four sessions a week built around compound lifts with one conditioning day.",
		},
		SplitDesign: types.SplitDesign{
			MicrocycleLengthDays: types.MicrocycleLengthDays,
			DayTypes: []types.DayType{
				{ID: "upper_a", Label: "Upper Strength A", Category: types.CategoryStrength, FocusDescription: "Horizontal press and pull"},
				{ID: "lower_a", Label: "Lower Strength A", Category: types.CategoryStrength, FocusDescription: "Squat pattern"},
				{ID: "full_body_a", Label: "Full Body A", Category: types.CategoryHypertrophy, FocusDescription: "Volume work"},
				{ID: "conditioning_a", Label: "Conditioning A", Category: types.CategoryConditioning, FocusDescription: "Intervals", IncludesCardio: true},
				{ID: "recovery_a", Label: "Active Recovery", Category: types.CategoryRecovery, FocusDescription: "Walk and mobility", IsRecoveryDay: true},
			},
			MicrocycleTemplate: template,
			ProgramLengthDays:  types.ProgramLengthDays,
		},
		NutritionOverview: types.NutritionOverview{
			DailyMacros: types.DailyMacros{Calories: 2600, ProteinGrams: 180, CarbsGrams: 280, FatsGrams: 80},
			SampleMeals: []types.SampleMeal{{Name: "Breakfast", Description: "Oats with whey and berries"}},
			Guidelines:  []string{"Eat protein at every meal"},
		},
	}
}

// WorkoutDetail returns valid workout details for id.
func WorkoutDetail(id string) types.DayTypeDetail {
	exercise := func(name string) types.DetailExercise {
		return types.DetailExercise{
			Name:            name,
			Equipment:       "Barbell",
			Sets:            3,
			Reps:            "6-8",
			RestSeconds:     90,
			HowTo:           "Brace and move with control.",
			Cues:            []string{"Brace"},
			CommonMistakes:  []string{"Rushing"},
			ProgressionTips: []string{"Add load when all sets hit the top of the range"},
		}
	}
	return types.DayTypeDetail{
		Name:          "Workout " + id,
		TrainingFocus: "Focus for " + id,
		Warmup:        &types.Warmup{Description: "General warm-up", Steps: []string{"5 min row", "Light sets"}},
		Blocks: []types.ExerciseBlock{
			{Title: "Main Lifts", Exercises: []types.DetailExercise{exercise(id + " main lift"), exercise(id + " secondary lift")}},
			{Title: "Accessories", Exercises: []types.DetailExercise{exercise(id + " accessory")}},
		},
	}
}

// RecoveryDetail returns valid recovery details for id.
func RecoveryDetail(id string) types.DayTypeDetail {
	return types.DayTypeDetail{
		Name: "Recovery " + id,
		RecoveryRoutine: &types.RecoveryRoutine{
			IsRecoveryDay: true,
			Description:   "Easy movement to aid recovery",
			Steps:         []string{"20 minute walk", "Hip mobility flow", "Foam roll"},
			ExtraTips:     []string{"Sleep 8 hours"},
		},
	}
}

// CoachNotes returns valid coach notes.
func CoachNotes() types.CoachNotes {
	return types.CoachNotes{
		HowThisProgramWorks: "Three phases of four weeks.",
		PhaseBreakdown: []types.Phase{
			{PhaseName: "Foundation", Weeks: "Weeks 1-4", Focus: "Technique", Notes: "Leave reps in reserve."},
		},
		HowToProgress:                 "Add load weekly.",
		RecoveryPhilosophy:            "Sleep first.",
		CardioAndConditioningApproach: "One interval day.",
		NutritionStrategy:             "Slight surplus with high protein.",
	}
}

// RequestedIDs extracts the day type ids listed at the end of a detail user prompt.
func RequestedIDs(req llm.Request) []string {
	const marker = "day type ids: "
	i := strings.LastIndex(req.User, marker)
	if i < 0 {
		return nil
	}
	list := strings.TrimSuffix(strings.TrimSpace(req.User[i+len(marker):]), ".")
	var ids []string
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Routes answers every stage with valid content for bp.
func Routes(bp *types.PlanBlueprint) []llmtest.Route {
	return []llmtest.Route{
		{Match: MatchBlueprint, Respond: llmtest.Static(mustJSON(bp))},
		{Match: MatchWorkoutDetails, Respond: DetailResponder(WorkoutDetail)},
		{Match: MatchRecoveryDetails, Respond: DetailResponder(RecoveryDetail)},
		{Match: MatchCoachNotes, Respond: llmtest.Static(mustJSON(CoachNotes()))},
		{Match: MatchPlanDetails, Respond: llmtest.Static(mustJSON(PlanDetails(bp)))},
		{Match: MatchCoachHint, Respond: llmtest.Static(`{"hint": "Two more sessions and you hit a new streak record."}`)},
		{Match: MatchCoachCheckIn, Respond: llmtest.Static(`{"response": "Nice work showing up today. Keep your first set light and build from there."}`)},
	}
}

// DetailResponder answers a detail request with detail(id) for every requested id.
func DetailResponder(detail func(id string) types.DayTypeDetail) func(context.Context, llm.Request) (string, error) {
	return func(_ context.Context, req llm.Request) (string, error) {
		ids := RequestedIDs(req)
		if len(ids) == 0 {
			return "", fmt.Errorf("planningtest: no day type ids in prompt")
		}
		out := make(types.DayTypeDetails, len(ids))
		for _, id := range ids {
			out[id] = detail(id)
		}
		return mustJSON(out), nil
	}
}

// PlanDetails returns valid combined details for every day type of bp.
func PlanDetails(bp *types.PlanBlueprint) types.PlanDetails {
	details := make(types.DayTypeDetails)
	for _, dt := range bp.SplitDesign.DayTypes {
		if dt.IsRecoveryDay {
			details[dt.ID] = RecoveryDetail(dt.ID)
		} else {
			details[dt.ID] = WorkoutDetail(dt.ID)
		}
	}
	return types.PlanDetails{DayTypeDetails: details, GlobalCoachNotes: CoachNotes()}
}

// Client returns a mock client answering every stage for bp.
func Client(bp *types.PlanBlueprint) *llmtest.MockClient {
	return &llmtest.MockClient{CompleteFunc: llmtest.Router(Routes(bp)...)}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
