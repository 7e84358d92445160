// Package assembly joins a blueprint with its generated details into a 14-day
// template and projects that template onto the 90 days of a program.
//
// Everything in this package is a pure function of its arguments: no clock
// reads, no randomness, no I/O.
package assembly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/fitness-planner/internal/normalize"
	"github.com/jonathan/fitness-planner/internal/types"
)

const (
	templateLength = types.MicrocycleLengthDays
	programLength  = types.ProgramLengthDays

	minWorkoutMinutes  = 30
	minutesPerExercise = 5
	workoutOverhead    = 10
	defaultRest        = "60s"
)

// Assemble builds the program for blueprint and details starting on start.
// A template day whose day type is missing from the catalog or from details
// is a *CompositionError.
func Assemble(bp *types.PlanBlueprint, details *types.PlanDetails, assessment types.Assessment, start types.Date) (*types.Program, error) {
	if bp == nil || details == nil {
		return nil, &CompositionError{Reason: "blueprint and details are required"}
	}
	if start.IsZero() {
		return nil, &CompositionError{Reason: "start date is required"}
	}

	template, err := BuildTemplate(bp, details, assessment)
	if err != nil {
		return nil, err
	}

	workouts, err := Project(template, start)
	if err != nil {
		return nil, err
	}

	return &types.Program{
		ProgramLengthDays: programLength,
		StartDate:         start,
		Template:          *template,
		Workouts:          workouts,
	}, nil
}

// BuildTemplate joins the microcycle template with the day type catalog and
// details. The result is ordered by dayIndex.
func BuildTemplate(bp *types.PlanBlueprint, details *types.PlanDetails, assessment types.Assessment) (*types.TrainingTemplate, error) {
	entries := make([]types.MicrocycleDay, len(bp.SplitDesign.MicrocycleTemplate))
	copy(entries, bp.SplitDesign.MicrocycleTemplate)
	if len(entries) != templateLength {
		return nil, &CompositionError{Reason: fmt.Sprintf("microcycle template has %d days, want %d", len(entries), templateLength)}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].DayIndex < entries[j].DayIndex })

	training := make([]types.TemplateDay, 0, templateLength)
	for i, entry := range entries {
		if entry.DayIndex != i+1 {
			return nil, &CompositionError{DayTypeID: entry.DayTypeID, DayIndex: entry.DayIndex, Reason: "day indexes must cover 1..14 exactly once"}
		}

		dt, ok := bp.DayTypeByID(entry.DayTypeID)
		if !ok {
			return nil, &CompositionError{DayTypeID: entry.DayTypeID, DayIndex: entry.DayIndex, Reason: "day type is not in the catalog"}
		}
		detail, ok := details.DayTypeDetails[entry.DayTypeID]
		if !ok {
			return nil, &CompositionError{DayTypeID: entry.DayTypeID, DayIndex: entry.DayIndex, Reason: "no details were generated for this day type"}
		}

		day, err := templateDay(entry.DayIndex, dt, detail)
		if err != nil {
			return nil, err
		}
		training = append(training, day)
	}

	notes := details.GlobalCoachNotes
	return &types.TrainingTemplate{
		Meta:       meta(bp, assessment),
		Training:   training,
		Nutrition:  nutrition(bp.NutritionOverview),
		CoachNotes: &notes,
	}, nil
}

func templateDay(dayIndex int, dt types.DayType, detail types.DayTypeDetail) (types.TemplateDay, error) {
	label := dt.Label
	if label == "" {
		label = detail.Name
	}

	if dt.IsRecoveryDay {
		focus := dt.FocusDescription
		suggestions := normalize.DefaultRecoverySuggestions
		if r := detail.RecoveryRoutine; r != nil {
			if r.Description != "" {
				focus = r.Description
			}
			if len(r.Steps) > 0 {
				suggestions = r.Steps
			}
		}
		return types.TemplateDay{
			DayIndex:     dayIndex,
			IsWorkoutDay: false,
			Label:        label,
			Focus:        focus,
			Recovery:     &types.Recovery{Suggestions: append([]string(nil), suggestions...)},
		}, nil
	}

	exercises := templateExercises(detail.Blocks)
	if len(exercises) == 0 {
		return types.TemplateDay{}, &CompositionError{DayTypeID: dt.ID, DayIndex: dayIndex, Reason: "workout day has no exercises"}
	}

	focus := detail.TrainingFocus
	if focus == "" {
		focus = dt.FocusDescription
	}

	var warmup *types.Warmup
	if detail.Warmup != nil {
		w := types.Warmup{Description: detail.Warmup.Description, Steps: append([]string{}, detail.Warmup.Steps...)}
		warmup = &w
	}

	return types.TemplateDay{
		DayIndex:     dayIndex,
		IsWorkoutDay: true,
		Label:        label,
		Focus:        focus,
		Workout: &types.TemplateWorkout{
			EstimatedDuration: EstimatedDuration(len(exercises)),
			Notes:             workoutNotes(detail, focus),
			Exercises:         exercises,
			Warmup:            warmup,
		},
	}, nil
}

func templateExercises(blocks []types.ExerciseBlock) []types.TemplateExercise {
	out := make([]types.TemplateExercise, 0)
	for _, block := range blocks {
		for _, ex := range block.Exercises {
			out = append(out, types.TemplateExercise{
				Name:        ex.Name,
				Equipment:   ex.Equipment,
				Sets:        ex.Sets,
				Reps:        ex.Reps,
				RestSeconds: ex.RestSeconds,
				Tempo:       ex.Tempo,
				Tutorial:    tutorial(ex),
			})
		}
	}
	return out
}

func tutorial(ex types.DetailExercise) *types.Tutorial {
	howTo := ex.HowTo
	if strings.TrimSpace(howTo) == "" {
		howTo = normalize.FallbackHowTo(ex.Name)
	}
	return &types.Tutorial{
		HowTo:           howTo,
		Cues:            append([]string{}, ex.Cues...),
		CommonMistakes:  append([]string{}, ex.CommonMistakes...),
		ProgressionTips: append([]string{}, ex.ProgressionTips...),
	}
}

// EstimatedDuration is the session length in minutes for n exercises.
func EstimatedDuration(n int) int {
	d := n*minutesPerExercise + workoutOverhead
	if d < minWorkoutMinutes {
		return minWorkoutMinutes
	}
	return d
}

func workoutNotes(detail types.DayTypeDetail, focus string) string {
	var parts []string
	if detail.Warmup != nil && detail.Warmup.Description != "" {
		parts = append(parts, "Warmup: "+detail.Warmup.Description)
	}
	if focus != "" {
		parts = append(parts, focus)
	}
	if c := detail.CardioProtocol; c != nil && c.IsIncluded && c.Description != "" {
		parts = append(parts, "Cardio: "+c.Description)
	}
	return strings.Join(parts, "\n\n")
}

func meta(bp *types.PlanBlueprint, assessment types.Assessment) types.ProgramMeta {
	a := assessment.WithDefaults()

	goal := bp.ProgramOverview.PrimaryGoal
	if goal == "" {
		goal = a.GoalSummary()
	}
	days := bp.UserProfile.TrainingDaysPerWeek
	if days == 0 {
		days = a.WeeklyDays
	}
	minutes := bp.UserProfile.SessionLengthMinutes
	if minutes == 0 {
		minutes = a.DailyMinutes
	}

	return types.ProgramMeta{
		Goal:              goal,
		DaysPerWeek:       days,
		MinutesPerWorkout: minutes,
		Summary:           bp.ProgramOverview.Summary,
		Description:       bp.ProgramOverview.Title,
	}
}

func nutrition(n types.NutritionOverview) types.ProgramNutrition {
	return types.ProgramNutrition{
		DailyMacroTargets: types.MacroTargets{
			Calories:     n.DailyMacros.Calories,
			ProteinGrams: n.DailyMacros.ProteinGrams,
			CarbsGrams:   n.DailyMacros.CarbsGrams,
			FatsGrams:    n.DailyMacros.FatsGrams,
			Notes:        strings.Join(n.Guidelines, " "),
		},
	}
}
