package assembly

import (
	"fmt"
	"strconv"

	"github.com/jonathan/fitness-planner/internal/types"
)

// TemplateDayIndex maps program day n (1-based) to its 1-based template day.
func TemplateDayIndex(n int) int {
	return ((n-1)%templateLength+templateLength)%templateLength + 1
}

// ScheduledDate returns the calendar date of program day n.
func ScheduledDate(start types.Date, n int) types.Date {
	return start.AddDays(n - 1)
}

// DateForDay is ScheduledDate restricted to days inside the program.
func DateForDay(start types.Date, n int) (types.Date, error) {
	if n < 1 || n > programLength {
		return types.Date{}, &ProgramDayError{Day: n}
	}
	return ScheduledDate(start, n), nil
}

// DayNumber returns the program day that falls on date. Days before the start
// give values below 1; days after the end give values above 90.
func DayNumber(start, date types.Date) int {
	return date.DaysSince(start) + 1
}

// InProgram reports whether date falls within the 90 days starting on start.
func InProgram(start, date types.Date) bool {
	n := DayNumber(start, date)
	return n >= 1 && n <= programLength
}

// DateRange returns the first and last dates of a program starting on start.
func DateRange(start types.Date) (first, last types.Date) {
	return start, ScheduledDate(start, programLength)
}

// Project lays the 14-day template over 90 days starting on start. Only
// workout days produce entries; the result is ordered by day.
func Project(template *types.TrainingTemplate, start types.Date) ([]types.ScheduledWorkout, error) {
	if len(template.Training) != templateLength {
		return nil, &CompositionError{Reason: fmt.Sprintf("template has %d days, want %d", len(template.Training), templateLength)}
	}

	byIndex := make(map[int]*types.TemplateDay, templateLength)
	for i := range template.Training {
		day := &template.Training[i]
		if day.DayIndex < 1 || day.DayIndex > templateLength {
			return nil, &CompositionError{DayIndex: day.DayIndex, Reason: "day index outside 1..14"}
		}
		if _, dup := byIndex[day.DayIndex]; dup {
			return nil, &CompositionError{DayIndex: day.DayIndex, Reason: "duplicate day index"}
		}
		byIndex[day.DayIndex] = day
	}

	workouts := make([]types.ScheduledWorkout, 0, programLength)
	for n := 1; n <= programLength; n++ {
		day := byIndex[TemplateDayIndex(n)]
		if !day.IsWorkoutDay || day.Workout == nil {
			continue
		}
		workouts = append(workouts, types.ScheduledWorkout{
			ID:            "day-" + strconv.Itoa(n),
			Day:           n,
			Name:          day.Label,
			Focus:         day.Focus,
			ScheduledDate: ScheduledDate(start, n),
			Exercises:     scheduledExercises(day.Workout.Exercises),
		})
	}
	return workouts, nil
}

func scheduledExercises(exercises []types.TemplateExercise) []types.ScheduledExercise {
	out := make([]types.ScheduledExercise, 0, len(exercises))
	for _, ex := range exercises {
		var tut *types.Tutorial
		if ex.Tutorial != nil {
			tut = &types.Tutorial{
				HowTo:           ex.Tutorial.HowTo,
				Cues:            append([]string{}, ex.Tutorial.Cues...),
				CommonMistakes:  append([]string{}, ex.Tutorial.CommonMistakes...),
				ProgressionTips: append([]string{}, ex.Tutorial.ProgressionTips...),
			}
		}
		out = append(out, types.ScheduledExercise{
			Name:      ex.Name,
			Sets:      ex.Sets,
			Reps:      ex.Reps,
			Rest:      FormatRest(ex.RestSeconds),
			Equipment: ex.Equipment,
			Tutorial:  tut,
		})
	}
	return out
}

// FormatRest renders a rest period in seconds, e.g. "90s".
func FormatRest(seconds int) string {
	if seconds <= 0 {
		return defaultRest
	}
	return strconv.Itoa(seconds) + "s"
}

// Reschedule returns a copy of program starting on start, with every workout
// date recomputed.
func Reschedule(program *types.Program, start types.Date) (*types.Program, error) {
	workouts, err := Project(&program.Template, start)
	if err != nil {
		return nil, err
	}
	out := *program
	out.StartDate = start
	out.Workouts = workouts
	return &out, nil
}

// TrainingForDay returns the template day used on program day n.
func TrainingForDay(program *types.Program, n int) (types.TemplateDay, error) {
	if n < 1 || n > programLength {
		return types.TemplateDay{}, &ProgramDayError{Day: n}
	}
	idx := TemplateDayIndex(n)
	for _, day := range program.Template.Training {
		if day.DayIndex == idx {
			return day, nil
		}
	}
	return types.TemplateDay{}, &CompositionError{DayIndex: idx, Reason: "template day not found"}
}

// NutritionForDay returns the macro targets for program day n. The targets
// are the same for every day of the program.
func NutritionForDay(program *types.Program, n int) (types.MacroTargets, error) {
	if n < 1 || n > programLength {
		return types.MacroTargets{}, &ProgramDayError{Day: n}
	}
	return program.Template.Nutrition.DailyMacroTargets, nil
}
