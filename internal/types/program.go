package types

// Program is the assembled 90-day training program returned to clients.
type Program struct {
	ProgramLengthDays int                `json:"programLengthDays"`
	StartDate         Date               `json:"startDate"`
	Template          TrainingTemplate   `json:"template"`
	Workouts          []ScheduledWorkout `json:"workouts"`
}

// TrainingTemplate is the 14-day repeating template plus program metadata.
type TrainingTemplate struct {
	Meta       ProgramMeta      `json:"meta"`
	Training   []TemplateDay    `json:"training"`
	Nutrition  ProgramNutrition `json:"nutrition"`
	CoachNotes *CoachNotes      `json:"coachNotes,omitempty"`
}

// ProgramMeta summarizes the program for display.
type ProgramMeta struct {
	Goal              string `json:"goal"`
	DaysPerWeek       int    `json:"daysPerWeek"`
	MinutesPerWorkout int    `json:"minutesPerWorkout"`
	Summary           string `json:"summary"`
	Description       string `json:"description"`
}

// TemplateDay is one day of the 14-day template.
type TemplateDay struct {
	DayIndex     int              `json:"dayIndex"`
	IsWorkoutDay bool             `json:"isWorkoutDay"`
	Label        string           `json:"label"`
	Focus        string           `json:"focus"`
	Workout      *TemplateWorkout `json:"workout,omitempty"`
	Recovery     *Recovery        `json:"recovery,omitempty"`
}

// TemplateWorkout is the workout prescribed on a template day.
type TemplateWorkout struct {
	EstimatedDuration int                `json:"estimatedDuration"`
	Notes             string             `json:"notes"`
	Exercises         []TemplateExercise `json:"exercises"`
	Warmup            *Warmup            `json:"warmup,omitempty"`
}

// TemplateExercise is an exercise as shown in the template.
type TemplateExercise struct {
	Name        string    `json:"name"`
	Equipment   string    `json:"equipment"`
	Sets        int       `json:"sets"`
	Reps        string    `json:"reps"`
	RestSeconds int       `json:"restSeconds"`
	Tempo       string    `json:"tempo,omitempty"`
	Tutorial    *Tutorial `json:"tutorial,omitempty"`
}

// Tutorial is the how-to guidance attached to an exercise.
type Tutorial struct {
	HowTo           string   `json:"howTo"`
	Cues            []string `json:"cues"`
	CommonMistakes  []string `json:"commonMistakes"`
	ProgressionTips []string `json:"progressionTips,omitempty"`
}

// Recovery is the guidance attached to a rest or recovery template day.
type Recovery struct {
	Suggestions []string `json:"suggestions"`
}

// ProgramNutrition holds the daily nutrition targets.
type ProgramNutrition struct {
	DailyMacroTargets MacroTargets `json:"dailyMacroTargets"`
}

// MacroTargets is the daily macro target shown for every day.
type MacroTargets struct {
	Calories     int     `json:"calories"`
	ProteinGrams float64 `json:"proteinGrams"`
	CarbsGrams   float64 `json:"carbsGrams"`
	FatsGrams    float64 `json:"fatsGrams"`
	Notes        string  `json:"notes,omitempty"`
}

// ScheduledWorkout is a workout placed on a concrete program day.
type ScheduledWorkout struct {
	ID            string              `json:"id"`
	Day           int                 `json:"day"`
	Name          string              `json:"name"`
	Focus         string              `json:"focus"`
	ScheduledDate Date                `json:"scheduledDate"`
	Exercises     []ScheduledExercise `json:"exercises"`
}

// ScheduledExercise is an exercise inside a scheduled workout.
type ScheduledExercise struct {
	Name      string    `json:"name"`
	Sets      int       `json:"sets"`
	Reps      string    `json:"reps"`
	Rest      string    `json:"rest"`
	Equipment string    `json:"equipment"`
	Tutorial  *Tutorial `json:"tutorial,omitempty"`
}

// WorkoutForDay returns the scheduled workout on program day n.
func (p *Program) WorkoutForDay(n int) (ScheduledWorkout, bool) {
	for _, w := range p.Workouts {
		if w.Day == n {
			return w, true
		}
	}
	return ScheduledWorkout{}, false
}
