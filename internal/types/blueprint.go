package types

// Day type categories
const (
	CategoryStrength     = "strength"
	CategoryHypertrophy  = "hypertrophy"
	CategoryConditioning = "conditioning"
	CategoryRecovery     = "recovery"
)

// Program shape constants
const (
	MicrocycleLengthDays = 14
	ProgramLengthDays    = 90
)

// PlanBlueprint is the structural skeleton of a 90-day program.
type PlanBlueprint struct {
	UserProfile       UserProfile       `json:"userProfile"`
	ProgramOverview   ProgramOverview   `json:"programOverview"`
	SplitDesign       SplitDesign       `json:"splitDesign"`
	NutritionOverview NutritionOverview `json:"nutritionOverview"`
}

// UserProfile echoes the assessment fields relevant to programming.
type UserProfile struct {
	Goal                 string   `json:"goal"`
	TrainingDaysPerWeek  int      `json:"trainingDaysPerWeek"`
	SessionLengthMinutes int      `json:"sessionLengthMinutes"`
	CardioPreference     string   `json:"cardioPreference,omitempty"`
	EquipmentAccess      string   `json:"equipmentAccess,omitempty"`
	Injuries             []string `json:"injuries,omitempty"`
	ExperienceLevel      string   `json:"experienceLevel,omitempty"`
	BodyGoals            []string `json:"bodyGoals,omitempty"`
	Age                  float64  `json:"age,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	HeightCM             float64  `json:"height_cm,omitempty"`
	WeightKG             float64  `json:"weight_kg,omitempty"`
	ActivityLevel        string   `json:"activityLevel,omitempty"`
	PriorityAreas        string   `json:"priorityAreas,omitempty"`
}

// ProgramOverview is the short program description.
type ProgramOverview struct {
	Title          string   `json:"title"`
	PrimaryGoal    string   `json:"primaryGoal"`
	SecondaryGoals []string `json:"secondaryGoals"`
	Summary        string   `json:"summary"`
}

// SplitDesign holds the day-type catalog and the repeating microcycle.
type SplitDesign struct {
	MicrocycleLengthDays int             `json:"microcycleLengthDays"`
	DayTypes             []DayType       `json:"dayTypes"`
	MicrocycleTemplate   []MicrocycleDay `json:"microcycleTemplate"`
	ProgramLengthDays    int             `json:"programLengthDays"`
}

// DayType is a reusable day archetype referenced by the microcycle template.
type DayType struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	Category         string `json:"category"`
	FocusDescription string `json:"focusDescription"`
	IncludesCardio   bool   `json:"includesCardio"`
	IsRecoveryDay    bool   `json:"isRecoveryDay"`
}

// MicrocycleDay places a day type on a day of the microcycle.
type MicrocycleDay struct {
	DayIndex  int    `json:"dayIndex"`
	DayTypeID string `json:"dayTypeId"`
}

// NutritionOverview holds the single daily macro target and guidance.
type NutritionOverview struct {
	DailyMacros DailyMacros  `json:"dailyMacros"`
	SampleMeals []SampleMeal `json:"sampleMeals"`
	Guidelines  []string     `json:"guidelines"`
}

// DailyMacros is the macro target applied to every program day.
type DailyMacros struct {
	Calories     int     `json:"calories"`
	ProteinGrams float64 `json:"proteinGrams"`
	CarbsGrams   float64 `json:"carbsGrams"`
	FatsGrams    float64 `json:"fatsGrams"`
}

// SampleMeal is an example meal.
type SampleMeal struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DayTypeByID returns the day type with the given id.
func (b *PlanBlueprint) DayTypeByID(id string) (DayType, bool) {
	for _, dt := range b.SplitDesign.DayTypes {
		if dt.ID == id {
			return dt, true
		}
	}
	return DayType{}, false
}

// WorkoutDayTypeIDs returns the ids of non-recovery day types in catalog order.
func (b *PlanBlueprint) WorkoutDayTypeIDs() []string {
	ids := make([]string, 0, len(b.SplitDesign.DayTypes))
	for _, dt := range b.SplitDesign.DayTypes {
		if !dt.IsRecoveryDay {
			ids = append(ids, dt.ID)
		}
	}
	return ids
}

// RecoveryDayTypeIDs returns the ids of recovery day types in catalog order.
func (b *PlanBlueprint) RecoveryDayTypeIDs() []string {
	ids := make([]string, 0)
	for _, dt := range b.SplitDesign.DayTypes {
		if dt.IsRecoveryDay {
			ids = append(ids, dt.ID)
		}
	}
	return ids
}

// ReferencedDayTypeIDs returns the distinct day type ids used by the microcycle template,
// in order of first appearance.
func (b *PlanBlueprint) ReferencedDayTypeIDs() []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(b.SplitDesign.MicrocycleTemplate))
	for _, day := range b.SplitDesign.MicrocycleTemplate {
		if seen[day.DayTypeID] {
			continue
		}
		seen[day.DayTypeID] = true
		ids = append(ids, day.DayTypeID)
	}
	return ids
}
