package types

import "sort"

// DayTypeDetail is the exercise-level and narrative content for one day type.
type DayTypeDetail struct {
	Name            string           `json:"name"`
	TrainingFocus   string           `json:"trainingFocus,omitempty"`
	Warmup          *Warmup          `json:"warmup,omitempty"`
	Blocks          []ExerciseBlock  `json:"blocks,omitempty"`
	CardioProtocol  *CardioProtocol  `json:"cardioProtocol,omitempty"`
	RecoveryRoutine *RecoveryRoutine `json:"recoveryRoutine,omitempty"`
}

// Warmup is the warm-up block of a workout day.
type Warmup struct {
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// ExerciseBlock is a titled, ordered group of exercises.
type ExerciseBlock struct {
	Title     string           `json:"title"`
	Exercises []DetailExercise `json:"exercises"`
}

// DetailExercise is a fully described exercise prescription.
type DetailExercise struct {
	Name            string   `json:"name"`
	Equipment       string   `json:"equipment"`
	Sets            int      `json:"sets"`
	Reps            string   `json:"reps"`
	RestSeconds     int      `json:"restSeconds"`
	Tempo           string   `json:"tempo,omitempty"`
	HowTo           string   `json:"howTo"`
	Cues            []string `json:"cues"`
	CommonMistakes  []string `json:"commonMistakes"`
	ProgressionTips []string `json:"progressionTips"`
}

// CardioProtocol describes optional conditioning work on a workout day.
type CardioProtocol struct {
	IsIncluded      bool     `json:"isIncluded"`
	Description     string   `json:"description"`
	ExampleSessions []string `json:"exampleSessions"`
}

// RecoveryRoutine is the routine followed on a recovery day.
type RecoveryRoutine struct {
	IsRecoveryDay bool     `json:"isRecoveryDay"`
	Description   string   `json:"description"`
	Steps         []string `json:"steps"`
	ExtraTips     []string `json:"extraTips"`
}

// DayTypeDetails maps day type ids to their details.
type DayTypeDetails map[string]DayTypeDetail

// IDs returns the sorted keys of the map.
func (d DayTypeDetails) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CoachNotes is the program-level narrative guidance.
type CoachNotes struct {
	HowThisProgramWorks           string  `json:"howThisProgramWorks"`
	PhaseBreakdown                []Phase `json:"phaseBreakdown"`
	HowToProgress                 string  `json:"howToProgress"`
	RecoveryPhilosophy            string  `json:"recoveryPhilosophy"`
	CardioAndConditioningApproach string  `json:"cardioAndConditioningApproach"`
	NutritionStrategy             string  `json:"nutritionStrategy"`
}

// Phase is one block of the 90-day arc.
type Phase struct {
	PhaseName string `json:"phaseName"`
	Weeks     string `json:"weeks"`
	Focus     string `json:"focus"`
	Notes     string `json:"notes"`
}

// PlanDetails is the merged detail output for a blueprint.
type PlanDetails struct {
	DayTypeDetails   DayTypeDetails `json:"dayTypeDetails"`
	GlobalCoachNotes CoachNotes     `json:"globalCoachNotes"`
}
