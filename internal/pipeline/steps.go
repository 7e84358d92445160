package pipeline

import "sync"

// Step categories
const (
	CategoryGeneration = "generation"
	CategoryAssembly   = "assembly"
)

// Step names
const (
	StepBlueprint = "blueprint"
	StepDetails   = "details"
	StepAssemble  = "assemble"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// Steps lists the steps of a plan generation run in execution order.
var Steps = []StepDefinition{
	{Name: StepBlueprint, Category: CategoryGeneration},
	{Name: StepDetails, Category: CategoryGeneration, Dependencies: []string{StepBlueprint}},
	{Name: StepAssemble, Category: CategoryAssembly, Dependencies: []string{StepBlueprint, StepDetails}},
}

// stepNumber returns the 1-based position of name in Steps, or 0.
func stepNumber(name string) int {
	for i, s := range Steps {
		if s.Name == name {
			return i + 1
		}
	}
	return 0
}

func stepCategory(name string) string {
	for _, s := range Steps {
		if s.Name == name {
			return s.Category
		}
	}
	return ""
}

// stepTracker records the running step for timeout reports.
type stepTracker struct {
	mu   sync.Mutex
	step string
}

func (t *stepTracker) set(step string) {
	t.mu.Lock()
	t.step = step
	t.mu.Unlock()
}

func (t *stepTracker) current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}
