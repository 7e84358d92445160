// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/fitness-planner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBlueprint outputs the overview, day type catalog and microcycle of a blueprint.
func (p *Printer) PrintBlueprint(bp *types.PlanBlueprint) {
	if bp == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Program:  %s\n", bp.ProgramOverview.Title)
	fmt.Fprintf(&sb, "Goal:     %s\n", bp.ProgramOverview.PrimaryGoal)
	fmt.Fprintf(&sb, "Schedule: %d days/week, %d min\n", bp.UserProfile.TrainingDaysPerWeek, bp.UserProfile.SessionLengthMinutes)
	sb.WriteString("\n")

	if len(bp.SplitDesign.DayTypes) > 0 {
		sb.WriteString("Day Types:\n")
		for _, dt := range bp.SplitDesign.DayTypes {
			fmt.Fprintf(&sb, "  • %s (%s)", dt.Label, dt.Category)
			if dt.IsRecoveryDay {
				sb.WriteString(" [recovery]")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(bp.SplitDesign.MicrocycleTemplate) > 0 {
		ids := make([]string, 0, len(bp.SplitDesign.MicrocycleTemplate))
		for _, d := range bp.SplitDesign.MicrocycleTemplate {
			ids = append(ids, d.DayTypeID)
		}
		fmt.Fprintf(&sb, "Microcycle (%d days):\n", len(ids))
		for start := 0; start < len(ids); start += 7 {
			end := min(start+7, len(ids))
			fmt.Fprintf(&sb, "  %s\n", strings.Join(ids[start:end], " "))
		}
		sb.WriteString("\n")
	}

	m := bp.NutritionOverview.DailyMacros
	fmt.Fprintf(&sb, "Macros: %d kcal  P %.0fg  C %.0fg  F %.0fg", m.Calories, m.ProteinGrams, m.CarbsGrams, m.FatsGrams)

	p.printBox("PLAN BLUEPRINT", sb.String())
}

// PrintPlanDetails outputs the exercise counts per day type and the phase names.
func (p *Printer) PrintPlanDetails(details *types.PlanDetails) {
	if details == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Day types detailed: %d\n\n", len(details.DayTypeDetails))
	for _, id := range details.DayTypeDetails.IDs() {
		d := details.DayTypeDetails[id]
		exercises := 0
		for _, b := range d.Blocks {
			exercises += len(b.Exercises)
		}
		if d.RecoveryRoutine != nil && d.RecoveryRoutine.IsRecoveryDay {
			fmt.Fprintf(&sb, "  • %s: recovery, %d steps\n", id, len(d.RecoveryRoutine.Steps))
			continue
		}
		fmt.Fprintf(&sb, "  • %s: %d blocks, %d exercises\n", id, len(d.Blocks), exercises)
	}

	phases := details.GlobalCoachNotes.PhaseBreakdown
	if len(phases) > 0 {
		sb.WriteString("\nPhases:\n")
		count := min(len(phases), maxItemsToShow)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, phases[i].PhaseName)
		}
		if len(phases) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(phases)-maxItemsToShow)
		}
	}

	p.printBox("PLAN DETAILS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgram outputs the schedule summary of an assembled program.
func (p *Printer) PrintProgram(program *types.Program) {
	if program == nil {
		return
	}

	var sb strings.Builder
	meta := program.Template.Meta
	fmt.Fprintf(&sb, "Summary:  %s\n", meta.Summary)
	fmt.Fprintf(&sb, "Start:    %s\n", program.StartDate)
	fmt.Fprintf(&sb, "Length:   %d days\n", program.ProgramLengthDays)
	fmt.Fprintf(&sb, "Workouts: %d\n", len(program.Workouts))

	if n := len(program.Workouts); n > 0 {
		fmt.Fprintf(&sb, "Last:     %s\n", program.Workouts[n-1].ScheduledDate)
		sb.WriteString("\nUpcoming:\n")
		count := min(n, maxItemsToShow)
		for i := 0; i < count; i++ {
			w := program.Workouts[i]
			fmt.Fprintf(&sb, "  %s  %s\n", w.ScheduledDate, w.Name)
		}
		if n > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", n-maxItemsToShow)
		}
	}

	p.printBox("90-DAY PROGRAM", strings.TrimSuffix(sb.String(), "\n"))
}
