package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fitness-planner/internal/assembly"
	"github.com/jonathan/fitness-planner/internal/planning/planningtest"
	"github.com/jonathan/fitness-planner/internal/types"
)

func TestPrintBlueprint(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bp := planningtest.Blueprint()
	p.PrintBlueprint(bp)
	output := buf.String()

	assert.Contains(t, output, "PLAN BLUEPRINT")
	assert.Contains(t, output, bp.ProgramOverview.Title)
	assert.Contains(t, output, "Microcycle (14 days)")
	for _, dt := range bp.SplitDesign.DayTypes {
		assert.Contains(t, output, dt.Label)
	}
	assert.Contains(t, output, "[recovery]")
}

func TestPrintBlueprint_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBlueprint(nil)

	assert.Empty(t, buf.String())
}

func TestPrintPlanDetails(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bp := planningtest.Blueprint()
	details := planningtest.PlanDetails(bp)
	p.PrintPlanDetails(&details)
	output := buf.String()

	assert.Contains(t, output, "PLAN DETAILS")
	for id := range details.DayTypeDetails {
		assert.Contains(t, output, id)
	}
}

func TestPrintProgram(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bp := planningtest.Blueprint()
	details := planningtest.PlanDetails(bp)
	start, err := types.ParseDate("2025-01-06")
	require.NoError(t, err)
	program, err := assembly.Assemble(bp, &details, types.Assessment{}, start)
	require.NoError(t, err)

	p.PrintProgram(program)
	output := buf.String()

	assert.Contains(t, output, "90-DAY PROGRAM")
	assert.Contains(t, output, "2025-01-06")
	assert.Contains(t, output, "Length:   90 days")
	assert.Contains(t, output, "more")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "this line is definitely much longer than the box is wide, so it gets cut")

	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), "gets cut")
}
