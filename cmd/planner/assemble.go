package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/assembly"
	"github.com/jonathan/fitness-planner/internal/pipeline"
	"github.com/jonathan/fitness-planner/internal/planning"
	"github.com/jonathan/fitness-planner/internal/types"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a program from a blueprint and plan details",
	Long:  "Builds the 14-day template from a blueprint and its details and projects it over 90 days. No model calls are made.",
	RunE:  runAssemble,
}

var (
	assembleBlueprint  string
	assembleDetails    string
	assembleAssessment string
	assembleStart      string
	assembleOutput     string
)

func init() {
	assembleCmd.Flags().StringVarP(&assembleBlueprint, "blueprint", "b", "", "Path to blueprint JSON file (required)")
	assembleCmd.Flags().StringVarP(&assembleDetails, "details", "d", "", "Path to plan details JSON file (required)")
	assembleCmd.Flags().StringVarP(&assembleAssessment, "assessment", "a", "", "Path to assessment JSON file (optional)")
	assembleCmd.Flags().StringVar(&assembleStart, "start", "", "Program start date YYYY-MM-DD (default tomorrow, UTC)")
	assembleCmd.Flags().StringVarP(&assembleOutput, "out", "o", "", "Path to output program JSON file (default stdout)")
	mustMarkRequired(assembleCmd, "blueprint", "details")
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	bp, err := readBlueprint(assembleBlueprint)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(assembleDetails)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", assembleDetails, err)
	}
	details, err := planning.DecodePlanDetails(raw, bp)
	if err != nil {
		return err
	}

	var assessment types.Assessment
	if assembleAssessment != "" {
		if assessment, err = readAssessment(assembleAssessment); err != nil {
			return err
		}
	}

	start, err := startDate(assembleStart)
	if err != nil {
		return err
	}

	program, err := assembly.Assemble(bp, details, assessment, start)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	a.printer(cmd).PrintProgram(program)

	return writeJSON(cmd.OutOrStdout(), assembleOutput, program)
}

// startDate parses value, defaulting to the day after today in UTC.
func startDate(value string) (types.Date, error) {
	if value == "" {
		return pipeline.StartDate(time.Now()), nil
	}
	d, err := types.ParseDate(value)
	if err != nil {
		return types.Date{}, fmt.Errorf("invalid start date %q: %w", value, err)
	}
	return d, nil
}
