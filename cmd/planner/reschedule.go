package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/assembly"
	"github.com/jonathan/fitness-planner/internal/types"
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Move a program to a new start date",
	Long:  "Recomputes every scheduled workout date of an assembled program for a new start date.",
	RunE:  runReschedule,
}

var (
	rescheduleProgram string
	rescheduleStart   string
	rescheduleOutput  string
)

func init() {
	rescheduleCmd.Flags().StringVarP(&rescheduleProgram, "program", "p", "", "Path to program JSON file (required)")
	rescheduleCmd.Flags().StringVar(&rescheduleStart, "start", "", "New start date YYYY-MM-DD (required)")
	rescheduleCmd.Flags().StringVarP(&rescheduleOutput, "out", "o", "", "Path to output program JSON file (default stdout)")
	mustMarkRequired(rescheduleCmd, "program", "start")
	rootCmd.AddCommand(rescheduleCmd)
}

func runReschedule(cmd *cobra.Command, _ []string) error {
	var program types.Program
	if err := readJSON(rescheduleProgram, &program); err != nil {
		return err
	}
	start, err := startDate(rescheduleStart)
	if err != nil {
		return err
	}

	moved, err := assembly.Reschedule(&program, start)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()
	a.printer(cmd).PrintProgram(moved)

	return writeJSON(cmd.OutOrStdout(), rescheduleOutput, moved)
}
