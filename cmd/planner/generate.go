package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a complete 90-day program",
	Long:  "Runs blueprint, details and assembly within the configured time budget and writes the scheduled program. With --save the program is stored for the assessment's user_id.",
	RunE:  runGenerate,
}

var (
	generateAssessment string
	generateOutput     string
	generateSave       bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateAssessment, "assessment", "a", "", "Path to assessment JSON file (required)")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Path to output program JSON file (default stdout)")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Store the program in the configured plan store")
	mustMarkRequired(generateCmd, "assessment")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	assessment, err := readAssessment(generateAssessment)
	if err != nil {
		return err
	}
	if generateSave && assessment.UserID == "" {
		return fmt.Errorf("--save requires an assessment with user_id")
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	pl, err := a.pipeline()
	if err != nil {
		return err
	}

	program, err := pl.Generate90DayPlan(cmd.Context(), assessment)
	if err != nil {
		return err
	}

	if generateSave {
		plans, err := store.Open(cmd.Context(), a.cfg, a.log)
		if err != nil {
			return fmt.Errorf("failed to open plan store: %w", err)
		}
		defer plans.Close()
		if err := plans.Set(cmd.Context(), assessment.UserID, program); err != nil {
			return err
		}
		a.log.Info("program stored", "user_id", assessment.UserID, "backend", a.cfg.StoreBackend)
	}

	a.printer(cmd).PrintProgram(program)
	return writeJSON(cmd.OutOrStdout(), generateOutput, program)
}
