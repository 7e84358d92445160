package main

import (
	"github.com/spf13/cobra"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Generate a program blueprint from an assessment",
	Long:  "Calls the model once (with retries) to design the day-type catalog, 14-day microcycle and nutrition targets for an assessment.",
	RunE:  runBlueprint,
}

var (
	blueprintAssessment string
	blueprintOutput     string
)

func init() {
	blueprintCmd.Flags().StringVarP(&blueprintAssessment, "assessment", "a", "", "Path to assessment JSON file (required)")
	blueprintCmd.Flags().StringVarP(&blueprintOutput, "out", "o", "", "Path to output blueprint JSON file (default stdout)")
	mustMarkRequired(blueprintCmd, "assessment")
	rootCmd.AddCommand(blueprintCmd)
}

func runBlueprint(cmd *cobra.Command, _ []string) error {
	assessment, err := readAssessment(blueprintAssessment)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	bp, err := a.planner.GenerateBlueprint(cmd.Context(), assessment)
	if err != nil {
		return err
	}
	a.printer(cmd).PrintBlueprint(bp)
	return writeJSON(cmd.OutOrStdout(), blueprintOutput, bp)
}
