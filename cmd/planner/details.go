package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/types"
)

var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Generate day type details and coach notes for a blueprint",
	Long:  "Generates workout and recovery details for every day type of a blueprint plus global coach notes, either as parallel batched calls or as one call with --single.",
	RunE:  runDetails,
}

var (
	detailsAssessment string
	detailsBlueprint  string
	detailsSingle     bool
	detailsOutput     string
)

func init() {
	detailsCmd.Flags().StringVarP(&detailsAssessment, "assessment", "a", "", "Path to assessment JSON file (required)")
	detailsCmd.Flags().StringVarP(&detailsBlueprint, "blueprint", "b", "", "Path to blueprint JSON file (required)")
	detailsCmd.Flags().BoolVar(&detailsSingle, "single", false, "Generate all details with one model call")
	detailsCmd.Flags().StringVarP(&detailsOutput, "out", "o", "", "Path to output plan details JSON file (default stdout)")
	mustMarkRequired(detailsCmd, "assessment", "blueprint")
	rootCmd.AddCommand(detailsCmd)
}

func runDetails(cmd *cobra.Command, _ []string) error {
	assessment, err := readAssessment(detailsAssessment)
	if err != nil {
		return err
	}
	bp, err := readBlueprint(detailsBlueprint)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	var details *types.PlanDetails
	if detailsSingle {
		details, err = a.planner.GeneratePlanDetails(cmd.Context(), assessment, bp)
	} else {
		details, err = a.planner.GenerateDetails(cmd.Context(), assessment, bp)
	}
	if err != nil {
		return err
	}
	a.printer(cmd).PrintPlanDetails(details)
	return writeJSON(cmd.OutOrStdout(), detailsOutput, details)
}
