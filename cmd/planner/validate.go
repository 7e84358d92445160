package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/normalize"
	"github.com/jonathan/fitness-planner/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON document against a schema",
	Long:  "Validates a blueprint, details, coach notes or training template document against its embedded JSON schema and prints each violation with its field path.",
	RunE:  runValidate,
}

var (
	validateSchema    string
	validateInput     string
	validateNormalize bool
)

func init() {
	names := make([]string, 0, len(schemas.Names()))
	for _, n := range schemas.Names() {
		names = append(names, string(n))
	}
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "Schema name: "+strings.Join(names, ", ")+" (required)")
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to JSON file (required)")
	validateCmd.Flags().BoolVar(&validateNormalize, "normalize", false, "Repair the document before validating")
	mustMarkRequired(validateCmd, "schema", "in")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	name := schemas.Name(validateSchema)
	if _, err := schemas.Source(name); err != nil {
		return fmt.Errorf("unknown schema %q", validateSchema)
	}

	raw, err := os.ReadFile(validateInput)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", validateInput, err)
	}
	if validateNormalize {
		raw, err = normalize.JSON(raw, func(doc any) any {
			return normalize.Document(doc, normalize.DefaultOptions())
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	err = schemas.Validate(name, raw)
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		for _, fe := range ve.Errors {
			fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("%s does not match schema %s (%d errors)", validateInput, name, len(ve.Errors))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s is a valid %s document\n", validateInput, name)
	return nil
}
