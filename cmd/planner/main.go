// Package main provides the planner CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "planner",
	Short:         "90-day training and nutrition program generator",
	Long:          "Planner generates personalized 90-day training programs from a fitness assessment with a staged LLM pipeline, and serves them over a REST API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath    string
	logModeFlag   string
	providerFlag  string
	batchSizeFlag int
	verboseFlag   bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file (optional)")
	rootCmd.PersistentFlags().StringVar(&logModeFlag, "log-mode", "", "Log mode: development or production")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider: gemini or openai")
	rootCmd.PersistentFlags().IntVar(&batchSizeFlag, "batch-size", 0, "Workout day types per detail call")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print summaries of generated documents to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
