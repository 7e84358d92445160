package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/config"
	"github.com/jonathan/fitness-planner/internal/generation"
	"github.com/jonathan/fitness-planner/internal/llm"
	"github.com/jonathan/fitness-planner/internal/logger"
	"github.com/jonathan/fitness-planner/internal/observability"
	"github.com/jonathan/fitness-planner/internal/pipeline"
	"github.com/jonathan/fitness-planner/internal/planning"
	"github.com/jonathan/fitness-planner/internal/types"
)

// newLLMClient builds the model client; tests replace it.
var newLLMClient = func(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	return cfg.NewLLMClient(ctx)
}

// app holds the collaborators shared by the commands.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  llm.Client
	planner *planning.Planner
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-mode") {
		cfg.LogMode = logModeFlag
	}
	if flags.Changed("provider") {
		cfg.LLMProvider = providerFlag
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSizeFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and builds the logger. When withModel is set it
// also creates the LLM client and planner.
func newApp(cmd *cobra.Command, withModel bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	if !withModel {
		return a, nil
	}

	client, err := newLLMClient(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.client = client

	p := planning.New(client, log)
	p.BatchSize = cfg.BatchSize
	p.StageTimeout = cfg.StageTimeout.Std()
	if cfg.MaxAttempts > 0 {
		p.Policy = generation.DefaultPolicy().WithAttempts(cfg.MaxAttempts)
	}
	a.planner = p
	return a, nil
}

// pipeline builds the orchestrator; progress events are logged.
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Config{
		Planner:          a.planner,
		Budget:           a.cfg.Budget.Std(),
		Logger:           a.log,
		SingleDetailCall: a.cfg.SingleDetailCall,
		OnProgress: func(e pipeline.ProgressEvent) {
			a.log.Info(e.Message, "step", e.Step, "run_id", e.RunID)
		},
	})
}

// printer writes document summaries to stderr in verbose mode and discards them otherwise.
func (a *app) printer(cmd *cobra.Command) *observability.Printer {
	if !a.cfg.Verbose {
		return observability.NewPrinter(io.Discard)
	}
	return observability.NewPrinter(cmd.ErrOrStderr())
}

func (a *app) close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Warn("failed to close LLM client", "error", err)
		}
	}
	a.log.Sync()
}

// readJSON reads path and unmarshals it into v.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// readAssessment loads and validates an assessment file.
func readAssessment(path string) (types.Assessment, error) {
	var a types.Assessment
	if err := readJSON(path, &a); err != nil {
		return a, err
	}
	if err := a.Validate(); err != nil {
		return a, fmt.Errorf("invalid assessment: %w", err)
	}
	return a, nil
}

// readBlueprint loads a blueprint file, repairing and validating it.
func readBlueprint(path string) (*types.PlanBlueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return planning.DecodeBlueprint(data)
}

// writeJSON writes v as indented JSON to path, or to out when path is empty or "-".
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
