package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/fitness-planner/internal/server"
	"github.com/jonathan/fitness-planner/internal/server/ratelimit"
	"github.com/jonathan/fitness-planner/internal/store"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the plan generation endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.Flags().Changed("port") {
		a.cfg.Port = servePort
	}

	pl, err := a.pipeline()
	if err != nil {
		return err
	}

	plans, err := store.Open(cmd.Context(), a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to open plan store: %w", err)
	}

	srv, err := server.New(server.Config{
		Port:      a.cfg.Port,
		Planner:   a.planner,
		Pipeline:  pl,
		Store:     plans,
		RateLimit: ratelimit.NewConfig(a.cfg.GenerateRatePerMin, a.cfg.DefaultRatePerMin),
		Logger:    a.log,
	})
	if err != nil {
		_ = plans.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
