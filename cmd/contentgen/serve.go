package main

import (
	"github.com/spf13/cobra"

	"contentgen/internal/app"
	"contentgen/internal/infra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for submitting and inspecting runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			logger := infra.NewLogger(cfg.AppEnv)
			return app.Serve(cmd.Context(), cfg, &logger)
		},
	}
}
