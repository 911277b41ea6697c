package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/urlinfo/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup API until SIGINT/SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			log := newLogger(cfg)
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				log.Errorf("startup failed: %v", err)
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
