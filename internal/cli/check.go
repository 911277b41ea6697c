package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/urlinfo/internal/app"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <host[:port]/path?query>",
		Short: "Check one url against the configured stores and print the verdict",
		Long: "Check one scheme-free url against every configured store, in order.\n" +
			"Prints the verdict as JSON and exits 2 when the url is unsafe.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			log := newLogger(cfg)
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			enc := json.NewEncoder(cmd.OutOrStdout())
			v, err := a.Checker().Check(cmd.Context(), args[0])
			if errors.Is(err, reputation.ErrInvalidLookup) {
				_ = enc.Encode(reputation.Unknown("invalid request"))
				return &ExitError{code: 1, message: err.Error()}
			}
			if err != nil {
				return err
			}
			if err := enc.Encode(v); err != nil {
				return err
			}
			if v.IsUnsafe() {
				return &ExitError{code: ExitUnsafe}
			}
			return nil
		},
	}
}
