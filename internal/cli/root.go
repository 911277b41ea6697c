package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/urlinfo/internal/config"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
)

// NewRoot builds the urlinfo command tree. Without a subcommand it serves.
func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "urlinfo",
		Short:         "urlinfo: URL malware reputation lookup service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("urlinfo {{.Version}}\n")

	cmd.PersistentFlags().String("config", "", "databases file (overrides URLINFO_CONFIG)")
	cmd.PersistentFlags().String("log-level", "", "debug|info|warn|error (overrides URLINFO_LOG_LEVEL)")
	cmd.PersistentFlags().Bool("pretty-log", false, "human readable logs (overrides URLINFO_PRETTY_LOG)")

	serve := newServeCmd()
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve)
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newLoadCmd())

	return cmd
}

// loadConfig reads URLINFO_* variables and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	flags := cmd.Flags()
	if flags.Changed("config") {
		cfg.DatabasesFile, _ = flags.GetString("config")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("pretty-log") {
		cfg.PrettyLog, _ = flags.GetBool("pretty-log")
	}
	return cfg
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(cfg.LogLevel, cfg.PrettyLog)
}
