package main

import (
	"github.com/ignite/constituent-service/internal/config"
	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/pkg/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Year       string
	Month      string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate and locate constituent CSV exports",
		Long: `Generate the CSV export for a signup year or month and store it where
GET /constituents/csv serves it from.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config/config.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&opts.Year, "year", "", "four-digit signup year")
	cmd.PersistentFlags().StringVar(&opts.Month, "month", "", "signup month 1-12 (optional)")

	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newLocateCommand(opts))
	return cmd
}

// load reads the config and the requested period.
func (o *rootOptions) load() (*config.Config, export.Period, error) {
	cfg, err := config.LoadFromEnv(o.ConfigPath)
	if err != nil {
		return nil, export.Period{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, export.Period{}, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())

	p, err := export.ParsePeriod(o.Year, o.Month)
	if err != nil {
		return nil, export.Period{}, err
	}
	return cfg, p, nil
}
