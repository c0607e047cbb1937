package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"worldfolio/internal/platform/config"
	"worldfolio/internal/platform/logger"
)

type rootOptions struct {
	logFormat string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "worldfolio",
		Short: "Country exploration backend",
		Long: `worldfolio serves server-side views for browsing countries: discovery
with search, region and language filters, and detail pages enriched with an
AI overview, photos, news and a chat assistant.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json|text), overrides LOG_FORMAT")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCountryCmd(opts))
	cmd.AddCommand(newDiscoverCmd(opts))
	return cmd
}

// load reads configuration and builds the logger, applying flag overrides.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, logger.New(cfg.Log.Format, cfg.Log.Level), nil
}
