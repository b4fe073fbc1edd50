// Package cmd provides the CLI commands for searchcore.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"harshagw/searchcore/internal/config"
	"harshagw/searchcore/internal/logging"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root command for the searchcore CLI.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "searchcore",
		Short: "Query parsing and adapter-based search over an entity store",
		Long: `searchcore parses boolean keyword queries, evaluates them through
pluggable evaluator, scorer and processor adapters, and resolves the hits
to entities held in a local store.

Examples:
  searchcore load docs.json
  searchcore index
  searchcore query 'mock AND "entity text"' -p formula_type=tf_idf
  searchcore repl`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "searchcore.yaml", "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(newLoadCmd(&opts))
	cmd.AddCommand(newIndexCmd(&opts))
	cmd.AddCommand(newQueryCmd(&opts))
	cmd.AddCommand(newTypesCmd(&opts))
	cmd.AddCommand(newReplCmd(&opts))

	return cmd
}

// Execute runs the root command with a context canceled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads the configuration and builds the logger and app.
func (o *rootOptions) setup() (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("config", o.configPath),
		zap.String("entity_store", cfg.EntityStore.Path),
		zap.String("index", cfg.Index.Path),
	)
	return a, nil
}
