package main

import (
	"fmt"
	"os"

	"shopassist/internal/config"
	"shopassist/internal/logger"
	"shopassist/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopassist",
		Short:         "Product catalog API with a rule-based shopping assistant",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newClassifyCmd(),
		newExtractCmd(),
	)
	return root
}

// bootstrap loads configuration and builds the logger shared by commands
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	for _, w := range cfg.Warnings {
		log.Warn("configuration", zap.String("warning", w))
	}
	return cfg, log, nil
}

func openRepository(cfg *config.Config, log *zap.Logger) (*repository.PostgresRepository, error) {
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	log.Info("connected to PostgreSQL",
		zap.String("host", cfg.PostgreSQL.Host),
		zap.String("database", cfg.PostgreSQL.Database))
	return repo, nil
}
