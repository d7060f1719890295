package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			repo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("database schema is up to date")
			return nil
		},
	}
}
