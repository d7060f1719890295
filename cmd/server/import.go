package main

import (
	"fmt"
	"io"

	"shopassist/internal/importer"
	"shopassist/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-products <file.xlsx>",
		Short: "Upsert categories and products from the first sheet of a workbook",
		Args:  cobra.ExactArgs(1),
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

			ctx := cmd.Context()
			result, importErr := importer.New(repo, log).ImportFile(ctx, args[0])
			if result == nil {
				return importErr
			}

			// Brand and featured lists are cached; drop them so the import shows up
			if result.Products > 0 || result.Categories > 0 {
				cache := newCache(ctx, cfg, log)
				catalog := service.NewCatalogService(repo, cache, nil, cfg.Catalog, log)
				if err := catalog.InvalidateCache(ctx); err != nil {
					log.Warn("failed to invalidate catalog cache", zap.Error(err))
				}
			}

			printImportResult(cmd.OutOrStdout(), result, importErr)
			return importErr
		},
	}
}

// printImportResult reports what was written, including the rows
// committed before a failure.
func printImportResult(w io.Writer, result *importer.Result, err error) {
	verb := "imported"
	if err != nil {
		verb = "import stopped after writing"
	}
	fmt.Fprintf(w, "%s %d products in %d categories, skipped %d rows\n",
		verb, result.Products, result.Categories, len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  %v\n", s)
	}
}
