package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imishinist/runsum/internal/catalog"
	"github.com/imishinist/runsum/internal/config"
	"github.com/imishinist/runsum/internal/source"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local run catalog",
	Long:  "Import run documents into the local SQLite run catalog and inspect it",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import run documents into the catalog",
	Long: `Import run documents from a JSON or YAML run file into the catalog.
Runs without a uid are assigned a new one.`,
	Example: `  runsum catalog import --file runs.json --catalog runs.db`,
	Args:    cobra.NoArgs,
	RunE:    runCatalogImport,
}

var catalogCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of runs in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogCount,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogCountCmd)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	if cfg.File == "" {
		return fmt.Errorf("--file must be specified")
	}
	return importRuns(cmd.Context(), cfg, cmd.ErrOrStderr())
}

func importRuns(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := source.NewFile(cfg.File)
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	// Import everything; the zero time predates any run.
	count := 0
	for run, err := range file.Runs(ctx, time.Time{}) {
		if err != nil {
			return fmt.Errorf("failed to read %s after %d runs: %w", cfg.File, count, err)
		}
		uid, err := store.Insert(ctx, run)
		if err != nil {
			return fmt.Errorf("failed to import run: %w", err)
		}
		logger.Debug("imported run", zap.String("uid", uid), zap.String("plan_name", run.Start.PlanName))
		count++
	}

	fmt.Fprintf(out, "Successfully imported %d runs from %s into %s\n", count, cfg.File, cfg.Catalog)
	return nil
}

func runCatalogCount(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
	return nil
}
