package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imishinist/runsum/internal/catalog"
	"github.com/imishinist/runsum/internal/config"
	"github.com/imishinist/runsum/internal/mlflow"
	"github.com/imishinist/runsum/internal/source"
	"github.com/imishinist/runsum/internal/summary"
	timeutils "github.com/imishinist/runsum/internal/time"
)

var summarizeCmd = &cobra.Command{
	Use:     "summarize",
	Aliases: []string{"ls"},
	Short:   "Print a summary table of recent runs",
	Long: `Print one line per run that started within the query window:
start time (HH:MM), plan name, detectors, motors and exit status.`,
	Example: `  # Runs from the last hour in a JSON run file
  runsum summarize --file runs.json --since 1h

  # Runs in the local catalog since a point in time, rendered in UTC
  runsum summarize --source catalog --since 2024-05-01T09:00:00Z --timezone UTC

  # Runs of an MLflow experiment
  runsum summarize --source mlflow --experiment-id 42 --since 2d`,
	Args: cobra.NoArgs,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().String("source", "", "Run source (file/catalog/mlflow)")
	summarizeCmd.Flags().String("since", "", "Earliest start time: duration (1h, 2d), RFC3339 or epoch seconds")
	summarizeCmd.Flags().String("timezone", "", "Time zone for the HH:MM column (Local, UTC or IANA name)")
	viper.BindPFlag("source", summarizeCmd.Flags().Lookup("source"))
	viper.BindPFlag("since", summarizeCmd.Flags().Lookup("since"))
	viper.BindPFlag("timezone", summarizeCmd.Flags().Lookup("timezone"))
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return summarize(ctx, cfg, cmd.OutOrStdout(), time.Now())
}

func summarize(ctx context.Context, cfg *config.Config, out io.Writer, now time.Time) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	since, err := timeutils.ParseSince(cfg.Since, now)
	if err != nil {
		return err
	}
	loc, err := timeutils.LoadLocation(cfg.TimeZone)
	if err != nil {
		return err
	}

	src, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	logger.Info("summarizing runs",
		zap.String("source", cfg.Source),
		zap.Time("since", since),
		zap.String("timezone", loc.String()))

	s := summary.New(out, summary.WithLocation(loc), summary.WithLogger(logger))
	n, err := s.Summarize(ctx, src.Runs(ctx, since))
	if err != nil {
		return fmt.Errorf("failed to summarize runs: %w", err)
	}

	logger.Debug("runs summarized", zap.Int("count", n))
	return nil
}

// openSource builds the configured run source and a function that releases it.
func openSource(cfg *config.Config) (source.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case config.SourceFile:
		f, err := source.NewFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil
	case config.SourceCatalog:
		store, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.SourceMLflow:
		client, err := mlflow.NewClient(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create MLflow client: %w", err)
		}
		return client, noop, nil
	default:
		return nil, nil, fmt.Errorf("invalid source: %s (valid: file, catalog, mlflow)", cfg.Source)
	}
}
