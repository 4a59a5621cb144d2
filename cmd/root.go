package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "runsum",
	Short: "Experiment run summary tool",
	Long: `A command line tool that prints a one-line-per-run summary table of
experiment runs read from a run file, a local run catalog, or an MLflow
tracking server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level written to stderr (debug/info/warn/error)")
	rootCmd.PersistentFlags().String("file", "", "Run file (.json, .jsonl, .ndjson, .yaml, .yml)")
	rootCmd.PersistentFlags().String("catalog", "", "Run catalog database path (overrides RUNSUM_CATALOG)")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().String("experiment-id", "", "Experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("tracking_uri", rootCmd.PersistentFlags().Lookup("tracking-uri"))
	viper.BindPFlag("experiment_id", rootCmd.PersistentFlags().Lookup("experiment-id"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		checkError(viper.ReadInConfig())
	}

	// Environment variables
	viper.SetEnvPrefix("RUNSUM")
	viper.AutomaticEnv()

	// MLflow and Databricks keep their own variable names
	viper.BindEnv("tracking_uri", "MLFLOW_TRACKING_URI")
	viper.BindEnv("experiment_id", "MLFLOW_EXPERIMENT_ID")
	viper.BindEnv("databricks_host", "DATABRICKS_HOST")
	viper.BindEnv("databricks_token", "DATABRICKS_TOKEN")

	// Set defaults
	viper.SetDefault("source", "file")
	viper.SetDefault("since", "24h")
	viper.SetDefault("timezone", "Local")
	viper.SetDefault("catalog", "runsum.db")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("tracking_uri", "http://localhost:5000")
}

// newLogger builds a console logger on stderr; stdout is reserved for the table.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", level)
	}

	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
