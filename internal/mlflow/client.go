package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/listing"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"go.uber.org/zap"

	"github.com/imishinist/runsum/internal/config"
)

// runSearcher is the part of the experiments API the source needs.
type runSearcher interface {
	SearchRuns(ctx context.Context, request ml.SearchRuns) listing.Iterator[ml.Run]
}

// Client reads run headers from an MLflow tracking server or a Databricks
// workspace.
type Client struct {
	experiments  runSearcher
	experimentID string
	logger       *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.ExperimentID == "" {
		return nil, fmt.Errorf("experiment ID must be specified via --experiment-id flag or MLFLOW_EXPERIMENT_ID environment variable")
	}

	var databricksConfig *databricks.Config

	if cfg.IsDatabricks() {
		// Databricks MLflow configuration
		databricksConfig = &databricks.Config{}

		// Handle different Databricks URI formats
		if cfg.TrackingURI == "databricks" {
			// Use DATABRICKS_HOST if available
			if cfg.DatabricksHost != "" {
				databricksConfig.Host = cfg.DatabricksHost
			}
			// Use default profile if no explicit profile specified
		} else if profile := cfg.GetDatabricksProfile(); profile != "" {
			// Handle databricks://{profile} format
			databricksConfig.Profile = profile
		} else {
			// Use the tracking URI as Databricks host (direct URL)
			databricksConfig.Host = cfg.TrackingURI
		}

		// Set authentication token if available (overrides profile)
		if cfg.DatabricksToken != "" {
			databricksConfig.Token = cfg.DatabricksToken
		}

		// Validate Databricks configuration
		if databricksConfig.Host == "" && databricksConfig.Profile == "" {
			return nil, fmt.Errorf("Databricks host or profile is required when using Databricks MLflow. Set DATABRICKS_HOST environment variable, use a full Databricks URL as tracking URI, or specify a profile with databricks://{profile}")
		}
	} else {
		// Regular MLflow server configuration
		databricksConfig = &databricks.Config{
			Host: cfg.TrackingURI,
			// For regular MLflow server, use a dummy token to bypass authentication
			Token: "dummy-token-for-regular-mlflow",
		}
	}

	client, err := databricks.NewWorkspaceClient(databricksConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create MLflow client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		experiments:  client.Experiments,
		experimentID: cfg.ExperimentID,
		logger:       logger,
	}, nil
}
