package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	timeutils "github.com/imishinist/runsum/internal/time"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

const (
	SourceFile    = "file"
	SourceCatalog = "catalog"
	SourceMLflow  = "mlflow"
)

var validSources = map[string]bool{
	SourceFile: true, SourceCatalog: true, SourceMLflow: true,
}

type Config struct {
	Source          string
	File            string
	Catalog         string
	Since           string
	TimeZone        string
	LogLevel        string
	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string
}

func New() *Config {
	return FromViper(viper.GetViper())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Source:          v.GetString("source"),
		File:            v.GetString("file"),
		Catalog:         v.GetString("catalog"),
		Since:           v.GetString("since"),
		TimeZone:        v.GetString("timezone"),
		LogLevel:        v.GetString("log_level"),
		TrackingURI:     v.GetString("tracking_uri"),
		ExperimentID:    v.GetString("experiment_id"),
		DatabricksHost:  v.GetString("databricks_host"),
		DatabricksToken: v.GetString("databricks_token"),
	}
}

func (c *Config) Validate() error {
	if !validSources[c.Source] {
		return fmt.Errorf("invalid source: %s (valid: file, catalog, mlflow)", c.Source)
	}

	// Each source needs its own location
	switch c.Source {
	case SourceFile:
		if c.File == "" {
			return fmt.Errorf("--file is required when source is %s", SourceFile)
		}
	case SourceCatalog:
		if c.Catalog == "" {
			return fmt.Errorf("catalog path is required when source is %s", SourceCatalog)
		}
	case SourceMLflow:
		if c.TrackingURI == "" {
			return fmt.Errorf("tracking URI is required")
		}
	}

	// Validate time zone
	if _, err := timeutils.LoadLocation(c.TimeZone); err != nil {
		return err
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	// Check for databricks:// protocol
	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	// Check for Databricks URLs
	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := c.extractHostFromURL(c.TrackingURI)
		return c.isDatabricksHost(host)
	}

	return false
}

// extractHostFromURL extracts the hostname from a URL
func (c *Config) extractHostFromURL(url string) string {
	host := strings.TrimPrefix(url, "https://")
	// Remove any path components
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// isDatabricksHost checks if a hostname belongs to Databricks
func (c *Config) isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	// Remove any trailing slashes or paths
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
