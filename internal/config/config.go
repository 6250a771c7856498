// Package config handles configuration loading and validation for the
// entralog pipeline.
//
// Configuration is resolved in order: built-in defaults, an optional YAML
// file (with environment variable expansion), then process environment
// variables. A .env file in the working directory is loaded into the
// environment first, if present.
//
// The resulting Config struct is constructed once at program start and
// passed explicitly to the components that need it; there is no ambient
// global configuration state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xtxerr/entralog/internal/azure"
	"github.com/xtxerr/entralog/internal/errors"
)

// Conventional Azure insights container names, used when no SAS URI is
// available to derive them from.
const (
	DefaultSigninContainer = "insights-logs-signinlogs"
	DefaultAuditContainer  = "insights-logs-auditlogs"
)

// Environment variable names for the container SAS URIs.
const (
	EnvAuditLogsURI  = "AUDIT_LOGS_URI"
	EnvSigninLogsURI = "SIGNIN_LOGS_URI"
)

// Config is the complete pipeline configuration.
type Config struct {
	// AuditLogsURI is the container SAS URI for audit logs.
	AuditLogsURI string `yaml:"audit_logs_uri"`

	// SigninLogsURI is the container SAS URI for sign-in logs.
	SigninLogsURI string `yaml:"signin_logs_uri"`

	// DataDir is the root directory for downloaded and combined data.
	DataDir string `yaml:"data_dir"`

	// Download configures the blob fetcher.
	Download DownloadConfig `yaml:"download"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`

	// Analysis configures the DuckDB analysis loader.
	Analysis AnalysisConfig `yaml:"analysis"`
}

// DownloadConfig configures the blob fetcher.
type DownloadConfig struct {
	// Workers is the pool size for the concurrent fetch strategy.
	Workers int `yaml:"workers"`

	// MaxRetries is the per-blob retry budget for transient failures.
	MaxRetries int `yaml:"max_retries"`

	// Timeout bounds a single download attempt.
	// Format: "30s", "2m"
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// File is an optional log file written in addition to stdout.
	File string `yaml:"file"`
}

// AnalysisConfig configures the DuckDB analysis loader.
type AnalysisConfig struct {
	// DBPath is the DuckDB database file.
	DBPath string `yaml:"db_path"`

	// Columns maps normalized event fields to combined-table column names.
	Columns ColumnsConfig `yaml:"columns"`
}

// ColumnsConfig names the combined-table columns used to build the
// normalized events table.
type ColumnsConfig struct {
	EventTime     string `yaml:"event_time"`
	Operation     string `yaml:"operation"`
	Category      string `yaml:"category"`
	CorrelationID string `yaml:"correlation_id"`
	Actor         string `yaml:"actor"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		DataDir: "./parquet_data",
		Download: DownloadConfig{
			Workers:    8,
			MaxRetries: 3,
			Timeout:    2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Analysis: AnalysisConfig{
			DBPath: "entralog.db",
			Columns: ColumnsConfig{
				EventTime:     "time",
				Operation:     "operationName",
				Category:      "category",
				CorrelationID: "correlationId",
				Actor:         "properties_userPrincipalName",
			},
		},
	}
}

// Load loads configuration from an optional YAML file and the environment.
// A missing file is not an error when path is empty; a named file that does
// not exist is.
func Load(path string) (*Config, error) {
	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables before parsing
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with process environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAuditLogsURI); v != "" {
		c.AuditLogsURI = v
	}
	if v := os.Getenv(EnvSigninLogsURI); v != "" {
		c.SigninLogsURI = v
	}
}

// CategoryDirs returns the per-category output directories under DataDir.
// Directory names are the container names from the configured SAS URIs,
// falling back to the conventional insights container names.
func (c *Config) CategoryDirs() (signinDir, auditDir string) {
	signin, audit := DefaultSigninContainer, DefaultAuditContainer

	if c.SigninLogsURI != "" {
		if name, err := azure.ContainerNameFromURI(c.SigninLogsURI); err == nil {
			signin = name
		}
	}
	if c.AuditLogsURI != "" {
		if name, err := azure.ContainerNameFromURI(c.AuditLogsURI); err == nil {
			audit = name
		}
	}

	return filepath.Join(c.DataDir, signin), filepath.Join(c.DataDir, audit)
}

// Validate checks values common to all commands.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.NewMissingConfig("data_dir"))
	}
	if c.Download.Workers <= 0 {
		errs = append(errs, errors.Wrap(errors.ErrInvalidConfig, "download.workers must be positive"))
	}
	if c.Download.MaxRetries < 0 {
		errs = append(errs, errors.Wrap(errors.ErrInvalidConfig, "download.max_retries must not be negative"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.Wrap(errors.ErrInvalidConfig, "download.timeout must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateDownload checks the values the download driver requires.
// Both SAS URIs must be present before any network call is made.
func (c *Config) ValidateDownload() error {
	var errs []error

	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.AuditLogsURI == "" {
		errs = append(errs, errors.NewMissingConfig(EnvAuditLogsURI))
	}
	if c.SigninLogsURI == "" {
		errs = append(errs, errors.NewMissingConfig(EnvSigninLogsURI))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateAnalysis checks the values the analysis loader requires.
func (c *Config) ValidateAnalysis() error {
	var errs []error

	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.DBPath == "" {
		errs = append(errs, errors.NewMissingConfig("analysis.db_path"))
	}

	cols := c.Analysis.Columns
	for name, v := range map[string]string{
		"analysis.columns.event_time":     cols.EventTime,
		"analysis.columns.operation":      cols.Operation,
		"analysis.columns.category":       cols.Category,
		"analysis.columns.correlation_id": cols.CorrelationID,
		"analysis.columns.actor":          cols.Actor,
	} {
		if v == "" {
			errs = append(errs, errors.NewMissingConfig(name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
