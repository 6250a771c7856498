package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xtxerr/entralog/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.DataDir != "./parquet_data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Download.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Download.Workers)
	}
	if cfg.Download.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Download.MaxRetries)
	}
	if cfg.Download.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Download.Timeout)
	}
	if cfg.Analysis.Columns.Actor != "properties_userPrincipalName" {
		t.Errorf("Actor column = %q", cfg.Analysis.Columns.Actor)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DATA_ROOT", "/srv/logs")
	t.Setenv(EnvAuditLogsURI, "")
	t.Setenv(EnvSigninLogsURI, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
data_dir: ${TEST_DATA_ROOT}/parquet
download:
  workers: 4
  max_retries: 5
  timeout: 30s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/srv/logs/parquet" {
		t.Errorf("DataDir = %q, want env-expanded path", cfg.DataDir)
	}
	if cfg.Download.Workers != 4 || cfg.Download.MaxRetries != 5 {
		t.Errorf("download config = %+v", cfg.Download)
	}
	if cfg.Download.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Download.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	// Defaults survive for values the file does not set.
	if cfg.Analysis.DBPath != "entralog.db" {
		t.Errorf("DBPath = %q", cfg.Analysis.DBPath)
	}
}

func TestEnvOverridesURIs(t *testing.T) {
	t.Setenv(EnvAuditLogsURI, "https://acct.blob.core.windows.net/insights-logs-auditlogs?sig=a")
	t.Setenv(EnvSigninLogsURI, "https://acct.blob.core.windows.net/insights-logs-signinlogs?sig=s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AuditLogsURI == "" || cfg.SigninLogsURI == "" {
		t.Fatal("URIs should come from the environment")
	}
	if err := cfg.ValidateDownload(); err != nil {
		t.Errorf("ValidateDownload: %v", err)
	}
}

func TestValidateDownloadNamesMissingValue(t *testing.T) {
	t.Setenv(EnvAuditLogsURI, "")
	t.Setenv(EnvSigninLogsURI, "")

	cfg := Default()
	err := cfg.ValidateDownload()
	if !errors.Is(err, errors.ErrMissingConfig) {
		t.Fatalf("got %v, want ErrMissingConfig", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, EnvAuditLogsURI) || !strings.Contains(msg, EnvSigninLogsURI) {
		t.Errorf("error %q must name both missing values", msg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Download.Workers = 0
	cfg.Download.Timeout = 0

	err := cfg.Validate()
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestCategoryDirs(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"

	signin, audit := cfg.CategoryDirs()
	if signin != filepath.Join("/data", DefaultSigninContainer) {
		t.Errorf("signin dir = %q", signin)
	}
	if audit != filepath.Join("/data", DefaultAuditContainer) {
		t.Errorf("audit dir = %q", audit)
	}

	cfg.SigninLogsURI = "https://acct.blob.core.windows.net/custom-signin?sig=x"
	signin, _ = cfg.CategoryDirs()
	if signin != filepath.Join("/data", "custom-signin") {
		t.Errorf("signin dir = %q, want container from URI", signin)
	}
}

func TestValidateAnalysisRequiresColumns(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Columns.Actor = ""

	err := cfg.ValidateAnalysis()
	if !errors.Is(err, errors.ErrMissingConfig) {
		t.Fatalf("got %v, want ErrMissingConfig", err)
	}
	if !strings.Contains(err.Error(), "analysis.columns.actor") {
		t.Errorf("error %q must name the column", err.Error())
	}
}
