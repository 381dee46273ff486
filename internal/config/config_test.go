package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "reporting.xlsx", cfg.Workbook.Path)
	assert.Equal(t, "Master", cfg.Workbook.Master)
	assert.Equal(t, "Clean", cfg.Workbook.Clean)
	assert.Equal(t, "Roster", cfg.Workbook.Roster)
	assert.Equal(t, "Reported Hours", cfg.Workbook.Ledger)
	assert.Equal(t, "System Reporting Issues", cfg.Workbook.SysIssues)
	assert.Equal(t, "Group Config", cfg.Workbook.Groups)
	assert.Equal(t, "Courses", cfg.Workbook.Courses)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "ce-reporter.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Webhook.TimeoutSecs)
	assert.InDelta(t, 2.0, cfg.Webhook.RatePerSec, 0.001)
	assert.Equal(t, 600, cfg.Batch.Limit)
	assert.Equal(t, 280, cfg.Batch.BudgetSecs)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
workbook:
  path: /data/ce.xlsx
  ledger: Ledger
store:
  driver: postgres
  database_url: postgres://localhost/ce
batch:
  limit: 200
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/ce.xlsx", cfg.Workbook.Path)
	assert.Equal(t, "Ledger", cfg.Workbook.Ledger)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 200, cfg.Batch.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "Master", cfg.Workbook.Master)
	assert.Equal(t, 280, cfg.Batch.BudgetSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CEREPORT_STORE_DRIVER", "sqlite")
	t.Setenv("CEREPORT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CEREPORT_BATCH_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Batch.Limit)
}

func validConfig() *Config {
	return &Config{
		Workbook: Workbook{Path: "reporting.xlsx"},
		Store:    StoreConfig{Driver: "sqlite"},
		Webhook:  WebhookConfig{RatePerSec: 2},
		Batch:    BatchConfig{Limit: 600, BudgetSecs: 280},
		Server:   ServerConfig{Port: 8080},
	}
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workbook.path is required")
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "batch.limit")
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateBatchBounds(t *testing.T) {
	cfg := validConfig()

	cfg.Batch.Limit = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.limit must be between 1 and 10000")

	cfg.Batch.Limit = 10001
	assert.Error(t, cfg.Validate())

	cfg.Batch.Limit = 10000
	assert.NoError(t, cfg.Validate())
}

func TestValidateDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mysql"`)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
