package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once and
// passed down immutably; components never reach for globals.
type Config struct {
	Workbook Workbook      `yaml:"workbook" mapstructure:"workbook"`
	Store    StoreConfig   `yaml:"store" mapstructure:"store"`
	Webhook  WebhookConfig `yaml:"webhook" mapstructure:"webhook"`
	Batch    BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Export   ExportConfig  `yaml:"export" mapstructure:"export"`
	Server   ServerConfig  `yaml:"server" mapstructure:"server"`
	Log      LogConfig     `yaml:"log" mapstructure:"log"`
}

// Workbook locates the reporting workbook and names its tabs.
type Workbook struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Master    string `yaml:"master" mapstructure:"master"`
	Clean     string `yaml:"clean" mapstructure:"clean"`
	Roster    string `yaml:"roster" mapstructure:"roster"`
	Ledger    string `yaml:"ledger" mapstructure:"ledger"`
	SysIssues string `yaml:"sys_issues" mapstructure:"sys_issues"`
	Groups    string `yaml:"groups" mapstructure:"groups"`
	Courses   string `yaml:"courses" mapstructure:"courses"`
	// GroupTarget is the tab name expected inside group destination
	// workbooks; empty means the first sheet.
	GroupTarget string `yaml:"group_target" mapstructure:"group_target"`
}

// StoreConfig configures job-state and run-log persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WebhookConfig configures the roster-validation webhook.
type WebhookConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// BatchConfig configures chunked operations.
type BatchConfig struct {
	Limit      int `yaml:"limit" mapstructure:"limit"`
	BudgetSecs int `yaml:"budget_secs" mapstructure:"budget_secs"`
}

// ExportConfig configures the Clean upload export.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the edit-event server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the loaded configuration for values no command can run
// with. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Workbook.Path == "" {
		problems = append(problems, "workbook.path is required")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Batch.Limit < 1 || c.Batch.Limit > 10000 {
		problems = append(problems, "batch.limit must be between 1 and 10000")
	}
	if c.Batch.BudgetSecs < 1 {
		problems = append(problems, "batch.budget_secs must be > 0")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Webhook.RatePerSec <= 0 {
		problems = append(problems, "webhook.rate_per_sec must be > 0")
	}
	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CEREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("workbook.path", "reporting.xlsx")
	v.SetDefault("workbook.master", "Master")
	v.SetDefault("workbook.clean", "Clean")
	v.SetDefault("workbook.roster", "Roster")
	v.SetDefault("workbook.ledger", "Reported Hours")
	v.SetDefault("workbook.sys_issues", "System Reporting Issues")
	v.SetDefault("workbook.groups", "Group Config")
	v.SetDefault("workbook.courses", "Courses")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ce-reporter.db")
	v.SetDefault("webhook.timeout_secs", 10)
	v.SetDefault("webhook.rate_per_sec", 2)
	v.SetDefault("batch.limit", 600)
	v.SetDefault("batch.budget_secs", 280)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
