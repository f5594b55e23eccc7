package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Sync     SyncConfig     `yaml:"sync" mapstructure:"sync"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Mail     MailConfig     `yaml:"mail" mapstructure:"mail"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// SyncConfig configures sync invocations.
type SyncConfig struct {
	MaxPageSize          int      `yaml:"max_page_size" mapstructure:"max_page_size"`
	SelfAddressThreshold float64  `yaml:"self_address_threshold" mapstructure:"self_address_threshold"`
	CASRetries           int      `yaml:"cas_retries" mapstructure:"cas_retries"`
	ExtraGenericDomains  []string `yaml:"extra_generic_domains" mapstructure:"extra_generic_domains"`
	LookbackDays         int      `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// CalendarConfig configures the calendar provider client.
type CalendarConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Token          string  `yaml:"token" mapstructure:"token"`
	KeyringAccount string  `yaml:"keyring_account" mapstructure:"keyring_account"`
	Rate           float64 `yaml:"rate" mapstructure:"rate"`
}

// MailConfig configures the mail provider. Provider is "http" or "imap".
type MailConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Token          string  `yaml:"token" mapstructure:"token"`
	KeyringAccount string  `yaml:"keyring_account" mapstructure:"keyring_account"`
	Rate           float64 `yaml:"rate" mapstructure:"rate"`
	IMAPAddr       string  `yaml:"imap_addr" mapstructure:"imap_addr"`
	IMAPUsername   string  `yaml:"imap_username" mapstructure:"imap_username"`
	IMAPPassword   string  `yaml:"imap_password" mapstructure:"imap_password"`
	Mailbox        string  `yaml:"mailbox" mapstructure:"mailbox"`
}

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOBTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "jobtrack.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("sync.max_page_size", 250)
	v.SetDefault("sync.self_address_threshold", 0.5)
	v.SetDefault("sync.cas_retries", 3)
	v.SetDefault("sync.extra_generic_domains", []string{})
	v.SetDefault("sync.lookback_days", 30)
	v.SetDefault("calendar.rate", 5.0)
	v.SetDefault("mail.provider", "http")
	v.SetDefault("mail.rate", 5.0)
	v.SetDefault("mail.mailbox", "INBOX")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command needs are present. mode is
// the command family: "store", "serve", "calendar", "mail" or "sync".
func (c *Config) Validate(mode string) error {
	var errs []string
	requireStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	requireCalendar := func() {
		if c.Calendar.BaseURL == "" {
			errs = append(errs, "calendar.base_url is required")
		}
	}
	requireMail := func() {
		switch c.Mail.Provider {
		case "http":
			if c.Mail.BaseURL == "" {
				errs = append(errs, "mail.base_url is required")
			}
		case "imap":
			if c.Mail.IMAPAddr == "" {
				errs = append(errs, "mail.imap_addr is required")
			}
			if c.Mail.IMAPUsername == "" {
				errs = append(errs, "mail.imap_username is required")
			}
		default:
			errs = append(errs, "mail.provider must be http or imap")
		}
	}

	if c.Sync.MaxPageSize <= 0 {
		errs = append(errs, "sync.max_page_size must be positive")
	}

	switch mode {
	case "store":
		requireStore()
	case "serve":
		requireStore()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "calendar":
		requireStore()
		requireCalendar()
	case "mail":
		requireStore()
		requireMail()
	case "sync":
		requireStore()
		requireCalendar()
		requireMail()
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
