package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/MimoJanra/PortPulse/internal/models"
)

const EnvPrefix = "PORTPULSE"

type Config struct {
	Probe  ProbeConfig  `mapstructure:"probe"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Alert  AlertConfig  `mapstructure:"alert"`
}

type ProbeConfig struct {
	TimeoutMS int  `mapstructure:"timeout_ms"`
	Liveness  bool `mapstructure:"liveness"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	DBPath             string `mapstructure:"db_path"`
	Workers            int    `mapstructure:"workers"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AlertConfig selects where failure-streak alerts go. An empty Type disables them.
type AlertConfig struct {
	Type       string `mapstructure:"type"`
	WebhookURL string `mapstructure:"webhook_url"`
	Token      string `mapstructure:"token"`
	ChatID     string `mapstructure:"chat_id"`
	Threshold  int    `mapstructure:"threshold"`
}

// New returns a viper instance with defaults, config search paths and
// PORTPULSE_* environment overrides wired in.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("probe.timeout_ms", models.DefaultTimeoutMS)
	v.SetDefault("probe.liveness", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.db_path", "portpulse.db")
	v.SetDefault("server.workers", 5)
	v.SetDefault("server.rate_limit_per_minute", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("alert.type", "")
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.token", "")
	v.SetDefault("alert.chat_id", "")
	v.SetDefault("alert.threshold", 5)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadInConfig loads path when given, otherwise searches the usual locations
// for portpulse.yaml. A missing file in the search path is not an error.
func ReadInConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("portpulse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(userConfigDir, "portpulse"))
	}
	v.AddConfigPath("/etc/portpulse")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	log.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
	return nil
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Probe.TimeoutMS <= 0 {
		return nil, fmt.Errorf("probe.timeout_ms must be positive, got %d", cfg.Probe.TimeoutMS)
	}
	if cfg.Server.Workers < 1 {
		return nil, fmt.Errorf("server.workers must be at least 1, got %d", cfg.Server.Workers)
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("server.rate_limit_per_minute must not be negative")
	}
	if cfg.Alert.Threshold < 1 {
		return nil, fmt.Errorf("alert.threshold must be at least 1, got %d", cfg.Alert.Threshold)
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "portpulse.db"
	}

	return &cfg, nil
}
