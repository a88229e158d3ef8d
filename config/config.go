package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Device  DeviceConfig  `mapstructure:"device"`
	Badge   BadgeConfig   `mapstructure:"badge"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig points the client at the notification backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" envconfig:"BASE_URL"`
	Timeout time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT" default:"15s"`
	// BreakerThreshold consecutive failures open the circuit breaker;
	// backend calls then fail fast until BreakerCooldown elapses.
	BreakerThreshold int           `mapstructure:"breaker_threshold" envconfig:"BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown" envconfig:"BREAKER_COOLDOWN" default:"30s"`
}

// DeviceConfig describes the host platform and app build. APILevel is only
// read on android.
type DeviceConfig struct {
	Platform   string `mapstructure:"platform" envconfig:"PLATFORM"`
	APILevel   int    `mapstructure:"api_level" envconfig:"API_LEVEL"`
	Model      string `mapstructure:"model" envconfig:"MODEL"`
	OSVersion  string `mapstructure:"os_version" envconfig:"OS_VERSION"`
	AppVersion string `mapstructure:"app_version" envconfig:"APP_VERSION"`
}

// BadgeConfig controls unread-count reconciliation. With Coalesce off every
// inbound notification triggers its own fetch; with it on, fetches under a
// burst are capped to one per MinInterval.
type BadgeConfig struct {
	Coalesce    bool          `mapstructure:"coalesce" envconfig:"COALESCE"`
	MinInterval time.Duration `mapstructure:"min_interval" envconfig:"MIN_INTERVAL" default:"2s"`
}

// BridgeConfig controls listener bridge behavior.
type BridgeConfig struct {
	// DedupTTL bounds the window in which a notification-opened event with
	// the same notification id is dropped as a duplicate.
	DedupTTL time.Duration `mapstructure:"dedup_ttl" envconfig:"DEDUP_TTL" default:"30s"`
}

// StoreConfig locates the local device-state database.
type StoreConfig struct {
	Path string `mapstructure:"path" default:"pushkit.db"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" envconfig:"ENABLED"`
	Namespace string `mapstructure:"namespace" envconfig:"NAMESPACE" default:"pushkit"`
}

// LoadConfig reads config.yaml from the working directory or ./config,
// with environment variables taking precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("PUSHKIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadFromEnv builds a Config purely from PUSHKIT_* environment variables.
// Used by embedders that have no config file on disk.
func LoadFromEnv() (*Config, error) {
	var config Config
	if err := envconfig.Process("pushkit", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &config, nil
}
