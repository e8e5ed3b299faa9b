package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
)

const (
	Production  = "production"
	Development = "development"

	// DefaultMaxQueueSize bounds the number of pending signing requests.
	DefaultMaxQueueSize = 10
	// DefaultStaleRequestTimeoutMs is how long a queued request stays
	// servable before it is evicted.
	DefaultStaleRequestTimeoutMs = 60_000
)

type AppConfig struct {
	Environment string `mapstructure:"environment"`

	NATs *NATsConfig `mapstructure:"nats"`

	// DBPath is the Badger directory holding the durable request queue.
	DBPath string `mapstructure:"db_path"`
	// BadgerPassword encrypts the queue database at rest. Optional in
	// development, required in production.
	BadgerPassword string `mapstructure:"badger_password"`

	MaxQueueSize          int `mapstructure:"max_queue_size"`
	StaleRequestTimeoutMs int `mapstructure:"stale_request_timeout_ms"`

	Accounts []AccountConfig `mapstructure:"accounts"`
}

type NATsConfig struct {
	URL      string     `mapstructure:"url"`
	Username string     `mapstructure:"username"`
	Password string     `mapstructure:"password"`
	TLS      *TLSConfig `mapstructure:"tls"`
}

type TLSConfig struct {
	ClientCert string `mapstructure:"client_cert"`
	ClientKey  string `mapstructure:"client_key"`
	CACert     string `mapstructure:"ca_cert"`
}

// AccountConfig declares one signer-backed account hosted by the agent.
type AccountConfig struct {
	Address string `mapstructure:"address"`
	// Type is either "software" or "hardware".
	Type string `mapstructure:"type"`
	// SeedFile points to the 32-byte ed25519 seed for software accounts.
	SeedFile string `mapstructure:"seed_file"`
	// PIN guards software signing. Read from config only in development;
	// production deployments should use the environment override.
	PIN string `mapstructure:"pin"`
}

var appConfig *AppConfig

// LoadConfig reads config.yaml, applies environment overrides and defaults,
// and caches the result for GetConfig.
func LoadConfig() *AppConfig {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/voiwallet/")
	v.AddConfigPath("$HOME/.voiwallet/")

	v.SetEnvPrefix("VOI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Fatal("Failed to read config file", err)
		}
		logger.Warn("No config file found, relying on environment variables")
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
	}); err != nil {
		logger.Fatal("Failed to unmarshal config", err)
	}

	applyDefaults(&cfg)
	if err := validateEnvironment(&cfg); err != nil {
		logger.Fatal("Invalid configuration", err)
	}

	appConfig = &cfg
	return appConfig
}

// GetConfig returns the cached config, loading it on first use.
func GetConfig() *AppConfig {
	if appConfig == nil {
		return LoadConfig()
	}
	return appConfig
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Environment == "" {
		cfg.Environment = Development
	}
	if cfg.NATs == nil {
		cfg.NATs = &NATsConfig{}
	}
	if cfg.NATs.URL == "" {
		cfg.NATs.URL = "nats://localhost:4222"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db"
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	if cfg.StaleRequestTimeoutMs <= 0 {
		cfg.StaleRequestTimeoutMs = DefaultStaleRequestTimeoutMs
	}
}

func validateEnvironment(cfg *AppConfig) error {
	switch cfg.Environment {
	case Production, Development:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", Production, Development, cfg.Environment)
	}

	if cfg.Environment == Production && cfg.BadgerPassword == "" {
		return fmt.Errorf("badger_password is required in production")
	}
	return nil
}
