// Package config loads the tradeenv configuration file.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/session"
	"github.com/neotheprogramist/ai-playground/internal/version"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
	"github.com/neotheprogramist/ai-playground/pkg/schema"
)

// RedisAddrEnv overrides redis.addr.
const RedisAddrEnv = "REDIS_ADDR"

type Config struct {
	Version     string            `yaml:"version" json:"version" jsonschema:"title=Version,description=Binary version the file was written for. main skips the check"`
	Log         LogConfig         `yaml:"log" json:"log"`
	Provider    ProviderConfig    `yaml:"provider" json:"provider"`
	Environment EnvironmentConfig `yaml:"environment" json:"environment"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Redis       RedisConfig       `yaml:"redis" json:"redis"`
	Recorder    RecorderConfig    `yaml:"recorder" json:"recorder"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"oneof=debug info warn error"`
}

type ProviderConfig struct {
	Type    string `yaml:"type" json:"type" jsonschema:"title=Provider,enum=alphavantage,enum=polygon,enum=binance,default=alphavantage" validate:"oneof=alphavantage polygon binance"`
	APIKey  string `yaml:"api_key" json:"api_key,omitempty" jsonschema:"title=API Key,description=Falls back to the provider's environment variable"`
	BaseURL string `yaml:"base_url" json:"base_url,omitempty" jsonschema:"title=Base URL,description=Overrides the provider endpoint"`
}

type EnvironmentConfig struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" jsonschema:"title=Initial Balance,default=10000"`
	PctOfBalance   float64 `yaml:"pct_of_balance" json:"pct_of_balance" jsonschema:"title=Buy Fraction,description=Fraction of the balance committed per buy,exclusiveMinimum=0,maximum=1,default=0.1" validate:"gt=0,lte=1"`
	ResetCapital   bool    `yaml:"reset_capital" json:"reset_capital" jsonschema:"title=Reset Capital,description=Reset also restores the initial balance and clears the position"`
}

type ServerConfig struct {
	Addr       string        `yaml:"addr" json:"addr" jsonschema:"title=Listen Address,default=:8080" validate:"required"`
	SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl" jsonschema:"title=Session TTL" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" jsonschema:"title=Use Redis,description=Store sessions in Redis instead of memory"`
	Addr     string `yaml:"addr" json:"addr" jsonschema:"title=Redis Address" validate:"required_if=Enabled true"`
	Password string `yaml:"password" json:"password,omitempty"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix" jsonschema:"default=tradeenv"`
}

type RecorderConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir,omitempty" jsonschema:"title=Output Directory,description=Directory for step history parquet files. Empty disables recording"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Version: version.GetVersion(),
		Log:     LogConfig{Level: "info"},
		Provider: ProviderConfig{
			Type:    string(provider.ProviderAlphaVantage),
			APIKey:  "",
			BaseURL: "",
		},
		Environment: EnvironmentConfig{
			InitialBalance: environment.DefaultInitialBalance,
			PctOfBalance:   environment.DefaultPctOfBalance,
			ResetCapital:   false,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: session.DefaultTTL,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			Prefix:   session.DefaultPrefix,
		},
		Recorder: RecorderConfig{OutputDir: ""},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads the defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field constraints and version compatibility.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return version.CheckCompatibility(version.GetVersion(), c.Version)
}

func (c *Config) applyEnv() {
	if c.Provider.APIKey == "" {
		if info, err := marketdata.GetProviderInfo(c.Provider.Type); err == nil && info.APIKeyEnv != "" {
			c.Provider.APIKey = os.Getenv(info.APIKeyEnv)
		}
	}

	if addr := os.Getenv(RedisAddrEnv); addr != "" {
		c.Redis.Addr = addr
	}
}

// EnvironmentConfig returns the environment template; StartDate is set per episode.
func (c *Config) EnvironmentConfig(startDate string) environment.Config {
	return environment.Config{
		InitialBalance: c.Environment.InitialBalance,
		PctOfBalance:   c.Environment.PctOfBalance,
		StartDate:      startDate,
		ResetCapital:   c.Environment.ResetCapital,
	}
}

// SessionRedisConfig returns the Redis store settings.
func (c *Config) SessionRedisConfig() session.RedisConfig {
	return session.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.Prefix,
		TTL:      c.Server.SessionTTL,
	}
}

// JSONSchema returns the JSON schema of the configuration file.
func JSONSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return schema.ToJSONSchema(Config{})
}
