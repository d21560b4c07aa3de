package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	RentCast RentCastConfig `yaml:"rentcast" mapstructure:"rentcast"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// RentCastConfig holds RentCast API settings.
type RentCastConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocodeConfig selects and tunes the address geocoder.
type GeocodeConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	GoogleAPIKey string  `yaml:"google_api_key" mapstructure:"google_api_key"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig holds defaults for the fetch command.
type FetchConfig struct {
	Status        string  `yaml:"status" mapstructure:"status"`
	DefaultRadius float64 `yaml:"default_radius" mapstructure:"default_radius"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the unprefixed variable names used by older
// .env files.
var legacyEnv = map[string]string{
	"rentcast.api_key":   "RENTCAST_API_KEY",
	"rentcast.base_url":  "RENTCAST_API_URL",
	"store.database_url": "DATABASE_URL",
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RENTBEACON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "RENTBEACON_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("rentcast.api_key", "")
	v.SetDefault("rentcast.base_url", "https://api.rentcast.io/v1/listings/rental/long-term")
	v.SetDefault("rentcast.timeout_secs", 30)
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.user_agent", "RentBeacon")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("fetch.status", "Active")
	v.SetDefault("fetch.default_radius", 5.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// Validate checks that the settings a component needs are present.
// Components: "store", "rentcast", "geocode".
func (c *Config) Validate(component string) error {
	switch component {
	case "store":
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url is required for postgres (DATABASE_URL)")
			}
		case "sqlite":
		default:
			return eris.Errorf("config: unsupported store driver: %s", c.Store.Driver)
		}
	case "rentcast":
		var missing []string
		if c.RentCast.APIKey == "" {
			missing = append(missing, "RENTCAST_API_KEY")
		}
		if c.RentCast.BaseURL == "" {
			missing = append(missing, "RENTCAST_API_URL")
		}
		if len(missing) > 0 {
			return eris.Errorf("config: %s not set", strings.Join(missing, " or "))
		}
	case "geocode":
		if c.Geocode.Provider == "google" && c.Geocode.GoogleAPIKey == "" {
			return eris.New("config: geocode.google_api_key is required for the google provider")
		}
	default:
		return eris.Errorf("config: unknown component %q", component)
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
