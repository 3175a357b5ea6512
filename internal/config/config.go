// Package config provides Viper-based hierarchical configuration management.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LegacySource identifies one legacy point-of-sale database snapshot.
type LegacySource struct {
	Path string `mapstructure:"path" yaml:"path"`
	// Tables lists the transaction-bearing tables to enumerate.
	Tables []string `mapstructure:"tables" yaml:"tables"`
	// KeyColumn names the column holding the row's natural key
	// (document number). Empty falls back to table plus row ordinal.
	KeyColumn string `mapstructure:"key_column" yaml:"key_column"`
}

// SheetSpec identifies one sheet inside a cashbook workbook.
type SheetSpec struct {
	Name string `mapstructure:"name" yaml:"name"`
	// HeaderOffset is the zero-based index of the header row; data rows
	// follow it. Cashbook sheets carry decorative rows above the header.
	HeaderOffset int `mapstructure:"header_offset" yaml:"header_offset"`
}

// CashbookSource identifies one encrypted workbook and the sheets to read.
type CashbookSource struct {
	Path string `mapstructure:"path" yaml:"path"`
	// PassphraseEnv names the environment variable holding the workbook
	// passphrase. Passphrases never live in the config file.
	PassphraseEnv string      `mapstructure:"passphrase_env" yaml:"passphrase_env"`
	Sheets        []SheetSpec `mapstructure:"sheets" yaml:"sheets"`
}

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Metrics struct {
		MarketRate           float64 `mapstructure:"market_rate" yaml:"market_rate"`
		SmoothingWindow      int     `mapstructure:"smoothing_window" yaml:"smoothing_window"`
		SmoothingOrder       int     `mapstructure:"smoothing_order" yaml:"smoothing_order"`
		HistogramBucketWidth float64 `mapstructure:"histogram_bucket_width" yaml:"histogram_bucket_width"`
	} `mapstructure:"metrics" yaml:"metrics"`

	Sources struct {
		Legacy    []LegacySource   `mapstructure:"legacy" yaml:"legacy"`
		Cashbooks []CashbookSource `mapstructure:"cashbooks" yaml:"cashbooks"`
	} `mapstructure:"sources" yaml:"sources"`

	Dictionary struct {
		FieldsFile     string `mapstructure:"fields_file" yaml:"fields_file"`
		CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
		FixedCostsFile string `mapstructure:"fixed_costs_file" yaml:"fixed_costs_file"`
	} `mapstructure:"dictionary" yaml:"dictionary"`

	Export struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"export" yaml:"export"`
}

// InitializeConfig initializes Viper configuration with hierarchical
// loading: defaults, then an optional config file, then environment
// variables prefixed GOLDBOOK_.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.goldbook")
	v.AddConfigPath(".goldbook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GOLDBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars; a broken config
			// file should not hide the rest of the configuration.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.market_rate", 0.0)
	v.SetDefault("metrics.smoothing_window", 7)
	v.SetDefault("metrics.smoothing_order", 2)
	v.SetDefault("metrics.histogram_bucket_width", 10.0)

	v.SetDefault("dictionary.fields_file", "config/field_dictionary.yaml")
	v.SetDefault("dictionary.categories_file", "config/categories.yaml")
	v.SetDefault("dictionary.fixed_costs_file", "config/fixed_costs.yaml")

	v.SetDefault("export.directory", "out")
}

// Validate checks configuration value ranges.
func Validate(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Metrics.MarketRate < 0 {
		return fmt.Errorf("metrics.market_rate must not be negative, got: %f", config.Metrics.MarketRate)
	}
	w := config.Metrics.SmoothingWindow
	if w < 3 || w%2 == 0 {
		return fmt.Errorf("metrics.smoothing_window must be an odd integer >= 3, got: %d", w)
	}
	if o := config.Metrics.SmoothingOrder; o < 1 || o >= w {
		return fmt.Errorf("metrics.smoothing_order must be between 1 and smoothing_window-1, got: %d", o)
	}
	if config.Metrics.HistogramBucketWidth <= 0 {
		return fmt.Errorf("metrics.histogram_bucket_width must be positive, got: %f", config.Metrics.HistogramBucketWidth)
	}

	for i, cb := range config.Sources.Cashbooks {
		if cb.Path == "" {
			return fmt.Errorf("sources.cashbooks[%d].path must not be empty", i)
		}
		if len(cb.Sheets) == 0 {
			return fmt.Errorf("sources.cashbooks[%d] must list at least one sheet", i)
		}
	}
	for i, lg := range config.Sources.Legacy {
		if lg.Path == "" {
			return fmt.Errorf("sources.legacy[%d].path must not be empty", i)
		}
		if len(lg.Tables) == 0 {
			return fmt.Errorf("sources.legacy[%d] must list at least one table", i)
		}
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
