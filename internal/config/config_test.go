package config

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test.
// Equivalent to t.Chdir, which requires a newer Go toolchain.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Metrics.SmoothingWindow = 7
	cfg.Metrics.SmoothingOrder = 2
	cfg.Metrics.HistogramBucketWidth = 10.0
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "shouting" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"negative market rate", func(c *Config) { c.Metrics.MarketRate = -1 }, "market_rate"},
		{"even smoothing window", func(c *Config) { c.Metrics.SmoothingWindow = 6 }, "smoothing_window"},
		{"window too small", func(c *Config) { c.Metrics.SmoothingWindow = 1 }, "smoothing_window"},
		{"order too high", func(c *Config) { c.Metrics.SmoothingOrder = 7 }, "smoothing_order"},
		{"order zero", func(c *Config) { c.Metrics.SmoothingOrder = 0 }, "smoothing_order"},
		{"zero bucket width", func(c *Config) { c.Metrics.HistogramBucketWidth = 0 }, "bucket_width"},
		{
			"cashbook without path",
			func(c *Config) {
				c.Sources.Cashbooks = []CashbookSource{{Sheets: []SheetSpec{{Name: "MAIN CASH BOOK"}}}}
			},
			"path",
		},
		{
			"cashbook without sheets",
			func(c *Config) {
				c.Sources.Cashbooks = []CashbookSource{{Path: "book.xlsx"}}
			},
			"sheet",
		},
		{
			"legacy without tables",
			func(c *Config) {
				c.Sources.Legacy = []LegacySource{{Path: "snapshot.db"}}
			},
			"table",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestValidateAcceptsFullSourceConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Legacy = []LegacySource{{
		Path:      "snapshot.db",
		Tables:    []string{"BinCard"},
		KeyColumn: "DocNumber",
	}}
	cfg.Sources.Cashbooks = []CashbookSource{{
		Path:          "book.xlsx",
		PassphraseEnv: "CASHBOOK_PASSPHRASE",
		Sheets:        []SheetSpec{{Name: "MAIN CASH BOOK", HeaderOffset: 1}},
	}}

	assert.NoError(t, Validate(cfg))
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger := ConfigureLoggingFromConfig(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestConfigureLoggingFallsBackOnBadLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "nonsense"

	logger := ConfigureLoggingFromConfig(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestInitializeConfigDefaults(t *testing.T) {
	// Run from an empty directory so no config file is picked up.
	t.Chdir(t.TempDir())

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Metrics.SmoothingWindow)
	assert.Equal(t, 2, cfg.Metrics.SmoothingOrder)
	assert.Equal(t, 10.0, cfg.Metrics.HistogramBucketWidth)
	assert.Equal(t, "out", cfg.Export.Directory)
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOLDBOOK_LOG_LEVEL", "debug")

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
