// Package root contains the root command for the application
package root

import (
	"fmt"
	"os"
	"time"

	"vivaa/goldbook/internal/config"
	"vivaa/goldbook/internal/export"
	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Output string
	Client string
	From   string
	To     string
}

var (
	// Cfg is the loaded application configuration, populated before any
	// command runs.
	Cfg *config.Config

	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "goldbook",
		Short: "Aggregate jewellery sales and cost records into one reconciled dataset.",
		Long: `goldbook reads the legacy point-of-sale database and the encrypted
cashbook workbooks, reconciles them into one canonical transaction set,
and computes purity-adjusted financial views over it.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to goldbook!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

			if delim := os.Getenv("CSV_DELIMITER"); delim != "" {
				Log.Debug("Setting CSV delimiter from environment",
					logging.F("delimiter", delim))
				export.SetDelimiter([]rune(delim)[0])
			}
			return nil
		},
	}

	// SharedFlags holds common flag values accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Client, "client", "", "Restrict to one client id")
	Cmd.PersistentFlags().StringVar(&SharedFlags.From, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.To, "to", "", "End date (YYYY-MM-DD, inclusive)")
}

// Filter builds the metric filter from the shared flags.
func Filter() (metrics.Filter, error) {
	f := metrics.Filter{ClientID: SharedFlags.Client}
	if SharedFlags.From != "" {
		t, err := time.Parse("2006-01-02", SharedFlags.From)
		if err != nil {
			return f, fmt.Errorf("invalid --from date %q: %w", SharedFlags.From, err)
		}
		f.From = t
	}
	if SharedFlags.To != "" {
		t, err := time.Parse("2006-01-02", SharedFlags.To)
		if err != nil {
			return f, fmt.Errorf("invalid --to date %q: %w", SharedFlags.To, err)
		}
		f.To = t
	}
	return f, nil
}

// MarketRate returns the configured market rate as a decimal.
func MarketRate() decimal.Decimal {
	return decimal.NewFromFloat(Cfg.Metrics.MarketRate)
}
