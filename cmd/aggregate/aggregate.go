// Package aggregate implements the aggregate command: run the full pipeline
// and export the reconciled transaction set.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"vivaa/goldbook/cmd/root"
	"vivaa/goldbook/internal/export"
	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/pipeline"

	"github.com/spf13/cobra"
)

// Cmd is the aggregate command
var Cmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Read all configured sources and export the reconciled dataset.",
	Long: `Aggregate reads the legacy database snapshot and the encrypted cashbook
workbooks, maps every row to the canonical transaction shape, reconciles
duplicates and writes the result as CSV. Sources that cannot be read are
skipped and reported; the run keeps going with the rest.`,
	RunE: runAggregate,
}

func runAggregate(cmd *cobra.Command, args []string) error {
	p, err := pipeline.New(root.Cfg, root.Log)
	if err != nil {
		return err
	}

	dataset, err := p.Run(context.Background())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			printReport(dataset.Report)
			return err
		}
		return err
	}

	output := root.SharedFlags.Output
	if output == "" {
		output = filepath.Join(root.Cfg.Export.Directory, "transactions.csv")
	}
	if err := export.WriteTransactionsToCSV(dataset.Transactions, output, root.Log); err != nil {
		return err
	}

	printReport(dataset.Report)
	root.Log.Info("Aggregation complete",
		logging.F("transactions", len(dataset.Transactions)),
		logging.F("output", output))
	return nil
}

func printReport(report *models.ReconciliationReport) {
	fmt.Printf("rows read:     %d\n", report.RowsRead)
	fmt.Printf("rows mapped:   %d\n", report.RowsMapped)
	fmt.Printf("rows merged:   %d\n", report.RowsMerged)
	fmt.Printf("rows rejected: %d\n", report.RowsRejected)
	fmt.Printf("conflicts:     %d\n", report.Conflicts)
	for _, f := range report.SourceFailures {
		fmt.Printf("source failed: %s: %s\n", f.Source, f.Err)
	}
	for _, r := range report.Rejections {
		fmt.Printf("  [%s] %s: %s\n", r.Reason, r.RowRef, r.Detail)
	}
}
