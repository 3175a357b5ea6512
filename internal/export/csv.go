// Package export writes the reconciled dataset to CSV files for downstream
// spreadsheet and BI use.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/metrics"
	"vivaa/goldbook/internal/models"
)

// Global CSV delimiter, configurable for locales whose spreadsheet tools
// expect semicolons.
var Delimiter rune = ','

// SetDelimiter sets the delimiter for CSV output.
func SetDelimiter(delim rune) {
	Delimiter = delim
	gocsv.TagSeparator = fmt.Sprintf("%c", delim)
}

// transactionRow is the flat CSV shape of one canonical transaction. Null
// amounts serialize as empty cells, never as zero.
type transactionRow struct {
	ID                   string `csv:"TransactionID"`
	Date                 string `csv:"Date"`
	ClientID             string `csv:"ClientID"`
	TransactionType      string `csv:"Type"`
	ItemCategory         string `csv:"ItemCategory"`
	ItemPurity           string `csv:"ItemPurity"`
	GrossWeight          string `csv:"GrossWeight"`
	NetWeight            string `csv:"NetWeight"`
	CostAmount           string `csv:"CostAmount"`
	RevenueAmount        string `csv:"RevenueAmount"`
	FixedCostCategory    string `csv:"FixedCostCategory"`
	FixedCostSubcategory string `csv:"FixedCostSubcategory"`
	Origin               string `csv:"Origin"`
	SourceFile           string `csv:"SourceFile"`
}

// WriteTransactionsToCSV writes the reconciled transaction set to a CSV file,
// creating parent directories as needed.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string, logger logging.Logger) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	logger.Info("Writing transactions to CSV file",
		logging.F("file", csvFile),
		logging.F("count", len(transactions)))

	rows := make([]transactionRow, 0, len(transactions))
	for i := range transactions {
		rows = append(rows, toRow(&transactions[i]))
	}

	if err := writeCSV(rows, csvFile); err != nil {
		logger.WithError(err).Error("Failed to write transactions CSV")
		return err
	}

	logger.Info("Successfully wrote transactions to CSV file",
		logging.F("file", csvFile),
		logging.F("count", len(transactions)))
	return nil
}

func toRow(tx *models.Transaction) transactionRow {
	return transactionRow{
		ID:                   tx.ID,
		Date:                 tx.Date.Format("2006-01-02"),
		ClientID:             tx.ClientID,
		TransactionType:      tx.TransactionType,
		ItemCategory:         tx.ItemCategory,
		ItemPurity:           tx.ItemPurity,
		GrossWeight:          formatWeight(tx.GrossWeight),
		NetWeight:            formatWeight(tx.NetWeight),
		CostAmount:           formatAmount(tx.CostAmount),
		RevenueAmount:        formatAmount(tx.RevenueAmount),
		FixedCostCategory:    tx.FixedCostCategory,
		FixedCostSubcategory: tx.FixedCostSubcategory,
		Origin:               tx.Origin,
		SourceFile:           tx.SourceFile,
	}
}

// monthlyTotalRow is the CSV shape of one month's aggregation.
type monthlyTotalRow struct {
	Month   string `csv:"Month"`
	Cost    string `csv:"Cost"`
	Revenue string `csv:"Revenue"`
}

// WriteMonthlyTotalsToCSV writes the per-month cost/revenue aggregation.
func WriteMonthlyTotalsToCSV(totals []metrics.MonthlyTotal, csvFile string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	rows := make([]monthlyTotalRow, 0, len(totals))
	for _, mt := range totals {
		rows = append(rows, monthlyTotalRow{
			Month:   mt.Month,
			Cost:    mt.Cost.StringFixed(2),
			Revenue: mt.Revenue.StringFixed(2),
		})
	}

	if err := writeCSV(rows, csvFile); err != nil {
		logger.WithError(err).Error("Failed to write monthly totals CSV")
		return err
	}

	logger.Info("Successfully wrote monthly totals to CSV file",
		logging.F("file", csvFile),
		logging.F("count", len(totals)))
	return nil
}

func writeCSV[T any](rows []T, csvFile string) error {
	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile) // #nosec G304 -- path comes from operator config
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = Delimiter

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// formatAmount renders a monetary amount with two decimal places, or an
// empty cell when the amount is absent.
func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

// formatWeight renders a weight in grams with three decimal places, or an
// empty cell when the weight is absent.
func formatWeight(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(3)
}
