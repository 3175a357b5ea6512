// Package cashbookreader reads data rows from a decrypted cashbook sheet
// and yields them as source-native raw rows.
package cashbookreader

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/pipelineerror"
)

// Reader yields one RawRow per data row of a single sheet. It is a finite,
// forward-only sequence: once consumed it cannot be restarted.
type Reader struct {
	origin     string
	sourceFile string
	sheet      string
	header     []string
	rows       [][]string
	next       int
	closed     bool
	logger     logging.Logger
}

// New snapshots the sheet's rows from a decrypted workbook. headerOffset is
// the zero-based index of the header row; everything above it is decoration
// and skipped. A missing sheet is a SchemaMissingError.
func New(f *excelize.File, sourceFile, sheet string, headerOffset int, logger logging.Logger) (*Reader, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &pipelineerror.SchemaMissingError{Source: sourceFile, Schema: sheet}
	}
	if len(rows) <= headerOffset {
		return nil, &pipelineerror.SchemaMissingError{Source: sourceFile, Schema: sheet}
	}

	header := make([]string, len(rows[headerOffset]))
	for i, h := range rows[headerOffset] {
		header[i] = strings.TrimSpace(h)
	}

	logger.Info("Opened cashbook sheet",
		logging.F("file", sourceFile),
		logging.F("sheet", sheet),
		logging.F("rows", len(rows)-headerOffset-1))

	return &Reader{
		origin:     models.CashbookOrigin(sheet),
		sourceFile: sourceFile,
		sheet:      sheet,
		header:     header,
		rows:       rows[headerOffset+1:],
		logger:     logger,
	}, nil
}

// Origin returns the origin tag of the rows this reader yields.
func (r *Reader) Origin() string {
	return r.origin
}

// Next yields the next data row, skipping blank rows. It returns io.EOF
// once the sheet is exhausted.
func (r *Reader) Next() (*models.RawRow, error) {
	if r.closed {
		return nil, io.EOF
	}
	for r.next < len(r.rows) {
		idx := r.next
		r.next++

		cells := r.rows[idx]
		if isBlank(cells) {
			continue
		}

		fields := make(map[string]any, len(r.header))
		for i, name := range r.header {
			if name == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			fields[name] = value
		}

		return &models.RawRow{
			Origin:     r.origin,
			SourceFile: r.sourceFile,
			Key:        fmt.Sprintf("%s!%d", r.sheet, idx+1),
			Fields:     fields,
		}, nil
	}
	return nil, io.EOF
}

// Close marks the reader consumed. The workbook handle is owned and closed
// by the pipeline, not by individual sheet readers.
func (r *Reader) Close() error {
	r.closed = true
	r.rows = nil
	return nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
