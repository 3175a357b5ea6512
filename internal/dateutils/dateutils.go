// Package dateutils provides the date parsing and calendar bucketing
// operations used throughout the pipeline.
package dateutils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Common date layouts found across the two source shapes.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutSlashed  = "02/01/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutT        = "2006-01-02T15:04:05"
)

// CommonFormats is the ordered list of layouts tried when parsing date text.
// Day-first layouts come before month-first ones; the sources are
// European-style books.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	DateLayoutT,
	DateLayoutEuropean,
	DateLayoutSlashed,
	"02-01-2006",
	"2-Jan-2006",
	"2006/01/02",
	"01/02/06",
}

// excelEpoch is the zero point of spreadsheet serial dates. Serial 1 is
// 1899-12-31, with the off-by-one of the fictitious 1900-02-29 baked into
// the epoch itself.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses date text by trying each common layout in order.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// FromExcelSerial converts a spreadsheet serial date number to a calendar
// date. Fractional parts carry the time of day and are truncated to the day.
func FromExcelSerial(serial float64) time.Time {
	days := int(math.Floor(serial))
	return excelEpoch.AddDate(0, 0, days)
}

// MonthKey buckets a date into its calendar month, e.g. "2024-01".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ISOWeekKey buckets a date into its ISO week, e.g. "2024-W03". The ISO
// year can differ from the calendar year around January 1st.
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// StartOfMonth returns the first day of the month for a given date.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of the month for a given date.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}
