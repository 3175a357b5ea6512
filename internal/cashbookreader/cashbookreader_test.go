package cashbookreader

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vivaa/goldbook/internal/pipelineerror"
)

// testWorkbook builds a cashbook-shaped workbook: a decorative title row,
// then the header, then data rows with a blank row in the middle.
func testWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()

	_, err := f.NewSheet("MAIN CASH BOOK")
	require.NoError(t, err)

	rows := [][]any{
		{"MAIN CASH BOOK 2024"},
		{"Date", "Details", "Category", "Debit", "Credit", "Balance"},
		{45296, "January rent", "Rent", 1200, "", 8800},
		{},
		{45311, "Counter sale", "Sales", "", 640, 9440},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("MAIN CASH BOOK", cell, &row))
	}
	return f
}

func TestReaderYieldsDataRows(t *testing.T) {
	f := testWorkbook(t)
	defer func() { _ = f.Close() }()

	r, err := New(f, "book.xlsx", "MAIN CASH BOOK", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "cashbook:MAIN CASH BOOK", r.Origin())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "cashbook:MAIN CASH BOOK", first.Origin)
	assert.Equal(t, "book.xlsx", first.SourceFile)
	assert.Equal(t, "MAIN CASH BOOK!1", first.Key)
	assert.Equal(t, "45296", first.String("Date"))
	assert.Equal(t, "1200", first.String("Debit"))
	assert.Equal(t, "Rent", first.String("Category"))

	// The blank row between the two data rows is skipped.
	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "640", second.String("Credit"))
	assert.Equal(t, "MAIN CASH BOOK!3", second.Key)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderMissingSheet(t *testing.T) {
	f := testWorkbook(t)
	defer func() { _ = f.Close() }()

	_, err := New(f, "book.xlsx", "QTR CASH", 1, nil)
	require.Error(t, err)

	var missing *pipelineerror.SchemaMissingError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "QTR CASH", missing.Schema)
}

func TestReaderHeaderOffsetBeyondRows(t *testing.T) {
	f := testWorkbook(t)
	defer func() { _ = f.Close() }()

	_, err := New(f, "book.xlsx", "MAIN CASH BOOK", 20, nil)
	require.Error(t, err)

	var missing *pipelineerror.SchemaMissingError
	assert.True(t, errors.As(err, &missing))
}

func TestReaderCloseEndsSequence(t *testing.T) {
	f := testWorkbook(t)
	defer func() { _ = f.Close() }()

	r, err := New(f, "book.xlsx", "MAIN CASH BOOK", 1, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
