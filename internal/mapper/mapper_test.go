package mapper

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vivaa/goldbook/internal/models"
	"vivaa/goldbook/internal/store"
)

// sliceSource is a RowSource over a fixed set of rows.
type sliceSource struct {
	rows []*models.RawRow
	next int
}

func (s *sliceSource) Next() (*models.RawRow, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func (s *sliceSource) Close() error { return nil }

func testStore(t *testing.T) *store.CategoryStore {
	t.Helper()
	content := `categories:
  RENT:
    category: Premises
    subcategory: Rent
    cost_type: FIXED
  GOLD PURCHASE:
    category: Inventory
    subcategory: Gold
    cost_type: VARIABLE
`
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s, err := store.Load(path, "", nil)
	require.NoError(t, err)
	return s
}

func legacyRow(fields map[string]any) *models.RawRow {
	return &models.RawRow{
		Origin:     models.OriginLegacyDB,
		SourceFile: "snapshot.db",
		Key:        "BinCard#1",
		Fields:     fields,
	}
}

func TestMapLegacySaleRow(t *testing.T) {
	m := New(nil, testStore(t), nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber":   "S1001",
		"DocDate":     "2024-01-05",
		"TaCode":      "C042",
		"ItemCode":    "22BRA001",
		"Purity":      0.916,
		"GrossWt":     12.5,
		"PureWt":      11.45,
		"MakingValue": 850.0,
	}))

	require.NotNil(t, tx)
	assert.Empty(t, rejections)

	assert.Equal(t, models.DeriveID(models.OriginLegacyDB, "S1001"), tx.ID)
	assert.True(t, tx.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "C042", tx.ClientID)
	assert.Equal(t, "Bracelets", tx.ItemCategory)
	assert.Equal(t, models.Purity22K, tx.ItemPurity)
	assert.Equal(t, models.TypeSale, tx.TransactionType)
	assert.Equal(t, "12.5", tx.GrossWeight.String())
	assert.Equal(t, "11.45", tx.NetWeight.String())
	assert.Equal(t, "850", tx.RevenueAmount.String())
	assert.Nil(t, tx.CostAmount)
	assert.Equal(t, models.OriginLegacyDB, tx.Origin)
}

func TestMapIDIsStableAcrossRuns(t *testing.T) {
	m := New(nil, nil, nil)
	fields := map[string]any{
		"DocNumber":   "S1001",
		"DocDate":     "2024-01-05",
		"MakingValue": 850.0,
	}

	tx1, _ := m.Map(legacyRow(fields))
	tx2, _ := m.Map(legacyRow(fields))
	require.NotNil(t, tx1)
	require.NotNil(t, tx2)
	assert.Equal(t, tx1.ID, tx2.ID)
}

func TestMapReturnIsNegated(t *testing.T) {
	m := New(nil, nil, nil)

	tx, _ := m.Map(legacyRow(map[string]any{
		"DocNumber":   "R2001",
		"DocDate":     "2024-01-10",
		"GrossWt":     5.0,
		"PureWt":      4.5,
		"MakingValue": 300.0,
	}))

	require.NotNil(t, tx)
	assert.Equal(t, models.TypeReturn, tx.TransactionType)
	assert.Equal(t, "-5", tx.GrossWeight.String())
	assert.Equal(t, "-4.5", tx.NetWeight.String())
	assert.Equal(t, "-300", tx.RevenueAmount.String())
}

func TestMapTransactionTypes(t *testing.T) {
	m := New(nil, nil, nil)

	tests := []struct {
		docNumber string
		expected  string
	}{
		{"S1001", models.TypeSale},
		{"P3001", models.TypePurchase},
		{"R2001", models.TypeReturn},
		{"D4001", models.TypeDirectSale},
		{"X9001", ""},
	}

	for _, tc := range tests {
		t.Run(tc.docNumber, func(t *testing.T) {
			tx, _ := m.Map(legacyRow(map[string]any{
				"DocNumber":   tc.docNumber,
				"DocDate":     "2024-01-05",
				"MakingValue": 100.0,
			}))
			require.NotNil(t, tx)
			assert.Equal(t, tc.expected, tx.TransactionType)
		})
	}
}

func TestMapRejectsMissingDate(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber":   "S1001",
		"MakingValue": 850.0,
	}))

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonMissingField, rejections[0].Reason)
	assert.Contains(t, rejections[0].Detail, "missing required field date")
}

func TestMapRejectsMissingAmounts(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber": "S1001",
		"DocDate":   "2024-01-05",
		"GrossWt":   12.5,
	}))

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonMissingField, rejections[0].Reason)
	assert.Contains(t, rejections[0].Detail, "missing required field cost_amount/revenue_amount")
}

func TestMapZeroAmountsAreAbsent(t *testing.T) {
	m := New(nil, nil, nil)

	// Zero on both sides means no entry at all, so the row is rejected
	// rather than kept with zero amounts.
	tx, rejections := m.Map(&models.RawRow{
		Origin:     models.CashbookOrigin("MAIN CASH BOOK"),
		SourceFile: "book.xlsx",
		Key:        "MAIN CASH BOOK!7",
		Fields: map[string]any{
			"Date":   "45296",
			"Debit":  "0.00",
			"Credit": "",
		},
	})

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonMissingField, rejections[0].Reason)
}

func TestMapRejectsMalformedNumber(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber":   "S1001",
		"DocDate":     "2024-01-05",
		"MakingValue": "12..50",
	}))

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonMalformedNumber, rejections[0].Reason)
}

func TestMapRejectsNetExceedingGross(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber":   "S1001",
		"DocDate":     "2024-01-05",
		"GrossWt":     10.0,
		"PureWt":      11.0,
		"MakingValue": 850.0,
	}))

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonInvariant, rejections[0].Reason)
}

func TestMapKeepsRowWithUnknownPurity(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(legacyRow(map[string]any{
		"DocNumber":   "S1001",
		"DocDate":     "2024-01-05",
		"Purity":      0.5,
		"MakingValue": 850.0,
	}))

	require.NotNil(t, tx, "unknown purity must not drop the row")
	assert.Empty(t, tx.ItemPurity)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonUnknownPurity, rejections[0].Reason)
}

func TestMapCashbookRowWithClassification(t *testing.T) {
	m := New(nil, testStore(t), nil)

	tx, rejections := m.Map(&models.RawRow{
		Origin:     models.CashbookOrigin("MAIN CASH BOOK"),
		SourceFile: "book.xlsx",
		Key:        "MAIN CASH BOOK!5",
		Fields: map[string]any{
			"Date":     "45296",
			"Category": "Rent",
			"Debit":    "1,200.00",
		},
	})

	require.NotNil(t, tx)
	assert.Empty(t, rejections)
	assert.True(t, tx.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1200", tx.CostAmount.String())
	assert.Equal(t, "Premises", tx.FixedCostCategory)
	assert.Equal(t, "Rent", tx.FixedCostSubcategory)
	assert.Equal(t, models.DeriveID(tx.Origin, "MAIN CASH BOOK!5"), tx.ID)
}

func TestMapVariableCostIsNotFixedClassified(t *testing.T) {
	m := New(nil, testStore(t), nil)

	tx, _ := m.Map(&models.RawRow{
		Origin: models.CashbookOrigin("MAIN CASH BOOK"),
		Key:    "MAIN CASH BOOK!6",
		Fields: map[string]any{
			"Date":     "45296",
			"Category": "Gold Purchase",
			"Debit":    "5000",
		},
	})

	require.NotNil(t, tx)
	assert.False(t, tx.IsFixedCost())
}

func TestMapRejectsUnmappedOrigin(t *testing.T) {
	m := New(nil, nil, nil)

	tx, rejections := m.Map(&models.RawRow{
		Origin: "mystery_feed",
		Key:    "x",
		Fields: map[string]any{"Date": "2024-01-05"},
	})

	assert.Nil(t, tx)
	require.Len(t, rejections, 1)
	assert.Equal(t, models.ReasonUnmappedOrigin, rejections[0].Reason)
}

func TestMapAll(t *testing.T) {
	m := New(nil, nil, nil)

	src := &sliceSource{rows: []*models.RawRow{
		legacyRow(map[string]any{
			"DocNumber":   "S1001",
			"DocDate":     "2024-01-05",
			"MakingValue": 850.0,
		}),
		legacyRow(map[string]any{
			"DocNumber": "S1002",
			// No date: mapped to a rejection, the sequence keeps going.
			"MakingValue": 100.0,
		}),
		legacyRow(map[string]any{
			"DocNumber":   "S1003",
			"DocDate":     "2024-01-06",
			"MakingValue": 200.0,
		}),
	}}

	res, err := m.MapAll(src)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowsRead)
	assert.Len(t, res.Transactions, 2)
	assert.Len(t, res.Rejections, 1)
}

func TestCategoryFromItemCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"22BRA001", "Bracelets"},
		{"21CHA104", "Chains"},
		{"18BAN055", "Bangles"},
		{"22RIN007", "Rings"},
		{"22PEN012", "Pendants"},
		{"22xyz001", "XYZ"},
		{"NOPREFIX", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.expected, categoryFromItemCode(tc.code))
		})
	}
}
