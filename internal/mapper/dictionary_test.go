package mapper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vivaa/goldbook/internal/models"
)

func TestForOrigin(t *testing.T) {
	dict := DefaultDictionary()

	legacy, ok := dict.ForOrigin(models.OriginLegacyDB)
	require.True(t, ok)
	assert.Equal(t, "DocNumber", legacy.KeyField)

	// Any cashbook sheet falls back to the wildcard entry.
	sheet, ok := dict.ForOrigin(models.CashbookOrigin("QTR CASH"))
	require.True(t, ok)
	assert.Equal(t, FieldCategoryText, sheet.Fields["Category"].Canonical)

	_, ok = dict.ForOrigin("unknown_source")
	assert.False(t, ok)
}

func TestForOriginExactBeatsWildcard(t *testing.T) {
	dict := Dictionary{
		CashbookWildcard: {Fields: map[string]FieldRule{
			"Debit": {Canonical: FieldCostAmount},
		}},
		models.CashbookOrigin("MAIN CASH BOOK"): {Fields: map[string]FieldRule{
			"Outflow": {Canonical: FieldCostAmount},
		}},
	}

	od, ok := dict.ForOrigin(models.CashbookOrigin("MAIN CASH BOOK"))
	require.True(t, ok)
	_, hasExact := od.Fields["Outflow"]
	assert.True(t, hasExact)
}

func TestLoadDictionaryFallsBackToDefault(t *testing.T) {
	dict, err := LoadDictionary("")
	require.NoError(t, err)
	_, ok := dict[models.OriginLegacyDB]
	assert.True(t, ok)

	dict, err = LoadDictionary(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	_, ok = dict[CashbookWildcard]
	assert.True(t, ok)
}

func TestLoadDictionaryFromFile(t *testing.T) {
	content := `origins:
  legacy_db:
    key_field: DocNo
    fields:
      DocNo:
        canonical: doc_number
      SaleDate:
        canonical: date
      Fineness:
        canonical: item_purity
        convert: fineness
`
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	dict, err := LoadDictionary(path)
	require.NoError(t, err)

	od, ok := dict.ForOrigin(models.OriginLegacyDB)
	require.True(t, ok)
	assert.Equal(t, "DocNo", od.KeyField)
	assert.Equal(t, ConvertFineness, od.Fields["Fineness"].Convert)
}

func TestLoadDictionaryRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte("origins: {}\n"), 0600))

	_, err := LoadDictionary(path)
	assert.Error(t, err)
}
