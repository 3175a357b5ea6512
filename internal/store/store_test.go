package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAndLookup(t *testing.T) {
	path := writeFile(t, "categories.yaml", `categories:
  RENT:
    category: Premises
    subcategory: Rent
    cost_type: FIXED
  GOLD PURCHASE:
    category: Inventory
    subcategory: Gold
    cost_type: VARIABLE
  MISC:
    category: Other
    cost_type: FIXED
`)

	s, err := Load(path, "", nil)
	require.NoError(t, err)

	info, ok := s.Lookup("RENT")
	require.True(t, ok)
	assert.Equal(t, "Premises", info.Category)
	assert.Equal(t, "Rent", info.Subcategory)
	assert.Equal(t, models.CostTypeFixed, info.CostType)

	// Lookup is case and whitespace insensitive.
	info, ok = s.Lookup("  rent ")
	require.True(t, ok)
	assert.Equal(t, "Premises", info.Category)

	info, ok = s.Lookup("gold purchase")
	require.True(t, ok)
	assert.Equal(t, models.CostTypeVariable, info.CostType)

	// A mapping without a subcategory gets the explicit bucket.
	info, ok = s.Lookup("MISC")
	require.True(t, ok)
	assert.Equal(t, models.Uncategorized, info.Subcategory)
}

func TestLookupUnknownCategory(t *testing.T) {
	s, err := Load("", "", nil)
	require.NoError(t, err)

	info, ok := s.Lookup("NEVER SEEN")
	assert.False(t, ok)
	assert.Equal(t, models.Uncategorized, info.Category)
	assert.Equal(t, models.Uncategorized, info.Subcategory)
}

func TestLoadMissingFilesYieldEmptyStore(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewMockLogger()

	s, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "also-nope.yaml"), logger)
	require.NoError(t, err)

	_, ok := s.Lookup("RENT")
	assert.False(t, ok)
	assert.Empty(t, s.FixedCosts())

	assert.True(t, logger.HasMessage("warn", "Categories file not found, all rows will be uncategorized"))
	assert.True(t, logger.HasMessage("warn", "Fixed costs file not found"))
}

func TestLoadFixedCosts(t *testing.T) {
	path := writeFile(t, "fixed_costs.yaml", `fixed_costs:
  - category: Premises
    subcategory: Trade licence
    annual: "12500.00"
  - category: Insurance
    subcategory: Stock cover
    annual: "8400.00"
`)

	s, err := Load("", path, nil)
	require.NoError(t, err)

	costs := s.FixedCosts()
	require.Len(t, costs, 2)
	assert.Equal(t, "Premises", costs[0].Category)
	assert.Equal(t, "12500", costs[0].Annual.String())
	assert.Equal(t, "8400", costs[1].Annual.String())
}

func TestLoadFixedCostsMalformedAmount(t *testing.T) {
	path := writeFile(t, "fixed_costs.yaml", `fixed_costs:
  - category: Premises
    subcategory: Rent
    annual: "not a number"
`)

	_, err := Load("", path, nil)
	assert.Error(t, err)
}

func TestLoadMalformedCategoriesFile(t *testing.T) {
	path := writeFile(t, "categories.yaml", "categories: [not a map\n")

	_, err := Load(path, "", nil)
	assert.Error(t, err)
}
