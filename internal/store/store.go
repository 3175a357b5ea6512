// Package store loads the static YAML dictionaries that classify cashbook
// rows: expense/income category mappings and the static fixed-cost list.
package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
)

// CategoryInfo is the classification attached to a cashbook category text.
type CategoryInfo struct {
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`
	CostType    string `yaml:"cost_type"`
}

// FixedCost is a recurring cost not tied to any transaction, carried in the
// static fixed-costs file as an annual amount.
type FixedCost struct {
	Category    string          `yaml:"category"`
	Subcategory string          `yaml:"subcategory"`
	Annual      decimal.Decimal `yaml:"-"`

	// AnnualRaw carries the YAML value; decimal has no native YAML
	// unmarshalling so the amount travels as a string.
	AnnualRaw string `yaml:"annual"`
}

// CategoryStore holds the loaded dictionaries. Lookups are case and
// whitespace insensitive because the cashbook category column is free text.
type CategoryStore struct {
	categories map[string]CategoryInfo
	fixedCosts []FixedCost
	logger     logging.Logger
}

type categoriesFile struct {
	Categories map[string]CategoryInfo `yaml:"categories"`
}

type fixedCostsFile struct {
	FixedCosts []FixedCost `yaml:"fixed_costs"`
}

// Load reads the categories file and, when a fixed-costs path is given, the
// static fixed-cost list. Missing files yield an empty store rather than an
// error: classification then falls back to "Uncategorized".
func Load(categoriesPath, fixedCostsPath string, logger logging.Logger) (*CategoryStore, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &CategoryStore{
		categories: make(map[string]CategoryInfo),
		logger:     logger,
	}

	if categoriesPath != "" {
		data, err := os.ReadFile(categoriesPath) // #nosec G304 -- path comes from operator config
		switch {
		case os.IsNotExist(err):
			logger.Warn("Categories file not found, all rows will be uncategorized",
				logging.F("file", categoriesPath))
		case err != nil:
			return nil, fmt.Errorf("error reading categories file: %w", err)
		default:
			var parsed categoriesFile
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return nil, fmt.Errorf("error parsing categories file %s: %w", categoriesPath, err)
			}
			for key, info := range parsed.Categories {
				s.categories[normalizeCategory(key)] = info
			}
			logger.Info("Loaded category dictionary",
				logging.F("file", categoriesPath),
				logging.F("count", len(s.categories)))
		}
	}

	if fixedCostsPath != "" {
		if err := s.loadFixedCosts(fixedCostsPath); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *CategoryStore) loadFixedCosts(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if os.IsNotExist(err) {
		s.logger.Warn("Fixed costs file not found", logging.F("file", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading fixed costs file: %w", err)
	}

	var parsed fixedCostsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("error parsing fixed costs file %s: %w", path, err)
	}

	for i := range parsed.FixedCosts {
		fc := &parsed.FixedCosts[i]
		amount, err := decimal.NewFromString(fc.AnnualRaw)
		if err != nil {
			return fmt.Errorf("fixed cost %s/%s has malformed amount %q: %w",
				fc.Category, fc.Subcategory, fc.AnnualRaw, err)
		}
		fc.Annual = amount
	}
	s.fixedCosts = parsed.FixedCosts

	s.logger.Info("Loaded static fixed costs",
		logging.F("file", path),
		logging.F("count", len(s.fixedCosts)))
	return nil
}

// Lookup classifies a cashbook category text. Unknown categories return an
// explicit Uncategorized classification with ok=false so callers can count
// them without dropping the row.
func (s *CategoryStore) Lookup(category string) (CategoryInfo, bool) {
	info, ok := s.categories[normalizeCategory(category)]
	if !ok {
		return CategoryInfo{
			Category:    models.Uncategorized,
			Subcategory: models.Uncategorized,
		}, false
	}
	if info.Subcategory == "" {
		info.Subcategory = models.Uncategorized
	}
	return info, true
}

// FixedCosts returns the static fixed-cost list.
func (s *CategoryStore) FixedCosts() []FixedCost {
	return s.fixedCosts
}

func normalizeCategory(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}
