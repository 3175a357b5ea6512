// Package mapper translates source-native raw rows into canonical
// transactions using per-origin field dictionaries.
package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vivaa/goldbook/internal/models"
)

// Canonical field names a dictionary can map raw columns onto.
const (
	FieldDate         = "date"
	FieldClientID     = "client_id"
	FieldItemCategory = "item_category"
	FieldItemPurity   = "item_purity"
	FieldGrossWeight  = "gross_weight"
	FieldNetWeight    = "net_weight"
	FieldCostAmount   = "cost_amount"
	FieldRevenue      = "revenue_amount"
	FieldDocNumber    = "doc_number"
	FieldCategoryText = "category_text"
)

// Named converters a dictionary can attach to a field rule.
const (
	ConvertExcelSerialDate = "excel_serial_date"
	ConvertFineness        = "fineness"
	ConvertItemCode        = "item_code"
)

// CashbookWildcard matches any cashbook sheet that has no exact dictionary
// entry of its own.
const CashbookWildcard = "cashbook:*"

// FieldRule maps one raw column to a canonical field, optionally through a
// named unit converter.
type FieldRule struct {
	Canonical string `yaml:"canonical"`
	Convert   string `yaml:"convert,omitempty"`
}

// OriginDict is the static field dictionary for one origin.
type OriginDict struct {
	// KeyField names the raw column carrying the row's natural key.
	// Empty keeps the reader-assigned key (sheet row reference).
	KeyField string               `yaml:"key_field,omitempty"`
	Fields   map[string]FieldRule `yaml:"fields"`
}

// Dictionary holds every origin's field dictionary.
type Dictionary map[string]OriginDict

type dictionaryFile struct {
	Origins Dictionary `yaml:"origins"`
}

// ForOrigin resolves the dictionary for an origin tag, falling back to the
// cashbook wildcard for sheet origins without an exact entry.
func (d Dictionary) ForOrigin(origin string) (OriginDict, bool) {
	if od, ok := d[origin]; ok {
		return od, true
	}
	if models.IsCashbookOrigin(origin) {
		od, ok := d[CashbookWildcard]
		return od, ok
	}
	return OriginDict{}, false
}

// DefaultDictionary covers the two shipped source shapes: the legacy
// point-of-sale snapshot (BinCard column names) and the cashbook sheets
// (Date/Details/Category/Debit/Credit layout).
func DefaultDictionary() Dictionary {
	return Dictionary{
		models.OriginLegacyDB: {
			KeyField: "DocNumber",
			Fields: map[string]FieldRule{
				"DocNumber":   {Canonical: FieldDocNumber},
				"DocDate":     {Canonical: FieldDate},
				"TaCode":      {Canonical: FieldClientID},
				"ItemCode":    {Canonical: FieldItemCategory, Convert: ConvertItemCode},
				"Purity":      {Canonical: FieldItemPurity, Convert: ConvertFineness},
				"GrossWt":     {Canonical: FieldGrossWeight},
				"PureWt":      {Canonical: FieldNetWeight},
				"MakingValue": {Canonical: FieldRevenue},
				"NetAmount":   {Canonical: FieldCostAmount},
			},
		},
		CashbookWildcard: {
			Fields: map[string]FieldRule{
				"Date":     {Canonical: FieldDate, Convert: ConvertExcelSerialDate},
				"Category": {Canonical: FieldCategoryText},
				"Debit":    {Canonical: FieldCostAmount},
				"Credit":   {Canonical: FieldRevenue},
			},
		},
	}
}

// LoadDictionary reads a dictionary file. An empty path or a missing file
// yields the built-in default so a bare checkout still runs.
func LoadDictionary(path string) (Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if os.IsNotExist(err) {
		return DefaultDictionary(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading field dictionary: %w", err)
	}

	var parsed dictionaryFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("error parsing field dictionary %s: %w", path, err)
	}
	if len(parsed.Origins) == 0 {
		return nil, fmt.Errorf("field dictionary %s defines no origins", path)
	}
	return parsed.Origins, nil
}
