// Package models provides the data structures shared across the aggregation pipeline.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Origin tags identify which physical source produced a record.
const (
	OriginLegacyDB       = "legacy_db"
	originCashbookPrefix = "cashbook:"
)

// CashbookOrigin returns the origin tag for a named cashbook sheet.
func CashbookOrigin(sheet string) string {
	return originCashbookPrefix + sheet
}

// IsCashbookOrigin reports whether an origin tag refers to a cashbook sheet.
func IsCashbookOrigin(origin string) bool {
	return len(origin) > len(originCashbookPrefix) && origin[:len(originCashbookPrefix)] == originCashbookPrefix
}

// Transaction types derived from the legacy document-number prefix.
const (
	TypeSale       = "SALE"
	TypePurchase   = "PURCHASE"
	TypeReturn     = "RETURN"
	TypeDirectSale = "DIRECT_SALE"
)

// Cost classification applied to cashbook expense rows.
const (
	CostTypeFixed    = "FIXED"
	CostTypeVariable = "VARIABLE"
)

// Uncategorized is the explicit bucket for rows whose category text is not
// found in the category store. Such rows are never dropped.
const Uncategorized = "Uncategorized"

// idNamespace anchors deterministic transaction identifiers. It must never
// change: the same origin and natural key have to produce the same id on
// every run.
var idNamespace = uuid.MustParse("7b9c3f14-52da-46a8-9d0e-6c1a8f4b2e37")

// DeriveID produces the stable transaction identifier for a source row.
// Records from different origins never share an id because the origin tag is
// part of the hashed input.
func DeriveID(origin, naturalKey string) string {
	return uuid.NewSHA1(idNamespace, []byte(origin+"|"+naturalKey)).String()
}

// Transaction is the canonical record every source is mapped into.
// Monetary and weight fields are pointers so that "absent" and "zero" stay
// distinct; aggregations exclude nil fields instead of treating them as zero.
type Transaction struct {
	ID              string
	Date            time.Time
	ClientID        string
	ItemCategory    string
	ItemPurity      string
	TransactionType string

	GrossWeight   *decimal.Decimal
	NetWeight     *decimal.Decimal
	CostAmount    *decimal.Decimal
	RevenueAmount *decimal.Decimal

	FixedCostCategory    string
	FixedCostSubcategory string

	Origin     string
	SourceFile string
}

// HasWeight reports whether both weight fields are populated.
func (t *Transaction) HasWeight() bool {
	return t.GrossWeight != nil && t.NetWeight != nil
}

// IsFixedCost reports whether the row was classified as a fixed cost.
func (t *Transaction) IsFixedCost() bool {
	return t.FixedCostCategory != ""
}

// Clone returns a deep copy. Merging mutates field pointers, so reconciler
// groups operate on copies to keep the mapped input untouched.
func (t *Transaction) Clone() Transaction {
	c := *t
	c.GrossWeight = cloneDecimal(t.GrossWeight)
	c.NetWeight = cloneDecimal(t.NetWeight)
	c.CostAmount = cloneDecimal(t.CostAmount)
	c.RevenueAmount = cloneDecimal(t.RevenueAmount)
	return c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Dec is a convenience constructor for nullable decimal fields.
func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
