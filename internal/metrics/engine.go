// Package metrics computes derived financial views over the reconciled
// dataset: purity-adjusted valuation, calendar aggregations, fixed-cost
// breakdowns, weekly distributions and smoothed trends.
//
// The engine never mutates the dataset and holds no per-call state, so one
// engine may serve concurrent view requests.
package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"vivaa/goldbook/internal/dateutils"
	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/models"
)

// Options carries the aggregation tuning parameters.
type Options struct {
	SmoothingWindow int
	SmoothingOrder  int
	BucketWidth     decimal.Decimal
}

// Engine computes metric views over an immutable transaction set.
type Engine struct {
	txs    []models.Transaction
	opts   Options
	logger logging.Logger
}

// NewEngine creates an engine over a reconciled transaction set. The slice
// is treated as immutable and shared, not copied.
func NewEngine(txs []models.Transaction, opts Options, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.BucketWidth.IsZero() {
		opts.BucketWidth = decimal.NewFromInt(10)
	}
	return &Engine{txs: txs, opts: opts, logger: logger}
}

// Filter restricts an aggregation to matching transactions. The zero value
// matches everything. Filters are immutable values passed per call; the
// engine holds no ambient filter state.
type Filter struct {
	ClientID   string
	From, To   time.Time
	Categories []string
	Purities   []string
}

// Matches reports whether a transaction passes the filter.
func (f Filter) Matches(tx *models.Transaction) bool {
	if f.ClientID != "" && tx.ClientID != f.ClientID {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, tx.ItemCategory) {
		return false
	}
	if len(f.Purities) > 0 && !contains(f.Purities, tx.ItemPurity) {
		return false
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// AdjustedValue computes the purity-adjusted valuation of one transaction:
// net weight times the gold fraction of its purity designation times the
// caller-supplied market rate. The rate is an injected parameter, never
// stored, so historical rates cannot leak into the dataset. Transactions
// without purity or net weight return false and are excluded from purity
// aggregates.
func AdjustedValue(tx *models.Transaction, marketRate decimal.Decimal) (decimal.Decimal, bool) {
	if tx.NetWeight == nil || tx.ItemPurity == "" {
		return decimal.Zero, false
	}
	fraction, ok := models.PurityFraction(tx.ItemPurity)
	if !ok {
		return decimal.Zero, false
	}
	return tx.NetWeight.Mul(fraction).Mul(marketRate), true
}

// MonthlyTotal is one month's cost/revenue aggregation. AdjustedValue is
// populated only when purity-gain mode is requested.
type MonthlyTotal struct {
	Month         string
	Cost          decimal.Decimal
	Revenue       decimal.Decimal
	AdjustedValue decimal.Decimal
}

// ValuationOptions selects purity-gain mode for monthly aggregation.
type ValuationOptions struct {
	PurityGain bool
	MarketRate decimal.Decimal
}

// MonthlyTotals sums cost and revenue per calendar month. Rows with a nil
// amount are excluded from that aggregate rather than counted as zero.
func (e *Engine) MonthlyTotals(f Filter, v ValuationOptions) []MonthlyTotal {
	byMonth := make(map[string]*MonthlyTotal)
	for i := range e.txs {
		tx := &e.txs[i]
		if !f.Matches(tx) {
			continue
		}
		key := dateutils.MonthKey(tx.Date)
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthlyTotal{Month: key}
			byMonth[key] = mt
		}
		if tx.CostAmount != nil {
			mt.Cost = mt.Cost.Add(*tx.CostAmount)
		}
		if tx.RevenueAmount != nil {
			mt.Revenue = mt.Revenue.Add(*tx.RevenueAmount)
		}
		if v.PurityGain {
			if adj, ok := AdjustedValue(tx, v.MarketRate); ok {
				mt.AdjustedValue = mt.AdjustedValue.Add(adj)
			}
		}
	}
	return sortedMonthly(byMonth)
}

func sortedMonthly(byMonth map[string]*MonthlyTotal) []MonthlyTotal {
	out := make([]MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// MonthlyPosition is one month's net result.
type MonthlyPosition struct {
	Month     string
	Income    decimal.Decimal
	Cost      decimal.Decimal
	GoldValue decimal.Decimal
	NetProfit decimal.Decimal
	Position  string
}

// Profit/loss labels for MonthlyPosition.
const (
	PositionProfit = "Profit"
	PositionLoss   = "Loss"
)

// NetPosition derives monthly profit or loss. With convertGold set, the
// purity-adjusted valuation of the month's sales is added to income at the
// injected market rate.
func (e *Engine) NetPosition(f Filter, marketRate decimal.Decimal, convertGold bool) []MonthlyPosition {
	totals := e.MonthlyTotals(f, ValuationOptions{PurityGain: convertGold, MarketRate: marketRate})
	out := make([]MonthlyPosition, 0, len(totals))
	for _, mt := range totals {
		income := mt.Revenue
		gold := decimal.Zero
		if convertGold {
			gold = mt.AdjustedValue
			income = income.Add(gold)
		}
		net := income.Sub(mt.Cost)
		position := PositionLoss
		if net.IsPositive() {
			position = PositionProfit
		}
		out = append(out, MonthlyPosition{
			Month:     mt.Month,
			Income:    mt.Revenue,
			Cost:      mt.Cost,
			GoldValue: gold,
			NetProfit: net,
			Position:  position,
		})
	}
	return out
}

// FixedCostEntry is an extra fixed cost merged into the breakdown, used for
// the static fixed-cost list that has no transaction rows.
type FixedCostEntry struct {
	Category    string
	Subcategory string
	Amount      decimal.Decimal
}

// SubcategoryTotal is one leaf of the fixed-cost hierarchy.
type SubcategoryTotal struct {
	Subcategory string
	Total       decimal.Decimal
}

// CategoryBreakdown is one fixed-cost category with its subcategory sums.
type CategoryBreakdown struct {
	Category      string
	Total         decimal.Decimal
	Subcategories []SubcategoryTotal
}

// FixedCostBreakdown sums fixed-cost-classified rows hierarchically by
// category then subcategory. Rows without a subcategory land in the
// explicit Uncategorized bucket, never dropped. Static entries are merged
// in before summing.
func (e *Engine) FixedCostBreakdown(f Filter, static []FixedCostEntry) []CategoryBreakdown {
	type key struct{ cat, sub string }
	sums := make(map[key]decimal.Decimal)

	add := func(cat, sub string, amount decimal.Decimal) {
		if cat == "" {
			cat = models.Uncategorized
		}
		if sub == "" {
			sub = models.Uncategorized
		}
		k := key{cat, sub}
		sums[k] = sums[k].Add(amount)
	}

	for i := range e.txs {
		tx := &e.txs[i]
		if !f.Matches(tx) || !tx.IsFixedCost() || tx.CostAmount == nil {
			continue
		}
		add(tx.FixedCostCategory, tx.FixedCostSubcategory, *tx.CostAmount)
	}
	for _, s := range static {
		add(s.Category, s.Subcategory, s.Amount)
	}

	byCat := make(map[string]*CategoryBreakdown)
	for k, total := range sums {
		cb, ok := byCat[k.cat]
		if !ok {
			cb = &CategoryBreakdown{Category: k.cat}
			byCat[k.cat] = cb
		}
		cb.Total = cb.Total.Add(total)
		cb.Subcategories = append(cb.Subcategories, SubcategoryTotal{Subcategory: k.sub, Total: total})
	}

	out := make([]CategoryBreakdown, 0, len(byCat))
	for _, cb := range byCat {
		sort.Slice(cb.Subcategories, func(i, j int) bool {
			return cb.Subcategories[i].Subcategory < cb.Subcategories[j].Subcategory
		})
		out = append(out, *cb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
