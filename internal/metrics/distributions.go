package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"vivaa/goldbook/internal/dateutils"
)

// WeeklyDistribution is the five-number summary of weekly revenue sums
// within one month, the inputs a box/whisker rendering needs.
type WeeklyDistribution struct {
	Month  string
	Weeks  int
	Min    decimal.Decimal
	Q1     decimal.Decimal
	Median decimal.Decimal
	Q3     decimal.Decimal
	Max    decimal.Decimal
}

// WeeklyRevenueDistribution sums revenue per ISO week inside each calendar
// month and summarizes the weekly sums. Months without any revenue rows are
// absent from the result.
func (e *Engine) WeeklyRevenueDistribution(f Filter) []WeeklyDistribution {
	type key struct{ month, week string }
	sums := make(map[key]decimal.Decimal)

	for i := range e.txs {
		tx := &e.txs[i]
		if !f.Matches(tx) || tx.RevenueAmount == nil {
			continue
		}
		k := key{dateutils.MonthKey(tx.Date), dateutils.ISOWeekKey(tx.Date)}
		sums[k] = sums[k].Add(*tx.RevenueAmount)
	}

	byMonth := make(map[string][]decimal.Decimal)
	for k, sum := range sums {
		byMonth[k.month] = append(byMonth[k.month], sum)
	}

	out := make([]WeeklyDistribution, 0, len(byMonth))
	for month, weekly := range byMonth {
		sort.Slice(weekly, func(i, j int) bool { return weekly[i].LessThan(weekly[j]) })
		out = append(out, WeeklyDistribution{
			Month:  month,
			Weeks:  len(weekly),
			Min:    weekly[0],
			Q1:     quantile(weekly, 0.25),
			Median: quantile(weekly, 0.5),
			Q3:     quantile(weekly, 0.75),
			Max:    weekly[len(weekly)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// quantile computes a linearly interpolated quantile over a sorted slice.
func quantile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := decimal.NewFromFloat(pos - float64(lo))
	return sorted[lo].Add(sorted[lo+1].Sub(sorted[lo]).Mul(frac))
}

// TrendPoint is one week of the smoothed gross-weight trend. Smoothing is
// floating-point polynomial filtering; the raw sum stays exact.
type TrendPoint struct {
	Week     string
	Gross    decimal.Decimal
	Smoothed float64
}

// SmoothedWeeklyQuantity sums gross weight per ISO week and applies
// Savitzky-Golay smoothing over the ordered weekly series. A series shorter
// than the configured window passes through unsmoothed.
func (e *Engine) SmoothedWeeklyQuantity(f Filter) []TrendPoint {
	sums := make(map[string]decimal.Decimal)
	for i := range e.txs {
		tx := &e.txs[i]
		if !f.Matches(tx) || tx.GrossWeight == nil {
			continue
		}
		k := dateutils.ISOWeekKey(tx.Date)
		sums[k] = sums[k].Add(*tx.GrossWeight)
	}

	weeks := make([]string, 0, len(sums))
	for week := range sums {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	series := make([]float64, len(weeks))
	out := make([]TrendPoint, len(weeks))
	for i, week := range weeks {
		gross := sums[week]
		series[i], _ = gross.Float64()
		out[i] = TrendPoint{Week: week, Gross: gross}
	}

	smoothed := SavitzkyGolay(series, e.opts.SmoothingWindow, e.opts.SmoothingOrder)
	for i := range out {
		out[i].Smoothed = smoothed[i]
	}
	return out
}

// WeightBucket is one histogram bucket of gross weight for a
// (category, purity) pair. Low is inclusive, High exclusive.
type WeightBucket struct {
	Category    string
	Purity      string
	Low         decimal.Decimal
	High        decimal.Decimal
	Count       int
	TotalWeight decimal.Decimal
}

// WeightDistribution buckets gross weight by (item category, item purity)
// using the configured bucket width. Rows without a positive gross weight
// or without both grouping fields are excluded, not zero-bucketed.
func (e *Engine) WeightDistribution(f Filter) []WeightBucket {
	width := e.opts.BucketWidth
	type key struct {
		category, purity string
		bucket           int64
	}
	buckets := make(map[key]*WeightBucket)

	for i := range e.txs {
		tx := &e.txs[i]
		if !f.Matches(tx) {
			continue
		}
		if tx.GrossWeight == nil || !tx.GrossWeight.IsPositive() {
			continue
		}
		if tx.ItemCategory == "" || tx.ItemPurity == "" {
			continue
		}
		idx := tx.GrossWeight.Div(width).IntPart()
		k := key{tx.ItemCategory, tx.ItemPurity, idx}
		b, ok := buckets[k]
		if !ok {
			low := width.Mul(decimal.NewFromInt(idx))
			b = &WeightBucket{
				Category: tx.ItemCategory,
				Purity:   tx.ItemPurity,
				Low:      low,
				High:     low.Add(width),
			}
			buckets[k] = b
		}
		b.Count++
		b.TotalWeight = b.TotalWeight.Add(*tx.GrossWeight)
	}

	out := make([]WeightBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Purity != out[j].Purity {
			return out[i].Purity < out[j].Purity
		}
		return out[i].Low.LessThan(out[j].Low)
	})
	return out
}
