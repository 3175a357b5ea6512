// Package report implements the report command family: metric views over the
// reconciled dataset.
package report

import (
	"context"
	"fmt"

	"vivaa/goldbook/cmd/root"
	"vivaa/goldbook/internal/export"
	"vivaa/goldbook/internal/metrics"
	"vivaa/goldbook/internal/pipeline"

	"github.com/spf13/cobra"
)

var convertGold bool

// Cmd is the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Compute metric views over the reconciled dataset.",
}

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Cost and revenue totals per calendar month.",
	RunE:  runMonthly,
}

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Net profit or loss per calendar month.",
	RunE:  runPosition,
}

var fixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Fixed-cost breakdown by category and subcategory.",
	RunE:  runFixed,
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Five-number summary of weekly revenue per month.",
	RunE:  runWeekly,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Smoothed weekly gross-weight trend.",
	RunE:  runTrend,
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Gross-weight histogram by item category and purity.",
	RunE:  runWeights,
}

func init() {
	positionCmd.Flags().BoolVar(&convertGold, "convert-gold", false,
		"Add the purity-adjusted gold valuation to monthly income")
	Cmd.AddCommand(monthlyCmd)
	Cmd.AddCommand(positionCmd)
	Cmd.AddCommand(fixedCmd)
	Cmd.AddCommand(weeklyCmd)
	Cmd.AddCommand(trendCmd)
	Cmd.AddCommand(weightsCmd)
}

// run executes the pipeline and hands the dataset and filter to the view.
func run(view func(*pipeline.Dataset, metrics.Filter) error) error {
	f, err := root.Filter()
	if err != nil {
		return err
	}
	p, err := pipeline.New(root.Cfg, root.Log)
	if err != nil {
		return err
	}
	dataset, err := p.Run(context.Background())
	if err != nil {
		return err
	}
	return view(dataset, f)
}

func runMonthly(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		totals := d.Metrics().MonthlyTotals(f, metrics.ValuationOptions{})
		if out := root.SharedFlags.Output; out != "" {
			return export.WriteMonthlyTotalsToCSV(totals, out, root.Log)
		}
		for _, mt := range totals {
			fmt.Printf("%s  cost %12s  revenue %12s\n",
				mt.Month, mt.Cost.StringFixed(2), mt.Revenue.StringFixed(2))
		}
		return nil
	})
}

func runPosition(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		positions := d.Metrics().NetPosition(f, root.MarketRate(), convertGold)
		for _, p := range positions {
			fmt.Printf("%s  income %12s  cost %12s  gold %12s  net %12s  %s\n",
				p.Month, p.Income.StringFixed(2), p.Cost.StringFixed(2),
				p.GoldValue.StringFixed(2), p.NetProfit.StringFixed(2), p.Position)
		}
		return nil
	})
}

func runFixed(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		breakdown := d.Metrics().FixedCostBreakdown(f, d.StaticFixedCosts())
		for _, cat := range breakdown {
			fmt.Printf("%-30s %12s\n", cat.Category, cat.Total.StringFixed(2))
			for _, sub := range cat.Subcategories {
				fmt.Printf("  %-28s %12s\n", sub.Subcategory, sub.Total.StringFixed(2))
			}
		}
		return nil
	})
}

func runWeekly(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		for _, w := range d.Metrics().WeeklyRevenueDistribution(f) {
			fmt.Printf("%s  weeks %2d  min %10s  q1 %10s  median %10s  q3 %10s  max %10s\n",
				w.Month, w.Weeks, w.Min.StringFixed(2), w.Q1.StringFixed(2),
				w.Median.StringFixed(2), w.Q3.StringFixed(2), w.Max.StringFixed(2))
		}
		return nil
	})
}

func runTrend(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		for _, pt := range d.Metrics().SmoothedWeeklyQuantity(f) {
			fmt.Printf("%s  gross %10s  smoothed %10.3f\n",
				pt.Week, pt.Gross.StringFixed(3), pt.Smoothed)
		}
		return nil
	})
}

func runWeights(cmd *cobra.Command, args []string) error {
	return run(func(d *pipeline.Dataset, f metrics.Filter) error {
		for _, b := range d.Metrics().WeightDistribution(f) {
			fmt.Printf("%-15s %-5s [%s, %s)  count %4d  total %10s\n",
				b.Category, b.Purity, b.Low.StringFixed(0), b.High.StringFixed(0),
				b.Count, b.TotalWeight.StringFixed(3))
		}
		return nil
	})
}
