// Package sales analyzes mapped sales tables: per-period revenue
// aggregation, moving averages, growth rates, product rankings and
// Pareto concentration.
package sales

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// Standard column names of a mapped sales table.
const (
	colDate     = "date"
	colProduct  = "product"
	colQuantity = "quantity"
	colPrice    = "price"
)

// maxInvalidDateRatio: above this fraction of unparseable dates the input
// is rejected instead of silently thinned out.
const maxInvalidDateRatio = 0.5

// Period selects the aggregation bucket.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Metric selects the ranking dimension for product analyses.
type Metric string

const (
	MetricSales        Metric = "sales"
	MetricQuantity     Metric = "quantity"
	MetricTransactions Metric = "transactions"
)

// Transaction is one cleaned sales row. Sales is quantity x price.
type Transaction struct {
	Date     time.Time
	Product  string
	Quantity float64
	Price    float64
	Sales    float64
}

// PeriodTotal is one aggregation bucket. Gaps in the date range appear as
// zero buckets so moving averages and growth rates line up.
type PeriodTotal struct {
	Start        time.Time `json:"start"`
	Sales        float64   `json:"sales"`
	Quantity     float64   `json:"quantity"`
	Transactions int       `json:"transactions"`
}

// ProductTotal aggregates one product across all transactions.
type ProductTotal struct {
	Product      string  `json:"product"`
	Sales        float64 `json:"sales"`
	Quantity     float64 `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	Transactions int     `json:"transactions"`
}

// ParetoEntry is one ranked product with its cumulative share.
type ParetoEntry struct {
	Product       string  `json:"product"`
	Value         float64 `json:"value"`
	Cumulative    float64 `json:"cumulative"`
	CumulativePct float64 `json:"cumulative_pct"`
	Rank          int     `json:"rank"`
}

// ParetoSummary condenses the concentration analysis.
type ParetoSummary struct {
	TotalProducts     int     `json:"total_products"`
	Total             float64 `json:"total"`
	Top20Count        int     `json:"top_20_count"`
	Top20Contribution float64 `json:"top_20_contribution"`
	CountTo80         int     `json:"count_to_80"`
	CountTo80Ratio    float64 `json:"count_to_80_ratio"`
}

// Summary is the headline statistics block.
type Summary struct {
	TotalSales      float64   `json:"total_sales"`
	TotalQuantity   float64   `json:"total_quantity"`
	Transactions    int       `json:"transactions"`
	UniqueProducts  int       `json:"unique_products"`
	AvgTransaction  float64   `json:"avg_transaction"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Days            int       `json:"days"`
}

// Analyzer holds the cleaned, date-sorted transactions of one mapped
// sales table.
type Analyzer struct {
	txns []Transaction
}

// NewAnalyzer validates and cleans a mapped sales table. Rows whose date
// cannot be parsed are dropped; when more than half the rows fail, the
// input is rejected outright. Negative quantities and prices are kept
// (returns and corrections are real) but logged.
func NewAnalyzer(t *table.Table) (*Analyzer, error) {
	for _, col := range []string{colDate, colProduct, colQuantity, colPrice} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", core.ErrMissingRequiredFields, col)
		}
	}
	if t.RowCount() < 2 {
		return nil, fmt.Errorf("%w: %d rows, need at least 2", core.ErrInsufficientData, t.RowCount())
	}

	dates, err := t.Column(colDate)
	if err != nil {
		return nil, err
	}
	products, err := t.Column(colProduct)
	if err != nil {
		return nil, err
	}
	quantities, err := t.Column(colQuantity)
	if err != nil {
		return nil, err
	}
	prices, err := t.Column(colPrice)
	if err != nil {
		return nil, err
	}

	txns := make([]Transaction, 0, t.RowCount())
	invalid := 0
	negativeQty, negativePrice := 0, 0
	for i := 0; i < t.RowCount(); i++ {
		when, ok := table.ParseDate(dates[i])
		if !ok {
			invalid++
			continue
		}
		qty, _ := table.Float(quantities[i])
		price, _ := table.Float(prices[i])
		if qty < 0 {
			negativeQty++
		}
		if price < 0 {
			negativePrice++
		}
		txns = append(txns, Transaction{
			Date:     when,
			Product:  table.String(products[i]),
			Quantity: qty,
			Price:    price,
			Sales:    qty * price,
		})
	}

	if ratio := float64(invalid) / float64(t.RowCount()); ratio > maxInvalidDateRatio {
		return nil, fmt.Errorf("%w: %d of %d rows have unparseable dates",
			core.ErrDateConversion, invalid, t.RowCount())
	}
	if invalid > 0 {
		log.Printf("[Sales] dropped %d rows with unparseable dates", invalid)
	}
	if negativeQty > 0 {
		log.Printf("[Sales] %d rows with negative quantity (returns or corrections)", negativeQty)
	}
	if negativePrice > 0 {
		log.Printf("[Sales] %d rows with negative price (discounts or corrections)", negativePrice)
	}
	if len(txns) < 2 {
		return nil, fmt.Errorf("%w: %d usable rows after date cleaning", core.ErrInsufficientData, len(txns))
	}

	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	return &Analyzer{txns: txns}, nil
}

// Transactions returns the cleaned rows in date order.
func (a *Analyzer) Transactions() []Transaction {
	return a.txns
}

// AggregateByPeriod sums sales, quantity and transaction counts into
// consecutive buckets. Empty buckets inside the observed range are
// emitted as zeros.
func (a *Analyzer) AggregateByPeriod(period Period) ([]PeriodTotal, error) {
	truncate, step, err := bucketing(period)
	if err != nil {
		return nil, err
	}

	byStart := make(map[time.Time]*PeriodTotal)
	for _, txn := range a.txns {
		start := truncate(txn.Date)
		bucket := byStart[start]
		if bucket == nil {
			bucket = &PeriodTotal{Start: start}
			byStart[start] = bucket
		}
		bucket.Sales += txn.Sales
		bucket.Quantity += txn.Quantity
		bucket.Transactions++
	}

	first := truncate(a.txns[0].Date)
	last := truncate(a.txns[len(a.txns)-1].Date)

	var out []PeriodTotal
	for cursor := first; !cursor.After(last); cursor = step(cursor) {
		if bucket, ok := byStart[cursor]; ok {
			out = append(out, *bucket)
		} else {
			out = append(out, PeriodTotal{Start: cursor})
		}
	}
	return out, nil
}

func bucketing(period Period) (func(time.Time) time.Time, func(time.Time) time.Time, error) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	switch period {
	case PeriodDaily:
		return day,
			func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
			nil
	case PeriodWeekly:
		// Weeks start on Monday.
		return func(t time.Time) time.Time {
				d := day(t)
				return d.AddDate(0, 0, -int((d.Weekday()+6)%7))
			},
			func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
			nil
	case PeriodMonthly:
		return func(t time.Time) time.Time {
				return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
			},
			func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
			nil
	default:
		return nil, nil, fmt.Errorf("unknown aggregation period %q", period)
	}
}

// MovingAverage computes a trailing mean with the given window. Positions
// before a full window average whatever is available, so the output has
// the same length as the input and no leading gaps.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// GrowthRate computes percentage growth against the value shift periods
// earlier. Positions with no prior value, or a prior value of zero, are
// NaN: growth against nothing is undefined, not infinite. Results are
// rounded to two decimals.
func GrowthRate(values []float64, shift int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < shift {
			out[i] = math.NaN()
			continue
		}
		prev := values[i-shift]
		if prev == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Round((values[i]-prev)/prev*100*100) / 100
	}
	return out
}

// TopProducts ranks products by the chosen metric and returns at most
// topN of them. topN larger than the product count is clipped, not an
// error.
func (a *Analyzer) TopProducts(topN int, metric Metric) ([]ProductTotal, error) {
	if err := validMetric(metric); err != nil {
		return nil, err
	}

	totals := a.productTotals()
	sort.Slice(totals, func(i, j int) bool {
		vi, vj := metricValue(totals[i], metric), metricValue(totals[j], metric)
		if vi != vj {
			return vi > vj
		}
		return totals[i].Product < totals[j].Product
	})

	if topN > len(totals) {
		topN = len(totals)
	}
	if topN < 0 {
		topN = 0
	}
	return totals[:topN], nil
}

// Pareto ranks products by the chosen metric and computes each product's
// cumulative share, plus the classic concentration summary: how much the
// top 20% of products contribute, and how many products it takes to reach
// 80% of the total.
func (a *Analyzer) Pareto(metric Metric) ([]ParetoEntry, ParetoSummary, error) {
	if err := validMetric(metric); err != nil {
		return nil, ParetoSummary{}, err
	}
	if metric == MetricTransactions {
		return nil, ParetoSummary{}, fmt.Errorf("pareto analysis supports %q and %q, not %q",
			MetricSales, MetricQuantity, metric)
	}

	totals := a.productTotals()
	sort.Slice(totals, func(i, j int) bool {
		vi, vj := metricValue(totals[i], metric), metricValue(totals[j], metric)
		if vi != vj {
			return vi > vj
		}
		return totals[i].Product < totals[j].Product
	})

	total := 0.0
	for _, p := range totals {
		total += metricValue(p, metric)
	}

	summary := ParetoSummary{TotalProducts: len(totals), Total: total}
	if total == 0 {
		log.Printf("[Sales] pareto: total %s is zero, concentration undefined", metric)
		return nil, summary, nil
	}

	entries := make([]ParetoEntry, len(totals))
	cumulative := 0.0
	for i, p := range totals {
		v := metricValue(p, metric)
		cumulative += v
		entries[i] = ParetoEntry{
			Product:       p.Product,
			Value:         v,
			Cumulative:    cumulative,
			CumulativePct: math.Round(cumulative/total*100*100) / 100,
			Rank:          i + 1,
		}
	}

	top20 := len(totals) / 5
	if top20 < 1 {
		top20 = 1
	}
	top20Sum := 0.0
	for _, e := range entries[:top20] {
		top20Sum += e.Value
	}
	summary.Top20Count = top20
	summary.Top20Contribution = math.Round(top20Sum/total*100*100) / 100

	countTo80 := 0
	for _, e := range entries {
		countTo80++
		if e.CumulativePct >= 80 {
			break
		}
	}
	summary.CountTo80 = countTo80
	summary.CountTo80Ratio = math.Round(float64(countTo80)/float64(len(totals))*100*100) / 100

	return entries, summary, nil
}

// Summarize computes the headline block over all cleaned transactions.
func (a *Analyzer) Summarize() Summary {
	values := make([]float64, len(a.txns))
	products := make(map[string]struct{})
	totalQty := 0.0
	for i, txn := range a.txns {
		values[i] = txn.Sales
		totalQty += txn.Quantity
		products[txn.Product] = struct{}{}
	}

	totalSales, _ := stats.Sum(values)
	avg, _ := stats.Mean(values)

	start := a.txns[0].Date
	end := a.txns[len(a.txns)-1].Date

	return Summary{
		TotalSales:     totalSales,
		TotalQuantity:  totalQty,
		Transactions:   len(a.txns),
		UniqueProducts: len(products),
		AvgTransaction: avg,
		Start:          start,
		End:            end,
		Days:           int(end.Sub(start).Hours() / 24),
	}
}

func (a *Analyzer) productTotals() []ProductTotal {
	byProduct := make(map[string]*ProductTotal)
	for _, txn := range a.txns {
		p := byProduct[txn.Product]
		if p == nil {
			p = &ProductTotal{Product: txn.Product}
			byProduct[txn.Product] = p
		}
		p.Sales += txn.Sales
		p.Quantity += txn.Quantity
		p.AvgPrice += txn.Price
		p.Transactions++
	}

	totals := make([]ProductTotal, 0, len(byProduct))
	for _, p := range byProduct {
		p.AvgPrice /= float64(p.Transactions)
		totals = append(totals, *p)
	}
	return totals
}

func metricValue(p ProductTotal, metric Metric) float64 {
	switch metric {
	case MetricQuantity:
		return p.Quantity
	case MetricTransactions:
		return float64(p.Transactions)
	default:
		return p.Sales
	}
}

func validMetric(metric Metric) error {
	switch metric {
	case MetricSales, MetricQuantity, MetricTransactions:
		return nil
	default:
		return fmt.Errorf("unknown ranking metric %q", metric)
	}
}
