package sales

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

func salesTable(t *testing.T, dates, products []table.Cell, quantities, prices []table.Cell) *table.Table {
	t.Helper()
	tbl, err := table.New(
		[]string{colDate, colProduct, colQuantity, colPrice},
		map[string][]table.Cell{
			colDate:     dates,
			colProduct:  products,
			colQuantity: quantities,
			colPrice:    prices,
		})
	require.NoError(t, err)
	return tbl
}

func fixtureAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(salesTable(t,
		[]table.Cell{"2024-01-01", "2024-01-01", "2024-01-02", "2024-01-04"},
		[]table.Cell{"laptop", "mouse", "laptop", "mouse"},
		[]table.Cell{1.0, 2.0, 1.0, 3.0},
		[]table.Cell{1000.0, 30.0, 1000.0, 30.0},
	))
	require.NoError(t, err)
	return a
}

func TestNewAnalyzerValidation(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		tbl, err := table.New(
			[]string{colDate, colProduct},
			map[string][]table.Cell{
				colDate:    {"2024-01-01", "2024-01-02"},
				colProduct: {"a", "b"},
			})
		require.NoError(t, err)

		_, err = NewAnalyzer(tbl)
		assert.ErrorIs(t, err, core.ErrMissingRequiredFields)
	})

	t.Run("too few rows", func(t *testing.T) {
		_, err := NewAnalyzer(salesTable(t,
			[]table.Cell{"2024-01-01"},
			[]table.Cell{"a"},
			[]table.Cell{1.0},
			[]table.Cell{1.0},
		))
		assert.ErrorIs(t, err, core.ErrInsufficientData)
	})

	t.Run("mostly unparseable dates", func(t *testing.T) {
		_, err := NewAnalyzer(salesTable(t,
			[]table.Cell{"2024-01-01", "junk", "garbage", "nope"},
			[]table.Cell{"a", "a", "a", "a"},
			[]table.Cell{1.0, 1.0, 1.0, 1.0},
			[]table.Cell{1.0, 1.0, 1.0, 1.0},
		))
		assert.ErrorIs(t, err, core.ErrDateConversion)
	})

	t.Run("minority of bad dates dropped", func(t *testing.T) {
		a, err := NewAnalyzer(salesTable(t,
			[]table.Cell{"2024-01-01", "2024-01-02", "junk", "2024-01-03"},
			[]table.Cell{"a", "a", "a", "a"},
			[]table.Cell{1.0, 1.0, 1.0, 1.0},
			[]table.Cell{1.0, 1.0, 1.0, 1.0},
		))
		require.NoError(t, err)
		assert.Len(t, a.Transactions(), 3)
	})
}

func TestAggregateDaily(t *testing.T) {
	a := fixtureAnalyzer(t)

	buckets, err := a.AggregateByPeriod(PeriodDaily)
	require.NoError(t, err)

	// Jan 1 through Jan 4, with the empty Jan 3 emitted as zeros.
	require.Len(t, buckets, 4)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0].Start)

	assert.Equal(t, 1060.0, buckets[0].Sales)
	assert.Equal(t, 2, buckets[0].Transactions)
	assert.Equal(t, 1000.0, buckets[1].Sales)
	assert.Equal(t, 0.0, buckets[2].Sales)
	assert.Equal(t, 0, buckets[2].Transactions)
	assert.Equal(t, 90.0, buckets[3].Sales)
	assert.Equal(t, 3.0, buckets[3].Quantity)
}

func TestAggregateWeekly(t *testing.T) {
	// 2024-01-01 is a Monday.
	a, err := NewAnalyzer(salesTable(t,
		[]table.Cell{"2024-01-01", "2024-01-03", "2024-01-10"},
		[]table.Cell{"a", "a", "a"},
		[]table.Cell{1.0, 1.0, 1.0},
		[]table.Cell{10.0, 10.0, 10.0},
	))
	require.NoError(t, err)

	buckets, err := a.AggregateByPeriod(PeriodWeekly)
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), buckets[0].Start)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), buckets[1].Start)
	assert.Equal(t, 20.0, buckets[0].Sales)
	assert.Equal(t, 10.0, buckets[1].Sales)
}

func TestAggregateMonthly(t *testing.T) {
	a, err := NewAnalyzer(salesTable(t,
		[]table.Cell{"2024-01-15", "2024-03-02"},
		[]table.Cell{"a", "a"},
		[]table.Cell{1.0, 1.0},
		[]table.Cell{5.0, 7.0},
	))
	require.NoError(t, err)

	buckets, err := a.AggregateByPeriod(PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, buckets, 3)
	assert.Equal(t, 5.0, buckets[0].Sales)
	assert.Equal(t, 0.0, buckets[1].Sales)
	assert.Equal(t, 7.0, buckets[2].Sales)
}

func TestAggregateUnknownPeriod(t *testing.T) {
	_, err := fixtureAnalyzer(t).AggregateByPeriod(Period("hourly"))
	assert.Error(t, err)
}

func TestMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, MovingAverage(values, 2))

	// Window longer than the series: every position averages what exists.
	assert.Equal(t, []float64{1, 1.5, 2, 2.5}, MovingAverage(values, 7))
}

func TestGrowthRate(t *testing.T) {
	growth := GrowthRate([]float64{100, 110, 0, 50}, 1)

	require.Len(t, growth, 4)
	assert.True(t, math.IsNaN(growth[0]), "no prior period")
	assert.Equal(t, 10.0, growth[1])
	assert.Equal(t, -100.0, growth[2])
	assert.True(t, math.IsNaN(growth[3]), "division by zero prior")
}

func TestGrowthRateShortSeries(t *testing.T) {
	growth := GrowthRate([]float64{5, 6}, 7)
	for i, g := range growth {
		assert.True(t, math.IsNaN(g), "index %d", i)
	}
}

func TestTopProducts(t *testing.T) {
	a := fixtureAnalyzer(t)

	top, err := a.TopProducts(10, MetricSales)
	require.NoError(t, err)

	// laptop: 2000 sales, mouse: 150.
	require.Len(t, top, 2)
	assert.Equal(t, "laptop", top[0].Product)
	assert.Equal(t, 2000.0, top[0].Sales)
	assert.Equal(t, 1000.0, top[0].AvgPrice)
	assert.Equal(t, "mouse", top[1].Product)
	assert.Equal(t, 150.0, top[1].Sales)
	assert.Equal(t, 5.0, top[1].Quantity)

	// By quantity the order flips.
	byQty, err := a.TopProducts(1, MetricQuantity)
	require.NoError(t, err)
	require.Len(t, byQty, 1)
	assert.Equal(t, "mouse", byQty[0].Product)

	_, err = a.TopProducts(10, Metric("revenue"))
	assert.Error(t, err)
}

func TestPareto(t *testing.T) {
	a, err := NewAnalyzer(salesTable(t,
		[]table.Cell{"2024-01-01", "2024-01-02", "2024-01-03"},
		[]table.Cell{"A", "B", "C"},
		[]table.Cell{1.0, 1.0, 1.0},
		[]table.Cell{800.0, 150.0, 50.0},
	))
	require.NoError(t, err)

	entries, summary, err := a.Pareto(MetricSales)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].Product)
	assert.Equal(t, 80.0, entries[0].CumulativePct)
	assert.Equal(t, 95.0, entries[1].CumulativePct)
	assert.Equal(t, 100.0, entries[2].CumulativePct)
	assert.Equal(t, 3, entries[2].Rank)

	assert.Equal(t, 3, summary.TotalProducts)
	assert.Equal(t, 1000.0, summary.Total)
	assert.Equal(t, 1, summary.Top20Count)
	assert.Equal(t, 80.0, summary.Top20Contribution)
	assert.Equal(t, 1, summary.CountTo80)
	assert.InDelta(t, 33.33, summary.CountTo80Ratio, 0.01)
}

func TestParetoZeroTotal(t *testing.T) {
	a, err := NewAnalyzer(salesTable(t,
		[]table.Cell{"2024-01-01", "2024-01-02"},
		[]table.Cell{"A", "B"},
		[]table.Cell{0.0, 0.0},
		[]table.Cell{10.0, 10.0},
	))
	require.NoError(t, err)

	entries, summary, err := a.Pareto(MetricSales)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Zero(t, summary.Total)
}

func TestParetoRejectsTransactionMetric(t *testing.T) {
	_, _, err := fixtureAnalyzer(t).Pareto(MetricTransactions)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := fixtureAnalyzer(t).Summarize()

	assert.Equal(t, 2150.0, s.TotalSales)
	assert.Equal(t, 7.0, s.TotalQuantity)
	assert.Equal(t, 4, s.Transactions)
	assert.Equal(t, 2, s.UniqueProducts)
	assert.Equal(t, 537.5, s.AvgTransaction)
	assert.Equal(t, 3, s.Days)
}
