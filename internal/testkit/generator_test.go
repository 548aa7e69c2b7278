package testkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/rfm"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/sentiment"
	"github.com/JungMoonYoung/auto-insight-platform/internal/mapping"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.CustomerCount = 40
	cfg.ReviewCount = 60
	return cfg
}

func TestTransactionsDeterministic(t *testing.T) {
	a, err := NewGenerator(smallConfig()).Transactions()
	require.NoError(t, err)
	b, err := NewGenerator(smallConfig()).Transactions()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestTransactionsShape(t *testing.T) {
	tbl, err := NewGenerator(smallConfig()).Transactions()
	require.NoError(t, err)

	assert.Equal(t, []string{"고객ID", "주문일", "상품명", "수량", "가격"}, tbl.Columns())
	assert.GreaterOrEqual(t, tbl.RowCount(), 40)

	qty, err := tbl.Column("수량")
	require.NoError(t, err)
	for _, c := range qty {
		v, ok := table.Float(c)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 5.0)
	}

	dates, err := tbl.Column("주문일")
	require.NoError(t, err)
	for _, c := range dates {
		_, ok := table.ParseDate(c)
		assert.True(t, ok)
	}
}

func TestReviewsRatingsMatchText(t *testing.T) {
	tbl, err := NewGenerator(smallConfig()).Reviews()
	require.NoError(t, err)

	assert.Equal(t, []string{"리뷰", "평점", "날짜"}, tbl.Columns())
	assert.Equal(t, 60, tbl.RowCount())

	ratings, err := tbl.Column("평점")
	require.NoError(t, err)
	for _, c := range ratings {
		v, ok := table.Float(c)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 10.0)
	}
}

// The generated tables should survive the whole pipeline: raw headers
// map onto the standard fields and the analyzers accept the result.
func TestGeneratedTransactionsFlowThroughRFM(t *testing.T) {
	tbl, err := NewGenerator(smallConfig()).Transactions()
	require.NoError(t, err)

	rs, err := mapping.NewResolver(schema.DomainEcommerce)
	require.NoError(t, err)

	result, err := rs.Map(tbl)
	require.NoError(t, err)
	validation := rs.Validate(result)
	require.True(t, validation.IsValid, "missing: %v", validation.Missing)

	applied, err := rs.Apply(tbl, result)
	require.NoError(t, err)

	res, err := rfm.NewAnalyzer().Analyze(applied, time.Time{})
	require.NoError(t, err)
	assert.Len(t, res.Segments, 40)
	assert.GreaterOrEqual(t, res.K, 3)
}

func TestGeneratedReviewsFlowThroughSentiment(t *testing.T) {
	tbl, err := NewGenerator(smallConfig()).Reviews()
	require.NoError(t, err)

	rs, err := mapping.NewResolver(schema.DomainReview)
	require.NoError(t, err)

	result, err := rs.Map(tbl)
	require.NoError(t, err)
	require.True(t, rs.Validate(result).IsValid)

	applied, err := rs.Apply(tbl, result)
	require.NoError(t, err)

	res, err := sentiment.NewAnalyzer().Analyze(applied)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Summary.Total)
	assert.Greater(t, res.Summary.Positive, res.Summary.Neutral)
}
