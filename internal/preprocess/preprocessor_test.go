package preprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

func fixtureTable(t *testing.T, columns []string, cells map[string][]table.Cell) *table.Table {
	t.Helper()
	tbl, err := table.New(columns, cells)
	require.NoError(t, err)
	return tbl
}

func result(t *testing.T, p *Preprocessor) (*table.Table, []string) {
	t.Helper()
	tbl, log, err := p.Result()
	require.NoError(t, err)
	return tbl, log
}

func TestFillMissingAuto(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"amount", "category", "empty"},
		map[string][]table.Cell{
			"amount":   {1.0, 2.0, nil, 3.0, 100.0},
			"category": {"a", "b", "b", nil, ""},
			"empty":    {nil, "", nil, nil, ""},
		})

	out, log := result(t, New(tbl).FillMissing(MissingAuto))

	amount, err := out.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, 2.5, amount[2], "numeric gap takes the column median")

	category, err := out.Column("category")
	require.NoError(t, err)
	assert.Equal(t, "b", category[3], "categorical gap takes the mode")
	assert.Equal(t, "b", category[4])

	empty, err := out.Column("empty")
	require.NoError(t, err)
	for _, c := range empty {
		assert.True(t, table.IsMissing(c), "fully missing column stays untouched")
	}
	assert.Contains(t, log[0], "'empty'")
	assert.Contains(t, log[0], "100%")
}

func TestFillMissingWarnsOnHighMissingShare(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"name", "note"},
		map[string][]table.Cell{
			"name": {"a", "b", "c", "d"},
			"note": {"x", nil, nil, nil},
		})

	out, log := result(t, New(tbl).FillMissing(MissingAuto))

	note, err := out.Column("note")
	require.NoError(t, err)
	assert.Equal(t, "x", note[1], "single observed value is the mode")
	assert.Contains(t, log[0], "75.0%", "high missing share is flagged")
}

func TestFillMissingDrop(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"a", "b"},
		map[string][]table.Cell{
			"a": {1.0, nil, 3.0},
			"b": {"x", "y", ""},
		})

	out, _ := result(t, New(tbl).FillMissing(MissingDrop))
	assert.Equal(t, 1, out.RowCount(), "rows with any missing cell are dropped")
}

func TestRemoveDuplicates(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"id", "value"},
		map[string][]table.Cell{
			"id":    {1.0, 2.0, 1.0, 3.0},
			"value": {"a", "b", "a", "a"},
		})

	out, log := result(t, New(tbl).RemoveDuplicates())

	assert.Equal(t, 3, out.RowCount())
	assert.Contains(t, log[0], "중복 행 제거: 1개")

	ids, err := out.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []table.Cell{1.0, 2.0, 3.0}, ids, "the first occurrence wins")
}

func TestHandleOutliersIQRWinsorizes(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"amount", "label"},
		map[string][]table.Cell{
			"amount": {10.0, 12.0, 11.0, 13.0, 100.0, 12.0, 11.0, 13.0},
			"label":  {"a", "b", "c", "d", "e", "f", "g", "h"},
		})

	out, log := result(t, New(tbl).HandleOutliers(OutlierIQR))

	// Q1 = 11, Q3 = 13, so the fences are 8 and 16.
	amount, err := out.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, 16.0, amount[4], "extreme value is clamped to the upper fence")
	assert.Equal(t, 10.0, amount[0], "in-range values stay put")
	assert.Equal(t, 8, out.RowCount(), "winsorizing never drops rows")
	assert.Contains(t, log[0], "(IQR): 1개 조정")
}

func TestHandleOutliersIQRSkipsConstantColumn(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"flat"},
		map[string][]table.Cell{
			"flat": {5.0, 5.0, 5.0, 5.0},
		})

	out, log := result(t, New(tbl).HandleOutliers(OutlierIQR))

	flat, err := out.Column("flat")
	require.NoError(t, err)
	assert.Equal(t, []table.Cell{5.0, 5.0, 5.0, 5.0}, flat)
	assert.Contains(t, log[0], "IQR이 0")
}

func TestHandleOutliersZScoreDropsRows(t *testing.T) {
	cells := make([]table.Cell, 0, 20)
	for i := 0; i < 19; i++ {
		cells = append(cells, 10.0)
	}
	cells = append(cells, 1000.0)

	tbl := fixtureTable(t,
		[]string{"amount"},
		map[string][]table.Cell{"amount": cells})

	out, log := result(t, New(tbl).HandleOutliers(OutlierZScore))

	assert.Equal(t, 19, out.RowCount(), "the three-sigma outlier row is removed")
	assert.Contains(t, log[0], "(Z-score): 1개")
}

func TestConvertDates(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"ordered", "note"},
		map[string][]table.Cell{
			"ordered": {"2024-01-01", "2024-02-15", nil},
			"note":    {"2024-01-01", "not a date", "x"},
		})

	out, log := result(t, New(tbl).ConvertDates("ordered", "note"))

	ordered, err := out.Column("ordered")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), ordered[1])
	assert.Nil(t, ordered[2], "missing cells stay missing")

	note, err := out.Column("note")
	require.NoError(t, err)
	assert.Equal(t, "not a date", note[1], "a column with unparseable cells is left alone")

	assert.Contains(t, log[0], "'ordered' 날짜 형식 변환 완료")
	assert.Contains(t, log[1], "'note' 날짜 변환 실패")
}

func TestDateFeatures(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"ordered"},
		map[string][]table.Cell{
			// A Saturday in winter and a Monday in spring.
			"ordered": {"2024-01-06", "2024-03-04", "garbage"},
		})

	out, _ := result(t, New(tbl).DateFeatures("ordered"))

	assert.Equal(t, []string{
		"ordered",
		"ordered_year", "ordered_month", "ordered_day",
		"ordered_dayofweek", "ordered_is_weekend", "ordered_season",
	}, out.Columns())

	get := func(name string) []table.Cell {
		col, err := out.Column(name)
		require.NoError(t, err)
		return col
	}

	assert.Equal(t, 2024.0, get("ordered_year")[0])
	assert.Equal(t, 1.0, get("ordered_month")[0])
	assert.Equal(t, 6.0, get("ordered_day")[0])
	assert.Equal(t, 5.0, get("ordered_dayofweek")[0], "Monday-based weekday, Saturday is 5")
	assert.Equal(t, 1.0, get("ordered_is_weekend")[0])
	assert.Equal(t, "Winter", get("ordered_season")[0])

	assert.Equal(t, 0.0, get("ordered_dayofweek")[1])
	assert.Equal(t, 0.0, get("ordered_is_weekend")[1])
	assert.Equal(t, "Spring", get("ordered_season")[1])

	assert.Nil(t, get("ordered_year")[2], "unparseable dates derive missing cells")
	assert.Nil(t, get("ordered_season")[2])
}

func TestDateFeaturesMissingColumn(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"a"},
		map[string][]table.Cell{"a": {1.0}})

	out, log := result(t, New(tbl).DateFeatures("ordered"))

	assert.Equal(t, []string{"a"}, out.Columns())
	assert.Contains(t, log[0], "'ordered' 컬럼을 찾을 수 없습니다")
}

func TestNormalizeNames(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"Customer ID", " Invoice-Date ", "amount"},
		map[string][]table.Cell{
			"Customer ID":    {"c1"},
			" Invoice-Date ": {"2024-01-01"},
			"amount":         {10.0},
		})

	out, log := result(t, New(tbl).NormalizeNames())

	assert.Equal(t, []string{"customer_id", "invoice_date", "amount"}, out.Columns())
	assert.Contains(t, log[0], "컬럼명 정규화 완료")
}

func TestResultLogsShapeSummary(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"id", "value"},
		map[string][]table.Cell{
			"id":    {1.0, 1.0, 2.0},
			"value": {"a", "a", "b"},
		})

	out, log := result(t, New(tbl).RemoveDuplicates())

	assert.Equal(t, 2, out.RowCount())
	require.NotEmpty(t, log)
	assert.Contains(t, log[len(log)-1], "(3, 2) → (2, 2)")
}

func TestChainLeavesSourceUntouched(t *testing.T) {
	tbl := fixtureTable(t,
		[]string{"amount"},
		map[string][]table.Cell{"amount": {1.0, nil, 1.0}})

	_, _ = result(t, New(tbl).FillMissing(MissingAuto).RemoveDuplicates())

	col, err := tbl.Column("amount")
	require.NoError(t, err)
	assert.Nil(t, col[1], "the source table is never modified")
	assert.Equal(t, 3, tbl.RowCount())
}
