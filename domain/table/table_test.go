package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
)

func TestNewPreservesColumnOrder(t *testing.T) {
	tbl, err := New(
		[]string{"b", "a", "c"},
		map[string][]Cell{
			"a": {1.0, 2.0},
			"b": {"x", "y"},
			"c": {nil, "z"},
		})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, tbl.Columns())
	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 3, tbl.ColumnCount())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, core.ErrNoColumns)

	_, err = New([]string{"a"}, map[string][]Cell{})
	assert.ErrorIs(t, err, core.ErrColumnNotFound)

	_, err = New(
		[]string{"a", "b"},
		map[string][]Cell{"a": {1.0, 2.0}, "b": {1.0}})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestNewCopiesInput(t *testing.T) {
	source := []Cell{"x", "y"}
	tbl, err := New([]string{"a"}, map[string][]Cell{"a": source})
	require.NoError(t, err)

	source[0] = "mutated"

	col, err := tbl.Column("a")
	require.NoError(t, err)
	assert.Equal(t, Cell("x"), col[0])
}

func TestColumnUnknown(t *testing.T) {
	tbl, err := New([]string{"a"}, map[string][]Cell{"a": {1.0}})
	require.NoError(t, err)

	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
	assert.True(t, core.IsNotFoundError(err))
	assert.False(t, tbl.HasColumn("missing"))
	assert.True(t, tbl.HasColumn("a"))
}

func TestSelectRenamesWithoutMutating(t *testing.T) {
	tbl, err := New(
		[]string{"Qty", "Price", "Note"},
		map[string][]Cell{
			"Qty":   {1.0, 2.0, 3.0},
			"Price": {9.9, 8.8, 7.7},
			"Note":  {"a", "b", "c"},
		})
	require.NoError(t, err)

	out, err := tbl.Select(
		[]string{"Price", "Qty"},
		map[string]string{"Price": "unitprice", "Qty": "quantity"})
	require.NoError(t, err)

	assert.Equal(t, []string{"unitprice", "quantity"}, out.Columns())
	assert.Equal(t, 3, out.RowCount())

	col, err := out.Column("unitprice")
	require.NoError(t, err)
	assert.Equal(t, []Cell{9.9, 8.8, 7.7}, col)

	// Source unchanged.
	assert.Equal(t, []string{"Qty", "Price", "Note"}, tbl.Columns())
	assert.True(t, tbl.HasColumn("Price"))
	assert.False(t, tbl.HasColumn("unitprice"))
}

func TestSelectUnknownColumn(t *testing.T) {
	tbl, err := New([]string{"a"}, map[string][]Cell{"a": {1.0}})
	require.NoError(t, err)

	_, err = tbl.Select([]string{"nope"}, nil)
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(nil))
	assert.True(t, IsMissing(""))
	assert.True(t, IsMissing("   "))
	assert.False(t, IsMissing("x"))
	assert.False(t, IsMissing(0.0))
}

func TestFloat(t *testing.T) {
	cases := []struct {
		in   Cell
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{int(3), 3, true},
		{int64(4), 4, true},
		{"2.25", 2.25, true},
		{" 10 ", 10, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, c := range cases {
		got, ok := Float(c.in)
		assert.Equal(t, c.ok, ok, "Float(%v)", c.in)
		if ok {
			assert.Equal(t, c.want, got, "Float(%v)", c.in)
		}
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "hello", String("hello"))
	assert.Equal(t, "1.5", String(1.5))
	assert.Equal(t, "3", String(3.0))
	assert.Equal(t, "7", String(7))
}
