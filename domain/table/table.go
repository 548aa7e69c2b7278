package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
)

// Cell is a single value in a table. A nil Cell is a missing value.
// Cells are heterogeneous: loaders produce float64 for numeric-looking
// input and string for everything else, but any scalar is accepted.
type Cell interface{}

// Table is an immutable, column-oriented tabular dataset. Every column has
// a name and exactly RowCount values. Operations that reshape a table
// (Select, renames) always return a new Table and never touch the source.
type Table struct {
	columns []string
	cells   map[string][]Cell
	rows    int
}

// New builds a table from named columns. Column order is preserved as
// given and becomes the table's canonical order. All columns must have the
// same length.
func New(columns []string, cells map[string][]Cell) (*Table, error) {
	if len(columns) == 0 {
		return nil, core.ErrNoColumns
	}

	rows := -1
	for _, name := range columns {
		col, ok := cells[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
		}
		if rows == -1 {
			rows = len(col)
		} else if len(col) != rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d",
				core.ErrLengthMismatch, name, len(col), rows)
		}
	}

	stored := make(map[string][]Cell, len(columns))
	order := make([]string, len(columns))
	copy(order, columns)
	for _, name := range columns {
		col := make([]Cell, rows)
		copy(col, cells[name])
		stored[name] = col
	}

	return &Table{columns: order, cells: stored, rows: rows}, nil
}

// Columns returns the column names in canonical order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return t.rows
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// Column returns the values of the named column. The returned slice is
// shared with the table and must be treated as read-only.
func (t *Table) Column(name string) ([]Cell, error) {
	col, ok := t.cells[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
	}
	return col, nil
}

// Select returns a new table containing only the requested columns, in the
// requested order, renamed according to rename (old name -> new name).
// The source table is left untouched.
func (t *Table) Select(names []string, rename map[string]string) (*Table, error) {
	outNames := make([]string, 0, len(names))
	outCells := make(map[string][]Cell, len(names))

	for _, name := range names {
		col, ok := t.cells[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
		}
		outName := name
		if renamed, ok := rename[name]; ok {
			outName = renamed
		}
		copied := make([]Cell, len(col))
		copy(copied, col)
		outNames = append(outNames, outName)
		outCells[outName] = copied
	}

	return New(outNames, outCells)
}

// IsMissing reports whether a cell is a missing value. Empty and
// whitespace-only strings count as missing, matching how CSV input
// represents absent cells.
func IsMissing(c Cell) bool {
	if c == nil {
		return true
	}
	if s, ok := c.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Float attempts to interpret a cell as a number. String cells are parsed
// so that numeric CSV columns behave like numeric ones.
func Float(c Cell) (float64, bool) {
	switch v := c.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders a cell for display and uniqueness counting.
func String(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
