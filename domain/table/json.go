package table

import (
	"encoding/json"
)

// tableJSON is the wire form of a Table: column order plus per-column
// cell arrays. JSON numbers decode to float64, which matches how loaders
// coerce numeric cells, so a round trip preserves cell typing.
type tableJSON struct {
	Columns []string          `json:"columns"`
	Cells   map[string][]Cell `json:"cells"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{Columns: t.columns, Cells: t.cells})
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var wire tableJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	decoded, err := New(wire.Columns, wire.Cells)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}
