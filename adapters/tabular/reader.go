// Package tabular reads uploaded CSV and Excel files into domain tables.
// Values are coerced on the way in: numeric-looking cells become float64,
// blanks become nil, everything else stays a string.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
)

// Read loads tabular data, dispatching on the file extension. CSV and
// Excel (.xlsx, .xls) are supported.
func Read(r io.Reader, filename string) (*table.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xls":
		return ReadExcel(r)
	default:
		return nil, apperrors.UnsupportedFormat(ext)
	}
}

// ReadFile loads tabular data from a path.
func ReadFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path)
}

// ReadCSV parses CSV input. Files that are not valid UTF-8 are retried as
// EUC-KR / CP949, the dominant legacy encoding of Korean exports.
func ReadCSV(r io.Reader) (*table.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if !utf8.Valid(raw) {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), korean.EUCKR.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("csv is neither UTF-8 nor EUC-KR: %w", err)
		}
		log.Printf("[Tabular] CSV decoded as EUC-KR (%d bytes)", len(raw))
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return fromRows(rows)
}

// ReadExcel parses the first sheet of an Excel workbook.
func ReadExcel(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook: %w", core.ErrEmptyTable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return fromRows(rows)
}

// fromRows converts a header row plus data rows into a Table. Short rows
// are padded with missing cells; long rows are clipped to the header
// width. Blank or duplicate header names are disambiguated so every
// column stays addressable.
func fromRows(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("input: %w", core.ErrEmptyTable)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", core.ErrInsufficientData)
	}

	columns := headerNames(rows[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("header: %w", core.ErrNoColumns)
	}

	cells := make(map[string][]table.Cell, len(columns))
	for _, name := range columns {
		cells[name] = make([]table.Cell, 0, len(rows)-1)
	}

	for _, row := range rows[1:] {
		for i, name := range columns {
			if i >= len(row) {
				cells[name] = append(cells[name], nil)
				continue
			}
			cells[name] = append(cells[name], coerce(row[i]))
		}
	}

	t, err := table.New(columns, cells)
	if err != nil {
		return nil, err
	}
	log.Printf("[Tabular] loaded %d rows x %d columns", t.RowCount(), t.ColumnCount())
	return t, nil
}

func headerNames(header []string) []string {
	names := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names = append(names, name)
	}
	return names
}

// coerce maps a raw cell to its typed form: blank to nil, numeric to
// float64, anything else to the trimmed string.
func coerce(raw string) table.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if f, ok := table.Float(trimmed); ok {
		return f
	}
	return trimmed
}
