// Package preprocess cleans a raw table before mapping or analysis:
// missing-value imputation, duplicate removal, outlier handling and
// date-derived feature columns. Every step appends a human-readable
// entry to a processing log that is returned alongside the result.
package preprocess

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// MissingStrategy selects how FillMissing treats absent cells.
type MissingStrategy string

const (
	// MissingAuto imputes per column: median for numeric columns, mode
	// for categorical ones ("Unknown" when no mode exists).
	MissingAuto MissingStrategy = "auto"
	// MissingDrop removes every row that has at least one missing cell.
	MissingDrop MissingStrategy = "drop"
)

// OutlierMethod selects how HandleOutliers treats extreme values.
type OutlierMethod string

const (
	// OutlierIQR winsorizes values outside Q1-1.5*IQR .. Q3+1.5*IQR,
	// clamping them to the bound instead of dropping the row.
	OutlierIQR OutlierMethod = "iqr"
	// OutlierZScore drops rows whose value is more than three standard
	// deviations from the column mean.
	OutlierZScore OutlierMethod = "zscore"
)

const (
	highMissingWarnPct = 50.0
	iqrMultiplier      = 1.5
	zscoreLimit        = 3.0
)

// Preprocessor applies cleaning steps to a mutable copy of a table.
// Steps chain; Result materializes the cleaned table and the log.
type Preprocessor struct {
	columns  []string
	cells    map[string][]table.Cell
	log      []string
	origRows int
	origCols int
}

// New starts a preprocessing chain over a copy of t. The source table is
// never modified.
func New(t *table.Table) *Preprocessor {
	columns := t.Columns()
	cells := make(map[string][]table.Cell, len(columns))
	for _, name := range columns {
		col, _ := t.Column(name)
		copied := make([]table.Cell, len(col))
		copy(copied, col)
		cells[name] = copied
	}
	return &Preprocessor{
		columns:  columns,
		cells:    cells,
		origRows: t.RowCount(),
		origCols: t.ColumnCount(),
	}
}

// FillMissing handles missing cells according to strategy. With
// MissingAuto, columns that are entirely missing are left alone with a
// warning, and columns missing more than half their values are flagged
// before imputation.
func (p *Preprocessor) FillMissing(strategy MissingStrategy) *Preprocessor {
	initial := p.missingCount()

	switch strategy {
	case MissingDrop:
		p.filterRows(func(row int) bool {
			for _, name := range p.columns {
				if table.IsMissing(p.cells[name][row]) {
					return false
				}
			}
			return true
		})

	default:
		for _, name := range p.columns {
			col := p.cells[name]
			if len(col) == 0 {
				continue
			}
			missing := countMissing(col)
			pct := float64(missing) / float64(len(col)) * 100

			if missing == len(col) {
				p.logf("⚠️ '%s' 컬럼은 100%% 결측치입니다. 컬럼 삭제를 고려하세요.", name)
				continue
			}
			if pct > highMissingWarnPct {
				p.logf("⚠️ '%s' 컬럼의 결측치 비율이 %.1f%%로 매우 높습니다.", name, pct)
			}
			if missing == 0 {
				continue
			}

			if p.isNumeric(name) {
				median, err := stats.Median(p.floats(name))
				if err != nil {
					continue
				}
				for i := range col {
					if table.IsMissing(col[i]) {
						col[i] = median
					}
				}
			} else {
				fill := p.mode(name)
				if fill == "" {
					fill = "Unknown"
				}
				for i := range col {
					if table.IsMissing(col[i]) {
						col[i] = fill
					}
				}
			}
		}
	}

	p.logf("✅ 결측치 처리: %d개 → %d개", initial, p.missingCount())
	return p
}

// RemoveDuplicates drops rows whose cells are all identical to an
// earlier row, keeping the first occurrence.
func (p *Preprocessor) RemoveDuplicates() *Preprocessor {
	seen := make(map[string]bool, p.rowCount())
	removed := p.filterRows(func(row int) bool {
		var b strings.Builder
		for _, name := range p.columns {
			b.WriteString(table.String(p.cells[name][row]))
			b.WriteByte(0x1f)
		}
		key := b.String()
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	if removed > 0 {
		p.logf("✅ 중복 행 제거: %d개", removed)
	}
	return p
}

// HandleOutliers treats extreme values in the given columns, or in every
// numeric column when none are named. Columns whose IQR is zero are
// skipped: all values are effectively identical.
func (p *Preprocessor) HandleOutliers(method OutlierMethod, columns ...string) *Preprocessor {
	if len(columns) == 0 {
		for _, name := range p.columns {
			if p.isNumeric(name) {
				columns = append(columns, name)
			}
		}
	}

	for _, name := range columns {
		if _, ok := p.cells[name]; !ok || !p.isNumeric(name) {
			continue
		}
		switch method {
		case OutlierZScore:
			p.dropZScoreOutliers(name)
		default:
			p.clampIQROutliers(name)
		}
	}
	return p
}

func (p *Preprocessor) clampIQROutliers(name string) {
	values := p.floats(name)
	if len(values) == 0 {
		return
	}
	quartiles, err := stats.Quartile(stats.Float64Data(values))
	if err != nil {
		return
	}
	iqr := quartiles.Q3 - quartiles.Q1
	if iqr == 0 {
		p.logf("ℹ️ '%s' 컬럼의 IQR이 0입니다 (모든 값이 유사). 이상치 처리를 건너뜁니다.", name)
		return
	}
	lower := quartiles.Q1 - iqrMultiplier*iqr
	upper := quartiles.Q3 + iqrMultiplier*iqr

	adjusted := 0
	col := p.cells[name]
	for i := range col {
		v, ok := table.Float(col[i])
		if !ok {
			continue
		}
		switch {
		case v < lower:
			col[i] = lower
			adjusted++
		case v > upper:
			col[i] = upper
			adjusted++
		}
	}
	if adjusted > 0 {
		p.logf("✅ '%s' 이상치 처리 (IQR): %d개 조정", name, adjusted)
	}
}

func (p *Preprocessor) dropZScoreOutliers(name string) {
	values := p.floats(name)
	if len(values) < 2 {
		return
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 {
		return
	}

	col := p.cells[name]
	dropped := p.filterRows(func(row int) bool {
		v, ok := table.Float(col[row])
		if !ok {
			return true
		}
		z := (v - mean) / std
		if z < 0 {
			z = -z
		}
		return z <= zscoreLimit
	})
	if dropped > 0 {
		p.logf("✅ '%s' 이상치 제거 (Z-score): %d개", name, dropped)
	}
}

// ConvertDates replaces the cells of the named columns with time.Time
// values. A column converts only when every non-missing cell parses as a
// date; otherwise it is left untouched and the failure is logged.
func (p *Preprocessor) ConvertDates(columns ...string) *Preprocessor {
	for _, name := range columns {
		col, ok := p.cells[name]
		if !ok {
			continue
		}

		converted := make([]table.Cell, len(col))
		failed := 0
		for i, c := range col {
			if table.IsMissing(c) {
				continue
			}
			t, ok := table.ParseDate(c)
			if !ok {
				failed++
				continue
			}
			converted[i] = t
		}

		if failed > 0 {
			p.logf("⚠️ '%s' 날짜 변환 실패: %d개 값을 날짜로 해석할 수 없습니다.", name, failed)
			continue
		}
		p.cells[name] = converted
		p.logf("✅ '%s' 날짜 형식 변환 완료", name)
	}
	return p
}

// DateFeatures derives calendar columns from a date column: year, month,
// day, day of week (Monday = 0), a weekend flag and the season. Cells
// that do not parse as dates yield missing derived cells.
func (p *Preprocessor) DateFeatures(column string) *Preprocessor {
	col, ok := p.cells[column]
	if !ok {
		p.logf("⚠️ '%s' 컬럼을 찾을 수 없습니다.", column)
		return p
	}

	n := len(col)
	years := make([]table.Cell, n)
	months := make([]table.Cell, n)
	days := make([]table.Cell, n)
	dows := make([]table.Cell, n)
	weekends := make([]table.Cell, n)
	seasons := make([]table.Cell, n)

	for i, c := range col {
		t, ok := table.ParseDate(c)
		if !ok {
			continue
		}
		dow := (int(t.Weekday()) + 6) % 7
		years[i] = float64(t.Year())
		months[i] = float64(int(t.Month()))
		days[i] = float64(t.Day())
		dows[i] = float64(dow)
		if dow >= 5 {
			weekends[i] = float64(1)
		} else {
			weekends[i] = float64(0)
		}
		seasons[i] = season(t.Month())
	}

	p.setColumn(column+"_year", years)
	p.setColumn(column+"_month", months)
	p.setColumn(column+"_day", days)
	p.setColumn(column+"_dayofweek", dows)
	p.setColumn(column+"_is_weekend", weekends)
	p.setColumn(column+"_season", seasons)

	p.logf("✅ '%s'에서 날짜 파생 변수 생성 완료", column)
	return p
}

func season(m time.Month) string {
	switch {
	case m >= time.March && m <= time.May:
		return "Spring"
	case m >= time.June && m <= time.August:
		return "Summer"
	case m >= time.September && m <= time.November:
		return "Fall"
	default:
		return "Winter"
	}
}

// NormalizeNames lowercases column names, trims surrounding whitespace
// and replaces spaces and hyphens with underscores. Names that collide
// after normalization get a numeric suffix to stay unique.
func (p *Preprocessor) NormalizeNames() *Preprocessor {
	used := make(map[string]bool, len(p.columns))
	renamed := make([]string, len(p.columns))
	changed := false

	for i, name := range p.columns {
		normalized := strings.TrimSpace(strings.ToLower(name))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		normalized = strings.ReplaceAll(normalized, "-", "_")
		for n := 1; used[normalized]; n++ {
			normalized = fmt.Sprintf("%s.%d", normalized, n)
		}
		used[normalized] = true
		renamed[i] = normalized
		if normalized != name {
			changed = true
		}
	}
	if !changed {
		return p
	}

	cells := make(map[string][]table.Cell, len(p.columns))
	for i, name := range p.columns {
		cells[renamed[i]] = p.cells[name]
	}
	p.columns = renamed
	p.cells = cells
	p.logf("✅ 컬럼명 정규화 완료 (소문자 변환)")
	return p
}

// Result materializes the cleaned table and returns it with the
// processing log, closed by a before/after shape summary.
func (p *Preprocessor) Result() (*table.Table, []string, error) {
	p.logf("📊 전처리 요약: (%d, %d) → (%d, %d)",
		p.origRows, p.origCols, p.rowCount(), len(p.columns))

	t, err := table.New(p.columns, p.cells)
	if err != nil {
		return nil, p.log, err
	}
	return t, p.log, nil
}

// setColumn appends a derived column, or replaces it when a column of
// that name already exists.
func (p *Preprocessor) setColumn(name string, col []table.Cell) {
	if _, ok := p.cells[name]; !ok {
		p.columns = append(p.columns, name)
	}
	p.cells[name] = col
}

func (p *Preprocessor) logf(format string, args ...interface{}) {
	p.log = append(p.log, fmt.Sprintf(format, args...))
}

func (p *Preprocessor) rowCount() int {
	if len(p.columns) == 0 {
		return 0
	}
	return len(p.cells[p.columns[0]])
}

func (p *Preprocessor) missingCount() int {
	total := 0
	for _, name := range p.columns {
		total += countMissing(p.cells[name])
	}
	return total
}

func countMissing(col []table.Cell) int {
	missing := 0
	for _, c := range col {
		if table.IsMissing(c) {
			missing++
		}
	}
	return missing
}

// isNumeric reports whether every non-missing cell of the column parses
// as a number, with at least one such cell present.
func (p *Preprocessor) isNumeric(name string) bool {
	seen := 0
	for _, c := range p.cells[name] {
		if table.IsMissing(c) {
			continue
		}
		if _, ok := table.Float(c); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}

func (p *Preprocessor) floats(name string) []float64 {
	col := p.cells[name]
	out := make([]float64, 0, len(col))
	for _, c := range col {
		if table.IsMissing(c) {
			continue
		}
		if v, ok := table.Float(c); ok {
			out = append(out, v)
		}
	}
	return out
}

// mode returns the most frequent non-missing display value, breaking
// ties by the lexicographically smallest value. Empty when the column
// has no non-missing cells.
func (p *Preprocessor) mode(name string) string {
	counts := make(map[string]int)
	for _, c := range p.cells[name] {
		if table.IsMissing(c) {
			continue
		}
		counts[table.String(c)]++
	}
	if len(counts) == 0 {
		return ""
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)

	best := values[0]
	for _, v := range values[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

// filterRows keeps only the rows for which keep returns true and reports
// how many rows were removed.
func (p *Preprocessor) filterRows(keep func(row int) bool) int {
	n := p.rowCount()
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == n {
		return 0
	}
	for name, col := range p.cells {
		out := make([]table.Cell, len(idx))
		for j, i := range idx {
			out[j] = col[i]
		}
		p.cells[name] = out
	}
	return n - len(idx)
}
