package mapping

import (
	"github.com/montanaflynn/stats"

	"github.com/JungMoonYoung/auto-insight-platform/domain/mapping"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

const (
	// idUniqueRatioThreshold marks a column as identifier-like when its
	// distinct-value ratio is at least this high.
	idUniqueRatioThreshold = 0.9

	// dateSampleSize bounds date detection to a fixed sample instead of
	// the whole column. Uniqueness and missingness are exact because they
	// gate ID detection; date parsing is only a type hint, so a sample is
	// a deliberate performance/accuracy trade-off.
	dateSampleSize = 10

	// dateParseRatioThreshold is the fraction of the sample that must
	// parse as a calendar date.
	dateParseRatioThreshold = 0.7
)

// Profile computes the statistical profile of a single column. It is pure:
// the input is read-only and no cross-column state is involved. Degenerate
// input (empty, all-null, exotic cell types) yields a well-defined default
// profile rather than an error.
func Profile(cells []table.Cell) mapping.ColumnProfile {
	profile := mapping.ColumnProfile{DType: mapping.DTypeEmpty}

	total := len(cells)
	if total == 0 {
		return profile
	}

	nonNull := make([]table.Cell, 0, total)
	for _, c := range cells {
		if !table.IsMissing(c) {
			nonNull = append(nonNull, c)
		}
	}

	profile.MissingRatio = float64(total-len(nonNull)) / float64(total)

	// Exact uniqueness over the full column, not a sample: it gates ID
	// detection.
	distinct := make(map[string]struct{}, len(nonNull))
	for _, c := range nonNull {
		distinct[table.String(c)] = struct{}{}
	}
	profile.UniqueRatio = float64(len(distinct)) / float64(total)
	profile.IsID = profile.UniqueRatio >= idUniqueRatioThreshold

	if len(nonNull) == 0 {
		return profile
	}

	// Numeric detection: the column is numeric only when every non-null
	// value can be read as a number.
	numericValues := make([]float64, 0, len(nonNull))
	for _, c := range nonNull {
		if f, ok := table.Float(c); ok {
			numericValues = append(numericValues, f)
		}
	}

	switch {
	case len(numericValues) == len(nonNull):
		profile.DType = mapping.DTypeNumeric
		profile.IsNumeric = true
		profile.NumericRange = numericRange(numericValues)
	case len(numericValues) == 0:
		profile.DType = mapping.DTypeText
	default:
		profile.DType = mapping.DTypeMixed
	}

	// Date detection only applies to non-numeric columns, on a fixed
	// sample. Mean text length is computed over the same sample and
	// reused by the type scorer.
	if !profile.IsNumeric {
		sample := nonNull
		if len(sample) > dateSampleSize {
			sample = sample[:dateSampleSize]
		}

		parsed := 0
		totalLength := 0
		for _, c := range sample {
			if _, ok := table.ParseDate(c); ok {
				parsed++
			}
			totalLength += len([]rune(table.String(c)))
		}

		if float64(parsed)/float64(len(sample)) >= dateParseRatioThreshold {
			profile.IsDate = true
		}
		avg := float64(totalLength) / float64(len(sample))
		profile.AvgTextLength = &avg
	}

	return profile
}

// numericRange summarizes the non-null numeric values.
func numericRange(values []float64) *mapping.NumericRange {
	if len(values) == 0 {
		return nil
	}
	min, err := stats.Min(values)
	if err != nil {
		return nil
	}
	max, err := stats.Max(values)
	if err != nil {
		return nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	return &mapping.NumericRange{Min: min, Max: max, Mean: mean}
}
