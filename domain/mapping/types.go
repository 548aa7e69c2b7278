package mapping

import (
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
)

// DType is the raw stored value kind of a column.
type DType string

const (
	DTypeNumeric DType = "numeric"
	DTypeText    DType = "text"
	DTypeMixed   DType = "mixed"
	DTypeEmpty   DType = "empty"
)

// NumericRange summarizes the non-null values of a numeric column.
type NumericRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// ColumnProfile is the statistical profile of a single column. It is pure
// data: computing one never mutates the source table, and profiles carry
// no cross-column state.
type ColumnProfile struct {
	DType        DType         `json:"dtype"`
	UniqueRatio  float64       `json:"unique_ratio"`
	MissingRatio float64       `json:"missing_ratio"`
	IsDate       bool          `json:"is_date"`
	IsNumeric    bool          `json:"is_numeric"`
	IsID         bool          `json:"is_id"`
	NumericRange *NumericRange `json:"numeric_range,omitempty"`

	// AvgTextLength is the mean string length of the date-detection
	// sample, computed once and reused by the type scorer.
	AvgTextLength *float64 `json:"avg_text_length,omitempty"`
}

// TypeScores is one column's confidence per semantic type, on a 0-100
// scale.
type TypeScores map[schema.TypeTag]float64

// Candidate is one (user column, score) pairing for a standard field that
// cleared the minimum threshold.
type Candidate struct {
	Column    string  `json:"column"`
	Combined  float64 `json:"combined"`
	NameScore float64 `json:"name_score"`
	DataScore float64 `json:"data_score"`
}

// Method identifies the scoring strategy that produced a mapping.
type Method string

const (
	MethodHybrid Method = "hybrid" // name similarity + data profile
	MethodFuzzy  Method = "fuzzy"  // name similarity only
)

// FieldMapping is the resolved assignment for one standard field: the
// winning user column, its scores, and the rejected runners-up kept for
// transparency.
type FieldMapping struct {
	UserColumn   string      `json:"user_column"`
	Confidence   float64     `json:"confidence"`
	Method       Method      `json:"method"`
	NameScore    float64     `json:"name_score"`
	DataScore    float64     `json:"data_score"`
	Alternatives []Candidate `json:"alternatives,omitempty"`
}

// Result is the final mapping handed to consumers: standard field name ->
// resolved assignment. Conflict resolution guarantees each user column
// appears in at most one assignment.
type Result struct {
	Domain Domain                  `json:"domain"`
	Fields map[string]FieldMapping `json:"fields"`
}

// Domain aliases schema.Domain so consumers of a Result need not import
// the schema package for the common case.
type Domain = schema.Domain

// Mapped returns the assignment for a standard field, if any.
func (r *Result) Mapped(field string) (FieldMapping, bool) {
	fm, ok := r.Fields[field]
	return fm, ok
}

// UserColumns returns the set of source columns claimed by the mapping.
func (r *Result) UserColumns() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for field, fm := range r.Fields {
		out[fm.UserColumn] = field
	}
	return out
}

// Validation is the structured outcome of checking a Result against its
// catalog's required fields. It is a returned value, not an error: the
// caller decides whether to block the analysis path or ask the user.
type Validation struct {
	IsValid  bool     `json:"is_valid"`
	Missing  []string `json:"missing,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// ConfidenceLevel buckets a combined score for UI consumption.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 80:
		return "high"
	case confidence >= 65:
		return "medium"
	default:
		return "low"
	}
}
