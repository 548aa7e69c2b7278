package mapping

import (
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
)

// minSimilarityThreshold gates name matches: below this the column is
// treated as unrelated to the catalog.
const minSimilarityThreshold = 50

// Normalize canonicalizes a column name for comparison: lower-case with
// spaces, underscores and hyphens stripped, so "Unit Price", "unit_price"
// and "UNIT-PRICE" all compare equal.
func Normalize(name string) string {
	normalized := strings.ToLower(name)
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return replacer.Replace(normalized)
}

// Similarity scores two column names on a 0-100 scale using the
// edit-distance ratio of their normalized forms.
func Similarity(a, b string) float64 {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 0
	}
	return lev.RatioForStrings(ra, rb, lev.DefaultOptions) * 100
}

// FieldNameScore is a column's best similarity against every alias of one
// standard field.
func FieldNameScore(userColumn string, field schema.Field) float64 {
	best := 0.0
	for _, alias := range field.Aliases {
		if score := Similarity(userColumn, alias); score > best {
			best = score
		}
	}
	return best
}

// BestMatch finds the standard field whose aliases best resemble the
// user's column name, across the whole catalog. Below the minimum
// threshold it reports no match ("", 0). This looks only at names, never
// at data, so it is usable on a bare header row.
func BestMatch(userColumn string, catalog schema.Catalog) (string, float64) {
	bestField := ""
	bestScore := 0.0

	for _, field := range catalog.Fields {
		if score := FieldNameScore(userColumn, field); score > bestScore {
			bestScore = score
			bestField = field.Name
		}
	}

	if bestScore < minSimilarityThreshold {
		return "", 0
	}
	return bestField, bestScore
}
