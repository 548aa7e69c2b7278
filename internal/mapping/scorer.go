package mapping

import (
	"math"

	"github.com/JungMoonYoung/auto-insight-platform/domain/mapping"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
)

// Type-inference scores on the 0-100 confidence scale.
const (
	scoreHigh       = 90
	scoreMediumHigh = 80
	scoreMedium     = 70
	scoreMediumLow  = 60
	scoreLow        = 30
)

// Text length tiers (mean characters).
const (
	textLengthLong   = 50
	textLengthMedium = 20
)

// Rating columns live on a 0-10 scale (stars, points out of ten).
const (
	ratingMin = 0
	ratingMax = 10
)

// Score converts a column profile into a confidence per semantic type.
// Priority when several types plausibly apply:
//
//  1. Date wins outright. A date-like column that is also unique keeps a
//     small residual id score: order numbers embedding a date
//     ("2024-01-01-001") are a real pattern.
//  2. Numeric: high numeric score; rating only when the observed range
//     fits the 0-10 scale; id either high (unique) or scaled by the
//     unique ratio.
//  3. Otherwise text, tiered by mean length; string identifiers score
//     lower than numeric ones.
//
// Score is a pure function of one profile: identical input gives
// identical output, with no table access.
func Score(p mapping.ColumnProfile) mapping.TypeScores {
	scores := mapping.TypeScores{
		schema.TypeID:      0,
		schema.TypeDate:    0,
		schema.TypeNumeric: 0,
		schema.TypeRating:  0,
		schema.TypeText:    0,
	}

	switch {
	case p.IsDate:
		scores[schema.TypeDate] = scoreHigh
		if p.IsID {
			scores[schema.TypeID] = scoreLow
		}

	case p.IsNumeric:
		scores[schema.TypeNumeric] = scoreMediumHigh

		if p.NumericRange != nil &&
			p.NumericRange.Min >= ratingMin && p.NumericRange.Max <= ratingMax {
			scores[schema.TypeRating] = scoreMedium
		}

		if p.IsID {
			scores[schema.TypeID] = scoreMediumHigh
		} else {
			scores[schema.TypeID] = math.Floor(p.UniqueRatio * 50)
		}

	default:
		if p.IsID {
			scores[schema.TypeID] = scoreMedium
		} else {
			scores[schema.TypeID] = math.Floor(p.UniqueRatio * 30)
		}

		if p.AvgTextLength != nil {
			switch {
			case *p.AvgTextLength >= textLengthLong:
				scores[schema.TypeText] = scoreMediumHigh
			case *p.AvgTextLength >= textLengthMedium:
				scores[schema.TypeText] = scoreMediumLow
			default:
				scores[schema.TypeText] = scoreLow
			}
		}
	}

	return scores
}
