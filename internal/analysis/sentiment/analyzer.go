// Package sentiment labels mapped review tables with a lexicon-based
// polarity classifier. Keyword evidence in the text wins; an optional
// rating column breaks ties for reviews whose text is inconclusive.
package sentiment

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// Standard column names of a mapped review table. Only the text column is
// required.
const (
	colText   = "review_text"
	colRating = "rating"
)

// Rating cut-offs on the 0-10 scale. Columns rated out of 5 are doubled
// before comparison.
const (
	ratingPositiveMin = 8
	ratingNegativeMax = 4
	fiveStarScaleMax  = 5
)

const (
	defaultTopKeywords = 20
	minTokenRunes      = 2
)

// Label is a review's polarity.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Review is one classified row.
type Review struct {
	Text   string   `json:"text"`
	Rating *float64 `json:"rating,omitempty"`
	Label  Label    `json:"label"`
	Score  float64  `json:"score"`
	Tokens []string `json:"-"`
}

// Keyword is one token with its frequency.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary is the per-label breakdown.
type Summary struct {
	Total         int     `json:"total"`
	Positive      int     `json:"positive"`
	Neutral       int     `json:"neutral"`
	Negative      int     `json:"negative"`
	PositiveRatio float64 `json:"positive_ratio"`
	NeutralRatio  float64 `json:"neutral_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
	AvgScore      float64 `json:"avg_score"`
}

// Result is the full sentiment output: classified reviews, the label
// breakdown, and the most frequent tokens per label.
type Result struct {
	Reviews  []Review            `json:"reviews"`
	Summary  Summary             `json:"summary"`
	Keywords map[Label][]Keyword `json:"keywords"`
}

// positiveLexicon and negativeLexicon are matched as substrings of the
// normalized text, so Korean stems ("좋", "나쁘") hit their conjugated
// forms.
var positiveLexicon = []string{
	"좋", "최고", "훌륭", "멋지", "완벽", "추천", "만족", "감동", "재밌", "재미있",
	"유익", "효과", "대박", "강추", "짱", "친절", "깔끔", "맛있", "편하", "행복",
	"사랑", "감사", "굳", "굿", "good", "nice", "great", "excellent", "love",
}

var negativeLexicon = []string{
	"나쁘", "별로", "최악", "실망", "후회", "불만", "아쉽", "지루", "비추", "돈아깝",
	"환불", "비싸", "비쌈", "불친절", "더럽", "짜증", "최하", "노답", "망", "쓰레기",
	"느리", "답답", "bad", "worst", "terrible", "awful", "poor",
}

var stopwords = map[string]struct{}{}

func init() {
	korean := []string{
		"은", "는", "이", "가", "을", "를", "에", "의", "와", "과", "도", "으로", "로",
		"에서", "것", "수", "등", "들", "및", "더", "좀", "잘", "거", "때", "듯",
		"나", "내", "네", "니", "다", "또", "뭐", "안", "어디", "어떤", "여기",
		"왜", "요", "우리", "저", "제", "그리고", "하지만", "그래서", "너무", "정말",
		"아주", "매우", "합니다", "있습니다", "입니다", "했어요", "해요", "있어요",
	}
	english := []string{
		"the", "and", "for", "was", "are", "but", "not", "with", "this", "that",
		"very", "have", "had", "its", "it's",
	}
	for _, w := range append(korean, english...) {
		stopwords[w] = struct{}{}
	}
}

// nonWord matches everything outside ASCII word characters, whitespace
// and Hangul syllables.
var nonWord = regexp.MustCompile(`[^\w\s가-힣]`)

// Normalize lower-cases text and replaces punctuation and symbols with
// spaces.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	cleaned := nonWord.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// Tokenize splits normalized text into tokens, dropping stopwords and
// anything shorter than two runes.
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(Normalize(text)) {
		if len([]rune(word)) < minTokenRunes {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Analyzer classifies review tables.
type Analyzer struct {
	topKeywords int
}

// NewAnalyzer returns an analyzer keeping the default number of top
// keywords per label.
func NewAnalyzer() *Analyzer {
	return &Analyzer{topKeywords: defaultTopKeywords}
}

// NewAnalyzerWithTopKeywords bounds the per-label keyword list.
func NewAnalyzerWithTopKeywords(n int) *Analyzer {
	if n < 1 {
		n = defaultTopKeywords
	}
	return &Analyzer{topKeywords: n}
}

// Analyze classifies every review and aggregates the label breakdown and
// per-label keyword frequencies.
func (a *Analyzer) Analyze(t *table.Table) (*Result, error) {
	if !t.HasColumn(colText) {
		return nil, fmt.Errorf("%w: %q", core.ErrMissingRequiredFields, colText)
	}
	if t.RowCount() == 0 {
		return nil, fmt.Errorf("%w: no reviews", core.ErrInsufficientData)
	}

	texts, err := t.Column(colText)
	if err != nil {
		return nil, err
	}

	var ratings []table.Cell
	ratingScale := 1.0
	if t.HasColumn(colRating) {
		ratings, err = t.Column(colRating)
		if err != nil {
			return nil, err
		}
		// A column rated out of 5 is doubled onto the 0-10 scale.
		maxRating := 0.0
		for _, c := range ratings {
			if v, ok := table.Float(c); ok && v > maxRating {
				maxRating = v
			}
		}
		if maxRating > 0 && maxRating <= fiveStarScaleMax {
			ratingScale = 2.0
		}
	}

	reviews := make([]Review, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		text := ""
		if !table.IsMissing(texts[i]) {
			text = table.String(texts[i])
		}

		var rating *float64
		if ratings != nil {
			if v, ok := table.Float(ratings[i]); ok {
				scaled := v * ratingScale
				rating = &scaled
			}
		}

		label, score := classify(text, rating)
		reviews = append(reviews, Review{
			Text:   text,
			Rating: rating,
			Label:  label,
			Score:  score,
			Tokens: Tokenize(text),
		})
	}

	summary := summarize(reviews)
	log.Printf("[Sentiment] classified %d reviews: %d positive, %d neutral, %d negative",
		summary.Total, summary.Positive, summary.Neutral, summary.Negative)

	return &Result{
		Reviews:  reviews,
		Summary:  summary,
		Keywords: a.keywords(reviews),
	}, nil
}

// classify applies the hybrid rule: decisive keyword evidence wins, an
// available rating decides otherwise, and everything else is neutral.
func classify(text string, rating *float64) (Label, float64) {
	normalized := Normalize(text)

	positives, negatives := 0, 0
	for _, kw := range positiveLexicon {
		if strings.Contains(normalized, kw) {
			positives++
		}
	}
	for _, kw := range negativeLexicon {
		if strings.Contains(normalized, kw) {
			negatives++
		}
	}

	switch {
	case positives > negatives:
		return LabelPositive, 1.0
	case negatives > positives:
		return LabelNegative, 0.0
	}

	if rating != nil {
		switch {
		case *rating >= ratingPositiveMin:
			return LabelPositive, 1.0
		case *rating <= ratingNegativeMax:
			return LabelNegative, 0.0
		}
	}
	return LabelNeutral, 0.5
}

func summarize(reviews []Review) Summary {
	s := Summary{Total: len(reviews)}
	scoreSum := 0.0
	for _, r := range reviews {
		switch r.Label {
		case LabelPositive:
			s.Positive++
		case LabelNegative:
			s.Negative++
		default:
			s.Neutral++
		}
		scoreSum += r.Score
	}
	if s.Total > 0 {
		total := float64(s.Total)
		s.PositiveRatio = float64(s.Positive) / total * 100
		s.NeutralRatio = float64(s.Neutral) / total * 100
		s.NegativeRatio = float64(s.Negative) / total * 100
		s.AvgScore = scoreSum / total
	}
	return s
}

// keywords counts token frequencies per label and keeps the top entries,
// ordered by count descending with alphabetical tie-breaks.
func (a *Analyzer) keywords(reviews []Review) map[Label][]Keyword {
	counts := map[Label]map[string]int{
		LabelPositive: {},
		LabelNeutral:  {},
		LabelNegative: {},
	}
	for _, r := range reviews {
		for _, token := range r.Tokens {
			counts[r.Label][token]++
		}
	}

	out := make(map[Label][]Keyword, len(counts))
	for label, byWord := range counts {
		kws := make([]Keyword, 0, len(byWord))
		for word, count := range byWord {
			kws = append(kws, Keyword{Word: word, Count: count})
		}
		sort.Slice(kws, func(i, j int) bool {
			if kws[i].Count != kws[j].Count {
				return kws[i].Count > kws[j].Count
			}
			return kws[i].Word < kws[j].Word
		})
		if len(kws) > a.topKeywords {
			kws = kws[:a.topKeywords]
		}
		out[label] = kws
	}
	return out
}
