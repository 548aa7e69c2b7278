// Package insight turns analysis results into business-facing Korean
// findings and recommended actions with fixed, rule-based thresholds.
package insight

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/rfm"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/sentiment"
)

// Insights is the generated commentary attached to an analysis result.
type Insights struct {
	KeyFindings []string `json:"key_findings"`
	ActionItems []string `json:"action_items"`
}

const (
	dominantClusterPct  = 30.0
	churnAlertPct       = 20.0
	lowActivityRecency  = 90.0
	lowFrequency        = 3.0
	paretoAlertPct      = 60.0
	positiveHighPct     = 60.0
	positiveLowPct      = 30.0
	negativeAlertPct    = 30.0
	neutralHeavyPct     = 40.0
	fewReviews          = 50
	manyReviews         = 500
	topKeywordMentions  = 3
	topSpenderThreshold = 80.0
)

// korean groups digits the way the product's reports show won amounts.
var korean = message.NewPrinter(language.Korean)

func won(v float64) string {
	return korean.Sprintf("%.0f", v)
}

// FromRFM derives findings and action items from a segmentation result.
func FromRFM(res *rfm.Result) Insights {
	ins := Insights{
		KeyFindings: []string{},
		ActionItems: []string{},
	}
	total := len(res.Segments)
	if total == 0 {
		return ins
	}

	for _, c := range res.Clusters {
		if c.Share > dominantClusterPct {
			ins.finding("📊 전체 고객의 %.1f%% (%d명)가 '%s' 그룹에 속합니다.",
				c.Share, c.Customers, c.Name)
		}
	}

	var totalRevenue, vipRevenue float64
	var vipCount, churnCount, newCount int
	for _, c := range res.Clusters {
		revenue := c.MeanMonetary * float64(c.Customers)
		totalRevenue += revenue
		switch c.Name {
		case rfm.SegmentVIP, rfm.SegmentLoyal:
			vipCount += c.Customers
			vipRevenue += revenue
		case rfm.SegmentAtRisk, rfm.SegmentDormant:
			churnCount += c.Customers
		case rfm.SegmentNew:
			newCount += c.Customers
		}
	}

	if vipCount > 0 {
		pct := 0.0
		if totalRevenue > 0 {
			pct = vipRevenue / totalRevenue * 100
		}
		ins.finding("💎 VIP/충성 고객 %d명이 전체 매출의 %.1f%%를 차지하고 있습니다.", vipCount, pct)
		ins.action("💡 VIP/충성 고객에게 프리미엄 멤버십 혜택을 제공하여 로열티를 강화하세요.")
	}

	if churnCount > 0 {
		pct := float64(churnCount) / float64(total) * 100
		if pct > churnAlertPct {
			ins.finding("⚠️ 이탈 위험/휴면 고객이 %d명 (%.1f%%)으로 주의가 필요합니다.", churnCount, pct)
			ins.action("🎯 이탈 위험 고객에게 재참여 캠페인(할인 쿠폰, 개인화 이메일)을 실행하세요.")
		}
	}

	if newCount > 0 {
		pct := float64(newCount) / float64(total) * 100
		ins.finding("🌱 신규 고객이 %d명 (%.1f%%)으로, 온보딩이 중요한 시점입니다.", newCount, pct)
		ins.action("📧 신규 고객에게 환영 메시지와 첫 구매 인센티브를 제공하여 재구매를 유도하세요.")
	}

	var recencySum, frequencySum, spendSum float64
	monetaries := make([]float64, 0, total)
	for _, s := range res.Segments {
		recencySum += float64(s.Recency)
		frequencySum += float64(s.Frequency)
		spendSum += s.Monetary
		monetaries = append(monetaries, s.Monetary)
	}

	if avg := recencySum / float64(total); avg > lowActivityRecency {
		ins.finding("📉 평균 최근 구매일이 %.0f일 전으로, 전반적인 활성도가 낮습니다.", avg)
		ins.action("🚀 전체 고객 대상 리마케팅 캠페인을 통해 브랜드 인지도를 높이세요.")
	}

	if avg := frequencySum / float64(total); avg < lowFrequency {
		ins.finding("🔄 평균 구매 빈도가 %.1f회로 낮습니다. 재구매율 향상이 필요합니다.", avg)
		ins.action("💳 구독 서비스 또는 로열티 프로그램 도입을 고려하세요.")
	}

	ins.finding("💰 총 매출액은 %s원이며, 고객 평균 구매액은 %s원입니다.",
		won(spendSum), won(spendSum/float64(total)))

	if threshold, err := stats.Percentile(stats.Float64Data(monetaries), topSpenderThreshold); err == nil && spendSum > 0 {
		var topRevenue float64
		for _, m := range monetaries {
			if m >= threshold {
				topRevenue += m
			}
		}
		if pct := topRevenue / spendSum * 100; pct > paretoAlertPct {
			ins.finding("📈 상위 20%% 고객이 전체 매출의 %.1f%%를 차지합니다 (파레토 법칙).", pct)
			ins.action("🎁 상위 고객 맞춤형 보상 프로그램을 강화하여 이탈을 방지하세요.")
		}
	}

	return ins
}

// FromSentiment derives findings and action items from a review
// sentiment result.
func FromSentiment(res *sentiment.Result) Insights {
	ins := Insights{
		KeyFindings: []string{},
		ActionItems: []string{},
	}
	s := res.Summary
	if s.Total == 0 {
		return ins
	}

	switch {
	case s.PositiveRatio > positiveHighPct:
		ins.finding("😊 긍정적인 반응이 %.1f%%로 매우 높습니다. 전반적으로 만족도가 높습니다.", s.PositiveRatio)
		ins.action("✅ 현재의 강점을 유지하면서 긍정 요소를 마케팅에 적극 활용하세요.")
	case s.PositiveRatio < positiveLowPct:
		ins.finding("😟 긍정 반응이 %.1f%%에 불과합니다. 개선이 시급합니다.", s.PositiveRatio)
		ins.action("🚨 고객 불만사항을 즉시 파악하고 개선 계획을 수립하세요.")
	default:
		ins.finding("😐 긍정 반응이 %.1f%%로 보통 수준입니다.", s.PositiveRatio)
	}

	if s.NegativeRatio > negativeAlertPct {
		ins.finding("⚠️ 부정 리뷰가 %.1f%%로 높은 편입니다. 주의가 필요합니다.", s.NegativeRatio)
		if words := topWords(res.Keywords[sentiment.LabelNegative], topKeywordMentions); words != "" {
			ins.finding("🔍 주요 불만 키워드: %s", words)
			ins.action("📋 '%s' 관련 이슈를 우선적으로 해결하세요.", words)
		}
	}

	if words := topWords(res.Keywords[sentiment.LabelPositive], topKeywordMentions); words != "" {
		ins.finding("💎 고객이 특히 좋아하는 점: %s", words)
		ins.action("📢 '%s' 같은 강점을 홍보 포인트로 활용하세요.", words)
	}

	if s.NeutralRatio > neutralHeavyPct {
		ins.finding("🤔 중립 의견이 %.1f%%로 많습니다. 명확한 차별점이 부족할 수 있습니다.", s.NeutralRatio)
		ins.action("🎯 중립 고객을 만족 고객으로 전환할 수 있는 차별화 전략이 필요합니다.")
	}

	switch {
	case s.Total < fewReviews:
		ins.finding("📊 리뷰 개수(%d개)가 적어 통계적 신뢰도가 낮을 수 있습니다.", s.Total)
		ins.action("💬 더 많은 고객 리뷰를 수집하여 정확한 분석을 진행하세요.")
	case s.Total > manyReviews:
		ins.finding("📊 충분한 리뷰(%s개)로 신뢰도 높은 분석 결과입니다.", korean.Sprintf("%d", s.Total))
	}

	return ins
}

// topWords joins the first n keyword words, which arrive sorted by
// frequency.
func topWords(keywords []sentiment.Keyword, n int) string {
	words := make([]string, 0, n)
	for _, kw := range keywords {
		if len(words) == n {
			break
		}
		words = append(words, kw.Word)
	}
	return strings.Join(words, ", ")
}

func (i *Insights) finding(format string, args ...interface{}) {
	i.KeyFindings = append(i.KeyFindings, fmt.Sprintf(format, args...))
}

func (i *Insights) action(format string, args ...interface{}) {
	i.ActionItems = append(i.ActionItems, fmt.Sprintf(format, args...))
}
