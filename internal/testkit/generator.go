// Package testkit generates realistic synthetic datasets for demos and
// end-to-end tests. Generated tables carry raw Korean column headers so
// they exercise the full mapping pipeline, not just the analyzers.
package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// Config controls the synthetic data generator.
type Config struct {
	CustomerCount        int       `json:"customer_count"`
	ProductCount         int       `json:"product_count"`
	AvgOrdersPerCustomer float64   `json:"avg_orders_per_customer"`
	ReviewCount          int       `json:"review_count"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	Seed                 int64     `json:"seed"`
}

// DefaultConfig returns sensible defaults for a small demo dataset.
func DefaultConfig() Config {
	return Config{
		CustomerCount:        200,
		ProductCount:         30,
		AvgOrdersPerCustomer: 4.0,
		ReviewCount:          150,
		StartDate:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:              time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Seed:                 42,
	}
}

// Generator produces deterministic synthetic tables from a seeded source.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a generator. The same config always yields the
// same tables.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

var productNames = []string{
	"노트북", "무선마우스", "키보드", "모니터", "이어폰", "스피커", "충전기",
	"케이블", "웹캠", "마이크", "태블릿", "스마트워치", "외장하드", "USB허브",
	"laptop stand", "desk mat", "phone case", "power bank", "screen protector",
}

var positivePhrases = []string{
	"배송이 빠르고 품질이 정말 좋아요",
	"가격 대비 최고의 제품입니다 강추해요",
	"디자인이 깔끔하고 만족스럽습니다",
	"great quality, fast shipping, would buy again",
	"친절한 포장에 감동했어요 또 살게요",
}

var negativePhrases = []string{
	"배송이 너무 느리고 포장이 엉망이에요",
	"품질이 별로입니다 환불 요청했어요",
	"사진과 달라서 실망했습니다",
	"terrible quality, complete waste of money",
	"불량품이 왔는데 교환도 안 해주네요",
}

var neutralPhrases = []string{
	"그냥 무난한 제품입니다",
	"가격만큼 하는 것 같아요",
	"average product, nothing special",
	"아직 써보는 중이라 잘 모르겠어요",
}

// Transactions generates an order table with raw Korean headers:
// 고객ID, 주문일, 상품명, 수량, 가격. Customers place a Poisson-like
// number of orders spread over the configured date range.
func (g *Generator) Transactions() (*table.Table, error) {
	var (
		customers []table.Cell
		dates     []table.Cell
		products  []table.Cell
		quantity  []table.Cell
		price     []table.Cell
	)

	for i := 0; i < g.cfg.CustomerCount; i++ {
		customerID := fmt.Sprintf("CUST-%04d", i+1)

		// Skewed order counts: a few heavy buyers, a long tail of
		// one-off customers.
		orders := 1 + g.rng.Intn(int(g.cfg.AvgOrdersPerCustomer*2))
		if g.rng.Float64() < 0.1 {
			orders *= 3
		}

		for o := 0; o < orders; o++ {
			product := productNames[g.rng.Intn(min(g.cfg.ProductCount, len(productNames)))]

			customers = append(customers, customerID)
			dates = append(dates, g.randomDate().Format("2006-01-02"))
			products = append(products, product)
			quantity = append(quantity, float64(1+g.rng.Intn(5)))
			price = append(price, roundWon(5000+g.rng.Float64()*95000))
		}
	}

	return table.New(
		[]string{"고객ID", "주문일", "상품명", "수량", "가격"},
		map[string][]table.Cell{
			"고객ID": customers,
			"주문일":  dates,
			"상품명":  products,
			"수량":   quantity,
			"가격":   price,
		},
	)
}

// Reviews generates a review table with raw headers 리뷰, 평점, 날짜.
// Sentiment splits roughly 50/30/20 positive/negative/neutral, with
// ratings consistent with the text.
func (g *Generator) Reviews() (*table.Table, error) {
	var (
		texts   []table.Cell
		ratings []table.Cell
		dates   []table.Cell
	)

	for i := 0; i < g.cfg.ReviewCount; i++ {
		roll := g.rng.Float64()
		switch {
		case roll < 0.5:
			texts = append(texts, positivePhrases[g.rng.Intn(len(positivePhrases))])
			ratings = append(ratings, float64(8+g.rng.Intn(3)))
		case roll < 0.8:
			texts = append(texts, negativePhrases[g.rng.Intn(len(negativePhrases))])
			ratings = append(ratings, float64(1+g.rng.Intn(4)))
		default:
			texts = append(texts, neutralPhrases[g.rng.Intn(len(neutralPhrases))])
			ratings = append(ratings, float64(5+g.rng.Intn(3)))
		}
		dates = append(dates, g.randomDate().Format("2006-01-02"))
	}

	return table.New(
		[]string{"리뷰", "평점", "날짜"},
		map[string][]table.Cell{
			"리뷰": texts,
			"평점": ratings,
			"날짜": dates,
		},
	)
}

func (g *Generator) randomDate() time.Time {
	span := int(g.cfg.EndDate.Sub(g.cfg.StartDate).Hours() / 24)
	if span < 1 {
		span = 1
	}
	return g.cfg.StartDate.AddDate(0, 0, g.rng.Intn(span))
}

// roundWon snaps a price to the nearest 100 won.
func roundWon(v float64) float64 {
	return float64(int(v/100)) * 100
}
