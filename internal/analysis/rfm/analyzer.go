// Package rfm segments e-commerce customers by Recency, Frequency and
// Monetary value: per-customer metrics from transaction rows, k-means
// clustering on the scaled metrics, and readable segment names derived
// from each cluster's position relative to the others.
package rfm

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// Standard column names of a mapped e-commerce table.
const (
	colCustomer = "customerid"
	colDate     = "invoicedate"
	colQuantity = "quantity"
	colPrice    = "unitprice"
)

const (
	defaultMinClusters = 3
	defaultMaxClusters = 8

	// kmeansRestarts independent initializations per k; the run with the
	// lowest inertia wins. Restarts share one seeded source, so the whole
	// pipeline is deterministic.
	kmeansRestarts      = 10
	kmeansMaxIterations = 100
	randomSeed          = 42
)

// Metrics is one customer's RFM triple. Recency is days since the last
// purchase relative to the reference date; Frequency is the transaction
// count; Monetary is the summed quantity x unit price.
type Metrics struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
}

// Segment is a customer's metrics plus their assigned cluster.
type Segment struct {
	Metrics
	Cluster int    `json:"cluster"`
	Name    string `json:"name"`
}

// ClusterSummary aggregates one cluster: size, share of customers, and
// mean unscaled RFM values.
type ClusterSummary struct {
	Cluster       int     `json:"cluster"`
	Name          string  `json:"name"`
	Customers     int     `json:"customers"`
	Share         float64 `json:"share"`
	MeanRecency   float64 `json:"mean_recency"`
	MeanFrequency float64 `json:"mean_frequency"`
	MeanMonetary  float64 `json:"mean_monetary"`
}

// KSelection records the evaluation of one candidate cluster count.
type KSelection struct {
	K          int     `json:"k"`
	Silhouette float64 `json:"silhouette"`
	Inertia    float64 `json:"inertia"`
}

// Result is the full segmentation output.
type Result struct {
	ReferenceDate time.Time        `json:"reference_date"`
	K             int              `json:"k"`
	Selection     []KSelection     `json:"selection"`
	Segments      []Segment        `json:"segments"`
	Clusters      []ClusterSummary `json:"clusters"`
}

// Customer looks up one customer's segment.
func (r *Result) Customer(id string) (Segment, bool) {
	for _, s := range r.Segments {
		if s.CustomerID == id {
			return s, true
		}
	}
	return Segment{}, false
}

// Analyzer runs RFM segmentation over a mapped e-commerce table. The
// cluster-count range is bounded by the customer count at run time.
type Analyzer struct {
	minK int
	maxK int
}

// NewAnalyzer uses the default cluster range [3, 8].
func NewAnalyzer() *Analyzer {
	return &Analyzer{minK: defaultMinClusters, maxK: defaultMaxClusters}
}

// NewAnalyzerWithRange bounds the candidate cluster counts explicitly.
func NewAnalyzerWithRange(minK, maxK int) (*Analyzer, error) {
	if minK < 2 || maxK < minK {
		return nil, fmt.Errorf("invalid cluster range [%d, %d]", minK, maxK)
	}
	return &Analyzer{minK: minK, maxK: maxK}, nil
}

// Analyze computes per-customer metrics, selects a cluster count by
// silhouette score, clusters, and names each cluster. The reference date
// may be zero, in which case it defaults to the day after the latest
// transaction.
func (a *Analyzer) Analyze(t *table.Table, reference time.Time) (*Result, error) {
	metrics, reference, err := a.Metrics(t, reference)
	if err != nil {
		return nil, err
	}

	points := scale(metrics)

	k, selection, err := a.selectClusterCount(points)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(randomSeed))
	labels, _ := cluster(points, k, rng)

	segments := make([]Segment, len(metrics))
	for i, m := range metrics {
		segments[i] = Segment{Metrics: m, Cluster: labels[i]}
	}

	summaries := summarize(segments, k)
	names := assignNames(summaries)
	for i := range summaries {
		summaries[i].Name = names[summaries[i].Cluster]
	}
	for i := range segments {
		segments[i].Name = names[segments[i].Cluster]
	}

	log.Printf("[RFM] segmented %d customers into %d clusters", len(segments), k)

	return &Result{
		ReferenceDate: reference,
		K:             k,
		Selection:     selection,
		Segments:      segments,
		Clusters:      summaries,
	}, nil
}

// Metrics computes the per-customer RFM triples from a mapped table.
// Rows with unparseable dates or missing customer IDs are skipped;
// customers whose total monetary value is not positive are dropped
// (returns and corrections net out below zero).
func (a *Analyzer) Metrics(t *table.Table, reference time.Time) ([]Metrics, time.Time, error) {
	for _, col := range []string{colCustomer, colDate, colQuantity, colPrice} {
		if !t.HasColumn(col) {
			return nil, time.Time{}, fmt.Errorf("%w: %q", core.ErrMissingRequiredFields, col)
		}
	}

	customers, err := t.Column(colCustomer)
	if err != nil {
		return nil, time.Time{}, err
	}
	dates, err := t.Column(colDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	quantities, err := t.Column(colQuantity)
	if err != nil {
		return nil, time.Time{}, err
	}
	prices, err := t.Column(colPrice)
	if err != nil {
		return nil, time.Time{}, err
	}

	type accum struct {
		last     time.Time
		count    int
		monetary float64
	}
	byCustomer := make(map[string]*accum)

	var latest time.Time
	parsedRows := 0
	for i := 0; i < t.RowCount(); i++ {
		id := table.String(customers[i])
		if table.IsMissing(customers[i]) || id == "" {
			continue
		}
		when, ok := table.ParseDate(dates[i])
		if !ok {
			continue
		}
		parsedRows++

		qty, _ := table.Float(quantities[i])
		price, _ := table.Float(prices[i])

		acc := byCustomer[id]
		if acc == nil {
			acc = &accum{}
			byCustomer[id] = acc
		}
		if when.After(acc.last) {
			acc.last = when
		}
		acc.count++
		acc.monetary += qty * price

		if when.After(latest) {
			latest = when
		}
	}

	if parsedRows == 0 {
		return nil, time.Time{}, fmt.Errorf("%w: no row has a parseable %q value",
			core.ErrDateConversion, colDate)
	}

	if reference.IsZero() {
		reference = latest.AddDate(0, 0, 1)
	}

	metrics := make([]Metrics, 0, len(byCustomer))
	for id, acc := range byCustomer {
		if acc.monetary <= 0 {
			continue
		}
		recency := int(reference.Sub(acc.last).Hours() / 24)
		metrics = append(metrics, Metrics{
			CustomerID: id,
			Recency:    recency,
			Frequency:  acc.count,
			Monetary:   acc.monetary,
		})
	}

	if len(metrics) == 0 {
		return nil, time.Time{}, fmt.Errorf("%w: every customer has non-positive monetary value",
			core.ErrInsufficientData)
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].CustomerID < metrics[j].CustomerID
	})

	return metrics, reference, nil
}

// scale maps metrics into cluster space: log1p to tame the heavy right
// tails, then per-feature standardization.
func scale(metrics []Metrics) [][]float64 {
	n := len(metrics)
	features := make([][]float64, 3)
	for f := range features {
		features[f] = make([]float64, n)
	}
	for i, m := range metrics {
		features[0][i] = math.Log1p(float64(m.Recency))
		features[1][i] = math.Log1p(float64(m.Frequency))
		features[2][i] = math.Log1p(m.Monetary)
	}

	for f := range features {
		mean, std := stat.MeanStdDev(features[f], nil)
		for i := range features[f] {
			if std == 0 || math.IsNaN(std) {
				features[f][i] = 0
				continue
			}
			features[f][i] = (features[f][i] - mean) / std
		}
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = []float64{features[0][i], features[1][i], features[2][i]}
	}
	return points
}

// selectClusterCount evaluates every candidate k in the configured range
// and picks the one with the best silhouette score. The range is clipped
// to the number of customers; fewer customers than the minimum is an
// error the caller surfaces to the user.
func (a *Analyzer) selectClusterCount(points [][]float64) (int, []KSelection, error) {
	n := len(points)
	if n < a.minK {
		return 0, nil, fmt.Errorf("%w: %d customers, need at least %d for clustering",
			core.ErrInsufficientData, n, a.minK)
	}

	maxK := a.maxK
	if maxK > n-1 {
		maxK = n - 1
		log.Printf("[RFM] clipping max clusters to %d (customer count %d)", maxK, n)
	}
	if maxK < a.minK {
		maxK = a.minK
	}

	rng := rand.New(rand.NewSource(randomSeed))

	var selection []KSelection
	bestK, bestScore := a.minK, math.Inf(-1)
	for k := a.minK; k <= maxK; k++ {
		labels, inertia := cluster(points, k, rng)
		score := silhouette(points, labels, k)
		selection = append(selection, KSelection{K: k, Silhouette: score, Inertia: inertia})
		if score > bestScore {
			bestScore = score
			bestK = k
		}
	}

	return bestK, selection, nil
}

// cluster runs k-means with k-means++ seeding, keeping the best of
// several restarts by inertia.
func cluster(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	bestInertia := math.Inf(1)
	var bestLabels []int

	for restart := 0; restart < kmeansRestarts; restart++ {
		labels, inertia := lloyd(points, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return bestLabels, bestInertia
}

func lloyd(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := floats.Distance(p, centroid, 2); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			counts[labels[i]]++
			floats.Add(next[labels[i]], p)
		}
		for c := range next {
			if counts[c] == 0 {
				// Re-seed emptied centroids from a random point.
				copy(next[c], points[rng.Intn(len(points))])
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}
		centroids = next

		if !changed && iter > 0 {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}
	return labels, inertia
}

// seedCentroids implements k-means++ initialization: spread the starting
// centroids proportionally to squared distance from those already chosen.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := make([]float64, len(points[0]))
	copy(first, points[rng.Intn(len(points))])
	centroids = append(centroids, first)

	for len(centroids) < k {
		weights := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(p, c, 2); d < nearest {
					nearest = d
				}
			}
			weights[i] = nearest * nearest
			total += weights[i]
		}

		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, w := range weights {
				acc += w
				if acc >= target {
					pick = i
					break
				}
			}
		} else {
			pick = rng.Intn(len(points))
		}

		next := make([]float64, len(points[pick]))
		copy(next, points[pick])
		centroids = append(centroids, next)
	}
	return centroids
}

// silhouette is the mean silhouette coefficient over all points. Points
// in singleton clusters contribute zero.
func silhouette(points [][]float64, labels []int, k int) float64 {
	n := len(points)
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	for i, p := range points {
		if counts[labels[i]] <= 1 {
			continue
		}

		sums := make([]float64, k)
		for j, q := range points {
			if i == j {
				continue
			}
			sums[labels[j]] += floats.Distance(p, q, 2)
		}

		a := sums[labels[i]] / float64(counts[labels[i]]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == labels[i] || counts[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(counts[c]); mean < b {
				b = mean
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}

// summarize computes per-cluster sizes and mean unscaled RFM values.
func summarize(segments []Segment, k int) []ClusterSummary {
	summaries := make([]ClusterSummary, k)
	for c := range summaries {
		summaries[c].Cluster = c
	}

	for _, s := range segments {
		sum := &summaries[s.Cluster]
		sum.Customers++
		sum.MeanRecency += float64(s.Recency)
		sum.MeanFrequency += float64(s.Frequency)
		sum.MeanMonetary += s.Monetary
	}

	for c := range summaries {
		sum := &summaries[c]
		if sum.Customers == 0 {
			continue
		}
		n := float64(sum.Customers)
		sum.MeanRecency /= n
		sum.MeanFrequency /= n
		sum.MeanMonetary /= n
		sum.Share = n / float64(len(segments)) * 100
	}
	return summaries
}

// Segment display names.
const (
	SegmentVIP     = "VIP"
	SegmentLoyal   = "Loyal"
	SegmentAtRisk  = "At Risk"
	SegmentNew     = "New"
	SegmentDormant = "Dormant"
)

// assignNames labels clusters by where their mean R/F/M sits relative to
// the median across clusters. Low recency is good (bought recently); high
// frequency and monetary are good.
func assignNames(summaries []ClusterSummary) map[int]string {
	recencies := make([]float64, 0, len(summaries))
	frequencies := make([]float64, 0, len(summaries))
	monetaries := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		recencies = append(recencies, s.MeanRecency)
		frequencies = append(frequencies, s.MeanFrequency)
		monetaries = append(monetaries, s.MeanMonetary)
	}
	medR := median(recencies)
	medF := median(frequencies)
	medM := median(monetaries)

	names := make(map[int]string, len(summaries))
	for _, s := range summaries {
		recent := s.MeanRecency < medR
		frequent := s.MeanFrequency > medF
		valuable := s.MeanMonetary > medM

		var name string
		switch {
		case recent && frequent && valuable:
			name = SegmentVIP
		case recent && (frequent || valuable):
			name = SegmentLoyal
		case !recent && frequent && valuable:
			name = SegmentAtRisk
		case recent && !frequent:
			name = SegmentNew
		case !recent && !frequent:
			name = SegmentDormant
		default:
			name = fmt.Sprintf("Other (cluster %d)", s.Cluster)
		}
		names[s.Cluster] = name
	}
	return names
}

// median with the midpoint convention for even counts.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
