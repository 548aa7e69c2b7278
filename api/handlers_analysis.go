package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/dataset"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/insight"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/rfm"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/sales"
	"github.com/JungMoonYoung/auto-insight-platform/internal/analysis/sentiment"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
	resolver "github.com/JungMoonYoung/auto-insight-platform/internal/mapping"
)

const (
	salesTrendWindowShort = 7
	salesTrendWindowLong  = 30
	salesTopProducts      = 10
)

// kindDomains ties each analysis kind to the schema domain its pipeline
// expects.
var kindDomains = map[dataset.AnalysisKind]schema.Domain{
	dataset.KindRFM:       schema.DomainEcommerce,
	dataset.KindSales:     schema.DomainSales,
	dataset.KindSentiment: schema.DomainReview,
}

type analysisRequest struct {
	Kind string `json:"kind"`
	// ReferenceDate anchors RFM recency; empty means the day after the
	// latest transaction.
	ReferenceDate string `json:"reference_date,omitempty"`
}

// salesReport bundles the trend, ranking and concentration views of one
// sales table into a single result document.
type salesReport struct {
	Summary       sales.Summary        `json:"summary"`
	Daily         []sales.PeriodTotal  `json:"daily"`
	Weekly        []sales.PeriodTotal  `json:"weekly"`
	Monthly       []sales.PeriodTotal  `json:"monthly"`
	MovingAvg7    []float64            `json:"moving_avg_7"`
	MovingAvg30   []float64            `json:"moving_avg_30"`
	GrowthRate    []*float64           `json:"growth_rate"`
	TopProducts   []sales.ProductTotal `json:"top_products"`
	Pareto        []sales.ParetoEntry  `json:"pareto"`
	ParetoSummary sales.ParetoSummary  `json:"pareto_summary"`
}

// handleAnalysisRun maps the dataset for the kind's domain, applies the
// mapping and executes the analyzer. An invalid mapping is a hard stop.
func (s *Server) handleAnalysisRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	var req analysisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kind := dataset.AnalysisKind(req.Kind)
	domain, ok := kindDomains[kind]
	if !ok {
		writeError(w, apperrors.InvalidInput("unknown analysis kind "+req.Kind))
		return
	}

	t, err := s.datasets.GetTable(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	rs, err := resolver.NewResolverWithConfig(domain, resolver.Config{
		NameWeight: s.cfg.Mapping.NameWeight,
		DataWeight: s.cfg.Mapping.DataWeight,
		MaxColumns: s.cfg.Mapping.MaxColumns,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := rs.Map(t)
	if err != nil {
		writeError(w, err)
		return
	}
	validation := rs.Validate(result)
	if !validation.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": errorBody{
				Code:    apperrors.CodeMappingError,
				Message: "dataset cannot be mapped for domain " + string(domain),
			},
			"validation": validation,
		})
		return
	}

	applied, err := rs.Apply(t, result)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := s.runAnalysis(kind, applied, req)
	if err != nil {
		writeError(w, err)
		return
	}

	record := &dataset.Analysis{
		ID:        core.NewAnalysisID(),
		DatasetID: id,
		Kind:      kind,
		Domain:    domain,
		Result:    doc,
		CreatedAt: core.Now(),
	}
	if err := s.analyses.Create(r.Context(), record); err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[API] dataset %s analyzed: kind=%s domain=%s analysis=%s", id, kind, domain, record.ID)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) runAnalysis(kind dataset.AnalysisKind, applied *table.Table, req analysisRequest) (json.RawMessage, error) {
	var out interface{}

	switch kind {
	case dataset.KindRFM:
		var reference time.Time
		if req.ReferenceDate != "" {
			ref, ok := table.ParseDate(req.ReferenceDate)
			if !ok {
				return nil, apperrors.InvalidInput("unparseable reference_date " + req.ReferenceDate)
			}
			reference = ref
		}
		res, err := rfm.NewAnalyzer().Analyze(applied, reference)
		if err != nil {
			return nil, apperrors.AnalysisError(string(kind), err)
		}
		out = struct {
			*rfm.Result
			Insights insight.Insights `json:"insights"`
		}{res, insight.FromRFM(res)}

	case dataset.KindSales:
		report, err := buildSalesReport(applied)
		if err != nil {
			return nil, apperrors.AnalysisError(string(kind), err)
		}
		out = report

	case dataset.KindSentiment:
		res, err := sentiment.NewAnalyzer().Analyze(applied)
		if err != nil {
			return nil, apperrors.AnalysisError(string(kind), err)
		}
		out = struct {
			*sentiment.Result
			Insights insight.Insights `json:"insights"`
		}{res, insight.FromSentiment(res)}
	}

	doc, err := json.Marshal(out)
	if err != nil {
		return nil, apperrors.Wrap(err, "marshal analysis result")
	}
	return doc, nil
}

func buildSalesReport(applied *table.Table) (*salesReport, error) {
	analyzer, err := sales.NewAnalyzer(applied)
	if err != nil {
		return nil, err
	}

	daily, err := analyzer.AggregateByPeriod(sales.PeriodDaily)
	if err != nil {
		return nil, err
	}
	weekly, err := analyzer.AggregateByPeriod(sales.PeriodWeekly)
	if err != nil {
		return nil, err
	}
	monthly, err := analyzer.AggregateByPeriod(sales.PeriodMonthly)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = d.Sales
	}

	top, err := analyzer.TopProducts(salesTopProducts, sales.MetricSales)
	if err != nil {
		return nil, err
	}
	pareto, paretoSummary, err := analyzer.Pareto(sales.MetricSales)
	if err != nil {
		return nil, err
	}

	return &salesReport{
		Summary:       analyzer.Summarize(),
		Daily:         daily,
		Weekly:        weekly,
		Monthly:       monthly,
		MovingAvg7:    sales.MovingAverage(values, salesTrendWindowShort),
		MovingAvg30:   sales.MovingAverage(values, salesTrendWindowLong),
		GrowthRate:    nullableFloats(sales.GrowthRate(values, 1)),
		TopProducts:   top,
		Pareto:        pareto,
		ParetoSummary: paretoSummary,
	}, nil
}

// nullableFloats maps NaN to null so the series survives JSON encoding.
func nullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			v := values[i]
			out[i] = &v
		}
	}
	return out
}

func (s *Server) handleAnalysisList(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	list, err := s.analyses.ListByDataset(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analyses": list})
}

func (s *Server) handleAnalysisGet(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAnalysisID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	a, err := s.analyses.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
