package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/dataset"
	"github.com/JungMoonYoung/auto-insight-platform/domain/mapping"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
	resolver "github.com/JungMoonYoung/auto-insight-platform/internal/mapping"
)

type mappingRequest struct {
	Domain string `json:"domain"`
	// Method selects the scoring strategy: "hybrid" (default) blends
	// name similarity with data profiles, "fuzzy" uses names only.
	Method     string   `json:"method,omitempty"`
	NameWeight *float64 `json:"name_weight,omitempty"`
	DataWeight *float64 `json:"data_weight,omitempty"`
}

type mappingResponse struct {
	AnalysisID       core.AnalysisID    `json:"analysis_id"`
	Mapping          *mapping.Result    `json:"mapping"`
	Validation       mapping.Validation `json:"validation"`
	ConfidenceLevels map[string]string  `json:"confidence_levels"`
}

// handleMapping maps a stored dataset's columns onto one domain's
// standard fields and persists the outcome as a mapping run.
func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	var req mappingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runMapping(r, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		writeError(w, apperrors.Wrap(err, "marshal mapping result"))
		return
	}
	record := &dataset.Analysis{
		ID:        core.NewAnalysisID(),
		DatasetID: id,
		Kind:      dataset.KindMapping,
		Domain:    schema.Domain(req.Domain),
		Result:    payload,
		CreatedAt: core.Now(),
	}
	if err := s.analyses.Create(r.Context(), record); err != nil {
		writeError(w, err)
		return
	}

	res.AnalysisID = record.ID
	log.Printf("[API] dataset %s mapped for domain %q: %d fields, valid=%v",
		id, req.Domain, len(res.Mapping.Fields), res.Validation.IsValid)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runMapping(r *http.Request, id core.DatasetID, req mappingRequest) (*mappingResponse, error) {
	cfg := resolver.Config{
		NameWeight: s.cfg.Mapping.NameWeight,
		DataWeight: s.cfg.Mapping.DataWeight,
		MaxColumns: s.cfg.Mapping.MaxColumns,
	}
	if req.NameWeight != nil {
		cfg.NameWeight = *req.NameWeight
	}
	if req.DataWeight != nil {
		cfg.DataWeight = *req.DataWeight
	}

	rs, err := resolver.NewResolverWithConfig(schema.Domain(req.Domain), cfg)
	if err != nil {
		return nil, err
	}

	t, err := s.datasets.GetTable(r.Context(), id)
	if err != nil {
		return nil, err
	}

	var result *mapping.Result
	switch req.Method {
	case "", string(mapping.MethodHybrid):
		result, err = rs.Map(t)
		if err != nil {
			return nil, err
		}
	case string(mapping.MethodFuzzy):
		result = rs.MapByName(t.Columns())
	default:
		return nil, apperrors.InvalidInput("unknown mapping method " + req.Method)
	}

	levels := make(map[string]string, len(result.Fields))
	for field, fm := range result.Fields {
		levels[field] = mapping.ConfidenceLevel(fm.Confidence)
	}

	return &mappingResponse{
		Mapping:          result,
		Validation:       rs.Validate(result),
		ConfidenceLevels: levels,
	}, nil
}
