package api

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/dataset"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
	"github.com/JungMoonYoung/auto-insight-platform/internal/preprocess"
)

// preprocessRequest selects the cleaning steps to run. Steps apply in a
// fixed order: name normalization, missing values, duplicates, outliers,
// date conversion, date features. Column names in date_columns and
// date_features refer to the names after normalization when that step
// is enabled.
type preprocessRequest struct {
	// Missing is "auto" (default), "drop" or "none".
	Missing string `json:"missing,omitempty"`
	// Outliers is "none" (default), "iqr" or "zscore".
	Outliers string `json:"outliers,omitempty"`
	// Dedupe removes duplicate rows; defaults to true.
	Dedupe         *bool    `json:"dedupe,omitempty"`
	NormalizeNames bool     `json:"normalize_names,omitempty"`
	DateColumns    []string `json:"date_columns,omitempty"`
	DateFeatures   string   `json:"date_features,omitempty"`
}

type preprocessResponse struct {
	Dataset *dataset.Dataset `json:"dataset"`
	Log     []string         `json:"log"`
}

// handlePreprocess cleans a stored dataset and saves the result as a new
// dataset, leaving the original untouched. The cleaning log is returned
// with the new record.
func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	var req preprocessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	src, err := s.datasets.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.datasets.GetTable(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	p := preprocess.New(t)
	if req.NormalizeNames {
		p.NormalizeNames()
	}
	switch req.Missing {
	case "none":
	case "drop":
		p.FillMissing(preprocess.MissingDrop)
	default:
		p.FillMissing(preprocess.MissingAuto)
	}
	if req.Dedupe == nil || *req.Dedupe {
		p.RemoveDuplicates()
	}
	switch req.Outliers {
	case "iqr":
		p.HandleOutliers(preprocess.OutlierIQR)
	case "zscore":
		p.HandleOutliers(preprocess.OutlierZScore)
	}
	if len(req.DateColumns) > 0 {
		p.ConvertDates(req.DateColumns...)
	}
	if req.DateFeatures != "" {
		p.DateFeatures(req.DateFeatures)
	}

	cleaned, logLines, err := p.Result()
	if err != nil {
		writeError(w, err)
		return
	}

	ds := &dataset.Dataset{
		ID:          core.NewDatasetID(),
		Filename:    cleanedFilename(src.Filename),
		RowCount:    cleaned.RowCount(),
		ColumnCount: cleaned.ColumnCount(),
		CreatedAt:   core.Now(),
	}
	if err := s.datasets.Create(r.Context(), ds, cleaned); err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[API] dataset %s preprocessed into %s (%d rows, %d columns)",
		id, ds.ID, ds.RowCount, ds.ColumnCount)
	writeJSON(w, http.StatusCreated, preprocessResponse{Dataset: ds, Log: logLines})
}

func (r preprocessRequest) validate() error {
	switch r.Missing {
	case "", "auto", "drop", "none":
	default:
		return apperrors.InvalidInput("unknown missing strategy " + r.Missing)
	}
	switch r.Outliers {
	case "", "none", "iqr", "zscore":
	default:
		return apperrors.InvalidInput("unknown outlier method " + r.Outliers)
	}
	return nil
}

// cleanedFilename tags the stored name so the derived dataset is
// distinguishable in listings.
func cleanedFilename(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_cleaned" + ext
}
