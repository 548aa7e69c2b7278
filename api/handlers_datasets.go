package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JungMoonYoung/auto-insight-platform/adapters/tabular"
	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/dataset"
	apperrors "github.com/JungMoonYoung/auto-insight-platform/internal/errors"
)

const defaultListLimit = 50

// handleDatasetUpload ingests a CSV or Excel file sent as the "file"
// field of a multipart form and stores the parsed table.
func (s *Server) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.InvalidInput("multipart field \"file\" required: "+err.Error()))
		return
	}
	defer file.Close()

	t, err := tabular.Read(file, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	ds := &dataset.Dataset{
		ID:          core.NewDatasetID(),
		Filename:    header.Filename,
		RowCount:    t.RowCount(),
		ColumnCount: t.ColumnCount(),
		CreatedAt:   core.Now(),
	}
	if err := s.datasets.Create(r.Context(), ds, t); err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[API] dataset %s uploaded: %s (%d rows, %d columns)",
		ds.ID, ds.Filename, ds.RowCount, ds.ColumnCount)
	writeJSON(w, http.StatusCreated, ds)
}

func (s *Server) handleDatasetList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)

	list, err := s.datasets.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"datasets": list})
}

func (s *Server) handleDatasetGet(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	ds, err := s.datasets.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDatasetDelete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseDatasetID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	if err := s.datasets.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
