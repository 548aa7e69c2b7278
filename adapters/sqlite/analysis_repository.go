package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/dataset"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
)

// AnalysisRepository stores analysis runs.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates an analysis repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts an analysis record.
func (r *AnalysisRepository) Create(ctx context.Context, a *dataset.Analysis) error {
	query := `INSERT INTO analyses (id, dataset_id, kind, domain, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(), a.DatasetID.String(), string(a.Kind), string(a.Domain),
		[]byte(a.Result), formatTime(a.CreatedAt.Time()),
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// Get retrieves one analysis run by ID.
func (r *AnalysisRepository) Get(ctx context.Context, id core.AnalysisID) (*dataset.Analysis, error) {
	query := `SELECT id, dataset_id, kind, domain, result, created_at
		FROM analyses WHERE id = ?`

	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// ListByDataset returns a dataset's analysis runs, newest first.
func (r *AnalysisRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID) ([]*dataset.Analysis, error) {
	query := `SELECT id, dataset_id, kind, domain, result, created_at
		FROM analyses WHERE dataset_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, datasetID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*dataset.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*dataset.Analysis, error) {
	var (
		a                  dataset.Analysis
		rawID, rawDataset  string
		rawKind, rawDomain string
		result             []byte
		createdAt          string
	)
	if err := row.Scan(&rawID, &rawDataset, &rawKind, &rawDomain, &result, &createdAt); err != nil {
		return nil, err
	}

	a.ID = core.AnalysisID(rawID)
	a.DatasetID = core.DatasetID(rawDataset)
	a.Kind = dataset.AnalysisKind(rawKind)
	a.Domain = schema.Domain(rawDomain)
	a.Result = json.RawMessage(result)
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis timestamp: %w", err)
	}
	a.CreatedAt = core.NewTimestamp(created)
	return &a, nil
}
