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
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// DatasetRepository stores uploaded datasets together with their cell
// payload.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a dataset repository.
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create inserts a dataset record and its table payload.
func (r *DatasetRepository) Create(ctx context.Context, ds *dataset.Dataset, t *table.Table) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal table payload: %w", err)
	}

	query := `INSERT INTO datasets (id, filename, row_count, column_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		ds.ID.String(), ds.Filename, ds.RowCount, ds.ColumnCount, payload, formatTime(ds.CreatedAt.Time()),
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// Get retrieves a dataset's metadata by ID.
func (r *DatasetRepository) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	query := `SELECT id, filename, row_count, column_count, created_at
		FROM datasets WHERE id = ?`

	var (
		ds        dataset.Dataset
		rawID     string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID, &ds.Filename, &ds.RowCount, &ds.ColumnCount, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	ds.ID = core.DatasetID(rawID)
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset timestamp: %w", err)
	}
	ds.CreatedAt = core.NewTimestamp(created)
	return &ds, nil
}

// GetTable retrieves a dataset's table payload by ID.
func (r *DatasetRepository) GetTable(ctx context.Context, id core.DatasetID) (*table.Table, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM datasets WHERE id = ?`, id.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get dataset payload: %w", err)
	}

	var t table.Table
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table payload: %w", err)
	}
	return &t, nil
}

// List returns dataset metadata, newest first.
func (r *DatasetRepository) List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error) {
	query := `SELECT id, filename, row_count, column_count, created_at
		FROM datasets ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*dataset.Dataset
	for rows.Next() {
		var (
			ds        dataset.Dataset
			rawID     string
			createdAt string
		)
		if err := rows.Scan(&rawID, &ds.Filename, &ds.RowCount, &ds.ColumnCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		ds.ID = core.DatasetID(rawID)
		created, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset timestamp: %w", err)
		}
		ds.CreatedAt = core.NewTimestamp(created)
		datasets = append(datasets, &ds)
	}
	return datasets, rows.Err()
}

// Delete removes a dataset and, via the foreign key, its analyses.
func (r *DatasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return nil
}
