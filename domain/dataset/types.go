// Package dataset holds the persistent records of the platform: uploaded
// datasets and the analysis runs performed on them.
package dataset

import (
	"encoding/json"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
)

// Dataset is one uploaded table's metadata. The cell payload itself is
// stored alongside by the repository.
type Dataset struct {
	ID          core.DatasetID `json:"id" db:"id"`
	Filename    string         `json:"filename" db:"filename"`
	RowCount    int            `json:"row_count" db:"row_count"`
	ColumnCount int            `json:"column_count" db:"column_count"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// AnalysisKind identifies what kind of run produced an analysis record.
type AnalysisKind string

const (
	KindMapping   AnalysisKind = "mapping"
	KindRFM       AnalysisKind = "rfm"
	KindSales     AnalysisKind = "sales"
	KindSentiment AnalysisKind = "sentiment"
)

// Analysis is one persisted analysis run: which dataset, which kind,
// which schema domain it was mapped under, and the JSON result document.
type Analysis struct {
	ID        core.AnalysisID `json:"id" db:"id"`
	DatasetID core.DatasetID  `json:"dataset_id" db:"dataset_id"`
	Kind      AnalysisKind    `json:"kind" db:"kind"`
	Domain    schema.Domain   `json:"domain" db:"domain"`
	Result    json.RawMessage `json:"result" db:"result"`
	CreatedAt core.Timestamp  `json:"created_at"`
}
