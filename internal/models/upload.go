package models

import (
	"time"

	"github.com/google/uuid"
)

type UploadSource string

const (
	SourceCSV          UploadSource = "csv"
	SourceCostExplorer UploadSource = "cost_explorer"
)

// Upload is one entry of the workspace upload log.
type Upload struct {
	ID          uuid.UUID    `db:"id"`
	Source      UploadSource `db:"source"`
	FileName    string       `db:"file_name"`
	TableName   string       `db:"table_name"`
	Rows        int          `db:"row_count"`
	Records     int          `db:"record_count"`
	DroppedRows int          `db:"dropped_rows"`
	TotalCost   float64      `db:"total_cost"`
	CreatedAt   time.Time    `db:"created_at"`
}
