package dto

import "costlens/internal/models"

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type UploadSummary struct {
	TotalCost float64   `json:"total_cost"`
	DateRange DateRange `json:"date_range"`
	Services  int       `json:"services"`
	Regions   int       `json:"regions"`
}

type UploadResponse struct {
	UploadID        string                  `json:"upload_id"`
	Message         string                  `json:"message"`
	Rows            int                     `json:"rows"`
	Columns         []string                `json:"columns"`
	Results         []models.CostRecord     `json:"results"`
	Anomalies       []models.Anomaly        `json:"anomalies"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Summary         UploadSummary           `json:"summary"`
	DroppedRows     []models.DroppedRow     `json:"dropped_rows"`
	TruncatedRows   []models.DroppedRow     `json:"truncated_rows,omitempty"`
}

type UploadLogEntry struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	FileName    string  `json:"file_name"`
	TableName   string  `json:"table_name"`
	Rows        int     `json:"rows"`
	Records     int     `json:"records"`
	DroppedRows int     `json:"dropped_rows"`
	TotalCost   float64 `json:"total_cost"`
	CreatedAt   string  `json:"created_at"`
}
