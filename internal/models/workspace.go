package models

// ColumnInfo describes one column of a workspace table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// QueryResult holds the rows of an ad-hoc SELECT.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Results  []map[string]any `json:"results"`
	RowCount int              `json:"row_count"`
}
