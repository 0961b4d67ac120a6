package dto

import "costlens/internal/models"

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Success  bool             `json:"success"`
	Question string           `json:"question"`
	Response string           `json:"response"`
	Error    string           `json:"error,omitempty"`
	SQLQuery string           `json:"sql_query,omitempty"`
	Results  []map[string]any `json:"results,omitempty"`
	RowCount *int             `json:"row_count,omitempty"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type SchemaResponse struct {
	Schema map[string][]models.ColumnInfo `json:"schema"`
}

type TablesResponse struct {
	Tables []string `json:"tables"`
}

type ChatRequest struct {
	Content string `json:"content"`
}

type ChatExchange struct {
	Question models.ChatMessage `json:"question"`
	Answer   models.ChatMessage `json:"answer"`
}
