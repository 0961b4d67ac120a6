package dto

import "costlens/internal/models"

type TrendPoint struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

type ServiceSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type ResourceRow struct {
	Key        string            `json:"key"`
	ResourceID string            `json:"resourceId"`
	Service    string            `json:"service"`
	Region     string            `json:"region"`
	Cost       float64           `json:"cost"`
	Tags       map[string]string `json:"tags,omitempty"`
}

type ResourceTableResponse struct {
	Resources []ResourceRow `json:"resources"`
	Services  []string      `json:"services"`
	Total     int           `json:"total"`
}

type OverviewResponse struct {
	CurrentMonth           float64 `json:"currentMonth"`
	PreviousMonth          float64 `json:"previousMonth"`
	Change                 float64 `json:"change"`
	ChangePercent          float64 `json:"changePercent"`
	TotalAnomalies         int     `json:"totalAnomalies"`
	HighSeverityAnomalies  int     `json:"highSeverityAnomalies"`
	PendingRecommendations int     `json:"pendingRecommendations"`
	PotentialSavings       float64 `json:"potentialSavings"`
}

// ForecastResponse aligns three series by index; Actual is nil past the last
// observed day and Forecast is nil up to it.
type ForecastResponse struct {
	Dates    []string   `json:"dates"`
	Actual   []*float64 `json:"actual"`
	Forecast []*float64 `json:"forecast"`
}

type DashboardState struct {
	CostData        []models.CostRecord     `json:"costData"`
	Anomalies       []models.Anomaly        `json:"anomalies"`
	Recommendations []models.Recommendation `json:"recommendations"`
	ChatMessages    []models.ChatMessage    `json:"chatMessages"`
	IsLoading       bool                    `json:"isLoading"`
}

type UpdateRecommendationRequest struct {
	Status string `json:"status"`
}
