package models

import (
	"time"
)

type RecommendationStatus string

const (
	StatusPending     RecommendationStatus = "pending"
	StatusImplemented RecommendationStatus = "implemented"
	StatusIgnored     RecommendationStatus = "ignored"
)

// Valid reports whether s is one of the known statuses.
func (s RecommendationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusImplemented, StatusIgnored:
		return true
	}
	return false
}

type Recommendation struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	EstimatedSavings float64              `json:"estimatedSavings"`
	EffortLevel      Level                `json:"effortLevel"`
	Risk             Level                `json:"risk"`
	Category         string               `json:"category"`
	Status           RecommendationStatus `json:"status"`
	CreatedAt        time.Time            `json:"createdAt"`
}
