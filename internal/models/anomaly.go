package models

import "time"

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

type Anomaly struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Service     string    `json:"service"`
	Severity    Level     `json:"severity"`
	Description string    `json:"description"`
	Impact      float64   `json:"impact"`
	Identified  time.Time `json:"identified"`
}
