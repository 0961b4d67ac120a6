package models

// CostRecord is one normalized line of AWS spend.
type CostRecord struct {
	Date       string            `json:"date" db:"date"` // YYYY-MM-DD
	Service    string            `json:"service" db:"service"`
	Region     string            `json:"region" db:"region"`
	Cost       float64           `json:"cost" db:"cost"` // always rounded to cents
	ResourceID string            `json:"resourceId,omitempty" db:"resource_id"`
	Tags       map[string]string `json:"tags,omitempty" db:"tags"`
}

// DroppedRow describes a CSV line that did not produce a record.
type DroppedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
