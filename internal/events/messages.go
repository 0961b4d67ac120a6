package events

import (
	"encoding/json"
	"fmt"
	"time"

	"costlens/internal/models"
)

// AnomalyAlertMessage carries one detected anomaly together with the upload
// that produced it.
type AnomalyAlertMessage struct {
	UploadID  string         `json:"upload_id"`
	Anomaly   models.Anomaly `json:"anomaly"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewAnomalyAlertMessage(uploadID string, anomaly models.Anomaly) *AnomalyAlertMessage {
	return &AnomalyAlertMessage{
		UploadID:  uploadID,
		Anomaly:   anomaly,
		Timestamp: time.Now(),
	}
}

func (m *AnomalyAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnomalyAlertMessageFromJSON decodes a message and rejects payloads that
// carry no anomaly.
func AnomalyAlertMessageFromJSON(data []byte) (*AnomalyAlertMessage, error) {
	var msg AnomalyAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Anomaly.Service == "" || msg.Anomaly.Severity == "" {
		return nil, fmt.Errorf("anomaly alert %q has no anomaly", msg.UploadID)
	}
	return &msg, nil
}
