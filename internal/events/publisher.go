package events

import (
	"context"
	"fmt"

	"costlens/internal/models"

	"go.uber.org/zap"
)

// Publisher fans detected anomalies out to whoever listens.
type Publisher interface {
	PublishAnomalies(ctx context.Context, uploadID string, anomalies []models.Anomaly) error
}

type alertSender interface {
	PublishAnomalyAlert(ctx context.Context, msg *AnomalyAlertMessage) error
}

// AMQPPublisher sends one message per anomaly.
type AMQPPublisher struct {
	sender alertSender
	logger *zap.Logger
}

func NewAMQPPublisher(client *Client, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{sender: client, logger: logger}
}

func (p *AMQPPublisher) PublishAnomalies(ctx context.Context, uploadID string, anomalies []models.Anomaly) error {
	for i := range anomalies {
		if err := p.sender.PublishAnomalyAlert(ctx, NewAnomalyAlertMessage(uploadID, anomalies[i])); err != nil {
			return fmt.Errorf("publish anomaly %s: %w", anomalies[i].ID, err)
		}
	}
	if len(anomalies) > 0 {
		p.logger.Info("Anomaly alerts published",
			zap.String("upload_id", uploadID),
			zap.Int("count", len(anomalies)),
		)
	}
	return nil
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAnomalies(context.Context, string, []models.Anomaly) error {
	return nil
}
