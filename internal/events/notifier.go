package events

import (
	"context"

	"costlens/internal/models"

	"go.uber.org/zap"
)

// LogAlerts returns a consumer handler that logs high-severity anomalies at
// warn level and everything else at info.
func LogAlerts(logger *zap.Logger) func(context.Context, *AnomalyAlertMessage) error {
	return func(_ context.Context, msg *AnomalyAlertMessage) error {
		fields := []zap.Field{
			zap.String("upload_id", msg.UploadID),
			zap.String("anomaly_id", msg.Anomaly.ID),
			zap.String("service", msg.Anomaly.Service),
			zap.String("date", msg.Anomaly.Date),
			zap.String("severity", string(msg.Anomaly.Severity)),
			zap.Float64("impact", msg.Anomaly.Impact),
			zap.String("description", msg.Anomaly.Description),
		}
		if msg.Anomaly.Severity == models.LevelHigh {
			logger.Warn("High severity cost anomaly", fields...)
			return nil
		}
		logger.Info("Cost anomaly", fields...)
		return nil
	}
}
