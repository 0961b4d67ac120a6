package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"costlens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAnomalyAlertMessage_JSON(t *testing.T) {
	anomaly := models.Anomaly{
		ID:       "a-1",
		Date:     "2024-01-05",
		Service:  "EC2",
		Severity: models.LevelHigh,
		Impact:   120.5,
	}
	msg := NewAnomalyAlertMessage("upload-1", anomaly)

	data, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"upload_id":"upload-1"`)

	decoded, err := AnomalyAlertMessageFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "upload-1", decoded.UploadID)
	assert.Equal(t, anomaly.Service, decoded.Anomaly.Service)
	assert.Equal(t, models.LevelHigh, decoded.Anomaly.Severity)
	assert.WithinDuration(t, msg.Timestamp, decoded.Timestamp, time.Millisecond)
}

func TestAnomalyAlertMessageFromJSON_Invalid(t *testing.T) {
	_, err := AnomalyAlertMessageFromJSON([]byte("not json"))
	assert.Error(t, err)

	_, err = AnomalyAlertMessageFromJSON([]byte(`{"upload_id":"u"}`))
	assert.Error(t, err)
}

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
	err     error
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return f.err
}

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return f.err
}

func TestDispatchDelivery(t *testing.T) {
	valid, err := NewAnomalyAlertMessage("u", models.Anomaly{Service: "S3", Severity: models.LevelMedium}).ToJSON()
	require.NoError(t, err)

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "handled", body: valid, wantAck: true},
		{name: "malformed dropped", body: []byte("{"), wantAck: false, wantRequeue: false},
		{name: "handler failure requeued", body: valid, handlerErr: errors.New("boom"), wantRequeue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			dispatchDelivery(context.Background(), ack, tt.body, func(context.Context, *AnomalyAlertMessage) error {
				return tt.handlerErr
			}, zap.NewNop())

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}

func TestDispatchDelivery_AckFailuresLogged(t *testing.T) {
	valid, err := NewAnomalyAlertMessage("u-7", models.Anomaly{Service: "S3"}).ToJSON()
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantMsg    string
	}{
		{name: "ack", body: valid, wantMsg: "Failed to ack message"},
		{name: "nack malformed", body: []byte("{"), wantMsg: "Failed to nack message"},
		{name: "nack requeue", body: valid, handlerErr: errors.New("boom"), wantMsg: "Failed to nack message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			ack := &fakeAck{err: errors.New("channel closed")}
			dispatchDelivery(context.Background(), ack, tt.body, func(context.Context, *AnomalyAlertMessage) error {
				return tt.handlerErr
			}, zap.New(core))

			warns := logs.FilterLevelExact(zap.WarnLevel).FilterMessage(tt.wantMsg).All()
			require.Len(t, warns, 1)
			assert.Equal(t, "channel closed", warns[0].ContextMap()["error"])
		})
	}
}

type recordingSender struct {
	messages []*AnomalyAlertMessage
	failAt   int
}

func (s *recordingSender) PublishAnomalyAlert(_ context.Context, msg *AnomalyAlertMessage) error {
	if s.failAt > 0 && len(s.messages)+1 == s.failAt {
		return errors.New("broker down")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func TestAMQPPublisher_PublishAnomalies(t *testing.T) {
	anomalies := []models.Anomaly{
		{ID: "1", Service: "EC2", Severity: models.LevelHigh},
		{ID: "2", Service: "S3", Severity: models.LevelMedium},
	}

	sender := &recordingSender{}
	p := &AMQPPublisher{sender: sender, logger: zap.NewNop()}
	require.NoError(t, p.PublishAnomalies(context.Background(), "upload-9", anomalies))
	require.Len(t, sender.messages, 2)
	assert.Equal(t, "upload-9", sender.messages[1].UploadID)
	assert.Equal(t, "S3", sender.messages[1].Anomaly.Service)

	failing := &recordingSender{failAt: 2}
	p = &AMQPPublisher{sender: failing, logger: zap.NewNop()}
	err := p.PublishAnomalies(context.Background(), "upload-9", anomalies)
	assert.ErrorContains(t, err, "publish anomaly 2")

	assert.NoError(t, NoopPublisher{}.PublishAnomalies(context.Background(), "x", anomalies))
}

func TestLogAlerts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LogAlerts(zap.New(core))

	require.NoError(t, handler(context.Background(), NewAnomalyAlertMessage("u", models.Anomaly{ID: "1", Service: "EC2", Severity: models.LevelHigh})))
	require.NoError(t, handler(context.Background(), NewAnomalyAlertMessage("u", models.Anomaly{ID: "2", Service: "S3", Severity: models.LevelLow})))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "EC2", entries[0].ContextMap()["service"])
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
}
