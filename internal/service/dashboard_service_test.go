package service

import (
	"context"
	"testing"
	"time"

	"costlens/internal/models"
	"costlens/internal/store"
	"costlens/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDashboard(t *testing.T) (*DashboardService, *store.Store) {
	t.Helper()
	st := store.New(zap.NewNop())
	svc := NewDashboardService(st, &config.AnalysisConfig{Mode: config.AnalysisMock, Seed: 42}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	svc.mock.now = svc.now
	return svc, st
}

func TestDashboard_EmptyState(t *testing.T) {
	svc, _ := newTestDashboard(t)

	state := svc.State()
	assert.NotNil(t, state.CostData)
	assert.NotNil(t, state.ChatMessages)
	assert.Empty(t, svc.Anomalies())
	assert.NotNil(t, svc.Recommendations())
	assert.Empty(t, svc.Trend(0))
	assert.Empty(t, svc.Services())

	resources := svc.Resources("", "", 0)
	assert.NotNil(t, resources.Resources)
	assert.NotNil(t, resources.Services)
	assert.Zero(t, resources.Total)

	forecast, err := svc.Forecast(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, forecast.Dates)
}

func TestDashboard_LoadMockData(t *testing.T) {
	svc, st := newTestDashboard(t)

	state, err := svc.LoadMockData(context.Background())
	require.NoError(t, err)
	assert.Len(t, state.CostData, 2880)
	assert.Len(t, state.Anomalies, 4)
	assert.Len(t, state.Recommendations, 6)
	assert.False(t, st.Snapshot().IsLoading)

	assert.Len(t, svc.Trend(30), 30)
	assert.Equal(t, "2024-03-15", svc.Trend(30)[29].Date)

	services := svc.Services()
	assert.Len(t, services, len(mockServices))
	assert.Equal(t, "EC2", services[0].Name)

	overview := svc.Overview()
	assert.Equal(t, 4, overview.TotalAnomalies)
	assert.Equal(t, 1, overview.HighSeverityAnomalies)
	assert.Equal(t, 6, overview.PendingRecommendations)
	assert.Equal(t, 39170.0, overview.PotentialSavings)
	assert.Positive(t, overview.CurrentMonth)

	resources := svc.Resources("S3", "", 5)
	assert.Len(t, resources.Resources, 5)
	assert.ElementsMatch(t, mockServices, resources.Services)
	for _, r := range resources.Resources {
		assert.Equal(t, "S3", r.Service)
	}

	forecast, err := svc.Forecast(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, forecast.Dates, 90+7)
}

func TestDashboard_Busy(t *testing.T) {
	svc, st := newTestDashboard(t)
	require.NoError(t, st.TryBeginLoading())

	_, err := svc.LoadMockData(context.Background())
	assert.ErrorIs(t, err, store.ErrBusy)

	assert.ErrorIs(t, svc.Reset(), store.ErrBusy)
	assert.True(t, st.Snapshot().IsLoading)

	st.EndLoading()
	require.NoError(t, svc.Reset())
	assert.False(t, st.Snapshot().IsLoading)
}

func TestDashboard_UpdateRecommendationStatus(t *testing.T) {
	svc, _ := newTestDashboard(t)
	_, err := svc.LoadMockData(context.Background())
	require.NoError(t, err)

	rec, err := svc.UpdateRecommendationStatus("2", models.StatusImplemented)
	require.NoError(t, err)
	assert.Equal(t, models.StatusImplemented, rec.Status)
	assert.Equal(t, 5, svc.Overview().PendingRecommendations)

	_, err = svc.UpdateRecommendationStatus("2", models.StatusIgnored)
	assert.ErrorIs(t, err, store.ErrInvalidStatusTransition)

	_, err = svc.UpdateRecommendationStatus("missing", models.StatusIgnored)
	assert.ErrorIs(t, err, store.ErrRecommendationNotFound)

	_, err = svc.UpdateRecommendationStatus("3", models.StatusPending)
	assert.ErrorIs(t, err, store.ErrInvalidStatusTransition)
}

func TestDashboard_SampleCSVAndReset(t *testing.T) {
	svc, _ := newTestDashboard(t)
	assert.Equal(t, svc.SampleCSV(), svc.SampleCSV())

	_, err := svc.LoadMockData(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Reset())
	assert.Empty(t, svc.CostData())
	assert.Empty(t, svc.Recommendations())
}
