package service

import (
	"context"
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/store"
	"costlens/pkg/config"

	"go.uber.org/zap"
)

const mockForecastDelay = 800 * time.Millisecond

// DashboardService serves the dashboard's views, all derived from the
// current store snapshot.
type DashboardService struct {
	store         *store.Store
	mock          *MockAnalyzer
	seed          int64
	forecastDelay time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewDashboardService(st *store.Store, cfg *config.AnalysisConfig, logger *zap.Logger) *DashboardService {
	var analyzeDelay, forecastDelay time.Duration
	if cfg.MockDelays {
		analyzeDelay = mockAnalyzeDelay
		forecastDelay = mockForecastDelay
	}
	return &DashboardService{
		store:         st,
		mock:          NewMockAnalyzer(analyzeDelay),
		seed:          cfg.Seed,
		forecastDelay: forecastDelay,
		logger:        logger,
		now:           time.Now,
	}
}

// LoadMockData replaces the dashboard data with generated demo data.
func (s *DashboardService) LoadMockData(ctx context.Context) (dto.DashboardState, error) {
	if err := s.store.TryBeginLoading(); err != nil {
		return dto.DashboardState{}, err
	}
	defer s.store.EndLoading()

	records := GenerateMockCostData(s.now(), NewRand(s.seed))
	analysis, err := s.mock.Analyze(ctx, records)
	if err != nil {
		return dto.DashboardState{}, err
	}

	if _, err := s.store.Dispatch(
		store.SetCostData(records),
		store.SetAnomalies(analysis.Anomalies),
		store.SetRecommendations(analysis.Recommendations),
	); err != nil {
		return dto.DashboardState{}, err
	}

	s.logger.Info("Mock data loaded", zap.Int("records", len(records)))
	return s.State(), nil
}

func (s *DashboardService) State() dto.DashboardState {
	st := s.store.Snapshot()
	return dto.DashboardState{
		CostData:        nonNil(st.CostData),
		Anomalies:       nonNil(st.Anomalies),
		Recommendations: nonNil(st.Recommendations),
		ChatMessages:    nonNil(st.ChatMessages),
		IsLoading:       st.IsLoading,
	}
}

func (s *DashboardService) CostData() []models.CostRecord {
	return nonNil(s.store.Snapshot().CostData)
}

func (s *DashboardService) Overview() dto.OverviewResponse {
	st := s.store.Snapshot()
	return Overview(st.CostData, st.Anomalies, st.Recommendations, s.now())
}

func (s *DashboardService) Trend(days int) []dto.TrendPoint {
	return CostTrend(s.store.Snapshot().CostData, days)
}

func (s *DashboardService) Services() []dto.ServiceSlice {
	return ServiceBreakdown(s.store.Snapshot().CostData, s.now())
}

func (s *DashboardService) Resources(service, search string, limit int) dto.ResourceTableResponse {
	rows := ResourceBreakdown(s.store.Snapshot().CostData, s.now())
	filtered, total := FilterResources(rows, service, search, limit)
	return dto.ResourceTableResponse{
		Resources: filtered,
		Services:  nonNil(ResourceServices(rows)),
		Total:     total,
	}
}

func (s *DashboardService) Forecast(ctx context.Context, horizon int) (dto.ForecastResponse, error) {
	if err := sleepContext(ctx, s.forecastDelay); err != nil {
		return dto.ForecastResponse{}, err
	}
	return Forecast(s.store.Snapshot().CostData, horizon), nil
}

func (s *DashboardService) Anomalies() []models.Anomaly {
	return nonNil(s.store.Snapshot().Anomalies)
}

func (s *DashboardService) Recommendations() []models.Recommendation {
	return nonNil(s.store.Snapshot().Recommendations)
}

// UpdateRecommendationStatus moves a pending recommendation to implemented
// or ignored and returns it.
func (s *DashboardService) UpdateRecommendationStatus(id string, status models.RecommendationStatus) (models.Recommendation, error) {
	next, err := s.store.Dispatch(store.UpdateRecommendationStatus(id, status))
	if err != nil {
		return models.Recommendation{}, err
	}

	for _, rec := range next.Recommendations {
		if rec.ID == id {
			s.logger.Info("Recommendation status updated",
				zap.String("id", id),
				zap.String("status", string(status)),
			)
			return rec, nil
		}
	}
	return models.Recommendation{}, store.ErrRecommendationNotFound
}

func (s *DashboardService) Reset() error {
	_, err := s.store.Dispatch(store.Reset())
	return err
}

func (s *DashboardService) SampleCSV() []byte {
	return SampleCSV(s.now(), NewRand(s.seed))
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
