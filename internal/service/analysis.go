package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"costlens/internal/models"
	"costlens/pkg/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxAnomalies       = 10
	maxRecommendations = 8

	minAnomalyPoints = 4
	minAnomalyCost   = 50.0

	mockAnalyzeDelay = 1500 * time.Millisecond
)

// Analysis is what an Analyzer derives from a record set.
type Analysis struct {
	Anomalies       []models.Anomaly
	Recommendations []models.Recommendation
}

type Analyzer interface {
	Analyze(ctx context.Context, records []models.CostRecord) (*Analysis, error)
}

// NewAnalyzer picks the analyzer for ANALYSIS_MODE.
func NewAnalyzer(cfg *config.AnalysisConfig, logger *zap.Logger) Analyzer {
	if cfg.Mode == config.AnalysisMock {
		var delay time.Duration
		if cfg.MockDelays {
			delay = mockAnalyzeDelay
		}
		return NewMockAnalyzer(delay)
	}
	return NewStatisticalAnalyzer(logger)
}

// StatisticalAnalyzer flags daily per-service spend that sits more than two
// standard deviations above the service's mean and derives recommendations
// from per-service totals.
type StatisticalAnalyzer struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewStatisticalAnalyzer(logger *zap.Logger) *StatisticalAnalyzer {
	return &StatisticalAnalyzer{logger: logger, now: time.Now}
}

func (a *StatisticalAnalyzer) Analyze(ctx context.Context, records []models.CostRecord) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := a.now()
	result := &Analysis{
		Anomalies:       DetectAnomalies(records, now),
		Recommendations: RecommendFromTotals(records, now),
	}

	a.logger.Debug("Cost data analyzed",
		zap.Int("records", len(records)),
		zap.Int("anomalies", len(result.Anomalies)),
		zap.Int("recommendations", len(result.Recommendations)),
	)
	return result, nil
}

type dailyServiceCost struct {
	date string
	cost float64
}

// DetectAnomalies returns at most ten spikes, largest impact first.
func DetectAnomalies(records []models.CostRecord, now time.Time) []models.Anomaly {
	totals := make(map[string]map[string]decimal.Decimal)
	for _, r := range records {
		byDate, ok := totals[r.Service]
		if !ok {
			byDate = make(map[string]decimal.Decimal)
			totals[r.Service] = byDate
		}
		byDate[r.Date] = byDate[r.Date].Add(costOf(r))
	}

	services := make([]string, 0, len(totals))
	for service := range totals {
		services = append(services, service)
	}
	slices.Sort(services)

	anomalies := make([]models.Anomaly, 0)
	for _, service := range services {
		byDate := totals[service]
		if len(byDate) < minAnomalyPoints {
			continue
		}

		points := make([]dailyServiceCost, 0, len(byDate))
		for date, total := range byDate {
			points = append(points, dailyServiceCost{date: date, cost: total.InexactFloat64()})
		}
		slices.SortFunc(points, func(a, b dailyServiceCost) int {
			return strings.Compare(a.date, b.date)
		})

		mean, std := meanStd(points)
		for _, p := range points {
			if p.cost <= mean+2*std || p.cost <= minAnomalyCost {
				continue
			}
			severity := models.LevelMedium
			if p.cost > mean+3*std {
				severity = models.LevelHigh
			}
			anomalies = append(anomalies, models.Anomaly{
				ID:          uuid.NewString(),
				Date:        p.date,
				Service:     service,
				Severity:    severity,
				Description: fmt.Sprintf("Unusual spike in %s costs: $%.2f (average: $%.2f)", service, p.cost, mean),
				Impact:      money(decimal.NewFromFloat(p.cost - mean)),
				Identified:  now,
			})
		}
	}

	slices.SortStableFunc(anomalies, func(a, b models.Anomaly) int {
		return cmp.Compare(b.Impact, a.Impact)
	})
	if len(anomalies) > maxAnomalies {
		anomalies = anomalies[:maxAnomalies]
	}
	return anomalies
}

// meanStd returns the mean and the sample standard deviation.
func meanStd(points []dailyServiceCost) (float64, float64) {
	n := float64(len(points))
	var sum float64
	for _, p := range points {
		sum += p.cost
	}
	mean := sum / n

	var sq float64
	for _, p := range points {
		d := p.cost - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}

type serviceTotal struct {
	service string
	total   decimal.Decimal
}

func serviceTotals(records []models.CostRecord) []serviceTotal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		sums[r.Service] = sums[r.Service].Add(costOf(r))
	}
	out := make([]serviceTotal, 0, len(sums))
	for service, total := range sums {
		out = append(out, serviceTotal{service: service, total: total})
	}
	slices.SortFunc(out, func(a, b serviceTotal) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return strings.Compare(a.service, b.service)
	})
	return out
}

type recommendationRule struct {
	service   string
	threshold float64
	rate      float64
	title     string
	template  string
	effort    models.Level
	risk      models.Level
	category  string
}

var serviceRecommendationRules = []recommendationRule{
	{
		service:   "EC2",
		threshold: 1000,
		rate:      0.4,
		title:     "Purchase EC2 Reserved Instances",
		template:  "Your EC2 costs ($%.2f) could benefit from Reserved Instance pricing. Save up to 60%% on predictable workloads.",
		effort:    models.LevelLow,
		risk:      models.LevelLow,
		category:  "Computing",
	},
	{
		service:   "S3",
		threshold: 500,
		rate:      0.25,
		title:     "Enable S3 Intelligent Tiering",
		template:  "S3 costs ($%.2f) can be optimized with Intelligent Tiering to automatically move data to cost-effective storage classes.",
		effort:    models.LevelLow,
		risk:      models.LevelLow,
		category:  "Storage",
	},
	{
		service:   "RDS",
		threshold: 800,
		rate:      0.3,
		title:     "Right-size RDS Instances",
		template:  "RDS costs ($%.2f) suggest potential over-provisioning. Review instance sizes and utilization metrics.",
		effort:    models.LevelMedium,
		risk:      models.LevelMedium,
		category:  "Database",
	},
}

const (
	generalTopServices = 3
	generalThreshold   = 200
	generalRate        = 0.15
)

// RecommendFromTotals applies the per-service rules, then suggests a review
// of every other top-three service above the general threshold.
func RecommendFromTotals(records []models.CostRecord, now time.Time) []models.Recommendation {
	totals := serviceTotals(records)
	byService := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		byService[t.service] = t.total
	}

	recs := make([]models.Recommendation, 0)
	add := func(title, description string, savings decimal.Decimal, effort, risk models.Level, category string) {
		recs = append(recs, models.Recommendation{
			ID:               strconv.Itoa(len(recs) + 1),
			Title:            title,
			Description:      description,
			EstimatedSavings: money(savings),
			EffortLevel:      effort,
			Risk:             risk,
			Category:         category,
			Status:           models.StatusPending,
			CreatedAt:        now,
		})
	}

	covered := make(map[string]struct{}, len(serviceRecommendationRules))
	for _, rule := range serviceRecommendationRules {
		covered[rule.service] = struct{}{}
		total, ok := byService[rule.service]
		if !ok || !total.GreaterThan(decimal.NewFromFloat(rule.threshold)) {
			continue
		}
		add(rule.title,
			fmt.Sprintf(rule.template, total.InexactFloat64()),
			total.Mul(decimal.NewFromFloat(rule.rate)),
			rule.effort, rule.risk, rule.category)
	}

	top := totals
	if len(top) > generalTopServices {
		top = top[:generalTopServices]
	}
	for _, t := range top {
		if _, ok := covered[t.service]; ok {
			continue
		}
		if !t.total.GreaterThan(decimal.NewFromInt(generalThreshold)) {
			continue
		}
		add(fmt.Sprintf("Optimize %s Usage", t.service),
			fmt.Sprintf("%s is one of your top cost drivers ($%.2f). Review usage patterns and consider optimization strategies.", t.service, t.total.InexactFloat64()),
			t.total.Mul(decimal.NewFromFloat(generalRate)),
			models.LevelMedium, models.LevelLow, "General")
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// MockAnalyzer ignores its input and returns the fixed demo anomalies and
// recommendations.
type MockAnalyzer struct {
	delay time.Duration
	now   func() time.Time
}

func NewMockAnalyzer(delay time.Duration) *MockAnalyzer {
	return &MockAnalyzer{delay: delay, now: time.Now}
}

func (a *MockAnalyzer) Analyze(ctx context.Context, _ []models.CostRecord) (*Analysis, error) {
	if err := sleepContext(ctx, a.delay); err != nil {
		return nil, err
	}
	now := a.now()
	return &Analysis{
		Anomalies:       MockAnomalies(now),
		Recommendations: MockRecommendations(now),
	}, nil
}
