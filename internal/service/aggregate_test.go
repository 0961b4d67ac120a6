package service

import (
	"fmt"
	"testing"
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func rec(date, service, region string, cost float64, resourceID string) models.CostRecord {
	return models.CostRecord{Date: date, Service: service, Region: region, Cost: cost, ResourceID: resourceID}
}

func TestDailyCostsAndTrend(t *testing.T) {
	records := []models.CostRecord{
		rec("2024-03-02", "EC2", "us-east-1", 1.10, ""),
		rec("2024-03-01", "EC2", "us-east-1", 2.20, ""),
		rec("2024-03-02", "S3", "us-east-1", 0.20, ""),
		rec("2024-03-03", "S3", "us-east-1", 5, ""),
	}

	assert.Equal(t, []dto.TrendPoint{
		{Date: "2024-03-01", Cost: 2.2},
		{Date: "2024-03-02", Cost: 1.3},
		{Date: "2024-03-03", Cost: 5},
	}, DailyCosts(records))

	assert.Equal(t, []dto.TrendPoint{
		{Date: "2024-03-02", Cost: 1.3},
		{Date: "2024-03-03", Cost: 5},
	}, CostTrend(records, 2))
	assert.Len(t, CostTrend(records, 0), 3)
	assert.Empty(t, DailyCosts(nil))
}

func TestServiceBreakdown_FoldsTailIntoOther(t *testing.T) {
	var records []models.CostRecord
	for i := 0; i < 11; i++ {
		records = append(records, rec("2024-03-10", fmt.Sprintf("svc-%02d", i), "us-east-1", float64(100-i)+0.01, ""))
	}
	// last month is excluded
	records = append(records, rec("2024-02-28", "svc-00", "us-east-1", 1000, ""))

	slices := ServiceBreakdown(records, fixedNow)
	require.Len(t, slices, TopServiceCount+1)
	assert.Equal(t, "svc-00", slices[0].Name)
	assert.Equal(t, 100.01, slices[0].Value)
	assert.Equal(t, OtherServicesLabel, slices[TopServiceCount].Name)
	assert.Equal(t, 273.03, slices[TopServiceCount].Value)

	var sum, want decimal.Decimal
	for _, s := range slices {
		sum = sum.Add(decimal.NewFromFloat(s.Value))
	}
	for _, r := range records[:11] {
		want = want.Add(decimal.NewFromFloat(r.Cost))
	}
	assert.True(t, want.Equal(sum), "breakdown %s != month total %s", sum, want)
}

func TestServiceBreakdown_NoOtherForFewServices(t *testing.T) {
	slices := ServiceBreakdown([]models.CostRecord{
		rec("2024-03-01", "S3", "us-east-1", 5, ""),
		rec("2024-03-01", "EC2", "us-east-1", 5, ""),
	}, fixedNow)

	assert.Equal(t, []dto.ServiceSlice{
		{Name: "EC2", Value: 5},
		{Name: "S3", Value: 5},
	}, slices)
}

func TestResourceBreakdown(t *testing.T) {
	first := rec("2024-03-01", "EC2", "us-east-1", 10, "i-1")
	first.Tags = map[string]string{"team": "eng"}
	second := rec("2024-03-02", "EC2", "us-east-1", 15.5, "i-1")
	second.Tags = map[string]string{"team": "data"}

	rows := ResourceBreakdown([]models.CostRecord{
		first,
		second,
		rec("2024-03-02", "S3", "us-east-1", 3, ""),
		rec("2024-03-03", "S3", "us-east-1", 4, ""),
		rec("2024-03-03", "EC2", "eu-west-1", 40, "i-1"),
		rec("2024-02-20", "EC2", "us-east-1", 99, "i-1"),
	}, fixedNow)

	require.Len(t, rows, 3)
	assert.Equal(t, "EC2-eu-west-1-i-1", rows[0].Key)
	assert.Equal(t, 40.0, rows[0].Cost)

	assert.Equal(t, "EC2-us-east-1-i-1", rows[1].Key)
	assert.Equal(t, 25.5, rows[1].Cost)
	assert.Equal(t, map[string]string{"team": "eng"}, rows[1].Tags)

	assert.Equal(t, "S3-us-east-1-unknown", rows[2].Key)
	assert.Equal(t, "N/A", rows[2].ResourceID)
	assert.Equal(t, 7.0, rows[2].Cost)
}

func TestFilterResources(t *testing.T) {
	rows := []dto.ResourceRow{
		{ResourceID: "i-abc", Service: "EC2", Region: "us-east-1", Cost: 30},
		{ResourceID: "bucket-logs", Service: "S3", Region: "eu-west-1", Cost: 20},
		{ResourceID: "i-def", Service: "EC2", Region: "eu-west-1", Cost: 10},
	}

	tests := []struct {
		name    string
		service string
		search  string
		limit   int
		want    []string
		total   int
	}{
		{name: "all", service: "all", want: []string{"i-abc", "bucket-logs", "i-def"}, total: 3},
		{name: "service filter", service: "EC2", want: []string{"i-abc", "i-def"}, total: 2},
		{name: "search region", search: "EU-WEST", want: []string{"bucket-logs", "i-def"}, total: 2},
		{name: "search service", search: "s3", want: []string{"bucket-logs"}, total: 1},
		{name: "limit", limit: 1, want: []string{"i-abc"}, total: 3},
		{name: "no match", service: "RDS", want: []string{}, total: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := FilterResources(rows, tt.service, tt.search, tt.limit)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ResourceID
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.total, total)
		})
	}

	assert.Equal(t, []string{"EC2", "S3"}, ResourceServices(rows))
}

func TestOverview(t *testing.T) {
	records := []models.CostRecord{
		rec("2024-03-01", "EC2", "us-east-1", 150, ""),
		rec("2024-03-10", "S3", "us-east-1", 0.1, ""),
		rec("2024-02-01", "EC2", "us-east-1", 100, ""),
		rec("2024-01-31", "EC2", "us-east-1", 500, ""),
	}
	anomalies := []models.Anomaly{
		{ID: "1", Severity: models.LevelHigh},
		{ID: "2", Severity: models.LevelLow},
	}
	recommendations := []models.Recommendation{
		{ID: "1", EstimatedSavings: 100.10, Status: models.StatusPending},
		{ID: "2", EstimatedSavings: 50, Status: models.StatusIgnored},
		{ID: "3", EstimatedSavings: 0.2, Status: models.StatusPending},
	}

	assert.Equal(t, dto.OverviewResponse{
		CurrentMonth:           150.1,
		PreviousMonth:          100,
		Change:                 50.1,
		ChangePercent:          50.1,
		TotalAnomalies:         2,
		HighSeverityAnomalies:  1,
		PendingRecommendations: 2,
		PotentialSavings:       100.3,
	}, Overview(records, anomalies, recommendations, fixedNow))
}

func TestOverview_NoPreviousMonth(t *testing.T) {
	resp := Overview([]models.CostRecord{rec("2024-03-01", "EC2", "us-east-1", 10, "")}, nil, nil, fixedNow)
	assert.Equal(t, 10.0, resp.CurrentMonth)
	assert.Zero(t, resp.ChangePercent)
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]models.CostRecord{
		rec("2024-03-05", "EC2", "us-east-1", 0.1, ""),
		rec("2024-03-01", "S3", "us-east-1", 0.2, ""),
		rec("2024-03-09", "EC2", "eu-west-1", 1, ""),
	})

	assert.Equal(t, dto.UploadSummary{
		TotalCost: 1.3,
		Services:  2,
		Regions:   2,
		DateRange: dto.DateRange{Start: "2024-03-01", End: "2024-03-09"},
	}, summary)
	assert.Equal(t, dto.UploadSummary{}, Summarize(nil))
}
