package service

import (
	"testing"

	"costlens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floats(values []*float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

func TestForecast_ExtendsLine(t *testing.T) {
	records := []models.CostRecord{
		rec("2024-03-01", "EC2", "us-east-1", 10, ""),
		rec("2024-03-02", "EC2", "us-east-1", 15, ""),
		rec("2024-03-02", "S3", "us-east-1", 5, ""),
		rec("2024-03-03", "EC2", "us-east-1", 40, ""),
	}

	resp := Forecast(records, 2)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"}, resp.Dates)
	assert.Equal(t, []any{10.0, 20.0, 40.0, nil, nil}, floats(resp.Actual))
	assert.Equal(t, []any{nil, nil, nil, 50.0, 60.0}, floats(resp.Forecast))
}

func TestForecast_ClampsAtZero(t *testing.T) {
	resp := Forecast([]models.CostRecord{
		rec("2024-03-30", "EC2", "us-east-1", 100, ""),
		rec("2024-03-31", "EC2", "us-east-1", 10, ""),
	}, 3)

	require.Len(t, resp.Dates, 5)
	assert.Equal(t, "2024-04-01", resp.Dates[2])
	assert.Equal(t, []any{nil, nil, 0.0, 0.0, 0.0}, floats(resp.Forecast))
}

func TestForecast_DefaultsAndEmpty(t *testing.T) {
	resp := Forecast(nil, 0)
	assert.Empty(t, resp.Dates)
	assert.NotNil(t, resp.Actual)

	resp = Forecast([]models.CostRecord{rec("2024-03-01", "EC2", "us-east-1", 10, "")}, 0)
	assert.Len(t, resp.Dates, 1+DefaultForecastHorizon)
	// a single point has no slope
	assert.Equal(t, 10.0, *resp.Forecast[DefaultForecastHorizon])
}
