package service

import (
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"

	"github.com/shopspring/decimal"
)

const DefaultForecastHorizon = 30

// Forecast extends the daily series by horizon days along the straight line
// through its first and last points: trend = (last - first) / n and the
// i-th projected day is max(0, last + trend*i).
func Forecast(records []models.CostRecord, horizon int) dto.ForecastResponse {
	if horizon <= 0 {
		horizon = DefaultForecastHorizon
	}

	daily := DailyCosts(records)
	n := len(daily)
	resp := dto.ForecastResponse{
		Dates:    make([]string, 0, n+horizon),
		Actual:   make([]*float64, 0, n+horizon),
		Forecast: make([]*float64, 0, n+horizon),
	}
	if n == 0 {
		return resp
	}

	for _, p := range daily {
		cost := p.Cost
		resp.Dates = append(resp.Dates, p.Date)
		resp.Actual = append(resp.Actual, &cost)
		resp.Forecast = append(resp.Forecast, nil)
	}

	first := decimal.NewFromFloat(daily[0].Cost)
	last := decimal.NewFromFloat(daily[n-1].Cost)
	trend := last.Sub(first).Div(decimal.NewFromInt(int64(n)))

	lastDate, err := time.Parse(time.DateOnly, daily[n-1].Date)
	if err != nil {
		return resp
	}

	for i := 1; i <= horizon; i++ {
		value := last.Add(trend.Mul(decimal.NewFromInt(int64(i))))
		if value.IsNegative() {
			value = decimal.Zero
		}
		projected := money(value)
		resp.Dates = append(resp.Dates, lastDate.AddDate(0, 0, i).Format(time.DateOnly))
		resp.Actual = append(resp.Actual, nil)
		resp.Forecast = append(resp.Forecast, &projected)
	}

	return resp
}
