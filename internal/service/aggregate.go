package service

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultTrendDays     = 30
	DefaultResourceLimit = 50
	TopServiceCount      = 8
	OtherServicesLabel   = "Other"
)

func monthStart(now time.Time, offset int) string {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location()).Format(time.DateOnly)
}

func costOf(r models.CostRecord) decimal.Decimal {
	return decimal.NewFromFloat(r.Cost)
}

// DailyCosts sums spend per calendar day, oldest first.
func DailyCosts(records []models.CostRecord) []dto.TrendPoint {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		totals[r.Date] = totals[r.Date].Add(costOf(r))
	}

	points := make([]dto.TrendPoint, 0, len(totals))
	for date, total := range totals {
		points = append(points, dto.TrendPoint{Date: date, Cost: money(total)})
	}
	slices.SortFunc(points, func(a, b dto.TrendPoint) int {
		return strings.Compare(a.Date, b.Date)
	})
	return points
}

// CostTrend keeps the most recent days of the daily series.
func CostTrend(records []models.CostRecord, days int) []dto.TrendPoint {
	if days <= 0 {
		days = DefaultTrendDays
	}
	points := DailyCosts(records)
	if len(points) > days {
		points = points[len(points)-days:]
	}
	return points
}

// ServiceBreakdown returns current-month spend per service, largest first.
// Past TopServiceCount services the tail is folded into a single "Other"
// slice, so the values always add up to the month total.
func ServiceBreakdown(records []models.CostRecord, now time.Time) []dto.ServiceSlice {
	start := monthStart(now, 0)
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		if r.Date >= start {
			totals[r.Service] = totals[r.Service].Add(costOf(r))
		}
	}

	type entry struct {
		name  string
		total decimal.Decimal
	}
	entries := make([]entry, 0, len(totals))
	for name, total := range totals {
		entries = append(entries, entry{name: name, total: total})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	var other decimal.Decimal
	if len(entries) > TopServiceCount {
		for _, e := range entries[TopServiceCount:] {
			other = other.Add(e.total)
		}
		entries = entries[:TopServiceCount]
	}

	out := make([]dto.ServiceSlice, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, dto.ServiceSlice{Name: e.name, Value: money(e.total)})
	}
	if other.IsPositive() {
		out = append(out, dto.ServiceSlice{Name: OtherServicesLabel, Value: money(other)})
	}
	return out
}

func resourceKey(r models.CostRecord) string {
	id := r.ResourceID
	if id == "" {
		id = "unknown"
	}
	return r.Service + "-" + r.Region + "-" + id
}

// ResourceBreakdown collapses current-month records by service, region and
// resource id, largest first. Tags come from the first record seen.
func ResourceBreakdown(records []models.CostRecord, now time.Time) []dto.ResourceRow {
	start := monthStart(now, 0)

	type entry struct {
		row   dto.ResourceRow
		total decimal.Decimal
	}
	byKey := make(map[string]*entry)
	var order []*entry

	for _, r := range records {
		if r.Date < start {
			continue
		}
		key := resourceKey(r)
		if e, ok := byKey[key]; ok {
			e.total = e.total.Add(costOf(r))
			continue
		}
		id := r.ResourceID
		if id == "" {
			id = "N/A"
		}
		e := &entry{
			row: dto.ResourceRow{
				Key:        key,
				ResourceID: id,
				Service:    r.Service,
				Region:     r.Region,
				Tags:       r.Tags,
			},
			total: costOf(r),
		}
		byKey[key] = e
		order = append(order, e)
	}

	rows := make([]dto.ResourceRow, len(order))
	for i, e := range order {
		rows[i] = e.row
		rows[i].Cost = money(e.total)
	}
	slices.SortStableFunc(rows, func(a, b dto.ResourceRow) int {
		return cmp.Compare(b.Cost, a.Cost)
	})
	return rows
}

// FilterResources applies the resource table's service filter and
// case-insensitive search, then cuts to limit. It also returns how many rows
// matched before the cut.
func FilterResources(rows []dto.ResourceRow, service, search string, limit int) ([]dto.ResourceRow, int) {
	if limit <= 0 {
		limit = DefaultResourceLimit
	}
	search = strings.ToLower(strings.TrimSpace(search))

	filtered := make([]dto.ResourceRow, 0, len(rows))
	for _, row := range rows {
		if service != "" && service != "all" && row.Service != service {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(row.ResourceID), search) &&
			!strings.Contains(strings.ToLower(row.Service), search) &&
			!strings.Contains(strings.ToLower(row.Region), search) {
			continue
		}
		filtered = append(filtered, row)
	}

	total := len(filtered)
	if total > limit {
		filtered = filtered[:limit]
	}
	return filtered, total
}

// ResourceServices lists the distinct services in rows, sorted.
func ResourceServices(rows []dto.ResourceRow) []string {
	seen := make(map[string]struct{})
	var services []string
	for _, row := range rows {
		if _, ok := seen[row.Service]; ok {
			continue
		}
		seen[row.Service] = struct{}{}
		services = append(services, row.Service)
	}
	slices.Sort(services)
	return services
}

// Overview compares this month's spend with last month's and counts what
// needs attention.
func Overview(records []models.CostRecord, anomalies []models.Anomaly, recommendations []models.Recommendation, now time.Time) dto.OverviewResponse {
	current := monthStart(now, 0)
	previous := monthStart(now, -1)

	var currentTotal, previousTotal decimal.Decimal
	for _, r := range records {
		switch {
		case r.Date >= current:
			currentTotal = currentTotal.Add(costOf(r))
		case r.Date >= previous:
			previousTotal = previousTotal.Add(costOf(r))
		}
	}

	change := currentTotal.Sub(previousTotal)
	resp := dto.OverviewResponse{
		CurrentMonth:   money(currentTotal),
		PreviousMonth:  money(previousTotal),
		Change:         money(change),
		TotalAnomalies: len(anomalies),
	}
	if previousTotal.IsPositive() {
		resp.ChangePercent = money(change.Div(previousTotal).Mul(decimal.NewFromInt(100)))
	}

	for _, a := range anomalies {
		if a.Severity == models.LevelHigh {
			resp.HighSeverityAnomalies++
		}
	}

	var savings decimal.Decimal
	for _, rec := range recommendations {
		if rec.Status == models.StatusPending {
			resp.PendingRecommendations++
			savings = savings.Add(decimal.NewFromFloat(rec.EstimatedSavings))
		}
	}
	resp.PotentialSavings = money(savings)

	return resp
}

// Summarize describes a record set the way the upload response reports it.
func Summarize(records []models.CostRecord) dto.UploadSummary {
	var summary dto.UploadSummary
	if len(records) == 0 {
		return summary
	}

	var total decimal.Decimal
	services := make(map[string]struct{})
	regions := make(map[string]struct{})
	summary.DateRange = dto.DateRange{Start: records[0].Date, End: records[0].Date}

	for _, r := range records {
		total = total.Add(costOf(r))
		services[r.Service] = struct{}{}
		regions[r.Region] = struct{}{}
		if r.Date < summary.DateRange.Start {
			summary.DateRange.Start = r.Date
		}
		if r.Date > summary.DateRange.End {
			summary.DateRange.End = r.Date
		}
	}

	summary.TotalCost = money(total)
	summary.Services = len(services)
	summary.Regions = len(regions)
	return summary
}
