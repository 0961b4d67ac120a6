package service

import (
	"bytes"
	"encoding/csv"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"costlens/internal/models"

	"github.com/shopspring/decimal"
)

const mockHistoryDays = 90

var (
	mockServices     = []string{"EC2", "S3", "RDS", "Lambda", "CloudFront", "DynamoDB", "ECS", "EKS"}
	mockRegions      = []string{"us-east-1", "us-west-2", "eu-west-1", "ap-southeast-1"}
	mockTeams        = []string{"engineering", "data", "platform"}
	sampleProducts   = []string{"AmazonEC2", "AmazonS3", "AmazonRDS", "AWSLambda", "AmazonCloudFront", "AmazonDynamoDB"}
	sampleEnvs       = []string{"production", "development", "staging"}
	sampleCSVColumns = []string{
		"lineItem/UsageStartDate", "lineItem/ProductCode", "product/region", "lineItem/UnblendedCost",
		"lineItem/ResourceId", "resourceTags/environment", "resourceTags/team",
	}
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRand returns a generator for mock data. A zero seed is replaced by the
// current time.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func randomID(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rng.IntN(len(base36))]
	}
	return string(b)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

// GenerateMockCostData builds 90 days of spend for every mock service and
// region, with a rising trend, an EC2 spike over the last 10 days and an S3
// spike 20 to 25 days ago.
func GenerateMockCostData(now time.Time, rng *rand.Rand) []models.CostRecord {
	records := make([]models.CostRecord, 0, mockHistoryDays*len(mockServices)*len(mockRegions))

	for i := mockHistoryDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).UTC().Format(time.DateOnly)

		for _, service := range mockServices {
			for _, region := range mockRegions {
				cost := rng.Float64()*500 + 100
				cost += float64((mockHistoryDays - 1 - i) * 2)
				if service == "EC2" && i < 10 {
					cost *= 1.4
				}
				if service == "S3" && i >= 20 && i <= 25 {
					cost *= 2.1
				}

				environment := "development"
				if rng.Float64() > 0.5 {
					environment = "production"
				}

				records = append(records, models.CostRecord{
					Date:       date,
					Service:    service,
					Region:     region,
					Cost:       money(decimal.NewFromFloat(cost)),
					ResourceID: strings.ToLower(service) + "-" + randomID(rng, 9),
					Tags: map[string]string{
						"environment": environment,
						"team":        pick(rng, mockTeams),
					},
				})
			}
		}
	}

	return records
}

// SampleCSV renders a Cost and Usage Report style CSV that the upload
// endpoint accepts.
func SampleCSV(now time.Time, rng *rand.Rand) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(sampleCSVColumns)

	for i := mockHistoryDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).UTC().Format(time.DateOnly)
		entries := rng.IntN(10) + 10

		for j := 0; j < entries; j++ {
			product := pick(rng, sampleProducts)
			region := pick(rng, mockRegions)
			environment := pick(rng, sampleEnvs)
			team := pick(rng, mockTeams)

			cost := rng.Float64()*100 + 10
			if product == "AmazonEC2" && i < 10 {
				cost *= 1.5
			}
			if product == "AmazonS3" && i >= 20 && i <= 25 {
				cost *= 2.2
			}

			_ = w.Write([]string{
				date,
				product,
				region,
				strconv.FormatFloat(cost, 'f', 2, 64),
				strings.ToLower(product) + "-" + randomID(rng, 9),
				environment,
				team,
			})
		}
	}

	w.Flush()
	return buf.Bytes()
}

func daysAgo(now time.Time, days int) string {
	return now.AddDate(0, 0, -days).UTC().Format(time.DateOnly)
}

func MockAnomalies(now time.Time) []models.Anomaly {
	return []models.Anomaly{
		{
			ID:          "1",
			Date:        daysAgo(now, 5),
			Service:     "EC2",
			Severity:    models.LevelHigh,
			Description: "EC2 costs increased 42% in us-east-1. Detected 3 new m5.xlarge instances running continuously.",
			Impact:      1247.80,
			Identified:  now,
		},
		{
			ID:          "2",
			Date:        daysAgo(now, 8),
			Service:     "S3",
			Severity:    models.LevelMedium,
			Description: "S3 storage costs up 28%. Analysis shows 450GB of duplicate data in production-logs bucket.",
			Impact:      89.50,
			Identified:  now,
		},
		{
			ID:          "3",
			Date:        daysAgo(now, 12),
			Service:     "RDS",
			Severity:    models.LevelMedium,
			Description: "RDS instance db-prod-01 showing consistently low CPU utilization (avg 12%). Consider downsizing.",
			Impact:      320.00,
			Identified:  now,
		},
		{
			ID:          "4",
			Date:        daysAgo(now, 2),
			Service:     "Lambda",
			Severity:    models.LevelLow,
			Description: "Lambda invocations increased 18% but within normal variance. Monitor for sustained growth.",
			Impact:      45.30,
			Identified:  now,
		},
	}
}

func MockRecommendations(now time.Time) []models.Recommendation {
	return []models.Recommendation{
		{
			ID:               "1",
			Title:            "Purchase EC2 Reserved Instances for Production Workloads",
			Description:      "Analysis shows 8 m5.xlarge instances running 24/7 in production. Purchasing 1-year Reserved Instances could save ~40% on these compute costs.",
			EstimatedSavings: 18560.00,
			EffortLevel:      models.LevelLow,
			Risk:             models.LevelLow,
			Category:         "Reserved Instances",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
		{
			ID:               "2",
			Title:            "Enable S3 Intelligent Tiering for production-logs",
			Description:      "The production-logs bucket (450GB) has objects with varying access patterns. Intelligent Tiering can automatically move data to cheaper storage classes.",
			EstimatedSavings: 3240.00,
			EffortLevel:      models.LevelLow,
			Risk:             models.LevelLow,
			Category:         "Storage Optimization",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
		{
			ID:               "3",
			Title:            "Right-size RDS Instance db-prod-01",
			Description:      "Database instance shows avg CPU of 12% and memory of 35%. Downgrade from db.m5.2xlarge to db.m5.xlarge.",
			EstimatedSavings: 7200.00,
			EffortLevel:      models.LevelMedium,
			Risk:             models.LevelMedium,
			Category:         "Right-sizing",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
		{
			ID:               "4",
			Title:            "Delete Unattached EBS Volumes",
			Description:      "Found 12 EBS volumes (total 2.4TB) not attached to any instances. These appear to be from terminated instances.",
			EstimatedSavings: 2880.00,
			EffortLevel:      models.LevelLow,
			Risk:             models.LevelLow,
			Category:         "Unused Resources",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
		{
			ID:               "5",
			Title:            "Implement Auto-scaling for Development Environments",
			Description:      "Development EC2 instances run 24/7. Configure auto-scaling to shut down during off-hours (7pm-7am, weekends).",
			EstimatedSavings: 5400.00,
			EffortLevel:      models.LevelMedium,
			Risk:             models.LevelLow,
			Category:         "Scheduling",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
		{
			ID:               "6",
			Title:            "Optimize CloudFront Cache Configuration",
			Description:      "CloudFront cache hit ratio is 45%. Optimizing TTL settings and cache behaviors could reduce origin requests by ~30%.",
			EstimatedSavings: 1890.00,
			EffortLevel:      models.LevelMedium,
			Risk:             models.LevelMedium,
			Category:         "CDN Optimization",
			Status:           models.StatusPending,
			CreatedAt:        now,
		},
	}
}
