package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrImportDisabled     = errors.New("cost explorer import is disabled")
	ErrInvalidImportRange = errors.New("invalid import range")
)

const (
	DefaultImportDays    = 30
	CostExplorerTable    = "cost_explorer"
	costExplorerMetric   = "UnblendedCost"
	costExplorerNoRegion = "NoRegion"
)

// CostExplorerAPI is the subset of the AWS Cost Explorer client we use.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// NewCostExplorerClient builds a client from the default AWS credential
// chain.
func NewCostExplorerClient(ctx context.Context, region string) (*costexplorer.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return costexplorer.NewFromConfig(cfg), nil
}

// CostExplorerService pulls daily per-service, per-region spend from AWS and
// feeds it through the upload pipeline.
type CostExplorerService struct {
	api     CostExplorerAPI
	uploads *UploadService
	maxDays int
	logger  *zap.Logger
	now     func() time.Time
}

// NewCostExplorerService accepts a nil api, in which case every import fails
// with ErrImportDisabled.
func NewCostExplorerService(api CostExplorerAPI, uploads *UploadService, maxDays int, logger *zap.Logger) *CostExplorerService {
	return &CostExplorerService{
		api:     api,
		uploads: uploads,
		maxDays: maxDays,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *CostExplorerService) Import(ctx context.Context, days int) (*dto.UploadResponse, error) {
	if s.api == nil {
		return nil, ErrImportDisabled
	}
	if days == 0 {
		days = DefaultImportDays
	}
	if days < 1 || days > s.maxDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidImportRange, s.maxDays)
	}

	if err := s.uploads.store.TryBeginLoading(); err != nil {
		return nil, err
	}
	defer s.uploads.store.EndLoading()

	records, err := s.FetchRecords(ctx, days)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoValidData
	}

	return s.uploads.ingest(ctx, ingestInput{
		source:  models.SourceCostExplorer,
		table:   CostExplorerTable,
		columns: recordColumns,
		rows:    recordRows(records),
		records: records,
	})
}

// FetchRecords returns one record per day, service and region with positive
// spend over the last days days, today included.
func (s *CostExplorerService) FetchRecords(ctx context.Context, days int) ([]models.CostRecord, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))
	// End is exclusive
	end := today.AddDate(0, 0, 1)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format(time.DateOnly)),
			End:   aws.String(end.Format(time.DateOnly)),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{costExplorerMetric},
		GroupBy: []types.GroupDefinition{
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
			{Type: types.GroupDefinitionTypeDimension, Key: aws.String("REGION")},
		},
	}

	var records []models.CostRecord
	pages := 0
	for {
		out, err := s.api.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("GetCostAndUsage: %w", err)
		}
		pages++
		records = append(records, recordsFromResults(out.ResultsByTime)...)

		if out.NextPageToken == nil || *out.NextPageToken == "" {
			break
		}
		input.NextPageToken = out.NextPageToken
	}

	s.logger.Info("Cost Explorer data fetched",
		zap.Int("days", days),
		zap.Int("pages", pages),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func recordsFromResults(results []types.ResultByTime) []models.CostRecord {
	var records []models.CostRecord
	for _, period := range results {
		if period.TimePeriod == nil || period.TimePeriod.Start == nil {
			continue
		}
		date := aws.ToString(period.TimePeriod.Start)

		for _, group := range period.Groups {
			metric, ok := group.Metrics[costExplorerMetric]
			if !ok || metric.Amount == nil {
				continue
			}
			amount, err := decimal.NewFromString(aws.ToString(metric.Amount))
			if err != nil {
				continue
			}
			amount = amount.Round(2)
			if !amount.IsPositive() {
				continue
			}

			service, region := defaultService, defaultRegion
			if len(group.Keys) > 0 && group.Keys[0] != "" {
				service = FriendlyServiceName(group.Keys[0])
			}
			if len(group.Keys) > 1 && group.Keys[1] != "" && group.Keys[1] != costExplorerNoRegion {
				region = group.Keys[1]
			}

			records = append(records, models.CostRecord{
				Date:    date,
				Service: service,
				Region:  region,
				Cost:    amount.InexactFloat64(),
			})
		}
	}
	return records
}
