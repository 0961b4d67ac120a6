package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"costlens/internal/models"
	"costlens/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pagedCostExplorer struct {
	pages  []*costexplorer.GetCostAndUsageOutput
	err    error
	inputs []costexplorer.GetCostAndUsageInput
}

func (p *pagedCostExplorer) GetCostAndUsage(_ context.Context, params *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	p.inputs = append(p.inputs, *params)
	if p.err != nil {
		return nil, p.err
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	return page, nil
}

func group(service, region, amount string) types.Group {
	return types.Group{
		Keys: []string{service, region},
		Metrics: map[string]types.MetricValue{
			costExplorerMetric: {Amount: aws.String(amount), Unit: aws.String("USD")},
		},
	}
}

func day(date string, groups ...types.Group) types.ResultByTime {
	return types.ResultByTime{
		TimePeriod: &types.DateInterval{Start: aws.String(date), End: aws.String(date)},
		Groups:     groups,
	}
}

func newTestCostExplorer(api CostExplorerAPI) (*CostExplorerService, *memoryWorkspace, *store.Store) {
	ws := newMemoryWorkspace()
	uploads, st := newTestUploadService(ws, nil)
	svc := NewCostExplorerService(api, uploads, 90, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, ws, st
}

func TestCostExplorerFetchRecords(t *testing.T) {
	api := &pagedCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{
		{
			ResultsByTime: []types.ResultByTime{
				day("2024-03-13",
					group("Amazon Elastic Compute Cloud - Compute", "us-east-1", "12.345"),
					group("Tax", "NoRegion", "3"),
				),
			},
			NextPageToken: aws.String("page-2"),
		},
		{
			ResultsByTime: []types.ResultByTime{
				day("2024-03-14",
					group("Amazon Simple Storage Service", "", "0.001"),
					group("AWS Lambda", "eu-west-1", "not-a-number"),
					group("AWS Lambda", "eu-west-1", "1.5"),
				),
			},
		},
	}}
	svc, _, _ := newTestCostExplorer(api)

	records, err := svc.FetchRecords(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []models.CostRecord{
		{Date: "2024-03-13", Service: "EC2", Region: "us-east-1", Cost: 12.35},
		{Date: "2024-03-13", Service: "Tax", Region: "global", Cost: 3},
		{Date: "2024-03-14", Service: "Lambda", Region: "eu-west-1", Cost: 1.5},
	}, records)

	require.Len(t, api.inputs, 2)
	first := api.inputs[0]
	// 7 days through today, End exclusive
	assert.Equal(t, "2024-03-09", aws.ToString(first.TimePeriod.Start))
	assert.Equal(t, "2024-03-16", aws.ToString(first.TimePeriod.End))
	start, err := time.Parse(time.DateOnly, aws.ToString(first.TimePeriod.Start))
	require.NoError(t, err)
	end, err := time.Parse(time.DateOnly, aws.ToString(first.TimePeriod.End))
	require.NoError(t, err)
	assert.Equal(t, 7, int(end.Sub(start).Hours()/24))
	assert.Equal(t, types.GranularityDaily, first.Granularity)
	assert.Nil(t, first.NextPageToken)
	assert.Equal(t, "page-2", aws.ToString(api.inputs[1].NextPageToken))
}

func TestCostExplorerImport(t *testing.T) {
	api := &pagedCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{{
		ResultsByTime: []types.ResultByTime{
			day("2024-03-14", group("AmazonRDS", "us-east-1", "40")),
		},
	}}}
	svc, ws, st := newTestCostExplorer(api)

	resp, err := svc.Import(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, recordColumns, resp.Columns)
	assert.Equal(t, 1, resp.Rows)
	assert.Equal(t, "2024-03-14", resp.Summary.DateRange.Start)

	assert.Equal(t, [][]string{{"2024-03-14", "RDS", "us-east-1", "40.00", ""}}, ws.tables[CostExplorerTable])
	require.Len(t, ws.uploads, 1)
	assert.Equal(t, models.SourceCostExplorer, ws.uploads[0].Source)
	assert.Len(t, st.Snapshot().CostData, 1)
	assert.False(t, st.Snapshot().IsLoading)

	assert.Equal(t, "2024-02-15", aws.ToString(api.inputs[0].TimePeriod.Start))
}

func TestCostExplorerImport_Rejections(t *testing.T) {
	svc, _, _ := newTestCostExplorer(nil)
	_, err := svc.Import(context.Background(), 7)
	assert.ErrorIs(t, err, ErrImportDisabled)

	svc, _, _ = newTestCostExplorer(&pagedCostExplorer{})
	for _, days := range []int{-1, 91} {
		_, err = svc.Import(context.Background(), days)
		assert.ErrorIs(t, err, ErrInvalidImportRange)
	}

	empty := &pagedCostExplorer{pages: []*costexplorer.GetCostAndUsageOutput{{}}}
	svc, ws, st := newTestCostExplorer(empty)
	_, err = svc.Import(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoValidData)
	assert.Empty(t, ws.uploads)
	assert.False(t, st.Snapshot().IsLoading)

	failing := &pagedCostExplorer{err: errors.New("access denied")}
	svc, _, _ = newTestCostExplorer(failing)
	_, err = svc.Import(context.Background(), 7)
	assert.ErrorContains(t, err, "access denied")
}
