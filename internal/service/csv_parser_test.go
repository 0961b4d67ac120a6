package service

import (
	"strings"
	"testing"

	"costlens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCostCSV_CURRow(t *testing.T) {
	input := "lineItem/UsageStartDate,lineItem/ProductCode,product/region,lineItem/UnblendedCost,lineItem/ResourceId,resourceTags/environment,resourceTags/team\n" +
		"2024-01-01,AmazonEC2,us-east-1,12.345,i-abc,production,eng\n"

	result, err := ParseCostCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Empty(t, result.Dropped)

	assert.Equal(t, models.CostRecord{
		Date:       "2024-01-01",
		Service:    "EC2",
		Region:     "us-east-1",
		Cost:       12.35,
		ResourceID: "i-abc",
		Tags:       map[string]string{"environment": "production", "team": "eng"},
	}, result.Records[0])
	assert.Len(t, result.Columns, 7)
	assert.Len(t, result.Rows, 1)
}

func TestParseCostCSV_Aliases(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect models.CostRecord
	}{
		{
			name:  "simple names with defaults",
			input: "Date,Cost\n2024-02-03,5\n",
			expect: models.CostRecord{
				Date: "2024-02-03", Service: "Unknown", Region: "global", Cost: 5,
			},
		},
		{
			name:  "first non-empty alias wins",
			input: "lineItem/ProductCode,Service,date,cost\n,AWSLambda,2024-02-03,1.005\n",
			expect: models.CostRecord{
				Date: "2024-02-03", Service: "Lambda", Region: "global", Cost: 1.01,
			},
		},
		{
			name:  "unknown product code passes through",
			input: "UsageStartDate,ProductCode,Region,UnblendedCost,ResourceId\n2024-02-03T10:00:00Z,AmazonSageMaker,eu-west-1,2,nb-1\n",
			expect: models.CostRecord{
				Date: "2024-02-03", Service: "AmazonSageMaker", Region: "eu-west-1", Cost: 2, ResourceID: "nb-1",
			},
		},
		{
			name:  "tag colon prefix",
			input: "date,service,cost,tag:owner,tag:empty\n2024-02-03,S3,3,alice,\n",
			expect: models.CostRecord{
				Date: "2024-02-03", Service: "S3", Region: "global", Cost: 3,
				Tags: map[string]string{"owner": "alice"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseCostCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, result.Records, 1)
			assert.Equal(t, tt.expect, result.Records[0])
		})
	}
}

func TestParseCostCSV_DateFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "2024-01-01T23:30:00-05:00", want: "2024-01-02"},
		{raw: "2024-01-01 08:00:00", want: "2024-01-01"},
		{raw: "2024/03/04", want: "2024-03-04"},
		{raw: "03/04/2024", want: "2024-03-04"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			result, err := ParseCostCSV(strings.NewReader("Date,Cost\n" + tt.raw + ",1\n"))
			require.NoError(t, err)
			require.Len(t, result.Records, 1)
			assert.Equal(t, tt.want, result.Records[0].Date)
		})
	}
}

func TestParseCostCSV_DroppedRows(t *testing.T) {
	input := strings.Join([]string{
		"Date,Service,Cost",
		"2024-01-01,EC2,10",
		"2024-01-01,EC2,0",
		"2024-01-01,EC2,-4",
		"2024-01-01,EC2,0.004",
		"not-a-date,EC2,3",
		",EC2,3",
		"2024-01-02,EC2,abc",
		"",
		"2024-01-03,EC2",
	}, "\n")

	result, err := ParseCostCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, 10.0, result.Records[0].Cost)

	reasons := make([]string, len(result.Dropped))
	for i, d := range result.Dropped {
		reasons[i] = d.Reason
	}
	assert.Equal(t, []string{
		"cost is not positive",
		"cost is not positive",
		"cost is not positive",
		`unparsable date "not-a-date"`,
		"missing date",
		`invalid cost "abc"`,
		"cost is not positive",
	}, reasons)
	assert.Equal(t, 3, result.Dropped[0].Line)

	// short rows are padded, blank lines skipped
	assert.Len(t, result.Rows, 8)
	assert.Equal(t, []string{"2024-01-03", "EC2", ""}, result.Rows[7])
}

func TestParseCostCSV_BOMAndEmpty(t *testing.T) {
	result, err := ParseCostCSV(strings.NewReader("\ufeffDate,Cost\n2024-01-01,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "Date", result.Columns[0])
	assert.Len(t, result.Records, 1)

	_, err = ParseCostCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestFriendlyServiceName(t *testing.T) {
	assert.Equal(t, "EC2", FriendlyServiceName("AmazonEC2"))
	assert.Equal(t, "EC2", FriendlyServiceName("Amazon Elastic Compute Cloud - Compute"))
	assert.Equal(t, "Route53", FriendlyServiceName("AmazonRoute53"))
	assert.Equal(t, "Tax", FriendlyServiceName("Tax"))
}

func TestParseCostCSV_RowsWiderThanHeader(t *testing.T) {
	input := strings.Join([]string{
		"Date,Service,Cost",
		"2024-01-01,EC2,10,extra,more",
		"2024-01-02,S3,5,,",
		"2024-01-03,RDS,7",
	}, "\n")

	result, err := ParseCostCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.Equal(t, []string{"2024-01-01", "EC2", "10"}, result.Rows[0])

	// blank trailing cells are not reported
	assert.Equal(t, []models.DroppedRow{{Line: 2, Reason: "ignored 2 cell(s) beyond the header"}}, result.Truncated)
	assert.Empty(t, result.Dropped)
}
