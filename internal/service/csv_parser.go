package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"costlens/internal/models"

	"github.com/shopspring/decimal"
)

var ErrEmptyCSV = errors.New("csv has no header row")

const (
	defaultService = "Unknown"
	defaultRegion  = "global"
)

var (
	dateColumns     = []string{"lineItem/UsageStartDate", "UsageStartDate", "Date", "date"}
	serviceColumns  = []string{"lineItem/ProductCode", "ProductCode", "Service", "service"}
	regionColumns   = []string{"product/region", "Region", "region"}
	costColumns     = []string{"lineItem/UnblendedCost", "UnblendedCost", "Cost", "cost"}
	resourceColumns = []string{"lineItem/ResourceId", "ResourceId"}
	tagPrefixes     = []string{"resourceTags/", "tag:"}
)

// Product codes from billing exports and the long names Cost Explorer
// reports for the same services.
var serviceNames = map[string]string{
	"AmazonEC2":         "EC2",
	"AmazonS3":          "S3",
	"AmazonRDS":         "RDS",
	"AWSLambda":         "Lambda",
	"AmazonCloudFront":  "CloudFront",
	"AmazonDynamoDB":    "DynamoDB",
	"AmazonECS":         "ECS",
	"AmazonEKS":         "EKS",
	"AmazonElastiCache": "ElastiCache",
	"AmazonVPC":         "VPC",
	"AmazonRoute53":     "Route53",

	"Amazon Elastic Compute Cloud - Compute":          "EC2",
	"EC2 - Other":                                     "EC2",
	"Amazon Simple Storage Service":                   "S3",
	"Amazon Relational Database Service":              "RDS",
	"AWS Lambda":                                      "Lambda",
	"Amazon CloudFront":                               "CloudFront",
	"Amazon DynamoDB":                                 "DynamoDB",
	"Amazon Elastic Container Service":                "ECS",
	"Amazon Elastic Container Service for Kubernetes": "EKS",
	"Amazon ElastiCache":                              "ElastiCache",
	"Amazon Virtual Private Cloud":                    "VPC",
	"Amazon Route 53":                                 "Route53",
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// FriendlyServiceName maps an AWS product code to its short display name.
// Unknown codes pass through unchanged.
func FriendlyServiceName(code string) string {
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return code
}

// ParseResult carries both the raw table and the records derived from it.
type ParseResult struct {
	Columns   []string
	Rows      [][]string
	Records   []models.CostRecord
	Dropped   []models.DroppedRow
	// rows that had cells past the last header column; those cells are lost
	Truncated []models.DroppedRow
}

// ParseCostCSV reads a billing CSV with a header row and normalizes every
// row it can. Rows that cannot produce a record are reported in Dropped.
func ParseCostCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	header = normalizeHeader(header)

	mapper := newRowMapper(header)
	result := &ParseResult{Columns: header}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		line, _ := reader.FieldPos(0)

		if extra := len(row) - len(header); extra > 0 && !isBlankRow(row[len(header):]) {
			result.Truncated = append(result.Truncated, models.DroppedRow{
				Line:   line,
				Reason: fmt.Sprintf("ignored %d cell(s) beyond the header", extra),
			})
		}

		cells := make([]string, len(header))
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(sanitizeUTF8(row[i]))
			}
		}
		result.Rows = append(result.Rows, cells)

		record, reason, ok := mapper.transform(cells)
		if !ok {
			result.Dropped = append(result.Dropped, models.DroppedRow{Line: line, Reason: reason})
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(sanitizeUTF8(name))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		out[i] = name
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

type tagColumn struct {
	key   string
	index int
}

type rowMapper struct {
	index map[string]int
	tags  []tagColumn
}

func newRowMapper(header []string) *rowMapper {
	m := &rowMapper{index: make(map[string]int, len(header))}
	for i, name := range header {
		if _, seen := m.index[name]; !seen {
			m.index[name] = i
		}
		for _, prefix := range tagPrefixes {
			if key, ok := strings.CutPrefix(name, prefix); ok && key != "" {
				m.tags = append(m.tags, tagColumn{key: key, index: i})
				break
			}
		}
	}
	return m
}

// first returns the first non-empty value among aliases.
func (m *rowMapper) first(row []string, aliases []string) string {
	for _, alias := range aliases {
		if i, ok := m.index[alias]; ok && row[i] != "" {
			return row[i]
		}
	}
	return ""
}

func (m *rowMapper) transform(row []string) (models.CostRecord, string, bool) {
	rawDate := m.first(row, dateColumns)
	if rawDate == "" {
		return models.CostRecord{}, "missing date", false
	}
	date, ok := normalizeDate(rawDate)
	if !ok {
		return models.CostRecord{}, fmt.Sprintf("unparsable date %q", rawDate), false
	}

	rawCost := m.first(row, costColumns)
	cost := decimal.Zero
	if rawCost != "" {
		parsed, err := decimal.NewFromString(rawCost)
		if err != nil {
			return models.CostRecord{}, fmt.Sprintf("invalid cost %q", rawCost), false
		}
		cost = parsed.Round(2)
	}
	if !cost.IsPositive() {
		return models.CostRecord{}, "cost is not positive", false
	}

	service := m.first(row, serviceColumns)
	if service == "" {
		service = defaultService
	}
	region := m.first(row, regionColumns)
	if region == "" {
		region = defaultRegion
	}

	record := models.CostRecord{
		Date:       date,
		Service:    FriendlyServiceName(service),
		Region:     region,
		Cost:       cost.InexactFloat64(),
		ResourceID: m.first(row, resourceColumns),
	}
	for _, tag := range m.tags {
		if value := row[tag.index]; value != "" {
			if record.Tags == nil {
				record.Tags = make(map[string]string, len(m.tags))
			}
			record.Tags[tag.key] = value
		}
	}

	return record, "", true
}

// normalizeDate renders a timestamp as its UTC calendar day.
func normalizeDate(raw string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.DateOnly), true
		}
	}
	return "", false
}
