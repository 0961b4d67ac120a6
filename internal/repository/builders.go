package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"costlens/internal/models"

	"github.com/Masterminds/squirrel"
)

var costRecordColumns = []string{"date", "service", "region", "cost", "resource_id", "tags"}

var uploadColumns = []string{
	"id", "source", "file_name", "table_name", "row_count", "record_count",
	"dropped_rows", "total_cost", "created_at",
}

func createTableSQL(table string, columns []string, kinds []columnKind, numericType string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		colType := "TEXT"
		if kinds[i] == kindNumeric {
			colType = numericType
		}
		defs[i] = quoteIdent(col) + " " + colType
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

// rawInsertBatches splits rows into INSERT statements that stay under the
// bind parameter limit.
func rawInsertBatches(table string, columns []string, kinds []columnKind, rows [][]string, ph squirrel.PlaceholderFormat) []squirrel.InsertBuilder {
	size := batchSize(len(columns))
	quoted := quoteAll(columns)

	var batches []squirrel.InsertBuilder
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))

		builder := squirrel.Insert(quoteIdent(table)).
			Columns(quoted...).
			PlaceholderFormat(ph)
		for _, row := range rows[lo:hi] {
			values := make([]any, len(columns))
			for col := range columns {
				values[col] = cellValue(kinds[col], row, col)
			}
			builder = builder.Values(values...)
		}
		batches = append(batches, builder)
	}
	return batches
}

func costRecordBatches(records []models.CostRecord, ph squirrel.PlaceholderFormat) ([]squirrel.InsertBuilder, error) {
	size := batchSize(len(costRecordColumns))

	var batches []squirrel.InsertBuilder
	for lo := 0; lo < len(records); lo += size {
		hi := min(lo+size, len(records))

		builder := squirrel.Insert(CostRecordsTable).
			Columns(costRecordColumns...).
			PlaceholderFormat(ph)
		for _, r := range records[lo:hi] {
			tags, err := encodeTags(r.Tags)
			if err != nil {
				return nil, err
			}
			var resourceID any
			if r.ResourceID != "" {
				resourceID = r.ResourceID
			}
			builder = builder.Values(r.Date, r.Service, r.Region, r.Cost, resourceID, tags)
		}
		batches = append(batches, builder)
	}
	return batches, nil
}

func encodeTags(tags map[string]string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func listUploadsQuery(limit, offset uint64, ph squirrel.PlaceholderFormat) squirrel.SelectBuilder {
	return squirrel.Select(uploadColumns...).
		From(UploadsTable).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		PlaceholderFormat(ph)
}
