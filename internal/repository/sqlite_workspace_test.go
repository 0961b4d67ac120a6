package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"costlens/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorkspace(t *testing.T) *SQLiteWorkspace {
	t.Helper()
	ws, err := NewSQLiteWorkspace(context.Background(), filepath.Join(t.TempDir(), "workspace.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "default", table: "cost_data"},
		{name: "leading underscore", table: "_raw2024"},
		{name: "empty", table: "", wantErr: true},
		{name: "starts with digit", table: "1costs", wantErr: true},
		{name: "injection", table: "costs; DROP TABLE uploads", wantErr: true},
		{name: "reserved records table", table: "processed_cost_data", wantErr: true},
		{name: "reserved case-insensitive", table: "Uploads", wantErr: true},
		{name: "migrations table", table: "schema_migrations", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableName(tt.table)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTableName)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckReadOnly(t *testing.T) {
	assert.NoError(t, CheckReadOnly("SELECT 1"))
	assert.NoError(t, CheckReadOnly("  select * from cost_data"))
	assert.ErrorIs(t, CheckReadOnly("DELETE FROM cost_data"), ErrReadOnlyQuery)
	assert.ErrorIs(t, CheckReadOnly("WITH x AS (SELECT 1) SELECT * FROM x"), ErrReadOnlyQuery)
	assert.ErrorIs(t, CheckReadOnly("sel"), ErrReadOnlyQuery)

	tests := []struct {
		query string
		ok    bool
	}{
		{query: "SELECT 1;", ok: true},
		{query: "SELECT 1 ;\n ; ", ok: true},
		{query: "SELECT 'a;b' AS v", ok: true},
		{query: `SELECT "odd;name" FROM cost_data`, ok: true},
		{query: "SELECT 1 -- trailing; note", ok: true},
		{query: "SELECT /* ; */ 1", ok: true},
		{query: "SELECT 1; DELETE FROM processed_cost_data"},
		{query: "SELECT 1;DROP TABLE uploads"},
		{query: "SELECT 'it''s'; DELETE FROM uploads"},
		{query: "SELECT 1; ; PRAGMA query_only = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := CheckReadOnly(tt.query)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrReadOnlyQuery)
		})
	}
}

func TestUniqueColumns(t *testing.T) {
	got := uniqueColumns([]string{"Cost", "cost", "", "Cost", " Region "})
	assert.Equal(t, []string{"Cost", "cost_2", "column_3", "Cost_3", "Region"}, got)
}

func TestInferColumnKinds(t *testing.T) {
	rows := [][]string{
		{"2024-01-01", "12.5", "", "x"},
		{"2024-01-02", "3", "", "7"},
		{"2024-01-03", ""},
	}
	kinds := inferColumnKinds(4, rows)
	assert.Equal(t, []columnKind{kindText, kindNumeric, kindText, kindText}, kinds)
}

func TestSQLiteWorkspace_ReplaceRawTable(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)

	columns := []string{"lineItem/UsageStartDate", "lineItem/ProductCode", "lineItem/UnblendedCost"}
	rows := [][]string{
		{"2024-01-01", "AmazonEC2", "12.345"},
		{"2024-01-01", "AmazonS3", "3"},
		{"2024-01-02", "AmazonEC2", ""},
	}
	require.NoError(t, ws.ReplaceRawTable(ctx, "cost_data", columns, rows))

	result, err := ws.Query(ctx, `SELECT "lineItem/ProductCode" AS service, SUM("lineItem/UnblendedCost") AS total FROM cost_data GROUP BY 1 ORDER BY 1`)
	require.NoError(t, err)
	assert.Equal(t, []string{"service", "total"}, result.Columns)
	require.Equal(t, 2, result.RowCount)
	assert.Equal(t, "AmazonEC2", result.Results[0]["service"])
	assert.InDelta(t, 12.345, result.Results[0]["total"], 1e-9)

	schema, err := ws.Schema(ctx)
	require.NoError(t, err)
	require.Len(t, schema["cost_data"], 3)
	assert.Equal(t, "TEXT", schema["cost_data"][0].Type)
	assert.Equal(t, "REAL", schema["cost_data"][2].Type)

	// second upload replaces the table, including its shape
	require.NoError(t, ws.ReplaceRawTable(ctx, "cost_data", []string{"Date", "Cost"}, [][]string{{"2024-02-01", "1"}}))
	result, err = ws.Query(ctx, "SELECT * FROM cost_data")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.ElementsMatch(t, []string{"Date", "Cost"}, result.Columns)
}

func TestSQLiteWorkspace_ReplaceRawTableLargeBatch(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)

	rows := make([][]string, 2500)
	for i := range rows {
		rows[i] = []string{"2024-01-01", "AmazonEC2", "1"}
	}
	require.NoError(t, ws.ReplaceRawTable(ctx, "big", []string{"date", "service", "cost"}, rows))

	result, err := ws.Query(ctx, "SELECT COUNT(*) AS n FROM big")
	require.NoError(t, err)
	assert.EqualValues(t, 2500, result.Results[0]["n"])
}

func TestSQLiteWorkspace_ReplaceRawTableRejectsReservedName(t *testing.T) {
	ws := newTestWorkspace(t)
	err := ws.ReplaceRawTable(context.Background(), "uploads", []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrInvalidTableName)
}

func TestSQLiteWorkspace_ReplaceCostRecords(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)

	first := []models.CostRecord{
		{Date: "2024-01-01", Service: "EC2", Region: "us-east-1", Cost: 12.35, ResourceID: "i-abc",
			Tags: map[string]string{"team": "eng"}},
		{Date: "2024-01-01", Service: "S3", Region: "global", Cost: 1.5},
	}
	require.NoError(t, ws.ReplaceCostRecords(ctx, first))
	require.NoError(t, ws.ReplaceCostRecords(ctx, first[:1]))

	result, err := ws.Query(ctx, "SELECT service, cost, resource_id, tags FROM processed_cost_data")
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, "EC2", result.Results[0]["service"])
	assert.Equal(t, 12.35, result.Results[0]["cost"])
	assert.Equal(t, "i-abc", result.Results[0]["resource_id"])
	assert.JSONEq(t, `{"team":"eng"}`, result.Results[0]["tags"].(string))
}

func TestSQLiteWorkspace_Uploads(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := models.Upload{ID: uuid.New(), Source: models.SourceCSV, FileName: "jan.csv", TableName: "cost_data",
		Rows: 10, Records: 8, DroppedRows: 2, TotalCost: 99.5, CreatedAt: base}
	newer := models.Upload{ID: uuid.New(), Source: models.SourceCostExplorer, TableName: "cost_explorer",
		Rows: 4, Records: 4, TotalCost: 10, CreatedAt: base.Add(time.Hour)}

	require.NoError(t, ws.RecordUpload(ctx, &older))
	require.NoError(t, ws.RecordUpload(ctx, &newer))

	uploads, err := ws.ListUploads(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, newer.ID, uploads[0].ID)
	assert.Equal(t, models.SourceCostExplorer, uploads[0].Source)
	assert.True(t, older.CreatedAt.Equal(uploads[1].CreatedAt))
	assert.Equal(t, 2, uploads[1].DroppedRows)

	page, err := ws.ListUploads(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
}

func TestSQLiteWorkspace_QueryRejectsWrites(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)
	require.NoError(t, ws.ReplaceCostRecords(ctx, []models.CostRecord{
		{Date: "2024-01-01", Service: "EC2", Region: "us-east-1", Cost: 5},
	}))

	for _, q := range []string{
		"DROP TABLE uploads",
		"SELECT 1; DELETE FROM processed_cost_data",
		"SELECT 1; DROP TABLE uploads",
	} {
		_, err := ws.Query(ctx, q)
		assert.ErrorIs(t, err, ErrReadOnlyQuery, q)
	}

	// the query pool refuses writes even if one gets past the statement check
	_, err := ws.readDB.ExecContext(ctx, "DELETE FROM processed_cost_data")
	assert.Error(t, err)

	result, err := ws.Query(ctx, "SELECT COUNT(*) AS n FROM processed_cost_data")
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Results[0]["n"])

	tables, err := ws.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, UploadsTable)
}

func TestSQLiteWorkspace_Tables(t *testing.T) {
	ctx := context.Background()
	ws := newTestWorkspace(t)
	require.NoError(t, ws.ReplaceRawTable(ctx, "cost_data", []string{"a"}, [][]string{{"1"}}))

	tables, err := ws.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cost_data", "processed_cost_data", "uploads"}, tables)

	schema, err := ws.Schema(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, schema["processed_cost_data"])
	id := schema["processed_cost_data"][0]
	assert.Equal(t, "id", id.Name)
	assert.True(t, id.PrimaryKey)
	assert.Equal(t, DialectSQLite, ws.Dialect())
}
