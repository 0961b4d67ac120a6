package repository

import (
	"context"
	"fmt"

	"costlens/internal/models"
	"costlens/pkg/config"
	"costlens/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostgresWorkspace struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresWorkspace(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*PostgresWorkspace, error) {
	if err := RunPostgresMigrations(postgres.DSN(cfg)); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewPostgresWorkspaceFromPool(pool, logger), nil
}

// NewPostgresWorkspaceFromPool wraps an already migrated pool.
func NewPostgresWorkspaceFromPool(pool *pgxpool.Pool, logger *zap.Logger) *PostgresWorkspace {
	return &PostgresWorkspace{db: pool, logger: logger}
}

func (w *PostgresWorkspace) Dialect() Dialect {
	return DialectPostgres
}

func (w *PostgresWorkspace) Close() error {
	w.db.Close()
	return nil
}

func (w *PostgresWorkspace) ReplaceRawTable(ctx context.Context, table string, columns []string, rows [][]string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	columns = uniqueColumns(columns)
	kinds := inferColumnKinds(len(columns), rows)

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(table, columns, kinds, "DOUBLE PRECISION")); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for _, batch := range rawInsertBatches(table, columns, kinds, rows, squirrel.Dollar) {
		query, args, err := batch.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", table, err)
	}

	w.logger.Info("Raw table replaced",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (w *PostgresWorkspace) ReplaceCostRecords(ctx context.Context, records []models.CostRecord) error {
	batches, err := costRecordBatches(records, squirrel.Dollar)
	if err != nil {
		return err
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+CostRecordsTable); err != nil {
		return fmt.Errorf("failed to clear cost records: %w", err)
	}

	for _, batch := range batches {
		query, args, err := batch.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert cost records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cost records: %w", err)
	}
	return nil
}

func (w *PostgresWorkspace) RecordUpload(ctx context.Context, u *models.Upload) error {
	query, args, err := squirrel.Insert(UploadsTable).
		Columns(uploadColumns...).
		Values(u.ID, string(u.Source), u.FileName, u.TableName, u.Rows, u.Records,
			u.DroppedRows, u.TotalCost, u.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := w.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

func (w *PostgresWorkspace) ListUploads(ctx context.Context, limit, offset uint64) ([]models.Upload, error) {
	query, args, err := listUploadsQuery(limit, offset, squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := w.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]models.Upload, 0)
	for rows.Next() {
		var (
			u      models.Upload
			source string
		)
		if err := rows.Scan(&u.ID, &source, &u.FileName, &u.TableName, &u.Rows, &u.Records,
			&u.DroppedRows, &u.TotalCost, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		u.Source = models.UploadSource(source)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// Query runs a SELECT inside a read-only transaction.
func (w *PostgresWorkspace) Query(ctx context.Context, query string) (*models.QueryResult, error) {
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}

	tx, err := w.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := &models.QueryResult{Columns: columns, Results: make([]map[string]any, 0)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizePgValue(values[i])
		}
		result.Results = append(result.Results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Results)
	return result, nil
}

func normalizePgValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return normalizeValue(v)
	}
}

func (w *PostgresWorkspace) Tables(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.Select("table_name").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_type": "BASE TABLE"}).
		Where(squirrel.NotEq{"table_name": MigrationsTable}).
		OrderBy("table_name").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := w.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

const pgColumnsQuery = `
SELECT c.table_name, c.column_name, c.data_type, c.is_nullable = 'NO',
       EXISTS (
           SELECT 1
           FROM information_schema.table_constraints tc
           JOIN information_schema.key_column_usage k
             ON k.constraint_name = tc.constraint_name
            AND k.table_schema = tc.table_schema
           WHERE tc.constraint_type = 'PRIMARY KEY'
             AND tc.table_schema = c.table_schema
             AND tc.table_name = c.table_name
             AND k.column_name = c.column_name
       )
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_schema = current_schema()
  AND t.table_type = 'BASE TABLE'
  AND c.table_name <> $1
ORDER BY c.table_name, c.ordinal_position`

func (w *PostgresWorkspace) Schema(ctx context.Context) (map[string][]models.ColumnInfo, error) {
	rows, err := w.db.Query(ctx, pgColumnsQuery, MigrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to describe tables: %w", err)
	}
	defer rows.Close()

	schema := make(map[string][]models.ColumnInfo)
	for rows.Next() {
		var (
			table string
			col   models.ColumnInfo
		)
		if err := rows.Scan(&table, &col.Name, &col.Type, &col.NotNull, &col.PrimaryKey); err != nil {
			return nil, err
		}
		schema[table] = append(schema[table], col)
	}
	return schema, rows.Err()
}
