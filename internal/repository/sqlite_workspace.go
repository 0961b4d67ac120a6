package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"costlens/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fixed width so created_at sorts lexically
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ad-hoc queries run on connections that refuse writes
const sqliteReadOnlyParams = "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"

type SQLiteWorkspace struct {
	db     *sql.DB
	readDB *sql.DB
	logger *zap.Logger
}

func NewSQLiteWorkspace(ctx context.Context, dbPath string, logger *zap.Logger) (*SQLiteWorkspace, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; keeps DROP/CREATE and inserts on the same connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	readDB, err := sql.Open("sqlite", dbPath+sqliteReadOnlyParams)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open read-only connection: %w", err)
	}
	if err := readDB.PingContext(ctx); err != nil {
		readDB.Close()
		db.Close()
		return nil, fmt.Errorf("ping read-only connection: %w", err)
	}

	logger.Info("SQLite workspace ready", zap.String("path", dbPath))
	return &SQLiteWorkspace{db: db, readDB: readDB, logger: logger}, nil
}

func (w *SQLiteWorkspace) Dialect() Dialect {
	return DialectSQLite
}

func (w *SQLiteWorkspace) Close() error {
	var errs []error
	if w.readDB != nil {
		errs = append(errs, w.readDB.Close())
	}
	if w.db != nil {
		errs = append(errs, w.db.Close())
	}
	return errors.Join(errs...)
}

func (w *SQLiteWorkspace) ReplaceRawTable(ctx context.Context, table string, columns []string, rows [][]string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	columns = uniqueColumns(columns)
	kinds := inferColumnKinds(len(columns), rows)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, columns, kinds, "REAL")); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for _, batch := range rawInsertBatches(table, columns, kinds, rows, squirrel.Question) {
		query, args, err := batch.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", table, err)
	}

	w.logger.Info("Raw table replaced",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (w *SQLiteWorkspace) ReplaceCostRecords(ctx context.Context, records []models.CostRecord) error {
	batches, err := costRecordBatches(records, squirrel.Question)
	if err != nil {
		return err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := squirrel.Delete(CostRecordsTable).PlaceholderFormat(squirrel.Question).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cost records: %w", err)
	}

	for _, batch := range batches {
		query, args, err := batch.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert cost records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cost records: %w", err)
	}
	return nil
}

func (w *SQLiteWorkspace) RecordUpload(ctx context.Context, u *models.Upload) error {
	query, args, err := squirrel.Insert(UploadsTable).
		Columns(uploadColumns...).
		Values(u.ID.String(), string(u.Source), u.FileName, u.TableName, u.Rows, u.Records,
			u.DroppedRows, u.TotalCost, u.CreatedAt.UTC().Format(sqliteTimeLayout)).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

func (w *SQLiteWorkspace) ListUploads(ctx context.Context, limit, offset uint64) ([]models.Upload, error) {
	query, args, err := listUploadsQuery(limit, offset, squirrel.Question).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]models.Upload, 0)
	for rows.Next() {
		var (
			u         models.Upload
			id        string
			source    string
			createdAt string
		)
		if err := rows.Scan(&id, &source, &u.FileName, &u.TableName, &u.Rows, &u.Records,
			&u.DroppedRows, &u.TotalCost, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse upload id %q: %w", id, err)
		}
		if u.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse upload time %q: %w", createdAt, err)
		}
		u.Source = models.UploadSource(source)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// Query runs a single SELECT on the query_only connection pool.
func (w *SQLiteWorkspace) Query(ctx context.Context, query string) (*models.QueryResult, error) {
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}

	rows, err := w.readDB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &models.QueryResult{Columns: columns, Results: make([]map[string]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Results = append(result.Results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Results)
	return result, nil
}

func (w *SQLiteWorkspace) Tables(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.Select("name").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table"}).
		Where(squirrel.NotLike{"name": "sqlite_%"}).
		Where(squirrel.NotEq{"name": MigrationsTable}).
		OrderBy("name").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := w.db.QueryContext(ctx, query, args...)
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

func (w *SQLiteWorkspace) Schema(ctx context.Context) (map[string][]models.ColumnInfo, error) {
	tables, err := w.Tables(ctx)
	if err != nil {
		return nil, err
	}

	schema := make(map[string][]models.ColumnInfo, len(tables))
	for _, table := range tables {
		columns, err := w.tableInfo(ctx, table)
		if err != nil {
			return nil, err
		}
		schema[table] = columns
	}
	return schema, nil
}

func (w *SQLiteWorkspace) tableInfo(ctx context.Context, table string) ([]models.ColumnInfo, error) {
	rows, err := w.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	columns := make([]models.ColumnInfo, 0)
	for rows.Next() {
		var (
			cid        int
			col        models.ColumnInfo
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, err
		}
		col.NotNull = notNull != 0
		col.PrimaryKey = primaryKey != 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}
