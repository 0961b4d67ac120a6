package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"costlens/internal/models"
	"costlens/pkg/config"

	"go.uber.org/zap"
)

var (
	ErrReadOnlyQuery    = errors.New("only SELECT queries are allowed")
	ErrInvalidTableName = errors.New("invalid table name")
)

const (
	CostRecordsTable = "processed_cost_data"
	UploadsTable     = "uploads"
	MigrationsTable  = "schema_migrations"

	// rows*columns per INSERT, well below the bind limits of both backends
	maxBatchParams = 4000
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Workspace is the queryable store behind uploads: the raw CSV table, the
// normalized records and the upload log.
type Workspace interface {
	ReplaceRawTable(ctx context.Context, table string, columns []string, rows [][]string) error
	ReplaceCostRecords(ctx context.Context, records []models.CostRecord) error
	RecordUpload(ctx context.Context, upload *models.Upload) error
	ListUploads(ctx context.Context, limit, offset uint64) ([]models.Upload, error)
	Query(ctx context.Context, query string) (*models.QueryResult, error)
	Tables(ctx context.Context) ([]string, error)
	Schema(ctx context.Context) (map[string][]models.ColumnInfo, error)
	Dialect() Dialect
	Close() error
}

// NewWorkspace opens the backend selected by WORKSPACE_DRIVER and brings its
// schema up to date.
func NewWorkspace(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Workspace, error) {
	switch cfg.Workspace.Driver {
	case config.DriverPostgres:
		return NewPostgresWorkspace(ctx, &cfg.Database, logger)
	case config.DriverSQLite, "":
		return NewSQLiteWorkspace(ctx, cfg.Workspace.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown workspace driver %q", cfg.Workspace.Driver)
	}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reservedTables = map[string]struct{}{
	CostRecordsTable: {},
	UploadsTable:     {},
	MigrationsTable:  {},
}

// ValidateTableName accepts plain identifiers that do not collide with the
// workspace's own tables.
func ValidateTableName(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	if _, ok := reservedTables[strings.ToLower(name)]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidTableName, name)
	}
	return nil
}

// CheckReadOnly accepts a single statement starting with SELECT. A trailing
// semicolon is allowed; anything after it is not.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	if len(q) < len("SELECT") || !strings.EqualFold(q[:len("SELECT")], "SELECT") {
		return ErrReadOnlyQuery
	}
	if end := statementEnd(q); end >= 0 && strings.Trim(q[end:], "; \t\r\n") != "" {
		return fmt.Errorf("%w: multiple statements", ErrReadOnlyQuery)
	}
	return nil
}

// statementEnd returns the index of the first semicolon outside quotes and
// comments, or -1.
func statementEnd(q string) int {
	var quote byte
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			nl := strings.IndexByte(q[i:], '\n')
			if nl < 0 {
				return -1
			}
			i += nl
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			closing := strings.Index(q[i+2:], "*/")
			if closing < 0 {
				return -1
			}
			i += closing + 3
		case c == ';':
			return i
		}
	}
	return -1
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

// uniqueColumns fills blank header cells and suffixes repeated names so the
// header can become a table definition.
func uniqueColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		key := strings.ToLower(name)
		if n := seen[key]; n > 0 {
			seen[key] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
			key = strings.ToLower(name)
		}
		seen[key]++
		out[i] = name
	}
	return out
}

type columnKind int

const (
	kindText columnKind = iota
	kindNumeric
)

// inferColumnKinds marks a column numeric when every non-empty cell parses
// as a number and at least one does.
func inferColumnKinds(width int, rows [][]string) []columnKind {
	kinds := make([]columnKind, width)
	for col := 0; col < width; col++ {
		numeric, seen := true, false
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && seen {
			kinds[col] = kindNumeric
		}
	}
	return kinds
}

// cellValue converts a raw cell for insertion; empty cells become NULL.
func cellValue(kind columnKind, row []string, col int) any {
	if col >= len(row) {
		return nil
	}
	cell := strings.TrimSpace(row[col])
	if cell == "" {
		return nil
	}
	if kind == kindNumeric {
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	}
	return row[col]
}

func batchSize(width int) int {
	if width <= 0 {
		return 1
	}
	n := maxBatchParams / width
	if n < 1 {
		n = 1
	}
	return n
}
