package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"costlens/internal/dto"
	"costlens/internal/events"
	"costlens/internal/models"
	"costlens/internal/repository"
	"costlens/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrNoFileSelected  = errors.New("no file selected")
	ErrInvalidFileType = errors.New("invalid file type, only CSV files allowed")
	ErrNoValidData     = errors.New("no valid cost data found in CSV")
)

const (
	DefaultTableName  = "cost_data"
	uploadSuccessText = "File uploaded and processed successfully"
)

// UploadWorkspace is the write side of the workspace.
type UploadWorkspace interface {
	ReplaceRawTable(ctx context.Context, table string, columns []string, rows [][]string) error
	ReplaceCostRecords(ctx context.Context, records []models.CostRecord) error
	RecordUpload(ctx context.Context, upload *models.Upload) error
	ListUploads(ctx context.Context, limit, offset uint64) ([]models.Upload, error)
}

type UploadService struct {
	workspace    UploadWorkspace
	analyzer     Analyzer
	store        *store.Store
	publisher    events.Publisher
	defaultTable string
	logger       *zap.Logger
	now          func() time.Time
}

func NewUploadService(
	workspace UploadWorkspace,
	analyzer Analyzer,
	st *store.Store,
	publisher events.Publisher,
	defaultTable string,
	logger *zap.Logger,
) *UploadService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if defaultTable == "" {
		defaultTable = DefaultTableName
	}
	return &UploadService{
		workspace:    workspace,
		analyzer:     analyzer,
		store:        st,
		publisher:    publisher,
		defaultTable: defaultTable,
		logger:       logger,
		now:          time.Now,
	}
}

// ingestInput is one batch of cost data, whatever its origin.
type ingestInput struct {
	source    models.UploadSource
	fileName  string
	table     string
	columns   []string
	rows      [][]string
	records   []models.CostRecord
	dropped   []models.DroppedRow
	truncated []models.DroppedRow
}

// Upload validates and parses a billing CSV, then runs it through the
// ingest pipeline.
func (s *UploadService) Upload(ctx context.Context, file io.Reader, fileName, tableName string) (*dto.UploadResponse, error) {
	if file == nil {
		return nil, ErrNoFile
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, ErrNoFileSelected
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return nil, ErrInvalidFileType
	}

	table, err := s.tableName(tableName)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseCostCSV(file)
	if err != nil {
		if errors.Is(err, ErrEmptyCSV) {
			return nil, ErrNoValidData
		}
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(parsed.Records) == 0 {
		return nil, ErrNoValidData
	}
	if len(parsed.Dropped) > 0 {
		s.logger.Warn("CSV rows dropped",
			zap.String("file", fileName),
			zap.Int("dropped", len(parsed.Dropped)),
			zap.Int("kept", len(parsed.Records)),
		)
	}
	if len(parsed.Truncated) > 0 {
		s.logger.Warn("CSV rows wider than header",
			zap.String("file", fileName),
			zap.Int("rows", len(parsed.Truncated)),
			zap.Int("first_line", parsed.Truncated[0].Line),
		)
	}

	if err := s.store.TryBeginLoading(); err != nil {
		return nil, err
	}
	defer s.store.EndLoading()

	return s.ingest(ctx, ingestInput{
		source:    models.SourceCSV,
		fileName:  fileName,
		table:     table,
		columns:   parsed.Columns,
		rows:      parsed.Rows,
		records:   parsed.Records,
		dropped:   parsed.Dropped,
		truncated: parsed.Truncated,
	})
}

func (s *UploadService) tableName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTable
	}
	if err := repository.ValidateTableName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ingest analyses the records and loads the workspace concurrently, logs the
// upload, publishes the new state and fans out anomaly alerts.
func (s *UploadService) ingest(ctx context.Context, in ingestInput) (*dto.UploadResponse, error) {
	var analysis *Analysis

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.analyzer.Analyze(gctx, in.records)
		if err != nil {
			return fmt.Errorf("failed to analyze cost data: %w", err)
		}
		analysis = a
		return nil
	})
	g.Go(func() error {
		return s.workspace.ReplaceRawTable(gctx, in.table, in.columns, in.rows)
	})
	g.Go(func() error {
		return s.workspace.ReplaceCostRecords(gctx, in.records)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := Summarize(in.records)
	upload := &models.Upload{
		ID:          uuid.New(),
		Source:      in.source,
		FileName:    in.fileName,
		TableName:   in.table,
		Rows:        len(in.rows),
		Records:     len(in.records),
		DroppedRows: len(in.dropped),
		TotalCost:   summary.TotalCost,
		CreatedAt:   s.now(),
	}
	if err := s.workspace.RecordUpload(ctx, upload); err != nil {
		return nil, err
	}

	if _, err := s.store.Dispatch(
		store.SetCostData(in.records),
		store.SetAnomalies(analysis.Anomalies),
		store.SetRecommendations(analysis.Recommendations),
	); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishAnomalies(ctx, upload.ID.String(), analysis.Anomalies); err != nil {
		s.logger.Error("Failed to publish anomaly alerts", zap.String("upload_id", upload.ID.String()), zap.Error(err))
	}

	s.logger.Info("Cost data ingested",
		zap.String("upload_id", upload.ID.String()),
		zap.String("source", string(in.source)),
		zap.String("table", in.table),
		zap.Int("records", len(in.records)),
		zap.Int("anomalies", len(analysis.Anomalies)),
		zap.Int("recommendations", len(analysis.Recommendations)),
	)

	dropped := in.dropped
	if dropped == nil {
		dropped = []models.DroppedRow{}
	}
	return &dto.UploadResponse{
		UploadID:        upload.ID.String(),
		Message:         uploadSuccessText,
		Rows:            len(in.rows),
		Columns:         in.columns,
		Results:         in.records,
		Anomalies:       analysis.Anomalies,
		Recommendations: analysis.Recommendations,
		Summary:         summary,
		DroppedRows:     dropped,
		TruncatedRows:   in.truncated,
	}, nil
}

func (s *UploadService) ListUploads(ctx context.Context, limit, offset uint64) ([]dto.UploadLogEntry, error) {
	uploads, err := s.workspace.ListUploads(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.UploadLogEntry, len(uploads))
	for i, u := range uploads {
		entries[i] = dto.UploadLogEntry{
			ID:          u.ID.String(),
			Source:      string(u.Source),
			FileName:    u.FileName,
			TableName:   u.TableName,
			Rows:        u.Rows,
			Records:     u.Records,
			DroppedRows: u.DroppedRows,
			TotalCost:   u.TotalCost,
			CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		}
	}
	return entries, nil
}

var recordColumns = []string{"date", "service", "region", "cost", "resource_id"}

// recordRows renders records as raw table rows for sources without a file.
func recordRows(records []models.CostRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Date, r.Service, r.Region, strconv.FormatFloat(r.Cost, 'f', 2, 64), r.ResourceID}
	}
	return rows
}
