package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"costlens/internal/repository"
	"costlens/internal/service"
	"costlens/internal/store"
	"costlens/pkg/config"
	"costlens/pkg/logger"

	"go.uber.org/zap"
)

// seed loads billing data into the workspace so /query, /schema and the
// LLM-backed /ask have something to work with before the first upload.
func main() {
	csvPath := flag.String("csv", "", "billing CSV to load; a generated sample is used when empty")
	outPath := flag.String("out", "", "also write the generated sample CSV to this path")
	table := flag.String("table", "", "workspace table for the raw rows (default WORKSPACE_DEFAULT_TABLE)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	workspace, err := repository.NewWorkspace(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open workspace", zap.Error(err))
	}
	defer workspace.Close()

	name, data, err := loadCSV(*csvPath, cfg.Analysis.Seed)
	if err != nil {
		appLogger.Fatal("Failed to load CSV", zap.Error(err))
	}
	if *outPath != "" && *csvPath == "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			appLogger.Fatal("Failed to write sample CSV", zap.Error(err))
		}
		appLogger.Info("Sample CSV written", zap.String("path", *outPath))
	}

	appLogger.Info("Starting workspace seeding...", zap.String("file", name))

	uploads := service.NewUploadService(
		workspace,
		service.NewAnalyzer(&cfg.Analysis, appLogger),
		store.New(appLogger),
		nil,
		cfg.Workspace.DefaultTable,
		appLogger,
	)
	resp, err := uploads.Upload(ctx, bytes.NewReader(data), name, *table)
	if err != nil {
		appLogger.Fatal("Failed to seed workspace", zap.Error(err))
	}

	appLogger.Info("Workspace seeding completed successfully!",
		zap.String("upload_id", resp.UploadID),
		zap.Int("records", len(resp.Results)),
		zap.Int("dropped", len(resp.DroppedRows)),
		zap.Float64("total_cost", resp.Summary.TotalCost),
	)
}

func loadCSV(path string, seed int64) (string, []byte, error) {
	if path == "" {
		return "sample-aws-costs.csv", service.SampleCSV(time.Now(), service.NewRand(seed)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}
