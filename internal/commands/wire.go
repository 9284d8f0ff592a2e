package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/expense-tracker/internal/ocr"
	"github.com/joseph-ayodele/expense-tracker/internal/pipeline"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

func loadDotEnv(path string) {
	if path == "" {
		return
	}
	common.LoadDotEnv(path)
}

// loadConfig reads the environment once. Commands that run extraction validate the
// full config; the others only need the store.
func loadConfig(validate bool) (*common.Config, error) {
	cfg := common.LoadConfig()
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else if cfg.Database.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "DB_URL is required", common.ErrInvalidInput)
	}
	return cfg, nil
}

func newLogger(cfg *common.Config) (*zap.Logger, error) {
	logger, err := common.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// openStore connects to the configured database and makes sure the schema exists.
func openStore(ctx context.Context, cfg *common.Config, logger *zap.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return db, nil
}

// buildPipeline wires the extraction variant selected by the config.
func buildPipeline(cfg *common.Config, logger *zap.Logger) *pipeline.Pipeline {
	mode := cfg.EffectiveMode()

	ocrClient := ocr.NewClient(ocr.Config{
		APIKey:            cfg.OCR.APIKey,
		Endpoint:          cfg.OCR.Endpoint,
		Language:          cfg.OCR.Language,
		Engine:            cfg.OCR.Engine,
		DetectOrientation: true,
		Scale:             true,
		IsTable:           true,
		Timeout:           cfg.OCR.Timeout,
	}, logger)

	var (
		fields llm.FieldExtractor
		opts   []pipeline.Option
	)
	if cfg.LLM.APIKey != "" {
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		switch mode {
		case common.ModeOCRLLM:
			fields = client
		case common.ModeVision:
			opts = append(opts, pipeline.WithVision(client))
		}
	}

	logger.Info("extraction pipeline configured",
		zap.String("mode", mode),
		zap.String("ocr_endpoint", cfg.OCR.Endpoint),
		zap.String("model", cfg.LLM.Model),
	)
	return pipeline.New(logger, pipeline.Config{
		Mode:       mode,
		MaxBytes:   cfg.Extraction.MaxUploadBytes,
		OCRTimeout: cfg.OCR.Timeout,
		LLMTimeout: cfg.LLM.Timeout,
	}, ocrClient, fields, opts...)
}
