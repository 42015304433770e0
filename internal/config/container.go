package config

import (
	"context"
	"fmt"
	"os"

	"pdf-reader/internal/domain"
	"pdf-reader/internal/repository"
	"pdf-reader/internal/service"
	"pdf-reader/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config   domain.Config
	Logger   domain.Logger
	Store    domain.Store
	Renderer domain.Renderer

	ExtractionService *service.ExtractionService
	IngestionService  *service.IngestionService
	DocumentService   *service.DocumentService
	HighlightService  *service.HighlightService
	SettingsService   *service.SettingsService
	ProgressWriter    *service.ProgressWriter
	Sessions          *service.SessionManager
}

// NewContainer creates a new dependency injection container from the environment
func NewContainer() (*Container, error) {
	return NewContainerWith(NewConfig())
}

// NewContainerWith wires every dependency from cfg.
func NewContainerWith(cfg domain.Config) (*Container, error) {
	appLogger := logger.New(cfg.GetLogLevel(), cfg.GetLogFormat(), os.Stdout)

	store, err := repository.New(cfg.GetStoreDriver(), cfg.GetDatabasePath(), appLogger)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	renderer := service.NewFitzRenderer(appLogger)
	extraction := service.NewExtractionService(appLogger, cfg.GetExtractWorkers(), cfg.GetThumbnailQuality())

	opts := service.IngestionOptions{
		MaxFileSize:    cfg.GetMaxFileSize(),
		ThumbnailWidth: cfg.GetThumbnailWidth(),
	}
	if cfg.GetStrictPDFValidation() {
		opts.Validator = service.NewPDFCPUValidator(appLogger)
	}

	writer := service.NewProgressWriter(store, appLogger)

	return &Container{
		Config:            cfg,
		Logger:            appLogger,
		Store:             store,
		Renderer:          renderer,
		ExtractionService: extraction,
		IngestionService:  service.NewIngestionService(store, renderer, extraction, appLogger, opts),
		DocumentService:   service.NewDocumentService(store, appLogger),
		HighlightService:  service.NewHighlightService(store, appLogger),
		SettingsService:   service.NewSettingsService(appLogger),
		ProgressWriter:    writer,
		Sessions:          service.NewSessionManager(store, renderer, writer, appLogger),
	}, nil
}

// Shutdown closes open reading sessions, drains the progress writer and closes the store.
// It keeps going after a failure and returns the first error.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(c.Sessions.CloseAll(ctx))
	keep(c.ProgressWriter.Close(ctx))
	keep(c.Store.Close())
	return firstErr
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
