package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-reader/internal/config"
	"pdf-reader/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	cfg := container.GetConfig()
	logger := container.GetLogger()

	// Router
	router := handler.NewRouter(handler.Handlers{
		Documents: handler.NewDocumentHandler(
			container.DocumentService,
			container.IngestionService,
			container.Sessions,
			cfg.GetMaxFileSize(),
			logger,
		),
		Sessions:    handler.NewSessionHandler(container.Sessions, logger),
		Highlights:  handler.NewHighlightHandler(container.HighlightService, logger),
		Preferences: handler.NewPreferenceHandler(container.SettingsService, logger),
	}, cfg.GetAllowedOrigins(), logger)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.GetServerHost(), cfg.GetServerPort()),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		logger.Info("Server listening", "address", server.Addr, "store", cfg.GetStoreDriver())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
	// Sessions are closed after the listener so pending progress writes land before the store closes.
	if err := container.Shutdown(ctx); err != nil {
		logger.Error("Failed to flush reading progress", err)
	}

	logger.Info("Server exited")
}
