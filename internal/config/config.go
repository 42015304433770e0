package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pdf-reader/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	ServerHost          string
	MaxFileSize         int64
	LogLevel            string
	LogFormat           string
	DataDir             string
	DatabasePath        string
	StoreDriver         string
	ThumbnailWidth      int
	ThumbnailQuality    int
	ExtractWorkers      int
	StrictPDFValidation bool
	AllowedOrigins      []string
}

var defaultAllowedOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://localhost:4173", // Vite preview
	"http://localhost:3000",
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	return &AppConfig{
		ServerPort:          getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		ServerHost:          getEnvOrDefault("SERVER_HOST", "127.0.0.1"),
		MaxFileSize:         getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "console"),
		DataDir:             dataDir,
		DatabasePath:        getEnvOrDefault("DATABASE_PATH", filepath.Join(dataDir, "library.db")),
		StoreDriver:         getEnvOrDefault("STORE_DRIVER", "sqlite"),
		ThumbnailWidth:      getEnvIntOrDefault("THUMBNAIL_WIDTH", 200),
		ThumbnailQuality:    getEnvIntOrDefault("THUMBNAIL_QUALITY", 80),
		ExtractWorkers:      getEnvIntOrDefault("EXTRACT_WORKERS", 4),
		StrictPDFValidation: getEnvBoolOrDefault("STRICT_PDF_VALIDATION", false),
		AllowedOrigins:      getEnvListOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetServerHost returns the interface the API binds to
func (c *AppConfig) GetServerHost() string {
	return c.ServerHost
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns "console" or "json"
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

// GetDatabasePath returns the SQLite file path
func (c *AppConfig) GetDatabasePath() string {
	return c.DatabasePath
}

func (c *AppConfig) GetStoreDriver() string {
	return c.StoreDriver
}

func (c *AppConfig) GetThumbnailWidth() int {
	return c.ThumbnailWidth
}

func (c *AppConfig) GetThumbnailQuality() int {
	return c.ThumbnailQuality
}

// GetExtractWorkers returns how many pages are extracted concurrently
func (c *AppConfig) GetExtractWorkers() int {
	return c.ExtractWorkers
}

// GetStrictPDFValidation reports whether uploads get a structural check before decoding
func (c *AppConfig) GetStrictPDFValidation() bool {
	return c.StrictPDFValidation
}

// GetAllowedOrigins returns the browser origins allowed by CORS
func (c *AppConfig) GetAllowedOrigins() []string {
	return append([]string(nil), c.AllowedOrigins...)
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
