package repository

import (
	"fmt"

	"pdf-reader/internal/domain"
)

// Store drivers accepted by New.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// New builds the store selected by driver. The sqlite store opens lazily.
func New(driver, dbPath string, logger domain.Logger) (domain.Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(dbPath, logger), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
