package service

import (
	"sync"

	"pdf-reader/internal/domain"
	apperrors "pdf-reader/pkg/errors"
)

// SettingsService holds the reader settings in memory for the life of the process.
type SettingsService struct {
	mu       sync.RWMutex
	settings domain.ReaderSettings
	logger   domain.Logger
}

func NewSettingsService(logger domain.Logger) *SettingsService {
	return &SettingsService{
		settings: domain.DefaultReaderSettings(),
		logger:   logger,
	}
}

// GetSettings returns the current settings
func (s *SettingsService) GetSettings() domain.ReaderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the settings after validating them
func (s *SettingsService) UpdateSettings(settings domain.ReaderSettings) (domain.ReaderSettings, error) {
	if err := settings.Validate(); err != nil {
		return domain.ReaderSettings{}, apperrors.NewValidationError(err.Error(), err)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.logger.Debug("Reader settings updated", "theme", settings.Theme, "font_size", settings.FontSize)
	return settings, nil
}

// ResetSettings restores the defaults
func (s *SettingsService) ResetSettings() domain.ReaderSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = domain.DefaultReaderSettings()
	return s.settings
}
