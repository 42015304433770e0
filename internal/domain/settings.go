package domain

import "fmt"

// Theme is the reader color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeSepia Theme = "sepia"
	ThemeDark  Theme = "dark"
)

// PageMode is the reader page layout.
type PageMode string

const (
	PageModeSingle PageMode = "single"
	PageModeScroll PageMode = "scroll"
	PageModeSpread PageMode = "spread"
)

// ReaderSettings are the presentation preferences of the reader. They live in memory only.
type ReaderSettings struct {
	FontSize    int      `json:"font_size"`
	FontFamily  string   `json:"font_family"`
	Theme       Theme    `json:"theme"`
	LineHeight  float64  `json:"line_height"`
	MarginWidth int      `json:"margin_width"`
	Brightness  int      `json:"brightness"`
	PageMode    PageMode `json:"page_mode"`
	AutoSave    bool     `json:"auto_save"`
	Animations  bool     `json:"animations"`
}

// DefaultReaderSettings returns the settings a fresh reader starts with.
func DefaultReaderSettings() ReaderSettings {
	return ReaderSettings{
		FontSize:    18,
		FontFamily:  "serif",
		Theme:       ThemeSepia,
		LineHeight:  1.6,
		MarginWidth: 40,
		Brightness:  100,
		PageMode:    PageModeSingle,
		AutoSave:    true,
		Animations:  true,
	}
}

// Validate checks the settings ranges.
func (s *ReaderSettings) Validate() error {
	if s.FontSize < 8 || s.FontSize > 72 {
		return &ValidationError{Field: "font_size", Message: fmt.Sprintf("font size %d out of range [8, 72]", s.FontSize)}
	}
	if s.FontFamily == "" {
		return &ValidationError{Field: "font_family", Message: "font family is required"}
	}
	switch s.Theme {
	case ThemeLight, ThemeSepia, ThemeDark:
	default:
		return &ValidationError{Field: "theme", Message: "unknown theme " + string(s.Theme)}
	}
	if s.LineHeight < 1 || s.LineHeight > 3 {
		return &ValidationError{Field: "line_height", Message: "line height must be between 1 and 3"}
	}
	if s.MarginWidth < 0 {
		return &ValidationError{Field: "margin_width", Message: "margin width cannot be negative"}
	}
	if s.Brightness < 0 || s.Brightness > 100 {
		return &ValidationError{Field: "brightness", Message: "brightness must be between 0 and 100"}
	}
	switch s.PageMode {
	case PageModeSingle, PageModeScroll, PageModeSpread:
	default:
		return &ValidationError{Field: "page_mode", Message: "unknown page mode " + string(s.PageMode)}
	}
	return nil
}
