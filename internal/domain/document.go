package domain

import (
	"math"
	"time"
)

// PDFMimeType is the only document type accepted for ingestion.
const PDFMimeType = "application/pdf"

// ExtractedPage holds the normalized text of one source page.
type ExtractedPage struct {
	PageNumber     int    `json:"page_number"` // 1-indexed
	RawText        string `json:"raw_text"`
	Markdown       string `json:"markdown"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
}

// ExtractedImage is reserved for embedded image extraction. Ingestion never populates it.
type ExtractedImage struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	ImageName  string `json:"image_name"`
	DataURL    string `json:"data_url"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     string `json:"format"`
	Size       int64  `json:"size"`
}

// PDFMetadata is the document info block reported by the rendering engine.
type PDFMetadata struct {
	Title            *string    `json:"title,omitempty"`
	Author           *string    `json:"author,omitempty"`
	Subject          *string    `json:"subject,omitempty"`
	Keywords         []string   `json:"keywords,omitempty"`
	Creator          *string    `json:"creator,omitempty"`
	Producer         *string    `json:"producer,omitempty"`
	CreationDate     *time.Time `json:"creation_date,omitempty"`
	ModificationDate *time.Time `json:"modification_date,omitempty"`
	PageCount        int        `json:"page_count"`
	FileVersion      string     `json:"file_version"`
}

// Document is the persisted unit for one ingested file and everything derived from it.
type Document struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadDate   time.Time `json:"upload_date"`
	LastRead     time.Time `json:"last_read"`
	LastModified time.Time `json:"last_modified"`

	// Payload is the original file. It is owned by the record and never sent as JSON.
	Payload []byte `json:"-"`

	Pages     []ExtractedPage  `json:"extracted_text"`
	Images    []ExtractedImage `json:"extracted_images"`
	Thumbnail string           `json:"thumbnail"`
	Metadata  PDFMetadata      `json:"metadata"`

	CurrentPage      int           `json:"current_page"`
	ReadingProgress  int           `json:"reading_progress"`
	TotalReadingTime time.Duration `json:"total_reading_time"`

	Collections []string `json:"collections"`
	Tags        []string `json:"tags"`
	IsFavorite  bool     `json:"is_favorite"`
	IsArchived  bool     `json:"is_archived"`
}

// PageCount returns the page count recorded at ingestion.
func (d *Document) PageCount() int {
	return d.Metadata.PageCount
}

// Validate checks the record invariants.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if d.FileSize < 0 {
		return &ValidationError{Field: "file_size", Message: "file size cannot be negative"}
	}
	if d.Metadata.PageCount < 0 {
		return &ValidationError{Field: "page_count", Message: "page count cannot be negative"}
	}
	if d.Metadata.PageCount > 0 && (d.CurrentPage < 0 || d.CurrentPage >= d.Metadata.PageCount) {
		return &ValidationError{Field: "current_page", Message: "current page out of range"}
	}
	if d.Metadata.PageCount == 0 && d.CurrentPage != 0 {
		return &ValidationError{Field: "current_page", Message: "current page must be 0 for an empty document"}
	}
	if d.ReadingProgress < 0 || d.ReadingProgress > 100 {
		return &ValidationError{Field: "reading_progress", Message: "reading progress must be between 0 and 100"}
	}
	return nil
}

// Summary strips the heavy fields for library listings.
func (d *Document) Summary() *Document {
	s := *d
	s.Payload = nil
	s.Pages = nil
	s.Images = nil
	return &s
}

// ReadingProgressFor returns round(100 * (page+1) / pageCount), or 0 for an empty document.
func ReadingProgressFor(page, pageCount int) int {
	if pageCount <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(page+1) / float64(pageCount)))
}

// DocumentUpdate is a partial update merged into a stored Document. Nil fields are left alone.
type DocumentUpdate struct {
	FileName         *string        `json:"file_name,omitempty"`
	LastRead         *time.Time     `json:"last_read,omitempty"`
	CurrentPage      *int           `json:"current_page,omitempty"`
	ReadingProgress  *int           `json:"reading_progress,omitempty"`
	TotalReadingTime *time.Duration `json:"total_reading_time,omitempty"`
	Collections      *[]string      `json:"collections,omitempty"`
	Tags             *[]string      `json:"tags,omitempty"`
	IsFavorite       *bool          `json:"is_favorite,omitempty"`
	IsArchived       *bool          `json:"is_archived,omitempty"`
}

// Apply merges the update into doc.
func (u DocumentUpdate) Apply(doc *Document) {
	if u.FileName != nil {
		doc.FileName = *u.FileName
	}
	if u.LastRead != nil {
		doc.LastRead = *u.LastRead
	}
	if u.CurrentPage != nil {
		doc.CurrentPage = *u.CurrentPage
	}
	if u.ReadingProgress != nil {
		doc.ReadingProgress = *u.ReadingProgress
	}
	if u.TotalReadingTime != nil {
		doc.TotalReadingTime = *u.TotalReadingTime
	}
	if u.Collections != nil {
		doc.Collections = append([]string{}, (*u.Collections)...)
	}
	if u.Tags != nil {
		doc.Tags = append([]string{}, (*u.Tags)...)
	}
	if u.IsFavorite != nil {
		doc.IsFavorite = *u.IsFavorite
	}
	if u.IsArchived != nil {
		doc.IsArchived = *u.IsArchived
	}
}

// DocumentFilter narrows a library listing.
type DocumentFilter struct {
	Favorite *bool
	Archived *bool
	Tag      string
}

// Matches reports whether doc passes the filter.
func (f DocumentFilter) Matches(doc *Document) bool {
	if f.Favorite != nil && doc.IsFavorite != *f.Favorite {
		return false
	}
	if f.Archived != nil && doc.IsArchived != *f.Archived {
		return false
	}
	if f.Tag != "" {
		for _, t := range doc.Tags {
			if t == f.Tag {
				return true
			}
		}
		return false
	}
	return true
}
