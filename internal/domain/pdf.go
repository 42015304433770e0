package domain

import "time"

// Upload is a single user-supplied file offered for ingestion.
type Upload struct {
	FileName     string
	MimeType     string
	Size         int64 // declared by the client
	LastModified time.Time
	Payload      []byte
}

// EffectiveSize is the larger of the declared size and the payload length.
func (u *Upload) EffectiveSize() int64 {
	if n := int64(len(u.Payload)); n > u.Size {
		return n
	}
	return u.Size
}

// IngestResult is returned by a successful ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	PageCount  int    `json:"page_count"`
}

// Extraction bundles everything derived from a loaded document.
type Extraction struct {
	Pages     []ExtractedPage
	Metadata  PDFMetadata
	Thumbnail string
}

// PageSize is the native page size in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
