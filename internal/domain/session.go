package domain

import "time"

// ReadingState is a snapshot of an open reading session.
type ReadingState struct {
	DocumentID      string        `json:"document_id"`
	CurrentPage     int           `json:"current_page"` // 0-indexed
	PageCount       int           `json:"page_count"`
	ReadingProgress int           `json:"reading_progress"`
	Bookmarked      bool          `json:"bookmarked"`
	BookmarkedPages []int         `json:"bookmarked_pages"`
	ReadingTime     time.Duration `json:"reading_time"`
}
