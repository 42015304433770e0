package domain

import "time"

// Point is a position on a page, in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a selection rectangle on a page.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Bookmark marks a page of a document. PageNumber is the 0-based reading position it was
// created at, the same index the reading session uses.
type Bookmark struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	PageNumber int       `json:"page_number"`
	Position   *Point    `json:"position,omitempty"`
	Label      *string   `json:"label,omitempty"`
	Note       *string   `json:"note,omitempty"`
	Color      *string   `json:"color,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookmarkUpdate is a partial update for a bookmark.
type BookmarkUpdate struct {
	Position *Point  `json:"position,omitempty"`
	Label    *string `json:"label,omitempty"`
	Note     *string `json:"note,omitempty"`
	Color    *string `json:"color,omitempty"`
}

// Apply merges the update into b and bumps UpdatedAt.
func (u BookmarkUpdate) Apply(b *Bookmark, now time.Time) {
	if u.Position != nil {
		p := *u.Position
		b.Position = &p
	}
	if u.Label != nil {
		b.Label = u.Label
	}
	if u.Note != nil {
		b.Note = u.Note
	}
	if u.Color != nil {
		b.Color = u.Color
	}
	b.UpdatedAt = now
}

// HighlightCategory classifies a highlight.
type HighlightCategory string

const (
	HighlightImportant HighlightCategory = "important"
	HighlightQuestion  HighlightCategory = "question"
	HighlightNote      HighlightCategory = "note"
	HighlightReference HighlightCategory = "reference"
)

// Valid reports whether c is empty or one of the known categories.
func (c HighlightCategory) Valid() bool {
	switch c {
	case "", HighlightImportant, HighlightQuestion, HighlightNote, HighlightReference:
		return true
	}
	return false
}

// Highlight represents a saved text selection on a page.
type Highlight struct {
	ID           string            `json:"id"`
	DocumentID   string            `json:"document_id"`
	PageNumber   int               `json:"page_number"`
	Text         string            `json:"text"`
	SelectedText string            `json:"selected_text"`
	Position     Rect              `json:"position"`
	Color        string            `json:"color"`
	Category     HighlightCategory `json:"category,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Validate checks required highlight fields.
func (h *Highlight) Validate() error {
	if h.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document_id is required"}
	}
	if h.SelectedText == "" && h.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if h.PageNumber < 0 {
		return &ValidationError{Field: "page_number", Message: "page number cannot be negative"}
	}
	if !h.Category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(h.Category)}
	}
	return nil
}

// HighlightUpdate is a partial update for a highlight.
type HighlightUpdate struct {
	Color    *string            `json:"color,omitempty"`
	Category *HighlightCategory `json:"category,omitempty"`
	Text     *string            `json:"text,omitempty"`
}

// Apply merges the update into h and bumps UpdatedAt.
func (u HighlightUpdate) Apply(h *Highlight, now time.Time) {
	if u.Color != nil {
		h.Color = *u.Color
	}
	if u.Category != nil {
		h.Category = *u.Category
	}
	if u.Text != nil {
		h.Text = *u.Text
	}
	h.UpdatedAt = now
}

// Annotation is a free-text note attached to a page, optionally to a highlight.
type Annotation struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	PageNumber  int       `json:"page_number"`
	Content     string    `json:"content"`
	Position    *Point    `json:"position,omitempty"`
	HighlightID *string   `json:"highlight_id,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks required annotation fields.
func (a *Annotation) Validate() error {
	if a.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document_id is required"}
	}
	if a.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if a.PageNumber < 0 {
		return &ValidationError{Field: "page_number", Message: "page number cannot be negative"}
	}
	return nil
}

// AnnotationUpdate is a partial update for an annotation.
type AnnotationUpdate struct {
	Content  *string   `json:"content,omitempty"`
	Position *Point    `json:"position,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

// Apply merges the update into a and bumps UpdatedAt.
func (u AnnotationUpdate) Apply(a *Annotation, now time.Time) {
	if u.Content != nil {
		a.Content = *u.Content
	}
	if u.Position != nil {
		p := *u.Position
		a.Position = &p
	}
	if u.Tags != nil {
		a.Tags = append([]string{}, (*u.Tags)...)
	}
	a.UpdatedAt = now
}
