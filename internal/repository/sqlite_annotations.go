package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdf-reader/internal/domain"
)

// ==================== Bookmarks ====================

const bookmarkColumns = "id, document_id, page_number, position, label, note, color, created_at, updated_at"

// SaveBookmark stores or replaces a bookmark.
func (s *SQLiteStore) SaveBookmark(ctx context.Context, b *domain.Bookmark) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return upsertBookmark(ctx, db, b)
}

func upsertBookmark(ctx context.Context, ex execer, b *domain.Bookmark) error {
	position, err := marshalPoint(b.Position)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO bookmarks (`+bookmarkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page_number = excluded.page_number,
			position = excluded.position,
			label = excluded.label,
			note = excluded.note,
			color = excluded.color,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, b.ID, b.DocumentID, b.PageNumber, position,
		nullString(b.Label), nullString(b.Note), nullString(b.Color),
		toUnix(b.CreatedAt), toUnix(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

// GetBookmark returns the bookmark or domain.ErrNotFound.
func (s *SQLiteStore) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return getBookmark(ctx, db, id)
}

func getBookmark(ctx context.Context, ex execer, id string) (*domain.Bookmark, error) {
	b, err := scanBookmark(ex.QueryRowContext(ctx, "SELECT "+bookmarkColumns+" FROM bookmarks WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

// GetBookmarksByDocument returns the bookmarks of a document in page order.
func (s *SQLiteStore) GetBookmarksByDocument(ctx context.Context, documentID string) ([]*domain.Bookmark, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+bookmarkColumns+
		" FROM bookmarks WHERE document_id = ? ORDER BY page_number, created_at", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bookmark //nolint:prealloc // size unknown from query
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}
	return out, nil
}

// UpdateBookmark merges update into the stored bookmark. A missing bookmark is a no-op.
func (s *SQLiteStore) UpdateBookmark(ctx context.Context, id string, update domain.BookmarkUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBookmark(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		update.Apply(b, time.Now().UTC())
		return upsertBookmark(ctx, tx, b)
	})
}

// DeleteBookmark removes a bookmark. Deleting a missing id succeeds.
func (s *SQLiteStore) DeleteBookmark(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "bookmarks", id)
}

func scanBookmark(sc scanner) (*domain.Bookmark, error) {
	var b domain.Bookmark
	var position, label, note, color sql.NullString
	var createdAt, updatedAt int64
	if err := sc.Scan(&b.ID, &b.DocumentID, &b.PageNumber, &position,
		&label, &note, &color, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning bookmark: %w", err)
	}
	p, err := unmarshalPoint(position)
	if err != nil {
		return nil, err
	}
	b.Position = p
	b.Label = stringPtr(label)
	b.Note = stringPtr(note)
	b.Color = stringPtr(color)
	b.CreatedAt = fromUnix(createdAt)
	b.UpdatedAt = fromUnix(updatedAt)
	return &b, nil
}

// ==================== Highlights ====================

const highlightColumns = "id, document_id, page_number, text, selected_text, position, color, category, created_at, updated_at"

// SaveHighlight stores or replaces a highlight.
func (s *SQLiteStore) SaveHighlight(ctx context.Context, h *domain.Highlight) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return upsertHighlight(ctx, db, h)
}

func upsertHighlight(ctx context.Context, ex execer, h *domain.Highlight) error {
	position, err := json.Marshal(h.Position)
	if err != nil {
		return fmt.Errorf("marshalling position: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO highlights (`+highlightColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page_number = excluded.page_number,
			text = excluded.text,
			selected_text = excluded.selected_text,
			position = excluded.position,
			color = excluded.color,
			category = excluded.category,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, h.ID, h.DocumentID, h.PageNumber, h.Text, h.SelectedText, string(position),
		h.Color, string(h.Category), toUnix(h.CreatedAt), toUnix(h.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving highlight: %w", err)
	}
	return nil
}

// GetHighlight returns the highlight or domain.ErrNotFound.
func (s *SQLiteStore) GetHighlight(ctx context.Context, id string) (*domain.Highlight, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return getHighlight(ctx, db, id)
}

func getHighlight(ctx context.Context, ex execer, id string) (*domain.Highlight, error) {
	h, err := scanHighlight(ex.QueryRowContext(ctx, "SELECT "+highlightColumns+" FROM highlights WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return h, err
}

// GetHighlightsByDocument returns the highlights of a document in page order.
func (s *SQLiteStore) GetHighlightsByDocument(ctx context.Context, documentID string) ([]*domain.Highlight, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+highlightColumns+
		" FROM highlights WHERE document_id = ? ORDER BY page_number, created_at", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying highlights: %w", err)
	}
	defer rows.Close()

	var out []*domain.Highlight //nolint:prealloc // size unknown from query
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating highlights: %w", err)
	}
	return out, nil
}

// UpdateHighlight merges update into the stored highlight. A missing highlight is a no-op.
func (s *SQLiteStore) UpdateHighlight(ctx context.Context, id string, update domain.HighlightUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		h, err := getHighlight(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		update.Apply(h, time.Now().UTC())
		return upsertHighlight(ctx, tx, h)
	})
}

// DeleteHighlight removes a highlight. Deleting a missing id succeeds.
func (s *SQLiteStore) DeleteHighlight(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "highlights", id)
}

func scanHighlight(sc scanner) (*domain.Highlight, error) {
	var h domain.Highlight
	var position, category string
	var createdAt, updatedAt int64
	if err := sc.Scan(&h.ID, &h.DocumentID, &h.PageNumber, &h.Text, &h.SelectedText,
		&position, &h.Color, &category, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning highlight: %w", err)
	}
	if err := json.Unmarshal([]byte(position), &h.Position); err != nil {
		return nil, fmt.Errorf("unmarshaling position: %w", err)
	}
	h.Category = domain.HighlightCategory(category)
	h.CreatedAt = fromUnix(createdAt)
	h.UpdatedAt = fromUnix(updatedAt)
	return &h, nil
}

// ==================== Annotations ====================

const annotationColumns = "id, document_id, page_number, content, position, highlight_id, tags, created_at, updated_at"

// SaveAnnotation stores or replaces an annotation.
func (s *SQLiteStore) SaveAnnotation(ctx context.Context, a *domain.Annotation) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return upsertAnnotation(ctx, db, a)
}

func upsertAnnotation(ctx context.Context, ex execer, a *domain.Annotation) error {
	position, err := marshalPoint(a.Position)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(nonNilStrings(a.Tags))
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO annotations (`+annotationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page_number = excluded.page_number,
			content = excluded.content,
			position = excluded.position,
			highlight_id = excluded.highlight_id,
			tags = excluded.tags,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, a.ID, a.DocumentID, a.PageNumber, a.Content, position, nullString(a.HighlightID),
		string(tags), toUnix(a.CreatedAt), toUnix(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving annotation: %w", err)
	}
	return nil
}

// GetAnnotation returns the annotation or domain.ErrNotFound.
func (s *SQLiteStore) GetAnnotation(ctx context.Context, id string) (*domain.Annotation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return getAnnotation(ctx, db, id)
}

func getAnnotation(ctx context.Context, ex execer, id string) (*domain.Annotation, error) {
	a, err := scanAnnotation(ex.QueryRowContext(ctx, "SELECT "+annotationColumns+" FROM annotations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// GetAnnotationsByDocument returns the annotations of a document in page order.
func (s *SQLiteStore) GetAnnotationsByDocument(ctx context.Context, documentID string) ([]*domain.Annotation, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+annotationColumns+
		" FROM annotations WHERE document_id = ? ORDER BY page_number, created_at", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Annotation //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating annotations: %w", err)
	}
	return out, nil
}

// UpdateAnnotation merges update into the stored annotation. A missing annotation is a no-op.
func (s *SQLiteStore) UpdateAnnotation(ctx context.Context, id string, update domain.AnnotationUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := getAnnotation(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		update.Apply(a, time.Now().UTC())
		return upsertAnnotation(ctx, tx, a)
	})
}

// DeleteAnnotation removes an annotation. Deleting a missing id succeeds.
func (s *SQLiteStore) DeleteAnnotation(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "annotations", id)
}

func scanAnnotation(sc scanner) (*domain.Annotation, error) {
	var a domain.Annotation
	var position, highlightID sql.NullString
	var tags string
	var createdAt, updatedAt int64
	if err := sc.Scan(&a.ID, &a.DocumentID, &a.PageNumber, &a.Content, &position,
		&highlightID, &tags, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning annotation: %w", err)
	}
	p, err := unmarshalPoint(position)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	a.Position = p
	a.HighlightID = stringPtr(highlightID)
	a.CreatedAt = fromUnix(createdAt)
	a.UpdatedAt = fromUnix(updatedAt)
	return &a, nil
}

// ==================== Helpers ====================

// deleteByID deletes one row. table is always a constant from this package.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}

func marshalPoint(p *domain.Point) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling position: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalPoint(ns sql.NullString) (*domain.Point, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var p domain.Point
	if err := json.Unmarshal([]byte(ns.String), &p); err != nil {
		return nil, fmt.Errorf("unmarshaling position: %w", err)
	}
	return &p, nil
}
