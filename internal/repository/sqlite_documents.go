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

const documentColumns = `id, file_name, file_size, mime_type, upload_date, last_read, last_modified,
	payload, pages, images, thumbnail, metadata, current_page, reading_progress, total_reading_time,
	collections, tags, is_favorite, is_archived`

// SaveDocument stores or replaces a document record.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return upsertDocument(ctx, db, doc)
}

func upsertDocument(ctx context.Context, ex execer, doc *domain.Document) error {
	pagesJSON, err := json.Marshal(nonNilPages(doc.Pages))
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}
	imagesJSON, err := json.Marshal(nonNilImages(doc.Images))
	if err != nil {
		return fmt.Errorf("marshalling images: %w", err)
	}
	metadataJSON, err := json.Marshal(utcMetadata(doc.Metadata))
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	collectionsJSON, err := json.Marshal(nonNilStrings(doc.Collections))
	if err != nil {
		return fmt.Errorf("marshalling collections: %w", err)
	}
	tagsJSON, err := json.Marshal(nonNilStrings(doc.Tags))
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			file_size = excluded.file_size,
			mime_type = excluded.mime_type,
			upload_date = excluded.upload_date,
			last_read = excluded.last_read,
			last_modified = excluded.last_modified,
			payload = excluded.payload,
			pages = excluded.pages,
			images = excluded.images,
			thumbnail = excluded.thumbnail,
			metadata = excluded.metadata,
			current_page = excluded.current_page,
			reading_progress = excluded.reading_progress,
			total_reading_time = excluded.total_reading_time,
			collections = excluded.collections,
			tags = excluded.tags,
			is_favorite = excluded.is_favorite,
			is_archived = excluded.is_archived
	`, doc.ID, doc.FileName, doc.FileSize, doc.MimeType,
		toUnix(doc.UploadDate), toUnix(doc.LastRead), toUnix(doc.LastModified),
		doc.Payload, string(pagesJSON), string(imagesJSON), doc.Thumbnail, string(metadataJSON),
		doc.CurrentPage, doc.ReadingProgress, int64(doc.TotalReadingTime),
		string(collectionsJSON), string(tagsJSON), boolToInt(doc.IsFavorite), boolToInt(doc.IsArchived))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument returns the record or domain.ErrNotFound.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return getDocument(ctx, db, id)
}

func getDocument(ctx context.Context, ex execer, id string) (*domain.Document, error) {
	row := ex.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetAllDocuments returns every record, most recently read first.
func (s *SQLiteStore) GetAllDocuments(ctx context.Context) ([]*domain.Document, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY last_read DESC, upload_date DESC")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument merges update into the stored record. A missing record is a no-op.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, id string, update domain.DocumentUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		doc, err := getDocument(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		update.Apply(doc)
		return upsertDocument(ctx, tx, doc)
	})
}

// DeleteDocument removes the record. Dependents are left alone.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func scanDocument(sc scanner) (*domain.Document, error) {
	var doc domain.Document
	var uploadDate, lastRead, lastModified, readingTime int64
	var pagesJSON, imagesJSON, metadataJSON, collectionsJSON, tagsJSON string
	var favorite, archived int

	if err := sc.Scan(&doc.ID, &doc.FileName, &doc.FileSize, &doc.MimeType,
		&uploadDate, &lastRead, &lastModified,
		&doc.Payload, &pagesJSON, &imagesJSON, &doc.Thumbnail, &metadataJSON,
		&doc.CurrentPage, &doc.ReadingProgress, &readingTime,
		&collectionsJSON, &tagsJSON, &favorite, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(pagesJSON), &doc.Pages); err != nil {
		return nil, fmt.Errorf("unmarshaling pages: %w", err)
	}
	if err := json.Unmarshal([]byte(imagesJSON), &doc.Images); err != nil {
		return nil, fmt.Errorf("unmarshaling images: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(collectionsJSON), &doc.Collections); err != nil {
		return nil, fmt.Errorf("unmarshaling collections: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}

	doc.UploadDate = fromUnix(uploadDate)
	doc.LastRead = fromUnix(lastRead)
	doc.LastModified = fromUnix(lastModified)
	doc.TotalReadingTime = time.Duration(readingTime)
	doc.IsFavorite = favorite != 0
	doc.IsArchived = archived != 0
	return &doc, nil
}

func nonNilPages(p []domain.ExtractedPage) []domain.ExtractedPage {
	if p == nil {
		return []domain.ExtractedPage{}
	}
	return p
}

func nonNilImages(p []domain.ExtractedImage) []domain.ExtractedImage {
	if p == nil {
		return []domain.ExtractedImage{}
	}
	return p
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
