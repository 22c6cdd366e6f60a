package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReadPreview returns the data URL stored for a slide.
func (s *Store) ReadPreview(ctx context.Context, slideID string) (string, bool, error) {
	var dataURL string
	err := s.db.QueryRowContext(ctx,
		`SELECT data_url FROM slide_previews WHERE slide_id = ?`, slideID,
	).Scan(&dataURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preview %s: %w", slideID, err)
	}
	return dataURL, true, nil
}

// WritePreview stores the data URL for a slide, replacing any previous one.
func (s *Store) WritePreview(ctx context.Context, slideID, dataURL string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slide_previews (slide_id, data_url, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slide_id) DO UPDATE SET
			data_url = excluded.data_url,
			updated_at = excluded.updated_at
	`, slideID, dataURL, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write preview %s: %w", slideID, err)
	}
	return nil
}

// DeletePreview removes the preview of a slide. Deleting a missing preview
// is not an error.
func (s *Store) DeletePreview(ctx context.Context, slideID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slide_previews WHERE slide_id = ?`, slideID); err != nil {
		return fmt.Errorf("delete preview %s: %w", slideID, err)
	}
	return nil
}

// ListPreviewIDs returns the ids of all slides with a stored preview,
// oldest first.
func (s *Store) ListPreviewIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slide_id FROM slide_previews ORDER BY updated_at ASC, slide_id ASC COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list previews: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	return ids, nil
}
