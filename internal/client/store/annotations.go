package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/dbx"
	"github.com/versemark/versemark/internal/models"
)

const annotationColumns = `id, user_id, translation, book, chapter, verse_start, verse_end,
	content, visibility, cross_refs, created_at, updated_at, deleted_at, sync_status`

// Put upserts an annotation record, sync status included.
func (s *Store) Put(ctx context.Context, rec *models.AnnotationRecord) error {
	return s.put(ctx, s.db, rec)
}

func (s *Store) put(ctx context.Context, db dbx.DBTX, rec *models.AnnotationRecord) error {
	refs, err := json.Marshal(rec.CrossRefs)
	if err != nil {
		return fmt.Errorf("encode cross refs: %w", err)
	}

	var deletedAt sql.NullString
	if rec.DeletedAt != nil {
		deletedAt = sql.NullString{String: encodeTime(*rec.DeletedAt), Valid: true}
	}

	query := `INSERT INTO annotations (` + annotationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			visibility = excluded.visibility,
			book = excluded.book,
			chapter = excluded.chapter,
			verse_start = excluded.verse_start,
			verse_end = excluded.verse_end,
			cross_refs = excluded.cross_refs,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			sync_status = excluded.sync_status`

	_, err = db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Translation,
		rec.Anchor.Book, rec.Anchor.Chapter, rec.Anchor.VerseStart, rec.Anchor.VerseEnd,
		rec.Content, string(rec.Visibility), string(refs),
		encodeTime(rec.CreatedAt), encodeTime(rec.UpdatedAt), deletedAt, string(rec.SyncStatus))
	if err != nil {
		return fmt.Errorf("upsert annotation: %w", err)
	}
	return nil
}

// GetByID returns one annotation or common.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*models.AnnotationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE id = ?`, id)
	rec, err := scanAnnotation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select annotation: %w", err)
	}
	return rec, nil
}

// GetForChapter returns every locally held record for one chapter, in any
// sync state. Uses the (translation, book, chapter) index; this runs on every
// chapter navigation.
func (s *Store) GetForChapter(ctx context.Context, translation, book string, chapter int) ([]models.AnnotationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations
		 WHERE translation = ? AND book = ? AND chapter = ?`,
		translation, book, chapter)
	if err != nil {
		return nil, fmt.Errorf("select chapter annotations: %w", err)
	}
	defer rows.Close()

	var result []models.AnnotationRecord
	for rows.Next() {
		rec, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSynced flips a record to synced and stamps the authoritative update
// instant returned by the remote store.
func (s *Store) MarkSynced(ctx context.Context, id string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE annotations SET sync_status = ?, updated_at = ? WHERE id = ?`,
		string(models.StatusSynced), encodeTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes a record from the local store entirely. Used after the
// remote soft-delete is confirmed; the client no longer tracks the tombstone.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (*models.AnnotationRecord, error) {
	var (
		rec        models.AnnotationRecord
		visibility string
		refs       string
		createdAt  string
		updatedAt  string
		deletedAt  sql.NullString
		status     string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Translation,
		&rec.Anchor.Book, &rec.Anchor.Chapter, &rec.Anchor.VerseStart, &rec.Anchor.VerseEnd,
		&rec.Content, &visibility, &refs, &createdAt, &updatedAt, &deletedAt, &status)
	if err != nil {
		return nil, err
	}

	rec.Visibility = models.Visibility(visibility)
	rec.SyncStatus = models.SyncStatus(status)

	if err := json.Unmarshal([]byte(refs), &rec.CrossRefs); err != nil {
		return nil, fmt.Errorf("decode cross refs: %w", err)
	}
	if rec.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if rec.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := decodeTime(deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode deleted_at: %w", err)
		}
		rec.DeletedAt = &t
	}
	return &rec, nil
}
