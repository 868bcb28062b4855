package annotations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/dbx"
	"github.com/versemark/versemark/internal/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.AnnotationRecord) (*models.AnnotationRecord, error) {
	query :=
		`INSERT INTO annotations (id, user_id, translation, book, chapter, verse_start, verse_end, content, visibility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     translation = EXCLUDED.translation,
		     book = EXCLUDED.book,
		     chapter = EXCLUDED.chapter,
		     verse_start = EXCLUDED.verse_start,
		     verse_end = EXCLUDED.verse_end,
		     content = EXCLUDED.content,
		     visibility = EXCLUDED.visibility,
		     updated_at = now()
		 WHERE annotations.user_id = EXCLUDED.user_id
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.Translation,
		rec.Anchor.Book, rec.Anchor.Chapter, rec.Anchor.VerseStart, rec.Anchor.VerseEnd,
		rec.Content, rec.Visibility).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The ID exists but belongs to someone else.
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.AnnotationRecord) (*models.AnnotationRecord, error) {
	query :=
		`UPDATE annotations
		 SET translation = $3, book = $4, chapter = $5, verse_start = $6, verse_end = $7,
		     content = $8, visibility = $9, updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.Translation,
		rec.Anchor.Book, rec.Anchor.Chapter, rec.Anchor.VerseStart, rec.Anchor.VerseEnd,
		rec.Content, rec.Visibility).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, id string) error {
	query :=
		`UPDATE annotations
		 SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ReplaceCrossReferences(ctx context.Context, userID, id string, refs []models.CrossReference) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM annotations WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		if owner != userID {
			return common.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cross_references WHERE annotation_id = $1`, id); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		for _, ref := range refs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cross_references (annotation_id, book, chapter, verse_start, verse_end)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, ref.Book, ref.Chapter, ref.VerseStart, ref.VerseEnd); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.AnnotationRecord, error) {
	query :=
		`SELECT id, user_id, translation, book, chapter, verse_start, verse_end,
		        content, visibility, created_at, updated_at
		 FROM annotations
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 `

	rec := &models.AnnotationRecord{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&rec.ID, &rec.UserID, &rec.Translation,
		&rec.Anchor.Book, &rec.Anchor.Chapter, &rec.Anchor.VerseStart, &rec.Anchor.VerseEnd,
		&rec.Content, &rec.Visibility, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadRefs(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) ListChapter(ctx context.Context, userID, translation, book string, chapter int) ([]models.AnnotationRecord, error) {
	query :=
		`SELECT a.id, a.user_id, a.translation, a.book, a.chapter, a.verse_start, a.verse_end,
		        a.content, a.visibility, a.created_at, a.updated_at,
		        r.book, r.chapter, r.verse_start, r.verse_end
		 FROM annotations a
		 LEFT JOIN cross_references r ON r.annotation_id = a.id
		 WHERE a.translation = $1 AND a.book = $2 AND a.chapter = $3
		   AND a.deleted_at IS NULL
		   AND (a.user_id = $4 OR a.visibility = 'public')
		 ORDER BY a.verse_start, a.created_at, a.id, r.id
		 `

	rows, err := r.db.QueryContext(ctx, query, translation, book, chapter, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.AnnotationRecord
	for rows.Next() {
		var rec models.AnnotationRecord
		var refBook sql.NullString
		var refChapter, refStart, refEnd sql.NullInt64

		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Translation,
			&rec.Anchor.Book, &rec.Anchor.Chapter, &rec.Anchor.VerseStart, &rec.Anchor.VerseEnd,
			&rec.Content, &rec.Visibility, &rec.CreatedAt, &rec.UpdatedAt,
			&refBook, &refChapter, &refStart, &refEnd)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		// Rows for one annotation arrive consecutively; fold the joined
		// reference columns into the previous record when the ID repeats.
		if n := len(out); n > 0 && out[n-1].ID == rec.ID {
			if refBook.Valid {
				out[n-1].CrossRefs = append(out[n-1].CrossRefs, models.CrossReference{
					Book:       refBook.String,
					Chapter:    int(refChapter.Int64),
					VerseStart: int(refStart.Int64),
					VerseEnd:   int(refEnd.Int64),
				})
			}
			continue
		}

		if refBook.Valid {
			rec.CrossRefs = append(rec.CrossRefs, models.CrossReference{
				Book:       refBook.String,
				Chapter:    int(refChapter.Int64),
				VerseStart: int(refStart.Int64),
				VerseEnd:   int(refEnd.Int64),
			})
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) loadRefs(ctx context.Context, rec *models.AnnotationRecord) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT book, chapter, verse_start, verse_end
		 FROM cross_references WHERE annotation_id = $1 ORDER BY id`, rec.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.CrossReference
		if err := rows.Scan(&ref.Book, &ref.Chapter, &ref.VerseStart, &ref.VerseEnd); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		rec.CrossRefs = append(rec.CrossRefs, ref)
	}
	return rows.Err()
}
