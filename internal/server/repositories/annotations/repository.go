// Package annotations persists annotation records and their
// cross-references. The conflict policy is last-write-wins: whatever a
// client replays latest overwrites what is stored, timestamps assigned by
// the database.
package annotations

import (
	"context"

	"github.com/versemark/versemark/internal/models"
)

type Repository interface {
	// Create stores a record under its client-assigned ID. Replaying a
	// create for an existing ID overwrites the stored row, so a client that
	// lost the first acknowledgement can safely retry.
	Create(ctx context.Context, rec *models.AnnotationRecord) (*models.AnnotationRecord, error)
	// Update overwrites the stored row unconditionally and refreshes
	// updated_at.
	Update(ctx context.Context, rec *models.AnnotationRecord) (*models.AnnotationRecord, error)
	// SoftDelete tombstones the record; it stops appearing in listings but
	// the row survives.
	SoftDelete(ctx context.Context, userID, id string) error
	// ReplaceCrossReferences swaps the full reference set atomically.
	ReplaceCrossReferences(ctx context.Context, userID, id string, refs []models.CrossReference) error
	// GetByID returns one live record owned by userID.
	GetByID(ctx context.Context, userID, id string) (*models.AnnotationRecord, error)
	// ListChapter returns the live records anchored in one chapter: the
	// user's own plus public ones from others, cross-references included.
	ListChapter(ctx context.Context, userID, translation, book string, chapter int) ([]models.AnnotationRecord, error)
}
