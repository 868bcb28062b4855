// Package remote wraps the network calls against the authoritative backend.
// The sync engine only ever talks to the Adapter interface; failures are
// either transient (worth retrying on a later pass) or terminal rejections
// marked with common.ErrRemoteRejected.
package remote

import (
	"context"
	"time"

	"github.com/versemark/versemark/internal/models"
)

// CreateResult carries the authoritative identity and timestamps assigned by
// the remote store on insert.
type CreateResult struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateResult carries the authoritative update instant after a replace.
type UpdateResult struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// Adapter is the Remote Store contract.
type Adapter interface {
	// CreateRecord inserts a new remote record. The id in rec is the
	// client-assigned identity and is preserved server-side.
	CreateRecord(ctx context.Context, rec *models.AnnotationRecord) (*CreateResult, error)

	// UpdateRecord unconditionally replaces content and anchor fields
	// (last-write-wins).
	UpdateRecord(ctx context.Context, rec *models.AnnotationRecord) (*UpdateResult, error)

	// SoftDeleteRecord sets the tombstone instant server-side. The record
	// remains recoverable there.
	SoftDeleteRecord(ctx context.Context, id string) error

	// ReplaceCrossReferences replaces the entire cross-reference set for a
	// record (delete-all-then-insert, not a diff).
	ReplaceCrossReferences(ctx context.Context, id string, refs []models.CrossReference) error

	// FetchChapter returns the authoritative records for one chapter.
	FetchChapter(ctx context.Context, translation, book string, chapter int) ([]models.AnnotationRecord, error)

	// Ping checks that the backend answers at all.
	Ping(ctx context.Context) error
}
