package models

import (
	"fmt"
	"time"
)

// SyncStatus is a local-only marker describing how an annotation relates to
// the remote store. It is never transmitted over the wire.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusPendingCreate SyncStatus = "pending_create"
	StatusPendingUpdate SyncStatus = "pending_update"
	StatusPendingDelete SyncStatus = "pending_delete"
)

// Visibility controls whether an annotation is shown to other users.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Anchor points at a verse or contiguous verse range within one book and
// chapter of a translation.
type Anchor struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	VerseStart int    `json:"verse_start"`
	VerseEnd   int    `json:"verse_end"`
}

// Validate checks the range invariants an anchor must satisfy.
func (a Anchor) Validate() error {
	if a.Book == "" {
		return fmt.Errorf("anchor: book is required")
	}
	if a.Chapter < 1 {
		return fmt.Errorf("anchor: chapter must be positive, got %d", a.Chapter)
	}
	if a.VerseStart < 1 {
		return fmt.Errorf("anchor: verse_start must be positive, got %d", a.VerseStart)
	}
	if a.VerseEnd < a.VerseStart {
		return fmt.Errorf("anchor: verse_end %d precedes verse_start %d", a.VerseEnd, a.VerseStart)
	}
	return nil
}

// CrossReference is an anchor into the same reference-text space attached to
// an annotation.
type CrossReference struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	VerseStart int    `json:"verse_start"`
	VerseEnd   int    `json:"verse_end"`
}

// AnnotationRecord is the unit of user content: a note anchored to a passage.
//
// IDs are client-assigned (uuid) so a record authored offline keeps the same
// identity after it is reconciled with the remote store.
type AnnotationRecord struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Translation string           `json:"translation"`
	Anchor      Anchor           `json:"anchor"`
	Content     string           `json:"content"`
	Visibility  Visibility       `json:"visibility"`
	CrossRefs   []CrossReference `json:"cross_refs"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`

	// SyncStatus is owned by the local store and excluded from payloads.
	SyncStatus SyncStatus `json:"-"`
}

// Deleted reports whether the record carries a tombstone.
func (r *AnnotationRecord) Deleted() bool {
	return r.DeletedAt != nil
}
