// Package services holds the application-facing annotation operations: write
// paths that prefer the remote store and fall back to the offline queue, and
// the read path that merges authoritative data with pending local edits.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/versemark/versemark/internal/client/merge"
	"github.com/versemark/versemark/internal/client/remote"
	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/logging"
	"github.com/versemark/versemark/internal/models"
)

// LocalStore is the slice of the local store the service needs.
type LocalStore interface {
	Put(ctx context.Context, rec *models.AnnotationRecord) error
	PutAndEnqueue(ctx context.Context, rec *models.AnnotationRecord, item *models.SyncQueueItem) error
	GetByID(ctx context.Context, id string) (*models.AnnotationRecord, error)
	GetForChapter(ctx context.Context, translation, book string, chapter int) ([]models.AnnotationRecord, error)
	Delete(ctx context.Context, id string) error
}

// AnnotationService fronts all user-facing annotation mutations.
type AnnotationService struct {
	store  LocalStore
	remote remote.Adapter
	log    logging.Logger
	now    func() time.Time
}

func NewAnnotationService(store LocalStore, adapter remote.Adapter, log logging.Logger) *AnnotationService {
	return &AnnotationService{
		store:  store,
		remote: adapter,
		log:    log.With("component", "annotations"),
		now:    time.Now,
	}
}

// Create saves a new annotation. The id is assigned client-side so the record
// keeps its identity whether the insert lands immediately or replays later
// from the queue. On any remote failure the record is stored pending_create
// with a queued mutation; a local-store failure on that fallback path is
// surfaced, never thrown past the caller as a crash.
func (s *AnnotationService) Create(ctx context.Context, rec *models.AnnotationRecord) error {
	if err := rec.Anchor.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Visibility == "" {
		rec.Visibility = models.VisibilityPrivate
	}
	now := s.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	created, err := s.remote.CreateRecord(ctx, rec)
	if err == nil {
		if len(rec.CrossRefs) > 0 {
			if rerr := s.remote.ReplaceCrossReferences(ctx, created.ID, rec.CrossRefs); rerr != nil {
				s.log.Warn(ctx, "cross reference sync failed after create", "annotation", created.ID, "err", rerr)
			}
		}
		rec.CreatedAt = created.CreatedAt
		rec.UpdatedAt = created.UpdatedAt
		rec.SyncStatus = models.StatusSynced
		if err := s.store.Put(ctx, rec); err != nil {
			// Remote insert held; local caching is best-effort.
			s.log.Warn(ctx, "failed to cache created annotation locally", "annotation", rec.ID, "err", err)
		}
		return nil
	}

	s.log.Info(ctx, "remote create failed, queueing offline", "annotation", rec.ID, "err", err)
	rec.SyncStatus = models.StatusPendingCreate
	return s.queueMutation(ctx, rec, models.OpCreate)
}

// Update edits an existing annotation, remote-first with offline fallback.
func (s *AnnotationService) Update(ctx context.Context, rec *models.AnnotationRecord) error {
	if err := rec.Anchor.Validate(); err != nil {
		return err
	}
	rec.UpdatedAt = s.now()

	updated, err := s.remote.UpdateRecord(ctx, rec)
	if err == nil {
		if rerr := s.remote.ReplaceCrossReferences(ctx, rec.ID, rec.CrossRefs); rerr != nil {
			s.log.Warn(ctx, "cross reference replace failed", "annotation", rec.ID, "err", rerr)
		}
		rec.UpdatedAt = updated.UpdatedAt
		rec.SyncStatus = models.StatusSynced
		if serr := s.store.Put(ctx, rec); serr != nil {
			s.log.Warn(ctx, "failed to cache updated annotation locally", "annotation", rec.ID, "err", serr)
		}
		return nil
	}

	s.log.Info(ctx, "remote update failed, queueing offline", "annotation", rec.ID, "err", err)
	rec.SyncStatus = models.StatusPendingUpdate
	return s.queueMutation(ctx, rec, models.OpUpdate)
}

// Delete removes an annotation. Online, the remote soft-delete runs at once
// and the local copy is dropped. Offline, the record is kept with a pending
// delete status so the merge engine hides it until the queue drains.
func (s *AnnotationService) Delete(ctx context.Context, id string) error {
	err := s.remote.SoftDeleteRecord(ctx, id)
	if err == nil {
		if serr := s.store.Delete(ctx, id); serr != nil {
			s.log.Warn(ctx, "failed to drop deleted annotation locally", "annotation", id, "err", serr)
		}
		return nil
	}

	s.log.Info(ctx, "remote delete failed, queueing offline", "annotation", id, "err", err)

	rec, serr := s.store.GetByID(ctx, id)
	if serr != nil {
		return fmt.Errorf("load annotation for offline delete: %w", serr)
	}
	rec.SyncStatus = models.StatusPendingDelete
	return s.store.PutAndEnqueue(ctx, rec, &models.SyncQueueItem{
		ID:           uuid.NewString(),
		Op:           models.OpDelete,
		AnnotationID: id,
		EnqueuedAt:   s.now(),
	})
}

// ListChapter produces the view for one chapter: the authoritative dataset
// overlaid with pending local edits, or the local-only fallback when the
// remote store is unreachable.
func (s *AnnotationService) ListChapter(ctx context.Context, translation, book string, chapter int) ([]models.AnnotationRecord, error) {
	local, lerr := s.store.GetForChapter(ctx, translation, book, chapter)
	if lerr != nil {
		s.log.Warn(ctx, "local store unavailable, proceeding remote-only", "err", lerr)
		local = nil
	}

	authoritative, err := s.remote.FetchChapter(ctx, translation, book, chapter)
	if err != nil {
		if lerr != nil {
			return nil, fmt.Errorf("no authoritative data and no local fallback: %w", err)
		}
		s.log.Info(ctx, "authoritative fetch failed, serving local records", "err", err)
		return merge.LocalOnly(local), nil
	}

	return merge.Merge(authoritative, local), nil
}

func (s *AnnotationService) queueMutation(ctx context.Context, rec *models.AnnotationRecord, op models.OpKind) error {
	snapshot := *rec
	err := s.store.PutAndEnqueue(ctx, rec, &models.SyncQueueItem{
		ID:           uuid.NewString(),
		Op:           op,
		AnnotationID: rec.ID,
		Payload:      &snapshot,
		EnqueuedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}
