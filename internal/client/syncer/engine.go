// Package syncer drains the local sync queue against the remote store when
// connectivity allows, applying each pending mutation in FIFO enqueue order
// under a last-write-wins policy.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/versemark/versemark/internal/client/events"
	"github.com/versemark/versemark/internal/client/remote"
	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/logging"
	"github.com/versemark/versemark/internal/models"
)

// LocalStore is the slice of the local store the engine mutates.
type LocalStore interface {
	Queue(ctx context.Context) ([]models.SyncQueueItem, error)
	Dequeue(ctx context.Context, itemID string) error
	MarkSynced(ctx context.Context, id string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Engine replays queued mutations through the remote adapter.
type Engine struct {
	store  LocalStore
	remote remote.Adapter
	bus    *events.Bus
	log    logging.Logger

	inFlight atomic.Bool
}

func NewEngine(store LocalStore, adapter remote.Adapter, bus *events.Bus, log logging.Logger) *Engine {
	return &Engine{store: store, remote: adapter, bus: bus, log: log.With("component", "syncer")}
}

// ProcessQueue runs one drain pass. Items are processed oldest first; one
// failing item never blocks independent items behind it. An overlapping call
// returns a zero result with common.ErrSyncInProgress instead of racing the
// running pass. After a pass that touched at least one item a completion
// signal is broadcast so display components can refresh from the
// authoritative dataset.
func (e *Engine) ProcessQueue(ctx context.Context) (models.SyncResult, error) {
	res := models.SyncResult{Errors: []string{}}

	if !e.inFlight.CompareAndSwap(false, true) {
		return res, common.ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	items, err := e.store.Queue(ctx)
	if err != nil {
		return res, fmt.Errorf("read sync queue: %w", err)
	}

	for i := range items {
		item := &items[i]
		res.Processed++

		err := e.applyItem(ctx, item)
		if err == nil {
			res.Succeeded++
			queueItems.WithLabelValues(string(item.Op), "succeeded").Inc()
			continue
		}

		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %v", item.Op, item.AnnotationID, err))
		queueItems.WithLabelValues(string(item.Op), "failed").Inc()

		if errors.Is(err, common.ErrRemoteRejected) {
			// Terminal rejection: replaying it forever cannot help.
			e.log.Warn(ctx, "dropping rejected queue item",
				"op", item.Op, "annotation", item.AnnotationID, "err", err)
			if derr := e.store.Dequeue(ctx, item.ID); derr != nil {
				e.log.Error(ctx, "failed to drop rejected item", "item", item.ID, "err", derr)
			}
			continue
		}
		e.log.Warn(ctx, "queue item failed, will retry on next pass",
			"op", item.Op, "annotation", item.AnnotationID, "err", err)
	}

	syncPasses.Inc()
	if res.Processed > 0 {
		e.bus.Publish(res)
	}
	return res, nil
}

func (e *Engine) applyItem(ctx context.Context, item *models.SyncQueueItem) error {
	switch item.Op {
	case models.OpCreate:
		return e.applyCreate(ctx, item)
	case models.OpUpdate:
		return e.applyUpdate(ctx, item)
	case models.OpDelete:
		return e.applyDelete(ctx, item)
	default:
		return fmt.Errorf("unknown op %q: %w", item.Op, common.ErrRemoteRejected)
	}
}

func (e *Engine) applyCreate(ctx context.Context, item *models.SyncQueueItem) error {
	if item.Payload == nil {
		return fmt.Errorf("create without payload: %w", common.ErrRemoteRejected)
	}

	created, err := e.remote.CreateRecord(ctx, item.Payload)
	if err != nil {
		return err
	}

	// Cross references ride along best-effort: their failure must not roll
	// back the primary insert. They will be rewritten on the next update.
	if len(item.Payload.CrossRefs) > 0 {
		if err := e.remote.ReplaceCrossReferences(ctx, created.ID, item.Payload.CrossRefs); err != nil {
			e.log.Warn(ctx, "cross reference sync failed after create",
				"annotation", created.ID, "err", err)
		}
	}

	return e.confirm(ctx, item, created.UpdatedAt)
}

func (e *Engine) applyUpdate(ctx context.Context, item *models.SyncQueueItem) error {
	if item.Payload == nil {
		return fmt.Errorf("update without payload: %w", common.ErrRemoteRejected)
	}

	updated, err := e.remote.UpdateRecord(ctx, item.Payload)
	if err != nil {
		return err
	}
	// Updates replace the whole cross-reference set; a failure here leaves
	// the item queued so the replacement is retried with the next pass.
	if err := e.remote.ReplaceCrossReferences(ctx, item.AnnotationID, item.Payload.CrossRefs); err != nil {
		return fmt.Errorf("replace cross references: %w", err)
	}

	return e.confirm(ctx, item, updated.UpdatedAt)
}

func (e *Engine) applyDelete(ctx context.Context, item *models.SyncQueueItem) error {
	if err := e.remote.SoftDeleteRecord(ctx, item.AnnotationID); err != nil {
		return err
	}
	// The remote side keeps the tombstone; the client forgets the record.
	if err := e.store.Delete(ctx, item.AnnotationID); err != nil {
		return fmt.Errorf("drop local record: %w", err)
	}
	return e.store.Dequeue(ctx, item.ID)
}

// confirm marks the record synced with the authoritative timestamp, then
// destructively removes the queue item. The dequeue-after-success order is
// what makes a repeated pass safe: an item either replays fully or stays.
func (e *Engine) confirm(ctx context.Context, item *models.SyncQueueItem, updatedAt time.Time) error {
	if err := e.store.MarkSynced(ctx, item.AnnotationID, updatedAt); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("mark synced: %w", err)
	}
	return e.store.Dequeue(ctx, item.ID)
}
