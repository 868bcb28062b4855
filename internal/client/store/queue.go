package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versemark/versemark/internal/dbx"
	"github.com/versemark/versemark/internal/models"
)

// Enqueue appends one pending mutation to the sync queue.
func (s *Store) Enqueue(ctx context.Context, item *models.SyncQueueItem) error {
	return s.enqueue(ctx, s.db, item)
}

func (s *Store) enqueue(ctx context.Context, db dbx.DBTX, item *models.SyncQueueItem) error {
	var payload any
	if item.Payload != nil {
		b, err := json.Marshal(item.Payload)
		if err != nil {
			return fmt.Errorf("encode queue payload: %w", err)
		}
		payload = string(b)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO sync_queue (id, op, annotation_id, payload, enqueued_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, string(item.Op), item.AnnotationID, payload, encodeTime(item.EnqueuedAt))
	if err != nil {
		return fmt.Errorf("enqueue sync item: %w", err)
	}
	return nil
}

// PutAndEnqueue writes the record and its queue item in one transaction, so
// no reader can observe a pending record without its queued mutation or the
// other way around.
func (s *Store) PutAndEnqueue(ctx context.Context, rec *models.AnnotationRecord, item *models.SyncQueueItem) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.put(ctx, tx, rec); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, item)
	})
}

// Queue returns all pending items, oldest enqueued first. Replay order is
// strict FIFO by enqueue time; id breaks exact-instant ties deterministically.
func (s *Store) Queue(ctx context.Context) ([]models.SyncQueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, op, annotation_id, payload, enqueued_at
		 FROM sync_queue ORDER BY enqueued_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select sync queue: %w", err)
	}
	defer rows.Close()

	var items []models.SyncQueueItem
	for rows.Next() {
		var (
			item       models.SyncQueueItem
			op         string
			payload    *string
			enqueuedAt string
		)
		if err := rows.Scan(&item.ID, &op, &item.AnnotationID, &payload, &enqueuedAt); err != nil {
			return nil, err
		}
		item.Op = models.OpKind(op)
		if payload != nil {
			var rec models.AnnotationRecord
			if err := json.Unmarshal([]byte(*payload), &rec); err != nil {
				return nil, fmt.Errorf("decode queue payload: %w", err)
			}
			item.Payload = &rec
		}
		if item.EnqueuedAt, err = decodeTime(enqueuedAt); err != nil {
			return nil, fmt.Errorf("decode enqueued_at: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// QueueDepth reports the number of pending items.
func (s *Store) QueueDepth(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sync queue: %w", err)
	}
	return n, nil
}

// Dequeue removes one item after its mutation is confirmed (or ruled
// terminally rejected). Removing an absent id is not an error.
func (s *Store) Dequeue(ctx context.Context, itemID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("dequeue sync item: %w", err)
	}
	return nil
}

// ClearQueue drops every pending item.
func (s *Store) ClearQueue(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("clear sync queue: %w", err)
	}
	return nil
}
