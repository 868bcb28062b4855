package models

import "time"

// OpKind is the kind of pending mutation recorded in the sync queue.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// SyncQueueItem is one durable, ordered pending mutation. For create and
// update the payload is a full snapshot of the record at enqueue time, so the
// mutation can be replayed without re-reading other local state. Delete items
// carry no payload.
type SyncQueueItem struct {
	ID           string            `json:"id"`
	Op           OpKind            `json:"op"`
	AnnotationID string            `json:"annotation_id"`
	Payload      *AnnotationRecord `json:"payload,omitempty"`
	EnqueuedAt   time.Time         `json:"enqueued_at"`
}

// SyncResult summarizes one queue-drain pass.
type SyncResult struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}
