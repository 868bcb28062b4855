package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string, chapter, verseStart int) *models.AnnotationRecord {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &models.AnnotationRecord{
		ID:          id,
		UserID:      "user-1",
		Translation: "web",
		Anchor:      models.Anchor{Book: "John", Chapter: chapter, VerseStart: verseStart, VerseEnd: verseStart},
		Content:     "note " + id,
		Visibility:  models.VisibilityPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncStatus:  models.StatusSynced,
	}
}

func TestPutAndGetByID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := sampleRecord("a1", 3, 16)
	rec.CrossRefs = []models.CrossReference{{Book: "Romans", Chapter: 5, VerseStart: 8, VerseEnd: 8}}
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, rec.Anchor, got.Anchor)
	assert.Equal(t, rec.CrossRefs, got.CrossRefs)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	// upsert by id
	rec.Content = "edited"
	rec.SyncStatus = models.StatusPendingUpdate
	require.NoError(t, s.Put(ctx, rec))

	got, err = s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, models.StatusPendingUpdate, got.SyncStatus)
}

func TestGetByID_NotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetForChapter_ScopedByAnchor(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sampleRecord("a1", 3, 16)))
	require.NoError(t, s.Put(ctx, sampleRecord("a2", 3, 1)))
	other := sampleRecord("b1", 4, 1)
	require.NoError(t, s.Put(ctx, other))
	otherBook := sampleRecord("c1", 3, 1)
	otherBook.Anchor.Book = "Mark"
	require.NoError(t, s.Put(ctx, otherBook))

	got, err := s.GetForChapter(ctx, "web", "John", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{"a1", "a2"}, ids)
}

func TestMarkSynced(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := sampleRecord("a1", 1, 1)
	rec.SyncStatus = models.StatusPendingCreate
	require.NoError(t, s.Put(ctx, rec))

	stamp := time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.MarkSynced(ctx, "a1", stamp))

	got, err := s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, got.SyncStatus)
	assert.True(t, stamp.Equal(got.UpdatedAt))

	assert.ErrorIs(t, s.MarkSynced(ctx, "missing", stamp), common.ErrNotFound)
}

func TestQueue_FIFOByEnqueueTime(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	// inserted out of order on purpose
	require.NoError(t, s.Enqueue(ctx, &models.SyncQueueItem{
		ID: "q2", Op: models.OpUpdate, AnnotationID: "a1", Payload: sampleRecord("a1", 1, 1),
		EnqueuedAt: base.Add(2 * time.Minute),
	}))
	require.NoError(t, s.Enqueue(ctx, &models.SyncQueueItem{
		ID: "q1", Op: models.OpCreate, AnnotationID: "a1", Payload: sampleRecord("a1", 1, 1),
		EnqueuedAt: base,
	}))
	require.NoError(t, s.Enqueue(ctx, &models.SyncQueueItem{
		ID: "q3", Op: models.OpDelete, AnnotationID: "a2",
		EnqueuedAt: base.Add(3 * time.Minute),
	}))

	items, err := s.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "q1", items[0].ID)
	assert.Equal(t, "q2", items[1].ID)
	assert.Equal(t, "q3", items[2].ID)
	assert.Nil(t, items[2].Payload)
	require.NotNil(t, items[0].Payload)
	assert.Equal(t, "a1", items[0].Payload.ID)
}

// Whole-second instants must not jump the queue past fractional-second ones:
// the stored strings have to order the same way the instants do.
func TestQueue_FIFOWithinOneSecond(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stamps := []struct {
		id string
		at time.Time
	}{
		{"q-whole", base},                                   // 12:00:00
		{"q-half", base.Add(500 * time.Millisecond)},        // 12:00:00.5
		{"q-almost", base.Add(999999999 * time.Nanosecond)}, // 12:00:00.999999999
		{"q-next", base.Add(time.Second)},                   // 12:00:01
	}
	// inserted newest first on purpose
	for i := len(stamps) - 1; i >= 0; i-- {
		require.NoError(t, s.Enqueue(ctx, &models.SyncQueueItem{
			ID: stamps[i].id, Op: models.OpUpdate, AnnotationID: "a1",
			Payload: sampleRecord("a1", 1, 1), EnqueuedAt: stamps[i].at,
		}))
	}

	items, err := s.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(stamps))
	for i, want := range stamps {
		assert.Equal(t, want.id, items[i].ID, "queue must replay oldest first")
		assert.True(t, want.at.Equal(items[i].EnqueuedAt))
	}
}

func TestDequeueAndClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"q1", "q2"} {
		require.NoError(t, s.Enqueue(ctx, &models.SyncQueueItem{
			ID: id, Op: models.OpDelete, AnnotationID: "a", EnqueuedAt: time.Now(),
		}))
	}

	require.NoError(t, s.Dequeue(ctx, "q1"))
	n, err := s.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// idempotent
	require.NoError(t, s.Dequeue(ctx, "q1"))

	require.NoError(t, s.ClearQueue(ctx))
	n, err = s.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPutAndEnqueue_Atomic(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := sampleRecord("a1", 2, 5)
	rec.SyncStatus = models.StatusPendingCreate
	item := &models.SyncQueueItem{
		ID: "q1", Op: models.OpCreate, AnnotationID: "a1", Payload: rec, EnqueuedAt: time.Now(),
	}
	require.NoError(t, s.PutAndEnqueue(ctx, rec, item))

	got, err := s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingCreate, got.SyncStatus)

	items, err := s.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// duplicate queue id forces a rollback of both writes
	rec2 := sampleRecord("a2", 2, 6)
	rec2.SyncStatus = models.StatusPendingCreate
	err = s.PutAndEnqueue(ctx, rec2, &models.SyncQueueItem{
		ID: "q1", Op: models.OpCreate, AnnotationID: "a2", Payload: rec2, EnqueuedAt: time.Now(),
	})
	require.Error(t, err)

	_, err = s.GetByID(ctx, "a2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrations_CrossRefsDefaultEmpty(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Simulate a pre-0003 row by writing directly without cross_refs.
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO annotations (id, user_id, translation, book, chapter, verse_start, verse_end,
			content, visibility, created_at, updated_at, sync_status)
		VALUES ('old', 'u', 'web', 'John', 1, 1, 1, 'x', 'private', ?, ?, 'synced')`,
		encodeTime(time.Now()), encodeTime(time.Now()))
	require.NoError(t, err)

	got, err := s.GetByID(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, got.CrossRefs)
}
