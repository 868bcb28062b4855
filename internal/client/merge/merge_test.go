package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemark/versemark/internal/models"
)

func rec(id string, verseStart int, status models.SyncStatus) models.AnnotationRecord {
	return models.AnnotationRecord{
		ID:          id,
		Translation: "web",
		Anchor:      models.Anchor{Book: "John", Chapter: 3, VerseStart: verseStart, VerseEnd: verseStart},
		Content:     "content-" + id,
		SyncStatus:  status,
		CreatedAt:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func ids(recs []models.AnnotationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestMerge_EmptyPendingEqualsSortedAuthoritative(t *testing.T) {
	authoritative := []models.AnnotationRecord{
		rec("b", 16, models.StatusSynced),
		rec("a", 1, models.StatusSynced),
		rec("c", 8, models.StatusSynced),
	}

	got := Merge(authoritative, nil)
	assert.Equal(t, []string{"a", "c", "b"}, ids(got))
}

func TestMerge_SyncedLocalCopiesSkipped(t *testing.T) {
	auth := rec("a", 1, models.StatusSynced)
	auth.Content = "server copy"
	stale := rec("a", 1, models.StatusSynced)
	stale.Content = "stale local copy"

	got := Merge([]models.AnnotationRecord{auth}, []models.AnnotationRecord{stale})
	require.Len(t, got, 1)
	assert.Equal(t, "server copy", got[0].Content)
}

func TestMerge_PendingUpdateWins(t *testing.T) {
	auth := rec("a", 1, models.StatusSynced)
	auth.Content = "old"
	local := rec("a", 1, models.StatusPendingUpdate)
	local.Content = "edited offline"

	got := Merge([]models.AnnotationRecord{auth}, []models.AnnotationRecord{local})
	require.Len(t, got, 1)
	assert.Equal(t, "edited offline", got[0].Content)
}

func TestMerge_PendingCreateInserted(t *testing.T) {
	got := Merge(
		[]models.AnnotationRecord{rec("a", 5, models.StatusSynced)},
		[]models.AnnotationRecord{rec("new", 2, models.StatusPendingCreate)},
	)
	assert.Equal(t, []string{"new", "a"}, ids(got))
}

func TestMerge_PendingDeleteExcluded(t *testing.T) {
	got := Merge(
		[]models.AnnotationRecord{rec("a", 1, models.StatusSynced), rec("b", 2, models.StatusSynced)},
		[]models.AnnotationRecord{rec("a", 1, models.StatusPendingDelete)},
	)
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestMerge_DeterministicTieBreak(t *testing.T) {
	a := rec("a", 7, models.StatusSynced)
	b := rec("b", 7, models.StatusSynced)
	b.CreatedAt = a.CreatedAt.Add(time.Minute)

	got := Merge([]models.AnnotationRecord{b, a}, nil)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestLocalOnly_FiltersDeletes(t *testing.T) {
	tomb := rec("t", 3, models.StatusSynced)
	now := time.Now()
	tomb.DeletedAt = &now

	got := LocalOnly([]models.AnnotationRecord{
		rec("a", 2, models.StatusPendingCreate),
		rec("d", 1, models.StatusPendingDelete),
		tomb,
		rec("b", 1, models.StatusSynced),
	})
	assert.Equal(t, []string{"b", "a"}, ids(got))
}
