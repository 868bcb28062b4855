// Package merge reconciles the authoritative dataset with locally pending
// edits into the single view the reader displays.
package merge

import (
	"sort"

	"github.com/versemark/versemark/internal/models"
)

// Merge overlays localPending onto authoritative:
//
//   - synced local copies are skipped; the authoritative set is newer
//   - pending creates and updates overwrite by id; the local copy is
//     strictly newer than anything the server holds for that id
//   - pending deletes remove the id even if the server still has it
//
// Output is sorted by anchor verse-start ascending, a stable order the UI
// relies on.
func Merge(authoritative, localPending []models.AnnotationRecord) []models.AnnotationRecord {
	byID := make(map[string]models.AnnotationRecord, len(authoritative))
	for _, rec := range authoritative {
		byID[rec.ID] = rec
	}

	for _, rec := range localPending {
		switch rec.SyncStatus {
		case models.StatusPendingCreate, models.StatusPendingUpdate:
			byID[rec.ID] = rec
		case models.StatusPendingDelete:
			delete(byID, rec.ID)
		}
	}

	out := make([]models.AnnotationRecord, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// LocalOnly is the full-offline fallback: no authoritative set is available,
// so the view is the local records minus pending deletes and tombstones.
func LocalOnly(records []models.AnnotationRecord) []models.AnnotationRecord {
	out := make([]models.AnnotationRecord, 0, len(records))
	for _, rec := range records {
		if rec.SyncStatus == models.StatusPendingDelete || rec.Deleted() {
			continue
		}
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

func sortRecords(recs []models.AnnotationRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Anchor.VerseStart != b.Anchor.VerseStart {
			return a.Anchor.VerseStart < b.Anchor.VerseStart
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
