package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/models"
	"github.com/versemark/versemark/internal/server/repositories/annotations"
)

// AnnotationService validates and stores annotation mutations for one
// authenticated user.
type AnnotationService struct {
	repo annotations.Repository
}

func NewAnnotationService(repo annotations.Repository) *AnnotationService {
	return &AnnotationService{repo: repo}
}

// Create stores a record under the caller. The ID is normally the client's
// uuid; one is assigned here only if it is missing.
func (s *AnnotationService) Create(ctx context.Context, userID string, rec *models.AnnotationRecord) (*models.AnnotationRecord, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return nil, fmt.Errorf("%w: invalid annotation id %q", common.ErrValidation, rec.ID)
	}
	rec.UserID = userID

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}

	if len(rec.CrossRefs) > 0 {
		if err := s.repo.ReplaceCrossReferences(ctx, userID, rec.ID, rec.CrossRefs); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

func (s *AnnotationService) Update(ctx context.Context, userID, id string, rec *models.AnnotationRecord) (*models.AnnotationRecord, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	rec.ID = id
	rec.UserID = userID
	return s.repo.Update(ctx, rec)
}

func (s *AnnotationService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.SoftDelete(ctx, userID, id)
}

func (s *AnnotationService) ReplaceCrossReferences(ctx context.Context, userID, id string, refs []models.CrossReference) error {
	for _, ref := range refs {
		anchor := models.Anchor{Book: ref.Book, Chapter: ref.Chapter, VerseStart: ref.VerseStart, VerseEnd: ref.VerseEnd}
		if err := anchor.Validate(); err != nil {
			return fmt.Errorf("%w: cross-reference: %v", common.ErrValidation, err)
		}
	}
	return s.repo.ReplaceCrossReferences(ctx, userID, id, refs)
}

func (s *AnnotationService) ListChapter(ctx context.Context, userID, translation, book string, chapter int) ([]models.AnnotationRecord, error) {
	if translation == "" || book == "" || chapter < 1 {
		return nil, fmt.Errorf("%w: translation, book and chapter are required", common.ErrValidation)
	}
	return s.repo.ListChapter(ctx, userID, translation, book, chapter)
}

func validateRecord(rec *models.AnnotationRecord) error {
	if rec.Translation == "" {
		return fmt.Errorf("%w: translation is required", common.ErrValidation)
	}
	if rec.Content == "" {
		return fmt.Errorf("%w: content is required", common.ErrValidation)
	}
	switch rec.Visibility {
	case "":
		rec.Visibility = models.VisibilityPrivate
	case models.VisibilityPrivate, models.VisibilityPublic:
	default:
		return fmt.Errorf("%w: invalid visibility %q", common.ErrValidation, rec.Visibility)
	}
	if err := rec.Anchor.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}
