package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versemark/versemark/internal/models"
)

var (
	editText        string
	editTranslation string
	editBook        string
	editChapter     int
	editVerse       int
	editVerseEnd    int
	editPublic      bool
	editPrivate     bool
	editRefs        []string
)

var editCmd = &cobra.Command{
	Use:   "edit <annotation-id>",
	Short: "Edit an existing annotation",
	Long: `Edit an annotation by ID. Only the fields named by flags change; everything
else keeps its current value. Passing --ref replaces the whole cross-reference
set. Online, the backend sees the change immediately; offline, it is queued
and replayed on reconnect.`,
	Args: cobra.ExactArgs(1),
	Run:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editText, "text", "", "new note text")
	editCmd.Flags().StringVarP(&editTranslation, "translation", "t", "", "translation the anchor refers to")
	editCmd.Flags().StringVarP(&editBook, "book", "b", "", "book name")
	editCmd.Flags().IntVar(&editChapter, "chapter", 0, "chapter number")
	editCmd.Flags().IntVar(&editVerse, "verse", 0, "first verse of the range")
	editCmd.Flags().IntVar(&editVerseEnd, "to", 0, "last verse of the range")
	editCmd.Flags().BoolVar(&editPublic, "public", false, "make the annotation visible to other users")
	editCmd.Flags().BoolVar(&editPrivate, "private", false, "make the annotation private again")
	editCmd.Flags().StringArrayVar(&editRefs, "ref", nil, "cross-reference, repeatable; replaces the existing set")
	editCmd.MarkFlagsMutuallyExclusive("public", "private")
}

// editRequest carries the fields the user asked to change. Nil means keep.
type editRequest struct {
	Text        *string
	Translation *string
	Book        *string
	Chapter     *int
	Verse       *int
	VerseEnd    *int
	Visibility  *models.Visibility
	Refs        []models.CrossReference
	ReplaceRefs bool
}

func runEdit(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	req, err := editRequestFromFlags(cmd)
	if err != nil {
		exitError("%v", err)
	}

	rec, err := c.Store.GetByID(ctx, args[0])
	if err != nil {
		exitError("failed to load annotation %s: %v", shortID(args[0]), err)
	}

	if !applyEdit(rec, req) {
		exitError("nothing to change; pass at least one flag")
	}

	if err := c.Service.Update(ctx, rec); err != nil {
		exitError("failed to edit annotation: %v", err)
	}

	fmt.Printf("Edited %s (%s %d:%d-%d)\n", shortID(rec.ID), rec.Anchor.Book, rec.Anchor.Chapter, rec.Anchor.VerseStart, rec.Anchor.VerseEnd)
	if rec.SyncStatus != models.StatusSynced {
		fmt.Println("Saved locally; it will sync when the connection returns.")
	}
}

func editRequestFromFlags(cmd *cobra.Command) (editRequest, error) {
	var req editRequest

	if cmd.Flags().Changed("text") {
		req.Text = &editText
	}
	if cmd.Flags().Changed("translation") {
		req.Translation = &editTranslation
	}
	if cmd.Flags().Changed("book") {
		req.Book = &editBook
	}
	if cmd.Flags().Changed("chapter") {
		req.Chapter = &editChapter
	}
	if cmd.Flags().Changed("verse") {
		req.Verse = &editVerse
	}
	if cmd.Flags().Changed("to") {
		req.VerseEnd = &editVerseEnd
	}
	if editPublic {
		v := models.VisibilityPublic
		req.Visibility = &v
	}
	if editPrivate {
		v := models.VisibilityPrivate
		req.Visibility = &v
	}
	if cmd.Flags().Changed("ref") {
		req.ReplaceRefs = true
		for _, raw := range editRefs {
			ref, err := parseRef(raw)
			if err != nil {
				return req, err
			}
			req.Refs = append(req.Refs, ref)
		}
	}

	return req, nil
}

// applyEdit folds the requested changes into rec and reports whether
// anything changed. Moving --verse past the current range end without a
// matching --to drags the end along so the range stays valid.
func applyEdit(rec *models.AnnotationRecord, req editRequest) bool {
	changed := false

	if req.Text != nil {
		rec.Content = *req.Text
		changed = true
	}
	if req.Translation != nil {
		rec.Translation = *req.Translation
		changed = true
	}
	if req.Book != nil {
		rec.Anchor.Book = *req.Book
		changed = true
	}
	if req.Chapter != nil {
		rec.Anchor.Chapter = *req.Chapter
		changed = true
	}
	if req.Verse != nil {
		rec.Anchor.VerseStart = *req.Verse
		if req.VerseEnd == nil && rec.Anchor.VerseEnd < *req.Verse {
			rec.Anchor.VerseEnd = *req.Verse
		}
		changed = true
	}
	if req.VerseEnd != nil {
		rec.Anchor.VerseEnd = *req.VerseEnd
		changed = true
	}
	if req.Visibility != nil {
		rec.Visibility = *req.Visibility
		changed = true
	}
	if req.ReplaceRefs {
		rec.CrossRefs = req.Refs
		changed = true
	}

	return changed
}
