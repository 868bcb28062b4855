package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/versemark/versemark/internal/models"
)

var (
	addTranslation string
	addBook        string
	addChapter     int
	addVerse       int
	addVerseEnd    int
	addPublic      bool
	addRefs        []string
)

var addCmd = &cobra.Command{
	Use:   "add <note text>",
	Short: "Annotate a verse range",
	Long: `Create an annotation anchored to a verse range. The note is written to the
backend when it is reachable and queued locally otherwise; either way the
command succeeds and the note shows up in subsequent listings.

Cross-references use the form Book/Chapter/Verse or Book/Chapter/Start-End,
e.g. --ref Romans/5/8 --ref John/15/12-13.`,
	Args: cobra.ExactArgs(1),
	Run:  runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addTranslation, "translation", "t", "web", "translation the anchor refers to")
	addCmd.Flags().StringVarP(&addBook, "book", "b", "", "book name")
	addCmd.Flags().IntVar(&addChapter, "chapter", 0, "chapter number")
	addCmd.Flags().IntVar(&addVerse, "verse", 0, "first verse of the range")
	addCmd.Flags().IntVar(&addVerseEnd, "to", 0, "last verse of the range (defaults to --verse)")
	addCmd.Flags().BoolVar(&addPublic, "public", false, "make the annotation visible to other users")
	addCmd.Flags().StringArrayVar(&addRefs, "ref", nil, "cross-reference, repeatable")
	_ = addCmd.MarkFlagRequired("book")
	_ = addCmd.MarkFlagRequired("chapter")
	_ = addCmd.MarkFlagRequired("verse")
}

func runAdd(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	if addVerseEnd == 0 {
		addVerseEnd = addVerse
	}

	rec := &models.AnnotationRecord{
		Translation: addTranslation,
		Anchor: models.Anchor{
			Book:       addBook,
			Chapter:    addChapter,
			VerseStart: addVerse,
			VerseEnd:   addVerseEnd,
		},
		Content:    args[0],
		Visibility: models.VisibilityPrivate,
	}
	if addPublic {
		rec.Visibility = models.VisibilityPublic
	}

	for _, raw := range addRefs {
		ref, err := parseRef(raw)
		if err != nil {
			exitError("%v", err)
		}
		rec.CrossRefs = append(rec.CrossRefs, ref)
	}

	if err := c.Service.Create(ctx, rec); err != nil {
		exitError("failed to add annotation: %v", err)
	}

	fmt.Printf("Added %s (%s %d:%d-%d)\n", shortID(rec.ID), rec.Anchor.Book, rec.Anchor.Chapter, rec.Anchor.VerseStart, rec.Anchor.VerseEnd)
	if rec.SyncStatus != models.StatusSynced {
		fmt.Println("Saved locally; it will sync when the connection returns.")
	}
}

// parseRef parses "Book/Chapter/Verse" or "Book/Chapter/Start-End".
func parseRef(raw string) (models.CrossReference, error) {
	var ref models.CrossReference

	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return ref, fmt.Errorf("invalid reference %q, want Book/Chapter/Verse", raw)
	}

	chapter, err := strconv.Atoi(parts[1])
	if err != nil {
		return ref, fmt.Errorf("invalid chapter in reference %q", raw)
	}

	start, end := parts[2], parts[2]
	if from, to, ok := strings.Cut(parts[2], "-"); ok {
		start, end = from, to
	}
	verseStart, err := strconv.Atoi(start)
	if err != nil {
		return ref, fmt.Errorf("invalid verse in reference %q", raw)
	}
	verseEnd, err := strconv.Atoi(end)
	if err != nil {
		return ref, fmt.Errorf("invalid verse in reference %q", raw)
	}

	return models.CrossReference{
		Book:       parts[0],
		Chapter:    chapter,
		VerseStart: verseStart,
		VerseEnd:   verseEnd,
	}, nil
}
