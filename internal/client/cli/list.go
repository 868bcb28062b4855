package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/versemark/versemark/internal/models"
)

var (
	listTranslation string
	listBook        string
	listChapter     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List annotations for a chapter",
	Long: `List the annotations anchored in one chapter: the backend's view overlaid
with anything edited locally but not yet synced. Offline, the list falls
back to the local store alone.`,
	Run: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listTranslation, "translation", "t", "web", "translation the anchors refer to")
	listCmd.Flags().StringVarP(&listBook, "book", "b", "", "book name")
	listCmd.Flags().IntVar(&listChapter, "chapter", 0, "chapter number")
	_ = listCmd.MarkFlagRequired("book")
	_ = listCmd.MarkFlagRequired("chapter")
}

func runList(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	records, err := c.Service.ListChapter(ctx, listTranslation, listBook, listChapter)
	if err != nil {
		exitError("failed to list annotations: %v", err)
	}

	if len(records) == 0 {
		fmt.Printf("No annotations in %s %d (%s)\n", listBook, listChapter, listTranslation)
		return
	}

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	for _, rec := range records {
		verses := fmt.Sprintf("%d", rec.Anchor.VerseStart)
		if rec.Anchor.VerseEnd > rec.Anchor.VerseStart {
			verses = fmt.Sprintf("%d-%d", rec.Anchor.VerseStart, rec.Anchor.VerseEnd)
		}

		fmt.Printf("%s  %s %d:%s  %s", shortID(rec.ID), rec.Anchor.Book, rec.Anchor.Chapter, verses, rec.Content)
		if rec.SyncStatus != models.StatusSynced {
			yellow.Printf("  (pending sync)")
		}
		fmt.Println()

		for _, ref := range rec.CrossRefs {
			cyan.Printf("        see %s %d:%d", ref.Book, ref.Chapter, ref.VerseStart)
			if ref.VerseEnd > ref.VerseStart {
				cyan.Printf("-%d", ref.VerseEnd)
			}
			fmt.Println()
		}
	}
}
