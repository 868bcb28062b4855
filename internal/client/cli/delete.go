package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <annotation-id>",
	Short: "Delete an annotation",
	Long: `Delete an annotation by ID. Online, the backend tombstones it immediately;
offline, the deletion is queued and replayed on reconnect.`,
	Args: cobra.ExactArgs(1),
	Run:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext(ctx)
	defer c.Close()

	if err := c.Service.Delete(ctx, args[0]); err != nil {
		exitError("failed to delete annotation: %v", err)
	}
	fmt.Printf("Deleted %s\n", shortID(args[0]))
}
