package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push queued offline edits to the backend",
	Long: `Drain the offline queue once, oldest edit first. Edits the backend rejects
outright are dropped with a warning; edits that fail for transient reasons
stay queued for the next run.`,
	Run: runSync,
}

func runSync(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initSyncContext(ctx)
	defer c.Close()

	res, err := c.Engine.ProcessQueue(ctx)
	if err != nil {
		exitError("sync failed: %v", err)
	}

	if res.Processed == 0 {
		fmt.Println("Nothing to sync, queue is empty")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	green.Printf("Synced %d of %d queued edit(s)\n", res.Succeeded, res.Processed)
	if res.Failed > 0 {
		red.Printf("%d edit(s) could not be synced:\n", res.Failed)
		for _, msg := range res.Errors {
			fmt.Printf("  %s\n", msg)
		}
	}
}
