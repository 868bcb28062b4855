package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch connectivity and sync in the background",
	Long: `Probe connectivity on an interval and drain the offline queue whenever the
network is available, printing a line per completed sync pass. Runs until
interrupted.`,
	Run: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := initSyncContext(ctx)
	defer c.Close()

	results, cancel := c.Bus.Subscribe()
	defer cancel()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	go func() {
		for res := range results {
			green.Printf("Synced %d of %d queued edit(s)\n", res.Succeeded, res.Processed)
			for _, msg := range res.Errors {
				red.Printf("  %s\n", msg)
			}
		}
	}()

	fmt.Printf("Watching, probing every %s. Ctrl-C to stop.\n", c.Config.OnlineCheckInterval)
	watcher := c.newWatcher()
	watcher.Run(ctx)
}
