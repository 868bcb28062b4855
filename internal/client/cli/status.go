package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and queue state",
	Long:  `Show whether the sync backend is reachable and how many offline edits are waiting in the queue.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initSyncContext(ctx)
	defer c.Close()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if c.Detector.Check(ctx) {
		green.Println("Online")
	} else {
		red.Println("Offline")
	}

	if err := c.Adapter.Ping(ctx); err != nil {
		red.Printf("Backend %s unreachable: %v\n", c.Config.ServerURL, err)
	} else {
		green.Printf("Backend %s reachable\n", c.Config.ServerURL)
	}

	depth, err := c.Store.QueueDepth(ctx)
	if err != nil {
		exitError("failed to read queue: %v", err)
	}

	switch depth {
	case 0:
		fmt.Println("Queue empty, everything synced")
	default:
		yellow.Printf("%d edit(s) queued\n", depth)
		fmt.Println("Use 'versemark sync' to push them now.")
	}
}
