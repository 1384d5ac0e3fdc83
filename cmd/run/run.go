// Package run executes the scheduled allocation pass
package run

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stacknest/cmd/root"
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one scheduled allocation pass over all due stacks",
	Long: `Execute the periodic allocation pass: every active stack whose next
scheduled funding instant has arrived receives its configured amount from
the account's available balance, overflow rules cascade excess funds, and
completed stacks are post-processed according to their reset behavior.

With --watch the pass repeats on the configured tick interval until
interrupted.

Example:
  stacknest run -f scenario.yaml
  stacknest run -f scenario.yaml --watch`,
	Run: runFunc,
}

var watch bool

func init() {
	Cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running a pass every tick interval")
}

func runFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Run command called")

	appContainer := root.GetContainer()
	if appContainer == nil {
		root.Log.Fatal("Container not initialized")
	}
	eng := appContainer.GetEngine()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pass := func() {
		result, err := eng.RunDueAllocations(ctx)
		if err != nil {
			root.Log.Errorf("Allocation pass failed: %v", err)
			return
		}
		root.Log.WithField("processed", result.ProcessedCount).Info("Allocation pass finished")
	}

	pass()
	if !watch {
		return
	}

	interval := appContainer.GetConfig().Engine.TickInterval
	root.Log.WithField("interval", interval.String()).Info("Watching for due stacks")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			root.Log.Info("Shutting down")
			return
		case <-ticker.C:
			pass()
		}
	}
}
