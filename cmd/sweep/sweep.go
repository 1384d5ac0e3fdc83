// Package sweep handles post-completion processing of stacks
package sweep

import (
	"context"

	"github.com/spf13/cobra"

	"stacknest/cmd/root"
)

// Cmd represents the sweep command
var Cmd = &cobra.Command{
	Use:   "sweep",
	Short: "Process completed stacks according to their reset behavior",
	Long: `Process every completed stack: auto-reset stacks return their funds and
start a fresh cycle, delete stacks return their funds and are removed, and
ask-reset stacks are listed so the owner can decide.

Example:
  stacknest sweep -f scenario.yaml`,
	Run: sweepFunc,
}

func sweepFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Sweep command called")

	appContainer := root.GetContainer()
	if appContainer == nil {
		root.Log.Fatal("Container not initialized")
	}
	eng := appContainer.GetEngine()

	if err := eng.SweepCompletions(context.Background()); err != nil {
		root.Log.Fatalf("Sweep failed: %v", err)
	}

	pending, err := eng.ListPendingResets(root.OwnerID)
	if err != nil {
		root.Log.Fatalf("Listing pending resets failed: %v", err)
	}
	if len(pending) == 0 {
		root.Log.Info("No stacks awaiting a reset decision")
		return
	}
	for _, stack := range pending {
		root.Log.WithField("stack", stack.Name).Info("Awaiting reset decision")
	}
}
