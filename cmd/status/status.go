// Package status prints the state of the loaded accounts
package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"stacknest/cmd/root"
	"stacknest/internal/models"
)

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show accounts, stacks, balances and goal progress",
	Long: `Show every loaded account with its total and available balance, and
every stack with its held amount, goal progress and completion state.

Example:
  stacknest status -f scenario.yaml`,
	Run: statusFunc,
}

func statusFunc(cmd *cobra.Command, args []string) {
	appContainer := root.GetContainer()
	if appContainer == nil {
		root.Log.Fatal("Container not initialized")
	}
	eng := appContainer.GetEngine()

	if len(root.Accounts) == 0 {
		root.Log.Warn("No accounts loaded; pass a scenario with --fixture")
		return
	}

	for _, loaded := range root.Accounts {
		account, stacks, err := eng.Account(loaded.ID)
		if err != nil {
			root.Log.Fatalf("Reading account %s failed: %v", loaded.Name, err)
		}

		fmt.Printf("%s (%s)\n", account.Name, account.ID)
		fmt.Printf("  balance:   %s\n", models.FormatAmount(account.Balance, account.Currency))
		fmt.Printf("  available: %s\n", models.FormatAmount(account.AvailableBalance, account.Currency))
		for _, stack := range stacks {
			fmt.Printf("  [%d] %s: %s", stack.Priority, stack.Name,
				models.FormatAmount(stack.CurrentAmount, account.Currency))
			if stack.HasTarget() {
				fmt.Printf(" / %s", models.FormatAmount(stack.TargetAmount, account.Currency))
			}
			switch {
			case stack.PendingReset:
				fmt.Print("  (completed, awaiting reset decision)")
			case stack.IsCompleted:
				fmt.Print("  (completed)")
			}
			fmt.Println()
		}
	}
}
