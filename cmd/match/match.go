// Package match handles transaction-to-stack reconciliation
package match

import (
	"context"

	"github.com/spf13/cobra"

	"stacknest/cmd/root"
	"stacknest/internal/models"
)

// Cmd represents the match command
var Cmd = &cobra.Command{
	Use:   "match",
	Short: "Match unassigned transactions to the stacks they were spent from",
	Long: `Scan the account's recent unassigned outflows and score them against
its stacks by name similarity. High-confidence matches are applied
immediately, deducting the spent amount from the stack; the rest are
stored as suggestions for manual review.

Example:
  stacknest match -f scenario.yaml --account Checking`,
	Run: matchFunc,
}

var accountSelector string

func init() {
	Cmd.Flags().StringVarP(&accountSelector, "account", "a", "", "Account name or ID (optional when only one account is loaded)")
}

func matchFunc(cmd *cobra.Command, args []string) {
	root.Log.Info("Match command called")

	appContainer := root.GetContainer()
	if appContainer == nil {
		root.Log.Fatal("Container not initialized")
	}
	eng := appContainer.GetEngine()

	account, ok := root.FindAccount(accountSelector)
	if !ok {
		root.Log.Fatal("Account not found; use --account to pick one")
	}

	result, err := eng.ScanForMatches(context.Background(), account.ID)
	if err != nil {
		root.Log.Fatalf("Matching pass failed: %v", err)
	}
	root.Log.WithFields(map[string]interface{}{
		"auto_confirmed": result.AutoConfirmed,
		"suggested":      result.Suggested,
	}).Info("Matching pass finished")

	pending, err := eng.ListPendingMatches(account.ID)
	if err != nil {
		root.Log.Fatalf("Listing pending matches failed: %v", err)
	}
	for _, tx := range pending {
		root.Log.WithFields(map[string]interface{}{
			"transaction": tx.Description,
			"amount":      models.FormatAmount(tx.Amount, account.Currency),
			"confidence":  tx.MatchConfidenceScore,
		}).Info("Suggestion awaiting review")
	}
}
