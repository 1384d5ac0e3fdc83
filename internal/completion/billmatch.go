package completion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/store"
	"stacknest/internal/textutils"
)

// billAmountTolerance is the relative window around a stack's target within
// which an outflow is considered the recurring bill the stack saved for.
var billAmountTolerance = decimal.NewFromFloat(0.05)

// billKeywords are generic phrases that mark a transaction as a recurring
// bill payment even when its description shares no word with the stack.
var billKeywords = []string{
	"payment", "bill pay", "autopay", "recurring", "subscription", "monthly",
}

// LooksLikeRecurringBill reports whether a real outflow looks like the
// recurring bill a completed auto-reset stack was saving for: the absolute
// amount falls within 5% of the stack's target, and the description either
// shares a significant word with the stack's name or carries a generic
// bill-payment keyword.
func LooksLikeRecurringBill(tx *models.Transaction, stack *models.Stack) bool {
	if !tx.IsOutflow() || !stack.HasTarget() {
		return false
	}
	if !models.WithinPercent(tx.Amount.Abs(), stack.TargetAmount, billAmountTolerance) {
		return false
	}
	if textutils.SharesSignificantWord(tx.Description, stack.Name) {
		return true
	}
	desc := textutils.Normalize(tx.Description)
	for _, kw := range billKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// HandleRealTransaction scans the account's completed auto-reset stacks for
// one whose recurring bill the given real transaction appears to pay, and
// immediately resets it. Runs inside the unit of work that recorded the
// transaction. Returns how many stacks were reset.
func (m *StateMachine) HandleRealTransaction(uow store.UnitOfWork, tx *models.Transaction, now time.Time) (int, error) {
	if tx.IsVirtual {
		return 0, nil
	}
	stacks, err := uow.Stacks()
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, stack := range stacks {
		if !stack.IsCompleted || !stack.IsActive || stack.ResetBehavior != models.ResetAuto {
			continue
		}
		if !LooksLikeRecurringBill(tx, stack) {
			continue
		}
		if err := m.resetLocked(uow, stack, now, nil); err != nil {
			return reset, err
		}
		reset++
		m.logger.Info("recurring bill detected, stack reset",
			logging.Field{Key: "stack", Value: stack.Name},
			logging.Field{Key: "transaction", Value: tx.Description})
	}
	return reset, nil
}
