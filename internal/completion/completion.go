// Package completion drives the goal lifecycle of a stack: detecting that
// it reached its target, and running the configured post-completion
// behavior (automatic reset, deletion, a user prompt, or nothing).
package completion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stacknest/internal/engineerror"
	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/schedule"
	"stacknest/internal/store"
)

// StateMachine owns the active -> completed transition and the shared reset
// primitive invoked from the periodic sweep, manual resets and the
// recurring-bill hook.
type StateMachine struct {
	store    store.Store
	logger   logging.Logger
	notifier Notifier
}

// New creates a StateMachine.
func New(st store.Store, logger logging.Logger, notifier Notifier) *StateMachine {
	return &StateMachine{store: st, logger: logger, notifier: notifier}
}

// ResetParams carries caller-supplied overrides for a manual reset. Nil
// fields keep the recomputed defaults.
type ResetParams struct {
	TargetAmount          *decimal.Decimal
	TargetDueDate         *time.Time
	AutoAllocate          *bool
	AutoAllocateAmount    *decimal.Decimal
	AutoAllocateFrequency *models.Frequency
	AutoAllocateStartDate *time.Time
}

// Check runs the active -> completed transition for a stack inside an open
// unit of work. It must be called after every operation that can increase a
// stack's held amount. Calling it on an already-completed stack is a no-op;
// the transition and its notification fire at most once.
func (m *StateMachine) Check(uow store.UnitOfWork, stackID uuid.UUID, now time.Time) (bool, error) {
	stack, err := uow.Stack(stackID)
	if err != nil {
		return false, err
	}
	if stack.IsCompleted || !stack.IsActive || !stack.GoalReached() {
		return stack.IsCompleted, nil
	}

	stack.IsCompleted = true
	stack.CompletedAt = now
	stack.PendingReset = stack.ResetBehavior == models.ResetAsk
	stack.UpdatedAt = now
	uow.SaveStack(stack)

	m.notifier.StackCompleted(stack)
	if stack.PendingReset {
		m.notifier.ResetPromptRaised(stack)
	}
	m.logger.Info("stack completed",
		logging.Field{Key: "stack", Value: stack.Name},
		logging.Field{Key: "reset_behavior", Value: string(stack.ResetBehavior)})
	return true, nil
}

// Sweep runs post-completion processing over every completed, active stack
// that is not waiting on a user decision. It is idempotent and safe to run
// periodically and at startup. Per-stack failures are logged and do not
// abort remaining stacks.
func (m *StateMachine) Sweep(ctx context.Context, now time.Time) error {
	stacks, err := m.store.CompletedStacks()
	if err != nil {
		return err
	}

	for _, candidate := range stacks {
		stackID := candidate.ID
		err := m.store.Atomically(ctx, candidate.AccountID, func(uow store.UnitOfWork) error {
			stack, err := uow.Stack(stackID)
			if err != nil {
				return err
			}
			// State may have moved since the candidate list was read.
			if !stack.IsCompleted || !stack.IsActive || stack.PendingReset {
				return nil
			}

			switch stack.ResetBehavior {
			case models.ResetAuto:
				return m.resetLocked(uow, stack, now, nil)
			case models.ResetDelete:
				return m.deleteLocked(uow, stack, now)
			default:
				// ask_reset waits for the user; none stays completed.
				return nil
			}
		})
		if err != nil {
			m.logger.WithError(err).Error("completion sweep failed for stack",
				logging.Field{Key: "stack_id", Value: stackID.String()})
		}
	}
	return nil
}

// Reset manually resets a completed stack, returning its funds to the
// account. Caller-supplied params override the recomputed goal and funding
// schedule.
func (m *StateMachine) Reset(ctx context.Context, stackID uuid.UUID, params *ResetParams, now time.Time) error {
	stack, err := m.store.StackByID(stackID)
	if err != nil {
		return err
	}
	return m.store.Atomically(ctx, stack.AccountID, func(uow store.UnitOfWork) error {
		stack, err := uow.Stack(stackID)
		if err != nil {
			return err
		}
		if !stack.IsCompleted {
			return &engineerror.PolicyViolationError{Operation: "reset", Reason: "stack is not completed"}
		}
		return m.resetLocked(uow, stack, now, params)
	})
}

// DismissResetPrompt records the user's decision to leave a completed stack
// as-is. The stack stays completed until manually reset later.
func (m *StateMachine) DismissResetPrompt(ctx context.Context, stackID uuid.UUID, now time.Time) error {
	stack, err := m.store.StackByID(stackID)
	if err != nil {
		return err
	}
	return m.store.Atomically(ctx, stack.AccountID, func(uow store.UnitOfWork) error {
		stack, err := uow.Stack(stackID)
		if err != nil {
			return err
		}
		if !stack.IsCompleted {
			return &engineerror.PolicyViolationError{Operation: "dismiss reset prompt", Reason: "stack is not completed"}
		}
		if !stack.PendingReset {
			return &engineerror.AlreadyProcessedError{Operation: "dismiss reset prompt", Reason: "no prompt pending"}
		}
		stack.PendingReset = false
		stack.UpdatedAt = now
		uow.SaveStack(stack)
		return nil
	})
}

// ListPendingResets returns the owner's completed stacks awaiting a reset
// decision.
func (m *StateMachine) ListPendingResets(ownerID uuid.UUID) ([]*models.Stack, error) {
	return m.store.PendingResets(ownerID)
}

// resetLocked returns the stack's funds to the account and re-arms its goal
// inside an open unit of work. Shared by the periodic sweep, manual resets
// and the recurring-bill hook.
func (m *StateMachine) resetLocked(uow store.UnitOfWork, stack *models.Stack, now time.Time, params *ResetParams) error {
	newDueDate := stack.TargetDueDate
	if !newDueDate.IsZero() {
		newDueDate = schedule.StepPeriod(newDueDate, stack.RecurringPeriod)
	}

	if params != nil {
		if params.TargetAmount != nil {
			stack.TargetAmount = *params.TargetAmount
		}
		if params.TargetDueDate != nil {
			newDueDate = *params.TargetDueDate
		}
		if params.AutoAllocate != nil {
			stack.AutoAllocate = *params.AutoAllocate
		}
		if params.AutoAllocateAmount != nil {
			stack.AutoAllocateAmount = *params.AutoAllocateAmount
		}
		if params.AutoAllocateFrequency != nil {
			stack.AutoAllocateFrequency = *params.AutoAllocateFrequency
		}
		if params.AutoAllocateStartDate != nil {
			stack.AutoAllocateStartDate = *params.AutoAllocateStartDate
		}
	}

	if stack.AutoAllocate && !stack.AutoAllocateStartDate.IsZero() {
		next, err := schedule.NextOnOrAfter(stack.AutoAllocateStartDate, stack.AutoAllocateFrequency, now)
		if err != nil {
			return err
		}
		stack.AutoAllocateNextDate = next
	}

	if stack.CurrentAmount.IsPositive() {
		if err := m.returnFunds(uow, stack, now, "Returned funds from completed stack "+stack.Name); err != nil {
			return err
		}
	}

	stack.CurrentAmount = decimal.Zero
	stack.IsCompleted = false
	stack.CompletedAt = time.Time{}
	stack.PendingReset = false
	stack.TargetDueDate = newDueDate
	stack.UpdatedAt = now
	uow.SaveStack(stack)

	m.logger.Info("stack reset",
		logging.Field{Key: "stack", Value: stack.Name},
		logging.Field{Key: "next_due", Value: newDueDate})
	return nil
}

// deleteLocked returns any held funds to the account and removes the stack.
func (m *StateMachine) deleteLocked(uow store.UnitOfWork, stack *models.Stack, now time.Time) error {
	if stack.CurrentAmount.IsPositive() {
		if err := m.returnFunds(uow, stack, now, "Returned funds from deleted stack "+stack.Name); err != nil {
			return err
		}
	}
	uow.DeleteStack(stack.ID)
	m.logger.Info("completed stack deleted",
		logging.Field{Key: "stack", Value: stack.Name})
	return nil
}

func (m *StateMachine) returnFunds(uow store.UnitOfWork, stack *models.Stack, now time.Time, description string) error {
	account, err := uow.Account()
	if err != nil {
		return err
	}
	account.AvailableBalance = account.AvailableBalance.Add(stack.CurrentAmount)
	account.UpdatedAt = now
	uow.SaveAccount(account)

	uow.AppendTransaction(&models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		StackID:     stack.ID,
		Amount:      stack.CurrentAmount,
		Description: description,
		Date:        now,
		IsVirtual:   true,
		CreatedAt:   now,
	})
	return nil
}
