// Package engine is the facade of the allocation and reconciliation core.
// It wires the allocator, completion state machine, scheduler and matcher
// behind one operation surface for external callers (HTTP layer, periodic
// triggers, banking-sync webhooks), keeping every multi-record mutation
// inside a single atomic unit of work.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stacknest/internal/allocator"
	"stacknest/internal/completion"
	"stacknest/internal/engineerror"
	"stacknest/internal/logging"
	"stacknest/internal/matcher"
	"stacknest/internal/models"
	"stacknest/internal/schedule"
	"stacknest/internal/scheduler"
	"stacknest/internal/store"
)

// Engine exposes the core operations over a store.
type Engine struct {
	store      store.Store
	allocator  *allocator.Allocator
	completion *completion.StateMachine
	matcher    *matcher.Matcher
	scheduler  *scheduler.Scheduler
	logger     logging.Logger

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New creates an Engine over the given store with the given matching
// thresholds.
func New(st store.Store, logger logging.Logger, notifier completion.Notifier, matchOpts matcher.Options) *Engine {
	alloc := allocator.New(logger)
	comp := completion.New(st, logger, notifier)
	return &Engine{
		store:      st,
		allocator:  alloc,
		completion: comp,
		matcher:    matcher.New(st, logger, matchOpts),
		scheduler:  scheduler.New(st, alloc, comp, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CreateAccount registers a new account with an opening balance, all of it
// initially uncommitted.
func (e *Engine) CreateAccount(ownerID uuid.UUID, name, currency string, openingBalance decimal.Decimal) (*models.Account, error) {
	if openingBalance.IsNegative() {
		return nil, &engineerror.InvalidAmountError{Operation: "create account", Amount: openingBalance.String()}
	}
	now := e.now()
	account := &models.Account{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             name,
		Currency:         currency,
		Balance:          openingBalance,
		AvailableBalance: openingBalance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateStack registers a new stack on an account, assigning it the next
// free priority unless one is given and computing its first scheduled
// funding instant.
func (e *Engine) CreateStack(stack *models.Stack) (*models.Stack, error) {
	now := e.now()
	if stack.ID == uuid.Nil {
		stack.ID = uuid.New()
	}
	if !stack.OverflowBehavior.Valid() {
		stack.OverflowBehavior = models.OverflowKeepInStack
	}
	if !stack.ResetBehavior.Valid() {
		stack.ResetBehavior = models.ResetNone
	}

	existing, err := e.store.StacksByAccount(stack.AccountID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(existing))
	maxPriority := -1
	for _, s := range existing {
		taken[s.Priority] = true
		if s.Priority > maxPriority {
			maxPriority = s.Priority
		}
	}
	if stack.Priority == 0 && taken[0] {
		stack.Priority = maxPriority + 1
	} else if taken[stack.Priority] {
		return nil, &engineerror.PolicyViolationError{
			Operation: "create stack",
			Reason:    "priority already in use within the account",
		}
	}

	if stack.AutoAllocate && !stack.AutoAllocateStartDate.IsZero() {
		next, err := schedule.NextOnOrAfter(stack.AutoAllocateStartDate, stack.AutoAllocateFrequency, now)
		if err != nil {
			return nil, err
		}
		stack.AutoAllocateNextDate = next
	}

	stack.IsActive = true
	stack.CreatedAt = now
	stack.UpdatedAt = now
	if err := e.store.CreateStack(stack); err != nil {
		return nil, err
	}
	return stack, nil
}

// Allocate moves amount from the account's available balance into a stack,
// applying overflow rules and running the completion check on every stack
// whose held amount changed.
func (e *Engine) Allocate(ctx context.Context, stackID uuid.UUID, amount decimal.Decimal, overflowOverride models.OverflowBehavior) (allocator.Result, error) {
	stack, err := e.store.StackByID(stackID)
	if err != nil {
		return allocator.Result{}, err
	}
	now := e.now()

	var result allocator.Result
	err = e.store.Atomically(ctx, stack.AccountID, func(uow store.UnitOfWork) error {
		var err error
		result, err = e.allocator.Allocate(uow, stackID, amount, overflowOverride, now)
		if err != nil {
			return err
		}
		for _, changed := range result.Changed {
			if _, err := e.completion.Check(uow, changed.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return allocator.Result{}, err
	}
	return result, nil
}

// Deallocate moves amount out of a stack back to the account's available
// balance.
func (e *Engine) Deallocate(ctx context.Context, stackID uuid.UUID, amount decimal.Decimal) error {
	stack, err := e.store.StackByID(stackID)
	if err != nil {
		return err
	}
	now := e.now()
	return e.store.Atomically(ctx, stack.AccountID, func(uow store.UnitOfWork) error {
		return e.allocator.Deallocate(uow, stackID, amount, now)
	})
}

// RunDueAllocations executes one scheduler pass over all due stacks.
func (e *Engine) RunDueAllocations(ctx context.Context) (scheduler.Result, error) {
	return e.scheduler.RunDueAllocations(ctx, e.now())
}

// CheckCompletion runs the completion transition for a single stack and
// reports whether it is completed.
func (e *Engine) CheckCompletion(ctx context.Context, stackID uuid.UUID) (bool, error) {
	stack, err := e.store.StackByID(stackID)
	if err != nil {
		return false, err
	}
	now := e.now()
	var completed bool
	err = e.store.Atomically(ctx, stack.AccountID, func(uow store.UnitOfWork) error {
		var err error
		completed, err = e.completion.Check(uow, stackID, now)
		return err
	})
	return completed, err
}

// SweepCompletions runs post-completion processing over all accounts.
func (e *Engine) SweepCompletions(ctx context.Context) error {
	return e.completion.Sweep(ctx, e.now())
}

// ResetStack manually resets a completed stack, optionally overriding its
// new goal and funding schedule.
func (e *Engine) ResetStack(ctx context.Context, stackID uuid.UUID, params *completion.ResetParams) error {
	return e.completion.Reset(ctx, stackID, params, e.now())
}

// DismissResetPrompt records the decision to leave a completed stack as-is.
func (e *Engine) DismissResetPrompt(ctx context.Context, stackID uuid.UUID) error {
	return e.completion.DismissResetPrompt(ctx, stackID, e.now())
}

// ListPendingResets returns the owner's completed stacks awaiting a reset
// decision.
func (e *Engine) ListPendingResets(ownerID uuid.UUID) ([]*models.Stack, error) {
	return e.completion.ListPendingResets(ownerID)
}

// ScanForMatches runs one matching pass over the account's recent
// unassigned outflows.
func (e *Engine) ScanForMatches(ctx context.Context, accountID uuid.UUID) (matcher.ScanResult, error) {
	return e.matcher.ProcessUnmatched(ctx, accountID, e.now())
}

// ConfirmMatch applies a stored match suggestion.
func (e *Engine) ConfirmMatch(ctx context.Context, txID uuid.UUID) error {
	return e.matcher.Confirm(ctx, txID, e.now())
}

// RejectMatch discards a suggestion and excludes the transaction from
// future passes.
func (e *Engine) RejectMatch(ctx context.Context, txID uuid.UUID) error {
	return e.matcher.Reject(ctx, txID, e.now())
}

// Unmatch reverses a confirmed match.
func (e *Engine) Unmatch(ctx context.Context, txID uuid.UUID) error {
	return e.matcher.Unmatch(ctx, txID, e.now())
}

// ListPendingMatches returns the account's transactions awaiting a manual
// match decision.
func (e *Engine) ListPendingMatches(accountID uuid.UUID) ([]*models.Transaction, error) {
	return e.matcher.ListPendingMatches(accountID)
}

// OnExternalTransaction records a transaction observed by the banking-sync
// collaborator, adjusts the account balances, and runs the recurring-bill
// check against the account's completed auto-reset stacks.
func (e *Engine) OnExternalTransaction(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error) {
	now := e.now()
	tx := &models.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
		Date:        date,
		CreatedAt:   now,
	}

	err := e.store.Atomically(ctx, accountID, func(uow store.UnitOfWork) error {
		account, err := uow.Account()
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Add(amount)
		account.AvailableBalance = account.AvailableBalance.Add(amount)
		account.UpdatedAt = now
		uow.SaveAccount(account)
		uow.AppendTransaction(tx)

		_, err = e.completion.HandleRealTransaction(uow, tx, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Account returns an account with its stacks.
func (e *Engine) Account(accountID uuid.UUID) (*models.Account, []*models.Stack, error) {
	account, err := e.store.AccountByID(accountID)
	if err != nil {
		return nil, nil, err
	}
	stacks, err := e.store.StacksByAccount(accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, stacks, nil
}
