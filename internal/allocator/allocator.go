// Package allocator moves money between an account's available balance and
// its stacks, including the overflow distribution that runs when an
// allocation would push a stack past its target.
package allocator

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stacknest/internal/engineerror"
	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/store"
)

// Allocator implements fund movement inside a single unit of work. It never
// commits anything itself; callers wrap it in store.Atomically.
type Allocator struct {
	logger logging.Logger
}

// New creates an Allocator.
func New(logger logging.Logger) *Allocator {
	return &Allocator{logger: logger}
}

// Result describes the outcome of an allocation.
type Result struct {
	// Allocated is the portion credited to the requested stack.
	Allocated decimal.Decimal
	// Overflow is the portion that exceeded the stack's room, wherever it
	// ended up.
	Overflow decimal.Decimal
	// Changed holds every stack whose held amount changed, for completion
	// checks by the caller.
	Changed []*models.Stack
}

// Allocate moves amount from the account's available balance into the given
// stack, applying the stack's overflow behavior (or behaviorOverride when it
// is a valid behavior) if the stack's target would be exceeded. The
// emitted ledger entries are virtual: they record internal movement only.
//
// Overflow routed to the next-priority stack is deliberately uncapped and
// never cascades a second hop.
func (a *Allocator) Allocate(uow store.UnitOfWork, stackID uuid.UUID, amount decimal.Decimal, behaviorOverride models.OverflowBehavior, now time.Time) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, &engineerror.InvalidAmountError{Operation: "allocate", Amount: amount.String()}
	}

	stack, err := uow.Stack(stackID)
	if err != nil {
		return Result{}, err
	}
	if !stack.IsActive {
		return Result{}, &engineerror.PolicyViolationError{
			Operation: "allocate",
			Reason:    "stack " + stackID.String() + " is inactive",
		}
	}

	account, err := uow.Account()
	if err != nil {
		return Result{}, err
	}
	if account.AvailableBalance.LessThan(amount) {
		return Result{}, &engineerror.InsufficientFundsError{
			Source:    "account",
			ID:        account.ID.String(),
			Requested: amount.String(),
			Available: account.AvailableBalance.String(),
		}
	}

	behavior := stack.OverflowBehavior
	if behaviorOverride.Valid() {
		behavior = behaviorOverride
	}
	if !behavior.Valid() {
		behavior = models.OverflowKeepInStack
	}

	// No target, or enough room: the whole amount lands in the stack.
	if !stack.HasTarget() || stack.CurrentAmount.Add(amount).LessThanOrEqual(stack.TargetAmount) {
		a.credit(uow, account, stack, amount, now)
		account.AvailableBalance = account.AvailableBalance.Sub(amount)
		a.saveAccount(uow, account, now)
		return Result{Allocated: amount, Overflow: decimal.Zero, Changed: []*models.Stack{stack}}, nil
	}

	room := stack.Room()
	overflow := amount.Sub(room)

	switch behavior {
	case models.OverflowNextPriority:
		next := nextPriorityStack(uow, stack)
		if next == nil {
			// Nothing below this stack to cascade into; keep everything.
			a.credit(uow, account, stack, amount, now)
			account.AvailableBalance = account.AvailableBalance.Sub(amount)
			a.saveAccount(uow, account, now)
			return Result{Allocated: amount, Overflow: decimal.Zero, Changed: []*models.Stack{stack}}, nil
		}

		changed := make([]*models.Stack, 0, 2)
		if room.IsPositive() {
			a.credit(uow, account, stack, room, now)
			changed = append(changed, stack)
		}
		a.credit(uow, account, next, overflow, now)
		changed = append(changed, next)
		account.AvailableBalance = account.AvailableBalance.Sub(amount)
		a.saveAccount(uow, account, now)

		a.logger.Debug("overflow cascaded to next priority stack",
			logging.Field{Key: "stack", Value: stack.Name},
			logging.Field{Key: "next", Value: next.Name},
			logging.Field{Key: "overflow", Value: overflow.String()})
		return Result{Allocated: room, Overflow: overflow, Changed: changed}, nil

	case models.OverflowAvailableBalance:
		// Only the room leaves the available balance; the overflow simply
		// stays uncommitted.
		changed := []*models.Stack{}
		if room.IsPositive() {
			a.credit(uow, account, stack, room, now)
			changed = append(changed, stack)
			account.AvailableBalance = account.AvailableBalance.Sub(room)
			a.saveAccount(uow, account, now)
		}
		return Result{Allocated: room, Overflow: overflow, Changed: changed}, nil

	default: // models.OverflowKeepInStack
		a.credit(uow, account, stack, amount, now)
		account.AvailableBalance = account.AvailableBalance.Sub(amount)
		a.saveAccount(uow, account, now)
		return Result{Allocated: amount, Overflow: overflow, Changed: []*models.Stack{stack}}, nil
	}
}

// Deallocate moves amount out of the stack back into the account's
// available balance. No overflow logic applies.
func (a *Allocator) Deallocate(uow store.UnitOfWork, stackID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return &engineerror.InvalidAmountError{Operation: "deallocate", Amount: amount.String()}
	}

	stack, err := uow.Stack(stackID)
	if err != nil {
		return err
	}
	if stack.CurrentAmount.LessThan(amount) {
		return &engineerror.InsufficientFundsError{
			Source:    "stack",
			ID:        stackID.String(),
			Requested: amount.String(),
			Available: stack.CurrentAmount.String(),
		}
	}

	account, err := uow.Account()
	if err != nil {
		return err
	}

	stack.CurrentAmount = stack.CurrentAmount.Sub(amount)
	stack.UpdatedAt = now
	uow.SaveStack(stack)

	account.AvailableBalance = account.AvailableBalance.Add(amount)
	a.saveAccount(uow, account, now)

	uow.AppendTransaction(&models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		StackID:     stack.ID,
		Amount:      amount,
		Description: "Deallocation from " + stack.Name,
		Date:        now,
		IsVirtual:   true,
		CreatedAt:   now,
	})
	return nil
}

// credit adds amount to the stack's held funds and records the matching
// virtual ledger entry (negative: funds leave the uncommitted pool).
func (a *Allocator) credit(uow store.UnitOfWork, account *models.Account, stack *models.Stack, amount decimal.Decimal, now time.Time) {
	stack.CurrentAmount = stack.CurrentAmount.Add(amount)
	stack.UpdatedAt = now
	uow.SaveStack(stack)

	uow.AppendTransaction(&models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		StackID:     stack.ID,
		Amount:      amount.Neg(),
		Description: "Allocation to " + stack.Name,
		Date:        now,
		IsVirtual:   true,
		CreatedAt:   now,
	})
}

func (a *Allocator) saveAccount(uow store.UnitOfWork, account *models.Account, now time.Time) {
	account.UpdatedAt = now
	uow.SaveAccount(account)
}

// nextPriorityStack returns the active stack with the smallest priority
// strictly greater than the given stack's, or nil when none exists.
func nextPriorityStack(uow store.UnitOfWork, stack *models.Stack) *models.Stack {
	stacks, err := uow.Stacks()
	if err != nil {
		return nil
	}
	for _, s := range stacks {
		if s.IsActive && s.ID != stack.ID && s.Priority > stack.Priority {
			return s
		}
	}
	return nil
}
