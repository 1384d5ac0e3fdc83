// Package scheduler runs the periodic funding pass: every active stack
// with a due auto-allocation gets funded from its account's available
// balance, overflow rules applied, and its schedule advanced.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stacknest/internal/allocator"
	"stacknest/internal/completion"
	"stacknest/internal/logging"
	"stacknest/internal/schedule"
	"stacknest/internal/store"
)

// Scheduler drives due auto-allocations. It is safe to run on a periodic
// trigger and at process startup; missed cycles are never retried, the
// schedule only moves forward.
type Scheduler struct {
	store      store.Store
	allocator  *allocator.Allocator
	completion *completion.StateMachine
	logger     logging.Logger
}

// New creates a Scheduler.
func New(st store.Store, alloc *allocator.Allocator, comp *completion.StateMachine, logger logging.Logger) *Scheduler {
	return &Scheduler{store: st, allocator: alloc, completion: comp, logger: logger}
}

// Result summarizes one scheduler pass.
type Result struct {
	// ProcessedCount is the number of stacks that received an allocation.
	ProcessedCount int
	Timestamp      time.Time
}

// RunDueAllocations funds every due stack in ascending priority order so
// overflow cascades land on lower-priority stacks consistently. One
// stack's failure is logged and skipped without aborting the batch; a
// final completion sweep runs after all due stacks are handled.
func (s *Scheduler) RunDueAllocations(ctx context.Context, now time.Time) (Result, error) {
	due, err := s.store.DueStacks(now)
	if err != nil {
		return Result{}, err
	}

	processed := 0
	for _, candidate := range due {
		allocated, err := s.processStack(ctx, candidate.ID, candidate.AccountID, now)
		if err != nil {
			s.logger.WithError(err).Error("auto-allocation failed for stack",
				logging.Field{Key: "stack_id", Value: candidate.ID.String()})
			continue
		}
		if allocated {
			processed++
		}
	}

	if err := s.completion.Sweep(ctx, now); err != nil {
		s.logger.WithError(err).Error("completion sweep after scheduler pass failed")
	}

	s.logger.Info("scheduler pass finished",
		logging.Field{Key: "due", Value: len(due)},
		logging.Field{Key: "processed", Value: processed})
	return Result{ProcessedCount: processed, Timestamp: now}, nil
}

// processStack handles one due stack inside its account's unit of work.
// Returns whether an allocation was actually performed.
func (s *Scheduler) processStack(ctx context.Context, stackID, accountID uuid.UUID, now time.Time) (bool, error) {
	allocated := false
	err := s.store.Atomically(ctx, accountID, func(uow store.UnitOfWork) error {
		stack, err := uow.Stack(stackID)
		if err != nil {
			return err
		}
		// The due list is a committed-state snapshot; state may have moved.
		if !stack.IsActive || !stack.AutoAllocate ||
			stack.AutoAllocateNextDate.IsZero() || stack.AutoAllocateNextDate.After(now) {
			return nil
		}

		if !stack.AutoAllocateAmount.IsPositive() {
			s.logger.Warn("auto-allocate stack has no funding amount, skipping",
				logging.Field{Key: "stack", Value: stack.Name})
			return nil
		}

		account, err := uow.Account()
		if err != nil {
			return err
		}
		if account.AvailableBalance.LessThan(stack.AutoAllocateAmount) {
			// Missed cycles are not retried: the schedule still advances,
			// observable only as a gap in the ledger.
			s.logger.Info("insufficient available balance, skipping funding cycle",
				logging.Field{Key: "stack", Value: stack.Name},
				logging.Field{Key: "needed", Value: stack.AutoAllocateAmount.String()},
				logging.Field{Key: "available", Value: account.AvailableBalance.String()})
			return s.advanceSchedule(uow, stackID, now)
		}

		res, err := s.allocator.Allocate(uow, stackID, stack.AutoAllocateAmount, "", now)
		if err != nil {
			return err
		}
		for _, changed := range res.Changed {
			if _, err := s.completion.Check(uow, changed.ID, now); err != nil {
				return err
			}
		}
		allocated = true
		return s.advanceSchedule(uow, stackID, now)
	})
	return allocated && err == nil, err
}

// advanceSchedule moves the stack's next funding instant past now.
func (s *Scheduler) advanceSchedule(uow store.UnitOfWork, stackID uuid.UUID, now time.Time) error {
	stack, err := uow.Stack(stackID)
	if err != nil {
		return err
	}
	next, err := schedule.NextOnOrAfter(stack.AutoAllocateNextDate, stack.AutoAllocateFrequency, now)
	if err != nil {
		return err
	}
	stack.AutoAllocateNextDate = next
	stack.UpdatedAt = now
	uow.SaveStack(stack)
	return nil
}
