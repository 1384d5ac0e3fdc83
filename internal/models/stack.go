package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stack is a named, goal-tracked sub-allocation of an account's funds.
// Stacks are ordered within an account by Priority (lower value = higher
// priority); that ordering decides where overflow cascades land.
type Stack struct {
	ID          uuid.UUID       `json:"id" yaml:"id"`
	AccountID   uuid.UUID       `json:"accountId" yaml:"account_id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Priority    int             `json:"priority" yaml:"priority"`
	IsActive    bool            `json:"isActive" yaml:"is_active"`

	CurrentAmount decimal.Decimal `json:"currentAmount" yaml:"current_amount"`
	TargetAmount  decimal.Decimal `json:"targetAmount" yaml:"target_amount"`
	TargetDueDate time.Time       `json:"targetDueDate" yaml:"target_due_date"`

	IsCompleted  bool      `json:"isCompleted" yaml:"is_completed"`
	PendingReset bool      `json:"pendingReset" yaml:"pending_reset"`
	CompletedAt  time.Time `json:"completedAt" yaml:"completed_at"`

	AutoAllocate          bool            `json:"autoAllocate" yaml:"auto_allocate"`
	AutoAllocateAmount    decimal.Decimal `json:"autoAllocateAmount" yaml:"auto_allocate_amount"`
	AutoAllocateFrequency Frequency       `json:"autoAllocateFrequency" yaml:"auto_allocate_frequency"`
	AutoAllocateStartDate time.Time       `json:"autoAllocateStartDate" yaml:"auto_allocate_start_date"`
	AutoAllocateNextDate  time.Time       `json:"autoAllocateNextDate" yaml:"auto_allocate_next_date"`

	OverflowBehavior OverflowBehavior `json:"overflowBehavior" yaml:"overflow_behavior"`
	ResetBehavior    ResetBehavior    `json:"resetBehavior" yaml:"reset_behavior"`
	RecurringPeriod  RecurringPeriod  `json:"recurringPeriod" yaml:"recurring_period"`

	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// HasTarget reports whether the stack has a goal amount set.
func (s *Stack) HasTarget() bool {
	return s.TargetAmount.IsPositive()
}

// Room returns how much the stack can still take before hitting its target.
// A stack already at or past its target has zero room; a stack without a
// target has unlimited room, reported as the nil-semantics zero value the
// allocator treats as "no ceiling".
func (s *Stack) Room() decimal.Decimal {
	if !s.HasTarget() {
		return decimal.Zero
	}
	room := s.TargetAmount.Sub(s.CurrentAmount)
	if room.IsNegative() {
		return decimal.Zero
	}
	return room
}

// GoalReached reports whether the stack holds at least its target amount.
func (s *Stack) GoalReached() bool {
	return s.HasTarget() && s.CurrentAmount.GreaterThanOrEqual(s.TargetAmount)
}

// Clone returns a deep copy of the stack.
func (s *Stack) Clone() *Stack {
	cp := *s
	return &cp
}
