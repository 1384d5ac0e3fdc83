// Package engineerror defines the error taxonomy of the allocation engine.
// Each failure class is a distinct type so callers can branch with
// errors.As without string matching.
package engineerror

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing account, stack or transaction.
type NotFoundError struct {
	Kind string // "account", "stack", "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidAmountError reports a non-positive allocation or deallocation
// amount.
type InvalidAmountError struct {
	Operation string
	Amount    string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s requires a positive amount, got %s", e.Operation, e.Amount)
}

// InsufficientFundsError reports that an account's available balance or a
// stack's held amount is too low for the requested operation.
type InsufficientFundsError struct {
	Source    string // "account" or "stack"
	ID        string
	Requested string
	Available string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %s %s: requested %s, available %s",
		e.Source, e.ID, e.Requested, e.Available)
}

// AlreadyProcessedError reports an operation repeated against state that has
// already moved on, such as confirming an already-confirmed match.
type AlreadyProcessedError struct {
	Operation string
	Reason    string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("%s already processed: %s", e.Operation, e.Reason)
}

// PolicyViolationError reports an operation that the entity's configured
// state does not permit, such as resetting a stack that is not completed.
type PolicyViolationError struct {
	Operation string
	Reason    string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("%s not permitted: %s", e.Operation, e.Reason)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsInvalidAmount reports whether err is an InvalidAmountError.
func IsInvalidAmount(err error) bool {
	var target *InvalidAmountError
	return errors.As(err, &target)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}

// IsAlreadyProcessed reports whether err is an AlreadyProcessedError.
func IsAlreadyProcessed(err error) bool {
	var target *AlreadyProcessedError
	return errors.As(err, &target)
}

// IsPolicyViolation reports whether err is a PolicyViolationError.
func IsPolicyViolation(err error) bool {
	var target *PolicyViolationError
	return errors.As(err, &target)
}
