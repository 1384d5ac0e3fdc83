// Package store defines the persistence boundary of the allocation engine.
// The engine only ever talks to these interfaces; the in-memory
// implementation in this package is the reference store, and a database
// backed implementation can replace it without touching engine code.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stacknest/internal/models"
)

// UnitOfWork is an atomic, single-account write scope. All reads inside a
// unit observe a consistent snapshot of the account's records plus the
// unit's own staged writes; staged writes become visible to others only
// when the unit commits, and are discarded wholesale if it returns an
// error. Records returned by a unit are private copies, safe to mutate
// before saving back.
type UnitOfWork interface {
	// Account returns the account the unit is scoped to.
	Account() (*models.Account, error)
	SaveAccount(a *models.Account)

	Stack(id uuid.UUID) (*models.Stack, error)
	// Stacks returns the account's stacks in ascending priority order.
	Stacks() ([]*models.Stack, error)
	SaveStack(s *models.Stack)
	DeleteStack(id uuid.UUID)

	Transaction(id uuid.UUID) (*models.Transaction, error)
	AppendTransaction(t *models.Transaction)
	// SaveTransaction persists changes to an existing ledger entry. Only
	// the match-status fields of a transaction are ever rewritten.
	SaveTransaction(t *models.Transaction)
	DeleteTransaction(id uuid.UUID)

	// RecentMatchableTransactions returns up to limit of the account's
	// most recent real outflow entries with no stack, no suggestion and
	// no prior verdict, newest first.
	RecentMatchableTransactions(limit int) ([]*models.Transaction, error)
}

// Store is the engine's query and transaction surface. Reads outside a
// unit of work see committed state only.
type Store interface {
	CreateAccount(a *models.Account) error
	AccountByID(id uuid.UUID) (*models.Account, error)
	AccountsByOwner(ownerID uuid.UUID) ([]*models.Account, error)

	CreateStack(s *models.Stack) error
	StackByID(id uuid.UUID) (*models.Stack, error)
	// StacksByAccount returns the account's stacks in ascending priority
	// order.
	StacksByAccount(accountID uuid.UUID) ([]*models.Stack, error)
	// DueStacks returns every active auto-allocate stack whose next
	// scheduled funding instant is at or before now, ascending priority.
	DueStacks(now time.Time) ([]*models.Stack, error)
	// CompletedStacks returns every active, completed stack that is not
	// waiting on a user reset decision.
	CompletedStacks() ([]*models.Stack, error)
	// PendingResets returns the owner's completed stacks awaiting a reset
	// decision.
	PendingResets(ownerID uuid.UUID) ([]*models.Stack, error)

	TransactionByID(id uuid.UUID) (*models.Transaction, error)
	// PendingMatches returns the account's transactions holding an
	// unconfirmed, unrejected match suggestion, newest first.
	PendingMatches(accountID uuid.UUID) ([]*models.Transaction, error)
	TransactionsByStack(stackID uuid.UUID) ([]*models.Transaction, error)

	// Atomically runs fn inside a unit of work scoped to the given
	// account. Units for the same account are serialized; units for
	// different accounts may run concurrently. If fn returns an error,
	// none of its writes apply.
	Atomically(ctx context.Context, accountID uuid.UUID, fn func(UnitOfWork) error) error
}
