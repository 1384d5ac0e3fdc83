// Package models defines the core domain entities of the allocation engine:
// accounts, stacks and the transaction ledger. All monetary values use
// decimal arithmetic; float accumulation is never acceptable for balances.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds the total funds and the portion of them not committed to
// any stack. The balance invariant is maintained incrementally by every
// operation that moves money:
//
//	AvailableBalance = Balance - sum(CurrentAmount of active stacks)
type Account struct {
	ID               uuid.UUID       `json:"id" yaml:"id"`
	OwnerID          uuid.UUID       `json:"ownerId" yaml:"owner_id"`
	Name             string          `json:"name" yaml:"name"`
	Currency         string          `json:"currency" yaml:"currency"`
	Balance          decimal.Decimal `json:"balance" yaml:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance" yaml:"available_balance"`
	CreatedAt        time.Time       `json:"createdAt" yaml:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" yaml:"updated_at"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}
