package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an append-only ledger entry against an account. Amount is
// signed from the account's perspective: negative for outflows (expenses,
// allocations into stacks), positive for inflows.
//
// Entries are immutable once written except for the match-status fields,
// which move unset -> suggested -> confirmed, or -> rejected, and
// confirmed -> unmatched (which re-opens the entry as rejected so it is
// never suggested again).
type Transaction struct {
	ID          uuid.UUID       `json:"id" yaml:"id"`
	AccountID   uuid.UUID       `json:"accountId" yaml:"account_id"`
	StackID     uuid.UUID       `json:"stackId" yaml:"stack_id"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Description string          `json:"description" yaml:"description"`
	Date        time.Time       `json:"date" yaml:"date"`

	// IsVirtual marks internal account<->stack bookkeeping entries that do
	// not correspond to real external money movement.
	IsVirtual bool `json:"isVirtual" yaml:"is_virtual"`

	SuggestedStackID     uuid.UUID `json:"suggestedStackId" yaml:"suggested_stack_id"`
	MatchConfidenceScore float64   `json:"matchConfidenceScore" yaml:"match_confidence_score"`
	MatchConfirmed       bool      `json:"matchConfirmed" yaml:"match_confirmed"`
	MatchRejected        bool      `json:"matchRejected" yaml:"match_rejected"`
	// MatchVirtualTxID links a confirmed match to the virtual ledger entry
	// that recorded the stack deduction, so unmatching can remove it.
	MatchVirtualTxID uuid.UUID `json:"matchVirtualTxId" yaml:"match_virtual_tx_id"`

	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// IsOutflow reports whether the entry moves money out of the account.
func (t *Transaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// HasSuggestion reports whether a match suggestion is stored on the entry.
func (t *Transaction) HasSuggestion() bool {
	return t.SuggestedStackID != uuid.Nil
}

// Matchable reports whether the entry is still a candidate for stack
// matching: a real outflow with no assignment, suggestion or prior verdict.
func (t *Transaction) Matchable() bool {
	return !t.IsVirtual &&
		t.IsOutflow() &&
		t.StackID == uuid.Nil &&
		!t.HasSuggestion() &&
		!t.MatchConfirmed &&
		!t.MatchRejected
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	return &cp
}
