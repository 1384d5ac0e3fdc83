package matcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stacknest/internal/engineerror"
	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/store"
)

// Default thresholds for the matching pass.
const (
	DefaultMinConfidence        = 0.6
	DefaultAutoConfirmThreshold = 0.95
	DefaultScanLimit            = 50
)

// Options tune a Matcher. Zero values fall back to the defaults.
type Options struct {
	// MinConfidence is the floor below which no suggestion is stored.
	MinConfidence float64
	// AutoConfirmThreshold is the confidence at or above which a match is
	// applied without user review.
	AutoConfirmThreshold float64
	// ScanLimit bounds how many recent transactions one pass examines.
	ScanLimit int
}

func (o Options) withDefaults() Options {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.AutoConfirmThreshold <= 0 {
		o.AutoConfirmThreshold = DefaultAutoConfirmThreshold
	}
	if o.ScanLimit <= 0 {
		o.ScanLimit = DefaultScanLimit
	}
	return o
}

// Matcher links external transactions to the stacks they were spent from.
type Matcher struct {
	store  store.Store
	logger logging.Logger
	opts   Options
}

// New creates a Matcher.
func New(st store.Store, logger logging.Logger, opts Options) *Matcher {
	return &Matcher{store: st, logger: logger, opts: opts.withDefaults()}
}

// ScanResult counts the outcome of one matching pass.
type ScanResult struct {
	AutoConfirmed int
	Suggested     int
}

// FindMatch returns the stack whose name or description best matches the
// given transaction description, provided the score reaches minConfidence.
// Candidates are expected in ascending priority order; ties go to the
// first one encountered.
func FindMatch(description string, stacks []*models.Stack, minConfidence float64) (*models.Stack, float64) {
	var best *models.Stack
	bestScore := 0.0
	for _, stack := range stacks {
		score := Similarity(description, stack.Name)
		if s := Similarity(description, stack.Description); s > score {
			score = s
		}
		if score >= minConfidence && score > bestScore {
			best = stack
			bestScore = score
		}
	}
	return best, bestScore
}

// ProcessUnmatched runs one matching pass over the account's recent real
// outflow transactions that have no stack, no suggestion and no prior
// verdict. Matches at or above the auto-confirm threshold are applied
// immediately; the rest are stored as suggestions for manual review.
func (m *Matcher) ProcessUnmatched(ctx context.Context, accountID uuid.UUID, now time.Time) (ScanResult, error) {
	var result ScanResult
	err := m.store.Atomically(ctx, accountID, func(uow store.UnitOfWork) error {
		txs, err := uow.RecentMatchableTransactions(m.opts.ScanLimit)
		if err != nil {
			return err
		}
		stacks, err := uow.Stacks()
		if err != nil {
			return err
		}
		var active []*models.Stack
		for _, s := range stacks {
			if s.IsActive {
				active = append(active, s)
			}
		}

		for _, tx := range txs {
			stack, confidence := FindMatch(tx.Description, active, m.opts.MinConfidence)
			if stack == nil {
				continue
			}
			if confidence >= m.opts.AutoConfirmThreshold {
				if err := m.confirmLocked(uow, tx, stack.ID, confidence, now); err != nil {
					return err
				}
				result.AutoConfirmed++
				continue
			}
			tx.SuggestedStackID = stack.ID
			tx.MatchConfidenceScore = confidence
			uow.SaveTransaction(tx)
			result.Suggested++
			m.logger.Debug("match suggested",
				logging.Field{Key: "transaction", Value: tx.Description},
				logging.Field{Key: "stack", Value: stack.Name},
				logging.Field{Key: "confidence", Value: confidence})
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}
	m.logger.Info("matching pass finished",
		logging.Field{Key: "account_id", Value: accountID.String()},
		logging.Field{Key: "auto_confirmed", Value: result.AutoConfirmed},
		logging.Field{Key: "suggested", Value: result.Suggested})
	return result, nil
}

// Confirm applies a stored suggestion: the matched stack's held amount is
// reduced by the transaction amount and a virtual ledger entry records the
// deduction.
func (m *Matcher) Confirm(ctx context.Context, txID uuid.UUID, now time.Time) error {
	tx, err := m.store.TransactionByID(txID)
	if err != nil {
		return err
	}
	return m.store.Atomically(ctx, tx.AccountID, func(uow store.UnitOfWork) error {
		tx, err := uow.Transaction(txID)
		if err != nil {
			return err
		}
		if tx.MatchConfirmed {
			return &engineerror.AlreadyProcessedError{Operation: "confirm match", Reason: "match already confirmed"}
		}
		if !tx.HasSuggestion() {
			return &engineerror.PolicyViolationError{Operation: "confirm match", Reason: "transaction has no suggestion"}
		}
		return m.confirmLocked(uow, tx, tx.SuggestedStackID, tx.MatchConfidenceScore, now)
	})
}

// Reject clears a suggestion and permanently excludes the transaction from
// future matching passes.
func (m *Matcher) Reject(ctx context.Context, txID uuid.UUID, now time.Time) error {
	tx, err := m.store.TransactionByID(txID)
	if err != nil {
		return err
	}
	return m.store.Atomically(ctx, tx.AccountID, func(uow store.UnitOfWork) error {
		tx, err := uow.Transaction(txID)
		if err != nil {
			return err
		}
		if tx.MatchConfirmed {
			return &engineerror.AlreadyProcessedError{Operation: "reject match", Reason: "match already confirmed, unmatch it instead"}
		}
		if tx.MatchRejected {
			return &engineerror.AlreadyProcessedError{Operation: "reject match", Reason: "match already rejected"}
		}
		tx.SuggestedStackID = uuid.Nil
		tx.MatchConfidenceScore = 0
		tx.MatchRejected = true
		uow.SaveTransaction(tx)
		return nil
	})
}

// Unmatch reverses a confirmed match: the deducted amount goes back into
// the stack, the virtual ledger entry is removed, and the transaction is
// marked rejected so it is never suggested again.
func (m *Matcher) Unmatch(ctx context.Context, txID uuid.UUID, now time.Time) error {
	tx, err := m.store.TransactionByID(txID)
	if err != nil {
		return err
	}
	return m.store.Atomically(ctx, tx.AccountID, func(uow store.UnitOfWork) error {
		tx, err := uow.Transaction(txID)
		if err != nil {
			return err
		}
		if !tx.MatchConfirmed {
			return &engineerror.PolicyViolationError{Operation: "unmatch", Reason: "transaction is not a confirmed match"}
		}

		stack, err := uow.Stack(tx.StackID)
		if err != nil {
			return err
		}
		account, err := uow.Account()
		if err != nil {
			return err
		}

		amount := tx.Amount.Abs()
		if account.AvailableBalance.LessThan(amount) {
			return &engineerror.InsufficientFundsError{
				Source:    "account",
				ID:        account.ID.String(),
				Requested: amount.String(),
				Available: account.AvailableBalance.String(),
			}
		}

		stack.CurrentAmount = stack.CurrentAmount.Add(amount)
		stack.UpdatedAt = now
		uow.SaveStack(stack)

		account.AvailableBalance = account.AvailableBalance.Sub(amount)
		account.UpdatedAt = now
		uow.SaveAccount(account)

		if tx.MatchVirtualTxID != uuid.Nil {
			uow.DeleteTransaction(tx.MatchVirtualTxID)
		}

		tx.StackID = uuid.Nil
		tx.SuggestedStackID = uuid.Nil
		tx.MatchConfidenceScore = 0
		tx.MatchConfirmed = false
		tx.MatchVirtualTxID = uuid.Nil
		tx.MatchRejected = true
		uow.SaveTransaction(tx)

		m.logger.Info("match reversed",
			logging.Field{Key: "transaction", Value: tx.Description},
			logging.Field{Key: "stack", Value: stack.Name})
		return nil
	})
}

// ListPendingMatches returns the account's transactions awaiting a manual
// match decision.
func (m *Matcher) ListPendingMatches(accountID uuid.UUID) ([]*models.Transaction, error) {
	return m.store.PendingMatches(accountID)
}

// confirmLocked applies a match inside an open unit of work: the stack's
// held amount drops by the transaction amount, the freed funds return to
// the available balance, and a virtual entry records the deduction.
func (m *Matcher) confirmLocked(uow store.UnitOfWork, tx *models.Transaction, stackID uuid.UUID, confidence float64, now time.Time) error {
	stack, err := uow.Stack(stackID)
	if err != nil {
		return err
	}
	account, err := uow.Account()
	if err != nil {
		return err
	}

	amount := tx.Amount.Abs()
	stack.CurrentAmount = stack.CurrentAmount.Sub(amount)
	stack.UpdatedAt = now
	uow.SaveStack(stack)

	account.AvailableBalance = account.AvailableBalance.Add(amount)
	account.UpdatedAt = now
	uow.SaveAccount(account)

	virtual := &models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		StackID:     stack.ID,
		Amount:      amount,
		Description: "Matched expense to stack " + stack.Name,
		Date:        now,
		IsVirtual:   true,
		CreatedAt:   now,
	}
	uow.AppendTransaction(virtual)

	tx.StackID = stack.ID
	tx.SuggestedStackID = stack.ID
	tx.MatchConfidenceScore = confidence
	tx.MatchConfirmed = true
	tx.MatchRejected = false
	tx.MatchVirtualTxID = virtual.ID
	uow.SaveTransaction(tx)

	m.logger.Info("match confirmed",
		logging.Field{Key: "transaction", Value: tx.Description},
		logging.Field{Key: "stack", Value: stack.Name},
		logging.Field{Key: "confidence", Value: confidence})
	return nil
}
