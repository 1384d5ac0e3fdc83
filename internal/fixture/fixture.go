// Package fixture loads a YAML scenario file into the engine: accounts,
// their stacks, and a history of external transactions. It exists for the
// CLI, demos and integration tests, since the reference store starts empty.
package fixture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stacknest/internal/engine"
	"stacknest/internal/models"
)

// Fixture is the root of a scenario file.
type Fixture struct {
	// OwnerID identifies the user owning every account in the scenario.
	// Generated when absent.
	OwnerID  string    `yaml:"owner_id"`
	Accounts []Account `yaml:"accounts"`
}

// Account describes one account with its stacks and transaction history.
type Account struct {
	Name           string        `yaml:"name"`
	Currency       string        `yaml:"currency"`
	OpeningBalance string        `yaml:"opening_balance"`
	Stacks         []Stack       `yaml:"stacks"`
	Transactions   []Transaction `yaml:"transactions"`
}

// Stack describes one stack. Amounts are decimal strings; empty means zero.
type Stack struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority"`

	TargetAmount  string    `yaml:"target_amount"`
	TargetDueDate time.Time `yaml:"target_due_date"`
	// InitialAmount is allocated into the stack right after creation.
	InitialAmount string `yaml:"initial_amount"`

	OverflowBehavior string `yaml:"overflow_behavior"`
	ResetBehavior    string `yaml:"reset_behavior"`
	RecurringPeriod  string `yaml:"recurring_period"`

	AutoAllocate          bool      `yaml:"auto_allocate"`
	AutoAllocateAmount    string    `yaml:"auto_allocate_amount"`
	AutoAllocateFrequency string    `yaml:"auto_allocate_frequency"`
	AutoAllocateStartDate time.Time `yaml:"auto_allocate_start_date"`
}

// Transaction describes one external ledger entry. Amount is signed:
// negative for outflows.
type Transaction struct {
	Amount      string    `yaml:"amount"`
	Description string    `yaml:"description"`
	Date        time.Time `yaml:"date"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return &f, nil
}

// Apply creates every account, stack and transaction of the fixture through
// the engine, so all balance bookkeeping rules hold afterwards. It returns
// the owner ID and the created accounts.
func (f *Fixture) Apply(ctx context.Context, eng *engine.Engine) (uuid.UUID, []*models.Account, error) {
	ownerID := uuid.New()
	if f.OwnerID != "" {
		parsed, err := uuid.Parse(f.OwnerID)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("invalid owner_id: %w", err)
		}
		ownerID = parsed
	}

	accounts := make([]*models.Account, 0, len(f.Accounts))
	for _, spec := range f.Accounts {
		opening, err := amountOrZero(spec.OpeningBalance)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("account %s: %w", spec.Name, err)
		}
		account, err := eng.CreateAccount(ownerID, spec.Name, spec.Currency, opening)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("account %s: %w", spec.Name, err)
		}

		for _, stackSpec := range spec.Stacks {
			if err := f.applyStack(ctx, eng, account.ID, stackSpec); err != nil {
				return uuid.Nil, nil, fmt.Errorf("account %s, stack %s: %w", spec.Name, stackSpec.Name, err)
			}
		}
		for _, txSpec := range spec.Transactions {
			amount, err := models.ParseAmount(txSpec.Amount)
			if err != nil {
				return uuid.Nil, nil, fmt.Errorf("account %s: %w", spec.Name, err)
			}
			if _, err := eng.OnExternalTransaction(ctx, account.ID, amount, txSpec.Description, txSpec.Date); err != nil {
				return uuid.Nil, nil, fmt.Errorf("account %s: %w", spec.Name, err)
			}
		}
		accounts = append(accounts, account)
	}
	return ownerID, accounts, nil
}

func (f *Fixture) applyStack(ctx context.Context, eng *engine.Engine, accountID uuid.UUID, spec Stack) error {
	target, err := amountOrZero(spec.TargetAmount)
	if err != nil {
		return err
	}
	autoAmount, err := amountOrZero(spec.AutoAllocateAmount)
	if err != nil {
		return err
	}

	stack, err := eng.CreateStack(&models.Stack{
		AccountID:   accountID,
		Name:        spec.Name,
		Description: spec.Description,
		Priority:    spec.Priority,

		TargetAmount:  target,
		TargetDueDate: spec.TargetDueDate,

		OverflowBehavior: models.OverflowBehavior(spec.OverflowBehavior),
		ResetBehavior:    models.ResetBehavior(spec.ResetBehavior),
		RecurringPeriod:  models.RecurringPeriod(spec.RecurringPeriod),

		AutoAllocate:          spec.AutoAllocate,
		AutoAllocateAmount:    autoAmount,
		AutoAllocateFrequency: models.Frequency(spec.AutoAllocateFrequency),
		AutoAllocateStartDate: spec.AutoAllocateStartDate,
	})
	if err != nil {
		return err
	}

	initial, err := amountOrZero(spec.InitialAmount)
	if err != nil {
		return err
	}
	if initial.IsPositive() {
		if _, err := eng.Allocate(ctx, stack.ID, initial, ""); err != nil {
			return err
		}
	}
	return nil
}

func amountOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return models.ParseAmount(s)
}
