package allocator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacknest/internal/engineerror"
	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/store"
)

type fixture struct {
	store *store.MemoryStore
	acct  *models.Account
	alloc *Allocator
	now   time.Time
}

func newFixture(t *testing.T, available int64) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	acct := &models.Account{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		Name:             "Checking",
		Currency:         "USD",
		Balance:          decimal.NewFromInt(available),
		AvailableBalance: decimal.NewFromInt(available),
	}
	require.NoError(t, s.CreateAccount(acct))
	return &fixture{
		store: s,
		acct:  acct,
		alloc: New(&logging.MockLogger{}),
		now:   time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) addStack(t *testing.T, name string, priority int, target, current int64, behavior models.OverflowBehavior) *models.Stack {
	t.Helper()
	st := &models.Stack{
		ID:               uuid.New(),
		AccountID:        f.acct.ID,
		Name:             name,
		Priority:         priority,
		IsActive:         true,
		TargetAmount:     decimal.NewFromInt(target),
		CurrentAmount:    decimal.NewFromInt(current),
		OverflowBehavior: behavior,
	}
	require.NoError(t, f.store.CreateStack(st))
	return st
}

func (f *fixture) allocate(t *testing.T, stackID uuid.UUID, amount int64, override models.OverflowBehavior) (Result, error) {
	t.Helper()
	var res Result
	err := f.store.Atomically(context.Background(), f.acct.ID, func(uow store.UnitOfWork) error {
		var err error
		res, err = f.alloc.Allocate(uow, stackID, decimal.NewFromInt(amount), override, f.now)
		return err
	})
	return res, err
}

func (f *fixture) available(t *testing.T) decimal.Decimal {
	t.Helper()
	a, err := f.store.AccountByID(f.acct.ID)
	require.NoError(t, err)
	return a.AvailableBalance
}

func (f *fixture) current(t *testing.T, stackID uuid.UUID) decimal.Decimal {
	t.Helper()
	s, err := f.store.StackByID(stackID)
	require.NoError(t, err)
	return s.CurrentAmount
}

func TestAllocate_FullAmountFits(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Vacation", 0, 500, 100, models.OverflowKeepInStack)

	res, err := f.allocate(t, st.ID, 200, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(200)))
	assert.True(t, res.Overflow.IsZero())
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(300)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(800)))

	txs, err := f.store.TransactionsByStack(st.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsVirtual)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-200)))
}

func TestAllocate_NoTargetHasNoCeiling(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Rainy Day", 0, 0, 0, models.OverflowNextPriority)

	res, err := f.allocate(t, st.ID, 750, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(750)))
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(750)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(250)))
}

func TestAllocate_NextPriorityOverflow(t *testing.T) {
	f := newFixture(t, 1000)
	a := f.addStack(t, "Rent", 0, 100, 90, models.OverflowNextPriority)
	b := f.addStack(t, "Car", 1, 200, 0, models.OverflowKeepInStack)

	res, err := f.allocate(t, a.ID, 20, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(10)))
	assert.True(t, res.Overflow.Equal(decimal.NewFromInt(10)))

	assert.True(t, f.current(t, a.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.current(t, b.ID).Equal(decimal.NewFromInt(10)))
	// Available balance drops by the full original amount.
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(980)))

	txsA, err := f.store.TransactionsByStack(a.ID)
	require.NoError(t, err)
	assert.Len(t, txsA, 1)
	txsB, err := f.store.TransactionsByStack(b.ID)
	require.NoError(t, err)
	assert.Len(t, txsB, 1)
}

func TestAllocate_NextPriorityOverflowIsUncappedOneHop(t *testing.T) {
	f := newFixture(t, 1000)
	a := f.addStack(t, "Rent", 0, 100, 90, models.OverflowNextPriority)
	// B's own target would also overflow, but the cascade never recurses.
	b := f.addStack(t, "Car", 1, 15, 10, models.OverflowNextPriority)
	c := f.addStack(t, "Gifts", 2, 500, 0, models.OverflowKeepInStack)

	_, err := f.allocate(t, a.ID, 50, "")
	require.NoError(t, err)

	assert.True(t, f.current(t, a.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.current(t, b.ID).Equal(decimal.NewFromInt(50)), "receiving stack takes the overflow uncapped")
	assert.True(t, f.current(t, c.ID).IsZero(), "second-order overflow must not cascade")
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(950)))
}

func TestAllocate_NextPriorityWithoutLowerStackKeepsFunds(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Solo", 0, 100, 90, models.OverflowNextPriority)

	res, err := f.allocate(t, st.ID, 20, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(20)))
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(110)), "falls back to keep-in-stack")
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(980)))
}

func TestAllocate_AvailableBalanceOverflow(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Bills", 0, 100, 90, models.OverflowAvailableBalance)

	res, err := f.allocate(t, st.ID, 30, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(10)))
	assert.True(t, res.Overflow.Equal(decimal.NewFromInt(20)))

	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(100)))
	// Only the room leaves the available balance.
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(990)))

	txs, err := f.store.TransactionsByStack(st.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-10)))
}

func TestAllocate_KeepInStackExceedsTarget(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Laptop", 0, 75, 70, models.OverflowKeepInStack)

	res, err := f.allocate(t, st.ID, 25, "")
	require.NoError(t, err)
	assert.True(t, res.Allocated.Equal(decimal.NewFromInt(25)))
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(95)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(975)))
}

func TestAllocate_BehaviorOverride(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Bills", 0, 100, 90, models.OverflowAvailableBalance)
	f.addStack(t, "Backup", 1, 0, 0, models.OverflowKeepInStack)

	_, err := f.allocate(t, st.ID, 30, models.OverflowKeepInStack)
	require.NoError(t, err)
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(120)), "override wins over the configured behavior")
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(970)))
}

func TestAllocate_Errors(t *testing.T) {
	f := newFixture(t, 50)
	st := f.addStack(t, "Vacation", 0, 500, 0, models.OverflowKeepInStack)

	_, err := f.allocate(t, st.ID, 0, "")
	assert.True(t, engineerror.IsInvalidAmount(err))

	_, err = f.allocate(t, st.ID, -10, "")
	assert.True(t, engineerror.IsInvalidAmount(err))

	_, err = f.allocate(t, st.ID, 100, "")
	assert.True(t, engineerror.IsInsufficientFunds(err))

	_, err = f.allocate(t, uuid.New(), 10, "")
	assert.True(t, engineerror.IsNotFound(err))

	inactive := f.addStack(t, "Paused", 1, 100, 0, models.OverflowKeepInStack)
	err = f.store.Atomically(context.Background(), f.acct.ID, func(uow store.UnitOfWork) error {
		s, err := uow.Stack(inactive.ID)
		if err != nil {
			return err
		}
		s.IsActive = false
		uow.SaveStack(s)
		return nil
	})
	require.NoError(t, err)
	_, err = f.allocate(t, inactive.ID, 10, "")
	assert.True(t, engineerror.IsPolicyViolation(err))
}

func TestDeallocate(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Vacation", 0, 500, 0, models.OverflowKeepInStack)
	_, err := f.allocate(t, st.ID, 300, "")
	require.NoError(t, err)

	err = f.store.Atomically(context.Background(), f.acct.ID, func(uow store.UnitOfWork) error {
		return f.alloc.Deallocate(uow, st.ID, decimal.NewFromInt(120), f.now)
	})
	require.NoError(t, err)

	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(180)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(820)))

	txs, err := f.store.TransactionsByStack(st.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	var positive int
	for _, tx := range txs {
		require.True(t, tx.IsVirtual)
		if tx.Amount.IsPositive() {
			positive++
			assert.True(t, tx.Amount.Equal(decimal.NewFromInt(120)))
		}
	}
	assert.Equal(t, 1, positive)
}

func TestDeallocate_Errors(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addStack(t, "Vacation", 0, 500, 0, models.OverflowKeepInStack)
	_, err := f.allocate(t, st.ID, 100, "")
	require.NoError(t, err)

	err = f.store.Atomically(context.Background(), f.acct.ID, func(uow store.UnitOfWork) error {
		return f.alloc.Deallocate(uow, st.ID, decimal.NewFromInt(200), f.now)
	})
	assert.True(t, engineerror.IsInsufficientFunds(err))

	err = f.store.Atomically(context.Background(), f.acct.ID, func(uow store.UnitOfWork) error {
		return f.alloc.Deallocate(uow, st.ID, decimal.Zero, f.now)
	})
	assert.True(t, engineerror.IsInvalidAmount(err))

	// Failed deallocations must leave state untouched.
	assert.True(t, f.current(t, st.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(900)))
}
