package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacknest/internal/allocator"
	"stacknest/internal/completion"
	"stacknest/internal/logging"
	"stacknest/internal/models"
	"stacknest/internal/store"
)

type fixture struct {
	store     *store.MemoryStore
	acct      *models.Account
	scheduler *Scheduler
	logger    *logging.MockLogger
	now       time.Time
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

	logger := &logging.MockLogger{}
	alloc := allocator.New(logger)
	comp := completion.New(s, logger, completion.NewLogNotifier(logger))
	return &fixture{
		store:     s,
		acct:      acct,
		scheduler: New(s, alloc, comp, logger),
		logger:    logger,
		now:       time.Date(2024, time.June, 1, 6, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) addDueStack(t *testing.T, name string, priority int, amount int64, mutate func(*models.Stack)) *models.Stack {
	t.Helper()
	st := &models.Stack{
		ID:                    uuid.New(),
		AccountID:             f.acct.ID,
		Name:                  name,
		Priority:              priority,
		IsActive:              true,
		AutoAllocate:          true,
		AutoAllocateAmount:    decimal.NewFromInt(amount),
		AutoAllocateFrequency: models.FrequencyWeekly,
		AutoAllocateStartDate: f.now.AddDate(0, -1, 0),
		AutoAllocateNextDate:  f.now.Add(-time.Hour),
		OverflowBehavior:      models.OverflowKeepInStack,
		ResetBehavior:         models.ResetNone,
	}
	if mutate != nil {
		mutate(st)
	}
	require.NoError(t, f.store.CreateStack(st))
	return st
}

func (f *fixture) run(t *testing.T) Result {
	t.Helper()
	res, err := f.scheduler.RunDueAllocations(context.Background(), f.now)
	require.NoError(t, err)
	return res
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Stack {
	t.Helper()
	st, err := f.store.StackByID(id)
	require.NoError(t, err)
	return st
}

func (f *fixture) available(t *testing.T) decimal.Decimal {
	t.Helper()
	a, err := f.store.AccountByID(f.acct.ID)
	require.NoError(t, err)
	return a.AvailableBalance
}

func TestRunDueAllocations_FundsDueStacks(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addDueStack(t, "Vacation", 0, 50, nil)

	res := f.run(t)
	assert.Equal(t, 1, res.ProcessedCount)
	assert.Equal(t, f.now, res.Timestamp)

	got := f.reload(t, st.ID)
	assert.True(t, got.CurrentAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, got.AutoAllocateNextDate.After(f.now), "schedule advanced")
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(950)))

	txs, err := f.store.TransactionsByStack(st.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsVirtual)
}

func TestRunDueAllocations_SkipsNotDue(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addDueStack(t, "Vacation", 0, 50, func(s *models.Stack) {
		s.AutoAllocateNextDate = f.now.Add(24 * time.Hour)
	})

	res := f.run(t)
	assert.Equal(t, 0, res.ProcessedCount)
	assert.True(t, f.reload(t, st.ID).CurrentAmount.IsZero())
}

func TestRunDueAllocations_InsufficientFundsAdvancesSchedule(t *testing.T) {
	f := newFixture(t, 30)
	st := f.addDueStack(t, "Vacation", 0, 50, nil)

	res := f.run(t)
	assert.Equal(t, 0, res.ProcessedCount, "a skipped cycle is not an allocation")

	got := f.reload(t, st.ID)
	assert.True(t, got.CurrentAmount.IsZero())
	assert.True(t, got.AutoAllocateNextDate.After(f.now), "schedule still moves forward")
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(30)))

	txs, err := f.store.TransactionsByStack(st.ID)
	require.NoError(t, err)
	assert.Empty(t, txs, "missed cycle leaves no ledger entry")
}

func TestRunDueAllocations_ZeroAmountWarnsAndSkips(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addDueStack(t, "Vacation", 0, 0, nil)

	res := f.run(t)
	assert.Equal(t, 0, res.ProcessedCount)
	assert.True(t, f.reload(t, st.ID).CurrentAmount.IsZero())
	assert.NotEmpty(t, f.logger.MessagesAtLevel("WARN"))
}

func TestRunDueAllocations_PriorityOrderAndOverflow(t *testing.T) {
	f := newFixture(t, 1000)
	a := f.addDueStack(t, "Rent", 0, 20, func(s *models.Stack) {
		s.TargetAmount = decimal.NewFromInt(100)
		s.CurrentAmount = decimal.NewFromInt(90)
		s.OverflowBehavior = models.OverflowNextPriority
	})
	b := f.addDueStack(t, "Car", 1, 30, func(s *models.Stack) {
		s.TargetAmount = decimal.NewFromInt(200)
	})

	res := f.run(t)
	assert.Equal(t, 2, res.ProcessedCount)

	// A fills to target, its overflow lands on B before B's own funding.
	gotA := f.reload(t, a.ID)
	assert.True(t, gotA.CurrentAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, gotA.IsCompleted, "completion check runs after funding")

	gotB := f.reload(t, b.ID)
	assert.True(t, gotB.CurrentAmount.Equal(decimal.NewFromInt(40)), "10 overflow plus own 30")

	assert.True(t, f.available(t).Equal(decimal.NewFromInt(950)))
}

func TestRunDueAllocations_AutoResetSweepRunsAfterPass(t *testing.T) {
	f := newFixture(t, 1000)
	st := f.addDueStack(t, "Electric Bill", 0, 50, func(s *models.Stack) {
		s.TargetAmount = decimal.NewFromInt(50)
		s.ResetBehavior = models.ResetAuto
		s.RecurringPeriod = models.PeriodMonthly
	})

	res := f.run(t)
	assert.Equal(t, 1, res.ProcessedCount)

	// Funded to target, completed, then swept: funds returned and re-armed.
	got := f.reload(t, st.ID)
	assert.False(t, got.IsCompleted)
	assert.True(t, got.CurrentAmount.IsZero())
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(1000)))
}

func TestRunDueAllocations_FaultIsolation(t *testing.T) {
	f := newFixture(t, 1000)
	broken := f.addDueStack(t, "Broken", 0, 50, func(s *models.Stack) {
		s.AutoAllocateFrequency = models.Frequency("bogus")
	})
	healthy := f.addDueStack(t, "Healthy", 1, 40, nil)

	res := f.run(t)
	assert.Equal(t, 1, res.ProcessedCount, "one stack's failure must not abort the batch")

	// The broken stack's unit of work rolled back wholesale.
	gotBroken := f.reload(t, broken.ID)
	assert.True(t, gotBroken.CurrentAmount.IsZero())
	txs, err := f.store.TransactionsByStack(broken.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	gotHealthy := f.reload(t, healthy.ID)
	assert.True(t, gotHealthy.CurrentAmount.Equal(decimal.NewFromInt(40)))
	assert.True(t, f.available(t).Equal(decimal.NewFromInt(960)))
	assert.NotEmpty(t, f.logger.MessagesAtLevel("ERROR"))
}
