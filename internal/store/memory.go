package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stacknest/internal/engineerror"
	"stacknest/internal/models"
)

// MemoryStore is the in-memory reference implementation of Store. A
// global RWMutex guards the record maps; a per-account mutex serializes
// units of work so concurrent allocation against one account never
// observes a torn balance, while different accounts proceed in parallel.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*models.Account
	stacks       map[uuid.UUID]*models.Stack
	transactions map[uuid.UUID]*models.Transaction

	lockMu       sync.Mutex
	accountLocks map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[uuid.UUID]*models.Account),
		stacks:       make(map[uuid.UUID]*models.Stack),
		transactions: make(map[uuid.UUID]*models.Transaction),
		accountLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *MemoryStore) accountLock(id uuid.UUID) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.accountLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.accountLocks[id] = lock
	}
	return lock
}

// CreateAccount stores a new account.
func (m *MemoryStore) CreateAccount(a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; exists {
		return &engineerror.AlreadyProcessedError{Operation: "create account", Reason: "id already exists"}
	}
	m.accounts[a.ID] = a.Clone()
	return nil
}

// AccountByID returns the account with the given id.
func (m *MemoryStore) AccountByID(id uuid.UUID) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, &engineerror.NotFoundError{Kind: "account", ID: id.String()}
	}
	return a.Clone(), nil
}

// AccountsByOwner returns all accounts belonging to an owner.
func (m *MemoryStore) AccountsByOwner(ownerID uuid.UUID) ([]*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateStack stores a new stack for an existing account.
func (m *MemoryStore) CreateStack(s *models.Stack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[s.AccountID]; !ok {
		return &engineerror.NotFoundError{Kind: "account", ID: s.AccountID.String()}
	}
	if _, exists := m.stacks[s.ID]; exists {
		return &engineerror.AlreadyProcessedError{Operation: "create stack", Reason: "id already exists"}
	}
	m.stacks[s.ID] = s.Clone()
	return nil
}

// StackByID returns the stack with the given id.
func (m *MemoryStore) StackByID(id uuid.UUID) (*models.Stack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stacks[id]
	if !ok {
		return nil, &engineerror.NotFoundError{Kind: "stack", ID: id.String()}
	}
	return s.Clone(), nil
}

// StacksByAccount returns an account's stacks in ascending priority order.
func (m *MemoryStore) StacksByAccount(accountID uuid.UUID) ([]*models.Stack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Stack
	for _, s := range m.stacks {
		if s.AccountID == accountID {
			out = append(out, s.Clone())
		}
	}
	sortByPriority(out)
	return out, nil
}

// DueStacks returns every active auto-allocate stack due at or before now,
// in ascending priority order.
func (m *MemoryStore) DueStacks(now time.Time) ([]*models.Stack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Stack
	for _, s := range m.stacks {
		if s.IsActive && s.AutoAllocate && !s.AutoAllocateNextDate.IsZero() && !s.AutoAllocateNextDate.After(now) {
			out = append(out, s.Clone())
		}
	}
	sortByPriority(out)
	return out, nil
}

// CompletedStacks returns every active completed stack not awaiting a user
// reset decision.
func (m *MemoryStore) CompletedStacks() ([]*models.Stack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Stack
	for _, s := range m.stacks {
		if s.IsCompleted && s.IsActive && !s.PendingReset {
			out = append(out, s.Clone())
		}
	}
	sortByPriority(out)
	return out, nil
}

// PendingResets returns the owner's completed stacks awaiting a reset
// decision.
func (m *MemoryStore) PendingResets(ownerID uuid.UUID) ([]*models.Stack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Stack
	for _, s := range m.stacks {
		if !s.IsCompleted || !s.PendingReset {
			continue
		}
		if a, ok := m.accounts[s.AccountID]; ok && a.OwnerID == ownerID {
			out = append(out, s.Clone())
		}
	}
	sortByPriority(out)
	return out, nil
}

// TransactionByID returns the ledger entry with the given id.
func (m *MemoryStore) TransactionByID(id uuid.UUID) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, &engineerror.NotFoundError{Kind: "transaction", ID: id.String()}
	}
	return t.Clone(), nil
}

// PendingMatches returns the account's unresolved match suggestions, newest
// first.
func (m *MemoryStore) PendingMatches(accountID uuid.UUID) ([]*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID && t.HasSuggestion() && !t.MatchConfirmed && !t.MatchRejected {
			out = append(out, t.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// TransactionsByStack returns all ledger entries referencing a stack,
// newest first.
func (m *MemoryStore) TransactionsByStack(stackID uuid.UUID) ([]*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Transaction
	for _, t := range m.transactions {
		if t.StackID == stackID {
			out = append(out, t.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Atomically runs fn inside a unit of work serialized per account. Writes
// staged by fn commit only if fn returns nil.
func (m *MemoryStore) Atomically(ctx context.Context, accountID uuid.UUID, fn func(UnitOfWork) error) error {
	lock := m.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	_, ok := m.accounts[accountID]
	m.mu.RUnlock()
	if !ok {
		return &engineerror.NotFoundError{Kind: "account", ID: accountID.String()}
	}

	uow := &memoryUnitOfWork{
		store:         m,
		accountID:     accountID,
		accounts:      make(map[uuid.UUID]*models.Account),
		stacks:        make(map[uuid.UUID]*models.Stack),
		transactions:  make(map[uuid.UUID]*models.Transaction),
		deletedStacks: make(map[uuid.UUID]bool),
		deletedTxs:    make(map[uuid.UUID]bool),
	}
	if err := fn(uow); err != nil {
		return err
	}
	uow.commit()
	return nil
}

func sortByPriority(stacks []*models.Stack) {
	sort.Slice(stacks, func(i, j int) bool {
		if stacks[i].Priority != stacks[j].Priority {
			return stacks[i].Priority < stacks[j].Priority
		}
		return stacks[i].CreatedAt.Before(stacks[j].CreatedAt)
	})
}

func sortNewestFirst(txs []*models.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// memoryUnitOfWork stages writes against the live maps and applies them in
// one locked step on commit.
type memoryUnitOfWork struct {
	store     *MemoryStore
	accountID uuid.UUID

	accounts      map[uuid.UUID]*models.Account
	stacks        map[uuid.UUID]*models.Stack
	transactions  map[uuid.UUID]*models.Transaction
	deletedStacks map[uuid.UUID]bool
	deletedTxs    map[uuid.UUID]bool
}

func (u *memoryUnitOfWork) Account() (*models.Account, error) {
	if a, ok := u.accounts[u.accountID]; ok {
		return a.Clone(), nil
	}
	return u.store.AccountByID(u.accountID)
}

func (u *memoryUnitOfWork) SaveAccount(a *models.Account) {
	u.accounts[a.ID] = a.Clone()
}

func (u *memoryUnitOfWork) Stack(id uuid.UUID) (*models.Stack, error) {
	if u.deletedStacks[id] {
		return nil, &engineerror.NotFoundError{Kind: "stack", ID: id.String()}
	}
	if s, ok := u.stacks[id]; ok {
		return s.Clone(), nil
	}
	return u.store.StackByID(id)
}

func (u *memoryUnitOfWork) Stacks() ([]*models.Stack, error) {
	committed, err := u.store.StacksByAccount(u.accountID)
	if err != nil {
		return nil, err
	}
	merged := make(map[uuid.UUID]*models.Stack, len(committed))
	for _, s := range committed {
		merged[s.ID] = s
	}
	for id, s := range u.stacks {
		if s.AccountID == u.accountID {
			merged[id] = s.Clone()
		}
	}
	var out []*models.Stack
	for id, s := range merged {
		if !u.deletedStacks[id] {
			out = append(out, s)
		}
	}
	sortByPriority(out)
	return out, nil
}

func (u *memoryUnitOfWork) SaveStack(s *models.Stack) {
	delete(u.deletedStacks, s.ID)
	u.stacks[s.ID] = s.Clone()
}

func (u *memoryUnitOfWork) DeleteStack(id uuid.UUID) {
	delete(u.stacks, id)
	u.deletedStacks[id] = true
}

func (u *memoryUnitOfWork) Transaction(id uuid.UUID) (*models.Transaction, error) {
	if u.deletedTxs[id] {
		return nil, &engineerror.NotFoundError{Kind: "transaction", ID: id.String()}
	}
	if t, ok := u.transactions[id]; ok {
		return t.Clone(), nil
	}
	return u.store.TransactionByID(id)
}

func (u *memoryUnitOfWork) AppendTransaction(t *models.Transaction) {
	u.transactions[t.ID] = t.Clone()
}

func (u *memoryUnitOfWork) SaveTransaction(t *models.Transaction) {
	u.transactions[t.ID] = t.Clone()
}

func (u *memoryUnitOfWork) DeleteTransaction(id uuid.UUID) {
	delete(u.transactions, id)
	u.deletedTxs[id] = true
}

func (u *memoryUnitOfWork) RecentMatchableTransactions(limit int) ([]*models.Transaction, error) {
	u.store.mu.RLock()
	merged := make(map[uuid.UUID]*models.Transaction)
	for id, t := range u.store.transactions {
		if t.AccountID == u.accountID {
			merged[id] = t.Clone()
		}
	}
	u.store.mu.RUnlock()
	for id, t := range u.transactions {
		if t.AccountID == u.accountID {
			merged[id] = t.Clone()
		}
	}
	var out []*models.Transaction
	for id, t := range merged {
		if !u.deletedTxs[id] && t.Matchable() {
			out = append(out, t)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (u *memoryUnitOfWork) commit() {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for id := range u.deletedStacks {
		delete(u.store.stacks, id)
	}
	for id := range u.deletedTxs {
		delete(u.store.transactions, id)
	}
	for id, a := range u.accounts {
		u.store.accounts[id] = a
	}
	for id, s := range u.stacks {
		u.store.stacks[id] = s
	}
	for id, t := range u.transactions {
		u.store.transactions[id] = t
	}
}
