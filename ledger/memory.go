package ledger

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. A single mutex serialises every
// operation, which makes each write atomic and each read a consistent
// snapshot. It also acts as a Directory over the people registered with
// AddPerson.
type MemoryStore struct {
	mu          sync.RWMutex
	groups      map[uuid.UUID]Group
	memberships map[uuid.UUID][]Membership
	people      map[uuid.UUID]Person
	expenses    map[uuid.UUID]Expense
	order       []uuid.UUID
	personal    map[uuid.UUID]PersonalExpense
	categories  map[uuid.UUID]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:      make(map[uuid.UUID]Group),
		memberships: make(map[uuid.UUID][]Membership),
		people:      make(map[uuid.UUID]Person),
		expenses:    make(map[uuid.UUID]Expense),
		personal:    make(map[uuid.UUID]PersonalExpense),
		categories:  make(map[uuid.UUID]string),
	}
}

func (m *MemoryStore) AddPerson(p Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Email = strings.ToLower(p.Email)
	m.people[p.ID] = p
}

func (m *MemoryStore) SetCategory(id uuid.UUID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[id] = name
}

func (m *MemoryStore) DeleteCategory(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
}

// ShareCount counts the stored shares of an expense.
func (m *MemoryStore) ShareCount(expenseID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.expenses[expenseID].Shares)
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, p := range m.people {
		if p.Email == email {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateGroup(ctx context.Context, group Group, admin Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	m.memberships[group.ID] = []Membership{admin}
	return nil
}

func (m *MemoryStore) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[groupID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *MemoryStore) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var groups []Group
	for groupID, ms := range m.memberships {
		if slices.ContainsFunc(ms, func(x Membership) bool { return x.UserID == userID }) {
			groups = append(groups, m.groups[groupID])
		}
	}
	slices.SortFunc(groups, func(a, b Group) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return groups, nil
}

func (m *MemoryStore) UpdateGroupName(ctx context.Context, groupID uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	g.Name = name
	m.groups[groupID] = g
	return nil
}

func (m *MemoryStore) ListMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms := m.memberships[groupID]
	members := make([]Member, 0, len(ms))
	for _, x := range ms {
		p := m.people[x.UserID]
		members = append(members, Member{
			UserID:   x.UserID,
			Name:     p.Name,
			Email:    p.Email,
			Role:     x.Role,
			JoinedAt: x.JoinedAt,
		})
	}
	return members, nil
}

func (m *MemoryStore) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, x := range m.memberships[groupID] {
		if x.UserID == userID {
			found := x
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateMembership(ctx context.Context, membership Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := m.memberships[membership.GroupID]
	if slices.ContainsFunc(ms, func(x Membership) bool { return x.UserID == membership.UserID }) {
		return nil
	}
	m.memberships[membership.GroupID] = append(ms, membership)
	return nil
}

func cloneExpense(e Expense) Expense {
	e.Shares = slices.Clone(e.Shares)
	return e
}

func (m *MemoryStore) CreateExpenseWithShares(ctx context.Context, expense Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[expense.ID] = cloneExpense(expense)
	m.order = append(m.order, expense.ID)
	return nil
}

func (m *MemoryStore) ReplaceSharesForExpense(ctx context.Context, expense Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[expense.ID]
	if !ok || existing.GroupID != expense.GroupID {
		return ErrExpenseNotFound
	}
	m.expenses[expense.ID] = cloneExpense(expense)
	return nil
}

func (m *MemoryStore) DeleteExpenseAndShares(ctx context.Context, groupID, expenseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[expenseID]
	if !ok || existing.GroupID != groupID {
		return ErrExpenseNotFound
	}
	delete(m.expenses, expenseID)
	m.order = slices.DeleteFunc(m.order, func(id uuid.UUID) bool { return id == expenseID })
	return nil
}

func (m *MemoryStore) GetExpense(ctx context.Context, groupID, expenseID uuid.UUID) (*Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.expenses[expenseID]
	if !ok || e.GroupID != groupID {
		return nil, nil
	}
	e = cloneExpense(e)
	return &e, nil
}

func (m *MemoryStore) ListExpensesWithShares(ctx context.Context, groupID uuid.UUID) ([]Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expenses []Expense
	for _, id := range m.order {
		e := m.expenses[id]
		if e.GroupID == groupID {
			expenses = append(expenses, cloneExpense(e))
		}
	}
	return expenses, nil
}

func (m *MemoryStore) CreatePersonalExpense(ctx context.Context, expense PersonalExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.personal[expense.ID] = expense
	return nil
}

func (m *MemoryStore) UpdatePersonalExpense(ctx context.Context, expense PersonalExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.personal[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return ErrExpenseNotFound
	}
	m.personal[expense.ID] = expense
	return nil
}

func (m *MemoryStore) DeletePersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.personal[expenseID]
	if !ok || existing.UserID != userID {
		return ErrExpenseNotFound
	}
	delete(m.personal, expenseID)
	return nil
}

func (m *MemoryStore) GetPersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) (*PersonalExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.personal[expenseID]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryStore) ListPersonalExpenses(ctx context.Context, userID uuid.UUID) ([]PersonalExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expenses []PersonalExpense
	for _, e := range m.personal {
		if e.UserID == userID {
			expenses = append(expenses, e)
		}
	}
	slices.SortFunc(expenses, func(a, b PersonalExpense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return expenses, nil
}

func (m *MemoryStore) CategoryName(ctx context.Context, categoryID uuid.UUID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.categories[categoryID], nil
}

// Compile-time checks.
var (
	_ Store     = (*MemoryStore)(nil)
	_ Directory = (*MemoryStore)(nil)
)
