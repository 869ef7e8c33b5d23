package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence collaborator of the service. Every write that
// touches an expense and its shares must be atomic: either all rows change or
// none do.
type Store interface {
	CreateGroup(ctx context.Context, group Group, admin Membership) error
	// GetGroup returns nil, nil when the group does not exist.
	GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error)
	ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]Group, error)
	UpdateGroupName(ctx context.Context, groupID uuid.UUID, name string) error

	// ListMembers returns members in the order they joined.
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error)
	// GetMembership returns nil, nil when userID is not in the group.
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*Membership, error)
	// CreateMembership does nothing if the membership already exists.
	CreateMembership(ctx context.Context, membership Membership) error

	CreateExpenseWithShares(ctx context.Context, expense Expense) error
	// ReplaceSharesForExpense overwrites the expense row and swaps all its
	// shares for expense.Shares.
	ReplaceSharesForExpense(ctx context.Context, expense Expense) error
	DeleteExpenseAndShares(ctx context.Context, groupID, expenseID uuid.UUID) error
	// GetExpense returns nil, nil when the expense is not in the group.
	GetExpense(ctx context.Context, groupID, expenseID uuid.UUID) (*Expense, error)
	// ListExpensesWithShares reads expenses and shares from one consistent
	// snapshot.
	ListExpensesWithShares(ctx context.Context, groupID uuid.UUID) ([]Expense, error)

	CreatePersonalExpense(ctx context.Context, expense PersonalExpense) error
	// UpdatePersonalExpense and DeletePersonalExpense return
	// ErrExpenseNotFound unless the expense belongs to the user.
	UpdatePersonalExpense(ctx context.Context, expense PersonalExpense) error
	DeletePersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) error
	// GetPersonalExpense returns nil, nil when the user has no such expense.
	GetPersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) (*PersonalExpense, error)
	// ListPersonalExpenses returns the newest expense first.
	ListPersonalExpenses(ctx context.Context, userID uuid.UUID) ([]PersonalExpense, error)

	// CategoryName returns "" when the category does not exist.
	CategoryName(ctx context.Context, categoryID uuid.UUID) (string, error)
}

// Person is a registered user that can be added to groups.
type Person struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Directory looks up registered users. FindByEmail returns nil, nil when
// nobody has that email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*Person, error)
}
