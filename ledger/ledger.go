package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of permissions a member holds in a group.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManageGroup reports whether the role may rename the group or add members.
func (r Role) CanManageGroup() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleMember:
		return false
	}
	return false
}

// SupportedCurrencies are the currency codes an expense or group may use.
var SupportedCurrencies = []string{"SGD", "CNY", "HKD", "MOP", "MYR", "JPY", "USD", "EUR"}

func NormalizeCurrency(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, slices.Contains(SupportedCurrencies, code)
}

type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"base_currency"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Membership struct {
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a participant of a group as seen by the split engine.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type Expense struct {
	ID           uuid.UUID       `json:"id"`
	GroupID      uuid.UUID       `json:"group_id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	FxToBase     decimal.Decimal `json:"fx_to_base"`
	AmountInBase decimal.Decimal `json:"amount_in_base"`
	PaidBy       uuid.UUID       `json:"paid_by"`
	Date         time.Time       `json:"date"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	// CategoryName is copied when the expense is written so it survives
	// category renames and deletes.
	CategoryName string     `json:"category_name,omitempty"`
	Note         string     `json:"note,omitempty"`
	SplitMode    split.Mode `json:"split_mode"`
	Shares       []Share    `json:"shares"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Share is one member's portion of an expense's AmountInBase.
type Share struct {
	ExpenseID uuid.UUID       `json:"expense_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (e Expense) SharesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range e.Shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func NewGroup(name string, currency string, createdBy uuid.UUID) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}

	currency, ok := NormalizeCurrency(currency)
	if !ok {
		return Group{}, ErrUnsupportedCurrency
	}

	return Group{
		ID:        uuid.New(),
		Name:      name,
		Currency:  currency,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func memberIDs(members []Member) []uuid.UUID {
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids
}
