package ledger

import (
	"time"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/split"
	"github.com/shopspring/decimal"
)

const (
	EventGroupCreated   = "group.created"
	EventGroupRenamed   = "group.renamed"
	EventMemberAdded    = "group.member_added"
	EventExpenseAdded   = "expense.added"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
	EventSplitFallback  = "split.fallback"

	EventPersonalExpenseAdded   = "personal_expense.added"
	EventPersonalExpenseUpdated = "personal_expense.updated"
	EventPersonalExpenseDeleted = "personal_expense.deleted"
)

// EventSink receives domain events. eventlogger.Worker is the usual one.
type EventSink interface {
	Log(e eventlogger.Event)
}

type discardSink struct{}

func (discardSink) Log(eventlogger.Event) {}

type GroupCreatedEvent struct {
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupRenamedEvent struct {
	Name string `json:"name"`
}

type MemberAddedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type ExpenseRecordedEvent struct {
	ExpenseID    string          `json:"expense_id"`
	PaidBy       string          `json:"paid_by"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	AmountInBase decimal.Decimal `json:"amount_in_base"`
	SplitMode    split.Mode      `json:"split_mode"`
	Shares       []Share         `json:"shares"`
}

type ExpenseDeletedEvent struct {
	ExpenseID string `json:"expense_id"`
}

type SplitFallbackEvent struct {
	ExpenseID string     `json:"expense_id"`
	Requested split.Mode `json:"requested"`
	Reason    string     `json:"reason"`
}

func recordedEvent(e *Expense) ExpenseRecordedEvent {
	return ExpenseRecordedEvent{
		ExpenseID:    e.ID.String(),
		PaidBy:       e.PaidBy.String(),
		Title:        e.Title,
		Amount:       e.Amount,
		Currency:     e.Currency,
		AmountInBase: e.AmountInBase,
		SplitMode:    e.SplitMode,
		Shares:       e.Shares,
	}
}

type PersonalExpenseEvent struct {
	ExpenseID    string          `json:"expense_id"`
	Title        string          `json:"title,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	AmountInBase decimal.Decimal `json:"amount_in_base"`
	HasPhoto     bool            `json:"has_photo"`
}

func personalEvent(e *PersonalExpense) PersonalExpenseEvent {
	return PersonalExpenseEvent{
		ExpenseID:    e.ID.String(),
		Title:        e.Title,
		Amount:       e.Amount,
		Currency:     e.Currency,
		AmountInBase: e.AmountInBase,
		HasPhoto:     e.PhotoURL != "",
	}
}
