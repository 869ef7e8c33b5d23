package ledger

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PersonalExpense is an expense that belongs to one user and no group. It is
// never split and never takes part in balances.
type PersonalExpense struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	FxToBase     decimal.Decimal `json:"fx_to_base"`
	AmountInBase decimal.Decimal `json:"amount_in_base"`
	Date         time.Time       `json:"date"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Note         string          `json:"note,omitempty"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type PersonalExpenseInput struct {
	Title      string
	Amount     decimal.Decimal
	Currency   string
	FxToBase   decimal.Decimal
	Date       string
	CategoryID *uuid.UUID
	Note       string
	PhotoURL   string
}

func normalizePhotoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidPhotoURL
	}
	return u.String(), nil
}

func NewPersonalExpense(userID uuid.UUID, in PersonalExpenseInput, categoryName string) (*PersonalExpense, error) {
	now := time.Now().UTC()
	expense := &PersonalExpense{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := expense.apply(in, categoryName); err != nil {
		return nil, err
	}
	return expense, nil
}

// ReplacePersonalExpense keeps identity, owner and creation time and replaces
// the rest. An empty PhotoURL removes the photo.
func ReplacePersonalExpense(existing PersonalExpense, in PersonalExpenseInput, categoryName string) (*PersonalExpense, error) {
	expense := &PersonalExpense{
		ID:        existing.ID,
		UserID:    existing.UserID,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := expense.apply(in, categoryName); err != nil {
		return nil, err
	}
	return expense, nil
}

func (e *PersonalExpense) apply(in PersonalExpenseInput, categoryName string) error {
	f, err := validateFields(in.Title, in.Amount, in.Currency, in.FxToBase, in.Date, in.Note)
	if err != nil {
		return err
	}
	photo, err := normalizePhotoURL(in.PhotoURL)
	if err != nil {
		return err
	}

	e.Title = f.title
	e.Amount = f.amount
	e.Currency = f.currency
	e.FxToBase = f.fxToBase
	e.AmountInBase = f.amountInBase
	e.Date = f.date
	e.CategoryID = in.CategoryID
	e.CategoryName = categoryName
	if in.CategoryID == nil {
		e.CategoryName = ""
	}
	e.Note = f.note
	e.PhotoURL = photo
	return nil
}
