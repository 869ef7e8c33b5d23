package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ExpenseInput is a raw expense as submitted by a member. AmountInBase is
// always derived from Amount and FxToBase.
type ExpenseInput struct {
	Title    string
	Amount   decimal.Decimal
	Currency string
	// FxToBase is how many units of the group currency one unit of Currency is worth.
	FxToBase   decimal.Decimal
	Date       string
	PaidBy     uuid.UUID
	CategoryID *uuid.UUID
	Note       string
	Split      split.Request
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// NewExpense validates the input and splits its base amount between
// memberIDs. A non-nil warning means the requested split was replaced by an
// equal split.
func NewExpense(groupID uuid.UUID, in ExpenseInput, categoryName string, memberIDs []uuid.UUID) (*Expense, *split.FallbackWarning, error) {
	now := time.Now().UTC()
	expense := &Expense{
		ID:        uuid.New(),
		GroupID:   groupID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	warning, err := expense.apply(in, categoryName, memberIDs)
	if err != nil {
		return nil, nil, err
	}
	return expense, warning, nil
}

// ReplaceExpense builds the full replacement of existing. Identity and
// creation time are kept, everything else including the shares is recomputed.
func ReplaceExpense(existing Expense, in ExpenseInput, categoryName string, memberIDs []uuid.UUID) (*Expense, *split.FallbackWarning, error) {
	expense := &Expense{
		ID:        existing.ID,
		GroupID:   existing.GroupID,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	warning, err := expense.apply(in, categoryName, memberIDs)
	if err != nil {
		return nil, nil, err
	}
	return expense, warning, nil
}

// Amount columns are NUMERIC(14,2) and rates NUMERIC(18,8).
var (
	maxAmount = decimal.RequireFromString("999999999999.99")
	maxRate   = decimal.RequireFromString("9999999999.99999999")
)

const rateScale = 8

// expenseFields is the validated part shared by group and personal expenses.
type expenseFields struct {
	title        string
	amount       decimal.Decimal
	currency     string
	fxToBase     decimal.Decimal
	amountInBase decimal.Decimal
	date         time.Time
	note         string
}

// validateFields rejects anything that would not be stored exactly, so
// AmountInBase stays Round2(Amount * FxToBase) after a reload.
func validateFields(title string, amount decimal.Decimal, currency string, fxToBase decimal.Decimal, date string, note string) (expenseFields, error) {
	var f expenseFields

	f.title = strings.TrimSpace(title)
	if f.title == "" {
		return f, ErrEmptyTitle
	}

	if amount.Sign() <= 0 {
		return f, ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return f, ErrAmountPrecision
	}
	if amount.GreaterThan(maxAmount) {
		return f, ErrAmountTooLarge
	}

	if fxToBase.Sign() <= 0 {
		return f, ErrInvalidRate
	}
	if !fxToBase.Equal(fxToBase.Round(rateScale)) {
		return f, ErrRatePrecision
	}
	if fxToBase.GreaterThan(maxRate) {
		return f, ErrRateTooLarge
	}

	var ok bool
	f.currency, ok = NormalizeCurrency(currency)
	if !ok {
		return f, ErrUnsupportedCurrency
	}

	var err error
	f.date, err = parseDate(date)
	if err != nil {
		return f, err
	}

	f.amountInBase = split.Round2(amount.Mul(fxToBase))
	if f.amountInBase.Sign() <= 0 {
		return f, ErrInvalidAmount
	}
	if f.amountInBase.GreaterThan(maxAmount) {
		return f, ErrAmountTooLarge
	}

	f.amount = amount
	f.fxToBase = fxToBase
	f.note = strings.TrimSpace(note)
	return f, nil
}

func (e *Expense) apply(in ExpenseInput, categoryName string, memberIDs []uuid.UUID) (*split.FallbackWarning, error) {
	f, err := validateFields(in.Title, in.Amount, in.Currency, in.FxToBase, in.Date, in.Note)
	if err != nil {
		return nil, err
	}

	shares, result, err := CalculateShares(e.ID, f.amountInBase, in.Split, memberIDs)
	if err != nil {
		return nil, err
	}

	e.Title = f.title
	e.Amount = f.amount
	e.Currency = f.currency
	e.FxToBase = f.fxToBase
	e.AmountInBase = f.amountInBase
	e.PaidBy = in.PaidBy
	e.Date = f.date
	e.CategoryID = in.CategoryID
	e.CategoryName = categoryName
	if in.CategoryID == nil {
		e.CategoryName = ""
	}
	e.Note = f.note
	e.SplitMode = result.Mode
	e.Shares = shares

	return result.Fallback, nil
}

// CalculateShares runs the allocation for one expense and tags every share
// with the expense id.
func CalculateShares(expenseID uuid.UUID, amountInBase decimal.Decimal, req split.Request, memberIDs []uuid.UUID) ([]Share, split.Result, error) {
	result, err := split.Allocate(amountInBase, memberIDs, req)
	if err != nil {
		if errors.Is(err, split.ErrNoMembers) || errors.Is(err, split.ErrUnknownMode) ||
			errors.Is(err, split.ErrNonPositiveTotal) || errors.Is(err, split.ErrTotalTooLarge) {
			return nil, split.Result{}, invalid(err)
		}
		return nil, split.Result{}, err
	}

	shares := make([]Share, 0, len(result.Shares))
	for _, s := range result.Shares {
		shares = append(shares, Share{
			ExpenseID: expenseID,
			UserID:    s.MemberID,
			Amount:    s.Amount,
		})
	}
	return shares, result, nil
}
