package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func splitEqual() split.Request {
	return split.Request{Mode: split.ModeEqual}
}

func validInput(payer uuid.UUID) ExpenseInput {
	return ExpenseInput{
		Title:    "Dinner",
		Amount:   dec("100"),
		Currency: "USD",
		FxToBase: dec("1"),
		Date:     "2025-03-14",
		PaidBy:   payer,
		Split:    splitEqual(),
	}
}

func TestNewExpenseValidation(t *testing.T) {
	payer := uuid.New()
	ids := []uuid.UUID{payer, uuid.New()}

	tests := []struct {
		name   string
		modify func(*ExpenseInput)
		want   error
	}{
		{"blank title", func(in *ExpenseInput) { in.Title = "   " }, ErrEmptyTitle},
		{"zero amount", func(in *ExpenseInput) { in.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(in *ExpenseInput) { in.Amount = dec("-1") }, ErrInvalidAmount},
		{"zero rate", func(in *ExpenseInput) { in.FxToBase = decimal.Zero }, ErrInvalidRate},
		{"unknown currency", func(in *ExpenseInput) { in.Currency = "GBP" }, ErrUnsupportedCurrency},
		{"bad date", func(in *ExpenseInput) { in.Date = "14/03/2025" }, ErrInvalidDate},
		{"missing date", func(in *ExpenseInput) { in.Date = "" }, ErrInvalidDate},
		{"rounds to nothing", func(in *ExpenseInput) { in.Amount, in.FxToBase = dec("0.01"), dec("0.1") }, ErrInvalidAmount},
		{"sub-cent amount", func(in *ExpenseInput) { in.Amount = dec("10.005") }, ErrAmountPrecision},
		{"rate beyond 8 places", func(in *ExpenseInput) { in.FxToBase = dec("1.123456789") }, ErrRatePrecision},
		{"amount too large", func(in *ExpenseInput) { in.Amount = dec("1000000000000") }, ErrAmountTooLarge},
		{"base amount too large", func(in *ExpenseInput) { in.Amount, in.FxToBase = dec("999999999999.99"), dec("2") }, ErrAmountTooLarge},
		{"rate too large", func(in *ExpenseInput) { in.FxToBase = dec("10000000000") }, ErrRateTooLarge},
		{"huge amount", func(in *ExpenseInput) { in.Amount = dec("100000000000000000") }, ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(payer)
			tt.modify(&in)
			_, _, err := NewExpense(uuid.New(), in, "", ids)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v is not a validation error", err)
			}
		})
	}
}

func TestNewExpenseNoMembersIsValidationError(t *testing.T) {
	_, _, err := NewExpense(uuid.New(), validInput(uuid.New()), "", nil)
	if !errors.Is(err, ErrValidation) || !errors.Is(err, split.ErrNoMembers) {
		t.Fatalf("err = %v, want validation error wrapping ErrNoMembers", err)
	}
}

func TestNewExpenseNormalizes(t *testing.T) {
	payer := uuid.New()
	ids := []uuid.UUID{payer, uuid.New(), uuid.New()}
	category := uuid.New()
	in := ExpenseInput{
		Title:      "  Ramen  ",
		Amount:     dec("1234"),
		Currency:   " jpy",
		FxToBase:   dec("0.0091"),
		Date:       "2025-01-02",
		PaidBy:     payer,
		CategoryID: &category,
		Note:       "  late night ",
		Split:      splitEqual(),
	}

	expense, warning, err := NewExpense(uuid.New(), in, "Food & Drinks", ids)
	if err != nil {
		t.Fatal(err)
	}
	if warning != nil {
		t.Errorf("unexpected warning: %v", warning)
	}
	if expense.Title != "Ramen" || expense.Currency != "JPY" || expense.Note != "late night" {
		t.Errorf("got title %q currency %q note %q", expense.Title, expense.Currency, expense.Note)
	}
	// 1234 * 0.0091 = 11.2294
	if !expense.AmountInBase.Equal(dec("11.23")) {
		t.Errorf("amount in base = %s, want 11.23", expense.AmountInBase)
	}
	if !expense.SharesTotal().Equal(expense.AmountInBase) {
		t.Errorf("shares add up to %s, want %s", expense.SharesTotal(), expense.AmountInBase)
	}
	if expense.CategoryName != "Food & Drinks" {
		t.Errorf("category name = %q", expense.CategoryName)
	}
	if !expense.Date.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %s", expense.Date)
	}
	for _, s := range expense.Shares {
		if s.ExpenseID != expense.ID {
			t.Fatalf("share tagged with %s, want %s", s.ExpenseID, expense.ID)
		}
	}
}

func TestNewExpenseAmountInBaseRoundsHalfToEven(t *testing.T) {
	payer := uuid.New()
	in := validInput(payer)
	in.Amount = dec("2.5")
	in.FxToBase = dec("0.01")

	expense, _, err := NewExpense(uuid.New(), in, "", []uuid.UUID{payer})
	if err != nil {
		t.Fatal(err)
	}
	// 0.025 rounds to 0.02, not 0.03
	if !expense.AmountInBase.Equal(dec("0.02")) {
		t.Errorf("amount in base = %s, want 0.02", expense.AmountInBase)
	}
}

func TestNewExpenseAcceptsStorableExtremes(t *testing.T) {
	payer := uuid.New()
	in := validInput(payer)
	in.Amount = dec("999999999999.990")
	in.FxToBase = dec("1.00000000")

	expense, _, err := NewExpense(uuid.New(), in, "", []uuid.UUID{payer, uuid.New(), uuid.New()})
	if err != nil {
		t.Fatal(err)
	}
	if !expense.AmountInBase.Equal(dec("999999999999.99")) {
		t.Errorf("amount in base = %s", expense.AmountInBase)
	}
	if !expense.SharesTotal().Equal(expense.AmountInBase) {
		t.Errorf("shares add up to %s", expense.SharesTotal())
	}
	// the stored amount and rate reproduce the stored base amount
	if !split.Round2(expense.Amount.Round(2).Mul(expense.FxToBase.Round(8))).Equal(expense.AmountInBase) {
		t.Error("stored columns do not reproduce amount in base")
	}
}

func TestNewExpenseReportsFallback(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()
	in := validInput(payer)
	in.Split = split.Request{
		Mode:           split.ModeManual,
		ManualByMember: map[uuid.UUID]decimal.Decimal{payer: dec("80"), other: dec("5")},
	}

	expense, warning, err := NewExpense(uuid.New(), in, "", []uuid.UUID{payer, other})
	if err != nil {
		t.Fatal(err)
	}
	if warning == nil || warning.Requested != split.ModeManual {
		t.Fatalf("warning = %v, want manual fallback", warning)
	}
	if expense.SplitMode != split.ModeEqual {
		t.Errorf("split mode = %s, want EQUAL", expense.SplitMode)
	}
	if !expense.SharesTotal().Equal(dec("100")) {
		t.Errorf("shares add up to %s", expense.SharesTotal())
	}
}

func TestReplaceExpenseKeepsIdentity(t *testing.T) {
	payer := uuid.New()
	ids := []uuid.UUID{payer, uuid.New()}
	original, _, err := NewExpense(uuid.New(), validInput(payer), "", ids)
	if err != nil {
		t.Fatal(err)
	}

	in := validInput(payer)
	in.Amount = dec("50")
	in.FxToBase = dec("1.35")
	in.Currency = "SGD"
	replaced, _, err := ReplaceExpense(*original, in, "", ids)
	if err != nil {
		t.Fatal(err)
	}

	if replaced.ID != original.ID || replaced.GroupID != original.GroupID || !replaced.CreatedAt.Equal(original.CreatedAt) {
		t.Error("replacement changed the expense identity")
	}
	if !replaced.AmountInBase.Equal(dec("67.5")) {
		t.Errorf("amount in base = %s, want 67.50", replaced.AmountInBase)
	}
	if !replaced.SharesTotal().Equal(replaced.AmountInBase) {
		t.Errorf("shares add up to %s", replaced.SharesTotal())
	}
	for _, s := range replaced.Shares {
		if s.ExpenseID != original.ID {
			t.Fatalf("share tagged with %s", s.ExpenseID)
		}
	}
}
