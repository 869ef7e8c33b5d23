package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMembers(names ...string) []Member {
	members := make([]Member, len(names))
	for i, n := range names {
		members[i] = Member{UserID: uuid.New(), Name: n, Role: RoleMember}
	}
	return members
}

func shares(expenseID uuid.UUID, members []Member, amounts ...string) []Share {
	out := make([]Share, len(amounts))
	for i, a := range amounts {
		out[i] = Share{ExpenseID: expenseID, UserID: members[i].UserID, Amount: dec(a)}
	}
	return out
}

func netSum(s Summary) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range s.Balances {
		sum = sum.Add(b.Net)
	}
	return sum
}

func TestCalculateBalancesScenario(t *testing.T) {
	m := newMembers("A", "B", "C")
	e1 := uuid.New()
	e2 := uuid.New()
	expenses := []Expense{
		{ID: e1, AmountInBase: dec("90.00"), PaidBy: m[0].UserID, Shares: shares(e1, m, "30.00", "30.00", "30.00")},
		{ID: e2, AmountInBase: dec("10.00"), PaidBy: m[1].UserID, Shares: shares(e2, m, "5.00", "3.00", "2.00")},
	}

	summary := CalculateBalances(m, expenses)

	want := []struct {
		paid, owed, net string
		kind            StatusKind
		amount          string
	}{
		{"90", "35", "55", StatusShouldReceive, "55"},
		{"10", "33", "-23", StatusOwes, "23"},
		{"0", "32", "-32", StatusOwes, "32"},
	}
	for i, w := range want {
		b := summary.Balances[i]
		if b.Member.UserID != m[i].UserID {
			t.Fatalf("balance %d is for %s, want %s", i, b.Member.Name, m[i].Name)
		}
		if !b.Paid.Equal(dec(w.paid)) || !b.Owed.Equal(dec(w.owed)) || !b.Net.Equal(dec(w.net)) {
			t.Errorf("%s: paid/owed/net = %s/%s/%s, want %s/%s/%s", m[i].Name, b.Paid, b.Owed, b.Net, w.paid, w.owed, w.net)
		}
		if b.Status.Kind != w.kind || !b.Status.Amount.Equal(dec(w.amount)) {
			t.Errorf("%s: status = %s %s, want %s %s", m[i].Name, b.Status.Kind, b.Status.Amount, w.kind, w.amount)
		}
	}

	if !netSum(summary).IsZero() {
		t.Errorf("nets add up to %s, want 0", netSum(summary))
	}
	if !summary.TotalGroupAmount.Equal(dec("100")) {
		t.Errorf("total = %s, want 100", summary.TotalGroupAmount)
	}
	if !summary.FairSharePerPerson.Equal(dec("33.33")) {
		t.Errorf("fair share = %s, want 33.33", summary.FairSharePerPerson)
	}
}

func TestCalculateBalancesLegacyExpenseWithoutShares(t *testing.T) {
	m := newMembers("A", "B", "C")
	expenses := []Expense{
		{ID: uuid.New(), AmountInBase: dec("100.00"), PaidBy: m[2].UserID},
	}

	summary := CalculateBalances(m, expenses)

	wantOwed := []string{"33.34", "33.33", "33.33"}
	for i, b := range summary.Balances {
		if !b.Owed.Equal(dec(wantOwed[i])) {
			t.Errorf("%s owes %s, want %s", m[i].Name, b.Owed, wantOwed[i])
		}
	}
	if !netSum(summary).IsZero() {
		t.Errorf("nets add up to %s, want 0", netSum(summary))
	}
}

func TestCalculateBalancesZeroSumOverManyExpenses(t *testing.T) {
	m := newMembers("A", "B", "C", "D")
	ids := memberIDs(m)
	var expenses []Expense
	totals := []string{"0.01", "0.07", "19.99", "250.00", "3.33", "1000.01"}
	for i, total := range totals {
		id := uuid.New()
		s, _, err := CalculateShares(id, dec(total), splitEqual(), ids)
		if err != nil {
			t.Fatal(err)
		}
		expenses = append(expenses, Expense{ID: id, AmountInBase: dec(total), PaidBy: ids[i%len(ids)], Shares: s})
	}

	summary := CalculateBalances(m, expenses)
	if !netSum(summary).IsZero() {
		t.Errorf("nets add up to %s, want 0", netSum(summary))
	}
}

func TestCalculateBalancesSkipsUnsplittableLegacyExpense(t *testing.T) {
	m := newMembers("A", "B")
	expenses := []Expense{
		{ID: uuid.New(), AmountInBase: dec("30.00"), PaidBy: m[0].UserID},
		{ID: uuid.New(), AmountInBase: dec("100000000000000000"), PaidBy: m[1].UserID},
	}

	summary := CalculateBalances(m, expenses)

	if !summary.TotalGroupAmount.Equal(dec("30")) {
		t.Errorf("total = %s, want 30", summary.TotalGroupAmount)
	}
	for _, b := range summary.Balances {
		if b.Owed.IsNegative() || !b.Owed.Equal(dec("15")) {
			t.Errorf("%s owes %s, want 15", b.Member.Name, b.Owed)
		}
	}
	if !netSum(summary).IsZero() {
		t.Errorf("nets add up to %s, want 0", netSum(summary))
	}
}

func TestCalculateBalancesNoMembers(t *testing.T) {
	summary := CalculateBalances(nil, []Expense{{ID: uuid.New(), AmountInBase: dec("10"), PaidBy: uuid.New()}})
	if len(summary.Balances) != 0 {
		t.Errorf("got %d balances, want 0", len(summary.Balances))
	}
	if !summary.FairSharePerPerson.IsZero() {
		t.Errorf("fair share = %s, want 0", summary.FairSharePerPerson)
	}
}
