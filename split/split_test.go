package split

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func amounts(shares []Share) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.Amount.StringFixed(2)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAllocateEqual(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		members int
		want    []string
	}{
		{"remainder to first member", "100.00", 3, []string{"33.34", "33.33", "33.33"}},
		{"two remainder cents", "0.05", 3, []string{"0.02", "0.02", "0.01"}},
		{"even", "90.00", 3, []string{"30.00", "30.00", "30.00"}},
		{"single member", "12.34", 1, []string{"12.34"}},
		{"less than a cent each", "0.01", 4, []string{"0.01", "0.00", "0.00", "0.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Allocate(d(tt.total), ids(tt.members), Request{Mode: ModeEqual})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := amounts(res.Shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
			if !res.Sum().Equal(d(tt.total)) {
				t.Errorf("sum = %s, want %s", res.Sum(), tt.total)
			}
			if res.Fallback != nil {
				t.Errorf("unexpected fallback: %v", res.Fallback)
			}
		})
	}
}

func TestAllocateKeepsMemberOrder(t *testing.T) {
	members := ids(3)
	res, err := Allocate(d("100"), members, Request{})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range res.Shares {
		if s.MemberID != members[i] {
			t.Fatalf("share %d belongs to %s, want %s", i, s.MemberID, members[i])
		}
	}
	if res.Mode != ModeEqual {
		t.Errorf("mode = %s, want EQUAL", res.Mode)
	}
}

func TestAllocateNoMembers(t *testing.T) {
	_, err := Allocate(d("10"), nil, Request{Mode: ModeEqual})
	if !errors.Is(err, ErrNoMembers) {
		t.Fatalf("err = %v, want ErrNoMembers", err)
	}
}

func TestAllocateNonPositiveTotal(t *testing.T) {
	for _, total := range []string{"0", "-5", "0.004"} {
		_, err := Allocate(d(total), ids(2), Request{Mode: ModeEqual})
		if !errors.Is(err, ErrNonPositiveTotal) {
			t.Errorf("total %s: err = %v, want ErrNonPositiveTotal", total, err)
		}
	}
}

func TestAllocateTotalTooLarge(t *testing.T) {
	for _, mode := range []Mode{ModeEqual, ModePercent, ModeManual} {
		_, err := Allocate(d("100000000000000000.00"), ids(3), Request{Mode: mode})
		if !errors.Is(err, ErrTotalTooLarge) {
			t.Errorf("%s: err = %v, want ErrTotalTooLarge", mode, err)
		}
	}

	largest := d("92233720368547758.07")
	res, err := Allocate(largest, ids(3), Request{Mode: ModeEqual})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Sum().Equal(largest) {
		t.Errorf("sum = %s, want %s", res.Sum(), largest)
	}
	for _, s := range res.Shares {
		if s.Amount.Sign() < 0 {
			t.Fatalf("negative share %s", s.Amount)
		}
	}
}

func TestAllocatePercent(t *testing.T) {
	m := ids(3)
	tests := []struct {
		name    string
		total   string
		weights []string
		want    []string
	}{
		{"thirds", "100.00", []string{"33.3333", "33.3333", "33.3333"}, []string{"33.34", "33.33", "33.33"}},
		{"weights not summing to 100", "50.00", []string{"1", "1", "2"}, []string{"12.50", "12.50", "25.00"}},
		{"exact weights", "10.00", []string{"10", "45", "45"}, []string{"1.00", "4.50", "4.50"}},
		{"uneven", "0.10", []string{"1", "1", "1"}, []string{"0.04", "0.03", "0.03"}},
		{"leftover cent goes to largest fraction", "0.07", []string{"6", "3", "1"}, []string{"0.04", "0.02", "0.01"}},
		{"zero weight member", "9.99", []string{"50", "0", "50"}, []string{"5.00", "0.00", "4.99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := map[uuid.UUID]decimal.Decimal{}
			for i, w := range tt.weights {
				weights[m[i]] = d(w)
			}
			res, err := Allocate(d(tt.total), m, Request{Mode: ModePercent, PercentByMember: weights})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Fallback != nil {
				t.Fatalf("unexpected fallback: %v", res.Fallback)
			}
			if res.Mode != ModePercent {
				t.Errorf("mode = %s, want PERCENT", res.Mode)
			}
			if got := amounts(res.Shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
			if !res.Sum().Equal(d(tt.total)) {
				t.Errorf("sum = %s, want %s", res.Sum(), tt.total)
			}
		})
	}
}

func TestAllocatePercentFallsBack(t *testing.T) {
	m := ids(2)
	tests := []struct {
		name    string
		weights map[uuid.UUID]decimal.Decimal
		reason  error
	}{
		{"no weights", nil, ErrWeightsTooSmall},
		{"negligible weights", map[uuid.UUID]decimal.Decimal{m[0]: d("0.00005"), m[1]: d("0.00005")}, ErrWeightsTooSmall},
		{"negative weight", map[uuid.UUID]decimal.Decimal{m[0]: d("150"), m[1]: d("-50")}, ErrNegativeWeight},
		{"weights for strangers only", map[uuid.UUID]decimal.Decimal{uuid.New(): d("100")}, ErrWeightsTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Allocate(d("10.01"), m, Request{Mode: ModePercent, PercentByMember: tt.weights})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Fallback == nil {
				t.Fatal("expected a fallback warning")
			}
			if res.Fallback.Requested != ModePercent {
				t.Errorf("requested = %s, want PERCENT", res.Fallback.Requested)
			}
			if !errors.Is(res.Fallback, tt.reason) {
				t.Errorf("reason = %v, want %v", res.Fallback.Reason, tt.reason)
			}
			if res.Mode != ModeEqual {
				t.Errorf("mode = %s, want EQUAL", res.Mode)
			}
			if got := amounts(res.Shares); !equalStrings(got, []string{"5.01", "5.00"}) {
				t.Errorf("shares = %v", got)
			}
		})
	}
}

func TestAllocateManual(t *testing.T) {
	m := ids(3)
	tests := []struct {
		name     string
		total    string
		proposed []string
		want     []string
		adj      string
	}{
		{"exact", "10.00", []string{"5.00", "3.00", "2.00"}, []string{"5.00", "3.00", "2.00"}, "0"},
		{"short within minimum tolerance", "10.00", []string{"5.00", "3.00", "1.96"}, []string{"5.04", "3.00", "1.96"}, "0.04"},
		{"over within percent tolerance", "1000.00", []string{"400", "300", "309"}, []string{"391.00", "300.00", "309.00"}, "-9"},
		{"rounds proposals", "3.00", []string{"1.004", "1.001", "0.995"}, []string{"1.00", "1.00", "1.00"}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposed := map[uuid.UUID]decimal.Decimal{}
			for i, a := range tt.proposed {
				proposed[m[i]] = d(a)
			}
			res, err := Allocate(d(tt.total), m, Request{Mode: ModeManual, ManualByMember: proposed})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Fallback != nil {
				t.Fatalf("unexpected fallback: %v", res.Fallback)
			}
			if got := amounts(res.Shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
			if !res.Adjustment.Equal(d(tt.adj)) {
				t.Errorf("adjustment = %s, want %s", res.Adjustment, tt.adj)
			}
			if !res.Sum().Equal(d(tt.total)) {
				t.Errorf("sum = %s, want %s", res.Sum(), tt.total)
			}
		})
	}
}

func TestAllocateManualFallsBack(t *testing.T) {
	m := ids(2)
	tests := []struct {
		name     string
		proposed map[uuid.UUID]decimal.Decimal
		reason   error
	}{
		{"outside tolerance", map[uuid.UUID]decimal.Decimal{m[0]: d("5"), m[1]: d("4")}, ErrManualOutOfTolerance},
		{"negative amount", map[uuid.UUID]decimal.Decimal{m[0]: d("12"), m[1]: d("-2")}, ErrNegativeAmount},
		{"nothing proposed", nil, ErrManualNonPositive},
		// 9.9449 is 0.0551 short even though the rounded amounts add up to 9.95
		{"unrounded sum outside tolerance", map[uuid.UUID]decimal.Decimal{m[0]: d("4.975"), m[1]: d("4.9699")}, ErrManualOutOfTolerance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Allocate(d("10"), m, Request{Mode: ModeManual, ManualByMember: tt.proposed})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Fallback == nil {
				t.Fatal("expected a fallback warning")
			}
			if !errors.Is(res.Fallback, tt.reason) {
				t.Errorf("reason = %v, want %v", res.Fallback.Reason, tt.reason)
			}
			if got := amounts(res.Shares); !equalStrings(got, []string{"5.00", "5.00"}) {
				t.Errorf("shares = %v", got)
			}
		})
	}
}

func TestTolerance(t *testing.T) {
	tests := []struct{ total, want string }{
		{"1", "0.05"},
		{"5", "0.05"},
		{"10", "0.1"},
		{"250", "2.5"},
	}
	for _, tt := range tests {
		if got := Tolerance(d(tt.total)); !got.Equal(d(tt.want)) {
			t.Errorf("Tolerance(%s) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeEqual, false},
		{"equal", ModeEqual, false},
		{" Percent ", ModePercent, false},
		{"MANUAL", ModeManual, false},
		{"shares", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRound2HalfToEven(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.005", "1"},
		{"1.015", "1.02"},
		{"1.0251", "1.03"},
		{"-2.345", "-2.34"},
	}
	for _, tt := range tests {
		if got := Round2(d(tt.in)); !got.Equal(d(tt.want)) {
			t.Errorf("Round2(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
