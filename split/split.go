package split

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Mode string

const (
	ModeEqual   Mode = "EQUAL"
	ModePercent Mode = "PERCENT"
	ModeManual  Mode = "MANUAL"
)

var (
	ErrNoMembers        = errors.New("no members to split expense")
	ErrNonPositiveTotal = errors.New("total must be positive")
	ErrUnknownMode      = errors.New("unknown split mode")
	ErrTotalTooLarge    = errors.New("total is too large to split")

	ErrWeightsTooSmall      = errors.New("total percentage is too small")
	ErrNegativeWeight       = errors.New("percentages can't be negative")
	ErrNegativeAmount       = errors.New("manual amounts can't be negative")
	ErrManualNonPositive    = errors.New("manual amounts must add up to more than zero")
	ErrManualOutOfTolerance = errors.New("manual amounts don't add up to the total")
)

var (
	hundred         = decimal.NewFromInt(100)
	minTotalWeight  = decimal.RequireFromString("0.0001")
	minTolerance    = decimal.RequireFromString("0.05")
	toleranceFactor = decimal.RequireFromString("0.01")
	maxCents        = decimal.NewFromInt(math.MaxInt64)
)

// ParseMode accepts the mode in any case. An empty string means EQUAL.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ModeEqual:
		return ModeEqual, nil
	case ModePercent:
		return ModePercent, nil
	case ModeManual:
		return ModeManual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeEqual, ModePercent, ModeManual:
		return true
	}
	return false
}

// Round2 rounds half to even at two decimal places. Every amount the engine
// produces goes through it.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// Request carries the per-member inputs for PERCENT and MANUAL splits.
// Members missing from the maps count as zero.
type Request struct {
	Mode            Mode
	PercentByMember map[uuid.UUID]decimal.Decimal
	ManualByMember  map[uuid.UUID]decimal.Decimal
}

type Share struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
}

// FallbackWarning reports that the requested mode was replaced by an equal
// split. It is carried on the Result, not returned as an error.
type FallbackWarning struct {
	Requested Mode
	Reason    error
}

func (w *FallbackWarning) Error() string {
	return fmt.Sprintf("%s split replaced by equal split: %v", strings.ToLower(string(w.Requested)), w.Reason)
}

func (w *FallbackWarning) Unwrap() error { return w.Reason }

type Result struct {
	// Mode is the mode that produced Shares, EQUAL after a fallback.
	Mode     Mode
	Shares   []Share
	Fallback *FallbackWarning
	// Adjustment is what was added to the largest manual share to make the
	// shares add up to the total.
	Adjustment decimal.Decimal
}

func (r Result) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range r.Shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// Allocate divides total between members in the given order. Shares always
// add up to the total rounded to cents.
func Allocate(total decimal.Decimal, members []uuid.UUID, req Request) (Result, error) {
	if len(members) == 0 {
		return Result{}, ErrNoMembers
	}
	total = Round2(total)
	if total.Sign() <= 0 {
		return Result{}, ErrNonPositiveTotal
	}
	// amounts are split as int64 cents
	if total.Mul(hundred).GreaterThan(maxCents) {
		return Result{}, ErrTotalTooLarge
	}

	var (
		shares []Share
		adj    decimal.Decimal
		reason error
	)
	switch req.Mode {
	case "", ModeEqual:
		return Result{Mode: ModeEqual, Shares: equal(total, members)}, nil
	case ModePercent:
		shares, reason = percent(total, members, req.PercentByMember)
	case ModeManual:
		shares, adj, reason = manual(total, members, req.ManualByMember)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	if reason != nil {
		return Result{
			Mode:     ModeEqual,
			Shares:   equal(total, members),
			Fallback: &FallbackWarning{Requested: req.Mode, Reason: reason},
		}, nil
	}
	return Result{Mode: req.Mode, Shares: shares, Adjustment: adj}, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).RoundBank(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func equal(total decimal.Decimal, members []uuid.UUID) []Share {
	cents := toCents(total)
	n := int64(len(members))
	base := cents / n
	remainder := cents - base*n

	shares := make([]Share, 0, len(members))
	for i, id := range members {
		c := base
		// remainder cents go to the first members
		if int64(i) < remainder {
			c++
		}
		shares = append(shares, Share{MemberID: id, Amount: fromCents(c)})
	}
	return shares
}

func percent(total decimal.Decimal, members []uuid.UUID, weights map[uuid.UUID]decimal.Decimal) ([]Share, error) {
	totalWeight := decimal.Zero
	for _, id := range members {
		w := weights[id]
		if w.Sign() < 0 {
			return nil, ErrNegativeWeight
		}
		totalWeight = totalWeight.Add(w)
	}
	if totalWeight.LessThanOrEqual(minTotalWeight) {
		return nil, ErrWeightsTooSmall
	}

	cents := decimal.NewFromInt(toCents(total))
	floors := make([]int64, len(members))
	fracs := make([]decimal.Decimal, len(members))
	var assigned int64
	for i, id := range members {
		exact := cents.Mul(weights[id]).Div(totalWeight)
		fl := exact.Floor()
		floors[i] = fl.IntPart()
		fracs[i] = exact.Sub(fl)
		assigned += floors[i]
	}

	// largest remainder: leftover cents go to the biggest fractional parts,
	// earlier members first on ties
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})
	leftover := cents.IntPart() - assigned
	for k := int64(0); k < leftover; k++ {
		floors[order[k%int64(len(order))]]++
	}

	shares := make([]Share, len(members))
	for i, id := range members {
		shares[i] = Share{MemberID: id, Amount: fromCents(floors[i])}
	}
	return shares, nil
}

// Tolerance is how far manual amounts may stray from total before the split
// is rejected.
func Tolerance(total decimal.Decimal) decimal.Decimal {
	return decimal.Max(minTolerance, total.Abs().Mul(toleranceFactor))
}

func manual(total decimal.Decimal, members []uuid.UUID, proposed map[uuid.UUID]decimal.Decimal) ([]Share, decimal.Decimal, error) {
	raw := decimal.Zero
	for _, id := range members {
		amt := proposed[id]
		if amt.Sign() < 0 {
			return nil, decimal.Zero, ErrNegativeAmount
		}
		raw = raw.Add(amt)
	}
	if raw.Sign() <= 0 {
		return nil, decimal.Zero, ErrManualNonPositive
	}
	if total.Sub(raw).Abs().GreaterThan(Tolerance(total)) {
		return nil, decimal.Zero, fmt.Errorf("%w: got %s, want %s", ErrManualOutOfTolerance, raw.String(), total.StringFixed(2))
	}

	shares := make([]Share, len(members))
	sum := decimal.Zero
	largest := 0
	for i, id := range members {
		amt := Round2(proposed[id])
		shares[i] = Share{MemberID: id, Amount: amt}
		sum = sum.Add(amt)
		if amt.GreaterThan(shares[largest].Amount) {
			largest = i
		}
	}

	diff := total.Sub(sum)
	if diff.IsZero() {
		return shares, decimal.Zero, nil
	}

	adjusted := shares[largest].Amount.Add(diff)
	if adjusted.Sign() < 0 {
		return nil, decimal.Zero, ErrManualOutOfTolerance
	}
	shares[largest].Amount = adjusted
	return shares, diff, nil
}
