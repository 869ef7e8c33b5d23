package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type StatusKind int

const (
	StatusSettled StatusKind = iota
	StatusOwes
	StatusShouldReceive
)

func (k StatusKind) String() string {
	switch k {
	case StatusSettled:
		return "settled"
	case StatusOwes:
		return "owes"
	case StatusShouldReceive:
		return "should_receive"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status is what a member has to do to settle up. Amount is always positive
// unless Kind is StatusSettled.
type Status struct {
	Kind   StatusKind      `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// settleTolerance is half a cent.
var settleTolerance = decimal.RequireFromString("0.005")

func Classify(net decimal.Decimal) Status {
	switch {
	case net.Abs().LessThan(settleTolerance):
		return Status{Kind: StatusSettled, Amount: decimal.Zero}
	case net.Sign() > 0:
		return Status{Kind: StatusShouldReceive, Amount: net}
	default:
		return Status{Kind: StatusOwes, Amount: net.Abs()}
	}
}
