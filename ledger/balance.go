package ledger

import (
	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance represents a member's position in a group, calculated on-the-fly
// from expenses. Positive Net means the member is owed money.
type Balance struct {
	Member Member          `json:"member"`
	Paid   decimal.Decimal `json:"paid"`
	Owed   decimal.Decimal `json:"owed"`
	Net    decimal.Decimal `json:"net"`
	Status Status          `json:"status"`
}

type Summary struct {
	Balances           []Balance       `json:"balances"`
	TotalGroupAmount   decimal.Decimal `json:"total_group_amount"`
	FairSharePerPerson decimal.Decimal `json:"fair_share_per_person"`
}

// CalculateBalances computes net balances for all members from expenses and
// their shares. Expenses without shares are split equally between the
// current members.
func CalculateBalances(members []Member, expenses []Expense) Summary {
	paid := make(map[uuid.UUID]decimal.Decimal, len(members))
	owed := make(map[uuid.UUID]decimal.Decimal, len(members))
	ids := memberIDs(members)
	total := decimal.Zero

	for _, expense := range expenses {
		if len(expense.Shares) > 0 {
			for _, share := range expense.Shares {
				owed[share.UserID] = owed[share.UserID].Add(share.Amount)
			}
		} else {
			// legacy expense recorded before shares existed. One that cannot
			// be split is left out entirely so the nets still add up to zero.
			result, err := split.Allocate(expense.AmountInBase, ids, split.Request{Mode: split.ModeEqual})
			if err != nil {
				continue
			}
			for _, share := range result.Shares {
				owed[share.MemberID] = owed[share.MemberID].Add(share.Amount)
			}
		}

		total = total.Add(expense.AmountInBase)
		paid[expense.PaidBy] = paid[expense.PaidBy].Add(expense.AmountInBase)
	}

	summary := Summary{
		Balances:           make([]Balance, 0, len(members)),
		TotalGroupAmount:   total,
		FairSharePerPerson: decimal.Zero,
	}
	if len(members) > 0 {
		summary.FairSharePerPerson = split.Round2(total.Div(decimal.NewFromInt(int64(len(members)))))
	}

	for _, m := range members {
		net := paid[m.UserID].Sub(owed[m.UserID])
		summary.Balances = append(summary.Balances, Balance{
			Member: m,
			Paid:   paid[m.UserID],
			Owed:   owed[m.UserID],
			Net:    net,
			Status: Classify(net),
		})
	}
	return summary
}
