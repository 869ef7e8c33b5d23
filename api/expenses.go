package api

import (
	"net/http"

	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type expenseRequest struct {
	Title         string                        `json:"title"`
	Amount        decimal.Decimal               `json:"amount"`
	Currency      string                        `json:"currency"`
	FxToBase      *decimal.Decimal              `json:"fx_to_base"`
	Date          string                        `json:"date"`
	PaidBy        uuid.UUID                     `json:"paid_by"`
	CategoryID    *uuid.UUID                    `json:"category_id"`
	Note          string                        `json:"note"`
	SplitMode     string                        `json:"split_mode"`
	Percentages   map[uuid.UUID]decimal.Decimal `json:"percentages"`
	ManualAmounts map[uuid.UUID]decimal.Decimal `json:"manual_amounts"`
}

type expenseResponse struct {
	Expense *ledger.Expense `json:"expense"`
	Warning string          `json:"warning,omitempty"`
}

// input converts the request body. A missing currency means the group's base
// currency and a missing rate means 1.
func (h *Handler) input(r *http.Request, groupID uuid.UUID, req expenseRequest) (ledger.ExpenseInput, error) {
	mode, err := split.ParseMode(req.SplitMode)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}

	currency := req.Currency
	if currency == "" {
		group, err := h.ledger.Group(r.Context(), currentUser(r), groupID)
		if err != nil {
			return ledger.ExpenseInput{}, err
		}
		currency = group.Currency
	}

	rate := decimal.NewFromInt(1)
	if req.FxToBase != nil {
		rate = *req.FxToBase
	}

	return ledger.ExpenseInput{
		Title:      req.Title,
		Amount:     req.Amount,
		Currency:   currency,
		FxToBase:   rate,
		Date:       req.Date,
		PaidBy:     req.PaidBy,
		CategoryID: req.CategoryID,
		Note:       req.Note,
		Split: split.Request{
			Mode:            mode,
			PercentByMember: req.Percentages,
			ManualByMember:  req.ManualAmounts,
		},
	}, nil
}

func respondExpense(w http.ResponseWriter, status int, expense *ledger.Expense, warning *split.FallbackWarning) {
	resp := expenseResponse{Expense: expense}
	if warning != nil {
		resp.Warning = warning.Error()
	}
	writeJSON(w, status, resp)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, err := h.ledger.Expenses(r.Context(), currentUser(r), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []ledger.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.input(r, groupID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, warning, err := h.ledger.AddExpense(r.Context(), currentUser(r), groupID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondExpense(w, http.StatusCreated, expense, warning)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.input(r, groupID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, warning, err := h.ledger.UpdateExpense(r.Context(), currentUser(r), groupID, expenseID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondExpense(w, http.StatusOK, expense, warning)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.ledger.DeleteExpense(r.Context(), currentUser(r), groupID, expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
