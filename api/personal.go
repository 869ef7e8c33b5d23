package api

import (
	"net/http"

	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type personalExpenseRequest struct {
	Title      string           `json:"title"`
	Amount     decimal.Decimal  `json:"amount"`
	Currency   string           `json:"currency"`
	FxToBase   *decimal.Decimal `json:"fx_to_base"`
	Date       string           `json:"date"`
	CategoryID *uuid.UUID       `json:"category_id"`
	Note       string           `json:"note"`
	PhotoURL   string           `json:"photo_url"`
}

// input defaults a missing rate to 1.
func (req personalExpenseRequest) input() ledger.PersonalExpenseInput {
	rate := decimal.NewFromInt(1)
	if req.FxToBase != nil {
		rate = *req.FxToBase
	}
	return ledger.PersonalExpenseInput{
		Title:      req.Title,
		Amount:     req.Amount,
		Currency:   req.Currency,
		FxToBase:   rate,
		Date:       req.Date,
		CategoryID: req.CategoryID,
		Note:       req.Note,
		PhotoURL:   req.PhotoURL,
	}
}

func (h *Handler) listPersonalExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.ledger.PersonalExpenses(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []ledger.PersonalExpense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) addPersonalExpense(w http.ResponseWriter, r *http.Request) {
	var req personalExpenseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := h.ledger.AddPersonalExpense(r.Context(), currentUser(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *Handler) updatePersonalExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req personalExpenseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := h.ledger.UpdatePersonalExpense(r.Context(), currentUser(r), expenseID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *Handler) deletePersonalExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.ledger.DeletePersonalExpense(r.Context(), currentUser(r), expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
