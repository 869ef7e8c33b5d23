package api

import "net/http"

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.ledger.Groups(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		BaseCurrency string `json:"base_currency"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	group, err := h.ledger.CreateGroup(r.Context(), currentUser(r), req.Name, req.BaseCurrency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	group, err := h.ledger.Group(r.Context(), currentUser(r), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) renameGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	group, err := h.ledger.RenameGroup(r.Context(), currentUser(r), groupID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	members, err := h.ledger.Members(r.Context(), currentUser(r), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// addMember answers 201 for a new member and 200 when the user was already in
// the group.
func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	membership, added, err := h.ledger.AddMemberByEmail(r.Context(), currentUser(r), groupID, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, membership)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.ledger.Balances(r.Context(), currentUser(r), groupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
