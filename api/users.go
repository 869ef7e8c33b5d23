package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/billbatista/acasinha-splits/session"
	"github.com/billbatista/acasinha-splits/user"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	registered, err := h.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailExists):
			writeMessage(w, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrBlankPassword), errors.Is(err, user.ErrInvalidEmail):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to register user", "error", err)
			writeMessage(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if req.Name != "" {
		if err := h.users.UpdateName(ctx, registered.ID, req.Name); err == nil {
			registered.Name = req.Name
		}
	}

	sess, err := h.sessions.Create(ctx, registered.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	setSessionCookie(w, sess)

	h.logEvent("user.registered", map[string]string{
		"user_id":    registered.ID.String(),
		"email":      registered.Email,
		"session_id": sess.ID.String(),
	})
	writeJSON(w, http.StatusCreated, registered)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	found, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		slog.Error("failed to fetch user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if found == nil || h.users.VerifyPassword(found.PasswordHash, req.Password) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(ctx, found.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	setSessionCookie(w, sess)

	h.logEvent("user.logged_in", map[string]string{
		"user_id":    found.ID.String(),
		"email":      found.Email,
		"session_id": sess.ID.String(),
	})
	writeJSON(w, http.StatusOK, found)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.CookieName)
	if err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// logoutAll ends every session the caller has open, including this one.
func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	if err := h.sessions.DeleteByUserID(r.Context(), userID); err != nil {
		slog.Error("failed to delete sessions", "error", err, "user_id", userID)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	h.logEvent("user.logged_out_everywhere", map[string]string{"user_id": userID.String()})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	found, err := h.users.GetByID(r.Context(), currentUser(r))
	if err != nil {
		slog.Error("failed to fetch user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if found == nil {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *Handler) updateName(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.users.UpdateName(r.Context(), userID, req.Name); err != nil {
		if errors.Is(err, user.ErrBlankName) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to update name", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logEvent("user.name_updated", map[string]string{
		"user_id": userID.String(),
		"name":    req.Name,
	})
	w.WriteHeader(http.StatusNoContent)
}
