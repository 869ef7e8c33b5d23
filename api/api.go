package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/middleware"
	"github.com/billbatista/acasinha-splits/session"
	"github.com/billbatista/acasinha-splits/split"
	"github.com/billbatista/acasinha-splits/user"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	ledger   *ledger.Service
	users    user.Repository
	sessions session.Repository
	events   ledger.EventSink
}

func NewHandler(svc *ledger.Service, users user.Repository, sessions session.Repository, events ledger.EventSink) *Handler {
	return &Handler{
		ledger:   svc,
		users:    users,
		sessions: sessions,
		events:   events,
	}
}

func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(middleware.AuthMiddleware(h.sessions))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	router.Post("/user/register", h.register)
	router.Post("/user/login", h.login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/user/logout", h.logout)
		r.Post("/user/logout/all", h.logoutAll)
		r.Get("/user/profile", h.profile)
		r.Post("/user/profile/name", h.updateName)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listPersonalExpenses)
			r.Post("/", h.addPersonalExpense)
			r.Put("/{expenseID}", h.updatePersonalExpense)
			r.Delete("/{expenseID}", h.deletePersonalExpense)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.listGroups)
			r.Post("/", h.createGroup)

			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", h.getGroup)
				r.Patch("/", h.renameGroup)
				r.Get("/members", h.listMembers)
				r.Post("/members", h.addMember)
				r.Get("/expenses", h.listExpenses)
				r.Post("/expenses", h.addExpense)
				r.Put("/expenses/{expenseID}", h.updateExpense)
				r.Delete("/expenses/{expenseID}", h.deleteExpense)
				r.Get("/balances", h.balances)
			})
		})
	})

	return router
}

func (h *Handler) logEvent(eventType string, data map[string]string) {
	if h.events == nil {
		return
	}
	h.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
	))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a ledger error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, split.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeMessage(w, status, "internal server error")
		return
	}
	writeMessage(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", ledger.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ledger.ErrValidation, name)
	}
	return id, nil
}

func currentUser(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserID(r.Context())
	return id
}
