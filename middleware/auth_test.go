package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/billbatista/acasinha-splits/session"
	"github.com/google/uuid"
)

type fakeSessions struct {
	sessions map[string]*session.Session
}

func (f *fakeSessions) Create(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	return nil, nil
}

func (f *fakeSessions) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrInvalidSession
	}
	return s, nil
}

func (f *fakeSessions) Delete(ctx context.Context, token string) error { return nil }
func (f *fakeSessions) DeleteByUserID(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSessions) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	sessions := &fakeSessions{sessions: map[string]*session.Session{
		"good": {ID: uuid.New(), UserID: userID},
	}}

	var seen uuid.UUID
	handler := AuthMiddleware(sessions)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name        string
		cookie      string
		wantStatus  int
		wantCleared bool
	}{
		{"valid session", "good", http.StatusNoContent, false},
		{"unknown token", "bad", http.StatusUnauthorized, true},
		{"no cookie", "", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/groups", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && seen != userID {
				t.Errorf("user id = %s, want %s", seen, userID)
			}
			cleared := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.CookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("cookie cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}
