package session

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockRepository(t *testing.T, now time.Time) (*repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewRepository(db, time.Hour)
	repo.now = func() time.Time { return now }
	return repo, mock
}

func TestCreateStoresTokenHash(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo, mock := newMockRepository(t, now)
	userID := uuid.New()

	var stored string
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(sqlmock.AnyArg(), userID, hashMatcher{&stored}, now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sess, err := repo.Create(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token == "" {
		t.Fatal("no token returned")
	}
	if stored == sess.Token || stored != hashToken(sess.Token) {
		t.Errorf("stored %q for token %q", stored, sess.Token)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

type hashMatcher struct {
	got *string
}

func (h hashMatcher) Match(v driver.Value) bool {
	s, ok := v.(string)
	*h.got = s
	return ok && len(s) == 64
}

func TestGetByToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "expires_at", "created_at"}

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{"valid", sqlmock.NewRows(columns).AddRow(uuid.NewString(), uuid.NewString(), now.Add(time.Minute), now), nil},
		{"expired", sqlmock.NewRows(columns).AddRow(uuid.NewString(), uuid.NewString(), now.Add(-time.Minute), now), ErrExpiredSession},
		{"unknown", sqlmock.NewRows(columns), ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t, now)
			mock.ExpectQuery(regexp.QuoteMeta("WHERE token_hash = $1")).
				WithArgs(hashToken("tok")).
				WillReturnRows(tt.rows)

			sess, err := repo.GetByToken(context.Background(), "tok")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && sess == nil {
				t.Error("no session returned")
			}
		})
	}
}

func TestDeleteExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo, mock := newMockRepository(t, now)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("deleted %d sessions, want 4", n)
	}
}
