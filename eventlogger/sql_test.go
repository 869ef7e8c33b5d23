package eventlogger

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSqlEventLoggerSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	e := NewEvent(
		WithType("expense.deleted"),
		WithData(map[string]string{"expense_id": "e1"}),
		WithMetadata(map[string]string{"group_id": "g1"}),
	)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WithArgs(e.ID, e.Type, []byte(`{"expense_id":"e1"}`), []byte(`{"group_id":"g1"}`), e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSqlEventLogger(db).Save(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSqlEventLoggerSaveFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	boom := errors.New("relation \"events\" does not exist")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).WillReturnError(boom)

	err = NewSqlEventLogger(db).Save(context.Background(), NewEvent(WithType("group.created")))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
