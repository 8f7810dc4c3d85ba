package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"batteryeis/backend/services/ingest-service/internal/models"
)

func TestRecordStart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	journal := NewSessionJournal(db)
	startedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := models.SessionMeta{SessionID: "s1", BatteryID: "B1", TestID: "T1_50", SoC: 50}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO eis_sessions")).
		WithArgs("s1", "B1", "T1_50", 50, JournalStatusActive, startedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := journal.RecordStart(context.Background(), meta, startedAt); err != nil {
		t.Fatalf("record start: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordEnd(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	journal := NewSessionJournal(db)
	endedAt := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE eis_sessions")).
		WithArgs("s1", JournalStatusEnded, endedAt, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := journal.RecordEnd(context.Background(), "s1", 10, 2, endedAt); err != nil {
		t.Fatalf("record end: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordEndUnknownSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE eis_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewSessionJournal(db).RecordEnd(context.Background(), "missing", 0, 0, time.Now())
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
