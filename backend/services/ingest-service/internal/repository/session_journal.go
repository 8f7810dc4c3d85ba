package repository

import (
	"context"
	"database/sql"
	"time"

	"batteryeis/backend/services/ingest-service/internal/models"
)

// SessionJournal records when sessions start and end and how many rows they logged
// in the eis_sessions table created by the db migrations.
type SessionJournal struct {
	db *sql.DB
}

// Journal status values.
const (
	JournalStatusActive = "active"
	JournalStatusEnded  = "ended"
)

// NewSessionJournal returns repository.
func NewSessionJournal(db *sql.DB) *SessionJournal {
	return &SessionJournal{db: db}
}

// RecordStart inserts the session or resets a row left by an earlier run with the same id.
func (r *SessionJournal) RecordStart(ctx context.Context, meta models.SessionMeta, startedAt time.Time) error {
	const query = `
		INSERT INTO eis_sessions (session_id, battery_id, test_id, soc, status, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			battery_id = EXCLUDED.battery_id,
			test_id = EXCLUDED.test_id,
			soc = EXCLUDED.soc,
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			ended_at = NULL,
			accepted = 0,
			rejected = 0,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		meta.SessionID,
		meta.BatteryID,
		meta.TestID,
		meta.SoC,
		JournalStatusActive,
		startedAt.UTC(),
	)
	return err
}

// RecordEnd finalizes session counters.
func (r *SessionJournal) RecordEnd(ctx context.Context, sessionID string, accepted, rejected int, endedAt time.Time) error {
	const query = `
		UPDATE eis_sessions
		SET status = $2,
		    ended_at = $3,
		    accepted = $4,
		    rejected = $5,
		    updated_at = NOW()
		WHERE session_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sessionID, JournalStatusEnded, endedAt.UTC(), accepted, rejected)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
