package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soyeahso/frontdesk/internal/domain"
)

// CallRecord summarizes one finished or running session.
type CallRecord struct {
	SessionID     string          `json:"sessionId"`
	CallerAddress string          `json:"callerAddress,omitempty"`
	Mode          domain.Mode     `json:"mode"`
	Language      domain.Language `json:"language"`
	StartedAt     time.Time       `json:"startedAt"`
	EndedAt       *time.Time      `json:"endedAt,omitempty"`
	EndReason     string          `json:"endReason,omitempty"`
	FinalState    domain.State    `json:"finalState,omitempty"`
	Bookings      int             `json:"bookings"`
}

// CallLog records session starts and ends for reporting.
type CallLog struct {
	db *DB
}

// NewCallLog creates a call log using the given database.
func NewCallLog(db *DB) *CallLog {
	return &CallLog{db: db}
}

// Start records a new session. A repeated start for the same ID is ignored.
func (c *CallLog) Start(ctx context.Context, s *domain.Session) error {
	_, err := c.db.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO calls (session_id, caller_address, mode, language, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.CallerAddress, string(s.Mode), string(s.Language), formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("recording call start %s: %w", s.ID, err)
	}
	return nil
}

// End closes the record for a session.
func (c *CallLog) End(ctx context.Context, s *domain.Session, reason string, at time.Time) error {
	_, err := c.db.sql.ExecContext(ctx,
		`UPDATE calls SET ended_at = ?, end_reason = ?, final_state = ?, language = ?, bookings = ?
		 WHERE session_id = ? AND ended_at IS NULL`,
		formatTime(at), reason, string(s.State), string(s.Language), len(s.Bookings), s.ID)
	if err != nil {
		return fmt.Errorf("recording call end %s: %w", s.ID, err)
	}
	return nil
}

// Expire closes the records of sessions removed by the idle sweep.
// One sweep is recorded atomically.
func (c *CallLog) Expire(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return c.db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE calls SET ended_at = ?, end_reason = 'expired'
			 WHERE session_id = ? AND ended_at IS NULL`)
		if err != nil {
			return fmt.Errorf("preparing call expiry: %w", err)
		}
		defer stmt.Close()
		ended := formatTime(at)
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, ended, id); err != nil {
				return fmt.Errorf("recording call expiry %s: %w", id, err)
			}
		}
		return nil
	})
}

// Recent returns the newest calls first. Limit of 0 defaults to 20.
func (c *CallLog) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.sql.QueryContext(ctx,
		`SELECT session_id, caller_address, mode, language, started_at, ended_at,
		        end_reason, final_state, bookings
		 FROM calls ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var r CallRecord
		var mode, lang, started, state string
		var ended sql.NullString
		if err := rows.Scan(&r.SessionID, &r.CallerAddress, &mode, &lang, &started, &ended,
			&r.EndReason, &state, &r.Bookings); err != nil {
			return nil, err
		}
		r.Mode = domain.Mode(mode)
		r.Language = domain.Language(lang)
		r.FinalState = domain.State(state)
		r.StartedAt = parseTime(started)
		if ended.Valid {
			t := parseTime(ended.String)
			r.EndedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
