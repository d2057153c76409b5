package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

const sessionColumns = `id, swap_id, created_by, status, meet_link,
	scheduled_at, started_at, ended_at, duration_minutes, created_at`

// durationMinutes is the elapsed session time rounded to the nearest whole
// minute.
func durationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// sessionHours converts minutes to hours rounded to one decimal, the unit
// the swap balance is kept in.
func sessionHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

func scanSession(row pgx.Row) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.SwapID, &sess.CreatedBy, &sess.Status, &sess.MeetLink,
		&sess.ScheduledAt, &sess.StartedAt, &sess.EndedAt, &sess.DurationMinutes, &sess.CreatedAt)
	return sess, err
}

// CreateSession schedules a meeting for a swap and logs the creation in the
// swap history, both inside one transaction.
func (s *Store) CreateSession(ctx context.Context, swap, createdBy int64, scheduledAt time.Time, meetLink string) (Session, error) {
	s.logger.Debugf("Creating session for swap %d", swap)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback(context.Background())

	sql := `insert into swap_sessions (swap_id, created_by, status, meet_link, scheduled_at, created_at)
			values ($1, $2, $3, $4, $5, $6)
			returning ` + sessionColumns
	sess, err := scanSession(tx.QueryRow(ctx, sql,
		swap, createdBy, SessionScheduled, meetLink, scheduledAt, time.Now()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "swap_sessions_swap_id_fkey":
				return Session{}, ErrSwapNotExist
			case "swap_sessions_created_by_fkey":
				return Session{}, ErrUserNotExist
			}
		}
		return Session{}, err
	}

	_, err = s.insertActivity(ctx, tx, NewActivity{
		SwapID:       swap,
		UserID:       createdBy,
		ActivityType: ActivitySession,
		Description:  "Created a new session",
		Metadata: map[string]interface{}{
			"session_id": sess.ID,
			"meet_link":  meetLink,
		},
	})
	if err != nil {
		return Session{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Session{}, err
	}

	s.logger.Debugf("Created session %d for swap %d", sess.ID, swap)

	return sess, nil
}

// SessionsBySwap returns all sessions of a swap, newest first.
func (s *Store) SessionsBySwap(ctx context.Context, swap int64) ([]Session, error) {
	sql := `select ` + sessionColumns + `
			  from swap_sessions
			 where swap_id = $1
			 order by created_at desc, id desc`

	rows, err := s.db.Query(ctx, sql, swap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		err = rows.Scan(&sess.ID, &sess.SwapID, &sess.CreatedBy, &sess.Status, &sess.MeetLink,
			&sess.ScheduledAt, &sess.StartedAt, &sess.EndedAt, &sess.DurationMinutes, &sess.CreatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return sessions, nil
}

// SessionByID resolves a single session.
func (s *Store) SessionByID(ctx context.Context, id int64) (Session, error) {
	sql := `select ` + sessionColumns + ` from swap_sessions where id = $1`
	sess, err := scanSession(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotExist
		}
		return Session{}, err
	}
	return sess, nil
}

// StartSession moves a session to in_progress and stamps started_at.
// A start while already in_progress overwrites the stamp; starts from a
// terminal state fail with ErrSessionFinished.
func (s *Store) StartSession(ctx context.Context, id int64) (Session, error) {
	s.logger.Debugf("Starting session %d", id)

	sql := `update swap_sessions
			   set status = $2, started_at = $3
			 where id = $1 and status in ($4, $2)
			returning ` + sessionColumns
	sess, err := scanSession(s.db.QueryRow(ctx, sql, id, SessionInProgress, time.Now(), SessionScheduled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, s.sessionStateErr(ctx, id)
		}
		return Session{}, err
	}

	return sess, nil
}

// EndSession completes a session: stamps ended_at, computes the duration
// from started_at (or created_at if the session was never started), then
// decrements the swap's remaining hours and logs the completion. The
// decrement is a single conditional update evaluated server-side, so
// concurrent completions for the same swap cannot lose an update. The
// session stays completed even if the bookkeeping after it fails.
func (s *Store) EndSession(ctx context.Context, id int64) (Session, error) {
	s.logger.Debugf("Ending session %d", id)

	sql := `select ` + sessionColumns + ` from swap_sessions where id = $1`
	sess, err := scanSession(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotExist
		}
		return Session{}, err
	}
	if sess.Status == SessionCompleted || sess.Status == SessionCancelled {
		return Session{}, ErrSessionFinished
	}

	startedAt := sess.CreatedAt
	if sess.StartedAt != nil {
		startedAt = *sess.StartedAt
	}
	endedAt := time.Now()
	minutes := durationMinutes(startedAt, endedAt)

	// the pre-read only supplies started_at; the update re-checks the state
	// so concurrent completions cannot both pass
	sql = `update swap_sessions
			  set status = $2, ended_at = $3, duration_minutes = $4
			where id = $1 and status in ($5, $6)
			returning ` + sessionColumns
	sess, err = scanSession(s.db.QueryRow(ctx, sql,
		id, SessionCompleted, endedAt, minutes, SessionScheduled, SessionInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, s.sessionStateErr(ctx, id)
		}
		return Session{}, err
	}

	if err = s.consumeSwapHours(ctx, sess.SwapID, sess.CreatedBy, minutes); err != nil {
		// the session is already completed; surface the bookkeeping failure
		return sess, err
	}

	return sess, nil
}

// consumeSwapHours atomically decrements the swap balance by the hours a
// completed session used, clamped at zero, and logs the consumption.
func (s *Store) consumeSwapHours(ctx context.Context, swap, user int64, minutes int) error {
	hours := sessionHours(minutes)

	sql := `update swaps
			   set remaining_hours = greatest(0, remaining_hours - $2)
			 where id = $1
			returning remaining_hours::float8`
	var remaining float64
	err := s.db.QueryRow(ctx, sql, swap, hours).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSwapNotExist
		}
		return err
	}

	s.logger.Debugf("Swap %d consumed %.1f hours, %.1f remaining", swap, hours, remaining)

	_, err = s.insertActivity(ctx, s.db, NewActivity{
		SwapID:       swap,
		UserID:       user,
		ActivityType: ActivitySession,
		Description:  fmt.Sprintf("Session completed: %v hours used", hours),
		Metadata: map[string]interface{}{
			"duration_minutes": minutes,
			"hours_used":       hours,
		},
	})
	return err
}

// CancelSession marks a session cancelled. Cancellation is not recorded in
// the swap history.
func (s *Store) CancelSession(ctx context.Context, id int64) (Session, error) {
	s.logger.Debugf("Cancelling session %d", id)

	sql := `update swap_sessions
			   set status = $2
			 where id = $1 and status in ($3, $4)
			returning ` + sessionColumns
	sess, err := scanSession(s.db.QueryRow(ctx, sql, id, SessionCancelled, SessionScheduled, SessionInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, s.sessionStateErr(ctx, id)
		}
		return Session{}, err
	}

	return sess, nil
}

// sessionStateErr distinguishes an unknown session from one that is already
// in a terminal state after a conditional update matched no rows.
func (s *Store) sessionStateErr(ctx context.Context, id int64) error {
	var i int8
	err := s.db.QueryRow(ctx, "select 1 from swap_sessions where id = $1", id).Scan(&i)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotExist
		}
		return err
	}
	return ErrSessionFinished
}
