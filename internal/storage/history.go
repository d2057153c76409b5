package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

// queryRower is satisfied by both pgxpool.Pool and pgx.Tx, letting activity
// inserts join a caller's transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// NewActivity is one event to append to a swap's history.
type NewActivity struct {
	SwapID       int64
	UserID       int64
	ActivityType string
	Description  string
	Metadata     map[string]interface{}
}

// LogActivity appends one immutable record to the swap history. Records are
// never deduplicated, mutated or deleted.
func (s *Store) LogActivity(ctx context.Context, na NewActivity) (ActivityRecord, error) {
	s.logger.Debugf("Logging %s activity for swap %d", na.ActivityType, na.SwapID)

	return s.insertActivity(ctx, s.db, na)
}

func (s *Store) insertActivity(ctx context.Context, q queryRower, na NewActivity) (ActivityRecord, error) {
	meta := na.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return ActivityRecord{}, err
	}

	rec := ActivityRecord{
		SwapID:       na.SwapID,
		UserID:       na.UserID,
		ActivityType: na.ActivityType,
		Description:  na.Description,
		Metadata:     meta,
		CreatedAt:    time.Now(),
	}

	sql := `insert into swap_history (swap_id, user_id, activity_type, description, metadata, created_at)
			values ($1, $2, $3, $4, $5, $6)
			returning id`
	err = q.QueryRow(ctx, sql,
		na.SwapID, na.UserID, na.ActivityType, na.Description,
		&pgtype.JSONB{Bytes: metaJSON, Status: pgtype.Present}, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				switch pgErr.ConstraintName {
				case "swap_history_swap_id_fkey":
					return ActivityRecord{}, ErrSwapNotExist
				case "swap_history_user_id_fkey":
					return ActivityRecord{}, ErrActivityBadUser
				}
			case pgerrcode.CheckViolation:
				return ActivityRecord{}, ErrBadActivityType
			}
		}
		return ActivityRecord{}, err
	}

	return rec, nil
}

// SwapHistory returns all activity records of a swap, newest first.
func (s *Store) SwapHistory(ctx context.Context, swap int64) ([]ActivityRecord, error) {
	return s.queryHistory(ctx,
		`select id, swap_id, user_id, activity_type, description, metadata, created_at
		   from swap_history
		  where swap_id = $1
		  order by created_at desc, id desc`, swap)
}

// HistoryByType returns a swap's records of one activity kind, newest first.
func (s *Store) HistoryByType(ctx context.Context, swap int64, activityType string) ([]ActivityRecord, error) {
	return s.queryHistory(ctx,
		`select id, swap_id, user_id, activity_type, description, metadata, created_at
		   from swap_history
		  where swap_id = $1 and activity_type = $2
		  order by created_at desc, id desc`, swap, activityType)
}

// RecentActivities returns at most limit of a swap's newest records.
func (s *Store) RecentActivities(ctx context.Context, swap int64, limit int) ([]ActivityRecord, error) {
	return s.queryHistory(ctx,
		`select id, swap_id, user_id, activity_type, description, metadata, created_at
		   from swap_history
		  where swap_id = $1
		  order by created_at desc, id desc
		  limit $2`, swap, limit)
}

func (s *Store) queryHistory(ctx context.Context, sql string, args ...interface{}) ([]ActivityRecord, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		var meta pgtype.JSONB
		err = rows.Scan(&rec.ID, &rec.SwapID, &rec.UserID, &rec.ActivityType,
			&rec.Description, &meta, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(meta.Bytes, &rec.Metadata); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return records, nil
}

// ActivityStatsBySwap derives aggregate counts and total session minutes
// from a full scan of the swap's history. Recomputed on every call.
func (s *Store) ActivityStatsBySwap(ctx context.Context, swap int64) (ActivityStats, error) {
	history, err := s.SwapHistory(ctx, swap)
	if err != nil {
		return ActivityStats{}, err
	}
	return computeStats(history), nil
}

func computeStats(history []ActivityRecord) ActivityStats {
	var stats ActivityStats
	for _, rec := range history {
		switch rec.ActivityType {
		case ActivityMessage:
			stats.TotalMessages++
		case ActivitySession:
			stats.TotalSessions++
			if d, ok := rec.Metadata["duration_minutes"].(float64); ok {
				stats.TotalTimeSpent += int(d)
			}
		case ActivityFileExchange:
			stats.TotalFiles++
		}
	}
	return stats
}
