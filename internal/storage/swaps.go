package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
)

// SwapByID reads one swap aggregate, including its hours balance.
func (s *Store) SwapByID(ctx context.Context, id int64) (Swap, error) {
	sql := `select id, requester_id, provider_id, skill, status,
				   total_hours::float8, remaining_hours::float8, created_at
			  from swaps
			 where id = $1`

	var sw Swap
	err := s.db.QueryRow(ctx, sql, id).Scan(&sw.ID, &sw.RequesterID, &sw.ProviderID,
		&sw.Skill, &sw.Status, &sw.TotalHours, &sw.RemainingHours, &sw.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Swap{}, ErrSwapNotExist
		}
		return Swap{}, err
	}

	return sw, nil
}
