package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// UpdateOfferStatus moves an offer to pending, accepted or declined.
// Messages embed offers by reference only, so a status change is pushed to
// subscribers as a bare offer id and the message list is refetched.
func (s *Store) UpdateOfferStatus(ctx context.Context, offer int64, status string) (Offer, error) {
	s.logger.Debugf("Updating offer %d status to %s", offer, status)

	sql := `update swap_offers
			   set status = $2, updated_at = $3
			 where id = $1
			returning id, conversation_id, sender_id, receiver_id, status, created_at, updated_at`

	var o Offer
	err := s.db.QueryRow(ctx, sql, offer, status, time.Now()).Scan(
		&o.ID, &o.ConversationID, &o.SenderID, &o.ReceiverID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, ErrOfferNotExist
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return Offer{}, ErrBadOfferStatus
		}
		return Offer{}, err
	}

	return o, nil
}
