package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// NewMessage carries the fields of a message about to be persisted.
// SwapID and OfferID are optional references.
type NewMessage struct {
	ConversationID int64
	SenderID       int64
	ReceiverID     int64
	SwapID         *int64
	OfferID        *int64
	Content        string
}

// CreateMessage persists one immutable message and returns it with its id
// and creation timestamp filled in.
func (s *Store) CreateMessage(ctx context.Context, nm NewMessage) (Message, error) {
	s.logger.Debugf("Creating message from user %d in conversation %d", nm.SenderID, nm.ConversationID)

	m := Message{
		ConversationID: nm.ConversationID,
		SenderID:       nm.SenderID,
		ReceiverID:     nm.ReceiverID,
		SwapID:         nm.SwapID,
		OfferID:        nm.OfferID,
		Content:        nm.Content,
		CreatedAt:      time.Now(),
	}

	sql := `insert into messages (conversation_id, sender_id, receiver_id, swap_id, offer_id, content, created_at)
			values ($1, $2, $3, $4, $5, $6, $7)
			returning id`
	err := s.db.QueryRow(ctx, sql,
		nm.ConversationID, nm.SenderID, nm.ReceiverID, nm.SwapID, nm.OfferID, nm.Content, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "messages_conversation_id_fkey":
				return Message{}, ErrConversationNotExist
			case "messages_sender_id_fkey":
				return Message{}, ErrMessageBadSender
			case "messages_receiver_id_fkey":
				return Message{}, ErrMessageBadReceiver
			case "messages_swap_id_fkey":
				return Message{}, ErrSwapNotExist
			case "messages_offer_id_fkey":
				return Message{}, ErrOfferNotExist
			}
		}
		return Message{}, err
	}

	return m, nil
}

// MessagesByConversation returns all messages of a conversation in ascending
// creation-time order, ids breaking timestamp ties.
func (s *Store) MessagesByConversation(ctx context.Context, conversation int64) ([]Message, error) {
	s.logger.Debugf("Retrieving messages for conversation (id: %d)", conversation)

	// check if conversation exists
	var i int8
	sql := "select 1 from conversations where id = $1"
	err := s.db.QueryRow(ctx, sql, conversation).Scan(&i)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotExist
		}
		return nil, err
	}

	sql = `select id,
				  conversation_id,
				  sender_id,
				  receiver_id,
				  swap_id,
				  offer_id,
				  content,
				  created_at
			 from messages
			where conversation_id = $1
			order by created_at asc, id asc`

	rows, err := s.db.Query(ctx, sql, conversation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		err = rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID,
			&m.SwapID, &m.OfferID, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}
