package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// GetOrCreateConversation resolves the conversation between two users,
// creating it on first contact. The participant pair is unordered: both
// argument orders resolve to the same id. Creation is an insert guarded by
// the unique (user_low, user_high) index, so concurrent first contact from
// both sides converges on a single row.
func (s *Store) GetOrCreateConversation(ctx context.Context, userA, userB int64) (int64, error) {
	if userA == userB {
		return 0, ErrSameUser
	}

	low, high := userA, userB
	if low > high {
		low, high = high, low
	}

	s.logger.Debugf("Resolving conversation between users %d and %d", low, high)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(context.Background())

	var id int64
	sql := `insert into conversations (user_low, user_high, created_at)
			values ($1, $2, $3)
			on conflict (user_low, user_high) do nothing
			returning id`
	err = tx.QueryRow(ctx, sql, low, high, time.Now()).Scan(&id)
	switch {
	case err == nil:
		// freshly created, record both participants
		rows := []participantRow{
			{conversationID: id, userID: low},
			{conversationID: id, userID: high},
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"conversation_participants"},
			[]string{"conversation_id", "user_id"}, copyFromParticipants(rows))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return 0, ErrUserNotExist
			}
			return 0, err
		}

		if err = tx.Commit(ctx); err != nil {
			return 0, err
		}

		s.logger.Debugf("Created conversation %d", id)
		return id, nil

	case errors.Is(err, pgx.ErrNoRows):
		// conflict: the pair already has a conversation
		sql = "select id from conversations where user_low = $1 and user_high = $2"
		if err = tx.QueryRow(ctx, sql, low, high).Scan(&id); err != nil {
			return 0, err
		}
		return id, tx.Commit(ctx)

	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, ErrUserNotExist
		}
		return 0, err
	}
}

// ConversationsByUserID returns one summary per counterpart the user has
// exchanged messages with, each carrying only the latest message, ordered by
// that message's recency. Conversations without messages are omitted.
func (s *Store) ConversationsByUserID(ctx context.Context, user int64) ([]ConversationSummary, error) {
	s.logger.Debugf("Retrieving conversations for user (id: %d)", user)

	// check if user exists
	var i int8
	sql := "select 1 from profiles where user_id = $1"
	err := s.db.QueryRow(ctx, sql, user).Scan(&i)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotExist
		}
		return nil, err
	}

	sql = ` -- latest message per conversation of this user
			with last_messages as (
				select distinct on (m.conversation_id)
					   m.id,
					   m.conversation_id,
					   m.sender_id,
					   m.receiver_id,
					   m.swap_id,
					   m.offer_id,
					   m.content,
					   m.created_at
				  from messages m
				  join conversations c
					on c.id = m.conversation_id
				 where c.user_low = $1 or c.user_high = $1
				 order by m.conversation_id, m.created_at desc, m.id desc
			)

			select c.id,
				   case when c.user_low = $1 then c.user_high else c.user_low end as other_user,
				   lm.id,
				   lm.sender_id,
				   lm.receiver_id,
				   lm.swap_id,
				   lm.offer_id,
				   lm.content,
				   lm.created_at
			  from conversations c
			  join last_messages lm
				on lm.conversation_id = c.id
			 order by lm.created_at desc, lm.id desc`

	rows, err := s.db.Query(ctx, sql, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ConversationSummary
	for rows.Next() {
		var cs ConversationSummary
		err = rows.Scan(&cs.ConversationID, &cs.OtherUserID,
			&cs.LastMessage.ID, &cs.LastMessage.SenderID, &cs.LastMessage.ReceiverID,
			&cs.LastMessage.SwapID, &cs.LastMessage.OfferID,
			&cs.LastMessage.Content, &cs.LastMessage.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.LastMessage.ConversationID = cs.ConversationID
		summaries = append(summaries, cs)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d conversations", len(summaries))

	return summaries, nil
}
