package storage

import "github.com/jackc/pgx/v4"

type participantRow struct {
	conversationID, userID int64
}

type participantBulk struct {
	rows []participantRow
	idx  int
}

func copyFromParticipants(rows []participantRow) pgx.CopyFromSource {
	return &participantBulk{
		rows: rows,
		idx:  -1,
	}
}

func (b *participantBulk) Next() bool {
	b.idx++
	return b.idx < len(b.rows)
}

func (b *participantBulk) Values() ([]interface{}, error) {
	row := b.rows[b.idx]
	return []interface{}{row.conversationID, row.userID}, nil
}

func (b *participantBulk) Err() error {
	return nil
}
