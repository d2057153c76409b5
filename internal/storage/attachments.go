package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// NewAttachment links an already-uploaded file to its owning message.
type NewAttachment struct {
	MessageID int64
	FileName  string
	FileType  string
	FileSize  int64
	URL       string
}

// CreateAttachments records attachment rows inside one transaction: either
// every file of the batch is linked or none is. The owning messages must
// already exist; the blobs themselves are uploaded by the caller beforehand
// so a failed upload never leaves a dangling row.
func (s *Store) CreateAttachments(ctx context.Context, nas []NewAttachment) ([]Attachment, error) {
	s.logger.Debugf("Linking %d attachments", len(nas))

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(context.Background())

	now := time.Now()
	attachments := make([]Attachment, 0, len(nas))
	for _, na := range nas {
		a := Attachment{
			MessageID: na.MessageID,
			FileName:  na.FileName,
			FileType:  na.FileType,
			FileSize:  na.FileSize,
			URL:       na.URL,
			CreatedAt: now,
		}

		sql := `insert into message_attachments (message_id, file_name, file_type, file_size, url, created_at)
				values ($1, $2, $3, $4, $5, $6)
				returning id`
		err = tx.QueryRow(ctx, sql,
			na.MessageID, na.FileName, na.FileType, na.FileSize, na.URL, a.CreatedAt,
		).Scan(&a.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return nil, ErrMessageNotExist
			}
			return nil, err
		}

		attachments = append(attachments, a)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return attachments, nil
}

// CreateAttachment records a single attachment row.
func (s *Store) CreateAttachment(ctx context.Context, na NewAttachment) (Attachment, error) {
	attachments, err := s.CreateAttachments(ctx, []NewAttachment{na})
	if err != nil {
		return Attachment{}, err
	}
	return attachments[0], nil
}

// AttachmentsByMessage returns all attachments of a message in insertion
// order.
func (s *Store) AttachmentsByMessage(ctx context.Context, message int64) ([]Attachment, error) {
	sql := `select id, message_id, file_name, file_type, file_size, url, created_at
			  from message_attachments
			 where message_id = $1
			 order by id asc`

	rows, err := s.db.Query(ctx, sql, message)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		err = rows.Scan(&a.ID, &a.MessageID, &a.FileName, &a.FileType, &a.FileSize, &a.URL, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return attachments, nil
}

// AttachmentByID resolves a single attachment.
func (s *Store) AttachmentByID(ctx context.Context, id int64) (Attachment, error) {
	sql := `select id, message_id, file_name, file_type, file_size, url, created_at
			  from message_attachments
			 where id = $1`

	var a Attachment
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&a.ID, &a.MessageID, &a.FileName, &a.FileType, &a.FileSize, &a.URL, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotExist
		}
		return Attachment{}, err
	}

	return a, nil
}
