package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"courier/internal/core/domain"

	"github.com/google/uuid"
)

// MessageStore is the postgres-backed durable message log. Commit order of
// the messages table is the single ordering authority for persisted history;
// created_at comes from clock_timestamp() so concurrent appends within one
// conversation stay distinguishable.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Append(ctx context.Context, key string, msg domain.Message) (domain.PersistedMessage, error) {
	id := uuid.New()
	var imageURL sql.NullString
	if msg.ImageURL != "" {
		imageURL = sql.NullString{String: msg.ImageURL, Valid: true}
	}
	p := domain.PersistedMessage{
		ID:              id,
		ConversationKey: key,
		SenderID:        msg.SenderID,
		ReceiverID:      msg.ReceiverID,
		Text:            msg.Text,
		ImageURL:        msg.ImageURL,
	}
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO messages (id, conversation_key, sender_id, receiver_id, text, image_url)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at
    `, id, key, msg.SenderID, msg.ReceiverID, msg.Text, imageURL).Scan(&p.CreatedAt)
	if err != nil {
		return domain.PersistedMessage{}, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return p, nil
}

func (s *MessageStore) History(ctx context.Context, key string, limit int) ([]domain.PersistedMessage, error) {
	query := `
        SELECT id, conversation_key, sender_id, receiver_id, text, image_url, read, created_at
        FROM messages
        WHERE conversation_key = $1
        ORDER BY created_at ASC, id ASC
    `
	args := []any{key}
	if limit > 0 {
		// keep the newest messages when truncating
		query = `
            SELECT id, conversation_key, sender_id, receiver_id, text, image_url, read, created_at
            FROM (
                SELECT id, conversation_key, sender_id, receiver_id, text, image_url, read, created_at
                FROM messages
                WHERE conversation_key = $1
                ORDER BY created_at DESC, id DESC
                LIMIT $2
            ) recent
            ORDER BY created_at ASC, id ASC
        `
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var msgs []domain.PersistedMessage
	for rows.Next() {
		var m domain.PersistedMessage
		var imageURL sql.NullString
		if err := rows.Scan(
			&m.ID,
			&m.ConversationKey,
			&m.SenderID,
			&m.ReceiverID,
			&m.Text,
			&imageURL,
			&m.Read,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
		}
		m.ImageURL = imageURL.String
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, err)
	}
	return msgs, nil
}
