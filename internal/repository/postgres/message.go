package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"qchat/internal/domain"
	"qchat/pkg/errors"
)

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (
			session_id, sender, original_message, encrypted_message,
			is_self_destruct, self_destruct_timer, created_at, read_at, is_destroyed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		message.SessionID, message.Sender, message.OriginalMessage, message.EncryptedText,
		message.IsSelfDestruct, message.DestructTimer, message.CreatedAt, message.ReadAt,
		message.IsDestroyed,
	).Scan(&message.ID)
	if err != nil {
		return errors.Wrap(err, "failed to create message")
	}
	return nil
}

func (r *MessageRepository) Update(ctx context.Context, message *domain.Message) error {
	query := `
		UPDATE messages SET
			original_message = :original_message,
			encrypted_message = :encrypted_message,
			read_at = :read_at,
			is_destroyed = :is_destroyed
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, message)
	if err != nil {
		return errors.Wrap(err, "failed to update message")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return errors.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) FindBySession(ctx context.Context, sessionID uuid.UUID, afterID int64) ([]*domain.Message, error) {
	var messages []*domain.Message
	query := `
		SELECT id, session_id, sender, original_message, encrypted_message,
		       is_self_destruct, self_destruct_timer, created_at, read_at, is_destroyed
		FROM messages
		WHERE session_id = $1 AND is_destroyed = false AND id > $2
		ORDER BY created_at, id`

	err := r.db.SelectContext(ctx, &messages, query, sessionID, afterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	return messages, nil
}

func (r *MessageRepository) FindRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	query := `
		SELECT id, session_id, sender, original_message, encrypted_message,
		       is_self_destruct, self_destruct_timer, created_at, read_at, is_destroyed
		FROM messages
		WHERE session_id = $1 AND is_destroyed = false
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &messages, query, sessionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent messages")
	}
	return messages, nil
}

func (r *MessageRepository) FindAllBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error) {
	var messages []*domain.Message
	query := `
		SELECT id, session_id, sender, original_message, encrypted_message,
		       is_self_destruct, self_destruct_timer, created_at, read_at, is_destroyed
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at, id`

	err := r.db.SelectContext(ctx, &messages, query, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list all messages")
	}
	return messages, nil
}
