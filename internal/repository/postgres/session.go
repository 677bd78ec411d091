// Package postgres implements the chat repositories over sqlx.
package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"qchat/internal/domain"
	"qchat/pkg/errors"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (
			id, session_code, quantum_key, key_generated_at, encryption_method,
			is_active, total_messages, key_refreshes, security_events_count,
			created_at, updated_at
		) VALUES (
			:id, :session_code, :quantum_key, :key_generated_at, :encryption_method,
			:is_active, :total_messages, :key_refreshes, :security_events_count,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	return nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	query := `
		SELECT id, session_code, quantum_key, key_generated_at, encryption_method,
		       is_active, total_messages, key_refreshes, security_events_count,
		       created_at, updated_at
		FROM chat_sessions
		WHERE session_code = $1`

	err := r.db.GetContext(ctx, &session, query, code)
	if err == sql.ErrNoRows {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session")
	}
	return &session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *domain.ChatSession) error {
	query := `
		UPDATE chat_sessions SET
			quantum_key = :quantum_key,
			key_generated_at = :key_generated_at,
			encryption_method = :encryption_method,
			is_active = :is_active,
			total_messages = :total_messages,
			key_refreshes = :key_refreshes,
			security_events_count = :security_events_count,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return errors.Wrap(err, "failed to update session")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return errors.ErrSessionNotFound
	}
	return nil
}
