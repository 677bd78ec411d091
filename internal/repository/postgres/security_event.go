package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"qchat/internal/domain"
	"qchat/pkg/errors"
)

// EventRepository is append-only: events are never updated or deleted.
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.SecurityEvent) error {
	query := `
		INSERT INTO security_events (id, session_id, event_type, description, created_at)
		VALUES (:id, :session_id, :event_type, :description, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return errors.Wrap(err, "failed to record security event")
	}
	return nil
}

func (r *EventRepository) FindBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.SecurityEvent, error) {
	var events []*domain.SecurityEvent
	query := `
		SELECT id, session_id, event_type, description, created_at
		FROM security_events
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &events, query, sessionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list security events")
	}
	return events, nil
}
