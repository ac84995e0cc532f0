package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"creditnet/internal/credit/models"
	id "creditnet/pkg/domain"
)

// PostgresEventStore persists the audit trail in Postgres. Used when a
// database URL is configured; the engine's other state stays in memory.
type PostgresEventStore struct {
	db *sql.DB
}

// NewPostgresEventStore constructs a Postgres-backed event store.
func NewPostgresEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func (s *PostgresEventStore) Append(ctx context.Context, event *models.CreditEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_events (id, identity_id, event_type, score_change, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(event.ID), uuid.UUID(event.IdentityID), string(event.EventType),
		event.ScoreChange, event.Description, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit event: %w", err)
	}
	return nil
}

func (s *PostgresEventStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*models.CreditEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identity_id, event_type, score_change, description, created_at
		FROM credit_events
		WHERE identity_id = $1
		ORDER BY created_at DESC`,
		uuid.UUID(identityID),
	)
	if err != nil {
		return nil, fmt.Errorf("query credit events: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.CreditEvent
	for rows.Next() {
		var (
			event     models.CreditEvent
			eventID   uuid.UUID
			subjectID uuid.UUID
			eventType string
		)
		if err := rows.Scan(&eventID, &subjectID, &eventType, &event.ScoreChange, &event.Description, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.IdentityID = id.IdentityID(subjectID)
		event.EventType = models.EventType(eventType)
		out = append(out, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit events: %w", err)
	}
	return out, nil
}

func (s *PostgresEventStore) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credit_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count credit events: %w", err)
	}
	return count, nil
}

// Clear truncates the audit trail. Demo affordance; production wiring never
// routes here.
func (s *PostgresEventStore) Clear(ctx context.Context) {
	s.db.ExecContext(ctx, `TRUNCATE credit_events`) //nolint:errcheck // demo-only reset
}
