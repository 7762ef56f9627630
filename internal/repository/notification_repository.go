package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// NotificationCursor marks a position in one identity's event stream. Events
// strictly after (CreatedAt, EventID) are returned, so pagination is stable
// under concurrent appends.
type NotificationCursor struct {
	CreatedAt time.Time
	EventID   string
}

// After builds the cursor pointing just past the given event.
func After(event domain.NotificationEvent) NotificationCursor {
	return NotificationCursor{CreatedAt: event.CreatedAt, EventID: event.EventID}
}

// StreamLess reports whether a precedes b in stream order: created_at
// ascending, event_id breaking ties. The list query's ORDER BY must agree
// with this comparator; consumers re-sort with it so ordering never depends
// on the SQL text alone.
func StreamLess(a, b domain.NotificationEvent) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.EventID < b.EventID
}

// Admits reports whether the event lies strictly past the cursor. It is the
// Go form of the row-value comparison (created_at, event_id) > (c.CreatedAt,
// c.EventID) in the list query. A nil cursor admits everything.
func (c *NotificationCursor) Admits(event domain.NotificationEvent) bool {
	if c == nil {
		return true
	}
	if !event.CreatedAt.Equal(c.CreatedAt) {
		return event.CreatedAt.After(c.CreatedAt)
	}
	return event.EventID > c.EventID
}

// NotificationRepository handles persistence for notification events.
type NotificationRepository interface {
	Insert(ctx context.Context, event *domain.NotificationEvent) error
	ListByIdentityKey(ctx context.Context, key string, since *NotificationCursor, limit int) ([]domain.NotificationEvent, error)
	MarkRead(ctx context.Context, key, eventID string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `event_id, target_identity_key, kind, title, body, read_flag, created_at`

// Insert appends one event. A duplicate event id surfaces as the driver's
// unique-violation error; mapping to the domain taxonomy happens in the
// synchronizer.
func (r *notificationRepository) Insert(ctx context.Context, event *domain.NotificationEvent) error {
	const query = `
        INSERT INTO notification_events (event_id, target_identity_key, kind, title, body, read_flag, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.pool.Exec(ctx, query,
		event.EventID,
		event.TargetIdentityKey,
		event.Kind,
		event.Title,
		event.Body,
		event.Read,
		event.CreatedAt,
	)
	return err
}

func (r *notificationRepository) ListByIdentityKey(ctx context.Context, key string, since *NotificationCursor, limit int) ([]domain.NotificationEvent, error) {
	query := `
        SELECT ` + notificationColumns + `
        FROM notification_events
        WHERE target_identity_key=$1`
	args := []any{key}

	if since != nil {
		args = append(args, since.CreatedAt, since.EventID)
		query += ` AND (created_at, event_id) > ($2, $3)`
	}

	query += ` ORDER BY created_at ASC, event_id ASC`
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	if since != nil {
		query += ` LIMIT $4`
	} else {
		query += ` LIMIT $2`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NotificationEvent
	for rows.Next() {
		var event domain.NotificationEvent
		if err := rows.Scan(
			&event.EventID,
			&event.TargetIdentityKey,
			&event.Kind,
			&event.Title,
			&event.Body,
			&event.Read,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

// MarkRead flips the read flag. The identity key is part of the predicate so
// one staff member can never mark another's event.
func (r *notificationRepository) MarkRead(ctx context.Context, key, eventID string) error {
	const query = `
        UPDATE notification_events
        SET read_flag=TRUE
        WHERE event_id=$1 AND target_identity_key=$2`

	cmd, err := r.pool.Exec(ctx, query, eventID, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
