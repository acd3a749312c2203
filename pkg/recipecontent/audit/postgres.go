// Package audit records image events in PostgreSQL.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

// DefaultSchema holds the events table unless configured otherwise
const DefaultSchema = "recipe"

// Event actions as stored in the action column
const (
	ActionStored   = "stored"
	ActionAccessed = "accessed"
	ActionRemoved  = "removed"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSink is an EventSink that appends every event to the
// recipe_image_events table
type PostgresSink struct {
	db     Execer
	insert string
	newID  func() uuid.UUID
}

var _ recipecontent.EventSink = (*PostgresSink)(nil)

// NewPostgresSink creates a sink writing to schema. An empty schema uses DefaultSchema.
func NewPostgresSink(db Execer, schema string) *PostgresSink {
	if schema == "" {
		schema = DefaultSchema
	}
	table := pgx.Identifier{schema, "recipe_image_events"}.Sanitize()
	return &PostgresSink{
		db: db,
		insert: `INSERT INTO ` + table + ` (
			id, recipe_uuid, object_key, action, user_uid, content_type, size, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		newID: uuid.New,
	}
}

func (s *PostgresSink) ImageStored(ctx context.Context, event recipecontent.ImageEvent) error {
	return s.record(ctx, ActionStored, event)
}

func (s *PostgresSink) ImageAccessed(ctx context.Context, event recipecontent.ImageEvent) error {
	return s.record(ctx, ActionAccessed, event)
}

func (s *PostgresSink) ImageRemoved(ctx context.Context, event recipecontent.ImageEvent) error {
	return s.record(ctx, ActionRemoved, event)
}

func (s *PostgresSink) record(ctx context.Context, action string, e recipecontent.ImageEvent) error {
	_, err := s.db.Exec(ctx, s.insert,
		s.newID(), e.RecipeUUID, e.ObjectKey, action, e.UserUID, e.ContentType, e.Size, e.OccurredAt)
	if err != nil {
		return handlePostgresError("record "+action, err)
	}
	return nil
}

func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		case "23514": // check_violation
			return fmt.Errorf("invalid event in %s: %w", operation, err)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
