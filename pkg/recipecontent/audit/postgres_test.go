package audit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPostgresSink_Record(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := recipecontent.ImageEvent{
		RecipeUUID:  "recipe-123",
		ObjectKey:   "recipeImage_recipe-123",
		UserUID:     "user-1",
		ContentType: "image/png",
		Size:        42,
		OccurredAt:  at,
	}
	id := uuid.MustParse("7f1c7c3e-9d8b-4a55-8f0e-3b1f1d3c2a10")

	tests := []struct {
		name   string
		fire   func(*PostgresSink) error
		action string
	}{
		{"stored", func(s *PostgresSink) error { return s.ImageStored(context.Background(), event) }, ActionStored},
		{"accessed", func(s *PostgresSink) error { return s.ImageAccessed(context.Background(), event) }, ActionAccessed},
		{"removed", func(s *PostgresSink) error { return s.ImageRemoved(context.Background(), event) }, ActionRemoved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeExecer{}
			sink := NewPostgresSink(db, "")
			sink.newID = func() uuid.UUID { return id }

			require.NoError(t, tt.fire(sink))
			require.Len(t, db.calls, 1)

			call := db.calls[0]
			assert.Contains(t, call.sql, `INSERT INTO "recipe"."recipe_image_events"`)
			assert.Equal(t, []any{id, "recipe-123", "recipeImage_recipe-123", tt.action, "user-1", "image/png", int64(42), at}, call.args)
		})
	}
}

func TestPostgresSink_Schema(t *testing.T) {
	db := &fakeExecer{}
	sink := NewPostgresSink(db, `tenant"a`)
	require.NoError(t, sink.ImageRemoved(context.Background(), recipecontent.ImageEvent{RecipeUUID: "r"}))
	assert.Contains(t, db.calls[0].sql, `INSERT INTO "tenant""a"."recipe_image_events"`)
}

func TestPostgresSink_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"missing table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, "database migration required"},
		{"check violation", &pgconn.PgError{Code: "23514", Message: "violates check"}, "invalid event in record stored"},
		{"other", errors.New("connection reset"), "database error in record stored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewPostgresSink(&fakeExecer{err: tt.err}, "")
			err := sink.ImageStored(context.Background(), recipecontent.ImageEvent{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestWithSearchPath(t *testing.T) {
	got, err := withSearchPath("postgres://u:p@localhost:5432/db?sslmode=disable", "recipe")
	require.NoError(t, err)
	assert.Contains(t, got, "search_path=recipe")
	assert.Contains(t, got, "sslmode=disable")

	_, err = withSearchPath("host=localhost dbname=db", "recipe")
	assert.Error(t, err)

	_, err = withSearchPath("mysql://localhost/db", "recipe")
	assert.Error(t, err)
}

func TestPostgresSink_Integration(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "recipe_audit_test"
	require.NoError(t, Migrate(ctx, databaseURL, schema))
	// a second run is a no-op
	require.NoError(t, Migrate(ctx, databaseURL, schema))

	pool, err := Connect(ctx, databaseURL)
	require.NoError(t, err)
	defer pool.Close()

	recipeUUID := uuid.NewString()
	sink := NewPostgresSink(pool, schema)
	event := recipecontent.ImageEvent{
		RecipeUUID: recipeUUID,
		ObjectKey:  "recipeImage_" + recipeUUID,
		UserUID:    "user-1",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, sink.ImageStored(ctx, event))
	require.NoError(t, sink.ImageRemoved(ctx, event))

	var count int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM "recipe_audit_test"."recipe_image_events" WHERE recipe_uuid = $1`, recipeUUID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
