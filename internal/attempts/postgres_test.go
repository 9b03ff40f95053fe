package attempts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data    [][]any
	idx     int
	err     error
	closed  bool
	scanErr error
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// attemptRow builds one mockRows row in selectColumns order.
func attemptRow(id, learner, ref string, created time.Time) []any {
	return []any{id, learner, ref, "transcription", 80.0, 76.0, 72.0, 80.0, 1.5, created}
}

// ---------------------------------------------------------------------------
// Store tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "CREATE TABLE") {
					t.Errorf("Migrate SQL should contain CREATE TABLE, got: %s", sql)
				}
				return pgconn.CommandTag{}, nil
			},
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate() unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection refused")
			},
		}
		store := NewPostgresStore(db)
		err := store.Migrate(context.Background())
		if err == nil {
			t.Fatal("Migrate() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "attempts: migrate:") {
			t.Errorf("error = %q, want prefix 'attempts: migrate:'", err.Error())
		}
	})
}

func TestPostgresStore_Save(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any

		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = "attempt-1"
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		in := Attempt{
			LearnerID:        "learner-1",
			ReferenceText:    "three red birds",
			Transcription:    "tree red birds",
			AudioDurationSec: 1.5,
		}
		in.Score.Overall = 80
		in.Score.Accuracy = 76
		in.Score.Fluency = 72
		in.Score.Completeness = 80

		got, err := store.Save(context.Background(), in)
		if err != nil {
			t.Fatalf("Save() unexpected error: %v", err)
		}

		if !strings.Contains(capturedSQL, "INSERT INTO attempts") {
			t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 8 {
			t.Errorf("expected 8 args, got %d", len(capturedArgs))
		}
		if capturedArgs[0] != "learner-1" {
			t.Errorf("first arg = %v, want 'learner-1'", capturedArgs[0])
		}
		if got.ID != "attempt-1" {
			t.Errorf("ID = %q, want 'attempt-1'", got.ID)
		}
		if got.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, fixedTime)
		}
		if got.Score != in.Score {
			t.Errorf("Score = %+v, want %+v", got.Score, in.Score)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return errors.New("connection lost")
					},
				}
			},
		}
		store := NewPostgresStore(db)
		_, err := store.Save(context.Background(), Attempt{LearnerID: "x"})
		if err == nil {
			t.Fatal("Save() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "attempts: save:") {
			t.Errorf("error = %q, want prefix 'attempts: save:'", err.Error())
		}
	})
}

func TestPostgresStore_Recent(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("returns rows", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		rows := &mockRows{data: [][]any{
			attemptRow("a-2", "learner-1", "hello world", fixedTime),
			attemptRow("a-1", "learner-1", "good morning", fixedTime.Add(-time.Hour)),
		}}
		db := &mockDB{
			queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				capturedArgs = args
				if !strings.Contains(sql, "ORDER BY created_at DESC") {
					t.Errorf("Recent SQL should order newest first, got: %s", sql)
				}
				return rows, nil
			},
		}

		store := NewPostgresStore(db)
		got, err := store.Recent(context.Background(), "learner-1", 10)
		if err != nil {
			t.Fatalf("Recent() unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Recent() returned %d attempts, want 2", len(got))
		}
		if got[0].ID != "a-2" || got[1].ID != "a-1" {
			t.Errorf("attempts = %v, %v; want a-2 then a-1", got[0].ID, got[1].ID)
		}
		if got[0].Score.Overall != 80.0 {
			t.Errorf("Overall = %v, want 80.0", got[0].Score.Overall)
		}
		if capturedArgs[1] != 10 {
			t.Errorf("limit arg = %v, want 10", capturedArgs[1])
		}
		if !rows.closed {
			t.Error("Recent() must close the row set")
		}
	})

	t.Run("defaults limit", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				capturedArgs = args
				return &mockRows{}, nil
			},
		}
		store := NewPostgresStore(db)
		if _, err := store.Recent(context.Background(), "learner-1", 0); err != nil {
			t.Fatalf("Recent() unexpected error: %v", err)
		}
		if capturedArgs[1] != 20 {
			t.Errorf("limit arg = %v, want default 20", capturedArgs[1])
		}
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("connection lost")
			},
		}
		store := NewPostgresStore(db)
		if _, err := store.Recent(context.Background(), "learner-1", 5); err == nil {
			t.Fatal("Recent() expected error, got nil")
		}
	})

	t.Run("iteration error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return &mockRows{err: errors.New("stream cut")}, nil
			},
		}
		store := NewPostgresStore(db)
		_, err := store.Recent(context.Background(), "learner-1", 5)
		if err == nil {
			t.Fatal("Recent() expected iteration error, got nil")
		}
		if !strings.Contains(err.Error(), "attempts: iterate recent:") {
			t.Errorf("error = %q, want prefix 'attempts: iterate recent:'", err.Error())
		}
	})
}

func TestPostgresStore_LastForReference(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				if args[0] != "learner-1" || args[1] != "hello world" {
					t.Errorf("args = %v, want learner and reference", args)
				}
				if !strings.Contains(sql, "LIMIT 1") {
					t.Errorf("SQL should be limited to one row, got: %s", sql)
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = "a-1"
						*(dest[1].(*string)) = "learner-1"
						*(dest[2].(*string)) = "hello world"
						*(dest[3].(*string)) = "hello word"
						*(dest[4].(*float64)) = 80.0
						*(dest[5].(*float64)) = 76.0
						*(dest[6].(*float64)) = 72.0
						*(dest[7].(*float64)) = 80.0
						*(dest[8].(*float64)) = 1.5
						*(dest[9].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		got, err := store.LastForReference(context.Background(), "learner-1", "hello world")
		if err != nil {
			t.Fatalf("LastForReference() unexpected error: %v", err)
		}
		if got.ID != "a-1" || got.Transcription != "hello word" {
			t.Errorf("attempt = %+v, want a-1/hello word", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		_, err := store.LastForReference(context.Background(), "learner-1", "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return errors.New("connection lost")
					},
				}
			},
		}
		store := NewPostgresStore(db)
		_, err := store.LastForReference(context.Background(), "learner-1", "hello")
		if err == nil {
			t.Fatal("LastForReference() expected error, got nil")
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("generic db error must not map to ErrNotFound")
		}
	})
}
