package attempts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the attempts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    learner_id         TEXT NOT NULL,
    reference_text     TEXT NOT NULL,
    transcription      TEXT NOT NULL DEFAULT '',
    overall            DOUBLE PRECISION NOT NULL,
    accuracy           DOUBLE PRECISION NOT NULL,
    fluency            DOUBLE PRECISION NOT NULL,
    completeness       DOUBLE PRECISION NOT NULL,
    audio_duration_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_attempts_learner ON attempts(learner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_reference ON attempts(learner_id, reference_text, created_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("attempts: migrate: %w", err)
	}
	return nil
}

// Save inserts the attempt and returns it with the generated ID and
// creation timestamp filled in.
func (s *PostgresStore) Save(ctx context.Context, a Attempt) (Attempt, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO attempts (learner_id, reference_text, transcription,
		                      overall, accuracy, fluency, completeness, audio_duration_sec)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		a.LearnerID, a.ReferenceText, a.Transcription,
		a.Score.Overall, a.Score.Accuracy, a.Score.Fluency, a.Score.Completeness,
		a.AudioDurationSec,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return Attempt{}, fmt.Errorf("attempts: save: %w", err)
	}
	return a, nil
}

// Recent returns up to limit attempts for the learner, newest first.
func (s *PostgresStore) Recent(ctx context.Context, learnerID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, selectColumns+`
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("attempts: query recent: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attempts: iterate recent: %w", err)
	}
	return out, nil
}

// LastForReference returns the learner's most recent attempt at the given
// reference text.
func (s *PostgresStore) LastForReference(ctx context.Context, learnerID, referenceText string) (Attempt, error) {
	row := s.db.QueryRow(ctx, selectColumns+`
		WHERE learner_id = $1 AND reference_text = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		learnerID, referenceText,
	)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

const selectColumns = `
	SELECT id, learner_id, reference_text, transcription,
	       overall, accuracy, fluency, completeness, audio_duration_sec, created_at
	FROM attempts`

// scanAttempt reads one attempt row from either a pgx.Row or pgx.Rows.
func scanAttempt(row pgx.Row) (Attempt, error) {
	var a Attempt
	err := row.Scan(
		&a.ID, &a.LearnerID, &a.ReferenceText, &a.Transcription,
		&a.Score.Overall, &a.Score.Accuracy, &a.Score.Fluency, &a.Score.Completeness,
		&a.AudioDurationSec, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attempt{}, err
		}
		return Attempt{}, fmt.Errorf("attempts: scan: %w", err)
	}
	return a, nil
}
