package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/content-engine/internal/types"
)

// PostgresStore persists jobs in a pipeline_jobs table so they survive
// restarts and are shared across instances. Chunk records live in a single
// jsonb column; writes patch one chunk's entry with jsonb_set so concurrent
// chunk updates never clobber each other's records.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool against databaseURL, verifies it, and ensures
// the pipeline_jobs table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_jobs (
			id TEXT PRIMARY KEY,
			phase TEXT NOT NULL,
			input JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			error_message TEXT,
			pipeline_version TEXT NOT NULL,
			chunk_records JSONB NOT NULL DEFAULT '{}'::jsonb
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure pipeline_jobs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, id string, input types.PipelineInput) (*Job, error) {
	if err := s.Cleanup(ctx, CleanupMaxAge); err != nil {
		log.Printf("[jobs] cleanup before create failed: %v", err)
	}
	now := time.Now().UTC()
	job := &Job{
		ID:              id,
		Phase:           PhaseCreated,
		Input:           input,
		CreatedAt:       now,
		UpdatedAt:       now,
		PipelineVersion: Version,
		ChunkRecords:    initialChunkRecords(),
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job input: %w", err)
	}
	recordsJSON, err := json.Marshal(job.ChunkRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chunk records: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_jobs (id, phase, input, created_at, updated_at, error_message, pipeline_version, chunk_records)
		 VALUES ($1, $2, $3, $4, $5, NULL, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		id, job.Phase, inputJSON, job.CreatedAt, job.UpdatedAt, job.PipelineVersion, recordsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job %s: %w", id, err)
	}
	// The insert may have been a no-op on conflict; return the stored row.
	return s.GetJob(ctx, id)
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*Job, error) {
	var (
		job         Job
		inputJSON   []byte
		recordsJSON []byte
		errMsg      *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, phase, input, created_at, updated_at, error_message, pipeline_version, chunk_records
		 FROM pipeline_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.Phase, &inputJSON, &job.CreatedAt, &job.UpdatedAt, &errMsg, &job.PipelineVersion, &recordsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	if err := json.Unmarshal(inputJSON, &job.Input); err != nil {
		return nil, fmt.Errorf("failed to decode job input for %s: %w", id, err)
	}
	if err := json.Unmarshal(recordsJSON, &job.ChunkRecords); err != nil {
		return nil, fmt.Errorf("failed to decode chunk records for %s: %w", id, err)
	}
	if job.ChunkRecords == nil {
		job.ChunkRecords = map[ChunkKind]ChunkRecord{}
	}
	return &job, nil
}

func (s *PostgresStore) UpdatePhase(ctx context.Context, id string, phase Phase, errorMessage *string) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if errorMessage != nil {
		tag, err = s.pool.Exec(ctx,
			`UPDATE pipeline_jobs SET phase = $1, updated_at = $2, error_message = $3 WHERE id = $4`,
			phase, time.Now().UTC(), *errorMessage, id)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE pipeline_jobs SET phase = $1, updated_at = $2 WHERE id = $3`,
			phase, time.Now().UTC(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update phase for job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) SaveChunkOutput(ctx context.Context, id string, kind ChunkKind, output json.RawMessage, cost *types.ChunkCost) error {
	now := time.Now().UTC()
	if output == nil {
		output = json.RawMessage("{}")
	}
	costJSON := []byte("null")
	if cost != nil {
		var err error
		costJSON, err = json.Marshal(cost)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk cost: %w", err)
		}
	}
	completedAtJSON, _ := json.Marshal(now)
	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_jobs
		SET
			chunk_records = jsonb_set(
				CASE WHEN jsonb_typeof(chunk_records) = 'object' THEN chunk_records ELSE '{}'::jsonb END,
				ARRAY[$2],
				jsonb_build_object(
					'status', 'completed',
					'attempt_count', COALESCE((chunk_records->$2->>'attempt_count')::int, 0) + 1,
					'output', $3::jsonb,
					'completed_at', $4::jsonb,
					'cost', $5::jsonb
				)
			),
			updated_at = $6,
			phase = CASE WHEN $2 = 'postprocess' THEN 'completed' ELSE phase END
		WHERE id = $1`,
		id, string(kind), []byte(output), completedAtJSON, costJSON, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s output for job %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) GetChunkOutput(ctx context.Context, id string, kind ChunkKind) (json.RawMessage, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.CompletedOutput(kind), nil
}

func (s *PostgresStore) GetChunkRecord(ctx context.Context, id string, kind ChunkKind) (*ChunkRecord, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, ok := job.ChunkRecords[kind]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *PostgresStore) SetChunkRunning(ctx context.Context, id string, kind ChunkKind) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_jobs
		SET
			chunk_records = jsonb_set(
				CASE WHEN jsonb_typeof(chunk_records) = 'object' THEN chunk_records ELSE '{}'::jsonb END,
				ARRAY[$2],
				jsonb_build_object(
					'status', 'running',
					'attempt_count', COALESCE((chunk_records->$2->>'attempt_count')::int, 0)
				)
			),
			updated_at = $3
		WHERE id = $1`,
		id, string(kind), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s running for job %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) SetChunkFailed(ctx context.Context, id string, kind ChunkKind, errorMessage string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_jobs
		SET
			chunk_records = jsonb_set(
				CASE WHEN jsonb_typeof(chunk_records) = 'object' THEN chunk_records ELSE '{}'::jsonb END,
				ARRAY[$2],
				jsonb_build_object(
					'status', 'failed',
					'attempt_count', COALESCE((chunk_records->$2->>'attempt_count')::int, 0) + 1,
					'error_message', to_jsonb($3::text)
				)
			),
			updated_at = $4,
			error_message = $3,
			phase = 'failed'
		WHERE id = $1`,
		id, string(kind), errorMessage, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s failed for job %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PostgresStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	_, err := s.pool.Exec(ctx, `DELETE FROM pipeline_jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old jobs: %w", err)
	}
	return nil
}
