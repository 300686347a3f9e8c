package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/content-engine/internal/types"
)

// ErrJobNotFound is returned when no job exists for the given id.
var ErrJobNotFound = errors.New("job not found")

// MemoryStore keeps jobs in process memory. Jobs are lost on restart; use
// PostgresStore when DATABASE_URL is set.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: map[string]*Job{}, now: time.Now}
}

func (s *MemoryStore) CreateJob(ctx context.Context, id string, input types.PipelineInput) (*Job, error) {
	if err := s.Cleanup(ctx, CleanupMaxAge); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[id]; ok {
		return cloneJob(existing), nil
	}
	now := s.now().UTC()
	job := &Job{
		ID:              id,
		Phase:           PhaseCreated,
		Input:           input,
		CreatedAt:       now,
		UpdatedAt:       now,
		PipelineVersion: Version,
		ChunkRecords:    initialChunkRecords(),
	}
	s.jobs[id] = job
	return cloneJob(job), nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *MemoryStore) UpdatePhase(ctx context.Context, id string, phase Phase, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Phase = phase
	job.UpdatedAt = s.now().UTC()
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	return nil
}

func (s *MemoryStore) SaveChunkOutput(ctx context.Context, id string, kind ChunkKind, output json.RawMessage, cost *types.ChunkCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	now := s.now().UTC()
	rec := job.ChunkRecords[kind]
	job.ChunkRecords[kind] = ChunkRecord{
		Status:       ChunkCompleted,
		AttemptCount: rec.AttemptCount + 1,
		Output:       output,
		CompletedAt:  &now,
		Cost:         cost,
	}
	if kind == ChunkPostprocess {
		job.Phase = PhaseCompleted
	}
	job.UpdatedAt = now
	return nil
}

func (s *MemoryStore) GetChunkOutput(ctx context.Context, id string, kind ChunkKind) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.CompletedOutput(kind), nil
}

func (s *MemoryStore) GetChunkRecord(ctx context.Context, id string, kind ChunkKind) (*ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	rec, ok := job.ChunkRecords[kind]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) SetChunkRunning(ctx context.Context, id string, kind ChunkKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	rec := job.ChunkRecords[kind]
	rec.Status = ChunkRunning
	job.ChunkRecords[kind] = rec
	job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) SetChunkFailed(ctx context.Context, id string, kind ChunkKind, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	rec := job.ChunkRecords[kind]
	rec.Status = ChunkFailed
	rec.AttemptCount++
	rec.ErrorMessage = errorMessage
	job.ChunkRecords[kind] = rec
	job.ErrorMessage = errorMessage
	job.Phase = PhaseFailed
	job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().UTC().Add(-maxAge)
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	return nil
}

// cloneJob copies the job so callers cannot mutate store state through the
// returned pointer.
func cloneJob(j *Job) *Job {
	out := *j
	out.ChunkRecords = make(map[ChunkKind]ChunkRecord, len(j.ChunkRecords))
	for k, v := range j.ChunkRecords {
		out.ChunkRecords[k] = v
	}
	return &out
}
