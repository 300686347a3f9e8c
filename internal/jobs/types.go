// Package jobs persists chunked, resumable pipeline jobs. Each chunk's
// status, attempt count, error, output, and cost are tracked so a failed run
// can resume from the last completed chunk instead of starting over.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonathan/content-engine/internal/types"
)

// Version is bumped when chunk inputs/outputs or the job schema change, so
// stale data from an old deploy is not reused on retry.
const Version = "1.0"

// CleanupMaxAge is how long finished or abandoned jobs are retained.
const CleanupMaxAge = time.Hour

// Phase is a job's overall lifecycle state.
type Phase string

const (
	PhaseCreated          Phase = "created"
	PhaseResearching      Phase = "researching"
	PhaseAnalyzing        Phase = "analyzing"
	PhaseWaitingForReview Phase = "waiting_for_review"
	PhaseDrafting         Phase = "drafting"
	PhasePostProcessing   Phase = "post_processing"
	PhaseCompleted        Phase = "completed"
	PhaseFailed           Phase = "failed"
)

// ChunkKind names one resumable unit of work.
type ChunkKind string

const (
	ChunkResearchSERP    ChunkKind = "research_serp"
	ChunkResearch        ChunkKind = "research"
	ChunkTopicExtraction ChunkKind = "topic_extraction"
	ChunkAnalysis        ChunkKind = "analysis"
	ChunkDraft           ChunkKind = "draft"
	ChunkPostprocess     ChunkKind = "postprocess"
)

// ChunkOrder is the resume/retry sequence. research_serp and topic_extraction
// are persisted as cache chunks but are not resume points themselves.
var ChunkOrder = []ChunkKind{ChunkResearch, ChunkAnalysis, ChunkDraft, ChunkPostprocess}

// ChunkStatus is one chunk's state within a job.
type ChunkStatus string

const (
	ChunkPending   ChunkStatus = "pending"
	ChunkRunning   ChunkStatus = "running"
	ChunkCompleted ChunkStatus = "completed"
	ChunkFailed    ChunkStatus = "failed"
)

// ChunkRecord tracks one chunk's status, attempts, error, output, and cost.
// Output is raw JSON; concrete types are decoded at the use site.
type ChunkRecord struct {
	Status       ChunkStatus      `json:"status"`
	AttemptCount int              `json:"attempt_count"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Output       json.RawMessage  `json:"output,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Cost         *types.ChunkCost `json:"cost,omitempty"`
}

// Job is the persisted record of one pipeline run.
type Job struct {
	ID              string                    `json:"id"`
	Phase           Phase                     `json:"phase"`
	Input           types.PipelineInput       `json:"input"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	ErrorMessage    string                    `json:"error_message,omitempty"`
	PipelineVersion string                    `json:"pipeline_version"`
	ChunkRecords    map[ChunkKind]ChunkRecord `json:"chunk_records"`
}

// CompletedOutput returns the stored output of a completed chunk, or nil.
func (j *Job) CompletedOutput(kind ChunkKind) json.RawMessage {
	rec, ok := j.ChunkRecords[kind]
	if !ok || rec.Status != ChunkCompleted || rec.Output == nil {
		return nil
	}
	return rec.Output
}

// CompletedCosts collects the cost records of completed chunks, used to
// report what resuming saves.
func (j *Job) CompletedCosts() []types.ChunkCost {
	var out []types.ChunkCost
	for _, kind := range ChunkOrder {
		rec, ok := j.ChunkRecords[kind]
		if ok && rec.Status == ChunkCompleted && rec.Cost != nil {
			out = append(out, *rec.Cost)
		}
	}
	return out
}

// Store persists jobs and chunk records. Implementations must be safe for
// concurrent use.
type Store interface {
	// CreateJob inserts a new job in phase created, first sweeping jobs
	// older than CleanupMaxAge. Creating an existing id is a no-op that
	// returns the stored job.
	CreateJob(ctx context.Context, id string, input types.PipelineInput) (*Job, error)
	// GetJob returns the job or ErrJobNotFound.
	GetJob(ctx context.Context, id string) (*Job, error)
	// UpdatePhase sets the job phase. A non-nil errorMessage replaces the
	// job-level error; pass nil to leave it untouched.
	UpdatePhase(ctx context.Context, id string, phase Phase, errorMessage *string) error
	// SaveChunkOutput marks the chunk completed with its output and cost,
	// bumping the attempt count and clearing the chunk error. Completing
	// the postprocess chunk also moves the job to phase completed.
	SaveChunkOutput(ctx context.Context, id string, kind ChunkKind, output json.RawMessage, cost *types.ChunkCost) error
	// GetChunkOutput returns a completed chunk's output, or nil when the
	// chunk has not completed.
	GetChunkOutput(ctx context.Context, id string, kind ChunkKind) (json.RawMessage, error)
	// GetChunkRecord returns the chunk record, or nil when none exists.
	GetChunkRecord(ctx context.Context, id string, kind ChunkKind) (*ChunkRecord, error)
	// SetChunkRunning marks the chunk running without bumping attempts.
	SetChunkRunning(ctx context.Context, id string, kind ChunkKind) error
	// SetChunkFailed marks the chunk failed, bumps its attempt count, and
	// moves the job to phase failed with the chunk's error message.
	SetChunkFailed(ctx context.Context, id string, kind ChunkKind, errorMessage string) error
	// Cleanup removes jobs created before now minus maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

func initialChunkRecords() map[ChunkKind]ChunkRecord {
	out := make(map[ChunkKind]ChunkRecord, len(ChunkOrder))
	for _, k := range ChunkOrder {
		out[k] = ChunkRecord{Status: ChunkPending}
	}
	return out
}
