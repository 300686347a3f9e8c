package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

// CreateJobRequest represents the request body for POST /jobs
type CreateJobRequest struct {
	ID    string              `json:"id,omitempty"`
	Input types.PipelineInput `json:"input"`
}

// ChunkView is the per-chunk slice of a job returned to clients.
type ChunkView struct {
	Status       jobs.ChunkStatus `json:"status"`
	AttemptCount int              `json:"attempt_count"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CostUSD      float64          `json:"cost_usd,omitempty"`
}

// JobResponse represents a job record including per-chunk progress and the
// spend already sunk into completed chunks (what resuming saves).
type JobResponse struct {
	ID           string                       `json:"id"`
	Phase        jobs.Phase                   `json:"phase"`
	Input        types.PipelineInput          `json:"input"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
	ErrorMessage string                       `json:"error_message,omitempty"`
	Chunks       map[jobs.ChunkKind]ChunkView `json:"chunks"`
	SunkCostUSD  float64                      `json:"sunk_cost_usd"`
}

// FetchRequest represents the request body for the research fetch stage
type FetchRequest struct {
	SelectedURLs []string `json:"selected_urls" validate:"required,min=1,dive,url"`
}

// BriefRequest represents the request body for the brief stage
type BriefRequest struct {
	Revise          bool `json:"revise,omitempty"`
	WordCountTarget int  `json:"word_count_target,omitempty" validate:"omitempty,min=500,max=6000"`
}

// DraftRequest represents the request body for the draft stage
type DraftRequest struct {
	Overrides *types.BriefOverrides `json:"overrides,omitempty"`
}

// RetryRequest represents the request body for POST /jobs/{id}/retry
type RetryRequest struct {
	SelectedURLs []string `json:"selected_urls,omitempty" validate:"omitempty,min=1,dive,url"`
}

func jobResponse(job *jobs.Job) JobResponse {
	chunks := make(map[jobs.ChunkKind]ChunkView, len(job.ChunkRecords))
	for kind, rec := range job.ChunkRecords {
		view := ChunkView{
			Status:       rec.Status,
			AttemptCount: rec.AttemptCount,
			ErrorMessage: rec.ErrorMessage,
			CompletedAt:  rec.CompletedAt,
		}
		if rec.Cost != nil {
			view.CostUSD = rec.Cost.EstimatedCostUSD
		}
		chunks[kind] = view
	}
	sunk, _ := metrics.SumChunkCosts(job.CompletedCosts())
	return JobResponse{
		ID:           job.ID,
		Phase:        job.Phase,
		Input:        job.Input,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		ErrorMessage: job.ErrorMessage,
		Chunks:       chunks,
		SunkCostUSD:  sunk,
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v zeroed.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

// handleCreateJob creates a new pipeline job
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.validate.Struct(req.Input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	job, err := s.store.CreateJob(r.Context(), req.ID, req.Input)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create job: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, jobResponse(job))
}

// handleGetJob returns the job record with per-chunk progress
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, jobResponse(job))
}

// handleResearchSERP runs the search-listing phase of research
func (s *Server) handleResearchSERP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	results, err := s.runner.RunResearchSERP(r.Context(), id, job.Input)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"serp_results": results})
}

// handleResearchFetch fetches the selected URLs and gathers grounded facts
func (s *Server) handleResearchFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result, err := s.runner.RunResearchFetch(r.Context(), r.PathValue("id"), req.SelectedURLs, s.researchBudget)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleBrief builds (or revises) the content brief
func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	var req BriefRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	opts := pipeline.BriefOptions{Revise: req.Revise, WordCountTarget: req.WordCountTarget}
	brief, err := s.runner.RunBrief(r.Context(), r.PathValue("id"), opts, s.briefBudget)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, brief)
}

// handleDraft writes the draft, applying any transient brief overrides
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	draft, err := s.runner.RunDraft(r.Context(), r.PathValue("id"), req.Overrides, s.draftBudget)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, draft)
}

// handleValidate runs post-processing and completes the job
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	output, err := s.runner.RunValidate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, output)
}

// handleResult returns the assembled result of a completed job
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRetry re-runs the first failed chunk. Completed chunk outputs are
// left untouched; the rerun resumes from persisted upstream outputs.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req RetryRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	var failed jobs.ChunkKind
	for _, kind := range jobs.ChunkOrder {
		if rec, ok := job.ChunkRecords[kind]; ok && rec.Status == jobs.ChunkFailed {
			failed = kind
			break
		}
	}
	if failed == "" {
		s.errorResponse(w, http.StatusConflict, "no failed chunk to retry")
		return
	}

	log.Printf("Retrying chunk %s for job %s", failed, id)

	var output any
	switch failed {
	case jobs.ChunkResearch:
		if len(req.SelectedURLs) == 0 {
			s.errorResponse(w, http.StatusBadRequest, "selected_urls is required to retry research")
			return
		}
		output, err = s.runner.RunResearchFetch(r.Context(), id, req.SelectedURLs, s.researchBudget)
	case jobs.ChunkAnalysis:
		output, err = s.runner.RunBrief(r.Context(), id, pipeline.BriefOptions{}, s.briefBudget)
	case jobs.ChunkDraft:
		output, err = s.runner.RunDraft(r.Context(), id, nil, s.draftBudget)
	case jobs.ChunkPostprocess:
		output, err = s.runner.RunValidate(r.Context(), id)
	}
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"chunk":  failed,
		"result": output,
	})
}

// handleMetrics returns recent run metrics and an aggregate view
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.runs.snapshot())
}

// MetricsAggregate summarizes all runs recorded since startup.
type MetricsAggregate struct {
	Runs          int     `json:"runs"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
	AvgDurationMs int64   `json:"avg_duration_ms"`
}

// MetricsResponse is the GET /metrics payload.
type MetricsResponse struct {
	Recent    []metrics.RunMetrics `json:"recent"`
	Aggregate MetricsAggregate     `json:"aggregate"`
}

const runLogCapacity = 20

// runLog keeps the most recent run metrics in memory for GET /metrics.
type runLog struct {
	mu        sync.Mutex
	recent    []metrics.RunMetrics
	runs      int
	completed int
	failed    int
	totalCost float64
	totalMs   int64
}

func newRunLog() *runLog {
	return &runLog{}
}

func (l *runLog) add(m metrics.RunMetrics) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recent = append([]metrics.RunMetrics{m}, l.recent...)
	if len(l.recent) > runLogCapacity {
		l.recent = l.recent[:runLogCapacity]
	}
	l.runs++
	if m.Status == "completed" {
		l.completed++
	} else {
		l.failed++
	}
	l.totalCost += m.EstimatedCostUSD
	l.totalMs += m.TotalDurationMs
}

func (l *runLog) snapshot() MetricsResponse {
	l.mu.Lock()
	defer l.mu.Unlock()

	agg := MetricsAggregate{
		Runs:         l.runs,
		Completed:    l.completed,
		Failed:       l.failed,
		TotalCostUSD: l.totalCost,
	}
	if l.runs > 0 {
		agg.AvgDurationMs = l.totalMs / int64(l.runs)
	}
	recent := make([]metrics.RunMetrics, len(l.recent))
	copy(recent, l.recent)
	return MetricsResponse{Recent: recent, Aggregate: agg}
}
