package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jonathan/content-engine/internal/metrics"
	"github.com/jonathan/content-engine/internal/pipeline"
	"github.com/jonathan/content-engine/internal/types"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(jobID, status string) {
	s.WriteEvent("complete", map[string]string{ //nolint:errcheck
		"job_id": jobID,
		"status": status,
	})
}

// StreamRunRequest is the request body for POST /jobs/{id}/run/stream.
// When selected_urls is empty the top article-like search results are used.
type StreamRunRequest struct {
	SelectedURLs []string `json:"selected_urls,omitempty" validate:"omitempty,min=1,dive,url"`
}

// handleRunStream runs the whole pipeline for a job, chunk by chunk,
// streaming a progress event after each stage via SSE.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req StreamRunRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.errorResponse(w, statusForError(err), err.Error())
		return
	}

	// Setup SSE writer
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("Starting streaming pipeline run for job %s", id)

	// Record this run with its own collector; the shared runner stays
	// untouched for concurrent per-stage calls.
	collector := metrics.NewCollector(id, job.Input.PrimaryKeyword)
	runner := *s.runner
	runner.Metrics = collector

	fail := func(chunk string, cause error) {
		s.runs.add(collector.FinishRun("failed", chunk))
		log.Printf("Streaming run failed for job %s at %s: %v", id, chunk, cause)
		sse.WriteError(cause.Error())
	}

	ctx := r.Context()

	serp, err := runner.RunResearchSERP(ctx, id, job.Input)
	if err != nil {
		fail("research_serp", err)
		return
	}
	sse.WriteEvent("serp", map[string]any{"results": len(serp)}) //nolint:errcheck

	urls := req.SelectedURLs
	if len(urls) == 0 {
		urls = selectTopArticles(serp, pipeline.MaxSelectedURLs)
	}
	if len(urls) == 0 {
		fail("research", fmt.Errorf("no article results to fetch; supply selected_urls"))
		return
	}

	research, err := runner.RunResearchFetch(ctx, id, urls, s.researchBudget)
	if err != nil {
		fail("research", err)
		return
	}
	sse.WriteEvent("research", research.Summary) //nolint:errcheck

	brief, err := runner.RunBrief(ctx, id, pipeline.BriefOptions{}, s.briefBudget)
	if err != nil {
		fail("analysis", err)
		return
	}
	sse.WriteEvent("brief", map[string]any{ //nolint:errcheck
		"sections":     len(brief.Outline.Sections),
		"target_words": brief.WordCount.Target,
	})

	draft, err := runner.RunDraft(ctx, id, nil, s.draftBudget)
	if err != nil {
		fail("draft", err)
		return
	}
	sse.WriteEvent("draft", map[string]any{"word_count": draft.WordCount()}) //nolint:errcheck

	validation, err := runner.RunValidate(ctx, id)
	if err != nil {
		fail("postprocess", err)
		return
	}
	sse.WriteEvent("validate", map[string]any{ //nolint:errcheck
		"audit_score": validation.AuditResult.Score,
		"publishable": validation.AuditResult.Publishable,
	})

	result, err := runner.Result(ctx, id)
	if err != nil {
		fail("postprocess", err)
		return
	}
	sse.WriteEvent("result", result) //nolint:errcheck

	s.runs.add(collector.FinishRun("completed", ""))
	sse.WriteComplete(id, "completed")
	log.Printf("Streaming pipeline run completed for job %s", id)
}

// selectTopArticles picks up to max article-like results in listing order.
func selectTopArticles(results []types.SerpResult, max int) []string {
	var urls []string
	for _, r := range results {
		if !r.IsArticle {
			continue
		}
		urls = append(urls, r.URL)
		if len(urls) == max {
			break
		}
	}
	return urls
}
