package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/content-engine/internal/jobs"
	"github.com/jonathan/content-engine/internal/pipeline"
)

// statusForError maps pipeline and store errors to HTTP status codes.
// Precondition failures (an upstream stage has not completed) are conflicts;
// bad inputs are 400s; anything else is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrKeywordRequired),
		errors.Is(err, pipeline.ErrURLsNotAccessible),
		errors.Is(err, pipeline.ErrEmptyOutline):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrResearchNotCompleted),
		errors.Is(err, pipeline.ErrBriefNotCompleted),
		errors.Is(err, pipeline.ErrDraftNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
