package insights

import "errors"

// The caller-visible failure kinds. A search either returns a complete
// report or exactly one of these; per-campaign enrichment failures are
// not errors, they degrade to empty values inside the report.
var (
	// ErrMissingParameter means the keyword was absent or blank; no
	// upstream call is made.
	ErrMissingParameter = errors.New("keyword is required")

	// ErrServerMisconfigured means no upstream API key is configured
	ErrServerMisconfigured = errors.New("upstream API key is not configured")

	// ErrRequestCancelled means the caller's context was cancelled while
	// the search was in flight; no partial report is returned.
	ErrRequestCancelled = errors.New("search cancelled")
)
