package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/provider"
)

var (
	// ErrNoScraperGroup is returned when a run has no group to work from.
	ErrNoScraperGroup = errors.New("no scraper group")

	// ErrUnknownScraperGroup is returned when a movie names a group that is not defined.
	ErrUnknownScraperGroup = errors.New("unknown scraper group")

	// ErrIdentifierUnresolvable is returned when no identifier can be found
	// for a backend, either from the movie or from a search.
	ErrIdentifierUnresolvable = errors.New("identifier unresolvable")

	// ErrCapabilityMissing is returned when a backend is asked for a field it
	// does not declare or implement.
	ErrCapabilityMissing = errors.New("backend does not implement field")
)

// Status is the terminal state of a field within one run.
type Status int

const (
	StatusNotAttempted Status = iota
	StatusSkipped
	StatusApplied
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotAttempted:
		return "not attempted"
	case StatusSkipped:
		return "skipped"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// FailureKind says why a field failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureBackendNotFound
	FailureUnsupported
	FailureIdentifierUnresolvable
	FailureScrape
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailureBackendNotFound:
		return "backend not found"
	case FailureUnsupported:
		return "unsupported field"
	case FailureIdentifierUnresolvable:
		return "identifier unresolvable"
	case FailureScrape:
		return "scrape failed"
	case FailureCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Outcome records what happened to one field.
type Outcome struct {
	Field   provider.Field
	Backend string
	Status  Status
	Failure FailureKind
	Err     error
	Elapsed time.Duration
}

// Report is the result of one run. It lives only as long as the caller
// keeps it and is never persisted.
type Report struct {
	RunID    string
	Group    string
	Movie    string
	Outcomes []Outcome

	// Success is the logical AND over all non-skipped outcomes.
	Success bool

	// Err is set when the run stopped early because its context ended.
	Err error
}

// Outcome returns the outcome recorded for f.
func (r *Report) Outcome(f provider.Field) Outcome {
	for _, o := range r.Outcomes {
		if o.Field == f {
			return o
		}
	}
	return Outcome{Field: f}
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in dispatch order.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

func newReport(runID, groupName, movie string) *Report {
	fields := provider.Fields()
	r := &Report{
		RunID:    runID,
		Group:    groupName,
		Movie:    movie,
		Outcomes: make([]Outcome, len(fields)),
	}
	for i, f := range fields {
		r.Outcomes[i] = Outcome{Field: f, Status: StatusNotAttempted}
	}
	return r
}

func (r *Report) finish() {
	ok := r.Err == nil
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusNotAttempted {
			ok = false
		}
	}
	r.Success = ok
}
