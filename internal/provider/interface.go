package provider

import (
	"context"
	"fmt"
	"maps"
	"strings"
)

// IDKind names the identifier a backend needs to answer field requests.
type IDKind int

const (
	// IDKindNone means the backend needs no identifier.
	IDKindNone IDKind = iota
	// IDKindTitle means the movie title text is the identifier.
	IDKindTitle
	// IDKindImdb means an IMDb id ("tt0468569").
	IDKindImdb
	// IDKindTmdb means a numeric TMDB id.
	IDKindTmdb
	// IDKindProvider means an identifier only this backend understands.
	IDKindProvider
	// IDKindFile means the path of the local media file.
	IDKindFile
)

func (k IDKind) String() string {
	switch k {
	case IDKindNone:
		return "none"
	case IDKindTitle:
		return "title"
	case IDKindImdb:
		return "imdb"
	case IDKindTmdb:
		return "tmdb"
	case IDKindProvider:
		return "provider"
	case IDKindFile:
		return "file"
	default:
		return fmt.Sprintf("IDKind(%d)", int(k))
	}
}

// Descriptor is the static description a backend publishes about itself.
type Descriptor struct {
	Name        string
	Description string

	// Fields lists the fields the backend can scrape.
	Fields []Field

	// IDKind is the identifier the backend's field operations expect.
	IDKind IDKind

	// Bootstrap names the backend whose Search resolves this backend's
	// identifier. Empty means the backend searches for itself.
	Bootstrap string

	// DualID marks backends whose search candidates carry both an IMDb and
	// a TMDB id.
	DualID bool

	RequiresAuth bool
}

// Supports reports whether the descriptor declares f.
func (d Descriptor) Supports(f Field) bool {
	for _, candidate := range d.Fields {
		if candidate == f {
			return true
		}
	}
	return false
}

// Query is the input of a backend search.
type Query struct {
	Title       string
	Year        int
	ImdbID      string
	TmdbID      string
	ProviderIDs map[string]string
}

// Candidate is one search hit. Backends fill whatever identifiers they know.
type Candidate struct {
	Title       string
	Year        int
	ImdbID      string
	TmdbID      string
	ProviderIDs map[string]string
}

// IDFor returns the candidate's identifier for the given kind, using backend
// to pick a provider specific id.
func (c Candidate) IDFor(kind IDKind, backend string) string {
	switch kind {
	case IDKindImdb:
		return c.ImdbID
	case IDKindTmdb:
		return c.TmdbID
	case IDKindProvider:
		if c.ProviderIDs == nil {
			return ""
		}
		return c.ProviderIDs[backend]
	default:
		return ""
	}
}

// WithProviderID returns a copy of c carrying an additional provider id.
func (c Candidate) WithProviderID(backend, id string) Candidate {
	ids := maps.Clone(c.ProviderIDs)
	if ids == nil {
		ids = make(map[string]string, 1)
	}
	ids[backend] = id
	c.ProviderIDs = ids
	return c
}

// FieldRequest is passed to every per-field scrape operation.
type FieldRequest struct {
	// ID is the identifier resolved for the backend.
	ID string

	// Region selects the backend's configured language or locale variant.
	Region int

	// LogContext is a human readable label such as "Scrape > Title > Imdb".
	LogContext string
}

// TitleResult is returned by title scrapes: the primary title and any
// alternate titles the backend knows.
type TitleResult struct {
	Title      string
	Alternates []string
}

// Backend is the contract every metadata source implements. Field operations
// are exposed through the optional capability interfaces in capability.go;
// a backend must implement the capability for every field it declares.
//
// Backends never modify the movie record. A nil error means the returned
// value is usable; any error means the field could not be scraped.
type Backend interface {
	Descriptor() Descriptor
	Search(ctx context.Context, query Query) ([]Candidate, error)
}

// Error codes used in ProviderError.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnsupported    = "UNSUPPORTED"
	CodeUnknown        = "UNKNOWN"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" || strings.HasPrefix(e.Message, e.Provider) {
		return e.Message
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NotFound builds a NOT_FOUND error for provider.
func NotFound(provider, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     CodeNotFound,
		Message:  fmt.Sprintf(format, args...),
	}
}

// InvalidRequest builds an INVALID_REQUEST error for provider.
func InvalidRequest(provider, format string, args ...any) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     CodeInvalidRequest,
		Message:  fmt.Sprintf(format, args...),
	}
}
