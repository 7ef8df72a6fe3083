// Package mediainfo implements the backend behind the "Use MediaInfo Data"
// group choice. It reads the local media file with ffprobe.
package mediainfo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/vansante/go-ffprobe.v2"
)

// Name is the registry name of the backend; groups reach it through the
// media-info sentinel.
const Name = group.MediaInfoBackend

// ProbeFunc runs ffprobe against a file.
type ProbeFunc func(ctx context.Context, path string, extraOpts ...string) (*ffprobe.ProbeData, error)

// Options configures the backend.
type Options struct {
	// Probe replaces ffprobe, mainly for tests.
	Probe ProbeFunc

	// Timeout bounds a single probe; zero means no extra bound.
	Timeout time.Duration

	Logger *slog.Logger
}

// Backend derives a few fields from the local media file.
type Backend struct {
	probe   ProbeFunc
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*ffprobe.ProbeData
}

// New creates a MediaInfo backend.
func New(opts Options) *Backend {
	probe := opts.Probe
	if probe == nil {
		probe = ffprobe.ProbeURL
	}
	return &Backend{
		probe:   probe,
		timeout: opts.Timeout,
		logger:  log.Or(opts.Logger).With(log.FieldBackend, Name),
		cache:   make(map[string]*ffprobe.ProbeData),
	}
}

// Descriptor describes the backend.
func (b *Backend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        Name,
		Description: "Technical media metadata from ffprobe",
		Fields: []provider.Field{
			provider.FieldTitle,
			provider.FieldLanguage,
			provider.FieldRuntime,
		},
		IDKind: provider.IDKindFile,
	}
}

// Search is not used; the backend is addressed by file path.
func (b *Backend) Search(context.Context, provider.Query) ([]provider.Candidate, error) {
	return nil, &provider.ProviderError{
		Provider: Name,
		Code:     provider.CodeUnsupported,
		Message:  "media info is read from the local file and cannot be searched",
	}
}

func (b *Backend) data(ctx context.Context, path string) (*ffprobe.ProbeData, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, provider.InvalidRequest(Name, "media info requires a file path")
	}

	b.mu.Lock()
	data, ok := b.cache[path]
	b.mu.Unlock()
	if ok {
		return data, nil
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	data, err := b.probe(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeUnavailable,
			Message:  fmt.Sprintf("ffprobe failed for %s: %v", path, err),
			Err:      err,
		}
	}
	if data == nil || data.Format == nil {
		return nil, provider.NotFound(Name, "no media information in %s", path)
	}

	b.mu.Lock()
	b.cache[path] = data
	b.mu.Unlock()
	b.logger.Debug("probed file", "path", path, "streams", len(data.Streams))
	return data, nil
}

// ScrapeTitle returns the container title tag, falling back to the title
// parsed from the file name.
func (b *Backend) ScrapeTitle(ctx context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	data, err := b.data(ctx, req.ID)
	if err != nil {
		return provider.TitleResult{}, err
	}
	if title := tag(data.Format.TagList, "title"); title != "" {
		return provider.TitleResult{Title: title}, nil
	}
	base := filepath.Base(req.ID)
	if title, _ := media.ExtractNameAndYear(strings.TrimSuffix(base, filepath.Ext(base))); title != "" {
		return provider.TitleResult{Title: title}, nil
	}
	return provider.TitleResult{}, provider.NotFound(Name, "no title for %s", req.ID)
}

// ScrapeRuntime returns the container duration in whole minutes.
func (b *Backend) ScrapeRuntime(ctx context.Context, req provider.FieldRequest) (int, error) {
	data, err := b.data(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	minutes := int(math.Round(data.Format.DurationSeconds / 60))
	if minutes <= 0 {
		return 0, provider.NotFound(Name, "no duration for %s", req.ID)
	}
	return minutes, nil
}

// ScrapeLanguage lists the audio languages in stream order as English names.
func (b *Backend) ScrapeLanguage(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	data, err := b.data(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	namer := display.English.Languages()
	seen := make(map[string]bool)
	var languages []string
	for _, stream := range data.Streams {
		if stream == nil || stream.CodecType != string(ffprobe.StreamAudio) {
			continue
		}
		name := languageName(namer, tag(stream.TagList, "language"))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		languages = append(languages, name)
	}
	if len(languages) == 0 {
		return nil, provider.NotFound(Name, "no audio languages in %s", req.ID)
	}
	return languages, nil
}

// bibliographic maps ISO 639-2/B codes, common in Matroska files, to the
// terminology codes the language package understands.
var bibliographic = map[string]string{
	"alb": "sqi", "arm": "hye", "baq": "eus", "bur": "mya", "chi": "zho",
	"cze": "ces", "dut": "nld", "fre": "fra", "geo": "kat", "ger": "deu",
	"gre": "ell", "ice": "isl", "mac": "mkd", "mao": "mri", "may": "msa",
	"per": "fas", "rum": "ron", "slo": "slk", "tib": "bod", "wel": "cym",
}

// languageName turns an ISO 639 code such as "eng" or "de" into its English
// name. Undetermined and unknown codes yield "".
func languageName(namer display.Namer, code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "und" {
		return ""
	}
	if t, ok := bibliographic[code]; ok {
		code = t
	}
	lt, err := language.Parse(code)
	if err != nil || lt == language.Und {
		return ""
	}
	return namer.Name(lt)
}

func tag(tags ffprobe.Tags, key string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			s, _ := v.(string)
			return strings.TrimSpace(s)
		}
	}
	return ""
}
