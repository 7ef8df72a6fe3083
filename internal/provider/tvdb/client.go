package tvdb

import (
	"context"
	"strconv"
	"strings"

	tvdbapi "github.com/dashotv/tvdb"
	"github.com/dashotv/tvdb/openapi/models/operations"
	"github.com/dashotv/tvdb/openapi/models/shared"
)

// searchRecord is one movie hit from the TVDB search endpoint.
type searchRecord struct {
	ID   int64
	Name string
	Year int
}

// movieRecord holds the extended movie fields the backend maps.
type movieRecord struct {
	ID      int64
	Name    string
	Year    int
	Score   float64
	Runtime int
	Genres  []string
	ImdbID  string
}

// Client is the slice of TVDB the backend needs. The default implementation
// wraps the dashotv/tvdb SDK; tests supply their own.
type Client interface {
	SearchMovies(ctx context.Context, title string, year int) ([]searchRecord, error)
	Movie(ctx context.Context, id int64) (*movieRecord, error)
}

// sdk captures the dashotv client methods used by apiClient.
type sdk interface {
	GetSearchResults(request operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error)
	GetMovieExtended(id float64, meta *operations.QueryParamMeta, short *bool) (*tvdbapi.GetMovieExtendedResponse, error)
}

type apiClient struct {
	api sdk
}

// login authenticates against TVDB and returns the SDK backed client.
func login(apiKey string) (Client, error) {
	api, err := tvdbapi.Login(apiKey)
	if err != nil {
		return nil, mapError(err)
	}
	return &apiClient{api: api}, nil
}

func (c *apiClient) SearchMovies(ctx context.Context, title string, year int) ([]searchRecord, error) {
	req := operations.GetSearchResultsRequest{Query: &title}
	typeMovie := "movie"
	req.Type = &typeMovie
	if year > 0 {
		yf := float64(year)
		req.Year = &yf
	}

	resp, err := c.api.GetSearchResults(req)
	if err != nil {
		return nil, mapError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	var records []searchRecord
	for _, result := range resp.Data {
		if t := pointerToString(result.Type); t != "" && !strings.EqualFold(t, "movie") {
			continue
		}
		if r := toSearchRecord(result); r.ID != 0 {
			records = append(records, r)
		}
	}
	return records, nil
}

func (c *apiClient) Movie(ctx context.Context, id int64) (*movieRecord, error) {
	meta := operations.QueryParamMetaTranslations
	resp, err := c.api.GetMovieExtended(float64(id), &meta, nil)
	if err != nil {
		return nil, mapError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resp == nil || resp.Data == nil {
		return nil, nil
	}

	movie := resp.Data
	record := &movieRecord{
		ID:      id,
		Name:    pointerToString(movie.Name),
		Year:    atoi(pointerToString(movie.Year)),
		Runtime: int(pointerToInt64(movie.Runtime)),
		ImdbID:  findRemoteID(movie.RemoteIds, "imdb"),
	}
	if movie.Score != nil {
		record.Score = *movie.Score
	}
	for _, g := range movie.Genres {
		if name := pointerToString(g.Name); name != "" {
			record.Genres = append(record.Genres, name)
		}
	}
	return record, nil
}

func toSearchRecord(result shared.SearchResult) searchRecord {
	id := parseInt64(pointerToString(result.TvdbID))
	if id == 0 {
		id = parseInt64(strings.TrimPrefix(pointerToString(result.ID), "movie-"))
	}
	name := firstNonEmptyString(pointerToString(result.Name), pointerToString(result.NameTranslated), pointerToString(result.Title))
	return searchRecord{ID: id, Name: name, Year: atoi(pointerToString(result.Year))}
}

func findRemoteID(ids []shared.RemoteID, source string) string {
	needle := strings.ToLower(strings.TrimSpace(source))
	for _, remote := range ids {
		sourceName := strings.ToLower(strings.TrimSpace(pointerToString(remote.SourceName)))
		if strings.Contains(sourceName, needle) {
			return strings.TrimSpace(pointerToString(remote.ID))
		}
	}
	return ""
}

func pointerToString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func pointerToInt64(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}

func parseInt64(value string) int64 {
	parsed, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	return parsed
}

func atoi(value string) int {
	parsed, _ := strconv.Atoi(strings.TrimSpace(value))
	return parsed
}

func firstNonEmptyString(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
