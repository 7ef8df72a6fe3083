package provider

import (
	"fmt"
	"strings"
)

// Field identifies one of the movie attributes a backend can scrape.
type Field int

const (
	FieldTitle Field = iota
	FieldOriginalTitle
	FieldYear
	FieldTop250
	FieldCast
	FieldCertification
	FieldMpaa
	FieldCountry
	FieldDirector
	FieldFanart
	FieldGenre
	FieldLanguage
	FieldOutline
	FieldPlot
	FieldRating
	FieldReleaseDate
	FieldRuntime
	FieldStudio
	FieldTagline
	FieldVotes
	FieldWriters
	FieldPoster
	FieldTrailer

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldTitle:         "Title",
	FieldOriginalTitle: "OriginalTitle",
	FieldYear:          "Year",
	FieldTop250:        "Top250",
	FieldCast:          "Cast",
	FieldCertification: "Certification",
	FieldMpaa:          "Mpaa",
	FieldCountry:       "Country",
	FieldDirector:      "Director",
	FieldFanart:        "Fanart",
	FieldGenre:         "Genre",
	FieldLanguage:      "Language",
	FieldOutline:       "Outline",
	FieldPlot:          "Plot",
	FieldRating:        "Rating",
	FieldReleaseDate:   "ReleaseDate",
	FieldRuntime:       "Runtime",
	FieldStudio:        "Studio",
	FieldTagline:       "Tagline",
	FieldVotes:         "Votes",
	FieldWriters:       "Writers",
	FieldPoster:        "Poster",
	FieldTrailer:       "Trailer",
}

// Fields returns every field in canonical dispatch order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField resolves a field by name. Matching ignores case, spaces and
// underscores so "release_date", "Release Date" and "ReleaseDate" all resolve.
func ParseField(name string) (Field, error) {
	key := normalizeFieldName(name)
	for i, n := range fieldNames {
		if strings.EqualFold(n, key) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func normalizeFieldName(name string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(name))
}
