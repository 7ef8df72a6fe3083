package media

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Filename helpers used to seed a Movie from a local media file before any
// backend is contacted. Parsing is tolerant: scene style dotted names, bracketed
// years and trailing encoding tags are all accepted.
var (
	// videoRe matches video file extensions.
	videoRe = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|3gp|vob|ts|mts|m2ts|rmvb|divx)$`)

	// yearRangeRe extracts a year or year range; only the first year is used.
	yearRangeRe = regexp.MustCompile(`\b((19|20)\d{2})(?:[\s\-–—]+(?:19|20)\d{2})?\b`)

	// encodingTagsRe removes codec/resolution/source tags to isolate the title.
	encodingTagsRe = regexp.MustCompile(`(?i)\b(?:HD|HDR|DV|x265|x264|H\.?264|H\.?265|HEVC|AVC|AAC|AC3|DD|DTS|FLAC|MP3|WEB-?DL|BluRay|BDRip|DVDRip|HDTV|720p|1080p|2160p|4K|UHD|SDR|10bit|8bit|PROPER|REPACK|iNTERNAL|LiMiTED|UNRATED|EXTENDED|DiRECTORS?\.?CUT|THEATRICAL|REMASTERED|MULTI|DUAL|DUBBED|SUBBED|RETAIL|UNCUT)\b`)

	// imdbTagRe finds an embedded IMDb id such as "[tt0468569]" or "{imdb-tt0468569}".
	imdbTagRe = regexp.MustCompile(`(?i)\btt(\d{7,8})\b`)

	emptyBracketsRe = regexp.MustCompile(`[\(\[\{]\s*[\)\]\}]`)
)

// IsVideo reports whether filename has a recognized video extension.
func IsVideo(filename string) bool {
	return videoRe.MatchString(filename)
}

// ExtractNameAndYear cleans a file or folder name and splits off the release year.
func ExtractNameAndYear(name string) (string, int) {
	if name == "" {
		return "", 0
	}

	formatted := imdbTagRe.ReplaceAllString(name, "")
	year := 0

	if m := yearRangeRe.FindStringSubmatch(formatted); len(m) > 1 {
		year, _ = strconv.Atoi(m[1])
		if idx := strings.Index(formatted, m[1]); idx > 0 {
			formatted = strings.TrimRight(formatted[:idx], " ([{-_.")
		}
	}

	formatted = strings.NewReplacer(".", " ", "_", " ", " - ", " ").Replace(formatted)
	formatted = encodingTagsRe.ReplaceAllString(formatted, "")
	formatted = emptyBracketsRe.ReplaceAllString(formatted, "")
	formatted = strings.TrimSpace(strings.Join(strings.Fields(formatted), " "))
	formatted = strings.TrimRight(formatted, " -")

	return formatted, year
}

// MovieFromFile seeds a Movie from a local file path. The title and year come
// from the file name, falling back to the parent folder when the file name
// carries no usable title. An embedded IMDb tag is kept as ImdbID.
func MovieFromFile(path string) *Movie {
	m := &Movie{FilePath: path}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if !IsVideo(base) {
		stem = base
	}

	title, year := ExtractNameAndYear(stem)
	if title == "" || year == 0 {
		parent := filepath.Base(filepath.Dir(path))
		if parent != "." && parent != string(filepath.Separator) {
			pTitle, pYear := ExtractNameAndYear(parent)
			if title == "" {
				title = pTitle
			}
			if year == 0 {
				year = pYear
			}
		}
	}
	m.Title = title
	m.Year = year

	for _, candidate := range []string{stem, filepath.Base(filepath.Dir(path))} {
		if sub := imdbTagRe.FindStringSubmatch(candidate); len(sub) > 1 {
			m.ImdbID = NormalizeImdbID(sub[1])
			break
		}
	}

	return m
}
