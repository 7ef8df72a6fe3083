package imdb

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/PuerkitoBio/goquery"
)

var (
	titleIDPattern = regexp.MustCompile(`tt\d{7,8}`)
	yearPattern    = regexp.MustCompile(`\b(?:18|19|20)\d{2}\b`)
)

// titlePage is everything the backend reads from a /title/ page.
type titlePage struct {
	ID            string
	Title         string
	Alternates    []string
	OriginalTitle string
	Year          int
	ContentRating string
	Genres        []string
	Description   string
	Plot          string
	Rating        float64
	Votes         int
	Released      time.Time
	Runtime       int
	Poster        string
	Cast          []media.Person
	Directors     []media.Person
	Writers       []media.Person
	Countries     []string
	Languages     []string
	Studios       []string
	Trailer       *media.Trailer
}

// ldMovie is the schema.org Movie object IMDb embeds as JSON-LD.
type ldMovie struct {
	Type            string     `json:"@type"`
	URL             string     `json:"url"`
	Name            string     `json:"name"`
	AlternateName   string     `json:"alternateName"`
	Image           string     `json:"image"`
	Description     string     `json:"description"`
	ContentRating   string     `json:"contentRating"`
	DatePublished   string     `json:"datePublished"`
	Duration        string     `json:"duration"`
	Genre           ldStrings  `json:"genre"`
	Actor           ldThings   `json:"actor"`
	Director        ldThings   `json:"director"`
	Creator         ldThings   `json:"creator"`
	AggregateRating *ldRating  `json:"aggregateRating"`
	Trailer         *ldTrailer `json:"trailer"`
}

type ldRating struct {
	RatingValue float64 `json:"ratingValue"`
	RatingCount int     `json:"ratingCount"`
}

type ldTrailer struct {
	Name      string `json:"name"`
	EmbedURL  string `json:"embedUrl"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnailUrl"`
}

type ldThing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ldThings accepts a single object or an array of objects.
type ldThings []ldThing

func (t *ldThings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one ldThing
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*t = ldThings{one}
		return nil
	}
	var many []ldThing
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

// ldStrings accepts a single string or an array of strings.
type ldStrings []string

func (s *ldStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = ldStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// parseTitlePage reads a title page. JSON-LD supplies most values; the
// rendered page fills in what the structured data lacks.
func parseTitlePage(id string, html []byte) (*titlePage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var ld ldMovie
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var candidate ldMovie
		if err := json.Unmarshal([]byte(s.Text()), &candidate); err != nil {
			return true
		}
		if candidate.Type == "Movie" || candidate.Type == "TVMovie" {
			ld = candidate
			return false
		}
		return true
	})

	page := &titlePage{
		ID:            id,
		Title:         normSpace(ld.Name),
		ContentRating: strings.TrimSpace(ld.ContentRating),
		Genres:        normList(ld.Genre),
		Description:   normSpace(ld.Description),
		Poster:        strings.TrimSpace(ld.Image),
		Runtime:       parseDuration(ld.Duration),
	}
	if page.Title == "" {
		page.Title = normSpace(doc.Find(`h1[data-testid="hero__pageTitle"]`).First().Text())
	}
	if page.Title == "" {
		return nil, nil
	}

	if alt := normSpace(ld.AlternateName); alt != "" && alt != page.Title {
		page.Alternates = append(page.Alternates, alt)
	}
	if hero := normSpace(doc.Find(`h1[data-testid="hero__pageTitle"] span`).First().Text()); hero != "" && hero != page.Title {
		page.Alternates = normList(append(page.Alternates, hero))
	}

	page.OriginalTitle = page.Title
	if original := normSpace(doc.Find(`[data-testid="hero-title-block__original-title"]`).First().Text()); original != "" {
		page.OriginalTitle = strings.TrimSpace(strings.TrimPrefix(original, "Original title:"))
	}

	if released, err := time.Parse("2006-01-02", strings.TrimSpace(ld.DatePublished)); err == nil {
		page.Released = released
		page.Year = released.Year()
	}
	if page.Year == 0 {
		page.Year = firstYear(doc.Find(`h1[data-testid="hero__pageTitle"]`).Parent().Text())
	}

	if ld.AggregateRating != nil {
		page.Rating = ld.AggregateRating.RatingValue
		page.Votes = ld.AggregateRating.RatingCount
	}

	page.Plot = normSpace(doc.Find(`[data-testid="plot-xl"]`).First().Text())
	if page.Plot == "" {
		page.Plot = page.Description
	}

	page.Cast = parseCast(doc)
	if len(page.Cast) == 0 {
		page.Cast = peopleOf(ld.Actor, "")
	}
	page.Directors = peopleOf(ld.Director, "")
	page.Writers = peopleOf(ld.Creator, "")

	page.Countries = detailLinks(doc, "title-details-origin")
	page.Languages = detailLinks(doc, "title-details-languages")
	page.Studios = detailLinks(doc, "title-details-companies")

	if tr := ld.Trailer; tr != nil {
		url := strings.TrimSpace(tr.EmbedURL)
		if url == "" {
			url = strings.TrimSpace(tr.URL)
		}
		if url != "" {
			page.Trailer = &media.Trailer{URL: url, Title: normSpace(tr.Name), Site: "IMDb"}
		}
	}
	return page, nil
}

func parseCast(doc *goquery.Document) []media.Person {
	var cast []media.Person
	seen := make(map[string]bool)
	doc.Find(`[data-testid="title-cast-item"]`).Each(func(_ int, s *goquery.Selection) {
		name := normSpace(s.Find(`[data-testid="title-cast-item__actor"]`).First().Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		role := normSpace(s.Find(`[data-testid="cast-item-characters-link"]`).First().Text())
		thumb, _ := s.Find("img").First().Attr("src")
		cast = append(cast, media.Person{Name: name, Role: role, Thumb: strings.TrimSpace(thumb)})
	})
	return cast
}

func peopleOf(things ldThings, role string) []media.Person {
	var people []media.Person
	seen := make(map[string]bool)
	for _, thing := range things {
		if thing.Type != "" && thing.Type != "Person" {
			continue
		}
		name := normSpace(thing.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		people = append(people, media.Person{Name: name, Role: role})
	}
	return people
}

// detailLinks returns the link texts of a row in the page's details section.
func detailLinks(doc *goquery.Document, testID string) []string {
	var values []string
	doc.Find(`[data-testid="` + testID + `"] a`).Each(func(_ int, a *goquery.Selection) {
		values = append(values, a.Text())
	})
	return normList(values)
}

// searchResult is one title hit from the find page.
type searchResult struct {
	ID    string
	Title string
	Year  int
}

func parseFindPage(html []byte) ([]searchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var results []searchResult
	seen := make(map[string]bool)
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		link := item.Find(`a[href*="/title/tt"]`).First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		id := titleIDPattern.FindString(href)
		title := normSpace(link.Text())
		if id == "" || title == "" || seen[id] {
			return
		}
		seen[id] = true
		rest := strings.Replace(item.Text(), link.Text(), "", 1)
		results = append(results, searchResult{ID: id, Title: title, Year: firstYear(rest)})
	})
	return results, nil
}

// parseChart returns the Top 250 ranks keyed by title id.
func parseChart(html []byte) (map[string]int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int)
	add := func(id string) {
		if id == "" || len(ranks) >= 250 {
			return
		}
		if _, ok := ranks[id]; !ok {
			ranks[id] = len(ranks) + 1
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var list struct {
			Type  string `json:"@type"`
			Items []struct {
				Item struct {
					URL string `json:"url"`
				} `json:"item"`
			} `json:"itemListElement"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &list); err != nil || list.Type != "ItemList" {
			return
		}
		for _, element := range list.Items {
			add(titleIDPattern.FindString(element.Item.URL))
		}
	})
	if len(ranks) > 0 {
		return ranks, nil
	}

	doc.Find(`a[href*="/title/tt"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		add(titleIDPattern.FindString(href))
	})
	return ranks, nil
}

// parseDuration converts ISO 8601 durations such as "PT2H32M" to minutes.
func parseDuration(value string) int {
	value = strings.ToLower(strings.TrimSpace(value))
	if !strings.HasPrefix(value, "pt") {
		return 0
	}
	d, err := time.ParseDuration(strings.TrimPrefix(value, "pt"))
	if err != nil {
		return 0
	}
	return int(d.Minutes())
}

func firstYear(s string) int {
	year, _ := strconv.Atoi(yearPattern.FindString(s))
	return year
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func normList(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
