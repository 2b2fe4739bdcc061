package mapper

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/pkg/urlutil"
)

/*
Responsibilities
- Shape gateway records into protocol responses
- Fill defaults for missing names, never fail on missing fields

Shaping rules
- first director only, first five cast members
- plot is cut at the first "::" (author attribution)
- filmography keeps five credits per job category
- known-for takes up to three acting credits, falling back to the page's
  own known-for block when the person has no acting credits
- biography is the first paragraph, capped at 500 characters
*/

const (
	UnknownTitle = "Unknown Title"
	UnknownName  = "Unknown Name"

	maxCast            = 5
	maxCreditsPerGroup = 5
	maxKnownFor        = 3
	maxBiographyRunes  = 500
)

// publicBase is the address used in links handed to clients, independent
// of the upstream address the gateway is configured with.
var publicBase = url.URL{Scheme: "https", Host: "www.imdb.com"}

var actingCategories = map[string]bool{
	"actor":   true,
	"actress": true,
}

func TitleURL(titleID string) string {
	u := urlutil.TitlePage(publicBase, titleID)
	return u.String()
}

func PersonURL(personID string) string {
	u := urlutil.PersonPage(publicBase, personID)
	return u.String()
}

func ToMovieDetails(record gateway.TitleRecord) MovieDetails {
	details := MovieDetails{
		Title:     orDefault(record.Title, UnknownTitle),
		Year:      yearString(record.Year),
		Rating:    ratingString(record.Rating),
		Genres:    orEmpty(record.Genres),
		Cast:      head(record.Cast, maxCast),
		Plot:      plotText(record.Plot),
		PosterURL: optional(record.PosterURL),
		IMDbID:    record.ID,
	}
	if len(record.Directors) > 0 {
		details.Director = optional(record.Directors[0])
	}
	if record.RuntimeMinutes != nil {
		runtime := strconv.Itoa(*record.RuntimeMinutes) + " min"
		details.Runtime = &runtime
	}
	return details
}

func ToActorDetails(record gateway.PersonRecord) ActorDetails {
	details := ActorDetails{
		Name:        orDefault(record.Name, UnknownName),
		IMDbID:      record.ID,
		URL:         PersonURL(record.ID),
		BirthDate:   optional(record.BirthDate),
		BirthPlace:  optional(record.BirthPlace),
		DeathDate:   optional(record.DeathDate),
		Biography:   biographyText(record.Biography),
		PhotoURL:    optional(record.HeadshotURL),
		Height:      optional(record.Height),
		Filmography: []FilmographyEntry{},
		KnownFor:    []KnownForEntry{},
	}

	for _, section := range record.Filmography {
		for _, credit := range head(section.Credits, maxCreditsPerGroup) {
			details.Filmography = append(details.Filmography, FilmographyEntry{
				Title: credit.Title,
				Year:  yearString(credit.Year),
				Role:  section.Category,
				URL:   creditURL(credit.ID),
			})
			if actingCategories[section.Category] && len(details.KnownFor) < maxKnownFor {
				details.KnownFor = append(details.KnownFor, knownForEntry(credit))
			}
		}
	}

	if len(details.KnownFor) == 0 {
		for _, credit := range head(record.KnownFor, maxKnownFor) {
			details.KnownFor = append(details.KnownFor, knownForEntry(credit))
		}
	}
	return details
}

// ToSearchResult maps a title candidate. Person candidates are accepted
// too and link to the person page.
func ToSearchResult(raw gateway.RawResult) SearchResult {
	result := SearchResult{
		Title:       orDefault(raw.Title, UnknownTitle),
		Year:        yearString(raw.Year),
		Rating:      ratingString(raw.Rating),
		Description: optional(raw.Description),
		IMDbID:      raw.ID,
	}
	if strings.HasPrefix(raw.ID, "nm") {
		result.Title = orDefault(raw.Title, UnknownName)
		result.URL = PersonURL(raw.ID)
		if len(raw.KnownFor) > 0 {
			result.Description = optional(strings.Join(head(raw.KnownFor, maxKnownFor), ", "))
		}
		return result
	}
	result.URL = TitleURL(raw.ID)
	return result
}

func ToPersonSearchResult(raw gateway.RawResult) PersonSearchResult {
	return PersonSearchResult{
		Name:     orDefault(raw.Title, UnknownName),
		IMDbID:   raw.ID,
		URL:      PersonURL(raw.ID),
		KnownFor: head(orEmpty(raw.KnownFor), maxKnownFor),
	}
}

func knownForEntry(credit gateway.Credit) KnownForEntry {
	return KnownForEntry{
		Title: credit.Title,
		Year:  yearString(credit.Year),
		URL:   creditURL(credit.ID),
	}
}

func creditURL(titleID string) *string {
	if titleID == "" {
		return nil
	}
	u := TitleURL(titleID)
	return &u
}

func plotText(plot string) *string {
	text, _, _ := strings.Cut(plot, "::")
	return optional(strings.TrimSpace(text))
}

func biographyText(bio string) *string {
	if strings.TrimSpace(bio) == "" {
		return nil
	}
	first, _, _ := strings.Cut(bio, "\n\n")
	first = truncateRunes(strings.TrimSpace(first), maxBiographyRunes)
	if utf8.RuneCountInString(bio) > maxBiographyRunes {
		first += "..."
	}
	return &first
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func yearString(year *int) *string {
	if year == nil || *year == 0 {
		return nil
	}
	s := strconv.Itoa(*year)
	return &s
}

// ratingString keeps one decimal for whole ratings ("9.0", not "9").
func ratingString(rating *float64) *string {
	if rating == nil || *rating == 0 {
		return nil
	}
	var s string
	if *rating == math.Trunc(*rating) {
		s = strconv.FormatFloat(*rating, 'f', 1, 64)
	} else {
		s = strconv.FormatFloat(*rating, 'f', -1, 64)
	}
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		return in[:n]
	}
	return orEmpty(in)
}
