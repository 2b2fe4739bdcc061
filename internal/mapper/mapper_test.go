package mapper_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestToMovieDetails_Inception(t *testing.T) {
	record := gateway.TitleRecord{
		ID:             "tt1375666",
		Title:          "Inception",
		Kind:           "movie",
		Year:           intPtr(2010),
		Rating:         floatPtr(8.8),
		Genres:         []string{"Action", "Sci-Fi"},
		Directors:      []string{"Christopher Nolan", "Someone Else"},
		Cast:           []string{"A", "B", "C", "D", "E", "F", "G"},
		Plot:           "A thief who steals corporate secrets.::Warner Bros.",
		RuntimeMinutes: intPtr(148),
		PosterURL:      "https://m.media-amazon.com/images/M/inception.jpg",
	}

	details := mapper.ToMovieDetails(record)

	assert.Equal(t, "Inception", details.Title)
	assert.Equal(t, "tt1375666", details.IMDbID)
	require.NotNil(t, details.Year)
	assert.Equal(t, "2010", *details.Year)
	require.NotNil(t, details.Rating)
	assert.Equal(t, "8.8", *details.Rating)
	require.NotNil(t, details.Director)
	assert.Equal(t, "Christopher Nolan", *details.Director)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, details.Cast)
	require.NotNil(t, details.Plot)
	assert.Equal(t, "A thief who steals corporate secrets.", *details.Plot)
	require.NotNil(t, details.Runtime)
	assert.Equal(t, "148 min", *details.Runtime)
}

func TestToMovieDetails_MissingFields(t *testing.T) {
	details := mapper.ToMovieDetails(gateway.TitleRecord{ID: "tt0000001"})

	assert.Equal(t, mapper.UnknownTitle, details.Title)
	assert.Nil(t, details.Year)
	assert.Nil(t, details.Rating)
	assert.Nil(t, details.Director)
	assert.Nil(t, details.Plot)
	assert.Nil(t, details.Runtime)
	assert.Nil(t, details.PosterURL)
	assert.Equal(t, []string{}, details.Genres)
	assert.Equal(t, []string{}, details.Cast)

	encoded, err := json.Marshal(details)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"director":null`)
	assert.Contains(t, string(encoded), `"genres":[]`)
}

func TestRatingFormatting(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		want   string
	}{
		{"fractional", 8.8, "8.8"},
		{"whole", 9, "9.0"},
		{"two decimals", 7.25, "7.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := mapper.ToMovieDetails(gateway.TitleRecord{Rating: floatPtr(tt.rating)})
			require.NotNil(t, details.Rating)
			assert.Equal(t, tt.want, *details.Rating)
		})
	}
}

func TestToActorDetails_FilmographyAndKnownFor(t *testing.T) {
	credits := func(prefix string, n int) []gateway.Credit {
		out := make([]gateway.Credit, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, gateway.Credit{ID: "tt100000" + string(rune('0'+i)), Title: prefix + string(rune('A'+i)), Year: intPtr(2000 + i)})
		}
		return out
	}
	record := gateway.PersonRecord{
		ID:   "nm0000138",
		Name: "Leonardo DiCaprio",
		Filmography: []gateway.FilmographySection{
			{Category: "actor", Credits: credits("Film", 7)},
			{Category: "producer", Credits: credits("Prod", 2)},
		},
		KnownFor: []gateway.Credit{{ID: "tt1375666", Title: "Inception"}},
	}

	details := mapper.ToActorDetails(record)

	assert.Equal(t, "https://www.imdb.com/name/nm0000138/", details.URL)
	require.Len(t, details.Filmography, 7)
	assert.Equal(t, "actor", details.Filmography[0].Role)
	assert.Equal(t, "FilmA", details.Filmography[0].Title)
	require.NotNil(t, details.Filmography[0].URL)
	assert.Equal(t, "https://www.imdb.com/title/tt1000000/", *details.Filmography[0].URL)
	assert.Equal(t, "producer", details.Filmography[5].Role)

	require.Len(t, details.KnownFor, 3)
	assert.Equal(t, "FilmA", details.KnownFor[0].Title)
	assert.Equal(t, "FilmC", details.KnownFor[2].Title)
	require.NotNil(t, details.KnownFor[1].Year)
	assert.Equal(t, "2001", *details.KnownFor[1].Year)
}

func TestToActorDetails_KnownForFallback(t *testing.T) {
	record := gateway.PersonRecord{
		ID:   "nm0634240",
		Name: "Christopher Nolan",
		Filmography: []gateway.FilmographySection{
			{Category: "director", Credits: []gateway.Credit{{ID: "tt15398776", Title: "Oppenheimer"}}},
		},
		KnownFor: []gateway.Credit{
			{ID: "tt1375666", Title: "Inception"},
			{ID: "tt0468569", Title: "The Dark Knight"},
			{ID: "tt0816692", Title: "Interstellar"},
			{ID: "tt0482571", Title: "The Prestige"},
		},
	}

	details := mapper.ToActorDetails(record)

	require.Len(t, details.KnownFor, 3)
	assert.Equal(t, "Inception", details.KnownFor[0].Title)
	assert.Nil(t, details.KnownFor[0].Year)
}

func TestToActorDetails_Biography(t *testing.T) {
	tests := []struct {
		name string
		bio  string
		want *string
	}{
		{"empty", "", nil},
		{"first paragraph", "First paragraph.\n\nSecond paragraph.", strPtr("First paragraph.")},
		{"long source gets ellipsis", "Short lead.\n\n" + strings.Repeat("x", 600), strPtr("Short lead....")},
		{"long paragraph truncated", strings.Repeat("y", 700), strPtr(strings.Repeat("y", 500) + "...")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := mapper.ToActorDetails(gateway.PersonRecord{ID: "nm1", Biography: tt.bio})
			assert.Equal(t, tt.want, details.Biography)
		})
	}
}

func TestToActorDetails_Defaults(t *testing.T) {
	details := mapper.ToActorDetails(gateway.PersonRecord{ID: "nm0000001"})

	assert.Equal(t, mapper.UnknownName, details.Name)
	assert.Nil(t, details.BirthDate)
	assert.Nil(t, details.Height)
	assert.Equal(t, []mapper.FilmographyEntry{}, details.Filmography)
	assert.Equal(t, []mapper.KnownForEntry{}, details.KnownFor)
}

func TestToSearchResult(t *testing.T) {
	title := mapper.ToSearchResult(gateway.RawResult{ID: "tt1375666", Title: "Inception", Year: intPtr(2010)})
	assert.Equal(t, "https://www.imdb.com/title/tt1375666/", title.URL)
	require.NotNil(t, title.Year)
	assert.Equal(t, "2010", *title.Year)
	assert.Nil(t, title.Rating)
	assert.Nil(t, title.Description)

	person := mapper.ToSearchResult(gateway.RawResult{ID: "nm0000138", Title: "Leonardo DiCaprio", KnownFor: []string{"Inception (2010)"}})
	assert.Equal(t, "https://www.imdb.com/name/nm0000138/", person.URL)
	require.NotNil(t, person.Description)
	assert.Equal(t, "Inception (2010)", *person.Description)

	untitled := mapper.ToSearchResult(gateway.RawResult{ID: "tt0000002"})
	assert.Equal(t, mapper.UnknownTitle, untitled.Title)
}

func TestToPersonSearchResult(t *testing.T) {
	result := mapper.ToPersonSearchResult(gateway.RawResult{
		ID:       "nm0000158",
		Title:    "Tom Hanks",
		KnownFor: []string{"Forrest Gump", "Saving Private Ryan", "Cast Away", "Big"},
	})

	assert.Equal(t, "Tom Hanks", result.Name)
	assert.Equal(t, "https://www.imdb.com/name/nm0000158/", result.URL)
	assert.Equal(t, []string{"Forrest Gump", "Saving Private Ryan", "Cast Away"}, result.KnownFor)

	empty := mapper.ToPersonSearchResult(gateway.RawResult{ID: "nm0000001"})
	assert.Equal(t, mapper.UnknownName, empty.Name)
	assert.Equal(t, []string{}, empty.KnownFor)
}

func strPtr(s string) *string { return &s }
