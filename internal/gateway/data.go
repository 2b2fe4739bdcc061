package gateway

import (
	"net/url"
	"time"

	"github.com/rohmanhakim/imdb-mcp/pkg/urlutil"
)

// Records returned by the gateway. Optional numeric fields are pointers;
// missing text is the empty string; missing lists are empty.

type TitleRecord struct {
	ID             string
	Title          string
	Kind           string
	Year           *int
	Rating         *float64
	Votes          *int
	Genres         []string
	Directors      []string
	Cast           []string
	Plot           string
	RuntimeMinutes *int
	PosterURL      string
}

type Credit struct {
	ID    string
	Title string
	Year  *int
}

type FilmographySection struct {
	Category string
	Credits  []Credit
}

type PersonRecord struct {
	ID          string
	Name        string
	BirthDate   string
	BirthPlace  string
	DeathDate   string
	DeathPlace  string
	Height      string
	Biography   string
	HeadshotURL string
	KnownFor    []Credit
	Filmography []FilmographySection
}

// RawResult is one entry of a search or chart listing.
type RawResult struct {
	ID          string
	Title       string
	Kind        string
	Year        *int
	Rating      *float64
	Description string
	ImageURL    string
	KnownFor    []string
}

// Chart names a ranked listing published by the content source.
type Chart string

const (
	ChartTopMovies     Chart = "top"
	ChartTopTV         Chart = "toptv"
	ChartPopularMovies Chart = "moviemeter"
	ChartPopularTV     Chart = "tvmeter"
	ChartBottomMovies  Chart = "bottom"
	ChartBoxOffice     Chart = "boxoffice"

	ChartTopIndianMovies Chart = "top-rated-indian-movies"
)

// Page locates the chart under base. The Indian list is published outside
// /chart/.
func (c Chart) Page(base url.URL) url.URL {
	if c == ChartTopIndianMovies {
		return urlutil.Page(base, "india", string(c))
	}
	return urlutil.ChartPage(base, string(c))
}

// GenreRanking is the title_type filter of a genre ranking.
type GenreRanking string

const (
	GenreRankingMovies GenreRanking = "feature,tv_movie"
	GenreRankingTV     GenreRanking = "tv_series,tv_miniseries"
)

// GenreRankingSize is how many titles a genre ranking holds.
const GenreRankingSize = 50

type Param struct {
	baseURL                 url.URL
	suggestURL              url.URL
	userAgent               string
	breakerFailureThreshold uint32
	breakerOpenTimeout      time.Duration
}

func NewParam(
	baseURL url.URL,
	suggestURL url.URL,
	userAgent string,
	breakerFailureThreshold uint32,
	breakerOpenTimeout time.Duration,
) Param {
	return Param{
		baseURL:                 baseURL,
		suggestURL:              suggestURL,
		userAgent:               userAgent,
		breakerFailureThreshold: breakerFailureThreshold,
		breakerOpenTimeout:      breakerOpenTimeout,
	}
}
