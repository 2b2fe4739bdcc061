package mapper

// Response shapes returned to protocol clients. Optional values are
// pointers and encode as null when absent.

type SearchResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Year        *string `json:"year"`
	Rating      *string `json:"rating"`
	Description *string `json:"description"`
	IMDbID      string  `json:"imdb_id"`
}

type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

type MovieDetails struct {
	Title     string   `json:"title"`
	Year      *string  `json:"year"`
	Rating    *string  `json:"rating"`
	Genres    []string `json:"genres"`
	Director  *string  `json:"director"`
	Cast      []string `json:"cast"`
	Plot      *string  `json:"plot"`
	PosterURL *string  `json:"poster_url"`
	Runtime   *string  `json:"runtime"`
	IMDbID    string   `json:"imdb_id"`
}

type FilmographyEntry struct {
	Title string  `json:"title"`
	Year  *string `json:"year"`
	Role  string  `json:"role"`
	URL   *string `json:"url"`
}

type KnownForEntry struct {
	Title string  `json:"title"`
	Year  *string `json:"year"`
	URL   *string `json:"url"`
}

type ActorDetails struct {
	Name        string             `json:"name"`
	IMDbID      string             `json:"imdb_id"`
	URL         string             `json:"url"`
	BirthDate   *string            `json:"birth_date"`
	BirthPlace  *string            `json:"birth_place"`
	DeathDate   *string            `json:"death_date"`
	Biography   *string            `json:"biography"`
	PhotoURL    *string            `json:"photo_url"`
	Height      *string            `json:"height"`
	Filmography []FilmographyEntry `json:"filmography"`
	KnownFor    []KnownForEntry    `json:"known_for"`
}

type PersonSearchResult struct {
	Name     string   `json:"name"`
	IMDbID   string   `json:"imdb_id"`
	URL      string   `json:"url"`
	KnownFor []string `json:"known_for"`
}

type PersonSearchResponse struct {
	Results      []PersonSearchResult `json:"results"`
	TotalResults int                  `json:"total_results"`
}
