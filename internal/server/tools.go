package server

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
)

const (
	ToolSearchIMDb       = "search-imdb"
	ToolGetMovieDetails  = "get-movie-details"
	ToolGetActorDetails  = "get-actor-details"
	ToolSearchPeople     = "search-people"
	ToolGetTopMovies     = "get-top-movies"
	ToolGetTopTV         = "get-top-tv"
	ToolGetPopularMovies = "get-popular-movies"
	ToolGetPopularTV     = "get-popular-tv"
	ToolGetBottomMovies  = "get-bottom-movies"
	ToolGetBoxOffice     = "get-boxoffice-movies"

	ToolGetTopIndianMovies   = "get-top-indian-movies"
	ToolGetTopMoviesByGenres = "get-top-movies-by-genres"
	ToolGetTopTVByGenres     = "get-top-tv-by-genres"

	maxLimit = 250
)

type searchArgs struct {
	Query       string `json:"query" validate:"required"`
	ContentType string `json:"content_type"`
	Limit       int    `json:"limit" validate:"omitempty,min=1,max=250"`
}

type movieArgs struct {
	IMDbID string `json:"imdb_id" validate:"required"`
}

type actorArgs struct {
	PersonID string `json:"person_id" validate:"required"`
}

type peopleArgs struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=250"`
}

type chartArgs struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=250"`
}

type genreArgs struct {
	Genres []string `json:"genres" validate:"required"`
	Limit  int      `json:"limit" validate:"omitempty,min=1,max=250"`
}

// toolSpec pairs a tool definition with the function producing its payload.
type toolSpec struct {
	tool *mcp.Tool
	run  func(ctx context.Context, raw json.RawMessage) (any, error)
}

func (s *Server) toolSpecs() []toolSpec {
	specs := []toolSpec{
		{
			tool: &mcp.Tool{
				Name:        ToolSearchIMDb,
				Description: "Search IMDb for movies, TV shows, or people.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query for IMDb"},
					"content_type": {
						Type:        "string",
						Description: "Type of content to search for",
						Enum:        []any{catalog.ContentTypeMovie, catalog.ContentTypeTV, catalog.ContentTypePerson},
					},
					"limit": limitSchema(),
				}, "query"),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args searchArgs
				if err := s.decode(ToolSearchIMDb, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.SearchEntities(ctx, catalog.SearchQuery{
					Text:        args.Query,
					ContentType: args.ContentType,
					Limit:       args.Limit,
				})
			},
		},
		{
			tool: &mcp.Tool{
				Name:        ToolGetMovieDetails,
				Description: "Get details about a movie or TV show from IMDb.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"imdb_id": {Type: "string", Description: "IMDb ID (with or without 'tt' prefix)"},
				}, "imdb_id"),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args movieArgs
				if err := s.decode(ToolGetMovieDetails, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.GetTitleDetails(ctx, strings.TrimSpace(args.IMDbID))
			},
		},
		{
			tool: &mcp.Tool{
				Name:        ToolGetActorDetails,
				Description: "Get details about an actor, actress, director or other person from IMDb.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"person_id": {Type: "string", Description: "IMDb person ID (with or without 'nm' prefix)"},
				}, "person_id"),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args actorArgs
				if err := s.decode(ToolGetActorDetails, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.GetPersonDetails(ctx, strings.TrimSpace(args.PersonID))
			},
		},
		{
			tool: &mcp.Tool{
				Name:        ToolSearchPeople,
				Description: "Search for actors, actresses, directors, and other people on IMDb.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query for people on IMDb"},
					"limit": limitSchema(),
				}, "query"),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args peopleArgs
				if err := s.decode(ToolSearchPeople, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.SearchPeople(ctx, args.Query, args.Limit)
			},
		},
	}

	charts := []struct {
		name        string
		description string
		chart       gateway.Chart
	}{
		{ToolGetTopMovies, "Get the IMDb Top 250 movies.", gateway.ChartTopMovies},
		{ToolGetTopTV, "Get the IMDb Top 250 TV shows.", gateway.ChartTopTV},
		{ToolGetPopularMovies, "Get the most popular movies on IMDb right now.", gateway.ChartPopularMovies},
		{ToolGetPopularTV, "Get the most popular TV shows on IMDb right now.", gateway.ChartPopularTV},
		{ToolGetBottomMovies, "Get the IMDb Bottom 100, the lowest rated movies.", gateway.ChartBottomMovies},
		{ToolGetTopIndianMovies, "Get the IMDb Top 250 Indian movies.", gateway.ChartTopIndianMovies},
		{ToolGetBoxOffice, "Get this weekend's top box office movies.", gateway.ChartBoxOffice},
	}
	for _, c := range charts {
		specs = append(specs, toolSpec{
			tool: &mcp.Tool{
				Name:        c.name,
				Description: c.description,
				InputSchema: objectSchema(map[string]*jsonschema.Schema{"limit": limitSchema()}),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args chartArgs
				if err := s.decode(c.name, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.Chart(ctx, c.chart, args.Limit)
			},
		})
	}

	rankings := []struct {
		name        string
		description string
		ranking     gateway.GenreRanking
	}{
		{ToolGetTopMoviesByGenres, "Get the 50 best rated movies in the given genres.", gateway.GenreRankingMovies},
		{ToolGetTopTVByGenres, "Get the 50 best rated TV shows in the given genres.", gateway.GenreRankingTV},
	}
	for _, r := range rankings {
		specs = append(specs, toolSpec{
			tool: &mcp.Tool{
				Name:        r.name,
				Description: r.description,
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"genres": {
						Type:        "array",
						Description: "Genres every result must have (e.g., Sci-Fi, Drama)",
						Items:       &jsonschema.Schema{Type: "string"},
					},
					"limit": limitSchema(),
				}, "genres"),
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args genreArgs
				if err := s.decode(r.name, raw, &args); err != nil {
					return nil, err
				}
				return s.catalog.TopByGenres(ctx, r.ranking, args.Genres, args.Limit)
			},
		})
	}
	return specs
}

// decode reads tool arguments into dst and validates them. Missing or
// null arguments decode as the zero value.
func (s *Server) decode(tool string, raw json.RawMessage, dst any) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(raw, dst); err != nil {
			return &ArgumentError{Tool: tool, Message: "arguments must be a JSON object matching the input schema"}
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		return &ArgumentError{Tool: tool, Message: describeValidation(err)}
	}
	return nil
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if required == nil {
		required = []string{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func limitSchema() *jsonschema.Schema {
	minimum := 1.0
	maximum := float64(maxLimit)
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "Maximum number of results to return (default: 10)",
		Minimum:     &minimum,
		Maximum:     &maximum,
	}
}
