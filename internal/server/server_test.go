package server_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/mapper"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTools(t *testing.T) {
	session := connect(t, &stubCatalog{}, &metadata.NoopSink{})

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		server.ToolGetActorDetails,
		server.ToolGetBottomMovies,
		server.ToolGetBoxOffice,
		server.ToolGetMovieDetails,
		server.ToolGetPopularMovies,
		server.ToolGetPopularTV,
		server.ToolGetTopIndianMovies,
		server.ToolGetTopMovies,
		server.ToolGetTopMoviesByGenres,
		server.ToolGetTopTV,
		server.ToolGetTopTVByGenres,
		server.ToolSearchIMDb,
		server.ToolSearchPeople,
	}, names)
}

func TestSearchIMDb_PassesArguments(t *testing.T) {
	var got catalog.SearchQuery
	stub := &stubCatalog{
		search: func(_ context.Context, query catalog.SearchQuery) (mapper.SearchResponse, error) {
			got = query
			return mapper.SearchResponse{
				Results: []mapper.SearchResult{{
					Title:  "Inception",
					URL:    "https://www.imdb.com/title/tt1375666/",
					Year:   strPtr("2010"),
					IMDbID: "tt1375666",
				}},
				TotalResults: 4,
			}, nil
		},
	}
	sink := &toolCallSink{}
	session := connect(t, stub, sink)

	result := callTool(t, session, server.ToolSearchIMDb, map[string]any{
		"query":        "Inception",
		"content_type": "movie",
		"limit":        3,
	})

	assert.False(t, result.IsError)
	assert.Equal(t, catalog.SearchQuery{Text: "Inception", ContentType: "movie", Limit: 3}, got)
	resp := decodeResult[mapper.SearchResponse](t, result)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "tt1375666", resp.Results[0].IMDbID)
	assert.Equal(t, 4, resp.TotalResults)
	assert.Contains(t, resultText(t, result), "\n  \"results\"")
	assert.Equal(t, []toolCall{{server.ToolSearchIMDb, "ok"}}, sink.recorded())
}

func TestSearchIMDb_ContentTypeIsNotNormalized(t *testing.T) {
	var got catalog.SearchQuery
	stub := &stubCatalog{
		search: func(_ context.Context, query catalog.SearchQuery) (mapper.SearchResponse, error) {
			got = query
			return mapper.SearchResponse{}, &catalog.Error{Kind: catalog.KindValidation, Message: "invalid content type: TV. Valid types are: person, tv, movie"}
		},
	}
	session := connect(t, stub, &metadata.NoopSink{})

	result := callTool(t, session, server.ToolSearchIMDb, map[string]any{"query": "Lost", "content_type": "TV"})

	assert.Equal(t, "TV", got.ContentType)
	assert.True(t, result.IsError)
	body := decodeResult[errorBody](t, result)
	assert.Equal(t, server.TitleValidation, body.Error)
}

func TestGetMovieDetails_NullFields(t *testing.T) {
	stub := &stubCatalog{
		title: func(_ context.Context, rawID string) (mapper.MovieDetails, error) {
			return mapper.ToMovieDetails(gateway.TitleRecord{ID: "tt" + rawID, Title: "Obscure"}), nil
		},
	}
	session := connect(t, stub, &metadata.NoopSink{})

	result := callTool(t, session, server.ToolGetMovieDetails, map[string]any{"imdb_id": " 0000001 "})

	assert.False(t, result.IsError)
	text := resultText(t, result)
	assert.Contains(t, text, `"imdb_id": "tt0000001"`)
	assert.Contains(t, text, `"director": null`)
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantTitle   string
		wantMessage string
		wantStatus  string
	}{
		{
			name:        "not found",
			err:         &catalog.Error{Kind: catalog.KindNotFound, Message: "title tt9 not found"},
			wantTitle:   server.TitleNotFound,
			wantMessage: "title tt9 not found",
			wantStatus:  "not_found",
		},
		{
			name:        "upstream",
			err:         &catalog.Error{Kind: catalog.KindUpstream, Message: "failed to fetch title details for tt9", Cause: errors.New("dial tcp: refused")},
			wantTitle:   server.TitleRuntime,
			wantMessage: "failed to fetch title details for tt9",
			wantStatus:  "upstream_error",
		},
		{
			name:        "validation",
			err:         &catalog.Error{Kind: catalog.KindValidation, Message: "imdb_id is required"},
			wantTitle:   server.TitleValidation,
			wantMessage: "imdb_id is required",
			wantStatus:  "validation_error",
		},
		{
			name:        "unclassified",
			err:         errors.New("secret internal detail"),
			wantTitle:   server.TitleServer,
			wantMessage: "An unexpected error occurred",
			wantStatus:  "server_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalog{
				title: func(context.Context, string) (mapper.MovieDetails, error) {
					return mapper.MovieDetails{}, tt.err
				},
			}
			sink := &toolCallSink{}
			session := connect(t, stub, sink)

			result := callTool(t, session, server.ToolGetMovieDetails, map[string]any{"imdb_id": "tt9"})

			assert.True(t, result.IsError)
			body := decodeResult[errorBody](t, result)
			assert.Equal(t, tt.wantTitle, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.NotContains(t, resultText(t, result), "dial tcp")
			assert.Equal(t, []toolCall{{server.ToolGetMovieDetails, tt.wantStatus}}, sink.recorded())
		})
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		message string
	}{
		{"missing query", server.ToolSearchIMDb, map[string]any{}, "missing required parameter: query"},
		{"missing imdb id", server.ToolGetMovieDetails, map[string]any{}, "missing required parameter: imdb_id"},
		{"missing person id", server.ToolGetActorDetails, map[string]any{"person_id": ""}, "missing required parameter: person_id"},
		{"limit too small", server.ToolSearchPeople, map[string]any{"query": "tom", "limit": -2}, "limit must be at least 1"},
		{"limit too large", server.ToolGetTopMovies, map[string]any{"limit": 1000}, "limit must be at most 250"},
		{"wrong type", server.ToolSearchIMDb, map[string]any{"query": 42}, "arguments must be a JSON object matching the input schema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalog{}
			session := connect(t, stub, &metadata.NoopSink{})

			result := callTool(t, session, tt.tool, tt.args)

			assert.True(t, result.IsError)
			body := decodeResult[errorBody](t, result)
			assert.Equal(t, server.TitleValidation, body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, 0, stub.callCount())
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	stub := &stubCatalog{
		person: func(context.Context, string) (mapper.ActorDetails, error) {
			panic("boom")
		},
	}
	sink := &toolCallSink{}
	session := connect(t, stub, sink)

	result := callTool(t, session, server.ToolGetActorDetails, map[string]any{"person_id": "nm0000138"})

	assert.True(t, result.IsError)
	body := decodeResult[errorBody](t, result)
	assert.Equal(t, server.TitleServer, body.Error)
	assert.Equal(t, []toolCall{{server.ToolGetActorDetails, "panic"}}, sink.recorded())

	// the session survives the panic
	_, err := session.ListTools(context.Background(), nil)
	assert.NoError(t, err)
}

func TestChartTools(t *testing.T) {
	var gotChart gateway.Chart
	var gotLimit int
	stub := &stubCatalog{
		chart: func(_ context.Context, chart gateway.Chart, limit int) (mapper.SearchResponse, error) {
			gotChart, gotLimit = chart, limit
			return mapper.SearchResponse{Results: []mapper.SearchResult{}, TotalResults: 250}, nil
		},
	}
	session := connect(t, stub, &metadata.NoopSink{})

	tests := map[string]gateway.Chart{
		server.ToolGetTopMovies:     gateway.ChartTopMovies,
		server.ToolGetTopTV:         gateway.ChartTopTV,
		server.ToolGetPopularMovies: gateway.ChartPopularMovies,
		server.ToolGetPopularTV:     gateway.ChartPopularTV,
		server.ToolGetBottomMovies:  gateway.ChartBottomMovies,
		server.ToolGetBoxOffice:     gateway.ChartBoxOffice,

		server.ToolGetTopIndianMovies: gateway.ChartTopIndianMovies,
	}
	for tool, chart := range tests {
		result := callTool(t, session, tool, map[string]any{"limit": 5})
		assert.False(t, result.IsError)
		assert.Equal(t, chart, gotChart, tool)
		assert.Equal(t, 5, gotLimit, tool)
	}
}

func TestGenreTools(t *testing.T) {
	var gotRanking gateway.GenreRanking
	var gotGenres []string
	stub := &stubCatalog{
		genres: func(_ context.Context, ranking gateway.GenreRanking, genres []string, limit int) (mapper.SearchResponse, error) {
			gotRanking, gotGenres = ranking, genres
			assert.Equal(t, 3, limit)
			return mapper.SearchResponse{Results: []mapper.SearchResult{}, TotalResults: 50}, nil
		},
	}
	session := connect(t, stub, &metadata.NoopSink{})

	tests := map[string]gateway.GenreRanking{
		server.ToolGetTopMoviesByGenres: gateway.GenreRankingMovies,
		server.ToolGetTopTVByGenres:     gateway.GenreRankingTV,
	}
	for tool, ranking := range tests {
		result := callTool(t, session, tool, map[string]any{"genres": []string{"Sci-Fi", "Drama"}, "limit": 3})
		assert.False(t, result.IsError, tool)
		assert.Equal(t, ranking, gotRanking, tool)
		assert.Equal(t, []string{"Sci-Fi", "Drama"}, gotGenres, tool)
	}
}

func TestGenreTools_MissingGenres(t *testing.T) {
	stub := &stubCatalog{}
	session := connect(t, stub, &metadata.NoopSink{})

	result := callTool(t, session, server.ToolGetTopTVByGenres, map[string]any{})

	assert.True(t, result.IsError)
	body := decodeResult[errorBody](t, result)
	assert.Equal(t, server.TitleValidation, body.Error)
	assert.Equal(t, "missing required parameter: genres", body.Message)
	assert.Equal(t, 0, stub.callCount())
}

func TestSearchPeopleTool(t *testing.T) {
	stub := &stubCatalog{
		people: func(_ context.Context, text string, limit int) (mapper.PersonSearchResponse, error) {
			assert.Equal(t, "nolan", text)
			assert.Equal(t, 0, limit)
			return mapper.PersonSearchResponse{
				Results:      []mapper.PersonSearchResult{{Name: "Christopher Nolan", IMDbID: "nm0634240", URL: "https://www.imdb.com/name/nm0634240/", KnownFor: []string{}}},
				TotalResults: 1,
			}, nil
		},
	}
	session := connect(t, stub, &metadata.NoopSink{})

	result := callTool(t, session, server.ToolSearchPeople, map[string]any{"query": "nolan"})

	resp := decodeResult[mapper.PersonSearchResponse](t, result)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Christopher Nolan", resp.Results[0].Name)
}

func TestPrompts(t *testing.T) {
	session := connect(t, &stubCatalog{}, &metadata.NoopSink{})
	ctx := context.Background()

	list, err := session.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Prompts, 4)

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{server.ToolSearchIMDb, map[string]string{"query": "inception", "content_type": "movie", "limit": "5"}, "Here is the search query: inception (content type: movie) (limit: 5)\n\n"},
		{server.ToolSearchIMDb, map[string]string{"query": "inception", "limit": "10"}, "Here is the search query: inception\n\n"},
		{server.ToolGetMovieDetails, map[string]string{"imdb_id": "tt1375666"}, "Here is the IMDb ID: tt1375666\n\n"},
		{server.ToolGetActorDetails, map[string]string{"person_id": "nm0634240"}, "Here is the IMDb person ID: nm0634240\n\n"},
		{server.ToolSearchPeople, map[string]string{"query": "nolan", "limit": "3"}, "Search for people on IMDb: nolan (limit: 3)\n\n"},
	}
	for _, tt := range tests {
		result, err := session.GetPrompt(ctx, &mcp.GetPromptParams{Name: tt.name, Arguments: tt.args})
		require.NoError(t, err)
		require.Len(t, result.Messages, 1)
		text, ok := result.Messages[0].Content.(*mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, tt.want, text.Text)
	}
}
