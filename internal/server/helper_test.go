package server_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/mapper"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/server"
	"github.com/stretchr/testify/require"
)

// stubCatalog answers every operation through an optional function field.
type stubCatalog struct {
	search  func(ctx context.Context, query catalog.SearchQuery) (mapper.SearchResponse, error)
	title   func(ctx context.Context, rawID string) (mapper.MovieDetails, error)
	person  func(ctx context.Context, rawID string) (mapper.ActorDetails, error)
	people  func(ctx context.Context, text string, limit int) (mapper.PersonSearchResponse, error)
	chart   func(ctx context.Context, chart gateway.Chart, limit int) (mapper.SearchResponse, error)
	genres  func(ctx context.Context, ranking gateway.GenreRanking, genres []string, limit int) (mapper.SearchResponse, error)
	calls   int
	callsMu sync.Mutex
}

func (s *stubCatalog) called() {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	s.calls++
}

func (s *stubCatalog) callCount() int {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return s.calls
}

func (s *stubCatalog) SearchEntities(ctx context.Context, query catalog.SearchQuery) (mapper.SearchResponse, error) {
	s.called()
	return s.search(ctx, query)
}

func (s *stubCatalog) GetTitleDetails(ctx context.Context, rawID string) (mapper.MovieDetails, error) {
	s.called()
	return s.title(ctx, rawID)
}

func (s *stubCatalog) GetPersonDetails(ctx context.Context, rawID string) (mapper.ActorDetails, error) {
	s.called()
	return s.person(ctx, rawID)
}

func (s *stubCatalog) SearchPeople(ctx context.Context, text string, limit int) (mapper.PersonSearchResponse, error) {
	s.called()
	return s.people(ctx, text, limit)
}

func (s *stubCatalog) Chart(ctx context.Context, chart gateway.Chart, limit int) (mapper.SearchResponse, error) {
	s.called()
	return s.chart(ctx, chart, limit)
}

func (s *stubCatalog) TopByGenres(ctx context.Context, ranking gateway.GenreRanking, genres []string, limit int) (mapper.SearchResponse, error) {
	s.called()
	return s.genres(ctx, ranking, genres, limit)
}

type toolCall struct {
	tool   string
	status string
}

// toolCallSink records tool call outcomes.
type toolCallSink struct {
	metadata.NoopSink
	mu    sync.Mutex
	calls []toolCall
}

func (s *toolCallSink) RecordToolCall(tool string, status string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, toolCall{tool, status})
}

func (s *toolCallSink) recorded() []toolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]toolCall(nil), s.calls...)
}

// connect wires a client session to a fresh server over in-memory transports.
func connect(t *testing.T, c server.Catalog, sink metadata.MetadataSink) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := server.New(c, sink, nil, "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func decodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func strPtr(s string) *string { return &s }
