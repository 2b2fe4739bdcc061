package catalog_test

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/stretchr/testify/mock"
)

// gatewayMock is a testify mock for catalog.Gateway
type gatewayMock struct {
	mock.Mock
}

func (g *gatewayMock) FetchTitle(ctx context.Context, numericID string) (gateway.TitleRecord, error) {
	args := g.Called(ctx, numericID)
	return args.Get(0).(gateway.TitleRecord), args.Error(1)
}

func (g *gatewayMock) FetchPerson(ctx context.Context, numericID string) (gateway.PersonRecord, error) {
	args := g.Called(ctx, numericID)
	return args.Get(0).(gateway.PersonRecord), args.Error(1)
}

func (g *gatewayMock) SearchTitles(ctx context.Context, query string) ([]gateway.RawResult, error) {
	args := g.Called(ctx, query)
	var results []gateway.RawResult
	if args.Get(0) != nil {
		results = args.Get(0).([]gateway.RawResult)
	}
	return results, args.Error(1)
}

func (g *gatewayMock) SearchPeople(ctx context.Context, query string) ([]gateway.RawResult, error) {
	args := g.Called(ctx, query)
	var results []gateway.RawResult
	if args.Get(0) != nil {
		results = args.Get(0).([]gateway.RawResult)
	}
	return results, args.Error(1)
}

func (g *gatewayMock) Chart(ctx context.Context, chart gateway.Chart) ([]gateway.RawResult, error) {
	args := g.Called(ctx, chart)
	var results []gateway.RawResult
	if args.Get(0) != nil {
		results = args.Get(0).([]gateway.RawResult)
	}
	return results, args.Error(1)
}

func (g *gatewayMock) TopByGenres(ctx context.Context, ranking gateway.GenreRanking, genres []string) ([]gateway.RawResult, error) {
	args := g.Called(ctx, ranking, genres)
	var results []gateway.RawResult
	if args.Get(0) != nil {
		results = args.Get(0).([]gateway.RawResult)
	}
	return results, args.Error(1)
}

// cacheRecordingSink captures cache outcomes and error causes.
type cacheRecordingSink struct {
	metadata.NoopSink
	mu       sync.Mutex
	outcomes map[string][]metadata.CacheOutcome
	causes   []metadata.ErrorCause
}

func newCacheRecordingSink() *cacheRecordingSink {
	return &cacheRecordingSink{outcomes: make(map[string][]metadata.CacheOutcome)}
}

func (s *cacheRecordingSink) RecordCache(kind string, outcome metadata.CacheOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[kind] = append(s.outcomes[kind], outcome)
}

func (s *cacheRecordingSink) RecordError(_ time.Time, _ string, _ string, cause metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.causes = append(s.causes, cause)
}

func (s *cacheRecordingSink) outcomesFor(kind string) []metadata.CacheOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]metadata.CacheOutcome(nil), s.outcomes[kind]...)
}

func intPtr(v int) *int { return &v }

func titleResults(kinds ...string) []gateway.RawResult {
	out := make([]gateway.RawResult, 0, len(kinds))
	for i, kind := range kinds {
		out = append(out, gateway.RawResult{
			ID:    "tt000000" + string(rune('0'+i)),
			Title: "Title " + string(rune('A'+i)),
			Kind:  kind,
			Year:  intPtr(2000 + i),
		})
	}
	return out
}
