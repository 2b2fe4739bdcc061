package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rohmanhakim/imdb-mcp/internal/cache"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/mapper"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/normalize"
	"go.uber.org/zap"
)

const DefaultLimit = 10

const (
	ContentTypeMovie  = "movie"
	ContentTypeTV     = "tv"
	ContentTypePerson = "person"
)

// tvKinds are the title kinds the "tv" content type keeps and the "movie"
// content type drops.
var tvKinds = map[string]bool{
	"tv series":      true,
	"tv mini series": true,
	"tv movie":       true,
	"episode":        true,
}

// Gateway is the upstream contract the catalog depends on. Not-found
// answers must match gateway.ErrNotFound under errors.Is.
type Gateway interface {
	FetchTitle(ctx context.Context, numericID string) (gateway.TitleRecord, error)
	FetchPerson(ctx context.Context, numericID string) (gateway.PersonRecord, error)
	SearchTitles(ctx context.Context, query string) ([]gateway.RawResult, error)
	SearchPeople(ctx context.Context, query string) ([]gateway.RawResult, error)
	Chart(ctx context.Context, chart gateway.Chart) ([]gateway.RawResult, error)
	TopByGenres(ctx context.Context, ranking gateway.GenreRanking, genres []string) ([]gateway.RawResult, error)
}

type SearchQuery struct {
	Text        string
	ContentType string
	Limit       int
}

type Service struct {
	gateway      Gateway
	titles       *Coordinator[gateway.TitleRecord]
	people       *Coordinator[gateway.PersonRecord]
	metadataSink metadata.MetadataSink
	logger       *zap.Logger
}

func NewService(
	gw Gateway,
	titleCache cache.Cache[normalize.Key, gateway.TitleRecord],
	personCache cache.Cache[normalize.Key, gateway.PersonRecord],
	metadataSink metadata.MetadataSink,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:      gw,
		titles:       NewCoordinator[gateway.TitleRecord](normalize.KindTitle.String(), titleCache, gw.FetchTitle, metadataSink, logger),
		people:       NewCoordinator[gateway.PersonRecord](normalize.KindPerson.String(), personCache, gw.FetchPerson, metadataSink, logger),
		metadataSink: metadataSink,
		logger:       logger.Named("catalog"),
	}
}

// NewTitleCache builds a title cache that reports evictions to sink.
func NewTitleCache(capacity int, sink metadata.MetadataSink) *cache.FIFO[normalize.Key, gateway.TitleRecord] {
	return cache.NewFIFO[normalize.Key, gateway.TitleRecord](capacity, cache.WithEvictionCallback(func(normalize.Key, gateway.TitleRecord) {
		sink.RecordCache(normalize.KindTitle.String(), metadata.CacheEvict)
	}))
}

// NewPersonCache builds a person cache that reports evictions to sink.
func NewPersonCache(capacity int, sink metadata.MetadataSink) *cache.FIFO[normalize.Key, gateway.PersonRecord] {
	return cache.NewFIFO[normalize.Key, gateway.PersonRecord](capacity, cache.WithEvictionCallback(func(normalize.Key, gateway.PersonRecord) {
		sink.RecordCache(normalize.KindPerson.String(), metadata.CacheEvict)
	}))
}

func (s *Service) GetTitleDetails(ctx context.Context, rawID string) (mapper.MovieDetails, error) {
	if strings.TrimSpace(rawID) == "" {
		return mapper.MovieDetails{}, s.reject("GetTitleDetails", newValidationError("imdb_id is required"))
	}
	record, err := s.titles.FetchDetails(ctx, normalize.TitleID(rawID))
	if err != nil {
		return mapper.MovieDetails{}, err
	}
	return mapper.ToMovieDetails(record), nil
}

func (s *Service) GetPersonDetails(ctx context.Context, rawID string) (mapper.ActorDetails, error) {
	if strings.TrimSpace(rawID) == "" {
		return mapper.ActorDetails{}, s.reject("GetPersonDetails", newValidationError("person_id is required"))
	}
	record, err := s.people.FetchDetails(ctx, normalize.PersonID(rawID))
	if err != nil {
		return mapper.ActorDetails{}, err
	}
	return mapper.ToActorDetails(record), nil
}

// SearchEntities searches titles, or people when the content type is
// "person". The content type filter runs before the limit; TotalResults is
// the upstream count before either.
func (s *Service) SearchEntities(ctx context.Context, query SearchQuery) (mapper.SearchResponse, error) {
	limit, err := s.validateSearch("SearchEntities", query.Text, query.Limit)
	if err != nil {
		return mapper.SearchResponse{}, err
	}

	var raw []gateway.RawResult
	switch query.ContentType {
	case "", ContentTypeMovie, ContentTypeTV:
		raw, err = s.gateway.SearchTitles(ctx, query.Text)
	case ContentTypePerson:
		raw, err = s.gateway.SearchPeople(ctx, query.Text)
	default:
		return mapper.SearchResponse{}, s.reject("SearchEntities", newValidationError(
			"invalid content type: %s. Valid types are: %s, %s, %s",
			query.ContentType, ContentTypePerson, ContentTypeTV, ContentTypeMovie,
		))
	}
	if err != nil {
		return mapper.SearchResponse{}, s.upstream("SearchEntities", "failed to search", query.Text, err)
	}

	results := make([]mapper.SearchResult, 0, min(limit, len(raw)))
	for _, candidate := range raw {
		if len(results) >= limit {
			break
		}
		if !keepKind(query.ContentType, candidate.Kind) {
			continue
		}
		results = append(results, mapper.ToSearchResult(candidate))
	}

	return mapper.SearchResponse{Results: results, TotalResults: len(raw)}, nil
}

func (s *Service) SearchPeople(ctx context.Context, text string, limit int) (mapper.PersonSearchResponse, error) {
	limit, err := s.validateSearch("SearchPeople", text, limit)
	if err != nil {
		return mapper.PersonSearchResponse{}, err
	}

	raw, err := s.gateway.SearchPeople(ctx, text)
	if err != nil {
		return mapper.PersonSearchResponse{}, s.upstream("SearchPeople", "failed to search people", text, err)
	}

	results := make([]mapper.PersonSearchResult, 0, min(limit, len(raw)))
	for _, candidate := range raw[:min(limit, len(raw))] {
		results = append(results, mapper.ToPersonSearchResult(candidate))
	}
	return mapper.PersonSearchResponse{Results: results, TotalResults: len(raw)}, nil
}

// Chart returns the first limit entries of a ranked listing.
func (s *Service) Chart(ctx context.Context, chart gateway.Chart, limit int) (mapper.SearchResponse, error) {
	limit, err := s.validateLimit("Chart", limit)
	if err != nil {
		return mapper.SearchResponse{}, err
	}

	raw, err := s.gateway.Chart(ctx, chart)
	if err != nil {
		return mapper.SearchResponse{}, s.upstream("Chart", "failed to fetch chart "+string(chart), string(chart), err)
	}
	return firstResults(raw, limit), nil
}

// TopByGenres returns the first limit entries of the genre ranking. Genre
// names are matched case-insensitively; blank names are dropped.
func (s *Service) TopByGenres(ctx context.Context, ranking gateway.GenreRanking, genres []string, limit int) (mapper.SearchResponse, error) {
	limit, err := s.validateLimit("TopByGenres", limit)
	if err != nil {
		return mapper.SearchResponse{}, err
	}

	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			names = append(names, g)
		}
	}
	if len(names) == 0 {
		return mapper.SearchResponse{}, s.reject("TopByGenres", newValidationError("genres is required"))
	}

	raw, err := s.gateway.TopByGenres(ctx, ranking, names)
	if err != nil {
		return mapper.SearchResponse{}, s.upstream("TopByGenres", "failed to fetch top titles for genres", strings.Join(names, ","), err)
	}
	return firstResults(raw, limit), nil
}

func (s *Service) validateLimit(action string, limit int) (int, error) {
	if limit < 0 {
		return 0, s.reject(action, newValidationError("limit must be positive"))
	}
	if limit == 0 {
		return DefaultLimit, nil
	}
	return limit, nil
}

func firstResults(raw []gateway.RawResult, limit int) mapper.SearchResponse {
	results := make([]mapper.SearchResult, 0, min(limit, len(raw)))
	for _, entry := range raw[:min(limit, len(raw))] {
		results = append(results, mapper.ToSearchResult(entry))
	}
	return mapper.SearchResponse{Results: results, TotalResults: len(raw)}
}

func (s *Service) validateSearch(action string, text string, limit int) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, s.reject(action, newValidationError("query is required"))
	}
	if limit < 0 {
		return 0, s.reject(action, newValidationError("limit must be positive"))
	}
	if limit == 0 {
		return DefaultLimit, nil
	}
	return limit, nil
}

func keepKind(contentType string, kind string) bool {
	switch contentType {
	case ContentTypeTV:
		return tvKinds[kind]
	case ContentTypeMovie:
		return !tvKinds[kind]
	default:
		return true
	}
}

func (s *Service) reject(action string, err *Error) *Error {
	s.logger.Debug("rejected request", zap.String("action", action), zap.String("reason", err.Message))
	return err
}

func (s *Service) upstream(action string, message string, query string, cause error) *Error {
	err := &Error{Kind: KindUpstream, Message: fmt.Sprintf("%s: %s", message, query), Cause: cause}
	s.logger.Warn("upstream search failed", zap.String("action", action), zap.Error(cause))
	s.metadataSink.RecordError(
		time.Now(),
		"catalog",
		"Service."+action,
		mapCatalogErrorToMetadataCause(err),
		cause.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrQuery, query)},
	)
	return err
}
