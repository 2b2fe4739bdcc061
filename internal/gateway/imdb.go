package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/imdb-mcp/internal/extractor"
	"github.com/rohmanhakim/imdb-mcp/internal/fetcher"
	"github.com/rohmanhakim/imdb-mcp/internal/mdconvert"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/normalize"
	"github.com/rohmanhakim/imdb-mcp/pkg/urlutil"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

/*
Responsibilities
- Resolve numeric identifiers and queries to content source URLs
- Fetch through the circuit breaker, one span per upstream request
- Turn pages into gateway records
- Report absence as ErrNotFound and everything else as *GatewayError

A 404 is an answer, not a fault: it never counts against the breaker.
*/

const tracerName = "github.com/rohmanhakim/imdb-mcp/internal/gateway"

type IMDb struct {
	param        Param
	fetcher      fetcher.Fetcher
	extractor    *extractor.DomExtractor
	converter    *mdconvert.TextConversionRule
	breaker      *gobreaker.CircuitBreaker[fetcher.FetchResult]
	tracer       trace.Tracer
	metadataSink metadata.MetadataSink
	logger       *zap.Logger
}

type Option func(*IMDb)

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *IMDb) {
		g.tracer = tracer
	}
}

func NewIMDb(
	param Param,
	f fetcher.Fetcher,
	metadataSink metadata.MetadataSink,
	logger *zap.Logger,
	opts ...Option,
) *IMDb {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &IMDb{
		param:        param,
		fetcher:      f,
		extractor:    extractor.NewDomExtractor(metadataSink),
		converter:    mdconvert.NewRule(metadataSink),
		tracer:       otel.Tracer(tracerName),
		metadataSink: metadataSink,
		logger:       logger.Named("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.breaker = newBreaker(param, g.logger)
	return g
}

func newBreaker(param Param, logger *zap.Logger) *gobreaker.CircuitBreaker[fetcher.FetchResult] {
	threshold := param.breakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := param.breakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[fetcher.FetchResult](gobreaker.Settings{
		Name:        "imdb",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// neither a 404 nor a caller that stopped waiting says anything about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || fetcher.IsNotFound(err) || isCallerAbort(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

// BreakerState reports the breaker state for health checks.
func (g *IMDb) BreakerState() gobreaker.State {
	return g.breaker.State()
}

func (g *IMDb) FetchTitle(ctx context.Context, numericID string) (TitleRecord, error) {
	key := normalize.TitlePrefix + numericID
	pageURL := urlutil.TitlePage(g.param.baseURL, key)

	res, err := g.fetch(ctx, "FetchTitle", pageURL, fetcher.ContentHTML)
	if err != nil {
		return TitleRecord{}, err
	}

	page, extractErr := g.extractor.ExtractTitle(pageURL, res.Body())
	if extractErr != nil {
		return TitleRecord{}, g.parseError("FetchTitle", pageURL, extractErr)
	}

	return titleRecordFrom(key, page), nil
}

// FetchPerson reads the person page and, best effort, the biography page.
// A failing biography page degrades the record instead of failing it.
func (g *IMDb) FetchPerson(ctx context.Context, numericID string) (PersonRecord, error) {
	key := normalize.PersonPrefix + numericID
	pageURL := urlutil.PersonPage(g.param.baseURL, key)

	res, err := g.fetch(ctx, "FetchPerson", pageURL, fetcher.ContentHTML)
	if err != nil {
		return PersonRecord{}, err
	}

	page, extractErr := g.extractor.ExtractPerson(pageURL, res.Body())
	if extractErr != nil {
		return PersonRecord{}, g.parseError("FetchPerson", pageURL, extractErr)
	}

	record := personRecordFrom(key, page)
	record.Biography = page.Description

	bioURL := urlutil.PersonBioPage(g.param.baseURL, key)
	bioRes, err := g.fetch(ctx, "FetchPersonBio", bioURL, fetcher.ContentHTML)
	if err != nil {
		g.logger.Debug("biography unavailable", zap.String("key", key), zap.Error(err))
		return record, nil
	}
	bio, extractErr := g.extractor.ExtractBio(bioURL, bioRes.Body())
	if extractErr != nil {
		return record, nil
	}

	record.BirthPlace = bio.BirthPlace
	record.DeathPlace = bio.DeathPlace
	record.Height = bio.Height
	if bio.BiographyHTML != "" {
		if converted, convErr := g.converter.ConvertString(bio.BiographyHTML); convErr == nil && converted.Text() != "" {
			record.Biography = converted.Text()
		}
	}
	return record, nil
}

func (g *IMDb) SearchTitles(ctx context.Context, query string) ([]RawResult, error) {
	suggestions, err := g.suggest(ctx, "SearchTitles", query)
	if err != nil {
		return nil, err
	}
	results := make([]RawResult, 0, len(suggestions))
	for _, s := range suggestions {
		if !strings.HasPrefix(s.ID, normalize.TitlePrefix) {
			continue
		}
		results = append(results, RawResult{
			ID:          s.ID,
			Title:       s.Label,
			Kind:        s.Kind,
			Year:        s.Year,
			Description: s.Subtitle,
			ImageURL:    s.ImageURL,
		})
	}
	return results, nil
}

func (g *IMDb) SearchPeople(ctx context.Context, query string) ([]RawResult, error) {
	suggestions, err := g.suggest(ctx, "SearchPeople", query)
	if err != nil {
		return nil, err
	}
	results := make([]RawResult, 0, len(suggestions))
	for _, s := range suggestions {
		if !strings.HasPrefix(s.ID, normalize.PersonPrefix) {
			continue
		}
		results = append(results, RawResult{
			ID:          s.ID,
			Title:       s.Label,
			Kind:        s.Kind,
			Description: s.Subtitle,
			ImageURL:    s.ImageURL,
			KnownFor:    knownForFromSubtitle(s.Subtitle),
		})
	}
	return results, nil
}

// Chart returns the full ranked listing in upstream order.
func (g *IMDb) Chart(ctx context.Context, chart Chart) ([]RawResult, error) {
	return g.rankedList(ctx, "Chart", chart.Page(g.param.baseURL))
}

// TopByGenres returns the best rated titles of the ranking's types that carry
// every genre in genres, at most GenreRankingSize of them.
func (g *IMDb) TopByGenres(ctx context.Context, ranking GenreRanking, genres []string) ([]RawResult, error) {
	searchURL := urlutil.RankedSearchURL(g.param.baseURL, string(ranking), genres, GenreRankingSize)
	results, err := g.rankedList(ctx, "TopByGenres", searchURL)
	if err != nil {
		return nil, err
	}
	return results[:min(len(results), GenreRankingSize)], nil
}

// rankedList reads the ItemList JSON-LD block of a listing page.
func (g *IMDb) rankedList(ctx context.Context, action string, listURL url.URL) ([]RawResult, error) {
	res, err := g.fetch(ctx, action, listURL, fetcher.ContentHTML)
	if err != nil {
		return nil, err
	}

	items, extractErr := g.extractor.ExtractChart(listURL, res.Body())
	if extractErr != nil {
		return nil, g.parseError(action, listURL, extractErr)
	}

	results := make([]RawResult, 0, len(items))
	for _, item := range items {
		results = append(results, RawResult{
			ID:          item.ID,
			Title:       item.Name,
			Kind:        item.Kind,
			Rating:      item.Rating,
			Description: item.Plot,
		})
	}
	return results, nil
}

func (g *IMDb) suggest(ctx context.Context, op string, query string) ([]extractor.Suggestion, error) {
	suggestURL := urlutil.SuggestionURL(g.param.suggestURL, query)

	res, err := g.fetch(ctx, op, suggestURL, fetcher.ContentJSON)
	if err != nil {
		// the suggestion endpoint answers 404 for queries with no match
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	suggestions, extractErr := g.extractor.ExtractSuggestions(res.Body())
	if extractErr != nil {
		return nil, g.parseError(op, suggestURL, extractErr)
	}
	return suggestions, nil
}

func (g *IMDb) fetch(ctx context.Context, op string, target url.URL, kind fetcher.ContentKind) (fetcher.FetchResult, error) {
	ctx, span := g.tracer.Start(ctx, "imdb."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", target.String())),
	)
	defer span.End()

	res, err := g.breaker.Execute(func() (fetcher.FetchResult, error) {
		r, fetchErr := g.fetcher.Fetch(ctx, fetcher.NewFetchParam(target, g.param.userAgent, kind))
		if fetchErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !isCallerAbort(fetchErr) {
				return fetcher.FetchResult{}, fmt.Errorf("%w: %w", ctxErr, fetchErr)
			}
			return fetcher.FetchResult{}, fetchErr
		}
		return r, nil
	})
	if err == nil {
		span.SetAttributes(attribute.Int("http.response.status_code", res.Code()))
		return res, nil
	}

	if fetcher.IsNotFound(err) {
		span.SetAttributes(attribute.Bool("imdb.not_found", true))
		return fetcher.FetchResult{}, fmt.Errorf("%w: %s", ErrNotFound, target.Path)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	gatewayErr := &GatewayError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     ErrCauseUpstream,
		Err:       err,
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		gatewayErr.Cause = ErrCauseCircuitOpen
		gatewayErr.Message = fmt.Sprintf("upstream temporarily disabled: %v", err)
		g.metadataSink.RecordError(
			time.Now(),
			"gateway",
			"IMDb."+op,
			mapGatewayErrorToMetadataCause(gatewayErr),
			gatewayErr.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, target.String())},
		)
	}
	return fetcher.FetchResult{}, gatewayErr
}

func isCallerAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (g *IMDb) parseError(op string, target url.URL, err error) *GatewayError {
	return &GatewayError{
		Message:   fmt.Sprintf("%s %s: %v", op, target.Path, err),
		Retryable: false,
		Cause:     ErrCauseParse,
		Err:       err,
	}
}

func titleRecordFrom(key string, page extractor.TitlePage) TitleRecord {
	return TitleRecord{
		ID:             key,
		Title:          page.Name,
		Kind:           page.Kind,
		Year:           page.Year,
		Rating:         page.Rating,
		Votes:          page.Votes,
		Genres:         nonNil(page.Genres),
		Directors:      names(page.Directors),
		Cast:           names(page.Cast),
		Plot:           page.Plot,
		RuntimeMinutes: page.RuntimeMinutes,
		PosterURL:      page.ImageURL,
	}
}

func personRecordFrom(key string, page extractor.PersonPage) PersonRecord {
	record := PersonRecord{
		ID:          key,
		Name:        page.Name,
		BirthDate:   page.BirthDate,
		DeathDate:   page.DeathDate,
		HeadshotURL: page.ImageURL,
		KnownFor:    credits(page.KnownFor),
		Filmography: make([]FilmographySection, 0, len(page.Filmography)),
	}
	for _, section := range page.Filmography {
		record.Filmography = append(record.Filmography, FilmographySection{
			Category: section.Category,
			Credits:  credits(section.Credits),
		})
	}
	return record
}

// knownForFromSubtitle turns "Actor, Inception (2010)" into ["Inception (2010)"].
func knownForFromSubtitle(subtitle string) []string {
	_, rest, ok := strings.Cut(subtitle, ", ")
	if !ok || strings.TrimSpace(rest) == "" {
		return []string{}
	}
	return []string{strings.TrimSpace(rest)}
}

func names(refs []extractor.Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func credits(in []extractor.Credit) []Credit {
	out := make([]Credit, 0, len(in))
	for _, c := range in {
		out = append(out, Credit{ID: c.ID, Title: c.Title, Year: c.Year})
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
