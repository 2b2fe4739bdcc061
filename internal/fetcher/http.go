package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
	"github.com/rohmanhakim/imdb-mcp/pkg/hashutil"
	"github.com/rohmanhakim/imdb-mcp/pkg/limiter"
	"github.com/rohmanhakim/imdb-mcp/pkg/retry"
	"go.uber.org/zap"
)

/*
Responsibilities

- Perform HTTP requests against the content source
- Apply headers, timeouts and per-host pacing
- Classify responses
- Retry transient failures with backoff

Fetch Semantics

- 404 is reported as not found and never retried
- 429, 5xx and transport failures are retryable; 429 also backs the host off
- Other 4xx responses are fatal
- Bodies whose content type does not match the expected kind are discarded

The fetcher never parses content; it only returns bytes and metadata.
*/

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

type HttpFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
	retryParam   retry.RetryParam
	logger       *zap.Logger
}

func NewHttpFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	rateLimiter limiter.RateLimiter,
	retryParam retry.RetryParam,
	logger *zap.Logger,
) *HttpFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HttpFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		rateLimiter:  rateLimiter,
		retryParam:   retryParam,
		logger:       logger.Named("fetcher"),
	}
}

func (h *HttpFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HttpFetcher.Fetch"
	startTime := time.Now()

	res := retry.Retry(ctx, h.retryParam, func(ctx context.Context) (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchParam)
	})

	duration := time.Since(startTime)
	retryCount := max(res.Attempts()-1, 0)

	if res.IsFailure() {
		err := res.Err()
		var statusCode int
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			statusCode = fetchErr.StatusCode
		}
		h.metadataSink.RecordFetch(fetchParam.fetchUrl.String(), statusCode, duration, "", retryCount)
		h.recordError(callerMethod, fetchParam.fetchUrl, err)
		return FetchResult{}, err
	}

	result := res.Value()
	result.attempts = res.Attempts()
	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		result.Code(),
		duration,
		hashutil.Fingerprint(result.Body()),
		retryCount,
	)
	return result, nil
}

func (h *HttpFetcher) recordError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		cause = mapFetchErrorToMetadataCause(fetchErr)
	}
	// a 404 is an answer, not a failure of the fetcher
	if cause == metadata.CauseNotFound {
		h.logger.Debug("not found", zap.String("url", fetchUrl.String()))
		return
	}
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			metadata.NewAttr(metadata.AttrHost, fetchUrl.Host),
		},
	)
}

func (h *HttpFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	fetchUrl := fetchParam.fetchUrl
	host := fetchUrl.Host

	if h.rateLimiter != nil {
		if err := h.rateLimiter.Wait(ctx, host); err != nil {
			waitErr := ctx.Err()
			if waitErr == nil {
				// the token bucket refuses a wait that would outlast the deadline
				waitErr = context.DeadlineExceeded
			}
			return FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("waiting for rate limiter: %v", err),
				Retryable: false,
				Cause:     ErrCauseTimeout,
				Err:       waitErr,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	for key, value := range requestHeaders(fetchParam.userAgent, fetchParam.expect) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("%s returned 404", fetchUrl.Path),
			Retryable:  false,
			Cause:      ErrCauseNotFound,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		if h.rateLimiter != nil {
			h.rateLimiter.Backoff(host)
		}
		return FetchResult{}, &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 500:
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("access denied (%d)", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestPageForbidden,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 400:
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseRequest4xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 300:
		// http.Client follows redirects; reaching here means the limit was hit
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseRedirectLimitExceeded,
			StatusCode: resp.StatusCode,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !matchesContentKind(contentType, fetchParam.expect) {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("unexpected content type: %s", contentType),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	if h.rateLimiter != nil {
		h.rateLimiter.ResetBackoff(host)
	}

	return FetchResult{
		url:  fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:  resp.StatusCode,
			contentType: contentType,
		},
	}, nil
}

func classifyTransportError(ctx context.Context, err error) *FetchError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &FetchError{
			Message:   fmt.Sprintf("request aborted: %v", ctxErr),
			Retryable: false,
			Cause:     ErrCauseTimeout,
			Err:       ctxErr,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func matchesContentKind(contentType string, expect ContentKind) bool {
	contentType = strings.ToLower(contentType)
	switch expect {
	case ContentJSON:
		return strings.Contains(contentType, "json") ||
			strings.Contains(contentType, "javascript")
	default:
		return strings.Contains(contentType, "text/html") ||
			strings.Contains(contentType, "application/xhtml")
	}
}

func requestHeaders(userAgent string, expect ContentKind) map[string]string {
	accept := "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	if expect == ContentJSON {
		accept = "application/json,text/javascript;q=0.9,*/*;q=0.5"
	}
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          accept,
		"Accept-Language": "en-US,en;q=0.5",
	}
}
