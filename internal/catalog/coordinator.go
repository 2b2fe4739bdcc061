package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohmanhakim/imdb-mcp/internal/cache"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/normalize"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

/*
Coordinator

Per-key lifecycle: Absent -> InFlight -> Cached | Absent.

- A cache hit returns without touching the gateway.
- Concurrent callers for the same key share one gateway call and the
  same outcome. The in-flight registration is dropped before any waiter
  is released, so a failed key is retried by the next caller.
- Only successes are cached. No retry happens here.
- The shared call runs detached from the first caller's cancellation; a
  caller that gives up only stops waiting.
*/

// FetchFunc loads one record from the gateway by numeric identifier.
type FetchFunc[R any] func(ctx context.Context, numericID string) (R, error)

type Coordinator[R any] struct {
	kind         string
	cache        cache.Cache[normalize.Key, R]
	inFlight     singleflight.Group
	fetch        FetchFunc[R]
	metadataSink metadata.MetadataSink
	logger       *zap.Logger
}

func NewCoordinator[R any](
	kind string,
	c cache.Cache[normalize.Key, R],
	fetch FetchFunc[R],
	metadataSink metadata.MetadataSink,
	logger *zap.Logger,
) *Coordinator[R] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator[R]{
		kind:         kind,
		cache:        c,
		fetch:        fetch,
		metadataSink: metadataSink,
		logger:       logger.Named("coordinator").With(zap.String("kind", kind)),
	}
}

func (c *Coordinator[R]) FetchDetails(ctx context.Context, key normalize.Key) (R, error) {
	var zero R

	if record, ok := c.cache.Get(key); ok {
		c.metadataSink.RecordCache(c.kind, metadata.CacheHit)
		c.logger.Debug("cache hit", zap.Stringer("key", key))
		return record, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.inFlight.DoChan(key.String(), func() (val any, err error) {
		// runs on its own goroutine; a panic here would take the process down
		defer func() {
			if r := recover(); r != nil {
				val, err = nil, c.recovered(key, r)
			}
		}()

		// a fetch that finished between our lookup and registration
		if record, ok := c.cache.Get(key); ok {
			return record, nil
		}
		record, err := c.fetch(detached, key.Numeric())
		if err != nil {
			return nil, c.classify(key, err)
		}
		c.cache.Put(key, record)
		return record, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metadataSink.RecordCache(c.kind, metadata.CacheShared)
		} else {
			c.metadataSink.RecordCache(c.kind, metadata.CacheMiss)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(R), nil
	}
}

func (c *Coordinator[R]) classify(key normalize.Key, err error) *Error {
	if errors.Is(err, gateway.ErrNotFound) {
		c.logger.Debug("not found", zap.Stringer("key", key))
		return &Error{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("%s %s not found", c.kind, key),
		}
	}

	catalogErr := &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("failed to fetch %s details for %s", c.kind, key),
		Cause:   err,
	}
	c.logger.Warn("upstream fetch failed", zap.Stringer("key", key), zap.Error(err))
	c.metadataSink.RecordError(
		time.Now(),
		"catalog",
		"Coordinator.FetchDetails",
		mapCatalogErrorToMetadataCause(catalogErr),
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrKey, key.String())},
	)
	return catalogErr
}

func (c *Coordinator[R]) recovered(key normalize.Key, r any) *Error {
	catalogErr := &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("failed to fetch %s details for %s", c.kind, key),
		Cause:   fmt.Errorf("panic: %v", r),
	}
	c.logger.Error("fetch panicked", zap.Stringer("key", key), zap.Any("panic", r), zap.Stack("stack"))
	c.metadataSink.RecordError(
		time.Now(),
		"catalog",
		"Coordinator.FetchDetails",
		metadata.CauseInvariantViolation,
		catalogErr.Cause.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrKey, key.String())},
	)
	return catalogErr
}
