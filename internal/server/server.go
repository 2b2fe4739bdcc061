package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/mapper"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"go.uber.org/zap"
)

/*
Responsibilities
- Register the catalog tools and prompts on an MCP server
- Decode and validate tool arguments
- Render results as indented JSON text and failures as
  {"error", "message"} payloads flagged IsError
- Never let a panic or an unclassified error escape a tool call
- Serve over stdio, or over streamable HTTP next to /metrics and /healthz
*/

const ServerName = "mcp-imdb"

// Catalog is the set of operations the tools expose.
type Catalog interface {
	SearchEntities(ctx context.Context, query catalog.SearchQuery) (mapper.SearchResponse, error)
	GetTitleDetails(ctx context.Context, rawID string) (mapper.MovieDetails, error)
	GetPersonDetails(ctx context.Context, rawID string) (mapper.ActorDetails, error)
	SearchPeople(ctx context.Context, text string, limit int) (mapper.PersonSearchResponse, error)
	Chart(ctx context.Context, chart gateway.Chart, limit int) (mapper.SearchResponse, error)
	TopByGenres(ctx context.Context, ranking gateway.GenreRanking, genres []string, limit int) (mapper.SearchResponse, error)
}

type Server struct {
	catalog      Catalog
	mcp          *mcp.Server
	validate     *validator.Validate
	gatherer     prometheus.Gatherer
	healthCheck  func() error
	metadataSink metadata.MetadataSink
	logger       *zap.Logger
}

type Option func(*Server)

// WithGatherer sets the registry served on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithHealthCheck sets the check behind /healthz. A non-nil error turns
// the response into 503.
func WithHealthCheck(check func() error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

func New(
	c Catalog,
	metadataSink metadata.MetadataSink,
	logger *zap.Logger,
	version string,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:      c,
		validate:     newValidator(),
		gatherer:     prometheus.DefaultGatherer,
		healthCheck:  func() error { return nil },
		metadataSink: metadataSink,
		logger:       logger.Named("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: version},
		&mcp.ServerOptions{HasTools: true, HasPrompts: true},
	)
	for _, spec := range s.toolSpecs() {
		s.mcp.AddTool(spec.tool, s.toolHandler(spec))
	}
	for _, spec := range promptSpecs() {
		s.mcp.AddPrompt(spec.prompt, promptHandler(spec))
	}
	return s
}

// MCP exposes the underlying protocol server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// RunStdio serves one session over stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Router mounts the streamable HTTP endpoint at mcpPath together with
// /metrics and /healthz.
func (s *Server) Router(mcpPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	r.Handle(mcpPath, mcpHandler)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAndServe serves Router(mcpPath) on addr until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, mcpPath string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(mcpPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving streamable http", zap.String("addr", addr), zap.String("path", mcpPath))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	if err := s.healthCheck(); err != nil {
		body = map[string]string{"status": "degraded", "reason": err.Error()}
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) toolHandler(spec toolSpec) mcp.ToolHandler {
	name := spec.tool.Name
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		requestID := uuid.NewString()
		logger := s.logger.With(zap.String("tool", name), zap.String("request_id", requestID))
		start := time.Now()
		status := statusOK

		defer func() {
			if r := recover(); r != nil {
				logger.Error("tool call panicked", zap.Any("panic", r), zap.Stack("stack"))
				status = statusPanic
				result, err = errorResult(errorPayload{Error: TitleServer, Message: genericServerMessage}), nil
			}
			s.metadataSink.RecordToolCall(name, status, time.Since(start))
		}()

		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = json.RawMessage(req.Params.Arguments)
		}

		payload, runErr := spec.run(ctx, raw)
		if runErr != nil {
			var body errorPayload
			body, status = classify(runErr)
			if status != statusServer {
				logger.Info("tool call rejected", zap.String("status", status), zap.Error(runErr))
			} else {
				logger.Error("tool call failed", zap.Error(runErr))
				s.metadataSink.RecordError(
					time.Now(),
					"server",
					"toolHandler",
					metadata.CauseUnknown,
					runErr.Error(),
					[]metadata.Attribute{
						metadata.NewAttr(metadata.AttrTool, name),
						metadata.NewAttr(metadata.AttrRequestID, requestID),
					},
				)
			}
			return errorResult(body), nil
		}

		text, marshalErr := json.MarshalIndent(payload, "", "  ")
		if marshalErr != nil {
			logger.Error("encode result", zap.Error(marshalErr))
			status = statusServer
			return errorResult(errorPayload{Error: TitleServer, Message: genericServerMessage}), nil
		}
		logger.Debug("tool call completed", zap.Duration("elapsed", time.Since(start)))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, nil
	}
}

func errorResult(body errorPayload) *mcp.CallToolResult {
	text, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		text = []byte(`{"error": "Server Error", "message": "An unexpected error occurred"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		IsError: true,
	}
}
