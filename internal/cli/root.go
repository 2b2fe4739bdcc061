package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rohmanhakim/imdb-mcp/internal/build"
	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
	"github.com/rohmanhakim/imdb-mcp/internal/config"
	"github.com/rohmanhakim/imdb-mcp/internal/fetcher"
	"github.com/rohmanhakim/imdb-mcp/internal/gateway"
	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/internal/server"
	"github.com/rohmanhakim/imdb-mcp/pkg/limiter"
	"github.com/rohmanhakim/imdb-mcp/pkg/retry"
	"github.com/rohmanhakim/imdb-mcp/pkg/timeutil"
)

// ErrUpstreamUnavailable is reported by /healthz while the breaker is open.
var ErrUpstreamUnavailable = errors.New("upstream circuit open")

var (
	appConfig config.Config
	logger    *zap.Logger
)

var (
	cfgFile             string
	transport           string
	httpAddr            string
	httpPath            string
	baseURL             string
	suggestURL          string
	userAgent           string
	timeout             time.Duration
	titleCacheCapacity  int
	personCacheCapacity int
	maxAttempt          int
	requestsPerSecond   float64
	jitter              time.Duration
	randomSeed          int64
	logLevel            string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imdb-mcp",
	Short: "An MCP server exposing the IMDb catalog.",
	Long: `imdb-mcp is a Model Context Protocol server that lets language model
clients search IMDb and read title, person and chart details.

It speaks MCP over stdio by default, or over streamable HTTP with
--transport http. Details are cached in memory and concurrent requests
for the same record share a single upstream fetch.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the MCP server (default)",
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// needs neither config nor logger
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Describe())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Run executes the command tree with args, writing command output to out.
func Run(ctx context.Context, args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path, JSON, YAML or TOML (e.g., /etc/imdb-mcp/config.yaml)")
	flags.StringVar(&transport, "transport", "", "MCP transport: stdio or http")
	flags.StringVar(&httpAddr, "http-addr", "", "listen address for the http transport (e.g., :8000)")
	flags.StringVar(&httpPath, "http-path", "", "path the MCP endpoint is mounted on")
	flags.StringVar(&baseURL, "base-url", "", "root URL of the IMDb site")
	flags.StringVar(&suggestURL, "suggest-url", "", "root URL of the IMDb suggestion endpoint")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for upstream requests")
	flags.DurationVar(&timeout, "timeout", 0, "timeout for a single upstream request")
	flags.IntVar(&titleCacheCapacity, "title-cache-capacity", 0, "maximum cached title records")
	flags.IntVar(&personCacheCapacity, "person-cache-capacity", 0, "maximum cached person records")
	flags.IntVar(&maxAttempt, "max-attempt", 0, "attempts per upstream request before giving up")
	flags.Float64Var(&requestsPerSecond, "requests-per-second", 0, "sustained upstream request rate (0 keeps the configured value)")
	flags.DurationVar(&jitter, "jitter", 0, "random jitter added to retry backoff")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd, versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}
	l, err := NewLogger(cfg.LogLevel())
	if err != nil {
		return err
	}
	appConfig, logger = cfg, l
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	registry := prometheus.NewRegistry()
	srv := BuildServer(cfg, logger, registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting imdb-mcp",
		zap.String("version", build.FullVersion()),
		zap.String("transport", string(cfg.Transport())),
	)

	switch cfg.Transport() {
	case config.TransportHTTP:
		return srv.ListenAndServe(ctx, cfg.HTTPAddr(), cfg.HTTPPath())
	default:
		return srv.RunStdio(ctx)
	}
}

// InitConfigWithError reads the config file (when --config-file is set) and
// environment variables, then applies any CLI flags on top.
func InitConfigWithError() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
	} else {
		cfg, err = config.FromEnv()
		if err != nil {
			return config.Config{}, fmt.Errorf("error initializing config from environment: %w", err)
		}
	}

	// Override with CLI flag values where provided
	configBuilder := &cfg

	if transport != "" {
		configBuilder = configBuilder.WithTransport(config.Transport(strings.ToLower(transport)))
	}
	if httpAddr != "" {
		configBuilder = configBuilder.WithHTTPAddr(httpAddr)
	}
	if httpPath != "" {
		configBuilder = configBuilder.WithHTTPPath(httpPath)
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: base-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithBaseURL(*u)
	}
	if suggestURL != "" {
		u, err := url.Parse(suggestURL)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: suggest-url: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithSuggestURL(*u)
	}
	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}
	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}
	if titleCacheCapacity > 0 {
		configBuilder = configBuilder.WithTitleCacheCapacity(titleCacheCapacity)
	}
	if personCacheCapacity > 0 {
		configBuilder = configBuilder.WithPersonCacheCapacity(personCacheCapacity)
	}
	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}
	if requestsPerSecond > 0 {
		configBuilder = configBuilder.WithRequestsPerSecond(requestsPerSecond)
	}
	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}
	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}
	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	return configBuilder.Build()
}

// NewLogger builds a JSON logger on stderr. Stdout belongs to the stdio transport.
func NewLogger(level zapcore.Level) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	return zapCfg.Build()
}

// BuildServer wires the fetch pipeline, gateway, caches and catalog behind an MCP server.
// Metrics are registered on registry, which is also what /metrics serves.
func BuildServer(cfg config.Config, logger *zap.Logger, registry *prometheus.Registry) *server.Server {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metadata.NewRecorder(logger, registry)

	backoff := timeutil.NewBackoffParam(
		cfg.BackoffInitialDuration(),
		cfg.BackoffMultiplier(),
		cfg.BackoffMaxDuration(),
	)
	httpFetcher := fetcher.NewHttpFetcher(
		recorder,
		&http.Client{Timeout: cfg.Timeout()},
		limiter.NewConcurrentRateLimiter(cfg.RequestsPerSecond(), cfg.Burst(), backoff),
		retry.NewRetryParam(cfg.Jitter(), cfg.RandomSeed(), cfg.MaxAttempt(), backoff),
		logger,
	)

	imdb := gateway.NewIMDb(
		gateway.NewParam(
			cfg.BaseURL(),
			cfg.SuggestURL(),
			cfg.UserAgent(),
			cfg.BreakerFailureThreshold(),
			cfg.BreakerOpenTimeout(),
		),
		httpFetcher,
		recorder,
		logger,
	)

	svc := catalog.NewService(
		imdb,
		catalog.NewTitleCache(cfg.TitleCacheCapacity(), recorder),
		catalog.NewPersonCache(cfg.PersonCacheCapacity(), recorder),
		recorder,
		logger,
	)

	return server.New(svc, recorder, logger, build.Version,
		server.WithGatherer(registry),
		server.WithHealthCheck(func() error {
			if imdb.BreakerState() == gobreaker.StateOpen {
				return ErrUpstreamUnavailable
			}
			return nil
		}),
	)
}

func ResetFlags() {
	cfgFile = ""
	transport = ""
	httpAddr = ""
	httpPath = ""
	baseURL = ""
	suggestURL = ""
	userAgent = ""
	timeout = 0
	titleCacheCapacity = 0
	personCacheCapacity = 0
	maxAttempt = 0
	requestsPerSecond = 0
	jitter = 0
	randomSeed = 0
	logLevel = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetTransportForTest(t string) {
	transport = t
}

func SetHTTPAddrForTest(addr string) {
	httpAddr = addr
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetTitleCacheCapacityForTest(capacity int) {
	titleCacheCapacity = capacity
}

func SetLogLevelForTest(level string) {
	logLevel = level
}
