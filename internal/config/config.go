package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

const envPrefix = "IMDB_MCP"

type Config struct {
	//===============
	// Transport
	//===============
	// How the MCP server talks to its client: stdio or streamable HTTP
	transport Transport
	// Listen address used by the HTTP transport
	httpAddr string
	// Path the MCP handler is mounted on
	httpPath string

	//===============
	// Upstream
	//===============
	// Root of the IMDb web pages (titles, people, charts)
	baseURL url.URL
	// Root of the suggestion endpoint used for search
	suggestURL url.URL
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Maximum time of a single fetch request
	timeout time.Duration

	//===============
	// Cache
	//===============
	titleCacheCapacity  int
	personCacheCapacity int

	//===============
	// Politeness
	//===============
	// Randomized variation added on top of the backoff delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration
	// Sustained upstream request rate shared by all tool calls
	requestsPerSecond float64
	burst             int

	//===============
	// Circuit breaker
	//===============
	// Consecutive upstream failures before the breaker opens
	breakerFailureThreshold uint32
	// How long the breaker stays open before letting a trial request through
	breakerOpenTimeout time.Duration

	logLevel string
}

type configDTO struct {
	Transport               string        `mapstructure:"transport"`
	HTTPAddr                string        `mapstructure:"httpAddr"`
	Port                    int           `mapstructure:"port"`
	HTTPPath                string        `mapstructure:"httpPath"`
	BaseURL                 string        `mapstructure:"baseURL"`
	SuggestURL              string        `mapstructure:"suggestURL"`
	UserAgent               string        `mapstructure:"userAgent"`
	Timeout                 time.Duration `mapstructure:"timeout"`
	TitleCacheCapacity      int           `mapstructure:"titleCacheCapacity"`
	PersonCacheCapacity     int           `mapstructure:"personCacheCapacity"`
	Jitter                  time.Duration `mapstructure:"jitter"`
	RandomSeed              int64         `mapstructure:"randomSeed"`
	MaxAttempt              int           `mapstructure:"maxAttempt"`
	BackoffInitialDuration  time.Duration `mapstructure:"backoffInitialDuration"`
	BackoffMultiplier       float64       `mapstructure:"backoffMultiplier"`
	BackoffMaxDuration      time.Duration `mapstructure:"backoffMaxDuration"`
	RequestsPerSecond       float64       `mapstructure:"requestsPerSecond"`
	Burst                   int           `mapstructure:"burst"`
	BreakerFailureThreshold uint32        `mapstructure:"breakerFailureThreshold"`
	BreakerOpenTimeout      time.Duration `mapstructure:"breakerOpenTimeout"`
	LogLevel                string        `mapstructure:"logLevel"`
}

// envBindings maps each config key to the environment variables that may set it.
// MCP_TRANSPORT and PORT are honored for compatibility with existing deployments.
var envBindings = map[string][]string{
	"transport":               {envPrefix + "_TRANSPORT", "MCP_TRANSPORT"},
	"httpAddr":                {envPrefix + "_HTTP_ADDR"},
	"port":                    {envPrefix + "_PORT", "PORT"},
	"httpPath":                {envPrefix + "_HTTP_PATH"},
	"baseURL":                 {envPrefix + "_BASE_URL"},
	"suggestURL":              {envPrefix + "_SUGGEST_URL"},
	"userAgent":               {envPrefix + "_USER_AGENT"},
	"timeout":                 {envPrefix + "_TIMEOUT"},
	"titleCacheCapacity":      {envPrefix + "_TITLE_CACHE_CAPACITY"},
	"personCacheCapacity":     {envPrefix + "_PERSON_CACHE_CAPACITY"},
	"jitter":                  {envPrefix + "_JITTER"},
	"randomSeed":              {envPrefix + "_RANDOM_SEED"},
	"maxAttempt":              {envPrefix + "_MAX_ATTEMPT"},
	"backoffInitialDuration":  {envPrefix + "_BACKOFF_INITIAL_DURATION"},
	"backoffMultiplier":       {envPrefix + "_BACKOFF_MULTIPLIER"},
	"backoffMaxDuration":      {envPrefix + "_BACKOFF_MAX_DURATION"},
	"requestsPerSecond":       {envPrefix + "_REQUESTS_PER_SECOND"},
	"burst":                   {envPrefix + "_BURST"},
	"breakerFailureThreshold": {envPrefix + "_BREAKER_FAILURE_THRESHOLD"},
	"breakerOpenTimeout":      {envPrefix + "_BREAKER_OPEN_TIMEOUT"},
	"logLevel":                {envPrefix + "_LOG_LEVEL"},
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, envs := range envBindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := *WithDefault()

	// Only override if a non-zero value is provided
	if dto.Transport != "" {
		cfg.transport = Transport(strings.ToLower(strings.TrimSpace(dto.Transport)))
	}
	if dto.HTTPAddr != "" {
		cfg.httpAddr = dto.HTTPAddr
	} else if dto.Port != 0 {
		cfg.httpAddr = ":" + strconv.Itoa(dto.Port)
	}
	if dto.HTTPPath != "" {
		cfg.httpPath = dto.HTTPPath
	}
	if dto.BaseURL != "" {
		u, err := url.Parse(dto.BaseURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: baseURL: %s", ErrInvalidConfig, err.Error())
		}
		cfg.baseURL = *u
	}
	if dto.SuggestURL != "" {
		u, err := url.Parse(dto.SuggestURL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: suggestURL: %s", ErrInvalidConfig, err.Error())
		}
		cfg.suggestURL = *u
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.TitleCacheCapacity != 0 {
		cfg.titleCacheCapacity = dto.TitleCacheCapacity
	}
	if dto.PersonCacheCapacity != 0 {
		cfg.personCacheCapacity = dto.PersonCacheCapacity
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.RequestsPerSecond != 0 {
		cfg.requestsPerSecond = dto.RequestsPerSecond
	}
	if dto.Burst != 0 {
		cfg.burst = dto.Burst
	}
	if dto.BreakerFailureThreshold != 0 {
		cfg.breakerFailureThreshold = dto.BreakerFailureThreshold
	}
	if dto.BreakerOpenTimeout != 0 {
		cfg.breakerOpenTimeout = dto.BreakerOpenTimeout
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}

	return cfg.Build()
}

func load(v *viper.Viper) (Config, error) {
	dto := configDTO{}
	if err := v.Unmarshal(&dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return newConfigFromDTO(dto)
}

// WithConfigFile reads a JSON, YAML or TOML file, picked by extension.
// Environment variables take precedence over values in the file.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
		}
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	return load(v)
}

// FromEnv builds a Config from defaults and environment variables only.
func FromEnv() (Config, error) {
	return load(newViper())
}

// WithDefault creates a new Config pointing at the public IMDb site with default values for all other fields.
func WithDefault() *Config {
	defaultConfig := Config{
		transport:               TransportStdio,
		httpAddr:                ":8000",
		httpPath:                "/mcp",
		baseURL:                 url.URL{Scheme: "https", Host: "www.imdb.com"},
		suggestURL:              url.URL{Scheme: "https", Host: "v3.sg.media-imdb.com"},
		userAgent:               "Mozilla/5.0 (compatible; imdb-mcp/1.0)",
		timeout:                 15 * time.Second,
		titleCacheCapacity:      100,
		personCacheCapacity:     100,
		jitter:                  100 * time.Millisecond,
		randomSeed:              time.Now().UnixNano(),
		maxAttempt:              3,
		backoffInitialDuration:  200 * time.Millisecond,
		backoffMultiplier:       2.0,
		backoffMaxDuration:      5 * time.Second,
		requestsPerSecond:       2,
		burst:                   4,
		breakerFailureThreshold: 5,
		breakerOpenTimeout:      30 * time.Second,
		logLevel:                "info",
	}
	return &defaultConfig
}

func (c *Config) WithTransport(transport Transport) *Config {
	c.transport = transport
	return c
}

func (c *Config) WithHTTPAddr(addr string) *Config {
	c.httpAddr = addr
	return c
}

func (c *Config) WithHTTPPath(path string) *Config {
	c.httpPath = path
	return c
}

func (c *Config) WithBaseURL(u url.URL) *Config {
	c.baseURL = u
	return c
}

func (c *Config) WithSuggestURL(u url.URL) *Config {
	c.suggestURL = u
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithTitleCacheCapacity(capacity int) *Config {
	c.titleCacheCapacity = capacity
	return c
}

func (c *Config) WithPersonCacheCapacity(capacity int) *Config {
	c.personCacheCapacity = capacity
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithRequestsPerSecond(rps float64) *Config {
	c.requestsPerSecond = rps
	return c
}

func (c *Config) WithBurst(burst int) *Config {
	c.burst = burst
	return c
}

func (c *Config) WithBreakerFailureThreshold(threshold uint32) *Config {
	c.breakerFailureThreshold = threshold
	return c
}

func (c *Config) WithBreakerOpenTimeout(timeout time.Duration) *Config {
	c.breakerOpenTimeout = timeout
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	switch c.transport {
	case TransportStdio, TransportHTTP:
	default:
		return Config{}, fmt.Errorf("%w: transport must be %q or %q, got %q", ErrInvalidConfig, TransportStdio, TransportHTTP, c.transport)
	}
	if c.transport == TransportHTTP && c.httpAddr == "" {
		return Config{}, fmt.Errorf("%w: httpAddr cannot be empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.httpPath, "/") {
		return Config{}, fmt.Errorf("%w: httpPath must start with '/', got %q", ErrInvalidConfig, c.httpPath)
	}
	if err := validateUpstream("baseURL", c.baseURL); err != nil {
		return Config{}, err
	}
	if err := validateUpstream("suggestURL", c.suggestURL); err != nil {
		return Config{}, err
	}
	if c.titleCacheCapacity < 1 || c.personCacheCapacity < 1 {
		return Config{}, fmt.Errorf("%w: cache capacity must be at least 1", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1", ErrInvalidConfig)
	}
	if c.requestsPerSecond < 0 {
		return Config{}, fmt.Errorf("%w: requestsPerSecond cannot be negative", ErrInvalidConfig)
	}
	if c.burst < 1 {
		return Config{}, fmt.Errorf("%w: burst must be at least 1", ErrInvalidConfig)
	}
	if c.breakerFailureThreshold < 1 {
		return Config{}, fmt.Errorf("%w: breakerFailureThreshold must be at least 1", ErrInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(c.logLevel); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	return *c, nil
}

func validateUpstream(name string, u url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidConfig, name, u.String())
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s has no host", ErrInvalidConfig, name)
	}
	return nil
}

func (c Config) Transport() Transport {
	return c.transport
}

func (c Config) HTTPAddr() string {
	return c.httpAddr
}

func (c Config) HTTPPath() string {
	return c.httpPath
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) SuggestURL() url.URL {
	return c.suggestURL
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) TitleCacheCapacity() int {
	return c.titleCacheCapacity
}

func (c Config) PersonCacheCapacity() int {
	return c.personCacheCapacity
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) RequestsPerSecond() float64 {
	return c.requestsPerSecond
}

func (c Config) Burst() int {
	return c.burst
}

func (c Config) BreakerFailureThreshold() uint32 {
	return c.breakerFailureThreshold
}

func (c Config) BreakerOpenTimeout() time.Duration {
	return c.breakerOpenTimeout
}

// LogLevel falls back to info when the configured level does not parse.
func (c Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
