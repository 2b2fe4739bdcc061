package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, caching, or error-kind decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.
	 - ErrorCause is not the caller-facing error kind.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.

Examples:
  - Recovered panics
  - Unclassified third-party library failures

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts, DNS failures, connection resets
  - HTTP 5xx from the content source
  - Open circuit breaker

# CausePolicyDisallow

Meaning:
  - The content source refused the request.

Examples:
  - HTTP 403 / 401
  - HTTP 429 rate limiting

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Non-HTML or non-JSON responses
  - Pages without the expected structured data

# CauseNotFound

Meaning:
  - The content source confirmed the entity does not exist.

# CauseInvalidInput

Meaning:
  - Caller supplied arguments were rejected before reaching upstream.

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - Gateway returning a record of the wrong kind
  - Internal consistency checks failing
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseNotFound
	CauseInvalidInput
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseNotFound:
		return "not_found"
	case CauseInvalidInput:
		return "invalid_input"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// CacheOutcome describes what happened to a single entity lookup.
type CacheOutcome string

const (
	// served from the entity cache
	CacheHit CacheOutcome = "hit"
	// triggered an upstream fetch
	CacheMiss CacheOutcome = "miss"
	// joined a fetch already in flight for the same key
	CacheShared CacheOutcome = "shared"
	// an entry was evicted to make room
	CacheEvict CacheOutcome = "evict"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrKey        AttributeKey = "key"
	AttrQuery      AttributeKey = "query"
	AttrTool       AttributeKey = "tool"
	AttrField      AttributeKey = "field"
	AttrRequestID  AttributeKey = "request_id"
)
