package gateway

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
)

// ErrNotFound is returned, possibly wrapped, when the content source
// confirms that the requested entity does not exist.
var ErrNotFound = errors.New("not found")

type GatewayErrorCause string

const (
	ErrCauseUpstream    GatewayErrorCause = "upstream request failed"
	ErrCauseCircuitOpen GatewayErrorCause = "circuit open"
	ErrCauseParse       GatewayErrorCause = "unparseable response"
)

type GatewayError struct {
	Message   string
	Retryable bool
	Cause     GatewayErrorCause
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: %s: %s", e.Cause, e.Message)
}

func (e *GatewayError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func mapGatewayErrorToMetadataCause(err *GatewayError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseUpstream, ErrCauseCircuitOpen:
		return metadata.CauseNetworkFailure
	case ErrCauseParse:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
