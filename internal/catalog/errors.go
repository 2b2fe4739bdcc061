package catalog

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/imdb-mcp/internal/metadata"
	"github.com/rohmanhakim/imdb-mcp/pkg/failure"
)

// Kind is the caller-facing failure class. Every failure leaving the
// catalog is exactly one of these.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Sentinels for errors.Is; only the Kind is compared.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrUpstream   = &Error{Kind: KindUpstream}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Severity marks upstream failures recoverable: asking again later may
// succeed. Validation and not-found answers will not change.
func (e *Error) Severity() failure.Severity {
	if e.Kind == KindUpstream {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func newValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

func mapCatalogErrorToMetadataCause(err *Error) metadata.ErrorCause {
	switch err.Kind {
	case KindValidation:
		return metadata.CauseInvalidInput
	case KindNotFound:
		return metadata.CauseNotFound
	case KindUpstream:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
