package server

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/imdb-mcp/internal/catalog"
)

// Error titles carried in the "error" field of a failed tool call.
const (
	TitleValidation = "Validation Error"
	TitleNotFound   = "Not Found"
	TitleRuntime    = "Runtime Error"
	TitleServer     = "Server Error"

	genericServerMessage = "An unexpected error occurred"
)

// Tool call outcomes as reported to the metadata sink.
const (
	statusOK         = "ok"
	statusValidation = "validation_error"
	statusNotFound   = "not_found"
	statusUpstream   = "upstream_error"
	statusServer     = "server_error"
	statusPanic      = "panic"
)

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ArgumentError reports tool arguments that could not be decoded or
// failed validation.
type ArgumentError struct {
	Tool    string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Message)
}

// classify maps err to a payload and a call status. Anything outside the
// catalog taxonomy is reported generically so internals do not leak.
func classify(err error) (errorPayload, string) {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return errorPayload{Error: TitleValidation, Message: argErr.Message}, statusValidation
	}

	var catalogErr *catalog.Error
	if errors.As(err, &catalogErr) {
		switch catalogErr.Kind {
		case catalog.KindValidation:
			return errorPayload{Error: TitleValidation, Message: catalogErr.Message}, statusValidation
		case catalog.KindNotFound:
			return errorPayload{Error: TitleNotFound, Message: catalogErr.Message}, statusNotFound
		case catalog.KindUpstream:
			return errorPayload{Error: TitleRuntime, Message: catalogErr.Message}, statusUpstream
		}
	}

	return errorPayload{Error: TitleServer, Message: genericServerMessage}, statusServer
}
