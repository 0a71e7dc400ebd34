package ckassist

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrNotFound indicates the requested template does not exist remotely.
	ErrNotFound = errors.New("template not found")

	// ErrAuthenticationFailed indicates the remote service rejected the API key.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnknownTool indicates the model requested a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrConfiguration indicates required configuration is missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrAgentCommunication indicates a failure exchanging turns with the model.
	ErrAgentCommunication = errors.New("agent communication error")

	// ErrToolLoopLimit indicates the model kept requesting tools past the
	// configured number of round trips.
	ErrToolLoopLimit = errors.New("tool call limit reached")

	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamNotReady indicates Message() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// RemoteError is any non-success response from the template service that
// has no more specific mapping.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// ErrorKind is the closed vocabulary of failures reported to the model and
// to the caller.
type ErrorKind string

const (
	KindNotFound                ErrorKind = "NotFound"
	KindAuthenticationFailed    ErrorKind = "AuthenticationFailed"
	KindRemoteError             ErrorKind = "RemoteError"
	KindUnknownTool             ErrorKind = "UnknownTool"
	KindClientExecutionError    ErrorKind = "ClientExecutionError"
	KindConfigurationError      ErrorKind = "ConfigurationError"
	KindAgentCommunicationError ErrorKind = "AgentCommunicationError"
)

// KindOf maps err to its ErrorKind. Errors outside the taxonomy map to
// KindClientExecutionError.
func KindOf(err error) ErrorKind {
	var remote *RemoteError
	var failure ToolFailure
	switch {
	case errors.As(err, &failure):
		return failure.Kind
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuthenticationFailed
	case errors.As(err, &remote):
		return KindRemoteError
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	case errors.Is(err, ErrConfiguration):
		return KindConfigurationError
	case errors.Is(err, ErrAgentCommunication):
		return KindAgentCommunicationError
	default:
		return KindClientExecutionError
	}
}
