package provider

import (
	"fmt"

	"github.com/form3tech-oss/pact-provider/internal/app/matching"
)

type HandlerKind string

const (
	ProviderStateHandler   HandlerKind = "provider state"
	MessageProducerHandler HandlerKind = "message producer"
)

// NoMatchingPactsError is returned when no pact of the requested kind survives
// the provider and consumer filters.
type NoMatchingPactsError struct {
	Provider string
	Consumer string
	Kind     string
}

func (e *NoMatchingPactsError) Error() string {
	consumer := e.Consumer
	if consumer == "" {
		consumer = "*"
	}
	return fmt.Sprintf("no matching pacts found: no %s pacts for provider '%s' and consumer '%s'", e.Kind, e.Provider, consumer)
}

type HandlerNotFoundError struct {
	Kind HandlerKind
	Name string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("could not find a handler for %s [%s]", e.Kind, e.Name)
}

// MalformedHandlerError is returned when a handler has a signature the registry cannot call.
type MalformedHandlerError struct {
	Kind    HandlerKind
	Name    string
	Handler interface{}
}

func (e *MalformedHandlerError) Error() string {
	return fmt.Sprintf("the handler for %s [%s] is malformed: unsupported signature %T", e.Kind, e.Name, e.Handler)
}

// InvocationError wraps a failure raised by a handler while it ran.
type InvocationError struct {
	Kind HandlerKind
	Name string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("there was an error while invoking the handler for %s [%s]: %v", e.Kind, e.Name, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// MissingStateHandlerError is returned when an interaction needs provider
// state but no state handler was configured.
type MissingStateHandlerError struct {
	Interaction string
}

func (e *MissingStateHandlerError) Error() string {
	return fmt.Sprintf("no provider state handler configured, but interaction [%s] needs provider state", e.Interaction)
}

type ResponseMismatchError struct {
	Result matching.ResponseResult
}

func (e *ResponseMismatchError) Error() string {
	return "response expectation(s) were not met:\n\n" + e.Result.String()
}

type MessageMismatchError struct {
	Result matching.MessageResult
}

func (e *MessageMismatchError) Error() string {
	return "message expectation(s) were not met:\n\n" + e.Result.String()
}
