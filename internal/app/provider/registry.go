package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/form3tech-oss/pact-provider/internal/app/matching"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
)

// StateHandler puts the provider into a provider state before an interaction runs.
type StateHandler interface {
	SetUp(ctx context.Context, state pact.ProviderState) error
}

// MessageProducer makes the provider emit the message described by a pact.
type MessageProducer interface {
	Produce(ctx context.Context, message pact.Message) (matching.ActualMessage, error)
}

type stateFunc func(ctx context.Context, params map[string]interface{}) error

type producerFunc func(ctx context.Context) (matching.ActualMessage, error)

// Registry maps provider state names and message descriptions to handlers.
// State names are matched case-insensitively, message descriptions exactly.
type Registry struct {
	mu        sync.RWMutex
	states    map[string]stateFunc
	producers map[string]producerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		states:    map[string]stateFunc{},
		producers: map[string]producerFunc{},
	}
}

// RegisterState accepts one of:
//
//	func()
//	func() error
//	func(map[string]interface{})
//	func(map[string]interface{}) error
//	func(context.Context, map[string]interface{}) error
func (r *Registry) RegisterState(name string, handler interface{}) error {
	var fn stateFunc
	switch h := handler.(type) {
	case func():
		fn = func(context.Context, map[string]interface{}) error { h(); return nil }
	case func() error:
		fn = func(context.Context, map[string]interface{}) error { return h() }
	case func(map[string]interface{}):
		fn = func(_ context.Context, params map[string]interface{}) error { h(params); return nil }
	case func(map[string]interface{}) error:
		fn = func(_ context.Context, params map[string]interface{}) error { return h(params) }
	case func(context.Context, map[string]interface{}) error:
		fn = h
	default:
		return &MalformedHandlerError{Kind: ProviderStateHandler, Name: name, Handler: handler}
	}

	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.states[key]; exists {
		return errors.Errorf("a handler for provider state [%s] is already registered", name)
	}
	r.states[key] = fn
	return nil
}

// RegisterProducer registers a handler for every given message description.
// It accepts one of:
//
//	func() []byte
//	func() string
//	func() ([]byte, error)
//	func(context.Context) ([]byte, error)
//	func(context.Context) (matching.ActualMessage, error)
func (r *Registry) RegisterProducer(handler interface{}, descriptions ...string) error {
	if len(descriptions) == 0 {
		return errors.New("a message producer needs at least one message description")
	}

	var fn producerFunc
	switch h := handler.(type) {
	case func() []byte:
		fn = func(context.Context) (matching.ActualMessage, error) { return matching.NewActualMessage(h()), nil }
	case func() string:
		fn = func(context.Context) (matching.ActualMessage, error) { return matching.NewActualMessage([]byte(h())), nil }
	case func() ([]byte, error):
		fn = func(context.Context) (matching.ActualMessage, error) {
			contents, err := h()
			return matching.NewActualMessage(contents), err
		}
	case func(context.Context) ([]byte, error):
		fn = func(ctx context.Context) (matching.ActualMessage, error) {
			contents, err := h(ctx)
			return matching.NewActualMessage(contents), err
		}
	case func(context.Context) (matching.ActualMessage, error):
		fn = h
	default:
		return &MalformedHandlerError{Kind: MessageProducerHandler, Name: strings.Join(descriptions, ", "), Handler: handler}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, description := range descriptions {
		if _, exists := r.producers[description]; exists {
			return errors.Errorf("a handler for message producer [%s] is already registered", description)
		}
	}
	for _, description := range descriptions {
		r.producers[description] = fn
	}
	return nil
}

func (r *Registry) SetUp(ctx context.Context, state pact.ProviderState) error {
	r.mu.RLock()
	fn, ok := r.states[strings.ToLower(state.Name)]
	r.mu.RUnlock()
	if !ok {
		return &HandlerNotFoundError{Kind: ProviderStateHandler, Name: state.Name}
	}

	params := state.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}
	return invoke(ProviderStateHandler, state.Name, func() error {
		return fn(ctx, params)
	})
}

func (r *Registry) Produce(ctx context.Context, message pact.Message) (matching.ActualMessage, error) {
	r.mu.RLock()
	fn, ok := r.producers[message.Description]
	r.mu.RUnlock()
	if !ok {
		return matching.ActualMessage{}, &HandlerNotFoundError{Kind: MessageProducerHandler, Name: message.Description}
	}

	var produced matching.ActualMessage
	err := invoke(MessageProducerHandler, message.Description, func() error {
		var err error
		produced, err = fn(ctx)
		return err
	})
	return produced, err
}

// invoke runs a handler and turns both returned errors and panics into an InvocationError.
func invoke(kind HandlerKind, name string, fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &InvocationError{Kind: kind, Name: name, Err: errors.Errorf("panic: %v", recovered)}
		}
	}()
	if err := fn(); err != nil {
		return &InvocationError{Kind: kind, Name: name, Err: err}
	}
	return nil
}
