package provider

import (
	"context"
	"time"

	"github.com/form3tech-oss/pact-provider/internal/app/matching"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/form3tech-oss/pact-provider"

	kindRequestResponse = "request/response"
	kindMessage         = "message"
)

// Source loads the pacts of a provider. An empty consumer selects every consumer.
type Source interface {
	LoadPacts(ctx context.Context, provider, consumer string) ([]pact.Pact, error)
}

// Executable is a single interaction or message check, ready to be run by a
// test framework.
type Executable struct {
	Name string
	Run  func(ctx context.Context) error
}

type Outcome struct {
	Name     string
	Err      error
	Duration time.Duration
}

type Summary struct {
	RunID  string
	Passed []Outcome
	Failed []Outcome
}

func (s Summary) OK() bool {
	return len(s.Failed) == 0
}

// Verifier turns the pacts of a provider into executables and runs them
// against the provider.
type Verifier struct {
	source   Source
	provider string
	client   Client
	target   Target
	states   StateHandler
	producer MessageProducer
	log      log.FieldLogger
	tracer   trace.Tracer
	runID    string
}

type VerifierOption func(*Verifier)

func WithClient(client Client) VerifierOption {
	return func(v *Verifier) {
		v.client = client
	}
}

func WithTarget(target Target) VerifierOption {
	return func(v *Verifier) {
		v.target = target
	}
}

func WithStateHandler(states StateHandler) VerifierOption {
	return func(v *Verifier) {
		v.states = states
	}
}

func WithMessageProducer(producer MessageProducer) VerifierOption {
	return func(v *Verifier) {
		v.producer = producer
	}
}

// WithRegistry uses the registry both for provider states and messages.
func WithRegistry(registry *Registry) VerifierOption {
	return func(v *Verifier) {
		v.states = registry
		v.producer = registry
	}
}

func WithLogger(logger log.FieldLogger) VerifierOption {
	return func(v *Verifier) {
		v.log = logger
	}
}

func WithTracerProvider(provider trace.TracerProvider) VerifierOption {
	return func(v *Verifier) {
		v.tracer = provider.Tracer(tracerName)
	}
}

func WithRunID(runID string) VerifierOption {
	return func(v *Verifier) {
		v.runID = runID
	}
}

func NewVerifier(source Source, provider string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		source:   source,
		provider: provider,
		client:   NewHTTPClient(),
		target:   DefaultTarget(),
		log:      log.StandardLogger(),
		tracer:   otel.Tracer(tracerName),
		runID:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithFields(log.Fields{"provider": provider, "run_id": v.runID})
	return v
}

func (v *Verifier) RunID() string {
	return v.runID
}

func (v *Verifier) Target() Target {
	return v.target
}

// RequestResponseTests returns one executable per interaction of every
// request/response pact matching the consumer.
func (v *Verifier) RequestResponseTests(ctx context.Context, consumer string) ([]Executable, error) {
	pacts, err := v.load(ctx, consumer)
	if err != nil {
		return nil, err
	}
	executables := v.requestResponseExecutables(pacts)
	if len(executables) == 0 {
		return nil, &NoMatchingPactsError{Provider: v.provider, Consumer: consumer, Kind: kindRequestResponse}
	}
	return executables, nil
}

// MessageTests returns one executable per message of every message pact
// matching the consumer.
func (v *Verifier) MessageTests(ctx context.Context, consumer string) ([]Executable, error) {
	if v.producer == nil {
		return nil, errors.New("message pacts require a message producer")
	}
	pacts, err := v.load(ctx, consumer)
	if err != nil {
		return nil, err
	}
	executables := v.messageExecutables(pacts)
	if len(executables) == 0 {
		return nil, &NoMatchingPactsError{Provider: v.provider, Consumer: consumer, Kind: kindMessage}
	}
	return executables, nil
}

func (v *Verifier) requestResponseExecutables(pacts []pact.Pact) []Executable {
	var executables []Executable
	for _, p := range pacts {
		rr, ok := p.(*pact.RequestResponsePact)
		if !ok {
			continue
		}
		consumerName := rr.Consumer.Name
		for _, interaction := range rr.Interactions {
			interaction := interaction
			executables = append(executables, Executable{
				Name: consumerName + ": " + interaction.Description,
				Run: func(ctx context.Context) error {
					return v.VerifyInteraction(ctx, consumerName, interaction)
				},
			})
		}
	}
	v.log.Debugf("created %d request/response executables", len(executables))
	return executables
}

func (v *Verifier) messageExecutables(pacts []pact.Pact) []Executable {
	var executables []Executable
	for _, p := range pacts {
		mp, ok := p.(*pact.MessagePact)
		if !ok {
			continue
		}
		consumerName := mp.Consumer.Name
		for _, message := range mp.Messages {
			message := message
			executables = append(executables, Executable{
				Name: consumerName + ": " + message.Description,
				Run: func(ctx context.Context) error {
					return v.VerifyMessage(ctx, consumerName, message)
				},
			})
		}
	}
	v.log.Debugf("created %d message executables", len(executables))
	return executables
}

func (v *Verifier) VerifyInteraction(ctx context.Context, consumer string, interaction pact.Interaction) (err error) {
	ctx, end := v.startSpan(ctx, kindRequestResponse, consumer, interaction.Description)
	defer func() { end(err) }()

	if err := v.setUpStates(ctx, interaction.Description, interaction.ProviderStates); err != nil {
		return err
	}

	actual, err := v.client.Send(ctx, interaction.Request, v.target)
	if err != nil {
		return errors.Wrapf(err, "unable to send request for interaction [%s]", interaction.Description)
	}

	result := matching.MatchResponse(interaction.Response, actual)
	if result.HasErrors() {
		return &ResponseMismatchError{Result: result}
	}

	v.log.WithFields(log.Fields{"consumer": consumer, "interaction": interaction.Description}).
		Info("response matched expectations")
	return nil
}

func (v *Verifier) VerifyMessage(ctx context.Context, consumer string, message pact.Message) (err error) {
	ctx, end := v.startSpan(ctx, kindMessage, consumer, message.Description)
	defer func() { end(err) }()

	if v.producer == nil {
		return errors.New("message pacts require a message producer")
	}
	if err := v.setUpStates(ctx, message.Description, message.ProviderStates); err != nil {
		return err
	}

	actual, err := v.producer.Produce(ctx, message)
	if err != nil {
		return err
	}

	result := matching.MatchMessage(message, actual)
	if result.HasErrors() {
		return &MessageMismatchError{Result: result}
	}

	v.log.WithFields(log.Fields{"consumer": consumer, "interaction": message.Description}).
		Info("message matched expectations")
	return nil
}

// Run executes every request/response executable, and every message
// executable when a message producer is configured. A kind without pacts is
// skipped, but at least one kind must have some.
func (v *Verifier) Run(ctx context.Context, consumer string) (Summary, error) {
	summary := Summary{RunID: v.runID}

	pacts, err := v.load(ctx, consumer)
	if err != nil {
		return summary, err
	}
	executables := v.requestResponseExecutables(pacts)
	if v.producer != nil {
		executables = append(executables, v.messageExecutables(pacts)...)
	}

	if len(executables) == 0 {
		return summary, &NoMatchingPactsError{Provider: v.provider, Consumer: consumer, Kind: "any"}
	}

	for _, executable := range executables {
		start := time.Now()
		err := executable.Run(ctx)
		outcome := Outcome{Name: executable.Name, Err: err, Duration: time.Since(start)}
		if err != nil {
			v.log.WithField("interaction", executable.Name).Error(err)
			summary.Failed = append(summary.Failed, outcome)
			continue
		}
		summary.Passed = append(summary.Passed, outcome)
	}
	return summary, nil
}

func (v *Verifier) load(ctx context.Context, consumer string) ([]pact.Pact, error) {
	pacts, err := v.source.LoadPacts(ctx, v.provider, consumer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load pacts")
	}
	v.log.WithField("consumer", consumer).Debugf("loaded %d pacts", len(pacts))
	return pacts, nil
}

func (v *Verifier) setUpStates(ctx context.Context, description string, states []pact.ProviderState) error {
	if len(states) == 0 {
		return nil
	}
	if v.states == nil {
		return &MissingStateHandlerError{Interaction: description}
	}
	for _, state := range states {
		if err := v.states.SetUp(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

func (v *Verifier) startSpan(ctx context.Context, kind, consumer, description string) (context.Context, func(error)) {
	ctx, span := v.tracer.Start(ctx, "pact.verify",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pact.provider", v.provider),
			attribute.String("pact.consumer", consumer),
			attribute.String("pact.kind", kind),
			attribute.String("pact.description", description),
			attribute.String("pact.run_id", v.runID),
		),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "verification failed")
		}
		span.End()
	}
}
