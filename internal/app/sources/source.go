package sources

import (
	"context"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	log "github.com/sirupsen/logrus"
)

// Source loads the pacts of a provider. An empty consumer selects every consumer.
type Source interface {
	LoadPacts(ctx context.Context, provider, consumer string) ([]pact.Pact, error)
}

type Option func(*options)

type options struct {
	reader *pact.Reader
	log    log.FieldLogger
}

func WithReader(reader *pact.Reader) Option {
	return func(o *options) {
		o.reader = reader
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(o *options) {
		o.log = logger
	}
}

func newOptions(opts []Option) options {
	o := options{log: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.reader == nil {
		o.reader = pact.NewReader(pact.WithLogger(o.log))
	}
	return o
}

// document is a raw pact together with where it came from.
type document struct {
	name string
	data []byte
}

// parse reads every document, skipping and logging those that are not valid
// pacts, and keeps the ones matching provider and consumer.
func parse(o options, docs []document, provider, consumer string) []pact.Pact {
	var pacts []pact.Pact
	for _, doc := range docs {
		p, err := o.reader.Read(doc.data)
		if err != nil {
			o.log.WithField("file", doc.name).WithError(err).Warn("could not be loaded as a pact")
			continue
		}
		meta := p.Meta()
		if meta.Provider.Name != provider {
			o.log.WithField("file", doc.name).Debugf("skipped, provider is '%s'", meta.Provider.Name)
			continue
		}
		if consumer != "" && meta.Consumer.Name != consumer {
			o.log.WithField("file", doc.name).Debugf("skipped, consumer is '%s'", meta.Consumer.Name)
			continue
		}
		pacts = append(pacts, p)
	}
	return pacts
}

func consumerOrAny(consumer string) string {
	if consumer == "" {
		return "*"
	}
	return consumer
}

// Multi concatenates the pacts of several sources.
type Multi []Source

func (m Multi) LoadPacts(ctx context.Context, provider, consumer string) ([]pact.Pact, error) {
	var pacts []pact.Pact
	for _, source := range m {
		loaded, err := source.LoadPacts(ctx, provider, consumer)
		if err != nil {
			return nil, err
		}
		pacts = append(pacts, loaded...)
	}
	return pacts, nil
}
