package pact

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSupportedSpecifications only admits version 3.0 documents.
const DefaultSupportedSpecifications = "~3.0"

type Reader struct {
	log       log.FieldLogger
	supported *semver.Constraints
}

type ReaderOption func(*Reader)

func WithLogger(logger log.FieldLogger) ReaderOption {
	return func(r *Reader) {
		r.log = logger
	}
}

// WithSupportedSpecifications replaces the version policy, e.g. ">=3.0, <5.0".
func WithSupportedSpecifications(constraints *semver.Constraints) ReaderOption {
	return func(r *Reader) {
		r.supported = constraints
	}
}

func NewReader(opts ...ReaderOption) *Reader {
	supported, err := semver.NewConstraint(DefaultSupportedSpecifications)
	if err != nil {
		panic(err)
	}
	r := &Reader{
		log:       log.StandardLogger(),
		supported: supported,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses a pact document with the default reader.
func Read(data []byte) (Pact, error) {
	return NewReader().Read(data)
}

func (r *Reader) ReadFrom(in io.Reader) (Pact, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read pact")
	}
	return r.Read(data)
}

func (r *Reader) Read(data []byte) (Pact, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, &MalformedFileError{Err: err}
	}

	meta, err := extractor{container: containerPact}.metadata(doc)
	if err != nil {
		return nil, err
	}

	if !r.supported.Check(meta.Specification.Version()) {
		return nil, &UnsupportedSpecificationError{
			Specification: meta.Specification,
			Supported:     r.supported,
		}
	}

	_, hasInteractions := doc["interactions"].([]interface{})
	_, hasMessages := doc["messages"].([]interface{})

	switch {
	case hasInteractions:
		if hasMessages {
			r.log.WithFields(log.Fields{
				"provider": meta.Provider.Name,
				"consumer": meta.Consumer.Name,
			}).Warn("pact contains both interactions and messages, messages are ignored")
		}
		p, err := readRequestResponsePact(meta, doc)
		if err != nil {
			return nil, err
		}
		return p, nil
	case hasMessages:
		p, err := readMessagePact(meta, doc)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, ErrUnidentifiablePact
	}
}

func readRequestResponsePact(meta Metadata, doc map[string]interface{}) (*RequestResponsePact, error) {
	nodes, err := elements(doc, "interactions")
	if err != nil {
		return nil, err
	}
	interactions := make([]Interaction, 0, len(nodes))
	for _, node := range nodes {
		interaction, err := extractInteraction(node)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, interaction)
	}
	return &RequestResponsePact{Metadata: meta, Interactions: interactions}, nil
}

func readMessagePact(meta Metadata, doc map[string]interface{}) (*MessagePact, error) {
	nodes, err := elements(doc, "messages")
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(nodes))
	for _, node := range nodes {
		message, err := extractMessage(node)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return &MessagePact{Metadata: meta, Messages: messages}, nil
}

func decode(data []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: unexpected data after the top-level value")
	}
	doc, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("expected a JSON object but got [%s]", FormatValue(value))
	}
	return doc, nil
}
