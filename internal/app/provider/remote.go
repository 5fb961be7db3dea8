package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/form3tech-oss/pact-provider/internal/app/matching"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StateChangeRequest is posted to a provider states setup endpoint.
type StateChangeRequest struct {
	State  string                 `json:"state"`
	Params map[string]interface{} `json:"params"`
	Action string                 `json:"action"`
}

// ProduceMessageRequest is posted to a provider's message endpoint.
type ProduceMessageRequest struct {
	Description    string               `json:"description"`
	ProviderStates []pact.ProviderState `json:"providerStates"`
}

// StateChangeClient sets up provider states of a provider running in another
// process by posting them to its setup URL.
type StateChangeClient struct {
	url    string
	client *http.Client
	log    log.FieldLogger
}

func NewStateChangeClient(url string, client *http.Client, logger log.FieldLogger) *StateChangeClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &StateChangeClient{url: url, client: client, log: logger}
}

func (c *StateChangeClient) SetUp(ctx context.Context, state pact.ProviderState) error {
	params := state.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}
	c.log.WithField("state", state.Name).Debugf("setting up provider state via %s", c.url)

	_, err := post(ctx, c.client, c.url, StateChangeRequest{State: state.Name, Params: params, Action: "setup"})
	if err != nil {
		return &InvocationError{Kind: ProviderStateHandler, Name: state.Name, Err: err}
	}
	return nil
}

// HTTPMessageProducer asks a provider running in another process to produce
// a message. The response body is the message, its Content-Type header
// becomes the message content type.
type HTTPMessageProducer struct {
	url    string
	client *http.Client
	log    log.FieldLogger
}

func NewHTTPMessageProducer(url string, client *http.Client, logger log.FieldLogger) *HTTPMessageProducer {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &HTTPMessageProducer{url: url, client: client, log: logger}
}

func (p *HTTPMessageProducer) Produce(ctx context.Context, message pact.Message) (matching.ActualMessage, error) {
	p.log.WithField("message", message.Description).Debugf("requesting message from %s", p.url)

	res, err := post(ctx, p.client, p.url, ProduceMessageRequest{
		Description:    message.Description,
		ProviderStates: message.ProviderStates,
	})
	if err != nil {
		return matching.ActualMessage{}, &InvocationError{Kind: MessageProducerHandler, Name: message.Description, Err: err}
	}

	produced := matching.NewActualMessage(res.body)
	if contentType := res.header.Get("Content-Type"); contentType != "" {
		produced.MetaData = map[string]string{"contentType": contentType}
	}
	return produced, nil
}

type response struct {
	header http.Header
	body   []byte
}

func post(ctx context.Context, client *http.Client, url string, payload interface{}) (response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return response{}, errors.Wrap(err, "unable to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return response{}, errors.Wrapf(err, "unable to build request to %s", url)
	}
	req.Header.Set("Content-Type", mediaTypeJSON)

	res, err := client.Do(req)
	if err != nil {
		return response{}, errors.Wrapf(err, "unable to post to %s", url)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, errors.Wrapf(err, "unable to read response from %s", url)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return response{}, errors.Errorf("%s responded with status %d: %s", url, res.StatusCode, string(body))
	}
	return response{header: res.Header, body: body}, nil
}
