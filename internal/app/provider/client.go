package provider

import (
	"context"
	"crypto/tls"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/form3tech-oss/pact-provider/internal/app/matching"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeForm = "application/x-www-form-urlencoded"

	defaultTimeout           = 30 * time.Second
	defaultReadinessAttempts = 10
	defaultReadinessDelay    = 500 * time.Millisecond
)

// Client sends the request of an interaction to the provider.
type Client interface {
	Send(ctx context.Context, request pact.Request, target Target) (matching.ActualResponse, error)
}

type HTTPClient struct {
	client            *http.Client
	log               log.FieldLogger
	readinessAttempts uint
	readinessDelay    time.Duration
}

type HTTPClientOption func(*HTTPClient)

func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithTLSConfig is used for providers served over TLS, including mTLS.
func WithTLSConfig(config *tls.Config) HTTPClientOption {
	return func(c *HTTPClient) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = config
		c.client.Transport = transport
	}
}

func WithClientLogger(logger log.FieldLogger) HTTPClientOption {
	return func(c *HTTPClient) {
		c.log = logger
	}
}

func WithReadiness(attempts uint, delay time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.readinessAttempts = attempts
		c.readinessDelay = delay
	}
}

func NewHTTPClient(opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		client:            &http.Client{Timeout: defaultTimeout},
		log:               log.StandardLogger(),
		readinessAttempts: defaultReadinessAttempts,
		readinessDelay:    defaultReadinessDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Send(ctx context.Context, request pact.Request, target Target) (matching.ActualResponse, error) {
	httpRequest, err := c.buildRequest(ctx, request, target)
	if err != nil {
		return matching.ActualResponse{}, err
	}

	c.log.Debugf("sending %s %s", httpRequest.Method, httpRequest.URL)
	res, err := c.client.Do(httpRequest)
	if err != nil {
		return matching.ActualResponse{}, errors.Wrapf(err, "unable to send %s %s", httpRequest.Method, httpRequest.URL)
	}
	defer res.Body.Close()

	return extractResponse(httpRequest.Method, res)
}

// WaitUntilReachable blocks until the target accepts TCP connections or the
// readiness attempts are exhausted.
func (c *HTTPClient) WaitUntilReachable(ctx context.Context, target Target) error {
	dialer := net.Dialer{Timeout: c.readinessDelay}
	retryOpts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.readinessAttempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(c.readinessDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debugf("provider at %s not reachable yet (attempt %d): %v", target.Address(), n+1, err)
		}),
	}

	err := retry.Do(func() error {
		conn, err := dialer.DialContext(ctx, "tcp", target.Address())
		if err != nil {
			return err
		}
		return conn.Close()
	}, retryOpts...)
	if err != nil {
		return errors.Wrapf(err, "provider at %s is not reachable", target.Address())
	}
	return nil
}

func (c *HTTPClient) buildRequest(ctx context.Context, request pact.Request, target Target) (*http.Request, error) {
	u := target.URL(request.Path)
	query := c.queryValues(request.Query)

	var body io.Reader
	if isFormPost(request) {
		body = strings.NewReader(query.Encode())
	} else {
		u.RawQuery = query.Encode()
		if request.Body != nil {
			body = strings.NewReader(*request.Body)
		}
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method.String(), u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build request %s %s", request.Method, u)
	}

	for name, value := range request.Headers {
		if strings.EqualFold(name, "Host") {
			httpRequest.Host = value
			continue
		}
		httpRequest.Header.Set(name, value)
	}
	if body != nil && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", mediaTypeJSON)
	}

	return httpRequest, nil
}

func (c *HTTPClient) queryValues(query map[string][]string) url.Values {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, key := range keys {
		if len(query[key]) == 0 {
			c.log.Warnf("query parameter '%s' has no values and will be ignored", key)
			continue
		}
		for _, v := range query[key] {
			values.Add(key, v)
		}
	}
	return values
}

func isFormPost(request pact.Request) bool {
	if request.Method != pact.MethodPost {
		return false
	}
	for name, value := range request.Headers {
		if !strings.EqualFold(name, "Content-Type") {
			continue
		}
		mediaType, _, err := mime.ParseMediaType(value)
		return err == nil && mediaType == mediaTypeForm
	}
	return false
}

func extractResponse(method string, res *http.Response) (matching.ActualResponse, error) {
	headers := make(map[string]string, len(res.Header))
	for name, values := range res.Header {
		headers[name] = strings.Join(values, ", ")
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return matching.ActualResponse{}, errors.Wrap(err, "unable to read response body")
	}

	actual := matching.ActualResponse{
		Status:  res.StatusCode,
		Headers: headers,
	}
	if len(data) > 0 || !bodiless(method, res.StatusCode) {
		body := string(data)
		actual.Body = &body
	}
	return actual, nil
}

func bodiless(method string, status int) bool {
	return method == http.MethodHead || status == http.StatusNoContent || status == http.StatusNotModified
}
