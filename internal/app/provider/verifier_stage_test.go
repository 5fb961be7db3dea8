package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/form3tech-oss/pact-provider/internal/app/sources"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const accountPact = `{
  "provider": { "name": "accounts-api" },
  "consumer": { "name": "payments-ui" },
  "interactions": [
    {
      "description": "a request for account 42",
      "providerStates": [{ "name": "account 42 exists", "params": { "name": "Jane" } }],
      "request": { "method": "GET", "path": "/accounts/42" },
      "response": {
        "status": 200,
        "headers": { "Content-Type": "application/json" },
        "body": { "id": "42", "name": "Jane" }
      }
    },
    {
      "description": "a request for a missing account",
      "request": { "method": "GET", "path": "/accounts/7" },
      "response": { "status": 404 }
    }
  ],
  "metadata": { "pact-specification": { "version": "3.0.0" } }
}`

const eventPact = `{
  "provider": { "name": "accounts-api" },
  "consumer": { "name": "ledger-worker" },
  "messages": [
    {
      "description": "an account created event",
      "providerStates": [{ "name": "account 42 exists", "params": { "name": "Jane" } }],
      "contents": { "type": "AccountCreated", "id": "42" },
      "metaData": { "contentType": "application/json" }
    }
  ],
  "metadata": { "pact-specification": { "version": "3.0.0" } }
}`

type countingSource struct {
	Source
	loads *atomic.Int32
}

func (c countingSource) LoadPacts(ctx context.Context, provider, consumer string) ([]pact.Pact, error) {
	c.loads.Add(1)
	return c.Source.LoadPacts(ctx, provider, consumer)
}

type VerifierStage struct {
	t           *testing.T
	assert      *assert.Assertions
	require     *require.Assertions
	pactDir     string
	mu          sync.Mutex
	accounts    map[string]string
	registry    *Registry
	spans       *tracetest.SpanRecorder
	target      Target
	verifier    *Verifier
	executables []Executable
	runErrs     map[string]error
	loadErr     error
	summary     Summary
	runErr      error
	useRegistry bool
	loads       atomic.Int32
}

func NewVerifierStage(t *testing.T) (*VerifierStage, *VerifierStage, *VerifierStage) {
	s := &VerifierStage{
		t:           t,
		assert:      assert.New(t),
		require:     require.New(t),
		pactDir:     t.TempDir(),
		accounts:    map[string]string{},
		registry:    NewRegistry(),
		spans:       tracetest.NewSpanRecorder(),
		runErrs:     map[string]error{},
		useRegistry: true,
	}
	return s, s, s
}

func (s *VerifierStage) and() *VerifierStage {
	return s
}

func (s *VerifierStage) a_provider_serving_accounts() *VerifierStage {
	e := echo.New()
	e.HideBanner = true
	e.GET("/accounts/:id", func(c echo.Context) error {
		s.mu.Lock()
		name, ok := s.accounts[c.Param("id")]
		s.mu.Unlock()
		if !ok {
			return c.NoContent(http.StatusNotFound)
		}
		body, err := json.Marshal(map[string]string{"id": c.Param("id"), "name": name})
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/json", body)
	})

	server := httptest.NewServer(e)
	s.t.Cleanup(server.Close)

	target, err := TargetFromURL(server.URL)
	s.require.NoError(err)
	s.target = target
	return s
}

func (s *VerifierStage) a_pact_file(name, content string) *VerifierStage {
	s.require.NoError(os.WriteFile(filepath.Join(s.pactDir, name), []byte(content), 0o600))
	return s
}

func (s *VerifierStage) an_account_pact() *VerifierStage {
	return s.a_pact_file("payments-ui-accounts-api.json", accountPact)
}

func (s *VerifierStage) an_account_pact_expecting_name(name string) *VerifierStage {
	doc, err := sjson.Set(accountPact, "interactions.0.response.body.name", name)
	s.require.NoError(err)
	return s.a_pact_file("payments-ui-accounts-api.json", doc)
}

func (s *VerifierStage) an_event_pact() *VerifierStage {
	return s.a_pact_file("ledger-worker-accounts-api.json", eventPact)
}

func (s *VerifierStage) a_pact_for_another_provider() *VerifierStage {
	doc, err := sjson.Set(accountPact, "provider.name", "payments-api")
	s.require.NoError(err)
	return s.a_pact_file("payments-ui-payments-api.json", doc)
}

func (s *VerifierStage) a_state_handler_creating_accounts() *VerifierStage {
	s.require.NoError(s.registry.RegisterState("Account 42 Exists", func(params map[string]interface{}) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accounts["42"] = params["name"].(string)
	}))
	return s
}

func (s *VerifierStage) no_state_handler() *VerifierStage {
	s.useRegistry = false
	return s
}

func (s *VerifierStage) an_event_producer() *VerifierStage {
	return s.an_event_producer_sending_id("42")
}

func (s *VerifierStage) an_event_producer_sending_id(id string) *VerifierStage {
	s.require.NoError(s.registry.RegisterProducer(func() ([]byte, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return json.Marshal(map[string]string{"type": "AccountCreated", "id": id, "name": s.accounts["42"]})
	}, "an account created event"))
	return s
}

func (s *VerifierStage) newVerifier() *Verifier {
	logger, _ := test.NewNullLogger()
	opts := []VerifierOption{
		WithTarget(s.target),
		WithLogger(logger),
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))),
		WithRunID("run-1"),
	}
	if s.useRegistry {
		opts = append(opts, WithRegistry(s.registry))
	}
	source := countingSource{Source: sources.NewLocalFiles(s.pactDir, sources.WithLogger(logger)), loads: &s.loads}
	return NewVerifier(source, "accounts-api", opts...)
}

func (s *VerifierStage) the_request_response_tests_are_run() *VerifierStage {
	s.verifier = s.newVerifier()
	s.executables, s.loadErr = s.verifier.RequestResponseTests(context.Background(), "")
	s.runAll()
	return s
}

func (s *VerifierStage) the_message_tests_are_run() *VerifierStage {
	s.verifier = s.newVerifier()
	s.executables, s.loadErr = s.verifier.MessageTests(context.Background(), "")
	s.runAll()
	return s
}

func (s *VerifierStage) the_verifier_runs() *VerifierStage {
	s.verifier = s.newVerifier()
	s.summary, s.runErr = s.verifier.Run(context.Background(), "")
	return s
}

func (s *VerifierStage) runAll() {
	for _, executable := range s.executables {
		s.runErrs[executable.Name] = executable.Run(context.Background())
	}
}

func (s *VerifierStage) the_tests_are_named(names ...string) *VerifierStage {
	s.require.NoError(s.loadErr)
	var actual []string
	for _, executable := range s.executables {
		actual = append(actual, executable.Name)
	}
	s.assert.Equal(names, actual)
	return s
}

func (s *VerifierStage) all_tests_pass() *VerifierStage {
	s.require.NoError(s.loadErr)
	s.require.NotEmpty(s.executables)
	for name, err := range s.runErrs {
		s.assert.NoError(err, name)
	}
	return s
}

func (s *VerifierStage) the_test_fails_with_a_body_mismatch(name, reason string) *VerifierStage {
	var mismatch *ResponseMismatchError
	s.require.ErrorAs(s.runErrs[name], &mismatch)
	s.assert.Empty(mismatch.Result.Status.Reasons)
	s.assert.Equal([]string{reason}, mismatch.Result.Body.Reasons)
	return s
}

func (s *VerifierStage) the_test_fails_with_a_missing_state_handler(name string) *VerifierStage {
	var missing *MissingStateHandlerError
	s.assert.ErrorAs(s.runErrs[name], &missing)
	return s
}

func (s *VerifierStage) the_test_fails_with_a_message_mismatch(name, reason string) *VerifierStage {
	var mismatch *MessageMismatchError
	s.require.ErrorAs(s.runErrs[name], &mismatch)
	s.assert.Equal([]string{reason}, mismatch.Result.Body.Reasons)
	return s
}

func (s *VerifierStage) no_matching_pacts_are_found() *VerifierStage {
	var noMatch *NoMatchingPactsError
	s.assert.ErrorAs(s.loadErr, &noMatch)
	return s
}

func (s *VerifierStage) a_span_is_recorded_per_test() *VerifierStage {
	ended := s.spans.Ended()
	s.require.Len(ended, len(s.executables))
	for _, span := range ended {
		s.assert.Equal("pact.verify", span.Name())
		attrs := map[string]string{}
		for _, kv := range span.Attributes() {
			attrs[string(kv.Key)] = kv.Value.AsString()
		}
		s.assert.Equal("accounts-api", attrs["pact.provider"])
		s.assert.Equal("run-1", attrs["pact.run_id"])
		s.assert.NotEmpty(attrs["pact.description"])
	}
	return s
}

func (s *VerifierStage) the_pacts_are_loaded_once() *VerifierStage {
	s.assert.Equal(int32(1), s.loads.Load())
	return s
}

func (s *VerifierStage) the_summary_has(passed, failed int) *VerifierStage {
	s.require.NoError(s.runErr)
	s.assert.Equal("run-1", s.summary.RunID)
	s.assert.Len(s.summary.Passed, passed)
	s.assert.Len(s.summary.Failed, failed)
	s.assert.Equal(failed == 0, s.summary.OK())
	return s
}
