package pactverify

import (
	"context"
	"testing"

	"github.com/form3tech-oss/pact-provider/internal/app/provider"
)

// VerifyRequestResponse runs every interaction of the request/response pacts
// selected for the consumer as a subtest. An empty consumer selects every
// consumer.
func VerifyRequestResponse(t *testing.T, verifier *Verifier, consumer string) {
	t.Helper()
	executables, err := verifier.RequestResponseTests(context.Background(), consumer)
	if err != nil {
		t.Fatal(err)
	}
	run(t, executables)
}

// VerifyMessages runs every message of the message pacts selected for the
// consumer as a subtest.
func VerifyMessages(t *testing.T, verifier *Verifier, consumer string) {
	t.Helper()
	executables, err := verifier.MessageTests(context.Background(), consumer)
	if err != nil {
		t.Fatal(err)
	}
	run(t, executables)
}

func run(t *testing.T, executables []provider.Executable) {
	for _, executable := range executables {
		executable := executable
		t.Run(executable.Name, func(t *testing.T) {
			if err := executable.Run(context.Background()); err != nil {
				t.Error(err)
			}
		})
	}
}
