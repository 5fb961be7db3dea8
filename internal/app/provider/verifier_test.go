package provider

import (
	"testing"
)

func TestVerifier_RequestResponsePactsPass(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		a_provider_serving_accounts().and().
		an_account_pact().and().
		a_pact_for_another_provider().and().
		a_state_handler_creating_accounts()

	when.
		the_request_response_tests_are_run()

	then.
		the_tests_are_named("payments-ui: a request for account 42", "payments-ui: a request for a missing account").and().
		all_tests_pass().and().
		a_span_is_recorded_per_test()
}

func TestVerifier_BodyMismatchIsReported(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		a_provider_serving_accounts().and().
		an_account_pact_expecting_name("John").and().
		a_state_handler_creating_accounts()

	when.
		the_request_response_tests_are_run()

	then.
		the_test_fails_with_a_body_mismatch(
			"payments-ui: a request for account 42",
			"expected response 'body' property [$.name] to be equal to [John] but was [Jane]").and().
		a_span_is_recorded_per_test()
}

func TestVerifier_ProviderStateWithoutHandler(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		a_provider_serving_accounts().and().
		an_account_pact().and().
		no_state_handler()

	when.
		the_request_response_tests_are_run()

	then.
		the_test_fails_with_a_missing_state_handler("payments-ui: a request for account 42")
}

func TestVerifier_NoMatchingPacts(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		a_provider_serving_accounts().and().
		a_pact_for_another_provider()

	when.
		the_request_response_tests_are_run()

	then.
		no_matching_pacts_are_found()
}

func TestVerifier_MessagePactsPass(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		an_event_pact().and().
		an_account_pact().and().
		a_state_handler_creating_accounts().and().
		an_event_producer()

	when.
		the_message_tests_are_run()

	then.
		the_tests_are_named("ledger-worker: an account created event").and().
		all_tests_pass().and().
		a_span_is_recorded_per_test()
}

func TestVerifier_Run(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		a_provider_serving_accounts().and().
		an_account_pact_expecting_name("John").and().
		an_event_pact().and().
		a_state_handler_creating_accounts().and().
		an_event_producer()

	when.
		the_verifier_runs()

	then.
		the_summary_has(2, 1).and().
		the_pacts_are_loaded_once()
}

func TestVerifier_MessageMismatchIsReported(t *testing.T) {
	given, when, then := NewVerifierStage(t)

	given.
		an_event_pact().and().
		a_state_handler_creating_accounts().and().
		an_event_producer_sending_id("7")

	when.
		the_message_tests_are_run()

	then.
		the_test_fails_with_a_message_mismatch(
			"ledger-worker: an account created event",
			"expected response 'body' property [$.id] to be equal to [42] but was [7]")
}
