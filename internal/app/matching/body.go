package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
)

const rootPath = "$"

// MatchBody compares bodies according to the content type of the expectation.
// An unset expected body matches anything, including no body at all.
func MatchBody(expected pact.Response, actual *string) Result {
	return matchBody(expected.Headers, expected.Body, actual)
}

func matchBody(headers map[string]string, expected, actual *string) Result {
	if expected == nil {
		return Match
	}
	if actual == nil {
		return Mismatch("expected response 'body' not to be null but it was")
	}

	switch effectiveContentType(headers, *expected) {
	case JSON:
		return matchJSONBody(*expected, *actual)
	default:
		// XML and HTML are compared byte for byte like plain text.
		return matchPlainBody(*expected, *actual)
	}
}

func matchPlainBody(expected, actual string) Result {
	if expected == actual {
		return Match
	}
	return Mismatch(fmt.Sprintf("expected response 'body' to be equal to [%s] but was [%s]", expected, actual))
}

func matchJSONBody(expected, actual string) Result {
	expectedJSON, err := decodeJSON(expected)
	if err != nil {
		return matchPlainBody(expected, actual)
	}
	actualJSON, err := decodeJSON(actual)
	if err != nil {
		return Mismatch(fmt.Sprintf("expected response 'body' to be valid JSON but was [%s]", actual))
	}

	if jsonEqual(expectedJSON, actualJSON) {
		return Match
	}
	return Result{Reasons: diff(rootPath, expectedJSON, actualJSON)}
}

// diff walks the expected value and reports every leaf that differs in the
// actual one. Properties present only in the actual value are ignored, arrays
// are compared element by element and must have the same length.
func diff(path string, expected, actual interface{}) []string {
	switch e := expected.(type) {
	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok {
			return []string{leafReason(path, expected, actual)}
		}
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var reasons []string
		for _, k := range keys {
			if jsonEqual(e[k], a[k]) {
				continue
			}
			reasons = append(reasons, diff(path+"."+k, e[k], a[k])...)
		}
		return reasons
	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok {
			return []string{leafReason(path, expected, actual)}
		}
		var reasons []string
		if len(e) != len(a) {
			reasons = append(reasons, fmt.Sprintf("expected response 'body' property [%s] to contain [%d] elements but contained [%d]", path, len(e), len(a)))
		}
		for i := 0; i < len(e) && i < len(a); i++ {
			if jsonEqual(e[i], a[i]) {
				continue
			}
			reasons = append(reasons, diff(fmt.Sprintf("%s[%d]", path, i), e[i], a[i])...)
		}
		return reasons
	default:
		if jsonEqual(expected, actual) {
			return nil
		}
		return []string{leafReason(path, expected, actual)}
	}
}

// decodeJSON keeps numbers as json.Number literals.
func decodeJSON(s string) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return value, nil
}

func jsonEqual(expected, actual interface{}) bool {
	switch e := expected.(type) {
	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok || len(e) != len(a) {
			return false
		}
		for k, v := range e {
			w, ok := a[k]
			if !ok || !jsonEqual(v, w) {
				return false
			}
		}
		return true
	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok || len(e) != len(a) {
			return false
		}
		for i := range e {
			if !jsonEqual(e[i], a[i]) {
				return false
			}
		}
		return true
	case json.Number:
		a, ok := actual.(json.Number)
		return ok && numberEqual(e, a)
	default:
		return expected == actual
	}
}

// numberEqual compares numbers by value, 1 equals 1.0 and 1e2 equals 100.
func numberEqual(expected, actual json.Number) bool {
	if expected == actual {
		return true
	}
	e, ok := new(big.Rat).SetString(expected.String())
	if !ok {
		return false
	}
	a, ok := new(big.Rat).SetString(actual.String())
	if !ok {
		return false
	}
	return e.Cmp(a) == 0
}

func leafReason(path string, expected, actual interface{}) string {
	return fmt.Sprintf("expected response 'body' property [%s] to be equal to [%s] but was [%s]",
		path, pact.FormatValue(expected), pact.FormatValue(actual))
}
