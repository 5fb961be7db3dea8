package matching

import (
	"fmt"
	"sort"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
)

// MatchHeaders checks that every expected header is present with the expected
// value. Missing headers are reported before differing ones, and an empty
// expectation matches anything.
func MatchHeaders(expected pact.Response, actual map[string]string) Result {
	if len(expected.Headers) == 0 {
		return Match
	}

	keys := make([]string, 0, len(expected.Headers))
	for k := range expected.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var missing, differing []string
	for _, key := range keys {
		value, ok := headerValue(actual, key)
		if !ok {
			missing = append(missing, fmt.Sprintf("expected response 'headers' to contain [%s] but they didn't", key))
			continue
		}
		if value != expected.Headers[key] {
			differing = append(differing, fmt.Sprintf("expected response 'header' [%s] to be equal to [%s] but was [%s]", key, expected.Headers[key], value))
		}
	}

	return Result{Reasons: append(missing, differing...)}
}
