package matching

import (
	"fmt"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
)

// MatchStatus accepts any status when the expectation leaves it unset.
func MatchStatus(expected pact.Response, actual int) Result {
	if expected.Status == nil || *expected.Status == actual {
		return Match
	}
	return Mismatch(fmt.Sprintf("expected response 'status' to be [%d] but was [%d]", *expected.Status, actual))
}
