package matching

import (
	"strings"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
)

// ActualResponse is what the provider answered.
type ActualResponse struct {
	Status  int
	Headers map[string]string
	// Body is nil when the response had no body.
	Body *string
}

// ResponseResult groups the reasons of every facet of a response comparison.
type ResponseResult struct {
	Status  Result
	Headers Result
	Body    Result
}

// MatchResponse compares every facet of a response and collects all differences.
func MatchResponse(expected pact.Response, actual ActualResponse) ResponseResult {
	return ResponseResult{
		Status:  MatchStatus(expected, actual.Status),
		Headers: MatchHeaders(expected, actual.Headers),
		Body:    MatchBody(expected, actual.Body),
	}
}

func (r ResponseResult) HasErrors() bool {
	return !r.Status.Matched() || !r.Headers.Matched() || !r.Body.Matched()
}

// String renders the report with one section per facet that has reasons.
func (r ResponseResult) String() string {
	return report(
		section{"Status", r.Status},
		section{"Headers", r.Headers},
		section{"Body", r.Body},
	)
}

// ActualMessage is what a message producer emitted.
type ActualMessage struct {
	Contents []byte
	MetaData map[string]string
}

func NewActualMessage(contents []byte) ActualMessage {
	return ActualMessage{Contents: contents}
}

type MessageResult struct {
	Body Result
}

// MatchMessage compares message contents. The content type comes from the
// expected metadata, then from the produced metadata, and is sniffed from the
// expected contents otherwise.
func MatchMessage(expected pact.Message, actual ActualMessage) MessageResult {
	var contents *string
	if actual.Contents != nil {
		s := string(actual.Contents)
		contents = &s
	}
	return MessageResult{
		Body: matchBody(messageHeaders(expected.MetaData, actual.MetaData), expected.Contents, contents),
	}
}

func (r MessageResult) HasErrors() bool {
	return !r.Body.Matched()
}

func (r MessageResult) String() string {
	return report(section{"Body", r.Body})
}

func messageHeaders(metaData ...map[string]string) map[string]string {
	for _, m := range metaData {
		for _, key := range []string{"contentType", "Content-Type"} {
			if contentType, ok := headerValue(m, key); ok {
				return map[string]string{"Content-Type": contentType}
			}
		}
	}
	return nil
}

type section struct {
	title  string
	result Result
}

func report(sections ...section) string {
	var parts []string
	for _, s := range sections {
		if s.result.Matched() {
			continue
		}
		parts = append(parts, "-- "+s.title+" --\n"+strings.Join(s.result.Reasons, "\n"))
	}
	return strings.Join(parts, "\n\n")
}
