package matching

import (
	"testing"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

func status(s int) *int {
	return &s
}

func body(s string) *string {
	return &s
}

func TestMatchStatus(t *testing.T) {
	assert.Equal(t, Match, MatchStatus(pact.Response{Status: status(200)}, 200))
	assert.Equal(t, Match, MatchStatus(pact.Response{}, 503))
	assert.Equal(t,
		Mismatch("expected response 'status' to be [200] but was [400]"),
		MatchStatus(pact.Response{Status: status(200)}, 400))
}

func TestMatchHeaders(t *testing.T) {
	cases := []struct {
		name     string
		expected map[string]string
		actual   map[string]string
		reasons  []string
	}{
		{
			name:   "empty expectation matches anything",
			actual: map[string]string{"X-Foo": "bar"},
		},
		{
			name:     "equal headers",
			expected: map[string]string{"Content-Type": "application/json"},
			actual:   map[string]string{"Content-Type": "application/json", "X-Request-Id": "1"},
		},
		{
			name:     "header names are case insensitive",
			expected: map[string]string{"content-type": "application/json"},
			actual:   map[string]string{"Content-Type": "application/json"},
		},
		{
			name:     "missing header",
			expected: map[string]string{"Content-Type": "application/json"},
			actual:   map[string]string{},
			reasons:  []string{"expected response 'headers' to contain [Content-Type] but they didn't"},
		},
		{
			name:     "missing headers are reported before differing ones",
			expected: map[string]string{"A": "1", "B": "2", "C": "3"},
			actual:   map[string]string{"A": "x", "C": "3"},
			reasons: []string{
				"expected response 'headers' to contain [B] but they didn't",
				"expected response 'header' [A] to be equal to [1] but was [x]",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := MatchHeaders(pact.Response{Headers: tc.expected}, tc.actual)
			assert.Equal(t, tc.reasons, result.Reasons)
		})
	}
}

func TestMatchBody_NullHandling(t *testing.T) {
	assert.True(t, MatchBody(pact.Response{}, nil).Matched())
	assert.True(t, MatchBody(pact.Response{}, body("")).Matched())
	assert.True(t, MatchBody(pact.Response{}, body("anything")).Matched())
	assert.Equal(t,
		Mismatch("expected response 'body' not to be null but it was"),
		MatchBody(pact.Response{Body: body("")}, nil))
	assert.Equal(t,
		Mismatch("expected response 'body' not to be null but it was"),
		MatchBody(pact.Response{Body: body(`{"a":1}`)}, nil))
}

func TestMatchBody_Plain(t *testing.T) {
	expected := pact.Response{Body: body("hello")}
	assert.True(t, MatchBody(expected, body("hello")).Matched())
	assert.Equal(t,
		Mismatch("expected response 'body' to be equal to [hello] but was [bye]"),
		MatchBody(expected, body("bye")))
}

func TestMatchBody_EmptyStringMustMatchExactly(t *testing.T) {
	expected := pact.Response{Body: body("")}
	assert.True(t, MatchBody(expected, body("")).Matched())
	assert.Equal(t,
		Mismatch("expected response 'body' to be equal to [] but was [x]"),
		MatchBody(expected, body("x")))
}

func TestMatchBody_XMLIsComparedByteForByte(t *testing.T) {
	expected := pact.Response{
		Headers: map[string]string{"Content-Type": "application/xml"},
		Body:    body("<a><b>1</b></a>"),
	}
	assert.True(t, MatchBody(expected, body("<a><b>1</b></a>")).Matched())
	assert.Equal(t,
		Mismatch("expected response 'body' to be equal to [<a><b>1</b></a>] but was [<a> <b>1</b> </a>]"),
		MatchBody(expected, body("<a> <b>1</b> </a>")))
}

func TestMatchBody_JSON(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		actual   string
		reasons  []string
	}{
		{
			name:     "semantically equal",
			expected: `{"foo":{"bar":true},"n":1}`,
			actual:   "{ \"n\": 1.0,\n \"foo\": { \"bar\": true } }",
		},
		{
			name:     "nested mismatch",
			expected: `{"foo":{"bar":true}}`,
			actual:   `{"foo":{"bar":false}}`,
			reasons:  []string{"expected response 'body' property [$.foo.bar] to be equal to [true] but was [false]"},
		},
		{
			name:     "missing property",
			expected: `{"foo":"x","id":7}`,
			actual:   `{"foo":"x"}`,
			reasons:  []string{"expected response 'body' property [$.id] to be equal to [7] but was [null]"},
		},
		{
			name:     "additional actual properties are allowed",
			expected: `{"foo":"x"}`,
			actual:   `{"foo":"x","extra":true}`,
		},
		{
			name:     "object replaced by a scalar",
			expected: `{"foo":{"bar":1}}`,
			actual:   `{"foo":"bar"}`,
			reasons:  []string{`expected response 'body' property [$.foo] to be equal to [{"bar":1}] but was [bar]`},
		},
		{
			name:     "reasons are sorted by property",
			expected: `{"b":1,"a":2}`,
			actual:   `{"b":3,"a":4}`,
			reasons: []string{
				"expected response 'body' property [$.a] to be equal to [2] but was [4]",
				"expected response 'body' property [$.b] to be equal to [1] but was [3]",
			},
		},
		{
			name:     "array element mismatch",
			expected: `{"foo":[{"id":1},{"id":2}]}`,
			actual:   `{"foo":[{"id":1},{"id":3}]}`,
			reasons:  []string{"expected response 'body' property [$.foo[1].id] to be equal to [2] but was [3]"},
		},
		{
			name:     "array scalar mismatch",
			expected: `{"foo":[true]}`,
			actual:   `{"foo":[false]}`,
			reasons:  []string{"expected response 'body' property [$.foo[0]] to be equal to [true] but was [false]"},
		},
		{
			name:     "array length mismatch",
			expected: `{"foo":[1,2]}`,
			actual:   `{"foo":[1]}`,
			reasons:  []string{"expected response 'body' property [$.foo] to contain [2] elements but contained [1]"},
		},
		{
			name:     "top level array",
			expected: `[{"a":"x"}]`,
			actual:   `[{"a":"y"}]`,
			reasons:  []string{"expected response 'body' property [$[0].a] to be equal to [x] but was [y]"},
		},
		{
			name:     "integers beyond float precision",
			expected: `{"id":9007199254740993}`,
			actual:   `{"id":9007199254740992}`,
			reasons:  []string{"expected response 'body' property [$.id] to be equal to [9007199254740993] but was [9007199254740992]"},
		},
		{
			name:     "numbers are compared by value",
			expected: `{"n":1,"big":9007199254740993,"e":1e2}`,
			actual:   `{"n":1.0,"big":9007199254740993,"e":100}`,
		},
		{
			name:     "reasons keep the number literals",
			expected: `{"n":1e300}`,
			actual:   `{"n":1.50}`,
			reasons:  []string{"expected response 'body' property [$.n] to be equal to [1e300] but was [1.50]"},
		},
		{
			name:     "extra properties in nested objects are allowed",
			expected: `{"foo":{"id":9007199254740993}}`,
			actual:   `{"foo":{"id":9007199254740993,"extra":[1]}}`,
		},
		{
			name:     "actual with trailing data",
			expected: `{"a":1}`,
			actual:   `{"a":1} }`,
			reasons:  []string{"expected response 'body' to be valid JSON but was [{\"a\":1} }]"},
		},
		{
			name:     "actual is not json",
			expected: `{"a":1}`,
			actual:   `oops`,
			reasons:  []string{"expected response 'body' to be valid JSON but was [oops]"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := MatchBody(pact.Response{Body: body(tc.expected)}, body(tc.actual))
			assert.Equal(t, tc.reasons, result.Reasons)
		})
	}
}

func TestMatchBody_ContentTypeHeaderWinsOverSniffing(t *testing.T) {
	expected := pact.Response{
		Headers: map[string]string{"Content-Type": "text/plain"},
		Body:    body(`{"a":1}`),
	}
	assert.Equal(t,
		Mismatch(`expected response 'body' to be equal to [{"a":1}] but was [{"a": 1}]`),
		MatchBody(expected, body(`{"a": 1}`)))
}

func TestMatchBody_ExpectedBodyNotJSONDespiteHeader(t *testing.T) {
	expected := pact.Response{
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body("plain"),
	}
	assert.True(t, MatchBody(expected, body("plain")).Matched())
	assert.False(t, MatchBody(expected, body("other")).Matched())
}

func TestMatchBody_DerivedActualBody(t *testing.T) {
	expected := `{"account":{"id":"42","balance":{"amount":100,"currency":"GBP"}},"flags":[{"on":true}]}`

	actual, err := sjson.Set(expected, "account.balance.currency", "EUR")
	require.NoError(t, err)
	actual, err = sjson.Set(actual, "flags.0.on", false)
	require.NoError(t, err)

	result := MatchBody(pact.Response{Body: body(expected)}, body(actual))
	assert.Equal(t, []string{
		"expected response 'body' property [$.account.balance.currency] to be equal to [GBP] but was [EUR]",
		"expected response 'body' property [$.flags[0].on] to be equal to [true] but was [false]",
	}, result.Reasons)
}
