package pact

import "strings"

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

var methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete,
	MethodOptions, MethodHead, MethodTrace, MethodPatch,
}

// ParseMethod is case-insensitive and ignores surrounding whitespace.
func ParseMethod(s string) (Method, bool) {
	candidate := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range methods {
		if m == candidate {
			return m, true
		}
	}
	return "", false
}

func (m Method) String() string {
	return string(m)
}
