package matching

import (
	"regexp"
	"strings"
)

type ContentType int

const (
	PlainText ContentType = iota
	JSON
	XML
	HTML
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeXML  = "application/xml"
	mediaTypeHTML = "text/html"
	mediaTypeText = "text/plain"

	sampleLength = 64
)

var (
	jsonContentType = regexp.MustCompile(`^application/((.)*?\+)?json(;.*)?$`)
	xmlContentType  = regexp.MustCompile(`^application/xml(;.*)?$`)

	xmlHeaderGuess = regexp.MustCompile(`^\s*<\?xml\s*version.*`)
	htmlGuess      = regexp.MustCompile(`^\s*(<!DOCTYPE|<HTML>|<html>).*`)
	jsonGuess      = regexp.MustCompile(`^\s*(true|false|null|[0-9]+|"\w*|\{\s*(\}|"\w+)|\[\s*).*`)
	xmlGuess       = regexp.MustCompile(`^\s*<\w+\s*(:\w+=["”][^"”]+["”])?.*`)
)

func (c ContentType) String() string {
	switch c {
	case JSON:
		return mediaTypeJSON
	case XML:
		return mediaTypeXML
	case HTML:
		return mediaTypeHTML
	default:
		return mediaTypeText
	}
}

// ParseContentType classifies a Content-Type header value. Anything that is
// neither JSON nor XML is treated as plain text.
func ParseContentType(header string) ContentType {
	header = strings.TrimSpace(header)
	switch {
	case jsonContentType.MatchString(header):
		return JSON
	case xmlContentType.MatchString(header):
		return XML
	default:
		return PlainText
	}
}

// DetectContentType guesses the type of an unlabelled body from its first
// characters. The XML declaration wins over everything, and a body that looks
// like both JSON and a tag is JSON.
func DetectContentType(body string) ContentType {
	sample := []rune(body)
	if len(sample) > sampleLength {
		sample = sample[:sampleLength]
	}
	s := strings.NewReplacer("\n", " ", "\r", " ").Replace(string(sample))

	switch {
	case xmlHeaderGuess.MatchString(s):
		return XML
	case htmlGuess.MatchString(s):
		return HTML
	case jsonGuess.MatchString(s):
		return JSON
	case xmlGuess.MatchString(s):
		return XML
	default:
		return PlainText
	}
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// effectiveContentType prefers the declared header and falls back to sniffing the body.
func effectiveContentType(headers map[string]string, body string) ContentType {
	if header, ok := headerValue(headers, "Content-Type"); ok {
		return ParseContentType(header)
	}
	return DetectContentType(body)
}
