package pact

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Specification is a version of the pact file format.
type Specification int

const (
	Unknown Specification = iota
	V1_0
	V1_1
	V2_0
	V3_0
	V4_0
)

var specifications = []struct {
	spec      Specification
	short     string
	canonical string
}{
	{V1_0, "1.0", "1.0.0"},
	{V1_1, "1.1", "1.1.0"},
	{V2_0, "2.0", "2.0.0"},
	{V3_0, "3.0", "3.0.0"},
	{V4_0, "4.0", "4.0.0"},
}

// ParseSpecification matches s against the short form of every known version,
// so both "3.0" and "3.0.0" resolve to V3_0. Anything else yields Unknown.
func ParseSpecification(s string) Specification {
	for _, v := range specifications {
		if strings.HasPrefix(s, v.short) {
			return v.spec
		}
	}
	return Unknown
}

func (s Specification) String() string {
	for _, v := range specifications {
		if v.spec == s {
			return v.canonical
		}
	}
	return "unknown"
}

// Version returns the canonical version as semver, nil for Unknown.
func (s Specification) Version() *semver.Version {
	if s == Unknown {
		return nil
	}
	return semver.MustParse(s.String())
}
