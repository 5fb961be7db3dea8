package pact

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MalformedFileError is returned when the document is not a JSON object.
type MalformedFileError struct {
	Err error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("the pact file is malformed: %v", e.Err)
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// MalformedPactError is returned when the document is valid JSON but does not
// have the shape of a pact. Reason names the offending property.
type MalformedPactError struct {
	Reason string
}

func (e *MalformedPactError) Error() string {
	return "the pact is malformed: " + e.Reason
}

// ErrUnidentifiablePact is returned for documents carrying neither interactions nor messages.
var ErrUnidentifiablePact = &MalformedPactError{
	Reason: "the pact kind could not be determined, it contained neither 'interactions' nor 'messages'",
}

type UnsupportedSpecificationError struct {
	Specification Specification
	Supported     *semver.Constraints
}

func (e *UnsupportedSpecificationError) Error() string {
	if e.Supported == nil {
		return fmt.Sprintf("the pact's version %s is not supported", e.Specification)
	}
	return fmt.Sprintf("the pact's version %s is not supported, supported versions are %s", e.Specification, e.Supported)
}
