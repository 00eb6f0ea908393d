// Package validator compares a captured packet's expected payload against
// the payload actually observed during replay, the way packet_validator.cc
// lets a capture-equivalence check be either a strict byte comparison or
// delegated to an external callback.
package validator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
)

// Context binds ${name} sub-token names to values. DefaultValidator
// requires a bound value, where one exists, in place of the captured token
// bytes. UDPEngine passes an empty Context and never adds to it, so no
// value is bound during replay.
type Context map[string]string

// Validator compares an expected (captured) payload against the actual
// (replayed) payload, honoring any sub-token regions recorded against the
// expected payload.
type Validator interface {
	Validate(expected, actual []byte, subTokens []conversation.SubToken, ctx Context) (bool, error)
}

// DefaultValidator performs a byte-for-byte comparison outside of
// sub-token regions. Inside a sub-token region, a value already bound in
// the replay context takes precedence over the captured bytes — letting a
// value substituted elsewhere in the run vary in length from what was
// captured — and otherwise the actual bytes must match the captured
// token bytes verbatim.
type DefaultValidator struct{}

// Validate reports whether actual is equivalent to expected given the
// sub-token regions marked on expected. Because a bound context value's
// length can differ from the captured token's length, expected and actual
// are walked with independent cursors rather than a single shared offset.
func (DefaultValidator) Validate(expected, actual []byte, subTokens []conversation.SubToken, ctx Context) (bool, error) {
	if len(subTokens) == 0 {
		return bytes.Equal(expected, actual), nil
	}

	ePos, aPos := 0, 0
	for _, tok := range subTokens {
		if tok.Begin < ePos || tok.End < tok.Begin || tok.End > len(expected) {
			return false, fmt.Errorf("sub-token %q has invalid bounds [%d,%d)", tok.Text, tok.Begin, tok.End)
		}

		litLen := tok.Begin - ePos
		if aPos+litLen > len(actual) {
			return false, nil
		}
		if !bytes.Equal(expected[ePos:tok.Begin], actual[aPos:aPos+litLen]) {
			return false, nil
		}
		aPos += litLen

		want := expected[tok.Begin:tok.End]
		if bound, ok := ctx[tok.Text]; ok {
			want = []byte(bound)
		}
		if aPos+len(want) > len(actual) {
			return false, nil
		}
		if !bytes.Equal(actual[aPos:aPos+len(want)], want) {
			return false, nil
		}
		aPos += len(want)
		ePos = tok.End
	}

	remaining := expected[ePos:]
	if len(actual)-aPos != len(remaining) {
		return false, nil
	}
	return bytes.Equal(remaining, actual[aPos:]), nil
}

// Spec names which validator to construct: the built-in byte comparison,
// or an external validator given as "external:command[:arg...]".
type Spec struct {
	External bool
	Command  string
	Args     []string
}

// ParseSpec parses a validator spec string. An empty or "default" spec
// selects DefaultValidator; "external:cmd:arg1:arg2" selects an
// ExternalValidator invoking cmd with those arguments plus the expected
// and actual payloads.
func ParseSpec(s string) (Spec, error) {
	if s == "" || s == "default" {
		return Spec{}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || parts[0] != "external" {
		return Spec{}, fmt.Errorf("invalid validator spec %q", s)
	}

	return Spec{External: true, Command: parts[1], Args: parts[2:]}, nil
}

// New constructs the Validator described by spec.
func New(spec Spec) Validator {
	if !spec.External {
		return DefaultValidator{}
	}
	return NewExternalValidator(spec.Command, spec.Args)
}
