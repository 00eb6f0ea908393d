package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
)

func TestDefaultValidatorExactMatchNoSubTokens(t *testing.T) {
	v := DefaultValidator{}
	ok, err := v.Validate([]byte("hello"), []byte("hello"), nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate([]byte("hello"), []byte("world"), nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultValidatorSubTokenWithoutBoundValueMatchesCapturedBytes(t *testing.T) {
	v := DefaultValidator{}
	expected := []byte("id=1234 ok")
	subTokens := []conversation.SubToken{{Text: "id", Begin: 3, End: 7}}

	ok, err := v.Validate(expected, []byte("id=1234 ok"), subTokens, Context{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate(expected, []byte("id=9999 ok"), subTokens, Context{})
	require.NoError(t, err)
	assert.False(t, ok, "without a bound value, the captured bytes must match verbatim")
}

func TestDefaultValidatorSubTokenWithBoundValueOfDifferentLength(t *testing.T) {
	v := DefaultValidator{}
	expected := []byte("id=1234 ok")
	subTokens := []conversation.SubToken{{Text: "id", Begin: 3, End: 7}}

	ctx := Context{"id": "abcdefgh"}
	ok, err := v.Validate(expected, []byte("id=abcdefgh ok"), subTokens, ctx)
	require.NoError(t, err)
	assert.True(t, ok, "a bound value may differ in length from the captured token")
}

func TestParseSpecDefault(t *testing.T) {
	spec, err := ParseSpec("")
	require.NoError(t, err)
	assert.False(t, spec.External)

	spec, err = ParseSpec("default")
	require.NoError(t, err)
	assert.False(t, spec.External)
}

func TestParseSpecExternal(t *testing.T) {
	spec, err := ParseSpec("external:/usr/bin/validate:--strict")
	require.NoError(t, err)
	assert.True(t, spec.External)
	assert.Equal(t, "/usr/bin/validate", spec.Command)
	assert.Equal(t, []string{"--strict"}, spec.Args)
}

func TestParseSpecInvalid(t *testing.T) {
	_, err := ParseSpec("bogus")
	assert.Error(t, err)
}

func TestNewSelectsValidatorKind(t *testing.T) {
	assert.IsType(t, DefaultValidator{}, New(Spec{}))
	assert.IsType(t, &ExternalValidator{}, New(Spec{External: true, Command: "echo"}))
}
