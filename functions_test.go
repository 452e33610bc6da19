package httpflow

import (
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestApplyFunctions_Guid verifies guid() produces 32 lowercase hex digits
// with the version-4 nibble at position 13 (1-indexed, i.e. index 12).
func TestApplyFunctions_Guid(t *testing.T) {
	out := applyFunctions("id={{guid()}}")
	re := regexp.MustCompile(`id=\{\{([0-9a-f]{32})\}\}`)
	matches := re.FindStringSubmatch(out)
	require := assert.New(t)
	require.Len(matches, 2)
	require.Equal(byte('4'), matches[1][12])
}

// TestApplyFunctions_StringAndNumber verify the no-arg randomizers.
func TestApplyFunctions_StringAndNumber(t *testing.T) {
	out := applyFunctions("{{string()}}")
	assert.Regexp(t, `^\{\{[a-zA-Z0-9]{20}\}\}$`, out)

	out2 := applyFunctions("{{number()}}")
	assert.Regexp(t, `^\{\{\d{1,3}\}\}$`, out2)
}

// TestApplyFunctions_Base64EncodeLiteral verifies the literal-argument
// functions and their escaped-quote handling.
func TestApplyFunctions_Base64EncodeLiteral(t *testing.T) {
	out := applyFunctions(`{{base64_encode('hello world')}}`)
	want := base64.StdEncoding.EncodeToString([]byte("hello world"))
	assert.Equal(t, "{{"+want+"}}", out)

	upper := applyFunctions(`{{upper('mixedCase')}}`)
	assert.Equal(t, "{{MIXEDCASE}}", upper)
}

// TestApplyFunctions_LoremIpsum verifies the word count matches the argument.
func TestApplyFunctions_LoremIpsum(t *testing.T) {
	out := applyFunctions("{{lorem_ipsum(3)}}")
	re := regexp.MustCompile(`\{\{(.*)\}\}`)
	matches := re.FindStringSubmatch(out)
	assert.Len(t, matches, 2)
	words := regexp.MustCompile(`\s+`).Split(matches[1], -1)
	assert.Len(t, words, 3)
}
