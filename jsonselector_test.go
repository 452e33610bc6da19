package httpflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractJSONPath_NestedArrayAndObject verifies dot/bracket path walking.
func TestExtractJSONPath_NestedArrayAndObject(t *testing.T) {
	body := `{"a": {"b": [{"c": "first"}, {"c": "second"}]}}`

	value, found, err := extractJSONPath(body, "a.b[1].c")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", value)
}

// TestExtractJSONPath_MissingKeyIsNotFoundNotError verifies a missing key
// reports found=false rather than propagating a library error.
func TestExtractJSONPath_MissingKeyIsNotFoundNotError(t *testing.T) {
	body := `{"a": 1}`
	_, found, err := extractJSONPath(body, "b")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestExtractJSONPath_InvalidJSONIsNotFound verifies unparsable body text
// reports not-found rather than erroring.
func TestExtractJSONPath_InvalidJSONIsNotFound(t *testing.T) {
	_, found, err := extractJSONPath("not json", "a")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestExtractJSONPath_NumberRendersWithoutTrailingZero verifies integral
// floats render without a decimal point.
func TestExtractJSONPath_NumberRendersWithoutTrailingZero(t *testing.T) {
	value, found, err := extractJSONPath(`{"count": 42}`, "count")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "42", value)
}
