package httpflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSerializeRequest_RoundTrip verifies a serialized request parses back
// with the same method, URL, headers, and body.
func TestSerializeRequest_RoundTrip(t *testing.T) {
	original := &HttpRequest{
		Name:    "create-user",
		Method:  "POST",
		RawURL:  "https://api.example.com/users",
		Headers: []Header{{Name: "Content-Type", Value: "application/json"}},
		RawBody: `{"name": "Ada"}`,
		Assertions: []Assertion{
			{Kind: AssertionStatus, Expected: "201"},
		},
	}

	serialized := SerializeRequest(original)
	path := writeTempHTTPFile(t, serialized)

	parsed, err := ParseRequestFile(path, "")
	assert.NoError(t, err)
	assert.Len(t, parsed.Requests, 1)

	got := parsed.Requests[0]
	assert.Equal(t, original.Name, got.Name)
	assert.Equal(t, original.Method, got.Method)
	assert.Equal(t, original.RawURL, got.RawURL)
	assert.Equal(t, original.RawBody, got.RawBody)
	assert.Equal(t, original.Headers, got.Headers)
	assert.Equal(t, original.Assertions, got.Assertions)
}

// TestSerializeRequest_RoundTrip_NegatedCondition verifies a negated
// condition round-trips through @if-not rather than corrupting
// TargetRequest with a literal "!" prefix.
func TestSerializeRequest_RoundTrip_NegatedCondition(t *testing.T) {
	original := &HttpRequest{
		Name:   "fallback",
		Method: "GET",
		RawURL: "https://api.example.com/fallback",
		Conditions: []Condition{
			{Kind: ConditionStatus, TargetRequest: "probe", Expected: "200", Negate: true},
		},
	}

	serialized := SerializeRequest(original)
	assert.Contains(t, serialized, "# @if-not probe.response.status 200\n")

	path := writeTempHTTPFile(t, serialized)
	parsed, err := ParseRequestFile(path, "")
	assert.NoError(t, err)
	assert.Len(t, parsed.Requests, 1)

	got := parsed.Requests[0]
	assert.Equal(t, original.Conditions, got.Conditions)
}

// TestFormatDuration verifies the millisecond/second formatting boundary.
func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "999ms", FormatDuration(999*time.Millisecond))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
}
