package httpflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempHTTPFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "requests.http")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestParseRequestFile_BasicDirectives verifies directive parsing, header
// collection, and body capture for a single request.
func TestParseRequestFile_BasicDirectives(t *testing.T) {
	// Given
	content := `### create-user
# @name create-user
# @timeout 500ms
# @assert status 201
POST https://api.example.com/users
Content-Type: application/json

{"name": "Ada"}
`
	path := writeTempHTTPFile(t, content)

	// When
	parsed, err := ParseRequestFile(path, "")

	// Then
	require.NoError(t, err)
	require.Len(t, parsed.Requests, 1)

	req := parsed.Requests[0]
	assert.Equal(t, "create-user", req.Name)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://api.example.com/users", req.RawURL)
	assert.Equal(t, 500, req.TimeoutMS)
	require.Len(t, req.Assertions, 1)
	assert.Equal(t, AssertionStatus, req.Assertions[0].Kind)
	assert.Equal(t, "201", req.Assertions[0].Expected)
	assert.JSONEq(t, `{"name": "Ada"}`, req.RawBody)
}

// TestParseRequestFile_DependsOnAndConditions verifies @dependsOn and @if
// parsing across a two-request sequence.
func TestParseRequestFile_DependsOnAndConditions(t *testing.T) {
	content := `### first
# @name first
GET https://api.example.com/ping

### second
# @name second
# @dependsOn first
# @if first.response.status 200
GET https://api.example.com/pong
`
	path := writeTempHTTPFile(t, content)

	parsed, err := ParseRequestFile(path, "")
	require.NoError(t, err)
	require.Len(t, parsed.Requests, 2)

	second := parsed.Requests[1]
	assert.Equal(t, "first", second.DependsOn)
	require.Len(t, second.Conditions, 1)
	assert.Equal(t, ConditionStatus, second.Conditions[0].Kind)
	assert.Equal(t, "first", second.Conditions[0].TargetRequest)
	assert.Equal(t, "200", second.Conditions[0].Expected)
}

// TestParseRequestFile_DuplicateNamesRejected verifies duplicate @name
// directives fail parsing rather than silently shadowing.
func TestParseRequestFile_DuplicateNamesRejected(t *testing.T) {
	content := `### a
# @name dup
GET https://api.example.com/a

### b
# @name dup
GET https://api.example.com/b
`
	path := writeTempHTTPFile(t, content)

	_, err := ParseRequestFile(path, "")
	assert.Error(t, err)
}

// TestParseRequestFile_AutoNamesUnnamedRequests verifies unnamed requests
// still get a stable display name.
func TestParseRequestFile_AutoNamesUnnamedRequests(t *testing.T) {
	content := `###
GET https://api.example.com/a
`
	path := writeTempHTTPFile(t, content)

	parsed, err := ParseRequestFile(path, "")
	require.NoError(t, err)
	require.Len(t, parsed.Requests, 1)
	assert.Equal(t, "request_1", parsed.Requests[0].Name)
}
