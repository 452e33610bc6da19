package httpflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport returns a canned HttpResult per request name, in the
// order requests are issued, so the orchestrator can be tested without a
// live server.
type scriptedTransport struct {
	responses map[string]*HttpResult
	calls     []string
}

func (s *scriptedTransport) Do(_ context.Context, req *HttpRequest) (*HttpResult, error) {
	s.calls = append(s.calls, req.Name)
	if resp, ok := s.responses[req.Name]; ok {
		return resp, nil
	}
	return &HttpResult{StatusCode: 404}, nil
}

// TestRunner_RunFile_SkipsOnFailedDependency verifies a request whose
// depends_on target did not return exactly 200 is skipped, not executed.
func TestRunner_RunFile_SkipsOnFailedDependency(t *testing.T) {
	content := `### login
# @name login
GET https://api.example.com/login

### fetch
# @name fetch
# @dependsOn login
GET https://api.example.com/fetch
`
	path := writeTempHTTPFile(t, content)

	transport := &scriptedTransport{
		responses: map[string]*HttpResult{
			"login": {StatusCode: 401},
		},
	}
	runner, err := NewRunner(WithTransport(transport))
	require.NoError(t, err)

	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"login"}, transport.calls, "fetch must never reach the transport")
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 1, result.SkippedCount)

	fetchCtx := result.RequestContexts[1]
	assert.True(t, fetchCtx.Skipped())
}

// TestRunner_RunFile_PassesRequestVariableForward verifies a later request's
// URL can reference an earlier request's response body.
func TestRunner_RunFile_PassesRequestVariableForward(t *testing.T) {
	content := `### login
# @name login
GET https://api.example.com/login

### fetch
# @name fetch
# @dependsOn login
# @assert status 200
GET https://api.example.com/items/{{login.response.body.$id}}
`
	path := writeTempHTTPFile(t, content)

	transport := &scriptedTransport{
		responses: map[string]*HttpResult{
			"login": {StatusCode: 200, ResponseBody: `{"id": "u-42"}`},
			"fetch": {StatusCode: 200},
		},
	}
	runner, err := NewRunner(WithTransport(transport))
	require.NoError(t, err)

	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)

	fetchReq := result.RequestContexts[1].Request
	assert.Equal(t, "https://api.example.com/items/u-42", fetchReq.RawURL)
}

// TestRunner_RunFile_AssertionFailureMarksRequestFailed verifies a 2xx
// status with a failing assertion is still reported as failed.
func TestRunner_RunFile_AssertionFailureMarksRequestFailed(t *testing.T) {
	content := `### check
# @name check
# @assert body "expected-text"
GET https://api.example.com/check
`
	path := writeTempHTTPFile(t, content)

	transport := &scriptedTransport{
		responses: map[string]*HttpResult{
			"check": {StatusCode: 200, ResponseBody: "something else"},
		},
	}
	runner, err := NewRunner(WithTransport(transport))
	require.NoError(t, err)

	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.False(t, result.RequestContexts[0].Succeeded())
}

// TestRunner_RunFile_DelayAppliedBetweenRequestsNotBeforeFirst verifies
// WithDelay sleeps before every request after the first within a file, and
// not before the first one.
func TestRunner_RunFile_DelayAppliedBetweenRequestsNotBeforeFirst(t *testing.T) {
	content := `### one
# @name one
GET https://api.example.com/one

### two
# @name two
GET https://api.example.com/two

### three
# @name three
GET https://api.example.com/three
`
	path := writeTempHTTPFile(t, content)

	transport := &scriptedTransport{responses: map[string]*HttpResult{}}
	delay := 20 * time.Millisecond
	runner, err := NewRunner(WithTransport(transport), WithDelay(delay))
	require.NoError(t, err)

	start := time.Now()
	result, err := runner.RunFile(context.Background(), path)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount+result.FailedCount)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}

// TestRunner_RunFiles_ExpandsDirectoryEntries verifies a directory passed
// in the files list is expanded to the .http files discovered under it,
// rather than being handed to ParseRequestFile as a literal path.
func TestRunner_RunFiles_ExpandsDirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	content := `### only
# @name only
GET https://api.example.com/only
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requests.http"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	transport := &scriptedTransport{
		responses: map[string]*HttpResult{"only": {StatusCode: 200}},
	}
	runner, err := NewRunner(WithTransport(transport))
	require.NoError(t, err)

	results, err := runner.RunFiles(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results.Files, 1)
	assert.Equal(t, 1, results.Files[0].SuccessCount)
}
