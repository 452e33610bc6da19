package httpflow

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExportFiles_WritesRequestAndResponseFiles verifies one request file
// and one response file are written per request context, and that their
// contents round-trip the method/URL/headers/status/body that were exported.
func TestExportFiles_WritesRequestAndResponseFiles(t *testing.T) {
	dir := t.TempDir()
	results := &ProcessorResults{
		Files: []HttpFileResults{
			{
				Filename: "requests.http",
				RequestContexts: []RequestContext{
					{
						Name: "fetch",
						Request: &HttpRequest{
							Method:  "GET",
							RawURL:  "https://api.example.com/items",
							Headers: []Header{{Name: "Authorization", Value: "Bearer abc"}},
						},
						Result: &HttpResult{
							StatusCode:      200,
							ResponseHeaders: map[string]string{"Content-Type": "application/json"},
							ResponseBody:    `{"id":1}`,
						},
					},
				},
			},
		},
	}

	out, err := ExportFiles(dir, results, false)
	require.NoError(t, err)
	assert.Empty(t, out.FailedFileNames)
	require.Len(t, out.FileNames, 2)

	reqPath, respPath := findExportedFiles(t, out.FileNames)

	reqContent, err := os.ReadFile(reqPath)
	require.NoError(t, err)
	assert.Contains(t, string(reqContent), "GET https://api.example.com/items")
	assert.Contains(t, string(reqContent), "Authorization: Bearer abc")

	respContent, err := os.ReadFile(respPath)
	require.NoError(t, err)
	assert.Contains(t, string(respContent), "HTTP/1.1 200")
	assert.Contains(t, string(respContent), `{"id":1}`)
}

// TestExportFiles_PrettyJSONReformatsBody verifies prettyJSON indents a
// JSON response body in the exported file.
func TestExportFiles_PrettyJSONReformatsBody(t *testing.T) {
	dir := t.TempDir()
	results := &ProcessorResults{
		Files: []HttpFileResults{
			{
				Filename: "requests.http",
				RequestContexts: []RequestContext{
					{
						Name:    "fetch",
						Request: &HttpRequest{Method: "GET", RawURL: "https://api.example.com/items"},
						Result:  &HttpResult{StatusCode: 200, ResponseBody: `{"id":1,"name":"Ada"}`},
					},
				},
			},
		},
	}

	out, err := ExportFiles(dir, results, true)
	require.NoError(t, err)
	require.Empty(t, out.FailedFileNames)

	_, respPath := findExportedFiles(t, out.FileNames)

	content, err := os.ReadFile(respPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "{\n  \"id\": 1,\n  \"name\": \"Ada\"\n}")
}

func findExportedFiles(t *testing.T, names []string) (reqPath, respPath string) {
	t.Helper()
	for _, name := range names {
		switch {
		case strings.Contains(name, "_request_"):
			reqPath = name
		case strings.Contains(name, "_response_"):
			respPath = name
		}
	}
	require.NotEmpty(t, reqPath)
	require.NotEmpty(t, respPath)
	return reqPath, respPath
}
