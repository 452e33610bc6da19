package httpflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportResults is the outcome of an ExportFiles call: every file written,
// and every request/response pair that failed to export with its reason.
type ExportResults struct {
	FileNames       []string
	FailedFileNames []string
}

// ExportFiles writes one request file and one response file per processed
// request context into dir, named "<request>_request_<timestamp>.log" and
// "<request>_response_<timestamp>.log". Grounded on the original
// implementation's export/exporter.rs.
func ExportFiles(dir string, results *ProcessorResults, prettyJSON bool) (*ExportResults, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory %s: %w", dir, err)
	}

	out := &ExportResults{}
	timestamp := time.Now().Unix()

	for _, file := range results.Files {
		for _, rc := range file.RequestContexts {
			exportOne(dir, rc, timestamp, prettyJSON, out)
		}
	}
	return out, nil
}

func exportOne(dir string, rc RequestContext, timestamp int64, prettyJSON bool, out *ExportResults) {
	reqName := exportFilename(dir, rc.Name, "request", timestamp)
	if err := writeRequestExport(reqName, rc, prettyJSON); err != nil {
		out.FailedFileNames = append(out.FailedFileNames, fmt.Sprintf("%s: %v", rc.Name, err))
	} else if rc.Request != nil {
		out.FileNames = append(out.FileNames, reqName)
	}

	respName := exportFilename(dir, rc.Name, "response", timestamp)
	if err := writeResponseExport(respName, rc, prettyJSON); err != nil {
		out.FailedFileNames = append(out.FailedFileNames, fmt.Sprintf("%s: %v", rc.Name, err))
	} else if rc.Result != nil {
		out.FileNames = append(out.FileNames, respName)
	}
}

func exportFilename(dir, name, kind string, timestamp int64) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%d.log", name, kind, timestamp))
}

func writeRequestExport(path string, rc RequestContext, prettyJSON bool) error {
	if rc.Request == nil {
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\r\n", rc.Request.Method, rc.Request.RawURL)
	for _, h := range rc.Request.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	buf.WriteString("\r\n")
	if rc.Request.RawBody != "" {
		fmt.Fprintf(&buf, "%s\r\n", formatJSONIfValid(rc.Request.RawBody, prettyJSON))
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeResponseExport(path string, rc RequestContext, prettyJSON bool) error {
	if rc.Result == nil {
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d\r\n", rc.Result.StatusCode)
	for name, value := range rc.Result.ResponseHeaders {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}
	buf.WriteString("\r\n")
	if rc.Result.ResponseBody != "" {
		fmt.Fprintf(&buf, "%s\r\n", formatJSONIfValid(rc.Result.ResponseBody, prettyJSON))
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// formatJSONIfValid pretty-prints body when it parses as JSON and
// prettyJSON is requested; otherwise it returns body unchanged.
func formatJSONIfValid(body string, prettyJSON bool) string {
	if !prettyJSON {
		return body
	}
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return body
	}
	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return body
	}
	return string(pretty)
}
