package httpflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// resolveRequestBody returns the literal body text to send for req: either
// its inline RawBody, or the contents of the external file it references
// (decoded per ExternalFileEncoding), read relative to the .http file's
// directory. External-file content only receives variable substitution
// when the request used the "<@" form (ExternalFileWithVariables).
func resolveRequestBody(req *HttpRequest) (string, error) {
	if req.ExternalFilePath == "" {
		return req.RawBody, nil
	}

	path := req.ExternalFilePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(req.FilePath), path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading external file %s: %w", path, err)
	}

	text, err := decodeExternalFile(raw, req.ExternalFileEncoding)
	if err != nil {
		return "", fmt.Errorf("decoding external file %s: %w", path, err)
	}
	return text, nil
}

// decodeExternalFile transcodes raw bytes to UTF-8 text per the named
// encoding. An empty or already-UTF-8 encoding name is a no-op.
func decodeExternalFile(raw []byte, encoding string) (string, error) {
	enc := strings.ToLower(strings.TrimSpace(encoding))
	var cm *charmap.Charmap
	switch enc {
	case "", "utf-8", "utf8":
		return string(raw), nil
	case "latin1", "iso-8859-1":
		cm = charmap.ISO8859_1
	case "cp1252", "windows-1252":
		cm = charmap.Windows1252
	case "ascii":
		return string(raw), nil
	default:
		return string(raw), nil
	}

	decoded, _, err := transform.Bytes(cm.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// bodyIsMultipartWithFileRefs reports whether req declares a multipart form
// whose body text contains "< path" file-reference lines that must be
// expanded into real file content before the request is sent.
func bodyIsMultipartWithFileRefs(req *HttpRequest, body string) bool {
	ct := lookupHeaderValue(req.Headers, "Content-Type")
	if !strings.Contains(strings.ToLower(ct), "multipart/form-data") {
		return false
	}
	return strings.Contains(body, "< ")
}

func lookupHeaderValue(headers []Header, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
