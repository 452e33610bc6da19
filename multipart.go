package httpflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// multipartPart is one parsed multipart/form-data section of a request body.
type multipartPart struct {
	Name            string
	Filename        string
	ContentType     string
	Content         string
	IsFileReference bool
}

// expandMultipartFileRefs parses a multipart/form-data body whose parts may
// use the "< path" external-file syntax, reads each referenced file relative
// to req.FilePath's directory, and rebuilds the body with that content
// inlined under the original boundary.
func expandMultipartFileRefs(req *HttpRequest, body string) (string, error) {
	contentType := lookupHeaderValue(req.Headers, "Content-Type")
	boundary := extractBoundaryFromContentType(contentType)
	if boundary == "" {
		return "", fmt.Errorf("no boundary found in Content-Type header: %s", contentType)
	}

	parts, err := parseMultipartBody(body, boundary)
	if err != nil {
		return "", fmt.Errorf("parsing multipart body: %w", err)
	}

	return buildMultipartForm(boundary, parts, req.FilePath)
}

func buildMultipartForm(boundary string, parts []multipartPart, requestFilePath string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.SetBoundary(boundary); err != nil {
		return "", fmt.Errorf("setting multipart boundary: %w", err)
	}

	for _, part := range parts {
		if err := writePart(writer, part, requestFilePath); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.String(), nil
}

func writePart(writer *multipart.Writer, part multipartPart, requestFilePath string) error {
	if part.IsFileReference {
		return writeFilePart(writer, part, requestFilePath)
	}
	return writeFieldPart(writer, part)
}

func extractBoundaryFromContentType(contentType string) string {
	re := regexp.MustCompile(`boundary=([^;]+)`)
	matches := re.FindStringSubmatch(contentType)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func parseMultipartBody(body, boundary string) ([]multipartPart, error) {
	var parts []multipartPart
	for _, section := range strings.Split(body, "--"+boundary) {
		section = strings.TrimSpace(section)
		if section == "" || section == "--" {
			continue
		}
		part, err := parseMultipartSection(section)
		if err != nil {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, errors.New("no valid multipart sections found in body")
	}
	return parts, nil
}

func parseMultipartSection(section string) (multipartPart, error) {
	var part multipartPart
	headerLines, contentLines := splitSectionIntoHeadersAndContent(section)
	parseMultipartHeaders(&part, headerLines)
	parseMultipartContent(&part, contentLines)

	if part.Name == "" {
		return part, errors.New("no name found in multipart section")
	}
	return part, nil
}

func splitSectionIntoHeadersAndContent(section string) (headerLines, contentLines []string) {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return lines[:i], lines[i+1:]
		}
	}
	for i, line := range lines {
		if !isMultipartHeaderLine(line) {
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

func isMultipartHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "Content-Disposition:") ||
		strings.HasPrefix(trimmed, "Content-Type:") ||
		strings.HasPrefix(trimmed, "Content-Length:") ||
		strings.HasPrefix(trimmed, "Content-Encoding:")
}

func parseMultipartHeaders(part *multipartPart, headerLines []string) {
	for _, line := range headerLines {
		switch {
		case strings.Contains(line, "Content-Disposition:"):
			part.Name = extractQuoted(line, "name")
			part.Filename = extractQuoted(line, "filename")
		case strings.Contains(line, "Content-Type:"):
			if _, v, ok := strings.Cut(line, ":"); ok {
				part.ContentType = strings.TrimSpace(v)
			}
		}
	}
}

func parseMultipartContent(part *multipartPart, contentLines []string) {
	content := strings.TrimSpace(strings.Join(contentLines, "\n"))
	if strings.HasPrefix(content, "< ") {
		part.IsFileReference = true
		part.Content = strings.TrimSpace(content[2:])
		return
	}
	part.Content = content
}

func extractQuoted(header, key string) string {
	re := regexp.MustCompile(key + `="([^"]+)"`)
	matches := re.FindStringSubmatch(header)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

func writeFilePart(writer *multipart.Writer, part multipartPart, requestFilePath string) error {
	path := part.Content
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(requestFilePath), path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading multipart file %s: %w", path, err)
	}

	var formWriter io.Writer
	filename := part.Filename
	if filename == "" {
		filename = filepath.Base(part.Content)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, part.Name, filename))
	if part.ContentType != "" {
		header.Set("Content-Type", part.ContentType)
	}
	formWriter, err = writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating multipart file part: %w", err)
	}
	if _, err := formWriter.Write(content); err != nil {
		return fmt.Errorf("writing multipart file content: %w", err)
	}
	return nil
}

func writeFieldPart(writer *multipart.Writer, part multipartPart) error {
	formWriter, err := writer.CreateFormField(part.Name)
	if err != nil {
		return fmt.Errorf("creating multipart form field: %w", err)
	}
	if _, err := formWriter.Write([]byte(part.Content)); err != nil {
		return fmt.Errorf("writing multipart field content: %w", err)
	}
	return nil
}
