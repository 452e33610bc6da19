package httpflow

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// requestLineResult reports whether a just-processed request line also
// carried a same-line "### next-name" separator.
type requestLineResult int

const (
	requestLineContinues requestLineResult = iota
	requestLineFinalizedBySeparator
)

// requestParserState holds the state accumulated while scanning one .http file.
type requestParserState struct {
	nextRequestName string
	filePath        string
	importStack     []string

	parsedFile           *ParsedFile
	currentRequest       *HttpRequest
	bodyLines            []string
	parsingBody          bool
	lineNumber           int
	currentFileVariables map[string]string

	justSawEmptyLineSeparator bool
}

func processFileLines(reader *bufio.Reader, state *requestParserState) error {
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("error reading request file: %w", err)
		}
		if line != "" {
			state.lineNumber++
			if procErr := processFileLine(state, line); procErr != nil {
				return procErr
			}
		}
		if err == io.EOF {
			break
		}
	}
	return nil
}

func finalizeParseResults(state *requestParserState) {
	if state.currentRequest != nil {
		state.finalizeCurrentRequest()
	}
	for k, v := range state.currentFileVariables {
		state.parsedFile.FileVariables[k] = v
	}
}

func processFileLine(state *requestParserState, line string) error {
	line = strings.TrimRight(line, "\r\n")
	trimmedLine := strings.TrimSpace(line)
	if trimmedLine == "" {
		state.handleEmptyLine()
		return nil
	}
	return state.processLine(determineLineType(trimmedLine), trimmedLine, line)
}

func (p *requestParserState) isRequestLine(trimmedLine string) bool {
	parts := strings.Fields(trimmedLine)
	if len(parts) == 0 {
		return false
	}
	if len(parts) == 1 {
		return strings.HasPrefix(parts[0], "http://") || strings.HasPrefix(parts[0], "https://")
	}
	return isValidHTTPToken(parts[0])
}

func (p *requestParserState) processLine(lt lineType, trimmedLine, originalLine string) error {
	switch lt {
	case lineTypeSeparator:
		return p.handleRequestSeparatorLine(trimmedLine)
	case lineTypeVariableDefinition:
		return p.handleVariableDefinition(trimmedLine)
	case lineTypeComment:
		return p.handleComment(trimmedLine)
	default:
		return p.handleContent(trimmedLine, originalLine)
	}
}

func (p *requestParserState) handleContent(trimmedLine, originalLine string) error {
	if p.parsingBody {
		p.handleBodyContent(originalLine)
		return nil
	}
	if p.isRequestLine(trimmedLine) {
		return p.handleRequestLine(trimmedLine)
	}
	if strings.Contains(trimmedLine, ":") {
		return p.handlePotentialHeaderLine(trimmedLine)
	}
	return p.handleOrphanedContent(originalLine)
}

func (p *requestParserState) handlePotentialHeaderLine(trimmedLine string) error {
	if p.currentRequest == nil || p.currentRequest.Method == "" {
		slog.Warn("parser: header-like line without an active request", "line", trimmedLine, "lineNumber", p.lineNumber)
		return nil
	}
	return p.handleHeader(trimmedLine)
}

func (p *requestParserState) handleOrphanedContent(originalLine string) error {
	if p.currentRequest == nil || p.currentRequest.Method == "" {
		slog.Warn("parser: orphaned line without an active request", "line", originalLine, "lineNumber", p.lineNumber)
		return nil
	}
	p.parsingBody = true
	p.handleBodyContent(originalLine)
	return nil
}

func (p *requestParserState) ensureCurrentRequest() {
	if p.currentRequest == nil {
		p.currentRequest = &HttpRequest{
			FilePath:   p.filePath,
			LineNumber: p.lineNumber,
		}
	}
}

func (p *requestParserState) handleComment(trimmedLine string) error {
	content := p.extractCommentContent(trimmedLine)
	if strings.HasPrefix(content, requestSeparator) {
		return nil
	}
	if strings.Contains(content, "@import") {
		return p.handleImportDirective(trimmedLine)
	}
	p.ensureCurrentRequest()
	return p.processCommentDirectives(content)
}

func (*requestParserState) extractCommentContent(trimmedLine string) string {
	var content string
	switch {
	case strings.HasPrefix(trimmedLine, commentPrefix):
		content = strings.TrimPrefix(trimmedLine, commentPrefix)
	case strings.HasPrefix(trimmedLine, slashCommentPrefix):
		content = strings.TrimPrefix(trimmedLine, slashCommentPrefix)
	}
	return strings.TrimSpace(content)
}

func (p *requestParserState) handleImportDirective(trimmedLine string) error {
	// @import is only meaningful before any request line has started in this block.
	if p.currentRequest != nil && p.currentRequest.Method != "" {
		return fmt.Errorf("line %d: @import must appear before a request line", p.lineNumber)
	}
	importPath, err := extractImportString(trimmedLine)
	if err != nil {
		return err
	}
	imported, err := resolveImport(importPath, p.filePath, p.importStack)
	if err != nil {
		return err
	}
	p.parsedFile.Requests = append(p.parsedFile.Requests, imported...)
	return nil
}

func (p *requestParserState) processCommentDirectives(content string) error {
	if name, ok := parseNameFromAtNameDirective(content); ok {
		if name != "" {
			p.currentRequest.Name = name
		}
		return nil
	}
	if dep, ok := parseDependsOnDirective(content); ok {
		p.currentRequest.DependsOn = dep
		return nil
	}
	if strings.HasPrefix(content, "@timeout ") {
		return p.applyTimeout(content, false)
	}
	if strings.HasPrefix(content, "@connection-timeout ") {
		return p.applyTimeout(content, true)
	}
	if strings.HasPrefix(content, "@if-not ") {
		return p.applyCondition(strings.TrimPrefix(content, "@if-not "), true)
	}
	if strings.HasPrefix(content, "@if ") {
		return p.applyCondition(strings.TrimPrefix(content, "@if "), false)
	}
	if strings.HasPrefix(content, "@assert ") {
		assertion, err := parseAssertDirective(strings.TrimPrefix(content, "@assert "))
		if err != nil {
			slog.Warn("parser: malformed @assert directive", "error", err, "lineNumber", p.lineNumber)
			return nil
		}
		p.currentRequest.Assertions = append(p.currentRequest.Assertions, assertion)
		return nil
	}
	// Unknown directive or plain comment: ignored.
	return nil
}

func (p *requestParserState) applyTimeout(content string, connection bool) error {
	prefix := "@timeout "
	if connection {
		prefix = "@connection-timeout "
	}
	ms, err := parseTimeoutValue(strings.TrimPrefix(content, prefix))
	if err != nil {
		slog.Warn("parser: invalid timeout directive", "error", err, "lineNumber", p.lineNumber)
		return nil
	}
	if connection {
		p.currentRequest.ConnectionTimeoutMS = ms
	} else {
		p.currentRequest.TimeoutMS = ms
	}
	return nil
}

func (p *requestParserState) applyCondition(expr string, negate bool) error {
	cond, err := parseConditionExpr(expr, negate)
	if err != nil {
		slog.Warn("parser: malformed condition directive", "error", err, "lineNumber", p.lineNumber)
		return nil
	}
	p.currentRequest.Conditions = append(p.currentRequest.Conditions, cond)
	return nil
}

func (p *requestParserState) handleEmptyLine() {
	if p.currentRequest != nil && p.currentRequest.Method != "" && !p.parsingBody {
		p.parsingBody = true
		p.justSawEmptyLineSeparator = true
		return
	}
	if p.parsingBody && len(p.bodyLines) > 0 {
		p.bodyLines = append(p.bodyLines, "")
	}
}

func (p *requestParserState) handleRequestSeparatorLine(trimmedLine string) error {
	p.finalizeCurrentRequest()
	label := strings.TrimSpace(strings.TrimPrefix(trimmedLine, requestSeparator))
	if label != "" {
		p.nextRequestName = label
	}
	return nil
}

func (p *requestParserState) handleRequestLine(trimmedLine string) error {
	if p.justSawEmptyLineSeparator && p.currentRequest != nil &&
		p.currentRequest.Method != "" && isPotentialRequestLine(trimmedLine) {
		p.finalizeCurrentRequest()
	}
	p.justSawEmptyLineSeparator = false
	p.ensureCurrentRequest()

	parts := strings.Fields(trimmedLine)
	if len(parts) == 0 {
		return nil
	}
	if !isPotentialRequestLine(trimmedLine) {
		// Stray non-method line before a request line: treat as ignorable.
		return nil
	}
	p.currentRequest.Method = strings.ToUpper(parts[0])
	if len(parts) < 2 {
		slog.Warn("parser: method with no URL", "method", p.currentRequest.Method, "lineNumber", p.lineNumber)
		return nil
	}
	urlAndVersion := strings.TrimSpace(strings.Join(parts[1:], " "))
	rawURL, httpVersion := extractURLAndVersion(urlAndVersion)
	p.currentRequest.RawURL = rawURL
	p.currentRequest.HTTPVersion = httpVersion

	if p.nextRequestName != "" && p.currentRequest.Name == "" {
		p.currentRequest.Name = p.nextRequestName
		p.nextRequestName = ""
	}
	return nil
}

func (p *requestParserState) handleHeader(trimmedLine string) error {
	parts := strings.SplitN(trimmedLine, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("line %d: malformed header line: %s", p.lineNumber, trimmedLine)
	}
	p.currentRequest.Headers = append(p.currentRequest.Headers, Header{
		Name:  strings.TrimSpace(parts[0]),
		Value: strings.TrimSpace(parts[1]),
	})
	return nil
}

func (p *requestParserState) handleBodyContent(line string) {
	p.ensureCurrentRequest()
	p.parsingBody = true

	trimmed := strings.TrimSpace(line)
	if len(p.bodyLines) == 0 && strings.HasPrefix(trimmed, "<") &&
		(strings.HasPrefix(trimmed, "< ") || strings.HasPrefix(trimmed, "<@")) {
		p.handleExternalFileReference(trimmed)
		return
	}
	p.bodyLines = append(p.bodyLines, line)
}

// handleExternalFileReference supports:
//   - "< ./path/to/file"             static file content
//   - "<@ ./path/to/file"            file content with variable substitution
//   - "<@encoding ./path/to/file"    file content with substitution and a specific encoding
func (p *requestParserState) handleExternalFileReference(line string) {
	content := strings.TrimSpace(line[1:])
	if strings.HasPrefix(content, "@") {
		rest := content[1:]
		p.currentRequest.ExternalFileWithVariables = true
		parts := strings.Fields(rest)
		if len(parts) >= 2 && isValidEncoding(parts[0]) {
			p.currentRequest.ExternalFileEncoding = parts[0]
			p.currentRequest.ExternalFilePath = strings.Join(parts[1:], " ")
		} else {
			p.currentRequest.ExternalFilePath = strings.TrimSpace(rest)
		}
	} else {
		p.currentRequest.ExternalFilePath = strings.TrimSpace(content)
	}
}

func (p *requestParserState) handleVariableDefinition(trimmedLine string) error {
	parts := strings.SplitN(trimmedLine, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("line %d: malformed in-place variable definition: %s", p.lineNumber, trimmedLine)
	}
	nameWithAt := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if !strings.HasPrefix(nameWithAt, "@") || strings.TrimSpace(nameWithAt[1:]) == "" {
		return fmt.Errorf("line %d: malformed in-place variable name: %s", p.lineNumber, trimmedLine)
	}
	p.currentFileVariables[nameWithAt] = value
	return nil
}

func (p *requestParserState) finalizeCurrentRequest() {
	if p.currentRequest == nil {
		return
	}
	if p.currentRequest.Method != "" && p.currentRequest.RawURL != "" {
		if p.currentRequest.ExternalFilePath == "" {
			lines := p.bodyLines
			for len(lines) > 0 && lines[len(lines)-1] == "" {
				lines = lines[:len(lines)-1]
			}
			p.currentRequest.RawBody = strings.Join(lines, "\n")
		}
		p.currentRequest.ActiveVariables = make(map[string]string, len(p.currentFileVariables))
		for k, v := range p.currentFileVariables {
			p.currentRequest.ActiveVariables[k] = v
		}
		if _, err := url.Parse(p.currentRequest.RawURL); err != nil {
			slog.Warn("parser: request URL does not parse before substitution (may contain variables)",
				"url", p.currentRequest.RawURL, "lineNumber", p.currentRequest.LineNumber)
		}
		p.parsedFile.Requests = append(p.parsedFile.Requests, p.currentRequest)
	}
	p.currentRequest = nil
	p.bodyLines = []string{}
	p.parsingBody = false
	p.justSawEmptyLineSeparator = false
}
