package httpflow

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// isPotentialRequestLine checks if a line could be a request line.
func isPotentialRequestLine(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	return isValidHTTPToken(strings.ToUpper(parts[0])) && validHTTPMethods[strings.ToUpper(parts[0])]
}

var validHTTPMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
	"HEAD": true, "OPTIONS": true, "TRACE": true, "CONNECT": true,
}

// parseNameFromAtNameDirective checks if commentContent is a well-formed
// "@name <value>" directive and extracts the value if present.
func parseNameFromAtNameDirective(commentContent string) (nameValue string, isAtNamePattern bool) {
	return parseAtWordDirective(commentContent, "@name")
}

// parseAtWordDirective extracts the argument of a "@word <value>" directive,
// normalizing internal whitespace. Reports false when commentContent does not
// start with word at all, or starts with word immediately followed by more
// identifier characters (e.g. "@nametag" does not match "@name").
func parseAtWordDirective(commentContent, word string) (value string, matched bool) {
	if !strings.HasPrefix(commentContent, word) {
		return "", false
	}
	if len(commentContent) == len(word) {
		return "", true
	}
	if !unicode.IsSpace(rune(commentContent[len(word)])) {
		return "", false
	}
	rest := commentContent[len(word):]
	return strings.Join(strings.Fields(strings.TrimSpace(rest)), " "), true
}

// parseDependsOnDirective extracts the target name from a "@dependsOn <name>"
// directive, accepting case-insensitive spellings of the directive word.
func parseDependsOnDirective(content string) (name string, matched bool) {
	const word = "@dependson"
	lower := strings.ToLower(content)
	if !strings.HasPrefix(lower, word) {
		return "", false
	}
	if len(content) == len(word) {
		return "", true
	}
	if !unicode.IsSpace(rune(content[len(word)])) {
		return "", false
	}
	return strings.TrimSpace(content[len(word):]), true
}

// parseTimeoutValue parses an "N[ms|s|m]" token into milliseconds.
func parseTimeoutValue(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	multiplier := 1
	switch {
	case strings.HasSuffix(raw, "ms"):
		raw = strings.TrimSuffix(raw, "ms")
	case strings.HasSuffix(raw, "s"):
		raw = strings.TrimSuffix(raw, "s")
		multiplier = 1000
	case strings.HasSuffix(raw, "m"):
		raw = strings.TrimSuffix(raw, "m")
		multiplier = 60000
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid timeout value %q: %w", raw, err)
	}
	return n * multiplier, nil
}

// parseConditionExpr parses the "<name>.response.status <value>" or
// "<name>.response.body.$<jsonpath> <value>" shape used by @if/@if-not.
func parseConditionExpr(expr string, negate bool) (Condition, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return Condition{}, fmt.Errorf("malformed condition expression: %q", expr)
	}
	selector := fields[0]
	expected := strings.Join(fields[1:], " ")

	const marker = ".response."
	idx := strings.Index(selector, marker)
	if idx < 0 {
		return Condition{}, fmt.Errorf("malformed condition selector: %q", selector)
	}
	target := selector[:idx]
	path := selector[idx+len(marker):]

	switch {
	case path == "status":
		return Condition{Kind: ConditionStatus, TargetRequest: target, Expected: expected, Negate: negate}, nil
	case strings.HasPrefix(path, "body.$"):
		jsonPath := strings.TrimPrefix(path, "body.$")
		return Condition{
			Kind: ConditionBodyJSONPath, TargetRequest: target,
			JSONPath: jsonPath, Expected: expected, Negate: negate,
		}, nil
	default:
		return Condition{}, fmt.Errorf("unsupported condition selector: %q", selector)
	}
}

// parseAssertDirective parses "<kind> <value>" from an @assert directive.
func parseAssertDirective(payload string) (Assertion, error) {
	fields := strings.Fields(payload)
	if len(fields) < 2 {
		return Assertion{}, fmt.Errorf("malformed @assert directive: %q", payload)
	}
	kind := strings.ToLower(fields[0])
	expected := strings.TrimSpace(strings.TrimPrefix(payload, fields[0]))
	switch kind {
	case "status":
		return Assertion{Kind: AssertionStatus, Expected: expected}, nil
	case "body":
		return Assertion{Kind: AssertionBody, Expected: expected}, nil
	case "headers":
		return Assertion{Kind: AssertionHeaders, Expected: expected}, nil
	default:
		return Assertion{}, fmt.Errorf("unknown @assert kind: %q", kind)
	}
}

// extractURLAndVersion splits a URL string that may carry a trailing HTTP
// version token, e.g. "http://example.com HTTP/1.1".
func extractURLAndVersion(urlAndVersion string) (urlStr, httpVersion string) {
	parts := strings.Split(urlAndVersion, " ")
	if len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "HTTP/") {
		return strings.TrimSpace(strings.Join(parts[:len(parts)-1], " ")), parts[len(parts)-1]
	}
	return urlAndVersion, ""
}

// isValidHTTPToken checks if a string is a valid HTTP token (method, header
// field name, etc.) per RFC 7230 Section 3.2.6: 1*tchar.
func isValidHTTPToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isValidHTTPTokenChar(r) {
			return false
		}
	}
	return true
}

func isValidHTTPTokenChar(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return true
	}
	switch r {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	default:
		return false
	}
}

// isValidEncoding checks if the given string is a recognized external-file encoding name.
func isValidEncoding(encoding string) bool {
	validEncodings := map[string]bool{
		"utf-8": true, "utf8": true, "latin1": true, "iso-8859-1": true,
		"ascii": true, "cp1252": true, "windows-1252": true,
	}
	return validEncodings[strings.ToLower(encoding)]
}
