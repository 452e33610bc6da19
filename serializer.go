package httpflow

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SerializeRequest renders req back into its ".http" block form, directive
// comments first in declaration order, then the request line, headers, and
// body. Round-tripping a parsed request through SerializeRequest and back
// through ParseRequestFile preserves method, URL, headers, and body.
func SerializeRequest(req *HttpRequest) string {
	var b strings.Builder
	b.WriteString("###\n")

	if req.Name != "" {
		fmt.Fprintf(&b, "# @name %s\n", req.Name)
	}
	if req.TimeoutMS > 0 {
		fmt.Fprintf(&b, "# @timeout %dms\n", req.TimeoutMS)
	}
	if req.ConnectionTimeoutMS > 0 {
		fmt.Fprintf(&b, "# @connection-timeout %dms\n", req.ConnectionTimeoutMS)
	}
	if req.DependsOn != "" {
		fmt.Fprintf(&b, "# @dependsOn %s\n", req.DependsOn)
	}
	for _, cond := range req.Conditions {
		directive := "@if"
		if cond.Negate {
			directive = "@if-not"
		}
		fmt.Fprintf(&b, "# %s %s\n", directive, formatCondition(cond))
	}
	for _, a := range req.Assertions {
		fmt.Fprintf(&b, "# @assert %s\n", formatAssertion(a))
	}

	fmt.Fprintf(&b, "%s %s\n", req.Method, req.RawURL)
	for _, h := range req.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}

	if req.RawBody != "" {
		b.WriteString("\n")
		b.WriteString(req.RawBody)
		if !strings.HasSuffix(req.RawBody, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// SerializeRequests joins every request's serialized block with a blank line.
func SerializeRequests(requests []*HttpRequest) string {
	blocks := make([]string, 0, len(requests))
	for _, r := range requests {
		blocks = append(blocks, SerializeRequest(r))
	}
	return strings.Join(blocks, "\n")
}

// WriteHTTPFile serializes requests and writes them to path.
func WriteHTTPFile(path string, requests []*HttpRequest) error {
	return os.WriteFile(path, []byte(SerializeRequests(requests)), 0o644)
}

// formatCondition renders a condition's expression text only; which
// directive keyword (@if / @if-not) carries the negation is chosen by the
// caller, matching how parseConditionExpr derives Negate from the keyword
// rather than from the expression text.
func formatCondition(cond Condition) string {
	switch cond.Kind {
	case ConditionBodyJSONPath:
		return fmt.Sprintf("%s.response.body.$%s %s", cond.TargetRequest, cond.JSONPath, cond.Expected)
	default:
		return fmt.Sprintf("%s.response.status %s", cond.TargetRequest, cond.Expected)
	}
}

func formatAssertion(a Assertion) string {
	switch a.Kind {
	case AssertionBody:
		return "body " + a.Expected
	case AssertionHeaders:
		return "headers " + a.Expected
	default:
		return "status " + a.Expected
	}
}

// FormatDuration renders a run duration the way console reports do,
// choosing milliseconds below one second and seconds with two decimals above it.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
