package httpflow

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Reporter renders a ProcessorResults for a human or for a CI artifact.
type Reporter interface {
	Report(w io.Writer, results *ProcessorResults) error
}

// ConsoleReporter prints a colorized, human-readable summary, using
// fatih/color to highlight pass/fail/skip.
type ConsoleReporter struct {
	NoColor bool
}

func (r ConsoleReporter) Report(w io.Writer, results *ProcessorResults) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	if r.NoColor {
		green, red, yellow = fmt.Sprint, fmt.Sprint, fmt.Sprint
	}

	for _, file := range results.Files {
		fmt.Fprintf(w, "%s\n", file.Filename)
		for _, rc := range file.RequestContexts {
			switch {
			case rc.Skipped():
				fmt.Fprintf(w, "  %s %s\n", yellow("SKIP"), rc.Name)
			case rc.Succeeded():
				fmt.Fprintf(w, "  %s %s (%s)\n", green("PASS"), rc.Name, FormatDuration(rc.Result.Duration))
			default:
				fmt.Fprintf(w, "  %s %s\n", red("FAIL"), rc.Name)
				reportFailureDetail(w, rc, red)
			}
		}
		fmt.Fprintf(w, "  %d passed, %d failed, %d skipped\n\n", file.SuccessCount, file.FailedCount, file.SkippedCount)
	}

	if results.OverallSuccess {
		fmt.Fprintln(w, green("overall: success"))
	} else {
		fmt.Fprintln(w, red("overall: failure"))
	}
	return nil
}

func reportFailureDetail(w io.Writer, rc RequestContext, red func(...interface{}) string) {
	if rc.Result == nil {
		return
	}
	if rc.Result.ErrorMessage != "" {
		fmt.Fprintf(w, "    %s\n", red(rc.Result.ErrorMessage))
	}
	for _, ar := range rc.Result.AssertionResults {
		if ar.Passed {
			continue
		}
		fmt.Fprintf(w, "    assertion failed: expected %q, got %q\n", ar.Assertion.Expected, ar.Actual)
		if ar.Assertion.Kind == AssertionBody {
			fmt.Fprintln(w, indent(unifiedBodyDiff(ar.Assertion.Expected, ar.Actual), "    "))
		}
	}
}

// unifiedBodyDiff renders a unified diff between an expected substring and
// the actual response body, the same way the teacher's validator reported
// body mismatches.
func unifiedBodyDiff(expected, actual string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	return text
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// MarkdownReporter renders results as a Markdown table, suitable for
// pasting into a PR comment or CI job summary.
type MarkdownReporter struct{}

func (MarkdownReporter) Report(w io.Writer, results *ProcessorResults) error {
	fmt.Fprintln(w, "| File | Request | Status | Duration |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, file := range results.Files {
		for _, rc := range file.RequestContexts {
			status, duration := "SKIP", ""
			if rc.Result != nil {
				duration = FormatDuration(rc.Result.Duration)
				if rc.Succeeded() {
					status = "PASS"
				} else {
					status = "FAIL"
				}
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", file.Filename, rc.Name, status, duration)
		}
	}
	return nil
}

// HTMLReporter renders results as a minimal standalone HTML report.
type HTMLReporter struct{}

func (HTMLReporter) Report(w io.Writer, results *ProcessorResults) error {
	fmt.Fprintln(w, "<html><body><table border=\"1\">")
	fmt.Fprintln(w, "<tr><th>File</th><th>Request</th><th>Status</th><th>Duration</th></tr>")
	for _, file := range results.Files {
		for _, rc := range file.RequestContexts {
			status, duration := "SKIP", ""
			if rc.Result != nil {
				duration = FormatDuration(rc.Result.Duration)
				if rc.Succeeded() {
					status = "PASS"
				} else {
					status = "FAIL"
				}
			}
			fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
				htmlEscape(file.Filename), htmlEscape(rc.Name), status, duration)
		}
	}
	fmt.Fprintln(w, "</table></body></html>")
	return nil
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
