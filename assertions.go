package httpflow

import (
	"fmt"
	"strconv"
	"strings"
)

// EvaluateAssertions runs every declared assertion against result in
// declaration order, producing exactly one AssertionResult per assertion.
func EvaluateAssertions(assertions []Assertion, result *HttpResult) []AssertionResult {
	out := make([]AssertionResult, 0, len(assertions))
	for _, a := range assertions {
		out = append(out, evaluateAssertion(a, result))
	}
	return out
}

func evaluateAssertion(a Assertion, result *HttpResult) AssertionResult {
	switch a.Kind {
	case AssertionStatus:
		return evaluateStatusAssertion(a, result)
	case AssertionBody:
		return evaluateBodyAssertion(a, result)
	case AssertionHeaders:
		return evaluateHeadersAssertion(a, result)
	default:
		return AssertionResult{Assertion: a, Passed: false, ErrorMessage: "unknown assertion kind"}
	}
}

func evaluateStatusAssertion(a Assertion, result *HttpResult) AssertionResult {
	expected, err := strconv.ParseUint(strings.TrimSpace(a.Expected), 10, 16)
	if err != nil {
		return AssertionResult{
			Assertion: a, Passed: false,
			ErrorMessage: fmt.Sprintf("invalid expected status %q: %v", a.Expected, err),
		}
	}
	actual := strconv.Itoa(result.StatusCode)
	return AssertionResult{Assertion: a, Passed: int(expected) == result.StatusCode, Actual: actual}
}

func evaluateBodyAssertion(a Assertion, result *HttpResult) AssertionResult {
	if result.ResponseBody == "" {
		return AssertionResult{Assertion: a, Passed: false, Actual: "", ErrorMessage: "response body is empty"}
	}
	return AssertionResult{
		Assertion: a,
		Passed:    strings.Contains(result.ResponseBody, a.Expected),
		Actual:    result.ResponseBody,
	}
}

// evaluateHeadersAssertion splits the expected value on the first ':',
// trims both sides, and checks whether any response header matching the
// name case-insensitively has a value containing the expected substring.
func evaluateHeadersAssertion(a Assertion, result *HttpResult) AssertionResult {
	idx := strings.Index(a.Expected, ":")
	if idx < 0 {
		return AssertionResult{
			Assertion: a, Passed: false,
			ErrorMessage: fmt.Sprintf("malformed headers assertion, missing ':': %q", a.Expected),
		}
	}
	name := strings.TrimSpace(a.Expected[:idx])
	value := strings.TrimSpace(a.Expected[idx+1:])

	actual, ok := lookupHeaderCaseInsensitive(result.ResponseHeaders, name)
	if !ok {
		return AssertionResult{Assertion: a, Passed: false, ErrorMessage: fmt.Sprintf("header %q not present", name)}
	}
	return AssertionResult{Assertion: a, Passed: strings.Contains(actual, value), Actual: actual}
}
