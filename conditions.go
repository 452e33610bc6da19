package httpflow

import (
	"strconv"
	"strings"
)

// EvaluateDependency reports whether depends_on is met: the named context
// must exist, have a result, and that result's status code must be exactly
// 200. (Grounded on the original implementation's check_dependency, whose own
// test suite asserts a 404 fails this check — not a 2xx range; see DESIGN.md.)
func EvaluateDependency(dependsOn string, ctx []RequestContext) bool {
	if dependsOn == "" {
		return true
	}
	rc, ok := findContext(ctx, dependsOn)
	if !ok || rc.Result == nil {
		return false
	}
	return rc.Result.StatusCode == 200
}

// EvaluateConditions ANDs every declared condition against ctx. A missing
// target context or missing result makes that single condition false.
func EvaluateConditions(conditions []Condition, ctx []RequestContext) bool {
	for _, cond := range conditions {
		if !evaluateSingleCondition(cond, ctx) {
			return false
		}
	}
	return true
}

func evaluateSingleCondition(cond Condition, ctx []RequestContext) bool {
	rc, ok := findContext(ctx, cond.TargetRequest)
	if !ok || rc.Result == nil {
		return false
	}

	var matched bool
	switch cond.Kind {
	case ConditionStatus:
		matched = strconv.Itoa(rc.Result.StatusCode) == strings.TrimSpace(cond.Expected)
	case ConditionBodyJSONPath:
		value, found, err := extractJSONPath(rc.Result.ResponseBody, cond.JSONPath)
		matched = err == nil && found && strings.TrimSpace(value) == strings.TrimSpace(cond.Expected)
	}
	return matched != cond.Negate
}
