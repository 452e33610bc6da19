package httpflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// extractJSONPath walks body (raw JSON text) following a dot/bracket path
// such as "a.b[2].c" (the leading "$." is implied) and returns the matched
// value's textual form. A missing key, an out-of-range index, a type
// mismatch, a body that is not JSON, or a path the jsonpath library cannot
// evaluate all report found=false; err is currently always nil.
func extractJSONPath(body, path string) (value string, found bool, err error) {
	expr, err := compileJSONPathExpr(path)
	if err != nil {
		return "", false, err
	}

	var doc any
	if decodeErr := json.Unmarshal([]byte(body), &doc); decodeErr != nil {
		return "", false, nil
	}

	result, err := jsonpath.Get(expr, doc)
	if err != nil {
		// PaesslerAG/jsonpath reports missing keys and out-of-range
		// indices as errors; the selector's contract treats both as
		// "not found" instead of propagating a runtime error.
		return "", false, nil
	}
	return renderJSONValue(result), true, nil
}

// compileJSONPathExpr turns "a.b[2].c" into the "$.a.b[2].c" form the
// jsonpath library expects.
func compileJSONPathExpr(path string) (string, error) {
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "$", nil
	}
	if !strings.HasPrefix(path, "[") {
		path = "." + path
	}
	return "$" + path, nil
}

func renderJSONValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
