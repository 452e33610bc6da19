package httpflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const envFileName = "http-client.env.json"

// loadEnvironmentFile walks upward from the directory containing httpFilePath
// looking for an http-client.env.json file, and returns the stringified
// variable map for selectedEnv. Returns an empty map if no environment name
// is selected or no such file is found anywhere up the tree.
func loadEnvironmentFile(httpFilePath, selectedEnv string) (map[string]string, error) {
	if selectedEnv == "" {
		return map[string]string{}, nil
	}

	dir := filepath.Dir(httpFilePath)
	for {
		candidate := filepath.Join(dir, envFileName)
		if data, err := os.ReadFile(candidate); err == nil {
			return parseEnvironmentFile(data, selectedEnv)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return map[string]string{}, nil
		}
		dir = parent
	}
}

// parseEnvironmentFile stringifies the scalar/structural JSON values found
// under envName in the http-client.env.json document.
func parseEnvironmentFile(data []byte, envName string) (map[string]string, error) {
	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envFileName, err)
	}
	raw, ok := doc[envName]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringifyEnvValue(v)
	}
	return out, nil
}

func stringifyEnvValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// loadDotEnvVars loads a .env file sitting beside httpFilePath, if present.
// This is a lower-precedence supplement to the environment-file overlay,
// exposing OS-style KEY=VALUE pairs to the substitutor.
func loadDotEnvVars(httpFilePath string) map[string]string {
	candidate := filepath.Join(filepath.Dir(httpFilePath), ".env")
	vars, err := godotenv.Read(candidate)
	if err != nil {
		return map[string]string{}
	}
	return vars
}
