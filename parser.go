package httpflow

import (
	"bufio"
	"fmt"
	"os"
)

const (
	requestSeparator   = "###"
	commentPrefix      = "#"
	slashCommentPrefix = "//"
)

// ParseRequestFile reads filePath, resolves its environment and .env
// overlays, and parses it into an ordered list of requests.
func ParseRequestFile(filePath, selectedEnv string) (*ParsedFile, error) {
	return parseRequestFileWithStack(filePath, &selectedEnv, nil)
}

func parseRequestFileWithStack(filePath string, selectedEnv *string, importStack []string) (*ParsedFile, error) {
	env := ""
	if selectedEnv != nil {
		env = *selectedEnv
	}

	envVars, err := loadEnvironmentFile(filePath, env)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	dotEnvVars := loadDotEnvVars(filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	parsedFile := &ParsedFile{
		FilePath:             filePath,
		EnvironmentVariables:  envVars,
		DotEnvVariables:       dotEnvVars,
		FileVariables:         map[string]string{},
	}

	state := &requestParserState{
		filePath:              filePath,
		importStack:           importStack,
		parsedFile:            parsedFile,
		currentFileVariables:  map[string]string{},
		bodyLines:             []string{},
	}

	if err := processFileLines(bufio.NewReader(file), state); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	finalizeParseResults(state)

	if err := validateUniqueNames(parsedFile); err != nil {
		return nil, err
	}
	autoNameRequests(parsedFile)

	return parsedFile, nil
}

func validateUniqueNames(pf *ParsedFile) error {
	seen := make(map[string]bool)
	for _, r := range pf.Requests {
		if r.Name == "" {
			continue
		}
		if seen[r.Name] {
			return fmt.Errorf("%s: duplicate request name %q", pf.FilePath, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// autoNameRequests assigns "request_<N>" (1-based) to every unnamed request.
// The assigned name is stored in Name exactly like an explicit @name, so
// @dependsOn, conditions, and request variables can refer to it as well.
func autoNameRequests(pf *ParsedFile) {
	for i, r := range pf.Requests {
		if r.Name == "" {
			r.Name = fmt.Sprintf("request_%d", i+1)
		}
	}
}
