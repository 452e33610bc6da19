package httpflow

import (
	"fmt"
	"path/filepath"
	"strings"
)

// extractImportString extracts the import path from an "@import <path>" line,
// which may appear inside a "#" or "//" comment.
func extractImportString(trimmedLine string) (string, error) {
	importStr := trimmedLine
	switch {
	case strings.HasPrefix(trimmedLine, commentPrefix):
		importStr = strings.TrimPrefix(trimmedLine, commentPrefix)
	case strings.HasPrefix(trimmedLine, slashCommentPrefix):
		importStr = strings.TrimPrefix(trimmedLine, slashCommentPrefix)
	}
	importStr = strings.TrimSpace(importStr)

	importIdx := strings.Index(importStr, "@import")
	if importIdx < 0 {
		return "", fmt.Errorf("no @import found in string: %s", trimmedLine)
	}
	importPath := importStr[importIdx+len("@import"):]
	importPath = strings.Trim(strings.TrimSpace(importPath), "\"'")
	if importPath == "" {
		return "", fmt.Errorf("empty @import path: %s", trimmedLine)
	}
	return importPath, nil
}

// resolveImport loads the requests of an imported file, detecting cycles via
// importStack (the chain of file paths currently being parsed). fromFile is
// itself currently being entered — it belongs on the stack before resolved
// is checked against it, or a direct self-import ("a.http" importing
// "a.http") would only be caught one recursion level late, after a
// redundant reparse of the importer.
func resolveImport(importPath string, fromFile string, importStack []string) ([]*HttpRequest, error) {
	resolved := importPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(fromFile), importPath)
	}
	resolved = filepath.Clean(resolved)

	stack := append(append([]string(nil), importStack...), filepath.Clean(fromFile))
	for _, seen := range stack {
		if seen == resolved {
			return nil, fmt.Errorf("circular @import detected: %s imports %s", fromFile, resolved)
		}
	}

	parsed, err := parseRequestFileWithStack(resolved, nil, stack)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", resolved, err)
	}
	return parsed.Requests, nil
}
