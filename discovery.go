package httpflow

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks root recursively and returns every ".http" file found,
// sorted for deterministic run order. Directories named "_examples" or
// starting with "." are skipped, matching the teacher's test-fixture layout
// conventions.
func Discover(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "_examples" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".http") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}
