package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Files returns the regular files matching dir+pattern+"*", sorted.
// dir and pattern are joined as written, so a pattern can complete a file
// name prefix inside dir. Patterns may use ** to descend into
// subdirectories.
func Files(dir, pattern string) ([]string, error) {
	glob := dir + pattern + "*"
	matches, err := doublestar.FilepathGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed for %q: %w", glob, err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files match %q", glob)
	}
	sort.Strings(files)
	return files, nil
}
