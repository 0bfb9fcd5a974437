package buildpipeline

import (
	"path/filepath"
	"slices"
	"strings"
)

// NormalizeFiles returns the inputs of a build cleaned, sorted and without
// duplicates. Paths under baseDir become relative to it, so progress lines
// and diagnostics stay short; everything else is kept as given.
func NormalizeFiles(files []string, baseDir string) []string {
	base := ""
	if strings.TrimSpace(baseDir) != "" {
		if abs, err := filepath.Abs(baseDir); err == nil {
			base = abs
		}
	}
	out := make([]string, 0, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		out = append(out, filepath.ToSlash(relativeTo(base, filepath.Clean(file))))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func relativeTo(base, path string) string {
	if base == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
