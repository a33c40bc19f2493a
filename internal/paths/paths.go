// Package paths provides canonical helpers for resolving user-supplied
// document references against the indexed path keys, so that the CLI
// and resolution stay consistent.
package paths

import (
	"path/filepath"
	"strings"
)

// normalizeRef normalizes a reference:
// - converts OS separators to '/'
// - trims a leading "./"
// - collapses repeated '/'
func normalizeRef(ref string) string {
	ref = filepath.ToSlash(ref)
	ref = strings.TrimPrefix(ref, "./")
	for strings.Contains(ref, "//") {
		ref = strings.ReplaceAll(ref, "//", "/")
	}
	return ref
}

// Candidates returns the index path keys to try for a reference, in
// order: the reference as given, with ".md" appended, and (for
// relative references) both joined onto the base directory.
func Candidates(ref, baseDir string) []string {
	ref = normalizeRef(ref)

	seen := make(map[string]struct{}, 4)
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	add(ref)
	if !strings.HasSuffix(ref, ".md") {
		add(ref + ".md")
	}

	if !filepath.IsAbs(ref) && baseDir != "" {
		joined := filepath.Join(baseDir, ref)
		add(joined)
		if !strings.HasSuffix(joined, ".md") {
			add(joined + ".md")
		}
	}

	return out
}
