package source

import (
	"path"
	"strings"
)

// Match reports whether a slash-separated relative path matches a glob
// pattern. "**" matches any number of path segments (including zero);
// "*", "?", and character classes match within a single segment.
func Match(pattern, relPath string) bool {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	return matchSegments(strings.Split(pattern, "/"), strings.Split(relPath, "/"))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			if len(pat) == 1 {
				return true
			}
			// Try consuming zero or more path segments.
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pat[1:], segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil || !ok {
			return false
		}
		pat = pat[1:]
		segs = segs[1:]
	}
	return len(segs) == 0
}

// Excluded reports whether relPath matches any of the patterns.
func Excluded(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if Match(p, relPath) {
			return true
		}
	}
	return false
}
