package state

import "strings"

// NormalizePath converts an absolute OS-native path into the canonical form
// used for cross-platform comparison: forward slashes only, a lower-cased
// drive letter when the path starts with one, and no trailing slash.
//
// Only separators and drive-letter case are normalized. The rest of the path
// is compared verbatim; both macOS and Windows report paths with consistent
// casing for the same open file, so full case folding would only mask bugs.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	p = strings.ReplaceAll(p, "\\", "/")

	// Lower-case a Windows drive letter: "C:/..." and "c:/..." are the
	// same volume. JetBrains on Windows reports upper-case drives while
	// VSCode reports lower-case ones.
	if len(p) >= 2 && p[1] == ':' {
		c := p[0]
		if c >= 'A' && c <= 'Z' {
			p = string(c+'a'-'A') + p[1:]
		}
	}

	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}

	return p
}

// CompatiblePath reports whether two absolute paths refer to the same file
// once separators and drive-letter case are normalized away.
func CompatiblePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizePath(a) == NormalizePath(b)
}
