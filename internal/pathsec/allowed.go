package pathsec

import (
	"path/filepath"
	"strings"
)

// IsAllowed reports whether path is inside (or equal to) any of the allowed
// directories. Both sides are normalized before comparison, and membership is
// decided per path component so "/basement" never matches "/base".
//
// Some callers pass paths the OS has already partially resolved, so a second
// pass fully resolves both sides and repeats the test. Fails closed: any
// normalization error means false.
func IsAllowed(path string, allowedDirs []string, policy Policy) bool {
	if policy == nil {
		policy = DefaultPolicy()
	}
	norm, err := Normalize(path)
	if err != nil {
		return false
	}

	fold := policy.CaseInsensitive()
	normDirs := make([]string, 0, len(allowedDirs))
	for _, dir := range allowedDirs {
		nd, dirErr := Normalize(dir)
		if dirErr != nil {
			continue
		}
		normDirs = append(normDirs, nd)
		if isAncestorOrEqual(nd, norm, fold) {
			return true
		}
	}

	// Second pass with both sides fully resolved, so pre-resolved inputs are
	// not rejected when an allowed dir is itself reached through a symlink.
	resolved, rErr := filepath.EvalSymlinks(ToOSPath(norm))
	if rErr != nil {
		return false
	}
	resolvedSlash := filepath.ToSlash(resolved)
	for _, nd := range normDirs {
		rd, dirErr := filepath.EvalSymlinks(ToOSPath(nd))
		if dirErr != nil {
			continue
		}
		if isAncestorOrEqual(filepath.ToSlash(rd), resolvedSlash, fold) {
			return true
		}
	}
	return false
}

// isAncestorOrEqual reports whether dir is an ancestor of (or equal to) p,
// comparing path components of the forward-slash forms.
func isAncestorOrEqual(dir, p string, foldCase bool) bool {
	dirParts := splitComponents(dir)
	pParts := splitComponents(p)
	if len(dirParts) > len(pParts) {
		return false
	}
	for i, dc := range dirParts {
		if foldCase {
			if !strings.EqualFold(dc, pParts[i]) {
				return false
			}
		} else if dc != pParts[i] {
			return false
		}
	}
	return true
}

// splitComponents splits a forward-slash path into components, dropping empty
// segments. The root path yields no components, so it is an ancestor of
// every absolute path.
func splitComponents(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && seg != "." {
			parts = append(parts, seg)
		}
	}
	return parts
}
