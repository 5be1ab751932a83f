package pathsec

import (
	"os"
)

// wellKnownTempDirs covers temp roots beyond os.TempDir: macOS hands out
// per-user dirs under /var/folders, and /var itself is a symlink to /private,
// so both spellings of a temp path appear in the wild.
var wellKnownTempDirs = []string{
	"/tmp",
	"/var/tmp",
	"/var/folders",
	"/private/tmp",
	"/private/var/folders",
}

// IsTempPath reports whether the path lives under a temp directory. The input
// should already be normalized; the check fails closed on normalization errors.
func IsTempPath(p string, policy Policy) bool {
	if policy == nil {
		policy = DefaultPolicy()
	}
	norm, err := Normalize(p)
	if err != nil {
		return false
	}
	fold := policy.CaseInsensitive()

	if tmp, terr := Normalize(os.TempDir()); terr == nil {
		if isAncestorOrEqual(tmp, norm, fold) {
			return true
		}
	}
	for _, dir := range wellKnownTempDirs {
		if isAncestorOrEqual(dir, norm, fold) {
			return true
		}
	}
	return false
}
