package pathsec

import (
	"path"
	"strings"
)

// Joiner joins a trusted base directory with untrusted path segments. It is
// usable standalone, independent of the rest of the subsystem.
type Joiner struct {
	policy Policy
}

// NewJoiner creates a Joiner using the given platform policy.
func NewJoiner(policy Policy) *Joiner {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Joiner{policy: policy}
}

// SafeJoin joins base with untrusted segments under the current OS policy.
// The second return is false when anything could escape the base; callers
// must treat that as reject and never fall back to the raw input.
func SafeJoin(base string, segments ...string) (string, bool) {
	return NewJoiner(nil).Join(base, segments...)
}

// Join returns the joined path, or ("", false) if the base or any segment is
// absolute, contains a ".." segment, or trips a platform hazard. Hazards are
// checked on the base, each segment, and the final joined result, since a
// reserved name can emerge only after joining.
func (j *Joiner) Join(base string, segments ...string) (string, bool) {
	if base == "" || strings.ContainsRune(base, 0) {
		return "", false
	}
	if hasDotDotSegment(base) || j.policy.Validate(base) != "" {
		return "", false
	}

	cleanBase := cleanSlashed(strings.ReplaceAll(base, `\`, "/"))
	joined := cleanBase
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.ContainsRune(seg, 0) {
			return "", false
		}
		slashed := strings.ReplaceAll(seg, `\`, "/")
		if isAbsSlashed(slashed) || hasDotDotSegment(slashed) {
			return "", false
		}
		if j.policy.Validate(seg) != "" {
			return "", false
		}
		joined = joined + "/" + path.Clean(strings.Trim(slashed, "/"))
	}
	joined = cleanSlashed(joined)

	if j.policy.Validate(joined) != "" {
		return "", false
	}
	// Containment check by components, not string prefixing.
	if !isAncestorOrEqual(cleanBase, joined, j.policy.CaseInsensitive()) {
		return "", false
	}
	return joined, true
}
