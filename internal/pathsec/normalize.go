package pathsec

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yaniv-golan/ostruct-go/core"
)

// confusableDots are codepoints that render like "." and survive casual
// review. NFKC folds several of them into real dots, which is exactly how a
// spoofed ".." traversal is smuggled past a naive check.
var confusableDots = map[rune]struct{}{
	'․': {}, // ONE DOT LEADER
	'‥': {}, // TWO DOT LEADER
	'…': {}, // HORIZONTAL ELLIPSIS
	'﹒': {}, // SMALL FULL STOP
	'．': {}, // FULLWIDTH FULL STOP
}

// confusableSlashes are codepoints that render like path separators.
var confusableSlashes = map[rune]struct{}{
	'⁄': {}, // FRACTION SLASH
	'∕': {}, // DIVISION SLASH
	'⧸': {}, // BIG SOLIDUS
	'／': {}, // FULLWIDTH SOLIDUS
	'﹨': {}, // SMALL REVERSE SOLIDUS
	'＼': {}, // FULLWIDTH REVERSE SOLIDUS
}

// Normalize canonicalizes a raw path string into an absolute, NFKC-normalized,
// forward-slash form. It must run before any traversal or allowed-directory
// comparison; comparing un-normalized strings is unsound against homoglyphs
// and mixed separators.
//
// The result never contains a raw ".." segment or an unsafe codepoint.
// Normalize is idempotent: Normalize(p) == p for any p it has produced.
//
// Known limitation: making a relative path absolute reads the process working
// directory, which is not atomic against concurrent in-process CWD changes.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return "", core.NewSecurityError(core.ReasonNormalizationError, raw).
			WithHint("empty path")
	}

	confusableDot, unsafe := scanUnsafeRunes(raw)
	folded := norm.NFKC.String(raw)
	traversal := hasDotDotSegment(raw) || hasDotDotSegment(folded)

	if unsafe {
		// A confusable dot that folds into a ".." segment is a traversal
		// attempt, not merely odd Unicode.
		if confusableDot && traversal {
			return "", core.NewSecurityError(core.ReasonPathTraversal, raw).
				WithHint("confusable dot sequence")
		}
		return "", core.NewSecurityError(core.ReasonUnsafeUnicode, raw)
	}
	if traversal {
		return "", core.NewSecurityError(core.ReasonPathTraversal, raw)
	}

	p := strings.ReplaceAll(folded, `\`, "/")
	if !isAbsSlashed(p) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", core.NewSecurityError(core.ReasonNormalizationError, raw).WithCause(err)
		}
		p = filepath.ToSlash(cwd) + "/" + p
	}
	// Collapses repeated slashes and drops "." segments. No ".." survives to
	// this point, so Clean cannot rewrite the path upward.
	return cleanSlashed(p), nil
}

// scanUnsafeRunes reports whether the string contains a confusable dot, and
// whether any unsafe codepoint (control, line separator, confusable) is present.
func scanUnsafeRunes(s string) (confusableDot, unsafe bool) {
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7F:
			unsafe = true
		case r == '\u0085' || r == '\u2028' || r == '\u2029':
			unsafe = true
		default:
			if _, ok := confusableDots[r]; ok {
				confusableDot = true
				unsafe = true
			} else if _, ok := confusableSlashes[r]; ok {
				unsafe = true
			}
		}
	}
	return confusableDot, unsafe
}

// hasDotDotSegment reports whether ".." appears as a full path segment under
// either separator convention.
func hasDotDotSegment(s string) bool {
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// isAbsSlashed reports lexical absoluteness of a forward-slash path,
// including Windows drive-letter forms.
func isAbsSlashed(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && p[2] == '/' {
		c := p[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

// cleanSlashed lexically cleans a forward-slash path, preserving a drive spec.
func cleanSlashed(p string) string {
	if len(p) >= 2 && p[1] == ':' {
		return p[:2] + path.Clean(p[2:])
	}
	return path.Clean(p)
}

// ToOSPath converts a normalized forward-slash path to the host separator for
// filesystem calls.
func ToOSPath(p string) string {
	return filepath.FromSlash(p)
}
