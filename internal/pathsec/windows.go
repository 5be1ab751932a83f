package pathsec

import (
	"strings"
)

// maxWindowsPathLength is the classic MAX_PATH limit. Longer paths require
// the \\?\ prefix, which is itself rejected as a device path.
const maxWindowsPathLength = 260

// reservedWindowsNames are device names Windows reserves in every directory,
// with or without an extension.
var reservedWindowsNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// invalidWindowsChars are characters not permitted in Windows path components.
// The colon is handled separately so drive specs and ADS detection stay exact.
const invalidWindowsChars = `<>"|?*`

// ValidateWindowsPath returns a description of the first Windows path hazard
// found, or "" if the path is safe. The check is purely lexical so it can run
// (and be tested) on any OS.
//
// Callers run this both before and after normalization: normalization can
// itself synthesize a device-path-shaped string from confusable input.
func ValidateWindowsPath(path string) string {
	if path == "" {
		return ""
	}
	slashed := strings.ReplaceAll(path, `\`, "/")

	if isDevicePath(slashed) {
		return "device path"
	}
	if isIncompleteUNC(slashed) {
		return "incomplete UNC path"
	}
	if len(path) > maxWindowsPathLength {
		return "path exceeds 260 characters"
	}
	if isDriveRelative(path) {
		return "drive-relative path"
	}
	if strings.HasPrefix(slashed, "//") {
		return "UNC path"
	}
	if hasAlternateDataStream(slashed) {
		return "alternate data stream"
	}
	return validateWindowsComponents(slashed)
}

// isDevicePath matches \\.\ and \\?\ device namespaces (slash-normalized).
func isDevicePath(slashed string) bool {
	return strings.HasPrefix(slashed, "//./") || strings.HasPrefix(slashed, "//?/") ||
		slashed == "//." || slashed == "//?"
}

// isIncompleteUNC matches \\server without a share component.
func isIncompleteUNC(slashed string) bool {
	if !strings.HasPrefix(slashed, "//") {
		return false
	}
	rest := strings.Trim(slashed[2:], "/")
	if rest == "" {
		return true
	}
	// server only, no share
	return !strings.Contains(rest, "/")
}

// isDriveRelative matches C:foo — a drive letter with a path relative to that
// drive's current directory, which resolves unpredictably.
func isDriveRelative(path string) bool {
	if len(path) < 3 {
		return false
	}
	c := path[0]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return isLetter && path[1] == ':' && path[2] != '/' && path[2] != '\\'
}

// hasAlternateDataStream detects a colon outside a drive spec (file.txt:stream).
func hasAlternateDataStream(slashed string) bool {
	rest := slashed
	if len(rest) >= 2 && rest[1] == ':' {
		c := rest[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			rest = rest[2:]
		}
	}
	return strings.Contains(rest, ":")
}

// validateWindowsComponents checks each path component for reserved device
// names, invalid characters, and trailing dots or spaces.
func validateWindowsComponents(slashed string) string {
	// Strip drive spec before splitting.
	rest := slashed
	if len(rest) >= 2 && rest[1] == ':' {
		rest = rest[2:]
	}
	for _, comp := range strings.Split(rest, "/") {
		if comp == "" || comp == "." || comp == ".." {
			continue
		}
		// Reserved names apply to the stem: "CON.txt" is still the console.
		stem := comp
		if i := strings.IndexByte(comp, '.'); i >= 0 {
			stem = comp[:i]
		}
		if _, ok := reservedWindowsNames[strings.ToUpper(strings.TrimRight(stem, " "))]; ok {
			return "reserved device name: " + comp
		}
		if strings.ContainsAny(comp, invalidWindowsChars) {
			return "invalid character in component: " + comp
		}
		if strings.HasSuffix(comp, ".") || strings.HasSuffix(comp, " ") {
			return "component ends with dot or space: " + comp
		}
	}
	return ""
}
