// Package pathsec implements the path security subsystem: Unicode-safe
// normalization, safe joining, allowed-directory checks, bounded symlink
// resolution, and resource admission control.
//
// All decisions about a user-supplied path flow through this package before
// any file content is read.
package pathsec

import "runtime"

// Policy abstracts the platform-specific parts of path validation so the rest
// of the subsystem carries no GOOS branches. A policy is chosen once at
// startup and injected everywhere.
type Policy interface {
	// Name identifies the policy ("posix" or "windows").
	Name() string
	// Validate returns a description of the first platform hazard found in
	// the path, or "" if the path is safe.
	Validate(path string) string
	// CaseInsensitive reports whether path comparison folds case.
	CaseInsensitive() bool
}

type posixPolicy struct{}

func (posixPolicy) Name() string           { return "posix" }
func (posixPolicy) Validate(string) string { return "" }
func (posixPolicy) CaseInsensitive() bool  { return false }

type windowsPolicy struct{}

func (windowsPolicy) Name() string             { return "windows" }
func (windowsPolicy) Validate(p string) string { return ValidateWindowsPath(p) }
func (windowsPolicy) CaseInsensitive() bool    { return true }

// PosixPolicy returns the POSIX platform policy.
func PosixPolicy() Policy { return posixPolicy{} }

// WindowsPolicy returns the Windows platform policy. Exposed (not only via
// DefaultPolicy) so Windows hazard handling stays testable on any OS.
func WindowsPolicy() Policy { return windowsPolicy{} }

// DefaultPolicy returns the policy for the current OS.
func DefaultPolicy() Policy {
	if runtime.GOOS == "windows" {
		return windowsPolicy{}
	}
	return posixPolicy{}
}
