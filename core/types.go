// Package core provides the shared types and errors for ostruct.
//
// This package exists to break import cycles between the root ostruct package
// and internal implementation packages. The ostruct package re-exports all
// public types from this package, so external users should import ostruct
// directly, not ostruct/core.
package core

import (
	"io/fs"
	"time"
)

// Default resource limits for the path security subsystem.
const (
	DefaultMaxSymlinkDepth = 16
	DefaultMaxConcurrent   = 10
	DefaultOpQuota         = 1000
	DefaultTimeBudget      = 5 * time.Second
	DefaultMinResponseTime = 100 * time.Millisecond
)

// Limits bounds the cost of a single path resolution and the number of
// resolutions in flight at once. Zero-valued fields fall back to defaults.
type Limits struct {
	// MaxSymlinkDepth bounds the length of a symlink chain.
	MaxSymlinkDepth int
	// MaxConcurrent is the hard admission-control ceiling. Excess requests
	// are rejected immediately, never queued.
	MaxConcurrent int
	// OpQuota bounds filesystem operations (readlink/stat/lstat) per request.
	OpQuota int
	// TimeBudget bounds wall-clock time per request.
	TimeBudget time.Duration
	// MinResponseTime pads every release so success and failure are not
	// distinguishable by latency. Zero disables the padding.
	MinResponseTime time.Duration
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSymlinkDepth: DefaultMaxSymlinkDepth,
		MaxConcurrent:   DefaultMaxConcurrent,
		OpQuota:         DefaultOpQuota,
		TimeBudget:      DefaultTimeBudget,
		MinResponseTime: DefaultMinResponseTime,
	}
}

// Normalize fills zero-valued fields with defaults.
func (l Limits) Normalize() Limits {
	d := DefaultLimits()
	if l.MaxSymlinkDepth <= 0 {
		l.MaxSymlinkDepth = d.MaxSymlinkDepth
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = d.MaxConcurrent
	}
	if l.OpQuota <= 0 {
		l.OpQuota = d.OpQuota
	}
	if l.TimeBudget <= 0 {
		l.TimeBudget = d.TimeBudget
	}
	if l.MinResponseTime < 0 {
		l.MinResponseTime = d.MinResponseTime
	}
	return l
}

// PathValidator is the security gate every attachment path passes through.
// This interface is implemented by the root SecurityManager.
type PathValidator interface {
	// ValidatePath validates a user-supplied path and returns its resolved
	// absolute form. Any error is a *SecurityError.
	ValidatePath(path string) (string, error)

	// IsPathAllowed reports whether the path is inside the trust boundary.
	// Fails closed.
	IsPathAllowed(path string) bool
}

// Attachment is a validated local file ready to be forwarded to a prompt or
// tool invocation. Path is always the result of a successful security
// resolution; callers must not re-derive paths by further string manipulation.
type Attachment struct {
	// Alias is the name the attachment is referenced by in a template.
	Alias string
	// Path is the validated absolute path.
	Path string
	// Size is the file size in bytes at validation time.
	Size int64
	// Mode is the file mode at validation time.
	Mode fs.FileMode
	// Digest is the SHA-256 content digest (sha256:...), set when the
	// attachment passed through the upload cache.
	Digest string
}
