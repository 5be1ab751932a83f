package ostruct

import "github.com/yaniv-golan/ostruct-go/core"

// Sentinel errors for common failure conditions.
// Re-exported from core package.
var (
	// ErrPathTraversal indicates a directory traversal attempt was detected.
	ErrPathTraversal = core.ErrPathTraversal

	// ErrUnsafeUnicode indicates the path contains control characters or
	// confusable Unicode codepoints.
	ErrUnsafeUnicode = core.ErrUnsafeUnicode

	// ErrNormalization indicates the path could not be canonicalized.
	ErrNormalization = core.ErrNormalization

	// ErrCaseMismatch indicates the on-disk casing differs from the requested path.
	ErrCaseMismatch = core.ErrCaseMismatch

	// ErrSymlinkLoop indicates a symlink chain revisits one of its own members.
	ErrSymlinkLoop = core.ErrSymlinkLoop

	// ErrSymlink indicates a symlink target failed platform validation.
	ErrSymlink = core.ErrSymlink

	// ErrSymlinkTargetNotAllowed indicates a symlink target escapes the trust boundary.
	ErrSymlinkTargetNotAllowed = core.ErrSymlinkTargetNotAllowed

	// ErrSymlinkMaxDepth indicates the symlink chain exceeds the depth bound.
	ErrSymlinkMaxDepth = core.ErrSymlinkMaxDepth

	// ErrSymlinkBroken indicates a symlink points at a missing target.
	ErrSymlinkBroken = core.ErrSymlinkBroken

	// ErrPathNotInBase indicates a joined path escapes its base directory.
	ErrPathNotInBase = core.ErrPathNotInBase

	// ErrPathOutsideAllowed indicates the path is outside every allowed directory.
	ErrPathOutsideAllowed = core.ErrPathOutsideAllowed

	// ErrTempPathsNotAllowed indicates a temp-directory path was used without AllowTemp.
	ErrTempPathsNotAllowed = core.ErrTempPathsNotAllowed

	// ErrDirectoryNotFound indicates a configured base or allowed directory is missing.
	ErrDirectoryNotFound = core.ErrDirectoryNotFound

	// ErrConcurrencyLimit indicates the in-flight resolution ceiling was hit.
	ErrConcurrencyLimit = core.ErrConcurrencyLimit

	// ErrOpQuota indicates the per-request filesystem operation quota was exhausted.
	ErrOpQuota = core.ErrOpQuota

	// ErrTimeBudget indicates the per-request wall-clock budget was exhausted.
	ErrTimeBudget = core.ErrTimeBudget

	// ErrFileNotFound indicates the validated path does not exist.
	ErrFileNotFound = core.ErrFileNotFound
)

// SecurityError is the closed error type for every rejection.
// Re-exported from core package.
type SecurityError = core.SecurityError

// Reason identifies the security classification of a rejection.
// Re-exported from core package.
type Reason = core.Reason

// ReasonOf extracts the reason code from any error, or "" if the error is not
// a SecurityError.
func ReasonOf(err error) Reason { return core.ReasonOf(err) }
