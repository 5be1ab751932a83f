package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure conditions.
var (
	// ErrPathTraversal indicates a directory traversal attempt was detected.
	ErrPathTraversal = errors.New("ostruct: path traversal detected")

	// ErrUnsafeUnicode indicates the path contains control characters or
	// confusable Unicode codepoints.
	ErrUnsafeUnicode = errors.New("ostruct: unsafe unicode in path")

	// ErrNormalization indicates the path could not be canonicalized.
	ErrNormalization = errors.New("ostruct: path normalization failed")

	// ErrCaseMismatch indicates the on-disk casing differs from the requested path.
	ErrCaseMismatch = errors.New("ostruct: path case mismatch")

	// ErrSymlinkLoop indicates a symlink chain revisits one of its own members.
	ErrSymlinkLoop = errors.New("ostruct: symlink loop detected")

	// ErrSymlink indicates a symlink target failed platform validation.
	ErrSymlink = errors.New("ostruct: unsafe symlink")

	// ErrSymlinkTargetNotAllowed indicates a symlink target escapes the trust boundary.
	ErrSymlinkTargetNotAllowed = errors.New("ostruct: symlink target outside allowed directories")

	// ErrSymlinkMaxDepth indicates the symlink chain exceeds the depth bound.
	ErrSymlinkMaxDepth = errors.New("ostruct: symlink chain too deep")

	// ErrSymlinkBroken indicates a symlink points at a missing target.
	ErrSymlinkBroken = errors.New("ostruct: broken symlink")

	// ErrPathNotInBase indicates a joined path escapes its base directory.
	ErrPathNotInBase = errors.New("ostruct: path escapes base directory")

	// ErrPathOutsideAllowed indicates the path is outside every allowed directory.
	ErrPathOutsideAllowed = errors.New("ostruct: path outside allowed directories")

	// ErrTempPathsNotAllowed indicates a temp-directory path was used without --allow-temp.
	ErrTempPathsNotAllowed = errors.New("ostruct: temp paths not allowed")

	// ErrDirectoryNotFound indicates a configured base or allowed directory is missing.
	ErrDirectoryNotFound = errors.New("ostruct: directory not found")

	// ErrConcurrencyLimit indicates the in-flight resolution ceiling was hit.
	ErrConcurrencyLimit = errors.New("ostruct: too many concurrent resolutions")

	// ErrOpQuota indicates the per-request filesystem operation quota was exhausted.
	ErrOpQuota = errors.New("ostruct: filesystem operation quota exceeded")

	// ErrTimeBudget indicates the per-request wall-clock budget was exhausted.
	ErrTimeBudget = errors.New("ostruct: resolution time budget exceeded")

	// ErrFileNotFound indicates the validated path does not exist.
	// Existence is always checked after every security gate.
	ErrFileNotFound = errors.New("ostruct: file not found")
)

// Reason identifies the security classification of a rejection.
type Reason string

// Reason codes, one per sentinel error.
const (
	ReasonPathTraversal            Reason = "PATH_TRAVERSAL"
	ReasonUnsafeUnicode            Reason = "UNSAFE_UNICODE"
	ReasonNormalizationError       Reason = "NORMALIZATION_ERROR"
	ReasonCaseMismatch             Reason = "CASE_MISMATCH"
	ReasonSymlinkLoop              Reason = "SYMLINK_LOOP"
	ReasonSymlinkError             Reason = "SYMLINK_ERROR"
	ReasonSymlinkTargetNotAllowed  Reason = "SYMLINK_TARGET_NOT_ALLOWED"
	ReasonSymlinkMaxDepth          Reason = "SYMLINK_MAX_DEPTH"
	ReasonSymlinkBroken            Reason = "SYMLINK_BROKEN"
	ReasonPathNotInBase            Reason = "PATH_NOT_IN_BASE"
	ReasonPathOutsideAllowed       Reason = "PATH_OUTSIDE_ALLOWED"
	ReasonTempPathsNotAllowed      Reason = "TEMP_PATHS_NOT_ALLOWED"
	ReasonDirectoryNotFound        Reason = "DIRECTORY_NOT_FOUND"
	ReasonConcurrencyLimitExceeded Reason = "CONCURRENCY_LIMIT_EXCEEDED"
	ReasonOpQuotaExceeded          Reason = "OP_QUOTA_EXCEEDED"
	ReasonTimeBudgetExceeded       Reason = "TIME_BUDGET_EXCEEDED"
	ReasonFileNotFound             Reason = "FILE_NOT_FOUND"
)

// sentinels maps each reason code to its sentinel error.
var sentinels = map[Reason]error{
	ReasonPathTraversal:            ErrPathTraversal,
	ReasonUnsafeUnicode:            ErrUnsafeUnicode,
	ReasonNormalizationError:       ErrNormalization,
	ReasonCaseMismatch:             ErrCaseMismatch,
	ReasonSymlinkLoop:              ErrSymlinkLoop,
	ReasonSymlinkError:             ErrSymlink,
	ReasonSymlinkTargetNotAllowed:  ErrSymlinkTargetNotAllowed,
	ReasonSymlinkMaxDepth:          ErrSymlinkMaxDepth,
	ReasonSymlinkBroken:            ErrSymlinkBroken,
	ReasonPathNotInBase:            ErrPathNotInBase,
	ReasonPathOutsideAllowed:       ErrPathOutsideAllowed,
	ReasonTempPathsNotAllowed:      ErrTempPathsNotAllowed,
	ReasonDirectoryNotFound:        ErrDirectoryNotFound,
	ReasonConcurrencyLimitExceeded: ErrConcurrencyLimit,
	ReasonOpQuotaExceeded:          ErrOpQuota,
	ReasonTimeBudgetExceeded:       ErrTimeBudget,
	ReasonFileNotFound:             ErrFileNotFound,
}

// Retryable reports whether the reason is a resource-quota violation.
// Quota violations may be retried at lower concurrency; correctness
// violations must never be retried unchanged.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonConcurrencyLimitExceeded, ReasonOpQuotaExceeded, ReasonTimeBudgetExceeded:
		return true
	}
	return false
}

// SecurityError is the closed error type for every rejection produced by the
// path security subsystem. It carries structured context so callers can show
// the failing path, the reason, and the configured trust boundary.
//
// SecurityError unwraps to the sentinel for its reason, so callers match with
// errors.Is(err, core.ErrPathTraversal) etc.
type SecurityError struct {
	Reason Reason

	// Path is the offending path as the caller supplied it.
	Path string
	// BaseDir and AllowedDirs describe the configured trust boundary.
	BaseDir     string
	AllowedDirs []string
	// Chain is the symlink chain visited, for symlink classifications.
	Chain []string
	// Windows marks platform-specific hazards.
	Windows bool
	// Hint is an optional detail for the user (e.g. the reserved device name).
	Hint string

	// Err is the underlying cause, if any.
	Err error
}

// NewSecurityError creates a SecurityError for the given reason and path.
func NewSecurityError(reason Reason, path string) *SecurityError {
	return &SecurityError{Reason: reason, Path: path}
}

func (e *SecurityError) Error() string {
	var b strings.Builder
	sentinel := sentinels[e.Reason]
	if sentinel != nil {
		b.WriteString(sentinel.Error())
	} else {
		fmt.Fprintf(&b, "ostruct: %s", e.Reason)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " [chain: %s]", strings.Join(e.Chain, " -> "))
	}
	if e.Reason == ReasonPathOutsideAllowed && e.BaseDir != "" {
		fmt.Fprintf(&b, " (base: %s, allowed: %s)", e.BaseDir, strings.Join(e.AllowedDirs, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the reason sentinel and the underlying cause.
func (e *SecurityError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := sentinels[e.Reason]; sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithBoundary attaches the trust boundary context.
func (e *SecurityError) WithBoundary(baseDir string, allowedDirs []string) *SecurityError {
	e.BaseDir = baseDir
	e.AllowedDirs = append([]string(nil), allowedDirs...)
	return e
}

// WithChain attaches the visited symlink chain.
func (e *SecurityError) WithChain(chain []string) *SecurityError {
	e.Chain = append([]string(nil), chain...)
	return e
}

// WithHint attaches a user-facing detail.
func (e *SecurityError) WithHint(hint string) *SecurityError {
	e.Hint = hint
	return e
}

// WithCause attaches the underlying error.
func (e *SecurityError) WithCause(err error) *SecurityError {
	e.Err = err
	return e
}

// MarkWindows flags the error as a Windows-specific hazard.
func (e *SecurityError) MarkWindows() *SecurityError {
	e.Windows = true
	return e
}

// ReasonOf extracts the reason code from any error, or "" if the error is not
// a SecurityError.
func ReasonOf(err error) Reason {
	var se *SecurityError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
