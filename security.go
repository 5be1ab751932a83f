package ostruct

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/yaniv-golan/ostruct-go/core"
	"github.com/yaniv-golan/ostruct-go/internal/pathsec"
)

// SecurityManager decides, for every user-supplied path, whether access is
// permitted. It composes the path normalizer, allowed-directory checker,
// platform validator, symlink resolver, and resource protector over one base
// directory and a mutable set of allowed directories.
//
// IsPathAllowed and ValidatePath may run concurrently from multiple
// goroutines; AddAllowedDirectory is intended for single-threaded setup.
type SecurityManager struct {
	baseDir   string
	allowTemp bool
	limits    core.Limits
	policy    pathsec.Policy
	logger    *slog.Logger

	mu      sync.RWMutex
	allowed []string // ordered, deduplicated; baseDir is always first

	protector *pathsec.Protector
	resolver  *pathsec.Resolver
	cases     *pathsec.CaseRegistry
}

// NewSecurityManager creates a SecurityManager rooted at baseDir. An empty
// baseDir means the current working directory. Construction fails with
// ErrDirectoryNotFound if the base or any allowed directory is missing.
func NewSecurityManager(baseDir string, opts ...SecurityOption) (*SecurityManager, error) {
	cfg := securityConfig{
		limits: core.DefaultLimits(),
		policy: pathsec.DefaultPolicy(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	cfg.limits = cfg.limits.Normalize()

	if baseDir == "" {
		baseDir = "."
	}
	base, err := requireDirectory(baseDir)
	if err != nil {
		return nil, err
	}

	sm := &SecurityManager{
		baseDir:   base,
		allowTemp: cfg.allowTemp,
		limits:    cfg.limits,
		policy:    cfg.policy,
		logger:    cfg.logger,
		allowed:   []string{base},
		protector: pathsec.NewProtector(cfg.limits, cfg.logger),
		resolver:  pathsec.NewResolver(cfg.policy, cfg.logger),
		cases:     pathsec.NewCaseRegistry(),
	}
	for _, dir := range cfg.allowedDirs {
		if err := sm.AddAllowedDirectory(dir); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

// BaseDir returns the normalized base directory.
func (sm *SecurityManager) BaseDir() string { return sm.baseDir }

// Limits returns the configured resource limits.
func (sm *SecurityManager) Limits() core.Limits { return sm.limits }

// AllowedDirectories returns a snapshot of the allowed-directory set.
func (sm *SecurityManager) AllowedDirectories() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]string(nil), sm.allowed...)
}

// AddAllowedDirectory adds a directory to the trust boundary. The directory
// must exist; adding the same directory twice is a no-op. Call this during
// single-threaded setup, before concurrent validation begins.
func (sm *SecurityManager) AddAllowedDirectory(dir string) error {
	norm, err := requireDirectory(dir)
	if err != nil {
		return err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, existing := range sm.allowed {
		if existing == norm {
			return nil
		}
	}
	sm.allowed = append(sm.allowed, norm)
	sm.logger.Debug("allowed directory added", "dir", norm)
	return nil
}

// IsPathAllowed reports whether the path is inside the trust boundary, or
// inside a temp directory when temp paths are enabled. Fails closed on any
// normalization error.
func (sm *SecurityManager) IsPathAllowed(path string) bool {
	norm, err := pathsec.Normalize(path)
	if err != nil {
		return false
	}
	if pathsec.IsAllowed(norm, sm.AllowedDirectories(), sm.policy) {
		return true
	}
	return sm.allowTemp && pathsec.IsTempPath(norm, sm.policy)
}

// ValidatePath validates a user-supplied path and returns its resolved form.
//
// Symlinks are fully resolved under the resource protector, with the trust
// boundary re-checked at every hop. Existence is checked last, after every
// security gate, so an unauthorized path yields the same error whether or not
// the target exists.
func (sm *SecurityManager) ValidatePath(path string) (string, error) {
	return sm.validate(path)
}

// ResolvePath is ValidatePath in compatibility mode: a broken symlink maps to
// a generic not-found error, while loop and depth violations remain security
// errors.
func (sm *SecurityManager) ResolvePath(path string) (string, error) {
	resolved, err := sm.validate(path)
	if err != nil && core.ReasonOf(err) == core.ReasonSymlinkBroken {
		return "", core.NewSecurityError(core.ReasonFileNotFound, path).WithCause(err)
	}
	return resolved, err
}

func (sm *SecurityManager) validate(path string) (string, error) {
	// Platform hazards are checked pre-normalization: normalization can
	// itself synthesize a device-path-shaped string.
	if hint := sm.policy.Validate(path); hint != "" {
		return "", core.NewSecurityError(core.ReasonNormalizationError, path).
			WithHint(hint).MarkWindows()
	}

	norm, err := pathsec.Normalize(path)
	if err != nil {
		return "", err
	}
	if hint := sm.policy.Validate(norm); hint != "" {
		return "", core.NewSecurityError(core.ReasonNormalizationError, path).
			WithHint(hint).MarkWindows()
	}

	final := norm
	if isSymlink(norm) {
		resolved, rerr := sm.resolveSymlink(norm)
		if rerr != nil {
			return "", rerr
		}
		final = resolved
	}

	if sm.policy.CaseInsensitive() {
		if cerr := sm.cases.Check(final); cerr != nil {
			return "", cerr
		}
	}

	allowed := sm.AllowedDirectories()
	if !pathsec.IsAllowed(final, allowed, sm.policy) {
		if pathsec.IsTempPath(final, sm.policy) {
			if !sm.allowTemp {
				return "", core.NewSecurityError(core.ReasonTempPathsNotAllowed, path)
			}
		} else {
			return "", core.NewSecurityError(core.ReasonPathOutsideAllowed, path).
				WithBoundary(sm.baseDir, allowed)
		}
	}

	// Existence last: no gate below this line, so an unauthorized path never
	// reveals whether its target exists.
	if _, serr := os.Stat(pathsec.ToOSPath(final)); serr != nil {
		if os.IsNotExist(serr) {
			return "", core.NewSecurityError(core.ReasonFileNotFound, path)
		}
		return "", core.NewSecurityError(core.ReasonNormalizationError, path).WithCause(serr)
	}
	return final, nil
}

// resolveSymlink runs the bounded resolver under admission control.
func (sm *SecurityManager) resolveSymlink(norm string) (string, error) {
	req, err := sm.protector.Acquire(norm)
	if err != nil {
		return "", err
	}
	defer req.Release()
	return sm.resolver.Resolve(norm, sm.limits.MaxSymlinkDepth, sm.AllowedDirectories(), req)
}

// CaseScope snapshots the manager's case-preservation state. Closing the
// returned scope restores it, so batch callers can keep casing request-scoped
// instead of manager-wide.
func (sm *SecurityManager) CaseScope() *Scope {
	return &Scope{inner: sm.cases.Scope()}
}

// Scope is a cleanup resource for case-preservation state.
type Scope struct {
	inner *pathsec.CaseScope
}

// Close restores the state captured at scope creation. Idempotent.
func (s *Scope) Close() { s.inner.Close() }

// isSymlink reports whether the normalized path is itself a symlink.
func isSymlink(norm string) bool {
	fi, err := os.Lstat(pathsec.ToOSPath(norm))
	return err == nil && fi.Mode()&os.ModeSymlink != 0
}

// requireDirectory normalizes dir and verifies it exists and is a directory.
func requireDirectory(dir string) (string, error) {
	norm, err := pathsec.Normalize(dir)
	if err != nil {
		return "", err
	}
	fi, serr := os.Stat(pathsec.ToOSPath(norm))
	if serr != nil || !fi.IsDir() {
		e := core.NewSecurityError(core.ReasonDirectoryNotFound, dir)
		if serr != nil {
			e = e.WithCause(fmt.Errorf("stat %s: %w", norm, serr))
		}
		return "", e
	}
	return norm, nil
}

// SafeJoin joins a trusted base directory with untrusted segments. The second
// return is false when the base or any segment could escape the base; callers
// must treat false as reject and never fall back to the raw input.
func SafeJoin(base string, segments ...string) (string, bool) {
	return pathsec.SafeJoin(base, segments...)
}
