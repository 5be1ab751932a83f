package ostruct

import (
	"log/slog"

	"github.com/yaniv-golan/ostruct-go/core"
	"github.com/yaniv-golan/ostruct-go/internal/pathsec"
)

// SecurityOption configures a SecurityManager.
type SecurityOption func(*securityConfig) error

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

// AttachOption configures an AttachDir or Collect operation.
type AttachOption func(*attachConfig)

// Limits bounds the cost of path resolutions.
// Re-exported from core package.
type Limits = core.Limits

// Attachment is a validated local file ready for upload.
// Re-exported from core package.
type Attachment = core.Attachment

// DefaultLimits returns the default resource limits.
func DefaultLimits() Limits { return core.DefaultLimits() }

// securityConfig collects SecurityManager options before wiring.
type securityConfig struct {
	allowedDirs []string
	allowTemp   bool
	limits      core.Limits
	policy      pathsec.Policy
	logger      *slog.Logger
}

// clientConfig collects Client options before wiring.
type clientConfig struct {
	security []SecurityOption
	logger   *slog.Logger
	cacheDir string
	noCache  bool
}

// attachConfig holds configuration for directory attachment.
type attachConfig struct {
	recursive bool
	pattern   string
}

// WithAllowedDirs adds directories to the trust boundary. Each directory must
// exist at construction time.
func WithAllowedDirs(dirs ...string) SecurityOption {
	return func(c *securityConfig) error {
		c.allowedDirs = append(c.allowedDirs, dirs...)
		return nil
	}
}

// WithAllowTemp permits paths under the system temp directories even when
// they fall outside the allowed directories.
func WithAllowTemp(allow bool) SecurityOption {
	return func(c *securityConfig) error {
		c.allowTemp = allow
		return nil
	}
}

// WithMaxDepth overrides the maximum symlink chain depth.
func WithMaxDepth(depth int) SecurityOption {
	return func(c *securityConfig) error {
		c.limits.MaxSymlinkDepth = depth
		return nil
	}
}

// WithLimits overrides all resource limits at once. Zero-valued fields fall
// back to defaults.
func WithLimits(limits Limits) SecurityOption {
	return func(c *securityConfig) error {
		c.limits = limits
		return nil
	}
}

// WithSecurityLogger sets a logger for the security subsystem. By default,
// logging is disabled.
func WithSecurityLogger(logger *slog.Logger) SecurityOption {
	return func(c *securityConfig) error {
		c.logger = logger
		return nil
	}
}

// withPolicy injects a platform policy; used by tests to exercise Windows
// validation on any OS.
func withPolicy(p pathsec.Policy) SecurityOption {
	return func(c *securityConfig) error {
		c.policy = p
		return nil
	}
}

// WithSecurity applies SecurityManager options to the client's manager.
func WithSecurity(opts ...SecurityOption) ClientOption {
	return func(c *clientConfig) error {
		c.security = append(c.security, opts...)
		return nil
	}
}

// WithLogger sets a logger for the client. By default, logging is disabled.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}

// WithCacheDir sets the directory for the content-addressed upload cache.
func WithCacheDir(dir string) ClientOption {
	return func(c *clientConfig) error {
		c.cacheDir = dir
		return nil
	}
}

// WithoutCache disables the upload cache entirely.
func WithoutCache() ClientOption {
	return func(c *clientConfig) error {
		c.noCache = true
		return nil
	}
}

// WithRecursive makes AttachDir descend into subdirectories.
func WithRecursive(recursive bool) AttachOption {
	return func(c *attachConfig) {
		c.recursive = recursive
	}
}

// WithPattern restricts AttachDir to files whose base name matches the glob
// pattern.
func WithPattern(pattern string) AttachOption {
	return func(c *attachConfig) {
		c.pattern = pattern
	}
}
