package pathsec

import (
	"strings"
	"sync"

	"github.com/yaniv-golan/ostruct-go/core"
)

// CaseRegistry records the first-seen casing of each path on case-insensitive
// platforms, so the same file referenced with two different casings is caught
// as spoofing rather than silently unified.
//
// The registry is owned by a SecurityManager instance, never process-wide, so
// state cannot leak across managers.
type CaseRegistry struct {
	mu   sync.Mutex
	seen map[string]string // folded path -> first-seen casing
}

// NewCaseRegistry creates an empty registry.
func NewCaseRegistry() *CaseRegistry {
	return &CaseRegistry{seen: make(map[string]string)}
}

// Check records the casing of a normalized path and fails with a case
// mismatch if the same path was previously seen with different casing.
func (c *CaseRegistry) Check(path string) error {
	folded := strings.ToLower(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.seen[folded]; ok {
		if prev != path {
			return core.NewSecurityError(core.ReasonCaseMismatch, path).
				WithHint("previously seen as " + prev)
		}
		return nil
	}
	c.seen[folded] = path
	return nil
}

// Len returns the number of recorded paths.
func (c *CaseRegistry) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// Scope snapshots the registry. Closing the scope restores the snapshot,
// discarding any casing recorded inside it. Close is idempotent and must run
// on every exit path.
func (c *CaseRegistry) Scope() *CaseScope {
	c.mu.Lock()
	defer c.mu.Unlock()
	saved := make(map[string]string, len(c.seen))
	for k, v := range c.seen {
		saved[k] = v
	}
	return &CaseScope{reg: c, saved: saved}
}

// CaseScope is the cleanup resource returned by CaseRegistry.Scope.
type CaseScope struct {
	reg   *CaseRegistry
	saved map[string]string
	once  sync.Once
}

// Close restores the registry to its state at scope creation.
func (s *CaseScope) Close() {
	s.once.Do(func() {
		s.reg.mu.Lock()
		s.reg.seen = s.saved
		s.reg.mu.Unlock()
	})
}
