package pathsec

import (
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/yaniv-golan/ostruct-go/core"
)

// Resolver follows symlink chains with deterministic bounds. It detects loops
// before existence checks, re-validates allowed-directory membership at every
// hop, and charges every filesystem operation against the owning request.
//
// Resolving a non-symlink path is idempotent: it returns the normalized path
// unchanged.
type Resolver struct {
	policy Policy
	logger *slog.Logger
}

// NewResolver creates a Resolver using the given platform policy.
func NewResolver(policy Policy, logger *slog.Logger) *Resolver {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{policy: policy, logger: logger}
}

// Resolve follows the symlink chain starting at path. The check order is
// fixed; swapping it changes which error the same malformed input produces:
//
//  1. depth bound (checked first, bounding cost deterministically)
//  2. normalize; terminal success if not a symlink
//  3. loop detection by readlink only, no existence checks
//  4. read and absolutize the immediate target
//  5. platform validation of the target
//  6. existence check (after loop detection, so a never-existing cycle
//     reports as a loop, not broken)
//  7. allowed-directory membership of the target
//  8. next hop
//
// Every error is terminal; nothing here retries.
func (r *Resolver) Resolve(p string, maxDepth int, allowedDirs []string, req *Request) (string, error) {
	seen := make(map[string]bool)
	var chain []string
	current := p

	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return "", core.NewSecurityError(core.ReasonSymlinkMaxDepth, p).WithChain(chain)
		}

		norm, err := Normalize(current)
		if err != nil {
			return "", err
		}

		if err := req.ChargeOp(); err != nil {
			return "", err
		}
		fi, lerr := os.Lstat(ToOSPath(norm))
		if lerr != nil {
			if os.IsNotExist(lerr) {
				// Not a symlink. Existence is the caller's last gate.
				return norm, nil
			}
			return "", core.NewSecurityError(core.ReasonSymlinkError, norm).
				WithChain(chain).WithCause(lerr)
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			return norm, nil
		}

		if seen[r.key(norm)] {
			return "", core.NewSecurityError(core.ReasonSymlinkLoop, p).WithChain(chain)
		}
		seen[r.key(norm)] = true
		chain = append(chain, norm)

		if err := r.detectLoop(norm, seen, maxDepth-depth, chain, req); err != nil {
			return "", err
		}

		if err := req.ChargeOp(); err != nil {
			return "", err
		}
		target, rerr := os.Readlink(ToOSPath(norm))
		if rerr != nil {
			return "", core.NewSecurityError(core.ReasonSymlinkError, norm).
				WithChain(chain).WithCause(rerr)
		}
		tnorm, err := Normalize(absolutizeTarget(norm, target))
		if err != nil {
			return "", err
		}

		if hint := r.policy.Validate(tnorm); hint != "" {
			return "", core.NewSecurityError(core.ReasonSymlinkError, tnorm).
				WithChain(chain).WithHint(hint).MarkWindows()
		}

		if err := req.ChargeOp(); err != nil {
			return "", err
		}
		if _, serr := os.Lstat(ToOSPath(tnorm)); serr != nil {
			if os.IsNotExist(serr) {
				return "", core.NewSecurityError(core.ReasonSymlinkBroken, norm).
					WithChain(chain).WithHint("target missing: " + tnorm)
			}
			return "", core.NewSecurityError(core.ReasonSymlinkError, tnorm).
				WithChain(chain).WithCause(serr)
		}

		if err := req.ChargeOp(); err != nil {
			return "", err
		}
		if !IsAllowed(tnorm, allowedDirs, r.policy) {
			return "", core.NewSecurityError(core.ReasonSymlinkTargetNotAllowed, tnorm).
				WithChain(chain)
		}

		r.logger.Debug("symlink hop", "id", req.ID(), "from", norm, "to", tnorm, "depth", depth)
		current = tnorm
	}
}

// detectLoop walks the chain ahead of the current link using readlink only,
// bounded by the remaining depth. Existence is deliberately not consulted:
// some filesystems report every member of a cycle as nonexistent, which would
// otherwise misclassify a loop as broken.
func (r *Resolver) detectLoop(start string, seen map[string]bool, remaining int, chain []string, req *Request) error {
	walked := make(map[string]bool)
	lookChain := append([]string(nil), chain...)
	cur := start

	for i := 0; i < remaining; i++ {
		if err := req.ChargeOp(); err != nil {
			return err
		}
		target, err := os.Readlink(ToOSPath(cur))
		if err != nil {
			// End of chain (not a symlink, or unreadable): no loop from here.
			return nil
		}
		norm, nerr := Normalize(absolutizeTarget(cur, target))
		if nerr != nil {
			// The main loop will classify the malformed target.
			return nil
		}
		if seen[r.key(norm)] || walked[r.key(norm)] {
			return core.NewSecurityError(core.ReasonSymlinkLoop, start).
				WithChain(append(lookChain, norm))
		}
		walked[r.key(norm)] = true
		lookChain = append(lookChain, norm)
		cur = norm
	}
	return nil
}

// key folds a normalized path for seen-set membership on case-insensitive
// platforms.
func (r *Resolver) key(p string) string {
	if r.policy.CaseInsensitive() {
		return strings.ToLower(p)
	}
	return p
}

// absolutizeTarget rewrites a symlink target to an absolute forward-slash
// path. Relative targets resolve lexically against the link's directory; any
// ".." in the target collapses here, before normalization.
func absolutizeTarget(link, target string) string {
	t := strings.ReplaceAll(target, `\`, "/")
	if isAbsSlashed(t) {
		return cleanSlashed(t)
	}
	return cleanSlashed(path.Join(path.Dir(link), t))
}
