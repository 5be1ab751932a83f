// Package ostruct attaches local files to LLM prompts and tool invocations.
//
// Every user-supplied path passes through the path security subsystem before
// any file content is read: Unicode-safe normalization, allowed-directory
// checks, Windows path validation, and bounded symlink resolution under hard
// resource limits. The whole point of the tool is reading arbitrary
// user-named files and forwarding their contents to a remote service, so a
// single bypass here is a full security failure.
//
// # Basic Usage
//
// Create a client rooted at a base directory and attach files:
//
//	client, err := ostruct.NewClient(".",
//	    ostruct.WithAllowedDirs("/shared/docs"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Attach a single file
//	att, err := client.AttachFile("config", "config.yaml")
//
//	// Attach every file under a directory
//	atts, err := client.AttachDir("src", "./src", ostruct.WithRecursive(true))
//
// # Trust Boundary
//
// The base directory plus any explicitly allowed directories form the trust
// boundary. Paths outside it are rejected with ErrPathOutsideAllowed, whether
// or not they exist, so rejection cannot be used as an existence oracle.
// Symlinks are followed at most MaxSymlinkDepth hops, each hop re-validated
// against the boundary.
//
// # Errors
//
// All rejections are *SecurityError values carrying a reason code and the
// offending path. They unwrap to sentinel errors for errors.Is:
//
//	if errors.Is(err, ostruct.ErrSymlinkLoop) { ... }
//
// Resource-limit rejections (ErrConcurrencyLimit, ErrOpQuota, ErrTimeBudget)
// may be retried at lower concurrency; security rejections must not be
// retried unchanged.
//
// This package is not an OS-level sandbox and does not eliminate TOCTOU races
// between validation and file use.
package ostruct
