package ostruct

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaniv-golan/ostruct-go/internal/pathsec"
)

// fastLimits keeps validation latency out of tests: no response-time padding.
func fastLimits() Limits {
	l := DefaultLimits()
	l.MinResponseTime = 0
	return l
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewSecurityManager(t *testing.T) {
	t.Parallel()

	t.Run("base dir must exist", func(t *testing.T) {
		t.Parallel()
		_, err := NewSecurityManager(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrDirectoryNotFound)
	})

	t.Run("allowed dir must exist", func(t *testing.T) {
		t.Parallel()
		base := t.TempDir()
		_, err := NewSecurityManager(base, WithAllowedDirs(filepath.Join(base, "missing")))
		assert.ErrorIs(t, err, ErrDirectoryNotFound)
	})

	t.Run("base dir is always allowed", func(t *testing.T) {
		t.Parallel()
		base := t.TempDir()
		sm, err := NewSecurityManager(base)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.ToSlash(base)}, sm.AllowedDirectories())
	})

	t.Run("empty base means working directory", func(t *testing.T) {
		t.Parallel()
		sm, err := NewSecurityManager("")
		require.NoError(t, err)
		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(cwd), sm.BaseDir())
	})
}

func TestSecurityManager_AddAllowedDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	extra := t.TempDir()
	sm, err := NewSecurityManager(base)
	require.NoError(t, err)

	require.NoError(t, sm.AddAllowedDirectory(extra))
	require.NoError(t, sm.AddAllowedDirectory(extra), "adding twice is a no-op")
	assert.Len(t, sm.AllowedDirectories(), 2)

	err = sm.AddAllowedDirectory(filepath.Join(base, "missing"))
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestSecurityManager_ValidatePath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	shared := t.TempDir()
	file := writeFile(t, base, "file.txt", "data")
	sharedFile := writeFile(t, shared, "data.csv", "a,b")

	sm, err := NewSecurityManager(base,
		WithAllowedDirs(shared),
		WithLimits(fastLimits()),
	)
	require.NoError(t, err)

	t.Run("file inside base", func(t *testing.T) {
		t.Parallel()
		got, err := sm.ValidatePath(file)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(file), got)
	})

	t.Run("file inside extra allowed dir", func(t *testing.T) {
		t.Parallel()
		got, err := sm.ValidatePath(sharedFile)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(sharedFile), got)
	})

	t.Run("traversal", func(t *testing.T) {
		t.Parallel()
		// filepath.Join would clean the dot-dot away; the raw string is what
		// an attacker actually supplies.
		_, err := sm.ValidatePath(base + "/../etc/passwd")
		assert.ErrorIs(t, err, ErrPathTraversal)
	})

	t.Run("outside allowed regardless of existence", func(t *testing.T) {
		t.Parallel()
		// The error is identical whether the target exists or not; an
		// unauthorized caller learns nothing about the filesystem.
		_, errMissing := sm.ValidatePath("/outside/never-created.txt")
		assert.ErrorIs(t, errMissing, ErrPathOutsideAllowed)

		_, errExisting := sm.ValidatePath("/etc/passwd")
		assert.ErrorIs(t, errExisting, ErrPathOutsideAllowed)
	})

	t.Run("boundary recorded in error", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ValidatePath("/outside/f.txt")
		var se *SecurityError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, sm.BaseDir(), se.BaseDir)
		assert.Contains(t, se.AllowedDirs, filepath.ToSlash(shared))
	})

	t.Run("missing file inside base", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ValidatePath(filepath.Join(base, "missing.txt"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsafe unicode", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ValidatePath(filepath.Join(base, "file․txt"))
		assert.ErrorIs(t, err, ErrUnsafeUnicode)
	})
}

func TestSecurityManager_TempPaths(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	tempDir, err := os.MkdirTemp("", "ostruct-temp-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })
	tempFile := writeFile(t, tempDir, "scratch.txt", "x")

	t.Run("rejected by default", func(t *testing.T) {
		t.Parallel()
		sm, err := NewSecurityManager(base, WithLimits(fastLimits()))
		require.NoError(t, err)
		_, err = sm.ValidatePath(tempFile)
		assert.ErrorIs(t, err, ErrTempPathsNotAllowed)
	})

	t.Run("permitted with allow-temp", func(t *testing.T) {
		t.Parallel()
		sm, err := NewSecurityManager(base, WithAllowTemp(true), WithLimits(fastLimits()))
		require.NoError(t, err)
		got, err := sm.ValidatePath(tempFile)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(tempFile), got)
		assert.True(t, sm.IsPathAllowed(tempFile))
	})
}

func TestSecurityManager_Symlinks(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	file := writeFile(t, base, "target.txt", "data")
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(file, link))

	outside := t.TempDir()
	secret := writeFile(t, outside, "secret.txt", "x")
	escape := filepath.Join(base, "escape")
	require.NoError(t, os.Symlink(secret, escape))

	dangling := filepath.Join(base, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(base, "gone.txt"), dangling))

	sm, err := NewSecurityManager(base, WithLimits(fastLimits()))
	require.NoError(t, err)

	t.Run("resolves to target", func(t *testing.T) {
		t.Parallel()
		got, err := sm.ValidatePath(link)
		require.NoError(t, err)
		assert.Equal(t, filepath.ToSlash(file), got)
	})

	t.Run("escaping target rejected", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ValidatePath(escape)
		assert.ErrorIs(t, err, ErrSymlinkTargetNotAllowed)
	})

	t.Run("broken symlink", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ValidatePath(dangling)
		assert.ErrorIs(t, err, ErrSymlinkBroken)
	})

	t.Run("resolve path remaps broken to not found", func(t *testing.T) {
		t.Parallel()
		_, err := sm.ResolvePath(dangling)
		assert.ErrorIs(t, err, ErrFileNotFound)
		assert.ErrorIs(t, err, ErrSymlinkBroken, "the cause stays inspectable")
	})

	t.Run("resolve path keeps loops as security errors", func(t *testing.T) {
		t.Parallel()
		a := filepath.Join(base, "loop-a")
		b := filepath.Join(base, "loop-b")
		require.NoError(t, os.Symlink(b, a))
		require.NoError(t, os.Symlink(a, b))
		_, err := sm.ResolvePath(a)
		assert.ErrorIs(t, err, ErrSymlinkLoop)
	})
}

func TestSecurityManager_MaxDepth(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	file := writeFile(t, base, "file.txt", "x")
	prev := file
	for i := 0; i < 3; i++ {
		link := filepath.Join(base, "hop"+string(rune('0'+i)))
		require.NoError(t, os.Symlink(prev, link))
		prev = link
	}

	limits := fastLimits()
	limits.MaxSymlinkDepth = 3
	sm, err := NewSecurityManager(base, WithLimits(limits))
	require.NoError(t, err)

	_, err = sm.ValidatePath(prev)
	assert.ErrorIs(t, err, ErrSymlinkMaxDepth)
}

func TestSecurityManager_CasePreservation(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "Report.txt", "x")

	sm, err := NewSecurityManager(base,
		withPolicy(pathsec.WindowsPolicy()),
		WithLimits(fastLimits()),
	)
	require.NoError(t, err)

	first := filepath.Join(base, "Report.txt")
	_, err = sm.ValidatePath(first)
	require.NoError(t, err)

	_, err = sm.ValidatePath(filepath.Join(base, "REPORT.TXT"))
	assert.ErrorIs(t, err, ErrCaseMismatch)

	// A scope makes the recorded casing request-local.
	scope := sm.CaseScope()
	scope.Close()
	scope.Close() // idempotent

	_, err = sm.ValidatePath(first)
	assert.NoError(t, err, "original casing stays valid")
}

func TestSecurityManager_WindowsHazardInput(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	sm, err := NewSecurityManager(base,
		withPolicy(pathsec.WindowsPolicy()),
		WithLimits(fastLimits()),
	)
	require.NoError(t, err)

	_, err = sm.ValidatePath(`\\.\PhysicalDrive0`)
	assert.ErrorIs(t, err, ErrNormalization)
	var se *SecurityError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Windows)
	assert.Equal(t, "device path", se.Hint)
}

func TestSecurityManager_IsPathAllowed(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	sm, err := NewSecurityManager(base, WithLimits(fastLimits()))
	require.NoError(t, err)

	assert.True(t, sm.IsPathAllowed(filepath.Join(base, "anything.txt")))
	assert.False(t, sm.IsPathAllowed("/outside/f.txt"))
	assert.False(t, sm.IsPathAllowed(base+"/../up.txt"), "fails closed")
}

func TestSafeJoinReexport(t *testing.T) {
	t.Parallel()

	got, ok := SafeJoin("/repo", "docs", "a.md")
	assert.True(t, ok)
	assert.Equal(t, "/repo/docs/a.md", got)

	_, ok = SafeJoin("/repo", "../escape")
	assert.False(t, ok)
}
