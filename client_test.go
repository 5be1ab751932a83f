package ostruct

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, base string, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{
		WithSecurity(WithLimits(fastLimits())),
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
	}, opts...)
	c, err := NewClient(base, opts...)
	require.NoError(t, err)
	return c
}

func TestClient_AttachFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	file := writeFile(t, base, "config.yaml", "key: value\n")
	c := newTestClient(t, base)

	att, err := c.AttachFile("config", file)
	require.NoError(t, err)
	assert.Equal(t, "config", att.Alias)
	assert.Equal(t, filepath.ToSlash(file), att.Path)
	assert.Equal(t, int64(len("key: value\n")), att.Size)
	assert.True(t, strings.HasPrefix(att.Digest, "sha256:"), "digest %q", att.Digest)

	// Same content on the second attach is a cache hit with the same digest.
	again, err := c.AttachFile("config", file)
	require.NoError(t, err)
	assert.Equal(t, att.Digest, again.Digest)
}

func TestClient_AttachFile_Rejections(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	c := newTestClient(t, base)

	_, err := c.AttachFile("x", base+"/../escape.txt")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = c.AttachFile("x", "/outside/file.txt")
	assert.ErrorIs(t, err, ErrPathOutsideAllowed)

	_, err = c.AttachFile("dir", base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestClient_WithoutCache(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	file := writeFile(t, base, "a.txt", "x")
	c, err := NewClient(base, WithoutCache(), WithSecurity(WithLimits(fastLimits())))
	require.NoError(t, err)
	assert.Nil(t, c.Cache())

	att, err := c.AttachFile("a", file)
	require.NoError(t, err)
	assert.Empty(t, att.Digest, "no digest without a cache")
}

func TestClient_AttachDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "a.go", "package a\n")
	writeFile(t, base, "b.txt", "b")
	require.NoError(t, os.Mkdir(filepath.Join(base, "sub"), 0o750))
	writeFile(t, filepath.Join(base, "sub"), "c.go", "package c\n")

	c := newTestClient(t, base)

	t.Run("flat", func(t *testing.T) {
		t.Parallel()
		atts, err := c.AttachDir("src", base)
		require.NoError(t, err)
		assert.Len(t, atts, 2, "non-recursive walk stays in the top directory")
	})

	t.Run("recursive", func(t *testing.T) {
		t.Parallel()
		atts, err := c.AttachDir("src", base, WithRecursive(true))
		require.NoError(t, err)
		assert.Len(t, atts, 3)
	})

	t.Run("pattern", func(t *testing.T) {
		t.Parallel()
		atts, err := c.AttachDir("src", base, WithRecursive(true), WithPattern("*.go"))
		require.NoError(t, err)
		require.Len(t, atts, 2)
		aliases := []string{atts[0].Alias, atts[1].Alias}
		assert.Contains(t, aliases, "src/a.go")
		assert.Contains(t, aliases, "src/sub/c.go")
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()
		_, err := c.AttachDir("x", base+"/../somewhere")
		assert.ErrorIs(t, err, ErrPathTraversal)
	})
}

func TestClient_AttachDir_SymlinkInside(t *testing.T) {
	t.Parallel()

	// A symlink planted inside an attached directory cannot smuggle in an
	// outside target: every file passes full validation on its own.
	base := t.TempDir()
	outside := t.TempDir()
	secret := writeFile(t, outside, "secret.txt", "x")
	writeFile(t, base, "ok.txt", "x")
	require.NoError(t, os.Symlink(secret, filepath.Join(base, "planted")))

	c := newTestClient(t, base)
	_, err := c.AttachDir("d", base)
	assert.ErrorIs(t, err, ErrSymlinkTargetNotAllowed)
}

func TestClient_Collect(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, base, "a.txt", "a")
	require.NoError(t, os.Mkdir(filepath.Join(base, "docs"), 0o750))
	writeFile(t, filepath.Join(base, "docs"), "b.md", "b")
	list := writeFile(t, base, "files.txt", "a.txt\n\n# a comment\ndocs/b.md\n")

	c := newTestClient(t, base)
	atts, err := c.Collect("bundle", list)
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "bundle/a.txt", atts[0].Alias)
	assert.Equal(t, "bundle/b.md", atts[1].Alias)
}

func TestClient_Collect_BadEntry(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	list := writeFile(t, base, "files.txt", "missing.txt\n")

	c := newTestClient(t, base)
	_, err := c.Collect("bundle", list)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), "line 1")
}
