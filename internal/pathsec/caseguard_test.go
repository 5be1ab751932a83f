package pathsec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaniv-golan/ostruct-go/core"
)

func TestCaseRegistry_Check(t *testing.T) {
	t.Parallel()

	reg := NewCaseRegistry()

	require.NoError(t, reg.Check("/base/File.txt"))
	require.NoError(t, reg.Check("/base/File.txt"), "same casing is always fine")

	err := reg.Check("/base/file.TXT")
	assert.ErrorIs(t, err, core.ErrCaseMismatch)

	var se *core.SecurityError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Hint, "/base/File.txt", "hint names the first-seen casing")

	// Distinct paths never collide.
	require.NoError(t, reg.Check("/base/other.txt"))
	assert.Equal(t, 2, reg.Len())
}

func TestCaseRegistry_Scope(t *testing.T) {
	t.Parallel()

	reg := NewCaseRegistry()
	require.NoError(t, reg.Check("/base/a.txt"))

	scope := reg.Scope()
	require.NoError(t, reg.Check("/base/b.txt"))
	assert.Equal(t, 2, reg.Len())

	scope.Close()
	assert.Equal(t, 1, reg.Len(), "scope close discards casing recorded inside it")

	// The casing seen inside the scope no longer binds.
	require.NoError(t, reg.Check("/base/B.TXT"))

	scope.Close() // idempotent
}

func TestCaseRegistry_PreexistingSurvivesScope(t *testing.T) {
	t.Parallel()

	reg := NewCaseRegistry()
	require.NoError(t, reg.Check("/base/a.txt"))

	scope := reg.Scope()
	scope.Close()

	assert.ErrorIs(t, reg.Check("/base/A.txt"), core.ErrCaseMismatch)
}
