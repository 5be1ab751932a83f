package pathsec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaniv-golan/ostruct-go/core"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "simple absolute path",
			raw:  "/repo/file.txt",
			want: "/repo/file.txt",
		},
		{
			name: "collapses repeated slashes",
			raw:  "/repo//docs///a.txt",
			want: "/repo/docs/a.txt",
		},
		{
			name: "drops dot segments",
			raw:  "/repo/./docs/./a.txt",
			want: "/repo/docs/a.txt",
		},
		{
			name: "backslashes become forward slashes",
			raw:  `C:\Users\dev\file.txt`,
			want: "C:/Users/dev/file.txt",
		},
		{
			name: "trailing slash removed",
			raw:  "/repo/docs/",
			want: "/repo/docs",
		},
		{
			name:    "empty path",
			raw:     "",
			wantErr: core.ErrNormalization,
		},
		{
			name:    "parent traversal",
			raw:     "/repo/../etc/passwd",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "relative parent traversal",
			raw:     "../escape",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "backslash parent traversal",
			raw:     `repo\..\etc`,
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "two dot leader folds into traversal",
			raw:     "/repo/\u2025/etc/passwd",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "one dot leaders fold into traversal",
			raw:     "/repo/\u2024\u2024/etc",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "confusable dot without traversal",
			raw:     "/repo/file\u2024txt",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "fraction slash",
			raw:     "/repo/a\u2044b",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "fullwidth solidus",
			raw:     "\uff0fetc\uff0fpasswd",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "null byte",
			raw:     "/repo/fi\x00le",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "control character",
			raw:     "/repo/fi\x07le",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "next line separator",
			raw:     "/repo/a\u0085b",
			wantErr: core.ErrUnsafeUnicode,
		},
		{
			name:    "paragraph separator",
			raw:     "/repo/a\u2029b",
			wantErr: core.ErrUnsafeUnicode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, "Normalize(%q)", tt.raw)
				return
			}
			require.NoError(t, err, "Normalize(%q)", tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"/repo/file.txt",
		"/repo//docs/./a.txt",
		`C:\Users\dev`,
		"relative/sub/file.go",
	}
	for _, raw := range inputs {
		first, err := Normalize(raw)
		require.NoError(t, err, "Normalize(%q)", raw)
		second, err := Normalize(first)
		require.NoError(t, err, "Normalize(%q)", first)
		assert.Equal(t, first, second, "Normalize not idempotent for %q", raw)
	}
}

func TestNormalize_RelativeBecomesAbsolute(t *testing.T) {
	t.Parallel()

	got, err := Normalize("sub/file.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "/") || (len(got) > 1 && got[1] == ':'),
		"expected absolute path, got %q", got)
	assert.True(t, strings.HasSuffix(got, "/sub/file.txt"), "got %q", got)
}

func TestNormalize_NeverContainsDotDot(t *testing.T) {
	t.Parallel()

	// Anything that survives normalization must be free of ".." segments.
	inputs := []string{"/a/b/c", "x/y", `C:\d\e`, "/a/./b//c/"}
	for _, raw := range inputs {
		got, err := Normalize(raw)
		require.NoError(t, err)
		assert.False(t, hasDotDotSegment(got), "Normalize(%q) = %q contains ..", raw, got)
	}
}
