package filestore

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(&Config{RootDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestNew_CreatesDirectories(t *testing.T) {
	root := t.TempDir()

	_, err := New(&Config{RootDir: root})
	require.NoError(t, err)

	for _, dir := range []string{"originals", "processed"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSaveOriginal(t *testing.T) {
	s := newTestStore(t)

	relPath, err := s.SaveOriginal("cat.PNG", strings.NewReader("image-data"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(relPath, "originals/"))
	assert.True(t, strings.HasSuffix(relPath, ".png"), "extension should be lowercased: %s", relPath)

	f, err := s.Open(relPath)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image-data", string(data))
}

func TestSaveOriginal_UniqueNames(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveOriginal("cat.png", strings.NewReader("a"))
	require.NoError(t, err)

	second, err := s.SaveOriginal("cat.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveProcessed(t *testing.T) {
	s := newTestStore(t)

	relPath, err := s.SaveProcessed([]byte("processed-data"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(relPath, "processed/"))
	assert.True(t, strings.HasSuffix(relPath, ".png"))

	f, err := s.Open(relPath)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "processed-data", string(data))
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)

	relPath, err := s.SaveOriginal("cat.png", strings.NewReader("image-data"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(relPath))

	_, err = s.Open(relPath)
	assert.Error(t, err)

	// Removing an already-removed file is not an error
	assert.NoError(t, s.Remove(relPath))
}

func TestResolve_RejectsEscapingPaths(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "parent traversal", path: "../outside.txt"},
		{name: "nested traversal", path: "originals/../../outside.txt"},
		{name: "absolute path", path: "/etc/passwd"},
		{name: "bare dot", path: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Open(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid storage path")
		})
	}
}
