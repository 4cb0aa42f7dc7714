package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/adapters/fs"
	"go.trai.ch/gridlock/internal/core/domain"
)

// writeSourceTree lays out:
//
//	.git/config
//	empty/
//	link -> src/main.go
//	run.sh (executable)
//	src/main.go
func writeSourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("git config"), domain.PrivateFilePerm))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), domain.DirPerm))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main"), domain.PrivateFilePerm))
	require.NoError(t, os.WriteFile(filepath.Join(root, "run.sh"), []byte("#!/bin/sh\n"), domain.PrivateFilePerm))
	require.NoError(t, os.Chmod(filepath.Join(root, "run.sh"), 0o755)) //nolint:gosec // Test needs an executable file
	require.NoError(t, os.Symlink("src/main.go", filepath.Join(root, "link")))

	return root
}

func TestWalker_ReadDir(t *testing.T) {
	t.Parallel()
	root := writeSourceTree(t)

	tree, err := fs.NewWalker().ReadDir(root, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"empty", "link", "run.sh", "src"}, tree.Names())

	node, ok := tree.Lookup("src/main.go")
	require.True(t, ok)
	assert.Equal(t, &domain.Regular{Contents: []byte("package main")}, node)

	node, ok = tree.Lookup("run.sh")
	require.True(t, ok)
	assert.True(t, node.(*domain.Regular).Executable)

	node, ok = tree.Lookup("link")
	require.True(t, ok)
	assert.Equal(t, &domain.Symlink{Target: "src/main.go"}, node)

	node, ok = tree.Lookup("empty")
	require.True(t, ok)
	assert.Zero(t, node.(*domain.Directory).Len())
}

func TestWalker_ReadDir_IncludeVCS(t *testing.T) {
	t.Parallel()
	root := writeSourceTree(t)

	tree, err := fs.NewWalker().ReadDir(root, true)
	require.NoError(t, err)

	node, ok := tree.Lookup(".git/config")
	require.True(t, ok)
	assert.Equal(t, []byte("git config"), node.(*domain.Regular).Contents)
}

func TestWalker_ReadDir_Missing(t *testing.T) {
	t.Parallel()

	_, err := fs.NewWalker().ReadDir(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
}
