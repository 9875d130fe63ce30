package devtool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/logstore"
)

func newTestTool(t *testing.T) (*Tool, string) {
	t.Helper()
	logs, err := logstore.New(t.TempDir(), logstore.Config{})
	require.NoError(t, err)
	dir := t.TempDir()
	return New(logs, dir), dir
}

func TestInitWritesSkeletonFiles(t *testing.T) {
	tool, dir := newTestTool(t)
	path := filepath.Join(dir, "project")

	require.NoError(t, tool.Init(path))

	for name := range skeletonFiles {
		contents, err := os.ReadFile(filepath.Join(path, name))
		require.NoError(t, err)
		require.Equal(t, skeletonFiles[name], string(contents))
	}
}

func TestInitDoesNotClobberExistingFiles(t *testing.T) {
	tool, dir := newTestTool(t)
	path := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "go.mod"), []byte("module custom\n"), 0o644))

	require.NoError(t, tool.Init(path))

	contents, err := os.ReadFile(filepath.Join(path, "go.mod"))
	require.NoError(t, err)
	require.Equal(t, "module custom\n", string(contents))
}

func TestBuildReleaseAddsStripFlags(t *testing.T) {
	tool, dir := newTestTool(t)
	require.NoError(t, tool.Init(dir))

	err := tool.Build(context.Background(), "release")
	if err != nil {
		require.Contains(t, err.Error(), "go build")
	}
}

func TestCleanRemovesBinDirectory(t *testing.T) {
	tool, dir := newTestTool(t)
	require.NoError(t, tool.Init(dir))
	binDir := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "out"), []byte("x"), 0o644))

	_ = tool.Clean(context.Background())

	_, err := os.Stat(binDir)
	require.True(t, os.IsNotExist(err))
}

func TestIndexByteFindsFirstMatch(t *testing.T) {
	require.Equal(t, 3, indexByte([]byte("abc\nxyz"), '\n'))
	require.Equal(t, -1, indexByte([]byte("abc"), '\n'))
}

func TestJoinArgsSpacesTokens(t *testing.T) {
	require.Equal(t, "build ./...", joinArgs([]string{"build", "./..."}))
	require.Equal(t, "", joinArgs(nil))
}
