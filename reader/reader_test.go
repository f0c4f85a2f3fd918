package reader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys/testfs"
	"github.com/susamn/lib-filesystem-view/policy"
)

func names(entries []entry.DirectoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}

func TestReadFiltersHiddenAndFilesByDefault(t *testing.T) {
	fs := testfs.New("fs1")
	fs.Mkdir("/root/sub")
	fs.Mkdir("/root/.hidden")
	fs.WriteFile("/root/note.txt")

	pol := policy.NewDefaultPolicy()
	parent := entry.NewFilesystemRoot(fs, "/root")

	result, err := Read(context.Background(), parent, fs, pol)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sub"}, names(result.Entries))
	assert.True(t, result.StartWatch)
}

func TestReadIncludesFilesWhenPolicySaysSo(t *testing.T) {
	fs := testfs.New("fs1")
	fs.Mkdir("/root")
	fs.WriteFile("/root/note.txt")

	pol := &policy.DefaultPolicy{ShowFiles: true}
	parent := entry.NewFilesystemRoot(fs, "/root")

	result, err := Read(context.Background(), parent, fs, pol)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"note.txt"}, names(result.Entries))
}

func TestReadLeafSkipsListing(t *testing.T) {
	fs := testfs.New("fs1")
	fs.Mkdir("/root/sub")

	pol := &leafAlwaysPolicy{DefaultPolicy: policy.NewDefaultPolicy()}
	parent := entry.NewFilesystemRoot(fs, "/root")

	result, err := Read(context.Background(), parent, fs, pol)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

type leafAlwaysPolicy struct {
	*policy.DefaultPolicy
}

func (leafAlwaysPolicy) IsLeafNode(context.Context, entry.DirectoryEntry) bool { return true }

func TestReadRootsSkipsSingleRoot(t *testing.T) {
	fs := testfs.New("fs1")
	fs.Mkdir("/child")

	pol := policy.NewDefaultPolicy()
	result, err := ReadRoots(context.Background(), fs, pol, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"child"}, names(result.Entries))
}

func TestReadRootsKeepsRootNodeWhenNotSkipping(t *testing.T) {
	fs := testfs.New("fs1")
	fs.Mkdir("/child")

	pol := policy.NewDefaultPolicy()
	result, err := ReadRoots(context.Background(), fs, pol, false)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	root, ok := result.Entries[0].(*entry.FilesystemRoot)
	require.True(t, ok)
	assert.Equal(t, "/", root.Path())
}

func TestReadMissingDirReturnsError(t *testing.T) {
	fs := testfs.New("fs1")
	pol := policy.NewDefaultPolicy()
	parent := entry.NewSubdirectory(fs, "/does-not-exist", "does-not-exist")

	_, err := Read(context.Background(), parent, fs, pol)
	assert.Error(t, err)
}
