package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susamn/lib-filesystem-view/fsys/testfs"
)

func newTestFacade(t *testing.T, fs *testfs.Filesystem, opts ...Option) *Facade {
	t.Helper()
	f, err := New(fs, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExpandPathCreatesIntermediateExpansionsButNotTheFinalNode(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/b/c")
	f := newTestFacade(t, fs)

	deepest, err := f.ExpandPath(context.Background(), "/a/b/c", false, true)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", deepest)

	selected, ok := f.SelectedPath()
	assert.True(t, ok)
	assert.Equal(t, "/a/b/c", selected)

	assert.Equal(t, []string{"/a/b/c"}, f.ExpandedPaths())
}

func TestExpandedPathsIsEmptyBeforeAnyExpansion(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/b")
	f := newTestFacade(t, fs)

	assert.Equal(t, []string{}, f.ExpandedPaths())
}

func TestExpandPathRootAloneReportsRootAsFrontier(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a")
	f := newTestFacade(t, fs)

	deepest, err := f.ExpandPath(context.Background(), "/", false, false)
	require.NoError(t, err)
	assert.Equal(t, "/", deepest)
	assert.Equal(t, []string{"/"}, f.ExpandedPaths())
}

func TestCollapseForcesDescendantsAndClearsSelectionFrontier(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/b/c")
	f := newTestFacade(t, fs)
	ctx := context.Background()

	_, err := f.ExpandPath(ctx, "/a/b/c", true, true)
	require.NoError(t, err)
	require.NotEmpty(t, f.ExpandedPaths())

	f.root.SetExpanded(ctx, false)
	assert.Equal(t, []string{}, f.ExpandedPaths())
}

func TestExpandPathDomainMismatch(t *testing.T) {
	fs := testfs.New("t")
	other := testfs.New("other")
	f := newTestFacade(t, fs)

	_, err := f.ExpandPathOn(context.Background(), other, "/a", false, false)
	require.Error(t, err)
	var mismatch *DomainMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestExpandPathNonAbsolute(t *testing.T) {
	fs := testfs.New("t")
	f := newTestFacade(t, fs)

	_, err := f.ExpandPath(context.Background(), "relative/path", false, false)
	require.Error(t, err)
	var nonAbs *NonAbsolutePathError
	require.ErrorAs(t, err, &nonAbs)
}

func TestExpandPathStopsAtDeepestAvailableComponent(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/b")
	f := newTestFacade(t, fs)

	deepest, err := f.ExpandPath(context.Background(), "/a/b/missing/more", false, false)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", deepest)
}

func TestUpdateTreeRereadsExpandedDirectories(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a")
	f := newTestFacade(t, fs)
	ctx := context.Background()

	_, err := f.ExpandPath(ctx, "/a", true, false)
	require.NoError(t, err)

	fs.Mkdir("/a/newchild")
	f.UpdateTree(ctx)

	aCtrl := findChildController(t, f.root, "/a")
	assert.NotNil(t, aCtrl.FindChildByName("newchild"))
}

func findChildController(t *testing.T, root *NodeChildren, path string) NodeController {
	t.Helper()
	rootEntry := root.findChildByPath("/")
	require.NotNil(t, rootEntry)
	ctrl, ok := rootEntry.Controller().(NodeController)
	require.True(t, ok)
	if path == "/" {
		return ctrl
	}
	for _, comp := range splitTestPath(path) {
		child := ctrl.FindChildByName(comp)
		require.NotNil(t, child, "missing component %q", comp)
		ctrl, ok = child.Controller().(NodeController)
		require.True(t, ok)
	}
	return ctrl
}

func splitTestPath(p string) []string {
	var parts []string
	cur := ""
	for _, r := range p {
		if r == '/' {
			if cur != "" {
				parts = append(parts, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		parts = append(parts, cur)
	}
	return parts
}
