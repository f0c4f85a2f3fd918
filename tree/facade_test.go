package tree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/fsys/testfs"
	"github.com/susamn/lib-filesystem-view/policy"
)

func childNames(ctrl NodeController) []string {
	nc, ok := ctrl.(*NodeChildren)
	if !ok {
		return nil
	}
	nc.mu.Lock()
	defer nc.mu.Unlock()
	var names []string
	for _, item := range nc.list.Items() {
		names = append(names, item.Name())
	}
	return names
}

func TestWatchCreateAndDeleteKeepChildListInSync(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/b")
	// The entries below are created with WriteFile (testfs.Mkdir fires no
	// watch event), so the policy must show regular files.
	f := newTestFacade(t, fs, WithPolicy(&policy.DefaultPolicy{ShowFiles: true, FollowSymlinks: true}))
	ctx := context.Background()

	_, err := f.ExpandPath(ctx, "/a/b", true, false)
	require.NoError(t, err)
	bCtrl := findChildController(t, f.root, "/a/b")

	fs.WriteFile("/a/b/subdir2")
	require.Eventually(t, func() bool {
		return childNames(bCtrl) != nil && contains(childNames(bCtrl), "subdir2")
	}, time.Second, time.Millisecond)

	fs.WriteFile("/a/b/subdir1")
	require.Eventually(t, func() bool {
		return sameSet(childNames(bCtrl), []string{"subdir1", "subdir2"})
	}, time.Second, time.Millisecond)

	fs.Remove("/a/b/subdir2")
	require.Eventually(t, func() bool {
		return sameSet(childNames(bCtrl), []string{"subdir1"})
	}, time.Second, time.Millisecond)

	fs.WriteFile("/a/b/subdir3")
	require.Eventually(t, func() bool {
		return sameSet(childNames(bCtrl), []string{"subdir1", "subdir3"})
	}, time.Second, time.Millisecond)

	fs.Remove("/a/b/subdir1")
	fs.Remove("/a/b/subdir3")
	require.Eventually(t, func() bool {
		return len(childNames(bCtrl)) == 0
	}, time.Second, time.Millisecond)
}

func TestWatchOverflowTriggersFullResync(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a")
	f := newTestFacade(t, fs)
	ctx := context.Background()

	_, err := f.ExpandPath(ctx, "/a", true, false)
	require.NoError(t, err)
	aCtrl := findChildController(t, f.root, "/a")

	fs.Mkdir("/a/hidden-from-watch")
	fs.InjectOverflow("/a")

	require.Eventually(t, func() bool {
		return aCtrl.FindChildByName("hidden-from-watch") != nil
	}, time.Second, time.Millisecond)
}

// leafFlipPolicy wraps DefaultPolicy so a test can flip IsLeafNode for a
// specific path and push an update-notifier callback on demand.
type leafFlipPolicy struct {
	*policy.DefaultPolicy
	leafPath string
	isLeaf   bool
	notify   func()
}

func (p *leafFlipPolicy) IsLeafNode(_ context.Context, node entry.DirectoryEntry) bool {
	if node != nil && node.Path() == p.leafPath {
		return p.isLeaf
	}
	return false
}

func (p *leafFlipPolicy) IsRequestingUpdateNotifier(node entry.DirectoryEntry) bool {
	return node != nil && node.Path() == p.leafPath
}

func (p *leafFlipPolicy) SetUpdateNotifier(node entry.DirectoryEntry, run func()) {
	if node != nil && node.Path() == p.leafPath {
		p.notify = run
	}
}

func (p *leafFlipPolicy) PolicyFor(entry.DirectoryEntry) policy.NodePolicy { return p }

var _ policy.NodePolicy = (*leafFlipPolicy)(nil)

func TestPolicyDrivenLeafFlipEmptiesAndRestoresChildren(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a/a")
	fs.Mkdir("/a/b")
	fs.Mkdir("/a/c")
	pol := &leafFlipPolicy{DefaultPolicy: policy.NewDefaultPolicy(), leafPath: "/a"}
	f := newTestFacade(t, fs, WithPolicy(pol))
	ctx := context.Background()

	_, err := f.ExpandPath(ctx, "/a", true, false)
	require.NoError(t, err)
	aCtrl := findChildController(t, f.root, "/a")
	assert.True(t, sameSet(childNames(aCtrl), []string{"a", "b", "c"}))

	pol.isLeaf = true
	require.NotNil(t, pol.notify)
	pol.notify()
	assert.Empty(t, childNames(aCtrl))

	pol.isLeaf = false
	pol.notify()
	assert.True(t, sameSet(childNames(aCtrl), []string{"a", "b", "c"}))
}

// mountingPolicy treats any RegularFile named "test.zip" as mountable,
// handing back a second testfs.Filesystem with a single trivial root.
type mountingPolicy struct {
	*policy.DefaultPolicy
	archiveName string
	archiveFS   *testfs.Filesystem
	closed      bool
}

func (p *mountingPolicy) IsCreatingNodeForFile(_ entry.DirectoryEntry, candidate policy.Candidate) bool {
	return candidate.Name == p.archiveName
}

func (p *mountingPolicy) CreateFilesystemFor(_ context.Context, file entry.DirectoryEntry) (fsys.Filesystem, error) {
	if file.Name() != p.archiveName {
		return nil, policy.ErrNotMountable
	}
	return p.archiveFS, nil
}

func (p *mountingPolicy) OnClosingFilesystem(fsys.Filesystem) { p.closed = true }

func (p *mountingPolicy) PolicyFor(entry.DirectoryEntry) policy.NodePolicy { return p }

var _ policy.NodePolicy = (*mountingPolicy)(nil)

func TestFileMountSkipsSingleTrivialRootAndClosesOnCollapse(t *testing.T) {
	fs := testfs.New("t")
	fs.WriteFile("/a/b/c/test.zip")

	archive := testfs.New("archive")
	archive.Mkdir("/test1/d/e/f")

	pol := &mountingPolicy{DefaultPolicy: policy.NewDefaultPolicy(), archiveName: "test.zip", archiveFS: archive}
	f := newTestFacade(t, fs, WithPolicy(pol))
	ctx := context.Background()

	deepest, err := f.ExpandPath(ctx, "/a/b/c/test.zip/test1/d/e/f", false, true)
	require.NoError(t, err)
	assert.Equal(t, "/test1/d/e/f", deepest)

	zipCtrl := findChildController(t, f.root, "/a/b/c/test.zip")
	assert.True(t, sameSet(childNames(zipCtrl), []string{"test1"}))

	zipCtrl.SetExpanded(ctx, false)
	assert.True(t, pol.closed)
}

func TestCloseCollapsesTreeAndStopsWatches(t *testing.T) {
	fs := testfs.New("t")
	fs.Mkdir("/a")
	f, err := New(fs)
	require.NoError(t, err)

	_, err = f.ExpandPath(context.Background(), "/a", true, false)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Metrics().ExpandedNodes) // facade root + FilesystemRoot("/") + /a

	require.NoError(t, f.Close())
	assert.Equal(t, 0, f.Metrics().ExpandedNodes)
	assert.Equal(t, 0, f.Metrics().LiveWatches)

	require.NoError(t, f.Close())
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := map[string]bool{}
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}
