package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susamn/lib-filesystem-view/fsys"
)

func TestDefaultPolicyExcludesHiddenDirectoriesByDefault(t *testing.T) {
	p := NewDefaultPolicy()
	assert.True(t, p.IsCreatingNodeForDirectory(nil, Candidate{Name: "docs"}))
	assert.False(t, p.IsCreatingNodeForDirectory(nil, Candidate{Name: ".git"}))
}

func TestDefaultPolicyIncludesHiddenWhenConfigured(t *testing.T) {
	p := &DefaultPolicy{IncludeHidden: true}
	assert.True(t, p.IsCreatingNodeForDirectory(nil, Candidate{Name: ".git"}))
}

func TestDefaultPolicyExcludesFilesUnlessShowFiles(t *testing.T) {
	p := NewDefaultPolicy()
	assert.False(t, p.IsCreatingNodeForFile(nil, Candidate{Name: "a.txt"}))

	p.ShowFiles = true
	assert.True(t, p.IsCreatingNodeForFile(nil, Candidate{Name: "a.txt"}))
	assert.False(t, p.IsCreatingNodeForFile(nil, Candidate{Name: ".hidden"}))
}

func TestDefaultPolicyFollowsSymlinksByDefault(t *testing.T) {
	p := NewDefaultPolicy()
	assert.Equal(t, fsys.FollowSymlinks, p.LinkOptions(nil))

	p.FollowSymlinks = false
	assert.Equal(t, fsys.NoFollowSymlinks, p.LinkOptions(nil))
}

func TestDefaultPolicyNeverMounts(t *testing.T) {
	p := NewDefaultPolicy()
	_, err := p.CreateFilesystemFor(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotMountable)
}

func TestDefaultPolicyNeverLeafNeverUpdateNotifier(t *testing.T) {
	p := NewDefaultPolicy()
	assert.False(t, p.IsLeafNode(context.Background(), nil))
	assert.False(t, p.IsRequestingUpdateNotifier(nil))
}

func TestDefaultPolicyForReturnsItself(t *testing.T) {
	p := NewDefaultPolicy()
	assert.Same(t, p, p.PolicyFor(nil))
}
