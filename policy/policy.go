// Package policy implements NodePolicy: the host-pluggable
// rules for which entries a directory listing keeps, whether symlinks
// are followed, whether a node is a conceptual leaf, and how a
// RegularFile becomes a mounted child filesystem.
//
// Grounded on internal/explorer/explorer.go's hidden-file/extension
// filtering folded into one interface, and on internal/config.Config's
// "recognized options" table for DefaultPolicy's defaults.
package policy

import (
	"context"
	"errors"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
)

// ErrNotMountable is returned by CreateFilesystemFor implementations (and
// DefaultPolicy's, which never mounts anything) when a file cannot be
// opened as a nested filesystem.
var ErrNotMountable = errors.New("policy: file is not mountable")

// Candidate is a not-yet-wrapped raw entry a directory read is deciding
// whether to turn into a node, carrying both its absolute path and bare
// name so a policy can filter on either without needing filesystem
// access of its own.
type Candidate struct {
	Path string
	Name string
}

// NodePolicy is the full host-pluggable interface table. A single
// NodePolicy instance is shared by every node in a tree unless PolicyFor
// returns a different one for a particular node.
type NodePolicy interface {
	// LinkOptions controls whether ReadDir/Stat calls made while listing
	// dir should follow symlinks.
	LinkOptions(dir entry.DirectoryEntry) fsys.LinkOption

	// IsCreatingNodeForDirectory reports whether a subdirectory found
	// while listing dir should become a node at all.
	IsCreatingNodeForDirectory(dir entry.DirectoryEntry, candidate Candidate) bool

	// IsCreatingNodeForFile reports whether a regular file found while
	// listing dir should become a node (i.e. is a candidate for
	// mounting, or for files-only browsing hosts, simply shown).
	IsCreatingNodeForFile(dir entry.DirectoryEntry, candidate Candidate) bool

	// CreateFilesystemFor opens the nested Filesystem for file, or
	// returns ErrNotMountable (or any other error) to keep it a plain
	// RegularFile node.
	CreateFilesystemFor(ctx context.Context, file entry.DirectoryEntry) (fsys.Filesystem, error)

	// OnClosingFilesystem is called exactly once when a mounted
	// filesystem this policy created is closed.
	OnClosingFilesystem(fs fsys.Filesystem)

	// IsLeafNode reports whether node is a conceptual leaf regardless of
	// what the filesystem actually contains.
	IsLeafNode(ctx context.Context, node entry.DirectoryEntry) bool

	// IsRequestingUpdateNotifier reports whether node wants a callback
	// it can invoke to force its own refresh.
	IsRequestingUpdateNotifier(node entry.DirectoryEntry) bool

	// SetUpdateNotifier hands node a function the policy may call later
	// to force update_tree() on that specific node. Only invoked when
	// IsRequestingUpdateNotifier returned true for node.
	SetUpdateNotifier(node entry.DirectoryEntry, run func())

	// PolicyFor returns the NodePolicy a subtree rooted at node should
	// use from here down; returning the receiver itself is the common
	// case.
	PolicyFor(node entry.DirectoryEntry) NodePolicy
}

// DefaultPolicy is the simple baseline policy: non-hidden directories
// only, no files, no mounts, symlinks followed,
// nothing is ever a leaf a priori, no update notifiers requested.
type DefaultPolicy struct {
	// IncludeHidden, when false (the default), filters out entries whose
	// name starts with "." (grounded on explorer.go's isHiddenDir/isHiddenFile).
	IncludeHidden bool
	// ShowFiles, when true, creates nodes for RegularFile entries.
	ShowFiles bool
	// FollowSymlinks controls the LinkOption every node is read with.
	FollowSymlinks bool
}

// NewDefaultPolicy returns the zero-configuration policy: directories
// only, hidden entries excluded, symlinks followed.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{FollowSymlinks: true}
}

func (p *DefaultPolicy) LinkOptions(entry.DirectoryEntry) fsys.LinkOption {
	if p.FollowSymlinks {
		return fsys.FollowSymlinks
	}
	return fsys.NoFollowSymlinks
}

func (p *DefaultPolicy) IsCreatingNodeForDirectory(_ entry.DirectoryEntry, candidate Candidate) bool {
	return p.IncludeHidden || !isHidden(candidate.Name)
}

func (p *DefaultPolicy) IsCreatingNodeForFile(_ entry.DirectoryEntry, candidate Candidate) bool {
	if !p.ShowFiles {
		return false
	}
	return p.IncludeHidden || !isHidden(candidate.Name)
}

func (p *DefaultPolicy) CreateFilesystemFor(context.Context, entry.DirectoryEntry) (fsys.Filesystem, error) {
	return nil, ErrNotMountable
}

func (p *DefaultPolicy) OnClosingFilesystem(fsys.Filesystem) {}

func (p *DefaultPolicy) IsLeafNode(context.Context, entry.DirectoryEntry) bool {
	return false
}

func (p *DefaultPolicy) IsRequestingUpdateNotifier(entry.DirectoryEntry) bool {
	return false
}

func (p *DefaultPolicy) SetUpdateNotifier(entry.DirectoryEntry, func()) {}

func (p *DefaultPolicy) PolicyFor(entry.DirectoryEntry) NodePolicy {
	return p
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
