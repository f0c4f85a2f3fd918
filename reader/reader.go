// Package reader implements DirectoryReader: the one-shot,
// synchronous directory read that turns a raw fsys.Filesystem listing
// into policy-filtered entry.DirectoryEntry values.
//
// Grounded on internal/explorer/explorer.go's GetTree/loadChildren path
// (stat, list, filter, wrap) collapsed into a single synchronous call —
// the teacher does this per-request from an HTTP handler goroutine; here
// it is per-expansion from whatever goroutine calls tree.NodeChildren.
// Shaped to return a plain Result so a future caller could push it onto
// a worker pool (see internal/vault/worker.go) without changing this
// package's contract; not done now since nothing in scope asks for it.
package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/internal/logger"
	"github.com/susamn/lib-filesystem-view/policy"
)

// Result is what a read produces: the policy-filtered children, in the
// order the filesystem listed them, and whether the caller should now start a watch on the directory that
// was read.
type Result struct {
	Entries    []entry.DirectoryEntry
	StartWatch bool
}

// Read lists dir's children through fs, filtered by pol, and wraps each
// surviving raw fsys.Entry in the appropriate entry.DirectoryEntry
// variant (Subdirectory, or RegularFile when pol.IsCreatingNodeForFile
// accepts it; a mount's Filesystem itself is opened lazily by the tree
// package's file-mount controller, newFileMountChildren, not here).
//
// On fsys.ErrAccessDenied, Read logs at Info and returns an empty,
// no-watch Result with a nil error: AccessDenied is recovered locally,
// the node simply shows empty. Any other error is logged at
// Warn and returned to the caller, who likewise shows the node as empty
// but does not start a watch.
func Read(ctx context.Context, dir entry.DirectoryEntry, fs fsys.Filesystem, pol policy.NodePolicy) (Result, error) {
	if pol.IsLeafNode(ctx, dir) {
		return Result{}, nil
	}

	raws, err := fs.ReadDir(ctx, dir.Path(), pol.LinkOptions(dir))
	if err != nil {
		return handleReadError(fs, dir.Path(), err)
	}

	entries := make([]entry.DirectoryEntry, 0, len(raws))
	for _, raw := range raws {
		childPath := fs.Join(dir.Path(), raw.Name)
		candidate := policy.Candidate{Path: childPath, Name: raw.Name}
		switch raw.Kind {
		case fsys.KindDirectory:
			if pol.IsCreatingNodeForDirectory(dir, candidate) {
				entries = append(entries, entry.NewSubdirectory(fs, childPath, raw.Name))
			}
		case fsys.KindRegularFile:
			if pol.IsCreatingNodeForFile(dir, candidate) {
				entries = append(entries, entry.NewRegularFile(fs, childPath, raw.Name))
			}
		}
	}

	return Result{Entries: entries, StartWatch: fs.SupportsWatch()}, nil
}

// ReadRoots lists fs's own roots, wrapping each in a FilesystemRoot
// entry. When skipSingleRoot is true and fs has exactly one root,
// ReadRoots instead reads directly into that root's children, presenting
// a single-root filesystem (e.g. an archive mount) without
// an intervening root node.
func ReadRoots(ctx context.Context, fs fsys.Filesystem, pol policy.NodePolicy, skipSingleRoot bool) (Result, error) {
	roots, err := fs.Roots(ctx)
	if err != nil {
		return handleReadError(fs, "", err)
	}

	if skipSingleRoot && len(roots) == 1 {
		rootEntry := entry.NewFilesystemRoot(fs, roots[0])
		return Read(ctx, rootEntry, fs, pol)
	}

	entries := make([]entry.DirectoryEntry, 0, len(roots))
	for _, root := range roots {
		entries = append(entries, entry.NewFilesystemRoot(fs, root))
	}
	return Result{Entries: entries, StartWatch: false}, nil
}

func handleReadError(fs fsys.Filesystem, path string, err error) (Result, error) {
	switch {
	case errors.Is(err, fsys.ErrAccessDenied):
		logger.WithField("path", path).WithField("filesystem", fs.ID()).Info("reader: access denied, showing empty")
		return Result{}, nil
	case errors.Is(err, fsys.ErrNotExist):
		logger.WithField("path", path).WithField("filesystem", fs.ID()).Warn("reader: path no longer exists")
		return Result{}, fmt.Errorf("reader: %w", err)
	default:
		logger.WithField("path", path).WithField("filesystem", fs.ID()).WithError(err).Warn("reader: read failed")
		return Result{}, fmt.Errorf("reader: %w", err)
	}
}
