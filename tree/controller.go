package tree

import (
	"context"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/policy"
	"github.com/susamn/lib-filesystem-view/reader"
)

// newRootChildren builds the Facade-owned top-level controller: its
// children are FilesystemRoot entries for cfg.Filesystem — root
// enumeration, not a real directory.
// Population is deferred to the first SetExpanded(true)/expand_path call
// rather than happening here — see DESIGN.md for why that keeps a
// freshly-built, never-expanded tree reporting no expanded paths at all.
func newRootChildren(cfg *Config, sh *shared) *NodeChildren {
	nc := newNodeChildren(cfg, sh, cfg.Policy, nil)
	nc.read = func(ctx context.Context) (reader.Result, error) {
		return reader.ReadRoots(ctx, cfg.Filesystem, nc.policy, false)
	}
	nc.newChildController = childControllerFactory(nc)
	return nc
}

// newDirChildren builds the controller for a node whose children come
// from an ordinary directory read: a FilesystemRoot (per-root subtree)
// or a Subdirectory both qualify, since for read/watch purposes a
// filesystem root is just another real directory.
func newDirChildren(self entry.DirectoryEntry, fs fsys.Filesystem, cfg *Config, sh *shared, pol policy.NodePolicy) *NodeChildren {
	nc := newNodeChildren(cfg, sh, pol, self)
	nc.read = func(ctx context.Context) (reader.Result, error) {
		return reader.Read(ctx, self, fs, nc.policy)
	}
	// Watch service is never offered inside a mounted filesystem, only
	// across the Facade's own global filesystem.
	nc.watchable = fs == cfg.Filesystem
	nc.fsForWatch = fs
	nc.pathForWatch = self.Path()
	nc.newChildController = childControllerFactory(nc)
	return nc
}

// newFileMountChildren builds the controller for a RegularFile that
// policy may be willing to mount as a nested filesystem. The mounted
// Filesystem is opened lazily on first expand (later re-reads reuse it)
// and closed exactly once on collapse. If policy declines to mount it
// (ErrNotMountable, or any other error), the node expands with no
// children.
func newFileMountChildren(self entry.DirectoryEntry, cfg *Config, sh *shared, pol policy.NodePolicy) *NodeChildren {
	nc := newNodeChildren(cfg, sh, pol, self)
	nc.read = func(ctx context.Context) (reader.Result, error) {
		nc.mu.Lock()
		mounted := nc.mountedFS
		nc.mu.Unlock()
		if mounted == nil {
			created, err := nc.policy.CreateFilesystemFor(ctx, self)
			if err != nil {
				return reader.Result{}, nil
			}
			mounted = created
			nc.mu.Lock()
			nc.mountedFS = mounted
			nc.mu.Unlock()
			// The default filesystem must never be treated as a mount of its
			// own node (it is never closed on collapse either — see
			// onCollapseExtra below), so it is excluded from the open-mount
			// count too, keeping incMounted(1)/incMounted(-1) balanced.
			if mounted != cfg.Filesystem {
				sh.incMounted(1)
			}
		}
		return reader.ReadRoots(ctx, mounted, nc.policy, true)
	}
	// onCollapseExtra runs with nc.mu already held (by collapse, or by
	// expand's discard branch), so it must not lock nc.mu itself.
	nc.onCollapseExtra = func() {
		mounted := nc.mountedFS
		nc.mountedFS = nil
		if mounted == nil {
			return
		}
		// The default filesystem must never be closed, even if a
		// node-policy returns it from CreateFilesystemFor.
		if mounted != cfg.Filesystem {
			_ = mounted.Close()
			nc.policy.OnClosingFilesystem(mounted)
			sh.incMounted(-1)
		}
	}
	nc.newChildController = childControllerFactory(nc)
	return nc
}

// childControllerFactory builds the child-controller constructor a
// directory-shaped (root, ordinary directory, or file-mount) NodeChildren
// hands to wireChildLocked: a RegularFile becomes a file-mount candidate
// (even one found inside an already-mounted filesystem, so nested
// archives work), anything else (Subdirectory or FilesystemRoot) becomes
// an ordinary directory controller.
func childControllerFactory(parent *NodeChildren) func(entry.DirectoryEntry) NodeController {
	return func(child entry.DirectoryEntry) NodeController {
		childPolicy := parent.policy.PolicyFor(child)
		if _, ok := child.(*entry.RegularFile); ok {
			return newFileMountChildren(child, parent.cfg, parent.shared, childPolicy)
		}
		return newDirChildren(child, child.Filesystem(), parent.cfg, parent.shared, childPolicy)
	}
}
