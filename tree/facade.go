// Package tree's Facade is the top-level entry point: the one object a
// host constructs, configures, and drives.
package tree

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/susamn/lib-filesystem-view/fsys"
)

// Facade is the engine's single entry point: one Facade owns one
// filesystem's tree, its watch hubs, and its selection state.
type Facade struct {
	cfg    *Config
	shared *shared
	root   *NodeChildren

	mu          sync.Mutex
	selected    string
	hasSelected bool

	pollDone chan struct{}
	pollWG   sync.WaitGroup

	closeOnce sync.Once
}

// New constructs a Facade over fs. The global root is not read until the
// first ExpandPath/ExpandPathOn call; UpdateTree and the roots poll only
// re-read a root that is already expanded — see DESIGN.md.
func New(fs fsys.Filesystem, opts ...Option) (*Facade, error) {
	cfg, err := newConfig(fs, opts)
	if err != nil {
		return nil, err
	}
	sh := newShared(cfg)
	f := &Facade{
		cfg:    cfg,
		shared: sh,
		root:   newRootChildren(cfg, sh),
	}
	if cfg.PollRootsInterval > 0 {
		f.startRootPoll(cfg.PollRootsInterval)
	}
	return f, nil
}

func (f *Facade) startRootPoll(interval time.Duration) {
	f.pollDone = make(chan struct{})
	f.pollWG.Add(1)
	go func() {
		defer f.pollWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.root.refresh(context.Background())
			case <-f.pollDone:
				return
			}
		}
	}()
}

// ExpandPath expands/locates path within the Facade's own configured
// filesystem. select_it marks the deepest
// reached node as selected when the full path was matched.
func (f *Facade) ExpandPath(ctx context.Context, path string, expandLast, selectIt bool) (string, error) {
	return f.ExpandPathOn(ctx, f.cfg.Filesystem, path, expandLast, selectIt)
}

// ExpandPathOn is ExpandPath generalized over an explicit filesystem
// argument, so DomainMismatchError is reachable: a host that
// resolves a path against the wrong filesystem gets a typed error rather
// than a silent no-op.
func (f *Facade) ExpandPathOn(ctx context.Context, fs fsys.Filesystem, path string, expandLast, selectIt bool) (string, error) {
	if fs != f.cfg.Filesystem {
		return "", &DomainMismatchError{Expected: f.cfg.Filesystem.ID(), Got: fs.ID()}
	}
	if path == "" {
		if selectIt {
			f.ClearSelection()
		}
		return "", nil
	}
	if !fs.IsAbs(path) {
		return "", &NonAbsolutePathError{Path: path}
	}

	rootPath, comps, err := decompose(ctx, fs, path)
	if err != nil {
		return "", err
	}

	// The top-level Facade root must always be expanded to discover
	// which FilesystemRoot entries exist at all; this is the same "every
	// ancestor along the path always expands" rule applied to the
	// invisible super-root.
	f.root.SetExpanded(ctx, true)

	rootEntry := f.root.findChildByPath(rootPath)
	if rootEntry == nil {
		return "", nil
	}
	current, ok := rootEntry.Controller().(NodeController)
	if !ok || current == nil {
		return "", nil
	}

	willExpandRootNode := len(comps) > 0 || expandLast
	if willExpandRootNode {
		current.SetExpanded(ctx, true)
	}

	reachedFull := len(comps) == 0
	for i, comp := range comps {
		child := current.FindChildByName(comp)
		if child == nil {
			break
		}
		ctrl, ok := child.Controller().(NodeController)
		if !ok || ctrl == nil {
			break
		}
		isLast := i == len(comps)-1
		if !isLast || expandLast {
			ctrl.SetExpanded(ctx, true)
		}
		current = ctrl
		if isLast {
			reachedFull = true
		}
	}

	deepest := current.Path()
	if reachedFull && selectIt {
		f.setSelection(deepest)
	}
	return deepest, nil
}

// decompose splits an absolute path into the root (from fs.Roots) it
// lives under and the chain of component names beneath that root, using
// only fs.Dir/fs.Base so the same algorithm works for any filesystem's
// path scheme.
func decompose(ctx context.Context, fs fsys.Filesystem, path string) (string, []string, error) {
	roots, err := fs.Roots(ctx)
	if err != nil {
		return "", nil, err
	}
	isRoot := make(map[string]bool, len(roots))
	for _, r := range roots {
		isRoot[r] = true
	}

	var comps []string
	cur := path
	for !isRoot[cur] {
		parent := fs.Dir(cur)
		if parent == cur {
			return "", nil, fmt.Errorf("tree: %q is not under any root of filesystem %q", path, fs.ID())
		}
		comps = append(comps, fs.Base(cur))
		cur = parent
	}
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	return cur, comps, nil
}

func (f *Facade) setSelection(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = path
	f.hasSelected = true
}

// ClearSelection discards the current selection, if any.
func (f *Facade) ClearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = ""
	f.hasSelected = false
}

// SelectedPath returns the current selection and whether one exists.
func (f *Facade) SelectedPath() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected, f.hasSelected
}

// HasSelection reports whether a selection is currently set.
func (f *Facade) HasSelection() bool {
	_, ok := f.SelectedPath()
	return ok
}

// ExpandedPaths returns the deepest-expanded-frontier snapshot of the
// whole tree, delegating to the root controller.
func (f *Facade) ExpandedPaths() []string {
	paths := f.root.ExpandedPaths()
	if paths == nil {
		return []string{}
	}
	return paths
}

// UpdateTree re-reads every currently-expanded node in the tree, from
// the root down.
func (f *Facade) UpdateTree(ctx context.Context) {
	f.root.UpdateTree(ctx)
}

// Metrics returns a point-in-time snapshot of engine-internal counters.
func (f *Facade) Metrics() Metrics {
	return f.shared.metrics()
}

// RecentEvents returns a copy of the bounded recent-operations ring
// buffer.
func (f *Facade) RecentEvents() []RecentEvent {
	return f.shared.recentEvents()
}

// WaitUntilSettled polls ExpandedPaths-driving internal state until
// UpdateTree has no further in-flight expand/refresh work or timeout
// elapses — a test/diagnostic convenience, not a core operation; hosts
// don't need it for correct operation since every
// Facade call already applies synchronously.
func (f *Facade) WaitUntilSettled(ctx context.Context, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		if !f.anyNodeTransitioning(f.root) {
			return nil
		}
		select {
		case <-deadline:
			return fmt.Errorf("tree: WaitUntilSettled: timed out after %s", timeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (f *Facade) anyNodeTransitioning(nc *NodeChildren) bool {
	nc.mu.Lock()
	st := nc.st
	items := nc.list.Items()
	nc.mu.Unlock()
	if st == stateExpanding || st == stateWaiting {
		return true
	}
	for _, child := range items {
		if ctrl, ok := child.Controller().(*NodeChildren); ok && ctrl != nil {
			if f.anyNodeTransitioning(ctrl) {
				return true
			}
		}
	}
	return false
}

// Close forces the root collapsed (releasing every watch and mounted
// filesystem transitively) and then closes every watch hub the Facade
// created.
func (f *Facade) Close() error {
	f.closeOnce.Do(func() {
		if f.pollDone != nil {
			close(f.pollDone)
			f.pollWG.Wait()
		}
		f.root.SetExpanded(context.Background(), false)
		f.shared.closeAllHubs()
	})
	return nil
}
