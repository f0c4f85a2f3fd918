package tree

import (
	"context"
	"sync"
	"time"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/policy"
	"github.com/susamn/lib-filesystem-view/reader"
	"github.com/susamn/lib-filesystem-view/sortedlist"
	"github.com/susamn/lib-filesystem-view/watch"
)

// state is a node's expansion state: Collapsed, Expanding,
// Waiting, or Expanded.
type state int

const (
	stateCollapsed state = iota
	stateExpanding
	stateWaiting
	stateExpanded
)

// NodeController is the per-node controller interface. Every
// variant — the Facade-owned root, an ordinary subdirectory, a
// filesystem-root subtree, or a file mount — is a *NodeChildren
// constructed with variant-specific closures; there is deliberately no
// separate Go type per variant; see DESIGN.md.
type NodeController interface {
	// Path is this node's absolute path, or "" for the Facade-owned root.
	Path() string
	// Entry is the DirectoryEntry this controller was built for, or nil
	// for the Facade-owned root.
	Entry() entry.DirectoryEntry
	// SetExpanded drives the expansion state machine.
	SetExpanded(ctx context.Context, expanded bool)
	// IsExpanded reports the current expansion state.
	IsExpanded() bool
	// UpdateTree re-reads this node's children if expanded, then
	// recurses into every still-expanded child.
	UpdateTree(ctx context.Context)
	// FindChildByName does an O(log n) search over this node's current
	// children by bare name.
	FindChildByName(name string) entry.DirectoryEntry
	// ExpandedPaths returns the deepest-expanded-frontier snapshot
	// rooted at this node.
	ExpandedPaths() []string
}

// NodeChildren is the synchronized core: the child
// SortedDistinctList, the expansion state machine, and the wiring that
// turns SynchronizeTo diffs into child-controller construction/teardown
// and view calls. All of NodeChildren's exported methods acquire its own
// lock; nothing here ever acquires a different node's lock except by
// calling down into a freshly-looked-up child controller (parent-before-
// child ordering).
type NodeChildren struct {
	cfg    *Config
	shared *shared
	policy policy.NodePolicy

	// self is nil only for the Facade-owned top-level root controller,
	// whose children are FilesystemRoot entries rather than a single
	// directory's contents.
	self entry.DirectoryEntry

	read               func(ctx context.Context) (reader.Result, error)
	newChildController func(child entry.DirectoryEntry) NodeController
	onCollapseExtra    func()

	watchable    bool
	fsForWatch   fsys.Filesystem
	pathForWatch string

	mu        sync.Mutex
	st        state
	list      *sortedlist.List[entry.DirectoryEntry]
	hub       *watch.Hub
	hubKey    watch.Key
	watching  bool
	mountedFS fsys.Filesystem
}

func newNodeChildren(cfg *Config, sh *shared, pol policy.NodePolicy, self entry.DirectoryEntry) *NodeChildren {
	entryCmp := cfg.entryComparator()
	return &NodeChildren{
		cfg:    cfg,
		shared: sh,
		policy: pol,
		self:   self,
		list:   sortedlist.New(entryCmp),
	}
}

func (nc *NodeChildren) Path() string {
	if nc.self == nil {
		return ""
	}
	return nc.self.Path()
}

func (nc *NodeChildren) Entry() entry.DirectoryEntry { return nc.self }

func (nc *NodeChildren) IsExpanded() bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.st == stateExpanded
}

func (nc *NodeChildren) SetExpanded(ctx context.Context, expanded bool) {
	if expanded {
		nc.expand(ctx)
	} else {
		nc.collapse(ctx)
	}
}

func (nc *NodeChildren) expand(ctx context.Context) {
	nc.mu.Lock()
	if nc.st != stateCollapsed {
		nc.mu.Unlock()
		return
	}
	if nc.policy.IsLeafNode(ctx, nc.self) {
		// Collapsed + set_expanded(true) on leaf -> Collapsed (ignored).
		nc.mu.Unlock()
		return
	}
	nc.st = stateExpanding
	nc.cfg.View.SetExpanded(nc.self, true)
	nc.mu.Unlock()

	result, _ := nc.read(ctx)

	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.st != stateExpanding {
		// Collapsed while the read was in flight: the collapse itself ran
		// nothing beyond the state flip (no children had been wired yet),
		// so any resource the read just opened (a file mount, most
		// notably) never got torn down. Run the same teardown collapse
		// would have run, now that the result is in.
		if nc.onCollapseExtra != nil {
			nc.onCollapseExtra()
		}
		return
	}
	nc.applyResultLocked(ctx, result)
	nc.st = stateExpanded
	nc.shared.incExpanded(1)
	if nc.watchable && result.StartWatch {
		nc.startWatchLocked()
	}
}

func (nc *NodeChildren) collapse(ctx context.Context) {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	switch nc.st {
	case stateCollapsed:
		return
	case stateExpanding, stateWaiting:
		nc.st = stateCollapsed
		nc.cfg.View.SetExpanded(nc.self, false)
		return
	case stateExpanded:
		nc.collapseChildrenLocked(ctx)
		nc.clearListLocked()
		if nc.watchable && nc.watching {
			nc.stopWatchLocked()
		}
		if nc.onCollapseExtra != nil {
			nc.onCollapseExtra()
		}
		nc.st = stateCollapsed
		nc.cfg.View.SetExpanded(nc.self, false)
		nc.shared.incExpanded(-1)
	}
}

// collapseChildrenLocked forces every current child controller to
// Collapsed: descendants collapse, and release their
// watches, before this node itself becomes Collapsed.
func (nc *NodeChildren) collapseChildrenLocked(ctx context.Context) {
	for _, child := range nc.list.Items() {
		if ctrl, ok := child.Controller().(NodeController); ok && ctrl != nil {
			ctrl.SetExpanded(ctx, false)
		}
	}
}

func (nc *NodeChildren) clearListLocked() {
	diff := nc.list.SynchronizeTo(nil)
	if diff.BulkClear {
		nc.cfg.View.Clear(nc.self)
	}
}

// refresh re-reads this node's children without changing whether the
// node itself is expanded. Used by UpdateTree, the policy update
// notifier, and WatchHub Overflow handling.
func (nc *NodeChildren) refresh(ctx context.Context) {
	nc.mu.Lock()
	if nc.st != stateExpanded {
		nc.mu.Unlock()
		return
	}
	nc.st = stateWaiting
	nc.mu.Unlock()

	result, _ := nc.read(ctx)

	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.st != stateWaiting {
		return
	}
	nc.applyResultLocked(ctx, result)
	nc.st = stateExpanded
	if nc.watchable {
		switch {
		case result.StartWatch && !nc.watching:
			nc.startWatchLocked()
		case !result.StartWatch && nc.watching:
			nc.stopWatchLocked()
		}
	}
}

func (nc *NodeChildren) UpdateTree(ctx context.Context) {
	nc.refresh(ctx)

	nc.mu.Lock()
	expanded := nc.st == stateExpanded
	items := nc.list.Items()
	nc.mu.Unlock()
	if !expanded {
		return
	}
	for _, child := range items {
		if ctrl, ok := child.Controller().(NodeController); ok && ctrl != nil {
			ctrl.UpdateTree(ctx)
		}
	}
}

// applyResultLocked must be called with nc.mu held. It rechecks leaf
// status (recomputed at each transition), synchronizes the
// child list to the (possibly forced-empty) target, and wires the diff.
func (nc *NodeChildren) applyResultLocked(ctx context.Context, result reader.Result) {
	isLeaf := nc.policy.IsLeafNode(ctx, nc.self)
	var target []entry.DirectoryEntry
	if !isLeaf {
		target = result.Entries
	}
	diff := nc.list.SynchronizeTo(target)
	nc.applyDiffLocked(ctx, diff)
	nc.cfg.View.SetLeaf(nc.self, isLeaf)
}

func (nc *NodeChildren) applyDiffLocked(ctx context.Context, diff sortedlist.Diff[entry.DirectoryEntry]) {
	if len(diff.Removed) > 0 {
		indices := make([]int, len(diff.Removed))
		entries := make([]entry.DirectoryEntry, len(diff.Removed))
		for i, r := range diff.Removed {
			indices[i] = r.Index
			entries[i] = r.Item
			nc.forceCollapseChildLocked(ctx, r.Item)
		}
		if diff.BulkClear {
			nc.cfg.View.Clear(nc.self)
		} else {
			nc.cfg.View.RemoveSubnodes(nc.self, indices, entries)
		}
	}
	if len(diff.Added) > 0 {
		indices := make([]int, len(diff.Added))
		entries := make([]entry.DirectoryEntry, len(diff.Added))
		for i, a := range diff.Added {
			indices[i] = a.Index
			entries[i] = a.Item
			nc.wireChildLocked(ctx, a.Item)
		}
		if diff.BulkAdd {
			nc.cfg.View.AddAllSubnodes(nc.self, entries)
		} else {
			nc.cfg.View.InsertSubnodes(nc.self, indices, entries)
		}
	}
}

func (nc *NodeChildren) wireChildLocked(ctx context.Context, child entry.DirectoryEntry) {
	ctrlAny := child.InitController(func() any { return nc.newChildController(child) })
	ctrl, _ := ctrlAny.(NodeController)
	childPolicy := nc.policy.PolicyFor(child)
	nc.cfg.View.SetLeaf(child, childPolicy.IsLeafNode(ctx, child))
	if ctrl != nil && childPolicy.IsRequestingUpdateNotifier(child) {
		childPolicy.SetUpdateNotifier(child, func() { ctrl.UpdateTree(context.Background()) })
	}
}

func (nc *NodeChildren) forceCollapseChildLocked(ctx context.Context, child entry.DirectoryEntry) {
	if ctrl, ok := child.Controller().(NodeController); ok && ctrl != nil {
		ctrl.SetExpanded(ctx, false)
	}
}

// FindChildByName does an O(log n) binary search over the child list
// by bare name only.
func (nc *NodeChildren) FindChildByName(name string) entry.DirectoryEntry {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	items := nc.list.Items()
	lo, hi := 0, len(items)
	for lo < hi {
		mid := (lo + hi) / 2
		c := nc.cfg.Comparator(items[mid].Name(), name)
		switch {
		case c == 0:
			return items[mid]
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return nil
}

// findChildByPath is a linear scan used only by the Facade-owned root
// controller, whose children (FilesystemRoot entries) are matched by the
// root path string decompose produced, not by a filename comparator.
func (nc *NodeChildren) findChildByPath(path string) entry.DirectoryEntry {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	for _, item := range nc.list.Items() {
		if item.Path() == path {
			return item
		}
	}
	return nil
}

// ExpandedPaths implements the recursive frontier definition: a node with
// no populated children is itself the frontier; a node whose children
// are populated contributes the union of what they in turn report. The
// Facade-owned top-level root (self == nil) is excluded from the
// self-fallback since it has no path of its own to report — see
// DESIGN.md for why root population is deferred to first use rather
// than happening at construction, which is what makes an empty freshly-
// built tree report no expanded paths while a lone expand_path call that
// stops short of expanding its own target still reports that target.
func (nc *NodeChildren) ExpandedPaths() []string {
	nc.mu.Lock()
	items := nc.list.Items()
	nc.mu.Unlock()

	var result []string
	for _, child := range items {
		if ctrl, ok := child.Controller().(NodeController); ok && ctrl != nil {
			result = append(result, ctrl.ExpandedPaths()...)
		}
	}
	if len(result) > 0 {
		return result
	}
	if nc.self == nil {
		return nil
	}
	return []string{nc.Path()}
}

func (nc *NodeChildren) startWatchLocked() {
	if nc.hub == nil {
		nc.hub = nc.shared.hubFor(nc.fsForWatch)
		if nc.hub == nil {
			return
		}
	}
	key, err := nc.hub.Register(nc.pathForWatch, watch.Callbacks{
		OnCreate:   nc.handleWatchCreate,
		OnDelete:   nc.handleWatchDelete,
		OnOverflow: nc.handleWatchOverflow,
	})
	if err != nil {
		return
	}
	nc.hubKey = key
	nc.watching = true
	nc.shared.incWatch(1)
}

func (nc *NodeChildren) stopWatchLocked() {
	if nc.hub != nil && nc.watching {
		nc.hub.Unregister(nc.hubKey)
		nc.shared.incWatch(-1)
	}
	nc.watching = false
}

// resolveCandidateLocked stats the newly-created path to classify it and
// asks the effective policy whether it should become a node at all.
func (nc *NodeChildren) resolveCandidateLocked(ctx context.Context, name string) (entry.DirectoryEntry, bool) {
	childPath := nc.fsForWatch.Join(nc.pathForWatch, name)
	info, err := nc.fsForWatch.Stat(ctx, childPath, nc.policy.LinkOptions(nc.self))
	if err != nil {
		return nil, false
	}
	cand := policy.Candidate{Path: childPath, Name: name}
	switch info.Kind {
	case fsys.KindDirectory:
		if nc.policy.IsCreatingNodeForDirectory(nc.self, cand) {
			return entry.NewSubdirectory(nc.fsForWatch, childPath, name), true
		}
	case fsys.KindRegularFile:
		if nc.policy.IsCreatingNodeForFile(nc.self, cand) {
			return entry.NewRegularFile(nc.fsForWatch, childPath, name), true
		}
	}
	return nil, false
}

// handleWatchCreate handles a Subdirectory Create callback:
// resolve against self path, ask policy for a new entry, insert if
// accepted. SortedDistinctList.Add silently rejects a duplicate, giving
// idempotence under a raced double-Create for free.
func (nc *NodeChildren) handleWatchCreate(name string) {
	ctx := context.Background()
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.st != stateExpanded {
		return
	}
	candidate, ok := nc.resolveCandidateLocked(ctx, name)
	if !ok {
		return
	}
	idx, added := nc.list.Add(candidate)
	if !added {
		return
	}
	nc.wireChildLocked(ctx, candidate)
	nc.cfg.View.InsertSubnodes(nc.self, []int{idx}, []entry.DirectoryEntry{candidate})
	nc.shared.recordEvent(RecentEvent{Dir: nc.pathForWatch, Name: name, Kind: EventKindCreate, At: time.Now()})
}

// handleWatchDelete handles a Subdirectory Delete callback:
// construct a proxy entry with the resolved path and remove by key. The
// comparator only ever compares display name then path (see
// entry.Compare), so a proxy needs no real Kind to locate the live item.
func (nc *NodeChildren) handleWatchDelete(name string) {
	ctx := context.Background()
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.st != stateExpanded {
		return
	}
	childPath := nc.fsForWatch.Join(nc.pathForWatch, name)
	proxy := entry.NewProxy(nc.fsForWatch, childPath, name)
	idx, ok := nc.list.IndexOf(proxy)
	if !ok {
		return
	}
	actual := nc.list.At(idx)
	nc.list.Remove(proxy)
	nc.forceCollapseChildLocked(ctx, actual)
	nc.cfg.View.RemoveSubnodes(nc.self, []int{idx}, []entry.DirectoryEntry{actual})
	nc.shared.recordEvent(RecentEvent{Dir: nc.pathForWatch, Name: name, Kind: EventKindDelete, At: time.Now()})
}

// handleWatchOverflow handles Overflow recovery: discard
// accumulated state and re-read.
func (nc *NodeChildren) handleWatchOverflow() {
	nc.shared.recordEvent(RecentEvent{Dir: nc.pathForWatch, Kind: EventKindOverflow, At: time.Now()})
	nc.refresh(context.Background())
}
