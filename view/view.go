// Package view defines NodeView, the host-implemented adapter the tree
// engine pushes structural changes to. The core never inspects or blocks
// on what a NodeView does with a call — it may dispatch to a UI
// thread; the core never blocks on it. It is free to marshal onto a
// UI event loop, log, or simply collect calls for a test assertion.
package view

import "github.com/susamn/lib-filesystem-view/entry"

// NodeView receives the structural-change callbacks a NodeChildren emits
// when its SortedDistinctList is synchronized against a fresh read, plus
// the node's own expanded/leaf state transitions.
//
// InsertSubnodes/RemoveSubnodes report the minimal per-index diff;
// AddAllSubnodes/Clear report the bulk-add/bulk-clear shapes sortedlist.Diff
// distinguishes. A NodeView implementation can choose to treat
// AddAllSubnodes as N calls to InsertSubnodes and Clear as N calls to
// RemoveSubnodes if it has no bulk path of its own.
type NodeView interface {
	// InsertSubnodes reports entries added at specific indices, in
	// ascending index order.
	InsertSubnodes(parent entry.DirectoryEntry, indices []int, entries []entry.DirectoryEntry)
	// RemoveSubnodes reports entries removed from specific indices, in
	// descending index order (so earlier indices are still valid at the
	// moment each removal is reported).
	RemoveSubnodes(parent entry.DirectoryEntry, indices []int, entries []entry.DirectoryEntry)
	// AddAllSubnodes reports that parent went from empty to the given
	// full set of children in one step.
	AddAllSubnodes(parent entry.DirectoryEntry, entries []entry.DirectoryEntry)
	// Clear reports that parent went from having children to having none.
	Clear(parent entry.DirectoryEntry)

	// SetExpanded reports a node's expansion-state transition.
	SetExpanded(node entry.DirectoryEntry, expanded bool)
	// SetLeaf reports whether the node's policy (NodePolicy.IsLeafNode)
	// currently declares node a leaf. An empty read alone does not make a
	// node a leaf.
	SetLeaf(node entry.DirectoryEntry, leaf bool)
}

// Null is a NodeView that discards every call, useful as a default when a
// host has not yet wired a real view (or in tests that only assert on
// Facade state, not on view callbacks).
type Null struct{}

func (Null) InsertSubnodes(entry.DirectoryEntry, []int, []entry.DirectoryEntry) {}
func (Null) RemoveSubnodes(entry.DirectoryEntry, []int, []entry.DirectoryEntry) {}
func (Null) AddAllSubnodes(entry.DirectoryEntry, []entry.DirectoryEntry)        {}
func (Null) Clear(entry.DirectoryEntry)                                        {}
func (Null) SetExpanded(entry.DirectoryEntry, bool)                            {}
func (Null) SetLeaf(entry.DirectoryEntry, bool)                                {}
