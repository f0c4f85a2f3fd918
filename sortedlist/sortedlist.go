// Package sortedlist implements a generic sorted, duplicate-free list with
// a minimal-diff synchronization operation, used by the tree engine to
// reconcile a directory's cached children against a freshly-read listing
// without discarding view state for entries that didn't change.
package sortedlist

import "sort"

// Comparator orders two elements. Comparator(a, b) == 0 is what List
// treats as a and b being duplicates of each other.
type Comparator[T any] func(a, b T) int

// List is a sorted, duplicate-free slice of T, ordered by a Comparator.
// It is not safe for concurrent use; callers (tree.NodeChildren) guard it
// with their own lock.
type List[T any] struct {
	cmp   Comparator[T]
	items []T
}

// New creates an empty List ordered by cmp.
func New[T any](cmp Comparator[T]) *List[T] {
	return &List[T]{cmp: cmp}
}

// Len returns the number of items currently held.
func (l *List[T]) Len() int { return len(l.items) }

// Items returns the current contents in sorted order. The returned slice
// is owned by the caller and safe to retain; List never mutates it in
// place after returning it.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// At returns the item at position i.
func (l *List[T]) At(i int) T { return l.items[i] }

func (l *List[T]) search(item T) (int, bool) {
	n := len(l.items)
	idx := sort.Search(n, func(i int) bool { return l.cmp(l.items[i], item) >= 0 })
	if idx < n && l.cmp(l.items[idx], item) == 0 {
		return idx, true
	}
	return idx, false
}

// IndexOf returns the position of item and true, or (-1, false) if absent.
func (l *List[T]) IndexOf(item T) (int, bool) {
	idx, found := l.search(item)
	if !found {
		return -1, false
	}
	return idx, true
}

// Contains reports whether an equal item is already present.
func (l *List[T]) Contains(item T) bool {
	_, found := l.search(item)
	return found
}

// Add inserts item in sorted position and returns the index it landed at,
// or (-1, false) if an equal item was already present (no-op).
func (l *List[T]) Add(item T) (int, bool) {
	idx, found := l.search(item)
	if found {
		return -1, false
	}
	l.items = append(l.items, item)
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = item
	return idx, true
}

// Remove deletes an item equal to item, returning its former index, or
// (-1, false) if it was not present.
func (l *List[T]) Remove(item T) (int, bool) {
	idx, found := l.search(item)
	if !found {
		return -1, false
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return idx, true
}

// Clear empties the list.
func (l *List[T]) Clear() {
	l.items = nil
}

// Diff describes the minimal edit turning the list's previous contents
// into its new contents, as produced by SynchronizeTo. Exactly one of
// the following shapes holds:
//   - BulkClear is true: the list became empty (and was non-empty
//     before); Removed holds every outgoing item, captured before the
//     clear, in their pre-clear index order.
//   - BulkAdd is true: the list was empty before and Added holds every
//     new item, in sorted order.
//   - Otherwise: Added/Removed hold the individual items that changed,
//     each paired with the index it was inserted at / removed from, in
//     the order those mutations were applied.
type Diff[T any] struct {
	BulkClear bool
	BulkAdd   bool

	Added   []IndexedItem[T]
	Removed []IndexedItem[T]
}

// IndexedItem pairs a value with the list position it occupied at the
// moment of its insertion or removal.
type IndexedItem[T any] struct {
	Index int
	Item  T
}

// SynchronizeTo reconciles the list's contents to exactly match target,
// emitting the minimal-diff event shape a view needs to update incrementally:
//   - if target is empty and the list was non-empty: BulkClear.
//   - else if the list was empty and target is non-empty: BulkAdd with
//     every item of target, in sorted order.
//   - else: compute the sorted set difference and apply removals (highest
//     index first, so earlier indices stay valid) then additions (lowest
//     index first), recording each index as it is applied.
//
// target need not be sorted or duplicate-free; SynchronizeTo sorts and
// dedupes its own copy before diffing.
func (l *List[T]) SynchronizeTo(target []T) Diff[T] {
	sorted := make([]T, len(target))
	copy(sorted, target)
	sort.Slice(sorted, func(i, j int) bool { return l.cmp(sorted[i], sorted[j]) < 0 })
	sorted = dedupe(sorted, l.cmp)

	wasEmpty := len(l.items) == 0
	willBeEmpty := len(sorted) == 0

	if willBeEmpty {
		if wasEmpty {
			return Diff[T]{}
		}
		outgoing := make([]IndexedItem[T], len(l.items))
		for i, item := range l.items {
			outgoing[i] = IndexedItem[T]{Index: i, Item: item}
		}
		l.items = nil
		return Diff[T]{BulkClear: true, Removed: outgoing}
	}

	if wasEmpty {
		l.items = sorted
		added := make([]IndexedItem[T], len(sorted))
		for i, item := range sorted {
			added[i] = IndexedItem[T]{Index: i, Item: item}
		}
		return Diff[T]{BulkAdd: true, Added: added}
	}

	toRemove, toAdd := setDiff(l.items, sorted, l.cmp)

	diff := Diff[T]{}
	for i := len(toRemove) - 1; i >= 0; i-- {
		item := toRemove[i]
		idx, ok := l.Remove(item)
		if ok {
			diff.Removed = append(diff.Removed, IndexedItem[T]{Index: idx, Item: item})
		}
	}
	for _, item := range toAdd {
		idx, ok := l.Add(item)
		if ok {
			diff.Added = append(diff.Added, IndexedItem[T]{Index: idx, Item: item})
		}
	}
	return diff
}

func dedupe[T any](sorted []T, cmp Comparator[T]) []T {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, item := range sorted[1:] {
		if cmp(out[len(out)-1], item) != 0 {
			out = append(out, item)
		}
	}
	return out
}

// setDiff returns the items present in `from` but not `to` (toRemove,
// sorted), and the items present in `to` but not `from` (toAdd, sorted).
// Both inputs must already be sorted and duplicate-free.
func setDiff[T any](from, to []T, cmp Comparator[T]) (toRemove, toAdd []T) {
	i, j := 0, 0
	for i < len(from) && j < len(to) {
		c := cmp(from[i], to[j])
		switch {
		case c == 0:
			i++
			j++
		case c < 0:
			toRemove = append(toRemove, from[i])
			i++
		default:
			toAdd = append(toAdd, to[j])
			j++
		}
	}
	for ; i < len(from); i++ {
		toRemove = append(toRemove, from[i])
	}
	for ; j < len(to); j++ {
		toAdd = append(toAdd, to[j])
	}
	return toRemove, toAdd
}
