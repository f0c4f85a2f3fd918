package sortedlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intCmp(a, b int) int { return a - b }

func TestAddKeepsSortedOrder(t *testing.T) {
	l := New(intCmp)
	idx, ok := l.Add(5)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = l.Add(2)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = l.Add(8)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	assert.Equal(t, []int{2, 5, 8}, l.Items())
}

func TestAddRejectsDuplicate(t *testing.T) {
	l := New(intCmp)
	l.Add(3)
	_, ok := l.Add(3)
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	l := New(intCmp)
	l.Add(1)
	_, ok := l.Remove(99)
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestSynchronizeToEmptyTargetEmitsBulkClear(t *testing.T) {
	l := New(intCmp)
	l.Add(1)
	l.Add(2)

	diff := l.SynchronizeTo(nil)
	assert.True(t, diff.BulkClear)
	assert.False(t, diff.BulkAdd)
	assert.Equal(t, 0, l.Len())
	require.Len(t, diff.Removed, 2)
	assert.Equal(t, 1, diff.Removed[0].Item)
	assert.Equal(t, 2, diff.Removed[1].Item)
}

func TestSynchronizeToFromEmptyEmitsBulkAdd(t *testing.T) {
	l := New(intCmp)
	diff := l.SynchronizeTo([]int{3, 1, 2})
	require.True(t, diff.BulkAdd)
	assert.False(t, diff.BulkClear)
	assert.Equal(t, []int{1, 2, 3}, l.Items())
	require.Len(t, diff.Added, 3)
	assert.Equal(t, 0, diff.Added[0].Index)
	assert.Equal(t, 1, diff.Added[0].Item)
}

func TestSynchronizeToEmptyToEmptyIsNoop(t *testing.T) {
	l := New(intCmp)
	diff := l.SynchronizeTo(nil)
	assert.False(t, diff.BulkAdd)
	assert.False(t, diff.BulkClear)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
}

func TestSynchronizeToMinimalDiff(t *testing.T) {
	l := New(intCmp)
	l.SynchronizeTo([]int{1, 2, 3, 4})

	diff := l.SynchronizeTo([]int{2, 3, 5})

	assert.False(t, diff.BulkAdd)
	assert.False(t, diff.BulkClear)
	assert.Equal(t, []int{2, 3, 5}, l.Items())

	removedItems := make([]int, 0, len(diff.Removed))
	for _, r := range diff.Removed {
		removedItems = append(removedItems, r.Item)
	}
	assert.ElementsMatch(t, []int{1, 4}, removedItems)

	addedItems := make([]int, 0, len(diff.Added))
	for _, a := range diff.Added {
		addedItems = append(addedItems, a.Item)
	}
	assert.ElementsMatch(t, []int{5}, addedItems)
}

func TestSynchronizeToDedupesTarget(t *testing.T) {
	l := New(intCmp)
	diff := l.SynchronizeTo([]int{4, 4, 1, 1, 1})
	assert.Equal(t, []int{1, 4}, l.Items())
	assert.True(t, diff.BulkAdd)
	assert.Len(t, diff.Added, 2)
}

func TestIndexOfAndContains(t *testing.T) {
	l := New(intCmp)
	l.SynchronizeTo([]int{10, 20, 30})

	idx, ok := l.IndexOf(20)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	assert.True(t, l.Contains(10))
	assert.False(t, l.Contains(99))
}
