package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susamn/lib-filesystem-view/fsys/testfs"
)

func TestDisplayNameSubstitutesSentinelForEmptyName(t *testing.T) {
	fs := testfs.New("t")
	root := NewFilesystemRoot(fs, "/")
	assert.Equal(t, "", root.Name())
	assert.Equal(t, emptyNameSentinel, root.DisplayName())
}

func TestDisplayNamePassesThroughOrdinaryNames(t *testing.T) {
	fs := testfs.New("t")
	dir := NewSubdirectory(fs, "/a", "a")
	assert.Equal(t, "a", dir.DisplayName())
}

func TestInitControllerIsIdempotent(t *testing.T) {
	fs := testfs.New("t")
	dir := NewSubdirectory(fs, "/a", "a")

	calls := 0
	factory := func() any {
		calls++
		return "controller-handle"
	}

	first := dir.InitController(factory)
	second := dir.InitController(factory)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, first, dir.Controller())
}

func TestControllerIsNilBeforeInit(t *testing.T) {
	fs := testfs.New("t")
	dir := NewSubdirectory(fs, "/a", "a")
	assert.Nil(t, dir.Controller())
}

func TestCompareOrdersByDisplayNameThenPath(t *testing.T) {
	fs := testfs.New("t")
	a := NewSubdirectory(fs, "/a", "a")
	b := NewSubdirectory(fs, "/b", "b")
	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestCompareBreaksTiesOnPath(t *testing.T) {
	fs := testfs.New("t")
	a := NewSubdirectory(fs, "/x/dup", "dup")
	b := NewSubdirectory(fs, "/y/dup", "dup")
	assert.NotEqual(t, 0, Compare(a, b))
}

func TestProxyComparesEqualToRealEntryWithSamePathAndName(t *testing.T) {
	fs := testfs.New("t")
	real := NewSubdirectory(fs, "/a/b", "b")
	proxy := NewProxy(fs, "/a/b", "b")
	require.Equal(t, 0, Compare(real, proxy))
}
