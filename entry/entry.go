// Package entry implements DirectoryEntry: the tagged sum of
// the three kinds of thing a directory listing can contain — a
// filesystem's own root, an ordinary subdirectory, and a regular file
// (which may additionally be a mount point for a nested pseudo-filesystem).
//
// Grounded on internal/explorer/explorer.go's TreeNode/NodeMetadata pair:
// here the node controller plays the role TreeNode.Children/Loaded played
// there, but lazily and behind an opaque handle so this package never
// needs to import the tree package that defines it.
package entry

import (
	"sync"

	"github.com/susamn/lib-filesystem-view/fsys"
)

// emptyNameSentinel is substituted for DisplayName when Name is empty,
// i.e. for a FilesystemRoot whose filesystem addresses its root as "".
const emptyNameSentinel = "ε" // ε

// DirectoryEntry is the sealed interface implemented by FilesystemRoot,
// Subdirectory, RegularFile, and the search-only Proxy. A type switch on the concrete type is
// the supported way to dispatch on kind; the unexported method prevents
// other packages from adding new variants.
type DirectoryEntry interface {
	// Filesystem is the filesystem this entry belongs to.
	Filesystem() fsys.Filesystem
	// Path is the entry's absolute path within its filesystem ("" for a
	// FilesystemRoot whose filesystem has no separate root path).
	Path() string
	// Name is the entry's bare name, or "" for a FilesystemRoot.
	Name() string
	// DisplayName is Name, or the sentinel character ε when Name is empty.
	DisplayName() string

	// Controller returns the previously-initialized controller handle, or
	// nil if InitController has never been called for this entry.
	Controller() any
	// InitController lazily creates and caches a controller handle the
	// first time it is called for this entry; later calls return the
	// cached value and ignore factory. Safe for concurrent use.
	InitController(factory func() any) any

	isDirectoryEntry()
}

type base struct {
	fs   fsys.Filesystem
	path string
	name string

	mu         sync.Mutex
	controller any
}

func (b *base) Filesystem() fsys.Filesystem { return b.fs }
func (b *base) Path() string                { return b.path }
func (b *base) Name() string                { return b.name }

func (b *base) DisplayName() string {
	if b.name == "" {
		return emptyNameSentinel
	}
	return b.name
}

func (b *base) Controller() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.controller
}

func (b *base) InitController(factory func() any) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.controller == nil {
		b.controller = factory()
	}
	return b.controller
}

// FilesystemRoot is the entry representing one root of a Filesystem
// a filesystem root, addressed by its filesystem and an empty or
// filesystem-defined root path.
type FilesystemRoot struct {
	base
}

// NewFilesystemRoot creates a FilesystemRoot entry for the given root
// path (as returned by fsys.Filesystem.Roots).
func NewFilesystemRoot(fs fsys.Filesystem, rootPath string) *FilesystemRoot {
	return &FilesystemRoot{base{fs: fs, path: rootPath, name: fs.Base(rootPath)}}
}

func (*FilesystemRoot) isDirectoryEntry() {}

// Subdirectory is an ordinary directory found inside a parent's listing.
type Subdirectory struct {
	base
}

// NewSubdirectory creates a Subdirectory entry.
func NewSubdirectory(fs fsys.Filesystem, path, name string) *Subdirectory {
	return &Subdirectory{base{fs: fs, path: path, name: name}}
}

func (*Subdirectory) isDirectoryEntry() {}

// RegularFile is a non-directory entry found inside a parent's listing.
// It may still have a controller initialized for it if policy recognizes
// it as a mount point for a nested pseudo-filesystem.
type RegularFile struct {
	base
}

// NewRegularFile creates a RegularFile entry.
func NewRegularFile(fs fsys.Filesystem, path, name string) *RegularFile {
	return &RegularFile{base{fs: fs, path: path, name: name}}
}

func (*RegularFile) isDirectoryEntry() {}

// Proxy is a minimal DirectoryEntry used only as a search key — e.g. to
// remove a child by the path/name a watch Delete event reported, without
// knowing (or needing) whether it was a Subdirectory or a RegularFile.
// Compare never inspects Kind, so a Proxy compares equal to the real
// entry it stands in for.
type Proxy struct {
	base
}

// NewProxy creates a search-only entry for path/name within fs.
func NewProxy(fs fsys.Filesystem, path, name string) *Proxy {
	return &Proxy{base{fs: fs, path: path, name: name}}
}

func (*Proxy) isDirectoryEntry() {}

// Compare orders two DirectoryEntry values by DisplayName, breaking ties
// by path so that entries with equal display names (e.g. two mount
// candidates with identical names) still compare distinctly for
// sortedlist's duplicate-detection logic, which requires the
// comparator and equality to agree.
func Compare(a, b DirectoryEntry) int {
	if a.DisplayName() != b.DisplayName() {
		if a.DisplayName() < b.DisplayName() {
			return -1
		}
		return 1
	}
	if a.Path() == b.Path() {
		return 0
	}
	if a.Path() < b.Path() {
		return -1
	}
	return 1
}
