// Package fsys defines the filesystem abstraction the tree engine consumes.
//
// This is the external collaborator: directory listing,
// file-type probing, and watch primitives are never implemented by the
// core itself. osfs wraps the real operating-system filesystem (and a
// fsnotify-backed watch primitive); testfs is an in-memory fake used by
// the engine's own tests.
package fsys

import (
	"context"
	"errors"
)

// LinkOption controls whether symlinks are followed when a path is probed
// or listed. The default policy (policy.DefaultPolicy) requests Follow.
type LinkOption int

const (
	FollowSymlinks LinkOption = iota
	NoFollowSymlinks
)

// Kind classifies a directory entry returned by ReadDir/Stat.
type Kind int

const (
	KindDirectory Kind = iota
	KindRegularFile
	KindOther
)

// Entry is one child reported by ReadDir, or the result of a Stat.
type Entry struct {
	Name string
	Kind Kind
}

// Errors a Filesystem implementation reports. The tree/reader/watch
// packages classify on these via errors.Is, never on implementation-
// specific error types, so that testfs and osfs behave identically from
// the engine's point of view.
var (
	// ErrAccessDenied means the host refused to
	// list a directory. Logged at Info, node shows empty, no watch.
	ErrAccessDenied = errors.New("fsys: access denied")
	// ErrNotExist means the path disappeared between discovery and read.
	ErrNotExist = errors.New("fsys: path does not exist")
	// ErrWatchUnavailable means no watch primitive is available.
	ErrWatchUnavailable = errors.New("fsys: watch service unavailable")
	// ErrClosed is returned by any operation on a Filesystem after Close.
	ErrClosed = errors.New("fsys: filesystem is closed")
)

// Filesystem is the host-implementable abstraction over one hierarchical
// store: the global OS filesystem, or a mounted pseudo-filesystem (an
// archive, an image) created by policy.NodePolicy.CreateFilesystemFor.
//
// All paths passed to and returned by a Filesystem are absolute within
// that filesystem's own namespace; the empty string denotes the
// filesystem's root.
type Filesystem interface {
	// ID identifies this filesystem instance for logging and for the
	// domain-mismatch check in Facade.ExpandPath.
	ID() string

	// Roots lists the top-level roots of this filesystem (e.g. "/" on
	// Unix, drive letters on Windows, or a single root for a mount).
	Roots(ctx context.Context) ([]string, error)

	// ReadDir lists the immediate children of dir. dir == "" means the
	// filesystem's own root when the filesystem has exactly one root and
	// callers address it by the empty path (the mount/skip-single-root
	// case); otherwise dir must be one of the paths returned by Roots or
	// a path built with Join from such a path.
	ReadDir(ctx context.Context, dir string, opts LinkOption) ([]Entry, error)

	// Stat probes a single path.
	Stat(ctx context.Context, path string, opts LinkOption) (Entry, error)

	// Join builds a child path from a directory path and a single path
	// component (never containing a separator).
	Join(dir, name string) string

	// Base returns the final path component of path (its "name" per
	// its "name"), or "" for the filesystem's own root.
	Base(path string) string

	// Dir returns the parent of path, or "" if path is already a root.
	Dir(path string) string

	// IsAbs reports whether path is an absolute path in the sense
	// Facade.ExpandPath requires.
	IsAbs(path string) bool

	// SupportsWatch reports whether this filesystem can hand back a
	// WatchPrimitive. A mounted filesystem never offers watch service and
	// returns false.
	SupportsWatch() bool

	// Watch returns the shared watch primitive for this filesystem,
	// creating it lazily on first call. Returns ErrWatchUnavailable if
	// SupportsWatch is false.
	Watch() (WatchPrimitive, error)

	// Closed reports whether Close has already completed.
	Closed() bool

	// Close releases any resources held by this filesystem (e.g. the
	// watch primitive, an open archive handle). Safe to call once; a
	// second call is a no-op returning nil.
	Close() error
}

// WatchEventKind classifies one raw event delivered by a WatchPrimitive.
type WatchEventKind int

const (
	EventCreate WatchEventKind = iota
	EventDelete
	EventOverflow
)

// WatchEvent is one raw notification from the underlying watch primitive,
// scoped to the directory that was registered. Name is empty for
// EventOverflow.
type WatchEvent struct {
	Dir  string
	Name string
	Kind WatchEventKind
}

// WatchPrimitive is the single OS-level watch resource a WatchHub
// multiplexes across many registered directories: it owns a single
// filesystem-level watch primitive. Implementations translate
// whatever raw OS event stream they wrap (fsnotify, inotify, ReadDirectoryChangesW)
// into the three-way WatchEventKind above.
type WatchPrimitive interface {
	// Add starts watching dir. Returns ErrAccessDenied or a wrapped I/O
	// error on failure.
	Add(dir string) error
	// Remove cancels watching dir. No-op if dir was never added.
	Remove(dir string) error
	// Events returns the channel of raw events. Closed when Close is called.
	Events() <-chan WatchEvent
	// Errors returns the channel of asynchronous primitive-level errors
	// (distinct from per-call Add/Remove errors).
	Errors() <-chan error
	// Close releases the primitive. Events()/Errors() close soon after.
	Close() error
}
