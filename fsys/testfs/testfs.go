// Package testfs is an in-memory fsys.Filesystem fake used by the engine's
// own tests to drive deterministic create/delete/overflow scenarios
// without touching a real disk.
package testfs

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/susamn/lib-filesystem-view/fsys"
)

type node struct {
	kind     fsys.Kind
	children map[string]*node // nil for non-directories
}

// Filesystem is a single in-memory tree rooted at "/".
type Filesystem struct {
	id string

	mu     sync.Mutex
	root   *node
	closed bool

	watchMu sync.Mutex
	watcher *primitive
}

// New creates an empty in-memory filesystem with a single directory root.
func New(id string) *Filesystem {
	return &Filesystem{
		id:   id,
		root: &node{kind: fsys.KindDirectory, children: map[string]*node{}},
	}
}

func (f *Filesystem) ID() string { return f.id }

func (f *Filesystem) Roots(ctx context.Context) ([]string, error) {
	if f.Closed() {
		return nil, fsys.ErrClosed
	}
	return []string{"/"}, nil
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (f *Filesystem) lookup(p string) (*node, bool) {
	n := f.root
	for _, part := range split(p) {
		if n.children == nil {
			return nil, false
		}
		child, ok := n.children[part]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Mkdir creates a directory at p (and any missing ancestors), for use by
// tests setting up fixtures. Not part of fsys.Filesystem.
func (f *Filesystem) Mkdir(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.root
	for _, part := range split(p) {
		if n.children == nil {
			n.children = map[string]*node{}
		}
		child, ok := n.children[part]
		if !ok {
			child = &node{kind: fsys.KindDirectory, children: map[string]*node{}}
			n.children[part] = child
		}
		n = child
	}
}

// WriteFile creates a regular file at p, creating parent directories as
// needed. Not part of fsys.Filesystem.
func (f *Filesystem) WriteFile(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir, name := path.Split(strings.TrimSuffix(p, "/"))
	parent := f.root
	for _, part := range split(dir) {
		if parent.children == nil {
			parent.children = map[string]*node{}
		}
		child, ok := parent.children[part]
		if !ok {
			child = &node{kind: fsys.KindDirectory, children: map[string]*node{}}
			parent.children[part] = child
		}
		parent = child
	}
	if parent.children == nil {
		parent.children = map[string]*node{}
	}
	parent.children[name] = &node{kind: fsys.KindRegularFile}
	f.notifyLocked(strings.TrimSuffix(dir, "/"), name, fsys.EventCreate)
}

// Remove deletes whatever is at p and fires a Delete watch event for its
// parent directory. Not part of fsys.Filesystem.
func (f *Filesystem) Remove(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir, name := path.Split(strings.TrimSuffix(p, "/"))
	parent, ok := f.lookup(strings.TrimSuffix(dir, "/"))
	if !ok || parent.children == nil {
		return
	}
	delete(parent.children, name)
	f.notifyLocked(strings.TrimSuffix(dir, "/"), name, fsys.EventDelete)
}

// InjectOverflow simulates the watch primitive losing events for dir.
func (f *Filesystem) InjectOverflow(dir string) {
	f.watchMu.Lock()
	w := f.watcher
	f.watchMu.Unlock()
	if w != nil {
		w.send(fsys.WatchEvent{Dir: dir, Kind: fsys.EventOverflow})
	}
}

func (f *Filesystem) notifyLocked(dir, name string, kind fsys.WatchEventKind) {
	f.watchMu.Lock()
	w := f.watcher
	f.watchMu.Unlock()
	if w == nil {
		return
	}
	if dir == "" {
		dir = "/"
	}
	if !w.isWatched(dir) {
		return
	}
	w.send(fsys.WatchEvent{Dir: dir, Name: name, Kind: kind})
}

func (f *Filesystem) resolve(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func (f *Filesystem) ReadDir(ctx context.Context, dir string, opts fsys.LinkOption) ([]fsys.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fsys.ErrClosed
	}
	n, ok := f.lookup(f.resolve(dir))
	if !ok {
		return nil, fsys.ErrNotExist
	}
	if n.kind != fsys.KindDirectory {
		return nil, fsys.ErrNotExist
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]fsys.Entry, 0, len(names))
	for _, name := range names {
		out = append(out, fsys.Entry{Name: name, Kind: n.children[name].kind})
	}
	return out, nil
}

func (f *Filesystem) Stat(ctx context.Context, p string, opts fsys.LinkOption) (fsys.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fsys.Entry{}, fsys.ErrClosed
	}
	n, ok := f.lookup(f.resolve(p))
	if !ok {
		return fsys.Entry{}, fsys.ErrNotExist
	}
	return fsys.Entry{Name: path.Base(p), Kind: n.kind}, nil
}

func (f *Filesystem) Join(dir, name string) string {
	if dir == "" || dir == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func (f *Filesystem) Base(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	return path.Base(p)
}

func (f *Filesystem) Dir(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	d := path.Dir(p)
	if d == "/" || d == "." {
		return "/"
	}
	return d
}

func (f *Filesystem) IsAbs(p string) bool {
	return strings.HasPrefix(p, "/")
}

func (f *Filesystem) SupportsWatch() bool { return true }

func (f *Filesystem) Watch() (fsys.WatchPrimitive, error) {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.Closed() {
		return nil, fsys.ErrClosed
	}
	if f.watcher == nil {
		f.watcher = newPrimitive()
	}
	return f.watcher, nil
}

func (f *Filesystem) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Filesystem) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

// primitive is the in-memory fsys.WatchPrimitive backing testfs: it has
// no OS event source, so WriteFile/Remove/InjectOverflow on the owning
// Filesystem push events into it directly (Mkdir does not).
type primitive struct {
	mu      sync.Mutex
	watched map[string]bool
	events  chan fsys.WatchEvent
	errs    chan error
	closed  bool
}

func newPrimitive() *primitive {
	return &primitive{
		watched: map[string]bool{},
		events:  make(chan fsys.WatchEvent, 256),
		errs:    make(chan error, 8),
	}
}

func (p *primitive) Add(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watched[dir] = true
	return nil
}

func (p *primitive) Remove(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.watched, dir)
	return nil
}

func (p *primitive) isWatched(dir string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watched[dir]
}

func (p *primitive) send(ev fsys.WatchEvent) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}

func (p *primitive) Events() <-chan fsys.WatchEvent { return p.events }
func (p *primitive) Errors() <-chan error           { return p.errs }

func (p *primitive) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	close(p.errs)
	return nil
}
