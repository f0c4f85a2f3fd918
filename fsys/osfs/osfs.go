// Package osfs implements fsys.Filesystem over the real operating-system
// filesystem, using io/fs-style os calls for listing/probing and
// fsnotify for the watch primitive.
package osfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/susamn/lib-filesystem-view/fsys"
)

// Filesystem is the default fsys.Filesystem: the local OS filesystem
// rooted at a single directory (grounded on internal/sync/local_sync.go's
// rootPath-scoped watcher).
type Filesystem struct {
	id   string
	root string

	mu      sync.Mutex
	watcher fsys.WatchPrimitive
	closed  bool
}

// New creates an osfs.Filesystem rooted at root. root must already exist.
func New(id, root string) (*Filesystem, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("osfs: root path does not exist: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("osfs: cannot resolve root path: %w", err)
	}
	return &Filesystem{id: id, root: abs}, nil
}

func (f *Filesystem) ID() string { return f.id }

func (f *Filesystem) Roots(ctx context.Context) ([]string, error) {
	if f.Closed() {
		return nil, fsys.ErrClosed
	}
	return []string{f.root}, nil
}

func (f *Filesystem) resolve(dir string) string {
	if dir == "" {
		return f.root
	}
	return dir
}

func (f *Filesystem) ReadDir(ctx context.Context, dir string, opts fsys.LinkOption) ([]fsys.Entry, error) {
	if f.Closed() {
		return nil, fsys.ErrClosed
	}
	path := f.resolve(dir)
	ents, err := os.ReadDir(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", fsys.ErrAccessDenied, path)
		}
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", fsys.ErrNotExist, path)
		}
		return nil, fmt.Errorf("osfs: read dir %s: %w", path, err)
	}
	out := make([]fsys.Entry, 0, len(ents))
	for _, de := range ents {
		kind, err := f.kindOf(filepath.Join(path, de.Name()), de, opts)
		if err != nil {
			continue
		}
		out = append(out, fsys.Entry{Name: de.Name(), Kind: kind})
	}
	return out, nil
}

func (f *Filesystem) kindOf(fullPath string, de os.DirEntry, opts fsys.LinkOption) (fsys.Kind, error) {
	if de.Type()&os.ModeSymlink != 0 {
		if opts == fsys.NoFollowSymlinks {
			return fsys.KindOther, nil
		}
		info, err := os.Stat(fullPath)
		if err != nil {
			return fsys.KindOther, err
		}
		if info.IsDir() {
			return fsys.KindDirectory, nil
		}
		if info.Mode().IsRegular() {
			return fsys.KindRegularFile, nil
		}
		return fsys.KindOther, nil
	}
	if de.IsDir() {
		return fsys.KindDirectory, nil
	}
	if de.Type().IsRegular() {
		return fsys.KindRegularFile, nil
	}
	return fsys.KindOther, nil
}

func (f *Filesystem) Stat(ctx context.Context, path string, opts fsys.LinkOption) (fsys.Entry, error) {
	if f.Closed() {
		return fsys.Entry{}, fsys.ErrClosed
	}
	p := f.resolve(path)
	var info os.FileInfo
	var err error
	if opts == fsys.NoFollowSymlinks {
		info, err = os.Lstat(p)
	} else {
		info, err = os.Stat(p)
	}
	if err != nil {
		if os.IsPermission(err) {
			return fsys.Entry{}, fmt.Errorf("%w: %s", fsys.ErrAccessDenied, p)
		}
		if os.IsNotExist(err) {
			return fsys.Entry{}, fmt.Errorf("%w: %s", fsys.ErrNotExist, p)
		}
		return fsys.Entry{}, fmt.Errorf("osfs: stat %s: %w", p, err)
	}
	kind := fsys.KindOther
	switch {
	case info.IsDir():
		kind = fsys.KindDirectory
	case info.Mode().IsRegular():
		kind = fsys.KindRegularFile
	}
	return fsys.Entry{Name: filepath.Base(p), Kind: kind}, nil
}

func (f *Filesystem) Join(dir, name string) string {
	return filepath.Join(f.resolve(dir), name)
}

func (f *Filesystem) Base(path string) string {
	if path == "" || path == f.root {
		return ""
	}
	return filepath.Base(path)
}

func (f *Filesystem) Dir(path string) string {
	if path == "" || path == f.root {
		return ""
	}
	parent := filepath.Dir(path)
	if parent == f.root {
		return f.root
	}
	return parent
}

func (f *Filesystem) IsAbs(path string) bool {
	return filepath.IsAbs(path)
}

func (f *Filesystem) SupportsWatch() bool { return true }

func (f *Filesystem) Watch() (fsys.WatchPrimitive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fsys.ErrClosed
	}
	if f.watcher != nil {
		return f.watcher, nil
	}
	w, err := newFsnotifyPrimitive()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fsys.ErrWatchUnavailable, err)
	}
	f.watcher = w
	return f.watcher, nil
}

func (f *Filesystem) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Filesystem) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

// fsnotifyPrimitive adapts *fsnotify.Watcher to fsys.WatchPrimitive,
// translating its Op bitmask into the three-way Create/Delete/Overflow
// model (grounded on local_sync.go's convertEvent/watchLoop).
type fsnotifyPrimitive struct {
	w      *fsnotify.Watcher
	events chan fsys.WatchEvent
	errs   chan error
	done   chan struct{}
}

func newFsnotifyPrimitive() (*fsnotifyPrimitive, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	p := &fsnotifyPrimitive{
		w:      w,
		events: make(chan fsys.WatchEvent, 64),
		errs:   make(chan error, 8),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p, nil
}

func (p *fsnotifyPrimitive) loop() {
	defer close(p.events)
	defer close(p.errs)
	for {
		select {
		case ev, ok := <-p.w.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(ev.Name)
			name := filepath.Base(ev.Name)
			switch {
			case ev.Op&fsnotify.Create != 0:
				p.send(fsys.WatchEvent{Dir: dir, Name: name, Kind: fsys.EventCreate})
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				p.send(fsys.WatchEvent{Dir: dir, Name: name, Kind: fsys.EventDelete})
			}
		case err, ok := <-p.w.Errors:
			if !ok {
				return
			}
			if err == fsnotify.ErrEventOverflow {
				p.send(fsys.WatchEvent{Kind: fsys.EventOverflow})
				continue
			}
			select {
			case p.errs <- err:
			case <-p.done:
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *fsnotifyPrimitive) send(ev fsys.WatchEvent) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

func (p *fsnotifyPrimitive) Add(dir string) error {
	if err := p.w.Add(dir); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", fsys.ErrAccessDenied, dir)
		}
		return fmt.Errorf("osfs: watch add %s: %w", dir, err)
	}
	return nil
}

func (p *fsnotifyPrimitive) Remove(dir string) error {
	_ = p.w.Remove(dir)
	return nil
}

func (p *fsnotifyPrimitive) Events() <-chan fsys.WatchEvent { return p.events }
func (p *fsnotifyPrimitive) Errors() <-chan error           { return p.errs }

func (p *fsnotifyPrimitive) Close() error {
	select {
	case <-p.done:
		return nil
	default:
		close(p.done)
	}
	return p.w.Close()
}
