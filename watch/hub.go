// Package watch implements WatchHub: the single background
// thread that multiplexes one filesystem-level watch primitive across
// every directory any NodeChildren has asked to be notified about.
//
// Grounded on internal/sync/local_sync.go's single-watcher/watchLoop
// pattern, generalized from "one fsnotify.Watcher per vault" to "one
// fsys.WatchPrimitive per Hub, shared across every registered directory",
// and on internal/vault/recon.go for the overflow-counting idiom.
package watch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/internal/logger"
)

// Key identifies one registration. Returned by Register, required by
// Unregister. Minted via uuid rather than reusing the path so the map's
// value type stays honest about being an opaque handle from the
// underlying watch primitive, not the path itself (a path can be
// unregistered and re-registered, yielding a new Key each time).
type Key uuid.UUID

// Callbacks receives the three event shapes a registered directory's
// watch can deliver. Exactly one callback fires per raw event addressed
// to the directory; an overflow the primitive reports with no directory
// fires OnOverflow on every registration. Overflow carries no name because it invalidates the whole
// directory's accumulated state, not one entry.
type Callbacks struct {
	OnCreate   func(name string)
	OnDelete   func(name string)
	OnOverflow func()
}

type registration struct {
	dir string
	cb  Callbacks
}

// Hub owns a single fsys.WatchPrimitive and dispatches its events to
// whichever registration matches the event's directory. There is one Hub
// per fsys.Filesystem that supports watching; callers typically create
// one Hub per NodeController tree root.
type Hub struct {
	fs   fsys.Filesystem
	prim fsys.WatchPrimitive

	mu            sync.Mutex
	byKey         map[Key]*registration
	byDir         map[string]Key
	overflowCount map[string]int
	closed        bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewHub creates a Hub over fs's watch primitive. Returns
// fsys.ErrWatchUnavailable (wrapped) if fs.SupportsWatch() is false or
// obtaining the primitive fails — the tree package then treats that
// filesystem as unwatched.
func NewHub(fs fsys.Filesystem) (*Hub, error) {
	if !fs.SupportsWatch() {
		return nil, fmt.Errorf("watch: %w: filesystem %s", fsys.ErrWatchUnavailable, fs.ID())
	}
	prim, err := fs.Watch()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	h := &Hub{
		fs:            fs,
		prim:          prim,
		byKey:         make(map[Key]*registration),
		byDir:         make(map[string]Key),
		overflowCount: make(map[string]int),
		done:          make(chan struct{}),
	}
	h.wg.Add(1)
	go h.dispatchLoop()
	return h, nil
}

// IsAvailable reports whether this Hub can still accept registrations.
func (h *Hub) IsAvailable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// IsWatched reports whether dir currently has a live registration.
func (h *Hub) IsWatched(dir string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byDir[dir]
	return ok
}

// Register starts watching dir and routes its events to cb. Registering
// a dir that is already registered replaces the previous registration's
// callbacks and reuses the same underlying primitive watch (no duplicate
// Add). Returns fsys.ErrAccessDenied (logged at Info) or a
// wrapped I/O error (logged at Warn) if the primitive refuses the add.
func (h *Hub) Register(dir string, cb Callbacks) (Key, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Key{}, fmt.Errorf("watch: %w", fsys.ErrClosed)
	}

	if existing, ok := h.byDir[dir]; ok {
		h.byKey[existing] = &registration{dir: dir, cb: cb}
		return existing, nil
	}

	if err := h.prim.Add(dir); err != nil {
		if errors.Is(err, fsys.ErrAccessDenied) {
			logger.WithField("path", dir).WithField("filesystem", h.fs.ID()).Info("watch: access denied, node will show empty with no watch")
		} else {
			logger.WithField("path", dir).WithField("filesystem", h.fs.ID()).WithError(err).Warn("watch: failed to register directory")
		}
		return Key{}, err
	}

	key := Key(uuid.New())
	h.byKey[key] = &registration{dir: dir, cb: cb}
	h.byDir[dir] = key
	return key, nil
}

// Unregister cancels a registration previously returned by Register.
// No-op if key is unknown (never issued, or already unregistered). Close
// does not drop registrations, so a key still registered at Close is
// removed here as usual.
func (h *Hub) Unregister(key Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	reg, ok := h.byKey[key]
	if !ok {
		return
	}
	delete(h.byKey, key)
	delete(h.byDir, reg.dir)
	delete(h.overflowCount, reg.dir)
	_ = h.prim.Remove(reg.dir)
}

// OverflowCount returns how many Overflow events have been delivered for
// dir since it was registered (supplemented diagnostics, grounded on
// vault/recon.go's DLQ-depth counters).
func (h *Hub) OverflowCount(dir string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overflowCount[dir]
}

// Close stops the dispatch loop and releases the underlying primitive.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
	err := h.prim.Close()
	h.wg.Wait()
	return err
}

func (h *Hub) dispatchLoop() {
	defer h.wg.Done()
	events := h.prim.Events()
	errs := h.prim.Errors()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.dispatch(ev)
		case err, ok := <-errs:
			if !ok {
				continue
			}
			logger.WithField("filesystem", h.fs.ID()).WithError(err).Warn("watch: primitive reported an error")
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(ev fsys.WatchEvent) {
	// A watch primitive's overflow can be global rather than per-directory
	// (fsnotify's ErrEventOverflow carries no path at all) — byDir has no
	// entry for an empty Dir, so route this to every registered directory
	// instead of dropping it.
	if ev.Kind == fsys.EventOverflow && ev.Dir == "" {
		h.dispatchGlobalOverflow()
		return
	}

	h.mu.Lock()
	key, ok := h.byDir[ev.Dir]
	if !ok {
		h.mu.Unlock()
		return
	}
	reg := h.byKey[key]
	if ev.Kind == fsys.EventOverflow {
		h.overflowCount[ev.Dir]++
	}
	h.mu.Unlock()

	switch ev.Kind {
	case fsys.EventCreate:
		if reg.cb.OnCreate != nil {
			reg.cb.OnCreate(ev.Name)
		}
	case fsys.EventDelete:
		if reg.cb.OnDelete != nil {
			reg.cb.OnDelete(ev.Name)
		}
	case fsys.EventOverflow:
		logger.WithField("path", ev.Dir).WithField("filesystem", h.fs.ID()).Warn("watch: overflow, discarding accumulated state and re-reading")
		if reg.cb.OnOverflow != nil {
			reg.cb.OnOverflow()
		}
	}
}

// dispatchGlobalOverflow re-reads every directory currently registered
// with this Hub, the same recovery a per-directory Overflow triggers,
// for an overflow event the underlying primitive couldn't attribute to
// any one directory.
func (h *Hub) dispatchGlobalOverflow() {
	h.mu.Lock()
	regs := make([]*registration, 0, len(h.byDir))
	for dir, key := range h.byDir {
		h.overflowCount[dir]++
		regs = append(regs, h.byKey[key])
	}
	h.mu.Unlock()

	logger.WithField("filesystem", h.fs.ID()).Warn("watch: overflow with no associated directory, re-reading every watched node")
	for _, reg := range regs {
		if reg.cb.OnOverflow != nil {
			reg.cb.OnOverflow()
		}
	}
}
