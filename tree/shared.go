package tree

import (
	"sync"
	"time"

	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/internal/logger"
	"github.com/susamn/lib-filesystem-view/watch"
)

// EventKind classifies one entry in the Facade's recent-operations ring
// buffer.
type EventKind int

const (
	EventKindCreate EventKind = iota
	EventKindDelete
	EventKindOverflow
)

func (k EventKind) String() string {
	switch k {
	case EventKindCreate:
		return "create"
	case EventKindDelete:
		return "delete"
	case EventKindOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// RecentEvent is one watch callback the Facade retained for diagnostics.
type RecentEvent struct {
	Dir  string
	Name string
	Kind EventKind
	At   time.Time
}

// Metrics is a point-in-time snapshot of engine-internal counts,
// grounded on vault.Vault.GetMetrics/VaultMetrics.
type Metrics struct {
	ExpandedNodes          int
	LiveWatches            int
	OpenMountedFilesystems int
}

// shared holds the state every controller in one Facade's tree needs
// access to but none of them owns individually: the per-filesystem watch
// hub registry, and the engine-internal counters/ring-buffer backing
// Facade.Metrics/RecentEvents.
type shared struct {
	cfg *Config

	mu            sync.Mutex
	hubs          map[fsys.Filesystem]*watch.Hub
	expandedCount int
	mountedCount  int
	watchCount    int
	recent        []RecentEvent
}

func newShared(cfg *Config) *shared {
	return &shared{
		cfg:  cfg,
		hubs: make(map[fsys.Filesystem]*watch.Hub),
	}
}

// hubFor returns (creating if necessary) the Hub multiplexing fs's watch
// primitive. Returns nil if watching is disabled by configuration or
// unsupported by fs — callers must treat a nil Hub as "no watch
// available" rather than an error: reported once at WatchHub
// construction, and the hub stays in off mode from then on.
func (s *shared) hubFor(fs fsys.Filesystem) *watch.Hub {
	if !s.cfg.RequestWatchService || !fs.SupportsWatch() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hubs[fs]; ok {
		return h
	}
	h, err := watch.NewHub(fs)
	if err != nil {
		logger.WithField("filesystem", fs.ID()).WithError(err).Warn("tree: watch unavailable for this filesystem")
		s.hubs[fs] = nil
		return nil
	}
	s.hubs[fs] = h
	return h
}

func (s *shared) closeAllHubs() {
	s.mu.Lock()
	hubs := make([]*watch.Hub, 0, len(s.hubs))
	for _, h := range s.hubs {
		if h != nil {
			hubs = append(hubs, h)
		}
	}
	s.mu.Unlock()
	for _, h := range hubs {
		_ = h.Close()
	}
}

func (s *shared) incExpanded(delta int) {
	s.mu.Lock()
	s.expandedCount += delta
	s.mu.Unlock()
}

func (s *shared) incMounted(delta int) {
	s.mu.Lock()
	s.mountedCount += delta
	s.mu.Unlock()
}

func (s *shared) incWatch(delta int) {
	s.mu.Lock()
	s.watchCount += delta
	s.mu.Unlock()
}

func (s *shared) recordEvent(ev RecentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, ev)
	if over := len(s.recent) - s.cfg.RecentEventCapacity; over > 0 {
		s.recent = s.recent[over:]
	}
}

func (s *shared) metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metrics{
		ExpandedNodes:          s.expandedCount,
		LiveWatches:            s.watchCount,
		OpenMountedFilesystems: s.mountedCount,
	}
}

func (s *shared) recentEvents() []RecentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecentEvent, len(s.recent))
	copy(out, s.recent)
	return out
}
