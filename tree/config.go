// Package tree implements NodeChildren, the NodeController variants,
// and the Facade: the lazily-expanded, watch-synchronized filesystem
// tree at the center of the engine.
package tree

import (
	"errors"
	"fmt"
	"time"

	"github.com/susamn/lib-filesystem-view/entry"
	"github.com/susamn/lib-filesystem-view/fsys"
	"github.com/susamn/lib-filesystem-view/policy"
	"github.com/susamn/lib-filesystem-view/view"
)

// Comparator orders two sibling names. A nil Comparator defaults to
// ordinary byte-wise string ordering.
type Comparator func(a, b string) int

func defaultComparator(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Config is the engine's builder-style configuration: the library's
// own recognized-options table.
type Config struct {
	// Filesystem is exposed as the global root. Required.
	Filesystem fsys.Filesystem
	// RequestWatchService controls whether the engine attempts watch
	// integration at all. Defaults to true.
	RequestWatchService bool
	// Comparator orders sibling names. Defaults to byte-wise string order.
	Comparator Comparator
	// Policy is the root NodePolicy factory. Defaults to
	// policy.NewDefaultPolicy(), a stateless singleton.
	Policy policy.NodePolicy
	// View receives every structural-change callback. Defaults to
	// view.Null{}.
	View view.NodeView
	// PollRootsInterval, when positive, starts a ticker-driven poll of
	// the global filesystem's roots at that interval, whether or not
	// watching is requested. Zero (the default) disables polling; no
	// interval is chosen automatically.
	PollRootsInterval time.Duration
	// RecentEventCapacity bounds the Facade's recent-operations ring
	// buffer (supplemented diagnostics feature). Defaults to 256.
	RecentEventCapacity int
}

// Option mutates a Config being built by New. Unrecognized zero values
// are filled with their defaults by newConfig.
type Option func(*Config)

func WithFilesystem(fs fsys.Filesystem) Option {
	return func(c *Config) { c.Filesystem = fs }
}

func WithWatchService(enabled bool) Option {
	return func(c *Config) { c.RequestWatchService = enabled }
}

func WithComparator(cmp Comparator) Option {
	return func(c *Config) { c.Comparator = cmp }
}

func WithPolicy(p policy.NodePolicy) Option {
	return func(c *Config) { c.Policy = p }
}

func WithView(v view.NodeView) Option {
	return func(c *Config) { c.View = v }
}

func WithPollRootsInterval(d time.Duration) Option {
	return func(c *Config) { c.PollRootsInterval = d }
}

func WithRecentEventCapacity(n int) Option {
	return func(c *Config) { c.RecentEventCapacity = n }
}

func newConfig(fs fsys.Filesystem, opts []Option) (*Config, error) {
	cfg := &Config{
		Filesystem:           fs,
		RequestWatchService:  true,
		Comparator:           defaultComparator,
		Policy:               policy.NewDefaultPolicy(),
		View:                 view.Null{},
		RecentEventCapacity:  256,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Filesystem == nil {
		return nil, errors.New("tree: Config.Filesystem is required")
	}
	if cfg.Comparator == nil {
		cfg.Comparator = defaultComparator
	}
	if cfg.Policy == nil {
		cfg.Policy = policy.NewDefaultPolicy()
	}
	if cfg.View == nil {
		cfg.View = view.Null{}
	}
	if cfg.RecentEventCapacity <= 0 {
		cfg.RecentEventCapacity = 256
	}
	return cfg, nil
}

func (c *Config) entryComparator() func(a, b entry.DirectoryEntry) int {
	cmp := c.Comparator
	return func(a, b entry.DirectoryEntry) int {
		if c := cmp(a.DisplayName(), b.DisplayName()); c != 0 {
			return c
		}
		return entry.Compare(a, b)
	}
}

// DomainMismatchError is returned by ExpandPathOn when the supplied
// filesystem is not the one the call targets.
type DomainMismatchError struct {
	Expected, Got string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("tree: domain mismatch: expected filesystem %q, got %q", e.Expected, e.Got)
}

// NonAbsolutePathError is returned when a path argument is not absolute
// within its filesystem.
type NonAbsolutePathError struct {
	Path string
}

func (e *NonAbsolutePathError) Error() string {
	return fmt.Sprintf("tree: path is not absolute: %q", e.Path)
}
