// Package testsupport loads YAML fixture descriptions for the engine's
// own integration tests — never used by the engine itself, which only
// ever takes an in-memory tree.Config.
//
// Adapted from internal/config.Config's load/default/validate shape: a
// Fixture describes a small directory tree to materialize in a real
// (temp) directory, opened as an osfs.Filesystem, and the host-policy
// knobs to exercise against it.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/susamn/lib-filesystem-view/fsys/osfs"
)

// NodeFixture describes one entry to materialize: a directory (with
// nested Children) or a file (Children empty).
type NodeFixture struct {
	Name     string        `yaml:"name"`
	IsDir    bool          `yaml:"is_dir"`
	Children []NodeFixture `yaml:"children,omitempty"`
}

// PolicyFixture describes the DefaultPolicy-shaped knobs a fixture wants
// exercised.
type PolicyFixture struct {
	IncludeHidden  bool `yaml:"include_hidden"`
	ShowFiles      bool `yaml:"show_files"`
	FollowSymlinks bool `yaml:"follow_symlinks"`
}

// Fixture is one named integration-test scenario: a tree to build, the
// policy to run it under, and the paths the test expects expand_path to
// reach.
type Fixture struct {
	Name          string        `yaml:"name"`
	Tree          []NodeFixture `yaml:"tree"`
	Policy        PolicyFixture `yaml:"policy"`
	ExpandPaths   []string      `yaml:"expand_paths"`
	WatchDisabled bool          `yaml:"watch_disabled"`
}

// DefaultFixture returns a minimal single-directory fixture, used when a
// test doesn't load one from disk.
func DefaultFixture() *Fixture {
	return &Fixture{
		Name: "default",
		Tree: []NodeFixture{
			{Name: "a", IsDir: true, Children: []NodeFixture{
				{Name: "b", IsDir: true},
			}},
		},
		Policy:      PolicyFixture{FollowSymlinks: true},
		ExpandPaths: []string{"/a"},
	}
}

// LoadFixture reads and validates a Fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: failed to read fixture %s: %w", path, err)
	}
	f := DefaultFixture()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("testsupport: failed to parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("testsupport: invalid fixture %s: %w", path, err)
	}
	return f, nil
}

// Validate checks that the fixture is structurally sane before a test
// tries to build it.
func (f *Fixture) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("fixture name cannot be empty")
	}
	var walk func([]NodeFixture) error
	walk = func(nodes []NodeFixture) error {
		for _, n := range nodes {
			if n.Name == "" {
				return fmt.Errorf("fixture %s: a node has an empty name", f.Name)
			}
			if !n.IsDir && len(n.Children) > 0 {
				return fmt.Errorf("fixture %s: file node %q cannot have children", f.Name, n.Name)
			}
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(f.Tree)
}

// Materialize writes the fixture's tree under dir (which must already
// exist) and opens it as an osfs.Filesystem rooted there.
func (f *Fixture) Materialize(dir string) (*osfs.Filesystem, error) {
	var write func(base string, nodes []NodeFixture) error
	write = func(base string, nodes []NodeFixture) error {
		for _, n := range nodes {
			p := filepath.Join(base, n.Name)
			if n.IsDir {
				if err := os.Mkdir(p, 0o755); err != nil {
					return fmt.Errorf("testsupport: mkdir %s: %w", p, err)
				}
				if err := write(p, n.Children); err != nil {
					return err
				}
				continue
			}
			if err := os.WriteFile(p, nil, 0o644); err != nil {
				return fmt.Errorf("testsupport: write file %s: %w", p, err)
			}
		}
		return nil
	}
	if err := write(dir, f.Tree); err != nil {
		return nil, err
	}
	return osfs.New(f.Name, dir)
}
