package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixtureValidates(t *testing.T) {
	require.NoError(t, DefaultFixture().Validate())
}

func TestValidateRejectsFileWithChildren(t *testing.T) {
	f := &Fixture{
		Name: "bad",
		Tree: []NodeFixture{{Name: "a.txt", IsDir: false, Children: []NodeFixture{{Name: "x", IsDir: true}}}},
	}
	assert.Error(t, f.Validate())
}

func TestLoadFixtureParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	yamlBody := "name: sample\ntree:\n  - name: docs\n    is_dir: true\n    children:\n      - name: notes.md\n        is_dir: false\npolicy:\n  show_files: true\nexpand_paths:\n  - /docs\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", f.Name)
	assert.True(t, f.Policy.ShowFiles)
	assert.Equal(t, []string{"/docs"}, f.ExpandPaths)
}

func TestMaterializeBuildsRealDirectoryTree(t *testing.T) {
	f := DefaultFixture()
	dir := t.TempDir()

	fs, err := f.Materialize(dir)
	require.NoError(t, err)
	defer fs.Close()

	roots, err := fs.Roots(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
