package adapters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pyimport/internal/types"
)

func populateWith(t *testing.T, calls *int) func(root string) error {
	t.Helper()
	return func(root string) error {
		*calls++
		return os.WriteFile(filepath.Join(root, "marker.txt"), []byte("payload"), 0o644)
	}
}

func loadDefinition(t *testing.T, path string) types.PackageDefinition {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var definition types.PackageDefinition
	require.NoError(t, yaml.Unmarshal(content, &definition))
	return definition
}

func assertNoStaging(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".staging-"), "staging dir left behind: %s", entry.Name())
	}
}

func TestPackageStoreAdapter_CommitVariants(t *testing.T) {
	store := t.TempDir()
	adapter := NewPackageStoreAdapter()
	ctx := context.Background()
	calls := 0

	draft := adapter.Begin("numpy", store)
	draft.Version = "1.26.4"
	draft.Description = "array computing"
	draft.Requires = []string{"python"}
	draft.Variants = [][]string{{"platform-linux", "arch-x86_64", "python-3.11"}}
	draft.HashedVariants = true
	draft.PipName = "numpy==1.26.4"
	draft.FromPip = true
	draft.Help = [][2]string{{"Home Page", "https://numpy.org"}}

	installed, skipped, err := adapter.Commit(ctx, draft, populateWith(t, &calls))
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, 1, calls)

	variant := installed[0]
	subpath := VariantSubpath(draft.Variants[0], true)
	assert.Len(t, subpath, 40)
	assert.Equal(t, subpath, variant.Subpath)
	assert.Equal(t, 0, variant.Index)
	versionDir := filepath.Join(store, "numpy", "1.26.4")
	assert.Equal(t, filepath.Join(versionDir, subpath), variant.Root)
	assert.FileExists(t, filepath.Join(variant.Root, "marker.txt"))
	assert.Equal(t, filepath.Join(versionDir, "package.yaml")+"[0]", variant.URI)

	definition := loadDefinition(t, filepath.Join(versionDir, "package.yaml"))
	assert.Equal(t, "numpy", definition.Name)
	assert.True(t, definition.HashedVariants)
	assert.True(t, definition.FromPip)
	if diff := cmp.Diff([][]string{{"Home Page", "https://numpy.org"}}, definition.Help); diff != "" {
		t.Fatalf("unexpected help (-want +got):\n%s", diff)
	}

	t.Run("re-commit skips", func(t *testing.T) {
		installed, skipped, err := adapter.Commit(ctx, draft, populateWith(t, &calls))
		require.NoError(t, err)
		assert.Empty(t, installed)
		require.Len(t, skipped, 1)
		assert.Equal(t, variant, skipped[0])
		assert.Equal(t, 1, calls)
	})

	t.Run("new variant merges", func(t *testing.T) {
		other := *draft
		other.Variants = [][]string{{"platform-linux", "arch-x86_64", "python-3.12"}}
		installed, skipped, err := adapter.Commit(ctx, &other, populateWith(t, &calls))
		require.NoError(t, err)
		require.Len(t, installed, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, 1, installed[0].Index)

		definition := loadDefinition(t, filepath.Join(versionDir, "package.yaml"))
		want := [][]string{
			{"platform-linux", "arch-x86_64", "python-3.11"},
			{"platform-linux", "arch-x86_64", "python-3.12"},
		}
		if diff := cmp.Diff(want, definition.Variants); diff != "" {
			t.Fatalf("unexpected variants (-want +got):\n%s", diff)
		}
	})

	assertNoStaging(t, filepath.Join(store, "numpy"))
}

func TestPackageStoreAdapter_CommitSingle(t *testing.T) {
	store := t.TempDir()
	adapter := NewPackageStoreAdapter()
	calls := 0

	draft := adapter.Begin("six", store)
	draft.Version = "1.16.0"
	draft.Requires = []string{"python-2.7+"}

	installed, skipped, err := adapter.Commit(context.Background(), draft, populateWith(t, &calls))
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, -1, installed[0].Index)
	assert.FileExists(t, filepath.Join(store, "six", "1.16.0", "marker.txt"))
	assert.FileExists(t, filepath.Join(store, "six", "1.16.0", "package.yaml"))

	installed, skipped, err = adapter.Commit(context.Background(), draft, populateWith(t, &calls))
	require.NoError(t, err)
	assert.Empty(t, installed)
	assert.Len(t, skipped, 1)
	assert.Equal(t, 1, calls)

	t.Run("variants onto single package fail", func(t *testing.T) {
		withVariants := *draft
		withVariants.Variants = [][]string{{"python-3.11"}}
		_, _, err := adapter.Commit(context.Background(), &withVariants, populateWith(t, &calls))
		require.Error(t, err)
		assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	})
}

func TestPackageStoreAdapter_PopulateFailureLeavesNothing(t *testing.T) {
	store := t.TempDir()
	adapter := NewPackageStoreAdapter()
	draft := adapter.Begin("broken", store)
	draft.Version = "1.0"
	draft.Variants = [][]string{{"python-3.11"}}
	draft.HashedVariants = true

	boom := errors.New("boom")
	_, _, err := adapter.Commit(context.Background(), draft, func(string) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.NoFileExists(t, filepath.Join(store, "broken", "1.0", "package.yaml"))
	assert.NoDirExists(t, filepath.Join(store, "broken", "1.0", VariantSubpath(draft.Variants[0], true)))
	assertNoStaging(t, filepath.Join(store, "broken"))
}

func TestPackageStoreAdapter_CommitValidation(t *testing.T) {
	adapter := NewPackageStoreAdapter()
	noop := func(string) error { return nil }

	_, _, err := adapter.Commit(context.Background(), &types.PackageDraft{Name: "x", StorePath: t.TempDir()}, noop)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	_, _, err = adapter.Commit(context.Background(), &types.PackageDraft{Name: "x", Version: "1"}, noop)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestPackageStoreAdapter_ListPackages(t *testing.T) {
	store := t.TempDir()
	adapter := NewPackageStoreAdapter()
	noop := func(string) error { return nil }
	for _, name := range []string{"zlib_py", "attrs"} {
		draft := adapter.Begin(name, store)
		draft.Version = "1.0"
		draft.FromPip = true
		_, _, err := adapter.Commit(context.Background(), draft, noop)
		require.NoError(t, err)
	}

	definitions, err := adapter.ListPackages(store)
	require.NoError(t, err)
	require.Len(t, definitions, 2)
	assert.Equal(t, "attrs", definitions[0].Name)
	assert.Equal(t, "zlib_py", definitions[1].Name)
}

func TestVariantSubpath(t *testing.T) {
	requires := []string{"platform-linux", "python-3.11"}
	assert.Equal(t, "platform-linux/python-3.11", VariantSubpath(requires, false))
	assert.Equal(t, VariantSubpath(requires, true), VariantSubpath([]string{"platform-linux", "python-3.11"}, true))
	assert.NotEqual(t, VariantSubpath(requires, true), VariantSubpath([]string{"python-3.11", "platform-linux"}, true))
}
