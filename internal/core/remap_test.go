package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyimport/internal/types"
)

func testDist(files ...string) types.Distribution {
	return types.Distribution{
		Name:    "pkg",
		Version: "1.0",
		InfoDir: "pkg-1.0.dist-info",
		Files:   files,
	}
}

func mustRules(t *testing.T, rules ...types.RemapRule) []types.CompiledRemapRule {
	t.Helper()
	compiled, err := types.CompileRemapRules(rules)
	require.NoError(t, err)
	return compiled
}

func alwaysExists(string) bool { return true }

func TestMapFile(t *testing.T) {
	rules := mustRules(t,
		types.RemapRule{
			RecordPath:  `^\.\./\.\./share/(.*)`,
			InstallPath: `share/$1`,
			PackagePath: `share/$1`,
		},
		types.RemapRule{
			RecordPath:  `^\.\./(.*)`,
			InstallPath: `$1`,
			PackagePath: `extra/$1`,
		},
	)
	remapper := NewPathRemapper(rules, zerolog.Nop())
	tests := []struct {
		name     string
		path     string
		wantSrc  string
		wantDest string
	}{
		{"executable", "bin/tool", "bin/tool", "bin/tool"},
		{"nested executable dir", "bin/sub/tool", "bin/sub/tool", "bin/sub/tool"},
		{"dist-info", "pkg-1.0.dist-info/RECORD", "pkg-1.0.dist-info/RECORD", "python/pkg-1.0.dist-info/RECORD"},
		{"package file", "pkg/__init__.py", "pkg/__init__.py", "python/pkg/__init__.py"},
		{"top level module", "six.py", "six.py", "python/six.py"},
		{"bin prefix is not bin", "binary/data", "binary/data", "python/binary/data"},
		{"first rule wins", "../../share/man/tool.1", "share/man/tool.1", "share/man/tool.1"},
		{"second rule", "../etc/conf.ini", "etc/conf.ini", "extra/etc/conf.ini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dest, err := remapper.MapFile(tt.path, testDist())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, src)
			assert.Equal(t, tt.wantDest, dest)
		})
	}
}

func TestMapFileRuleSubstitution(t *testing.T) {
	rule := types.RemapRule{
		RecordPath:  `\.\./lib/(\w+)\.so`,
		InstallPath: `lib/$1.so`,
		PackagePath: `native/$1.so`,
	}
	rules := mustRules(t, rule)
	remapper := NewPathRemapper(rules, zerolog.Nop())

	for _, path := range []string{"../lib/foo.so", "../lib/bar.so"} {
		src, dest, err := remapper.MapFile(path, testDist())
		require.NoError(t, err)
		assert.Equal(t, rules[0].Pattern.ReplaceAllString(path, rule.InstallPath), src)
		assert.Equal(t, rules[0].Pattern.ReplaceAllString(path, rule.PackagePath), dest)
	}
}

func TestMapFileUnmappedParentPath(t *testing.T) {
	var buf bytes.Buffer
	remapper := NewPathRemapper(mustRules(t, types.RemapRule{
		RecordPath:  `^\.\./share/`,
		InstallPath: `share/`,
		PackagePath: `share/`,
	}), zerolog.New(&buf))

	src, dest, err := remapper.MapFile("../../etc/tool.conf", testDist())
	require.Error(t, err)
	assert.Empty(t, src)
	assert.Empty(t, dest)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.ErrorIs(t, err, ErrUnmappedPath)
	var builder *errbuilder.ErrBuilder
	require.True(t, errors.As(err, &builder))
	assert.Contains(t, builder.Msg, "pkg-1.0.dist-info/RECORD")

	logged := buf.String()
	assert.Contains(t, logged, "../../etc/tool.conf")
	assert.Contains(t, logged, "pip_install_remaps")
	assert.Contains(t, logged, "pkg-1.0.dist-info/RECORD")
}

func TestMapFileRejectsEscapingRewrite(t *testing.T) {
	tests := []struct {
		name string
		rule types.RemapRule
	}{
		{
			name: "destination leaves the package",
			rule: types.RemapRule{RecordPath: `^\.\./\.\./(.*)`, InstallPath: `escaped.txt`, PackagePath: `${1}`},
		},
		{
			name: "source leaves the scratch directory",
			rule: types.RemapRule{RecordPath: `^(\.\./.*)`, InstallPath: `${1}`, PackagePath: `data/escaped.txt`},
		},
		{
			name: "absolute destination",
			rule: types.RemapRule{RecordPath: `^(?:\.\./)+(.*)`, InstallPath: `${1}`, PackagePath: `/tmp/${1}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			remapper := NewPathRemapper(mustRules(t, tt.rule), zerolog.New(&buf))

			src, dest, err := remapper.MapFile("../../../../escaped.txt", testDist())
			require.Error(t, err)
			assert.Empty(t, src)
			assert.Empty(t, dest)
			assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
			assert.ErrorIs(t, err, ErrUnmappedPath)
			assert.Contains(t, buf.String(), "pip_install_remaps")
		})
	}
}

func TestMapFileRejectsAbsoluteRecordEntry(t *testing.T) {
	remapper := NewPathRemapper(nil, zerolog.Nop())
	_, _, err := remapper.MapFile("/etc/passwd", testDist())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmappedPath)
}

func TestBuildFileMappingExample(t *testing.T) {
	dist := testDist("bin/tool", "pkg/__init__.py", "pkg-1.0.dist-info/RECORD")
	remapper := NewPathRemapper(nil, zerolog.Nop()).WithExists(alwaysExists)

	mapping, err := remapper.BuildFileMapping(dist, "/scratch")
	require.NoError(t, err)
	want := map[string]string{
		"bin/tool":                 "bin/tool",
		"pkg/__init__.py":          "python/pkg/__init__.py",
		"pkg-1.0.dist-info/RECORD": "python/pkg-1.0.dist-info/RECORD",
	}
	if diff := cmp.Diff(want, mapping.Map()); diff != "" {
		t.Fatalf("unexpected mapping (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"tool"}, ToolsFromMapping(mapping)); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}
}

func TestBuildFileMappingSkipsMissingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "__init__.py"), []byte(""), 0o644))

	var buf bytes.Buffer
	remapper := NewPathRemapper(nil, zerolog.New(&buf))
	mapping, err := remapper.BuildFileMapping(testDist("pkg/__init__.py", "pkg/_native.so"), root)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"pkg/__init__.py"}, mapping.Sources()); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "skipping non-existent source file")
	assert.Contains(t, buf.String(), "pkg/_native.so")
}

func TestBuildFileMappingPropagatesUnmappedError(t *testing.T) {
	remapper := NewPathRemapper(nil, zerolog.Nop()).WithExists(alwaysExists)
	_, err := remapper.BuildFileMapping(testDist("pkg/a.py", "../outside.txt"), "/scratch")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}

func TestToolsFromMappingIgnoresNestedBin(t *testing.T) {
	mapping := types.NewFileMapping()
	mapping.Set("bin/a", "bin/a")
	mapping.Set("bin/sub/b", "bin/sub/b")
	mapping.Set("pkg/bin/c", "python/pkg/bin/c")
	mapping.Set("../x/d", "bin/d")

	if diff := cmp.Diff([]string{"a", "d"}, ToolsFromMapping(mapping)); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}
}
