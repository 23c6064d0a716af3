package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyimport/internal/types"
)

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const requestsMetadata = `Metadata-Version: 2.1
Name: requests
Version: 2.31.0
Summary: Python HTTP for Humans.
Home-page: https://requests.readthedocs.io
Author: Kenneth Reitz
Author-email: me@kennethreitz.org
License: Apache 2.0
Project-URL: Documentation, https://requests.readthedocs.io
Project-URL: Source, https://github.com/psf/requests
Requires-Python: >=3.7
Requires-Dist: charset-normalizer (<4,>=2)
Requires-Dist: idna (<4,>=2.5)
Requires-Dist: PySocks (!=1.5.7,>=1.5.6) ; extra == 'socks'
Description-Content-Type: text/markdown

# Requests

Requires-Dist: not-a-header
`

func TestDistributionReaderAdapter_ReadDistributions(t *testing.T) {
	dir := t.TempDir()
	info := filepath.Join(dir, "requests-2.31.0.dist-info")
	writeTestFile(t, filepath.Join(info, "METADATA"), requestsMetadata)
	writeTestFile(t, filepath.Join(info, "WHEEL"), "Wheel-Version: 1.0\nRoot-Is-Purelib: true\nTag: py3-none-any\n")
	writeTestFile(t, filepath.Join(info, "RECORD"), "requests/__init__.py,sha256=abc,4924\n"+
		"\"requests/odd,name.py\",sha256=def,10\n"+
		"requests-2.31.0.dist-info/RECORD,,\n")

	native := filepath.Join(dir, "aaa_native-0.1.dist-info")
	writeTestFile(t, filepath.Join(native, "METADATA"), "Name: aaa-native\nVersion: 0.1\n")
	writeTestFile(t, filepath.Join(native, "WHEEL"), "Root-Is-Purelib: false\n")

	writeTestFile(t, filepath.Join(dir, "broken.dist-info", "METADATA"), "Summary: nothing\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "requests"), 0o755))
	writeTestFile(t, filepath.Join(dir, "stray.dist-info"), "not a directory")

	dists, err := NewDistributionReaderAdapter(zerolog.Nop()).ReadDistributions(dir)
	require.NoError(t, err)
	require.Len(t, dists, 2)

	t.Run("sorted by directory", func(t *testing.T) {
		assert.Equal(t, "aaa-native", dists[0].Name)
		assert.Equal(t, "requests", dists[1].Name)
	})

	t.Run("metadata", func(t *testing.T) {
		want := types.Distribution{
			Name:    "requests",
			Version: "2.31.0",
			RunRequires: []string{
				"charset-normalizer (<4,>=2)",
				"idna (<4,>=2.5)",
				"PySocks (!=1.5.7,>=1.5.6) ; extra == 'socks'",
			},
			RequiresPython: ">=3.7",
			Metadata: types.DistributionMetadata{
				Summary:     "Python HTTP for Humans.",
				HomePage:    "https://requests.readthedocs.io",
				SourceURL:   "https://github.com/psf/requests",
				Author:      "Kenneth Reitz",
				AuthorEmail: "me@kennethreitz.org",
			},
			Files: []string{
				"requests/__init__.py",
				"requests/odd,name.py",
				"requests-2.31.0.dist-info/RECORD",
			},
			Pure:    true,
			InfoDir: "requests-2.31.0.dist-info",
		}
		if diff := cmp.Diff(want, dists[1]); diff != "" {
			t.Fatalf("unexpected distribution (-want +got):\n%s", diff)
		}
	})

	t.Run("missing record and platform wheel", func(t *testing.T) {
		assert.False(t, dists[0].Pure)
		assert.Nil(t, dists[0].Files)
		assert.Equal(t, "aaa_native-0.1.dist-info/RECORD", dists[0].RecordPath())
	})
}

func TestDistributionReaderAdapter_EmptyDirectory(t *testing.T) {
	dists, err := NewDistributionReaderAdapter(zerolog.Nop()).ReadDistributions(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, dists)
}

func TestParseMetadataContinuationAndDownloadURL(t *testing.T) {
	dist := parseMetadata("Name: pkg\nVersion: 1.0\nAuthor: First\n  Second\nProject-URL: Repository, https://example.invalid/repo\nDownload-URL: https://example.invalid/dl\n")
	assert.Equal(t, "First Second", dist.Metadata.Author)
	assert.Equal(t, "https://example.invalid/dl", dist.Metadata.SourceURL)
}
