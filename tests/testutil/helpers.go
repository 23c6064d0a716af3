// Package testutil provides shared test helpers used by the integration
// tests.
package testutil

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireBinary skips the test unless name is on PATH.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found in PATH", name)
	}
	return path
}

// HostPythonVersion reports the full version of the python3 on PATH.
func HostPythonVersion(t *testing.T) string {
	t.Helper()
	python := RequireBinary(t, "python3")
	out, err := exec.Command(python, "-c", `import sys; print("%d.%d.%d" % sys.version_info[:3])`).Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

// Wheel describes a pure-python wheel built in memory.
type Wheel struct {
	Name     string
	Version  string
	Requires []string
	Files    map[string]string
}

func (w Wheel) distName() string {
	return strings.ReplaceAll(w.Name, "-", "_")
}

// Filename is the wheel's file name in an index.
func (w Wheel) Filename() string {
	return fmt.Sprintf("%s-%s-py3-none-any.whl", w.distName(), w.Version)
}

// Build writes the wheel into dir and returns its path. RECORD carries
// real hashes so installers accept the archive.
func (w Wheel) Build(t *testing.T, dir string) string {
	t.Helper()
	infoDir := fmt.Sprintf("%s-%s.dist-info", w.distName(), w.Version)

	var metadata strings.Builder
	fmt.Fprintf(&metadata, "Metadata-Version: 2.1\nName: %s\nVersion: %s\nSummary: %s test wheel\n", w.Name, w.Version, w.Name)
	for _, req := range w.Requires {
		fmt.Fprintf(&metadata, "Requires-Dist: %s\n", req)
	}
	files := map[string]string{
		infoDir + "/METADATA": metadata.String(),
		infoDir + "/WHEEL":    "Wheel-Version: 1.0\nGenerator: testutil\nRoot-Is-Purelib: true\nTag: py3-none-any\n",
	}
	for name, content := range w.Files {
		files[name] = content
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	path := filepath.Join(dir, w.Filename())
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()
	archive := zip.NewWriter(out)

	var record strings.Builder
	for _, name := range names {
		content := []byte(files[name])
		entry, err := archive.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(content)
		require.NoError(t, err)
		sum := sha256.Sum256(content)
		fmt.Fprintf(&record, "%s,sha256=%s,%d\n", name, base64.RawURLEncoding.EncodeToString(sum[:]), len(content))
	}
	fmt.Fprintf(&record, "%s/RECORD,,\n", infoDir)
	entry, err := archive.Create(infoDir + "/RECORD")
	require.NoError(t, err)
	_, err = entry.Write([]byte(record.String()))
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	return path
}

// WriteSimpleIndex lays wheels out as a PEP 503 simple index under root:
// root/simple/<name>/index.html linking to root/files/<wheel>.
func WriteSimpleIndex(t *testing.T, root string, wheels ...Wheel) {
	t.Helper()
	filesDir := filepath.Join(root, "files")
	require.NoError(t, os.MkdirAll(filesDir, 0o755))
	byProject := map[string][]string{}
	for _, w := range wheels {
		w.Build(t, filesDir)
		project := normalize(w.Name)
		byProject[project] = append(byProject[project], w.Filename())
	}
	var index strings.Builder
	for project, filenames := range byProject {
		fmt.Fprintf(&index, `<a href="/simple/%s/">%s</a>`+"\n", project, project)
		var links strings.Builder
		for _, filename := range filenames {
			fmt.Fprintf(&links, `<a href="/files/%s">%s</a>`+"\n", filename, filename)
		}
		projectDir := filepath.Join(root, "simple", project)
		require.NoError(t, os.MkdirAll(projectDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, "index.html"), []byte(links.String()), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "simple", "index.html"), []byte(index.String()), 0o644))
}

func normalize(name string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(strings.ToLower(name))
}
