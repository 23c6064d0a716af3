package types

import "path"

// DistributionMetadata holds the optional METADATA fields the importer
// carries over into the published package.
type DistributionMetadata struct {
	Summary     string
	HomePage    string
	SourceURL   string
	Author      string
	AuthorEmail string
}

// Distribution is one foreign package read back from the installer's
// scratch directory. Files are slash separated and relative to the
// scratch root, exactly as listed in RECORD.
type Distribution struct {
	Name           string
	Version        string
	RunRequires    []string
	RequiresPython string
	Metadata       DistributionMetadata
	Files          []string
	Pure           bool
	InfoDir        string
}

func (d Distribution) NameAndVersion() string {
	return d.Name + "-" + d.Version
}

// RecordPath is the manifest location reported in remap diagnostics.
func (d Distribution) RecordPath() string {
	infoDir := d.InfoDir
	if infoDir == "" {
		infoDir = d.NameAndVersion() + ".dist-info"
	}
	return path.Join(infoDir, "RECORD")
}

// TranslatedRequirements is the translator's answer for one distribution.
type TranslatedRequirements struct {
	Requires        []string
	VariantRequires []string
	Pure            bool
}

// FileMapping maps scratch-relative source paths to package-relative
// destination paths. Iteration follows first insertion; a repeated
// source keeps its position and takes the later destination.
type FileMapping struct {
	order []string
	dests map[string]string
}

func NewFileMapping() *FileMapping {
	return &FileMapping{dests: map[string]string{}}
}

func (m *FileMapping) Set(src string, dest string) {
	if _, ok := m.dests[src]; !ok {
		m.order = append(m.order, src)
	}
	m.dests[src] = dest
}

func (m *FileMapping) Get(src string) (string, bool) {
	dest, ok := m.dests[src]
	return dest, ok
}

func (m *FileMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

func (m *FileMapping) Sources() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Map returns a copy of the mapping as a plain map.
func (m *FileMapping) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for _, src := range m.order {
		out[src] = m.dests[src]
	}
	return out
}
