package types

// ImportConfig is the configuration threaded into one import run.
type ImportConfig struct {
	ReleasePackagesPath string
	LocalPackagesPath   string
	PackagesPath        []string
	ExtraArgs           []string
	Remaps              []CompiledRemapRule
	Verbose             bool
	Platform            string
	Arch                string
}

// SearchPaths lists every store the interpreter lookup scans, in order.
func (c ImportConfig) SearchPaths() []string {
	seen := map[string]struct{}{}
	var paths []string
	for _, p := range append(append([]string{}, c.PackagesPath...), c.LocalPackagesPath, c.ReleasePackagesPath) {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}

// PyProject is the subset of pyproject.toml the importer reads.
type PyProject struct {
	Project struct {
		Name           string   `toml:"name"`
		Version        string   `toml:"version"`
		Dependencies   []string `toml:"dependencies"`
		RequiresPython string   `toml:"requires-python"`
	} `toml:"project"`
}
