package app

import "pyimport/internal/types"

type InstallRequest struct {
	// Source is what would be passed to 'uv pip install': a name, a
	// requirement, an archive, a URL or a local project directory.
	Source        string
	PythonVersion string
	Mode          types.InstallMode
	Release       bool
	// StorePath overrides the configured local/release store.
	StorePath string
	ExtraArgs []string
}

type InstallResult struct {
	Installed []types.Variant
	Skipped   []types.Variant
}

type ListRequest struct {
	StorePath string
	Release   bool
}

type ListResult struct {
	StorePath string
	Packages  []types.PackageDefinition
}
