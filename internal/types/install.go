package types

import (
	"fmt"
	"strings"
)

type InstallMode string

const (
	// InstallModeNoDeps installs only the requested distribution. Builds
	// that compile against a dependency may fail; pure python works.
	InstallModeNoDeps InstallMode = "no-deps"
	// InstallModeMinDeps installs the dependencies the installer decides
	// are missing. This is the default.
	InstallModeMinDeps InstallMode = "min-deps"
)

func ParseInstallMode(value string) (InstallMode, error) {
	switch InstallMode(strings.TrimSpace(value)) {
	case "", InstallModeMinDeps:
		return InstallModeMinDeps, nil
	case InstallModeNoDeps:
		return InstallModeNoDeps, nil
	default:
		return "", fmt.Errorf("unknown install mode %q (want %s or %s)", value, InstallModeNoDeps, InstallModeMinDeps)
	}
}

// InstallPlan is computed once per import run and never mutated. ExtraArgs
// is a private copy of the caller's arguments with any --no-deps removed.
type InstallPlan struct {
	Source         string
	PythonVersion  string
	Mode           InstallMode
	NoDepsExplicit bool
	SyncEnabled    bool
	ProjectDir     bool
	Release        bool
	StorePath      string
	ExtraArgs      []string
}

// PackageHandle points at one package version in a store. The resolved
// interpreter is a handle on the python family.
type PackageHandle struct {
	Name    string
	Version string
	Root    string
}

func (h PackageHandle) QualifiedName() string {
	return h.Name + "-" + h.Version
}

// MajorMinor trims the version to its first two components.
func (h PackageHandle) MajorMinor() string {
	parts := strings.SplitN(h.Version, ".", 3)
	if len(parts) < 2 {
		return h.Version
	}
	return parts[0] + "." + parts[1]
}
