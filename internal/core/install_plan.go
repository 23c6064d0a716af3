package core

import (
	"strings"

	"pyimport/internal/types"
)

const noDepsFlag = "--no-deps"

// PlanInput carries the caller's install request before derivation.
type PlanInput struct {
	Source        string
	PythonVersion string
	Mode          types.InstallMode
	Release       bool
	StorePath     string
	ExtraArgs     []string
	DefaultArgs   []string
	ProjectDir    bool
}

// DeriveInstallPlan computes the immutable plan for one run. The caller's
// argument slices are copied, never modified. An explicit --no-deps is
// lifted out of the extra arguments: it forces no-deps mode for the
// install step and disables the lock sync.
func DeriveInstallPlan(in PlanInput) types.InstallPlan {
	source := in.ExtraArgs
	if len(source) == 0 {
		source = in.DefaultArgs
	}
	mode := in.Mode
	if mode == "" {
		mode = types.InstallModeMinDeps
	}
	explicit := false
	extra := make([]string, 0, len(source))
	for _, arg := range source {
		if arg == noDepsFlag {
			explicit = true
			continue
		}
		extra = append(extra, arg)
	}
	if explicit {
		mode = types.InstallModeNoDeps
	}
	return types.InstallPlan{
		Source:         in.Source,
		PythonVersion:  in.PythonVersion,
		Mode:           mode,
		NoDepsExplicit: explicit,
		SyncEnabled:    !explicit,
		ProjectDir:     in.ProjectDir,
		Release:        in.Release,
		StorePath:      in.StorePath,
		ExtraArgs:      extra,
	}
}

// OptionPresent reports whether any of names appears in args, either on
// its own or in --name=value form.
func OptionPresent(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			if arg == name || strings.HasPrefix(arg, name+"=") {
				return true
			}
		}
	}
	return false
}
