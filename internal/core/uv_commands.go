package core

import (
	"fmt"
	"path/filepath"

	"pyimport/internal/types"
)

const (
	LockFileName    = "uv.lock"
	ProjectManifest = "pyproject.toml"
)

// UVCommands builds the uv pip command lines for one run.
type UVCommands struct {
	Exe           string
	PythonVersion string
	ScratchDir    string
}

func (c UVCommands) LockPath() string {
	return filepath.Join(c.ScratchDir, LockFileName)
}

func (c UVCommands) interpreterFlags() []string {
	return []string{
		"--system",
		fmt.Sprintf("--python-version=%s", c.PythonVersion),
		"--python-preference=system",
		"--no-python-downloads",
	}
}

// Compile pins the project's declared dependencies into the lock file.
func (c UVCommands) Compile(projectDir string, plan types.InstallPlan) []string {
	cmd := []string{
		c.Exe, "pip", "compile", filepath.Join(projectDir, ProjectManifest),
		"-o", c.LockPath(),
		"--upgrade",
		"--prerelease=explicit",
		"--emit-index-url",
		"--index-strategy=unsafe-best-match",
	}
	cmd = append(cmd, c.interpreterFlags()...)
	if plan.Mode == types.InstallModeNoDeps {
		cmd = append(cmd, noDepsFlag)
	}
	return append(cmd, plan.ExtraArgs...)
}

// Sync materialises the locked dependency set into the scratch directory.
func (c UVCommands) Sync(plan types.InstallPlan) []string {
	cmd := []string{c.Exe, "pip", "sync", "--index-strategy=unsafe-best-match"}
	cmd = append(cmd, c.interpreterFlags()...)
	cmd = append(cmd, "--compile", fmt.Sprintf("--target=%s", c.ScratchDir))
	cmd = append(cmd, plan.ExtraArgs...)
	return append(cmd, c.LockPath())
}

// Install installs the source into the scratch directory. Mode flags come
// before the caller's extra arguments; a caller supplied target wins over
// the scratch directory.
func (c UVCommands) Install(plan types.InstallPlan) []string {
	cmd := []string{c.Exe, "pip", "install", "--prerelease=explicit", "--index-strategy=unsafe-best-match"}
	cmd = append(cmd, c.interpreterFlags()...)
	cmd = append(cmd, "--compile")
	if plan.ProjectDir {
		cmd = append(cmd, fmt.Sprintf("--override=%s", c.LockPath()))
	}
	if plan.Mode == types.InstallModeNoDeps {
		cmd = append(cmd, noDepsFlag)
	}
	if !OptionPresent(plan.ExtraArgs, "-t", "--target") {
		cmd = append(cmd, fmt.Sprintf("--target=%s", c.ScratchDir))
	}
	cmd = append(cmd, plan.ExtraArgs...)
	return append(cmd, plan.Source)
}
