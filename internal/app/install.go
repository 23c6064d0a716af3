package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyimport/internal/core"
	"pyimport/internal/types"
)

const installerExe = "uv"

// Install imports source and everything the installer pulled in with it,
// publishing one package per distribution. Distributions are processed in
// order; the first failure aborts the run.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install source is required")
	}
	candidates, err := s.Repository.AvailablePackages(core.InterpreterFamily)
	if err != nil {
		return InstallResult{}, err
	}
	interpreter, err := core.SelectInterpreter(candidates, req.PythonVersion)
	if err != nil {
		return InstallResult{}, err
	}
	uvExe, err := s.Runner.LookPath(installerExe)
	if err != nil {
		return InstallResult{}, err
	}
	s.Logger.Info().
		Str("source", source).
		Str("uv", uvExe).
		Str("python", interpreter.Version).
		Msg("installing with uv")

	storePath, err := s.storePath(req.StorePath, req.Release)
	if err != nil {
		return InstallResult{}, err
	}

	projectDir := isDir(source)
	if projectDir {
		project, err := s.PyProject.LoadPyProject(source)
		if err != nil {
			return InstallResult{}, err
		}
		s.trace().
			Str("project", project.Project.Name).
			Str("version", project.Project.Version).
			Strs("dependencies", project.Project.Dependencies).
			Msg("local project")
	}

	plan := core.DeriveInstallPlan(core.PlanInput{
		Source:        source,
		PythonVersion: interpreter.MajorMinor(),
		Mode:          req.Mode,
		Release:       req.Release,
		StorePath:     storePath,
		ExtraArgs:     req.ExtraArgs,
		DefaultArgs:   s.Config.ExtraArgs,
		ProjectDir:    projectDir,
	})

	scratch, err := os.MkdirTemp("", fmt.Sprintf("uv-%s-*-pyimport", interpreter.Version))
	if err != nil {
		return InstallResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create install directory").
			WithCause(err)
	}
	defer os.RemoveAll(scratch)

	s.trace().
		Str("interpreter", interpreter.QualifiedName()).
		Str("interpreter_root", interpreter.Root).
		Str("mode", string(plan.Mode)).
		Bool("sync", plan.SyncEnabled).
		Strs("extra_args", plan.ExtraArgs).
		Str("scratch", scratch).
		Str("store", storePath).
		Msg("package download environment")

	commands := core.UVCommands{Exe: uvExe, PythonVersion: plan.PythonVersion, ScratchDir: scratch}
	if plan.ProjectDir {
		if err := s.Runner.Run(ctx, commands.Compile(source, plan)); err != nil {
			return InstallResult{}, err
		}
		if plan.SyncEnabled {
			if err := s.Runner.Run(ctx, commands.Sync(plan)); err != nil {
				return InstallResult{}, err
			}
		}
	}
	if err := s.Runner.Run(ctx, commands.Install(plan)); err != nil {
		return InstallResult{}, err
	}

	dists, err := s.Reader.ReadDistributions(scratch)
	if err != nil {
		return InstallResult{}, err
	}
	distNames := make([]string, 0, len(dists))
	for _, dist := range dists {
		distNames = append(distNames, dist.Name)
	}

	remapper := core.NewPathRemapper(s.Config.Remaps, s.Logger)
	result := InstallResult{Installed: []types.Variant{}, Skipped: []types.Variant{}}
	for _, dist := range dists {
		installed, skipped, err := s.importDistribution(ctx, importContext{
			dist:        dist,
			interpreter: interpreter,
			distNames:   distNames,
			scratch:     scratch,
			storePath:   storePath,
			remapper:    remapper,
		})
		if err != nil {
			return result, err
		}
		result.Installed = append(result.Installed, installed...)
		result.Skipped = append(result.Skipped, skipped...)
		s.logVariants(installed, skipped)
	}

	if len(result.Installed) > 0 {
		s.Logger.Info().Msgf("%d packages were installed.", len(result.Installed))
	} else {
		s.Logger.Warn().Msg("NO packages were installed.")
	}
	if len(result.Skipped) > 0 {
		s.Logger.Warn().Msgf("%d packages were already installed.", len(result.Skipped))
	}
	return result, nil
}

// storePath picks the destination store: an explicit path wins, then the
// release or local store from configuration.
func (s Service) storePath(explicit string, release bool) (string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		if release {
			path = s.Config.ReleasePackagesPath
		} else {
			path = s.Config.LocalPackagesPath
		}
	}
	if strings.TrimSpace(path) == "" {
		which := "local_packages_path"
		if release {
			which = "release_packages_path"
		}
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("no package store configured (%s)", which))
	}
	return path, nil
}

func (s Service) logVariants(installed []types.Variant, skipped []types.Variant) {
	for _, variant := range installed {
		s.Logger.Info().Msg(describeVariant("Installed", variant))
	}
	for _, variant := range skipped {
		s.Logger.Debug().Msg(describeVariant("Skipped", variant))
	}
}

func describeVariant(action string, variant types.Variant) string {
	suffix := ""
	if variant.Subpath != "" {
		suffix = fmt.Sprintf(" (%s)", variant.Subpath)
	}
	return fmt.Sprintf("%s [%s] %s%s", action, variant.QualifiedName(), variant.URI, suffix)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
