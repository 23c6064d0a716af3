package app

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"

	"pyimport/internal/adapters"
	"pyimport/internal/core"
	"pyimport/internal/types"
)

const (
	pythonPathCommand = "env.PYTHONPATH.append('{root}/" + core.PayloadDir + "')"
	pathCommand       = "env.PATH.append('{root}/" + core.ExecutableDir + "')"
)

type importContext struct {
	dist        types.Distribution
	interpreter types.PackageHandle
	distNames   []string
	scratch     string
	storePath   string
	remapper    core.PathRemapper
}

// importDistribution translates one distribution and commits it to the
// store, copying its remapped files into each new variant.
func (s Service) importDistribution(ctx context.Context, ic importContext) ([]types.Variant, []types.Variant, error) {
	dist := ic.dist
	translated, err := s.Translator.Translate(dist, ic.interpreter.Version, ic.distNames)
	if err != nil {
		return nil, nil, err
	}
	s.trace().
		Str("dist", dist.NameAndVersion()).
		Strs("pip_requires", dist.RunRequires).
		Strs("requires", translated.Requires).
		Strs("variant_requires", translated.VariantRequires).
		Msg("pip to package requirements translation")

	mapping, err := ic.remapper.BuildFileMapping(dist, ic.scratch)
	if err != nil {
		return nil, nil, err
	}
	tools := core.ToolsFromMapping(mapping)
	if mapping.Len() == 0 {
		msg := fmt.Sprintf("No source files exist for %s!", dist.NameAndVersion())
		if !s.Config.Verbose {
			msg += " Try again with --verbose."
		}
		s.Logger.Warn().Msg(msg)
	}

	version, err := s.Translator.PackageVersion(dist.Version)
	if err != nil {
		return nil, nil, err
	}
	draft := s.Store.Begin(s.Translator.PackageName(dist.Name), ic.storePath)
	fillDraft(draft, dist, version, translated, tools)
	assert.NotEmpty(ctx, draft.Name, "package name must be set")
	assert.NotEmpty(ctx, draft.Version, "package version must be set")

	return s.Store.Commit(ctx, draft, func(root string) error {
		return adapters.CopyMappedFiles(ic.scratch, root, mapping)
	})
}

func fillDraft(draft *types.PackageDraft, dist types.Distribution, version string, translated types.TranslatedRequirements, tools []string) {
	draft.Version = version
	if dist.Metadata.Summary != "" {
		draft.Description = dist.Metadata.Summary
	}
	if len(translated.Requires) > 0 {
		draft.Requires = translated.Requires
	}
	if len(translated.VariantRequires) > 0 {
		draft.Variants = [][]string{translated.VariantRequires}
	}

	draft.Commands = []string{pythonPathCommand}
	if len(tools) > 0 {
		draft.Tools = tools
		draft.Commands = append(draft.Commands, pathCommand)
	}

	// variant requirements may hold characters that are not safe in a
	// directory name
	draft.HashedVariants = true

	draft.PipName = dist.NameAndVersion()
	draft.FromPip = true
	draft.IsPurePython = translated.Pure

	if dist.Metadata.HomePage != "" {
		draft.Help = append(draft.Help, [2]string{"Home Page", dist.Metadata.HomePage})
	}
	if dist.Metadata.SourceURL != "" {
		draft.Help = append(draft.Help, [2]string{"Source Code", dist.Metadata.SourceURL})
	}
	if dist.Metadata.Author != "" && dist.Metadata.AuthorEmail != "" {
		draft.Authors = []string{dist.Metadata.Author + " " + dist.Metadata.AuthorEmail}
	}
}
