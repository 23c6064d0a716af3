package adapters

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pyimport/internal/ports"
	"pyimport/internal/types"
)

const packageDefinitionFile = "package.yaml"

// PackageStoreAdapter publishes packages into a directory store laid out
// as <store>/<name>/<version>/package.yaml, with one subdirectory per
// variant. Each variant is staged next to its final location and moved
// into place with a rename; a variant whose location already exists is
// skipped.
type PackageStoreAdapter struct{}

func NewPackageStoreAdapter() PackageStoreAdapter {
	return PackageStoreAdapter{}
}

func (a PackageStoreAdapter) Begin(name string, storePath string) *types.PackageDraft {
	return &types.PackageDraft{Name: name, StorePath: storePath}
}

func (a PackageStoreAdapter) Commit(ctx context.Context, draft *types.PackageDraft, populate func(root string) error) ([]types.Variant, []types.Variant, error) {
	if draft == nil || strings.TrimSpace(draft.Name) == "" || strings.TrimSpace(draft.Version) == "" {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name and version are required")
	}
	if strings.TrimSpace(draft.StorePath) == "" {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package store path is empty")
	}
	familyDir := filepath.Join(draft.StorePath, draft.Name)
	versionDir := filepath.Join(familyDir, draft.Version)
	if err := os.MkdirAll(familyDir, 0o755); err != nil {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create package directory").
			WithCause(err)
	}
	if len(draft.Variants) == 0 {
		return a.commitSingle(ctx, draft, familyDir, versionDir, populate)
	}
	return a.commitVariants(ctx, draft, familyDir, versionDir, populate)
}

func (a PackageStoreAdapter) commitSingle(ctx context.Context, draft *types.PackageDraft, familyDir string, versionDir string, populate func(root string) error) ([]types.Variant, []types.Variant, error) {
	variant := types.Variant{
		Name:    draft.Name,
		Version: draft.Version,
		Index:   -1,
		Root:    versionDir,
		URI:     filepath.Join(versionDir, packageDefinitionFile),
	}
	if _, err := os.Stat(versionDir); err == nil {
		return nil, []types.Variant{variant}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	err := stageAndPublish(familyDir, versionDir, func(staging string) error {
		if err := populate(staging); err != nil {
			return err
		}
		return writeDefinition(filepath.Join(staging, packageDefinitionFile), definitionFromDraft(draft, nil))
	})
	if err != nil {
		return nil, nil, err
	}
	return []types.Variant{variant}, nil, nil
}

func (a PackageStoreAdapter) commitVariants(ctx context.Context, draft *types.PackageDraft, familyDir string, versionDir string, populate func(root string) error) ([]types.Variant, []types.Variant, error) {
	definitionPath := filepath.Join(versionDir, packageDefinitionFile)
	existing, found, err := readDefinition(definitionPath)
	if err != nil {
		return nil, nil, err
	}
	if found && len(existing.Variants) == 0 {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("package %s-%s already exists without variants", draft.Name, draft.Version))
	}
	variants := append([][]string{}, existing.Variants...)

	var installed, skipped []types.Variant
	for _, requires := range draft.Variants {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		subpath := VariantSubpath(requires, draft.HashedVariants)
		index := variantIndex(variants, requires)
		if index == -1 {
			variants = append(variants, append([]string{}, requires...))
			index = len(variants) - 1
		}
		variant := types.Variant{
			Name:    draft.Name,
			Version: draft.Version,
			Index:   index,
			Subpath: subpath,
			Root:    filepath.Join(versionDir, filepath.FromSlash(subpath)),
			URI:     fmt.Sprintf("%s[%d]", definitionPath, index),
		}
		if _, err := os.Stat(variant.Root); err == nil {
			skipped = append(skipped, variant)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(variant.Root), 0o755); err != nil {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create variant parent directory").
				WithCause(err)
		}
		if err := stageAndPublish(familyDir, variant.Root, populate); err != nil {
			return nil, nil, err
		}
		installed = append(installed, variant)
	}
	if len(installed) == 0 {
		return nil, skipped, nil
	}
	if err := writeDefinition(definitionPath, definitionFromDraft(draft, variants)); err != nil {
		return nil, nil, err
	}
	return installed, skipped, nil
}

func (a PackageStoreAdapter) ListPackages(storePath string) ([]types.PackageDefinition, error) {
	matches, err := filepath.Glob(filepath.Join(storePath, "*", "*", packageDefinitionFile))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan package store").
			WithCause(err)
	}
	sort.Strings(matches)
	definitions := make([]types.PackageDefinition, 0, len(matches))
	for _, match := range matches {
		definition, _, err := readDefinition(match)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}

// VariantSubpath names the directory of one variant. Hashed naming keeps
// characters such as '<' or '+' out of the store layout.
func VariantSubpath(requires []string, hashed bool) string {
	if !hashed {
		return strings.Join(requires, "/")
	}
	sum := sha1.Sum([]byte(strings.Join(requires, "\n")))
	return hex.EncodeToString(sum[:])
}

func variantIndex(variants [][]string, requires []string) int {
	for i, existing := range variants {
		if strings.Join(existing, "\n") == strings.Join(requires, "\n") {
			return i
		}
	}
	return -1
}

// stageAndPublish builds a directory in a staging area under parentDir
// and renames it to dest. The staging area never outlives the call.
func stageAndPublish(parentDir string, dest string, build func(staging string) error) error {
	staging, err := os.MkdirTemp(parentDir, ".staging-")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	defer os.RemoveAll(staging)

	if err := build(staging); err != nil {
		return err
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set staging directory mode").
			WithCause(err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to publish package directory").
			WithCause(err)
	}
	return nil
}

func definitionFromDraft(draft *types.PackageDraft, variants [][]string) types.PackageDefinition {
	definition := types.PackageDefinition{
		Name:           draft.Name,
		Version:        draft.Version,
		Description:    draft.Description,
		Requires:       draft.Requires,
		Variants:       variants,
		HashedVariants: draft.HashedVariants,
		Commands:       strings.Join(draft.Commands, "\n"),
		Tools:          draft.Tools,
		Authors:        draft.Authors,
		PipName:        draft.PipName,
		FromPip:        draft.FromPip,
		IsPurePython:   draft.IsPurePython,
	}
	for _, entry := range draft.Help {
		definition.Help = append(definition.Help, []string{entry[0], entry[1]})
	}
	return definition
}

func readDefinition(path string) (types.PackageDefinition, bool, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return types.PackageDefinition{}, false, nil
	}
	if err != nil {
		return types.PackageDefinition{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package definition").
			WithCause(err)
	}
	var definition types.PackageDefinition
	if err := yaml.Unmarshal(content, &definition); err != nil {
		return types.PackageDefinition{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse %s", path)).
			WithCause(err)
	}
	return definition, true, nil
}

// writeDefinition replaces path atomically.
func writeDefinition(path string, definition types.PackageDefinition) error {
	content, err := yaml.Marshal(definition)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode package definition").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".package-*.yaml")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create package definition").
			WithCause(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write package definition").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write package definition").
			WithCause(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set package definition mode").
			WithCause(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace package definition").
			WithCause(err)
	}
	return nil
}

var _ ports.PackageStorePort = PackageStoreAdapter{}
