package adapters

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyimport/internal/ports"
	"pyimport/internal/types"
)

// PackageRepositoryAdapter looks packages up across several store roots.
// A package version exists when <root>/<family>/<version>/package.yaml
// does.
type PackageRepositoryAdapter struct {
	Paths []string
}

func NewPackageRepositoryAdapter(paths []string) PackageRepositoryAdapter {
	return PackageRepositoryAdapter{Paths: paths}
}

func (a PackageRepositoryAdapter) AvailablePackages(family string) ([]types.PackageHandle, error) {
	var handles []types.PackageHandle
	seen := map[string]struct{}{}
	for _, root := range a.Paths {
		familyDir := filepath.Join(root, family)
		entries, err := os.ReadDir(familyDir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read package family directory").
				WithCause(err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			versionDir := filepath.Join(familyDir, entry.Name())
			if _, err := os.Stat(filepath.Join(versionDir, packageDefinitionFile)); err != nil {
				continue
			}
			// earlier roots shadow later ones
			if _, ok := seen[entry.Name()]; ok {
				continue
			}
			seen[entry.Name()] = struct{}{}
			handles = append(handles, types.PackageHandle{
				Name:    family,
				Version: entry.Name(),
				Root:    versionDir,
			})
		}
	}
	return handles, nil
}

var _ ports.PackageRepositoryPort = PackageRepositoryAdapter{}
