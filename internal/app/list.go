package app

import (
	"context"

	"pyimport/internal/types"
)

// List reports the packages in a store that were imported from pip.
func (s Service) List(_ context.Context, req ListRequest) (ListResult, error) {
	storePath, err := s.storePath(req.StorePath, req.Release)
	if err != nil {
		return ListResult{}, err
	}
	definitions, err := s.Store.ListPackages(storePath)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{StorePath: storePath, Packages: []types.PackageDefinition{}}
	for _, definition := range definitions {
		if definition.FromPip {
			result.Packages = append(result.Packages, definition)
		}
	}
	return result, nil
}
