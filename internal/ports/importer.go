package ports

import (
	"context"

	"pyimport/internal/types"
)

// PackageRepositoryPort lists the versions of a package family found in
// the configured package stores.
type PackageRepositoryPort interface {
	AvailablePackages(family string) ([]types.PackageHandle, error)
}

// CommandRunnerPort runs external commands to completion.
type CommandRunnerPort interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, argv []string) error
}

type DistributionReaderPort interface {
	ReadDistributions(dir string) ([]types.Distribution, error)
}

type PyProjectPort interface {
	LoadPyProject(dir string) (types.PyProject, error)
}

// TranslatorPort converts distribution requirements into the store's
// requirement scheme.
type TranslatorPort interface {
	Translate(dist types.Distribution, pythonVersion string, distNames []string) (types.TranslatedRequirements, error)
	PackageName(name string) string
	PackageVersion(version string) (string, error)
}

// PackageStorePort is the two-phase package construction API. Commit
// stages every variant, hands its root to populate, then publishes it.
// Variants that already exist are reported as skipped. The staging area
// is removed on every exit path.
type PackageStorePort interface {
	Begin(name string, storePath string) *types.PackageDraft
	Commit(ctx context.Context, draft *types.PackageDraft, populate func(root string) error) (installed []types.Variant, skipped []types.Variant, err error)
	ListPackages(storePath string) ([]types.PackageDefinition, error)
}
