package app

import (
	"github.com/rs/zerolog"

	"pyimport/internal/adapters"
	"pyimport/internal/core"
	"pyimport/internal/ports"
	"pyimport/internal/types"
)

type Service struct {
	Config     types.ImportConfig
	Logger     zerolog.Logger
	Repository ports.PackageRepositoryPort
	Runner     ports.CommandRunnerPort
	Reader     ports.DistributionReaderPort
	PyProject  ports.PyProjectPort
	Translator ports.TranslatorPort
	Store      ports.PackageStorePort
}

func NewService(cfg types.ImportConfig, logger zerolog.Logger) Service {
	return Service{
		Config:     cfg,
		Logger:     logger,
		Repository: adapters.NewPackageRepositoryAdapter(cfg.SearchPaths()),
		Runner:     adapters.NewCommandRunnerAdapter(logger),
		Reader:     adapters.NewDistributionReaderAdapter(logger),
		PyProject:  adapters.NewPyProjectAdapter(),
		Translator: core.NewTranslator(cfg.Platform, cfg.Arch).WithLogger(logger),
		Store:      adapters.NewPackageStoreAdapter(),
	}
}

// trace returns a debug event only in verbose mode.
func (s Service) trace() *zerolog.Event {
	if !s.Config.Verbose {
		return nil
	}
	return s.Logger.Debug()
}
