package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pyimport/internal/app"
)

type listOptions struct {
	Release bool
	Prefix  string
}

func newListCommand() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages imported from pip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Release, "release", false, "List the release package store")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "List this package store instead")
	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, opts listOptions) error {
	cfg, err := loadImportConfig()
	if err != nil {
		return err
	}
	service := app.NewService(cfg, log.Logger)
	result, err := service.List(ctx, app.ListRequest{
		StorePath: expandHome(opts.Prefix),
		Release:   resolveBool(cmd, opts.Release, "release", "release"),
	})
	if err != nil {
		return err
	}
	for _, pkg := range result.Packages {
		fmt.Printf("%s-%s\t%s\n", pkg.Name, pkg.Version, pkg.PipName)
	}
	if len(result.Packages) == 0 {
		fmt.Printf("no pip packages in %s\n", result.StorePath)
	}
	return nil
}
