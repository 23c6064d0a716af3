package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyimport/internal/app"
	"pyimport/internal/types"
)

type installOptions struct {
	PythonVersion string
	Mode          string
	Release       bool
	Prefix        string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install SOURCE [-- UV_ARGS...]",
		Short: "Install a Python distribution and its dependencies as packages",
		Long: "Install SOURCE (a name, requirement, archive, URL or project directory) with 'uv pip install'\n" +
			"and publish every resulting distribution as a package. Arguments after -- are passed to uv.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.PythonVersion, "python-version", "", "Python version to install against (default: latest python package)")
	cmd.Flags().StringVar(&opts.Mode, "mode", string(types.InstallModeMinDeps), "Install mode: min-deps or no-deps")
	cmd.Flags().BoolVar(&opts.Release, "release", false, "Install into the release package store")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Install into this package store instead")
	_ = viper.BindPFlag("python_version", cmd.Flags().Lookup("python-version"))
	_ = viper.BindPFlag("install_mode", cmd.Flags().Lookup("mode"))
	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions, args []string) error {
	source, extra, err := splitInstallArgs(cmd, args)
	if err != nil {
		return err
	}
	mode, err := types.ParseInstallMode(resolveString(cmd, opts.Mode, "install_mode", "mode"))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error())
	}
	cfg, err := loadImportConfig()
	if err != nil {
		return err
	}
	service := app.NewService(cfg, log.Logger)
	result, err := service.Install(ctx, app.InstallRequest{
		Source:        source,
		PythonVersion: resolveString(cmd, opts.PythonVersion, "python_version", "python-version"),
		Mode:          mode,
		Release:       resolveBool(cmd, opts.Release, "release", "release"),
		StorePath:     expandHome(opts.Prefix),
		ExtraArgs:     extra,
	})
	if err != nil {
		return err
	}
	fmt.Printf("installed: %d, already installed: %d\n", len(result.Installed), len(result.Skipped))
	return nil
}

// splitInstallArgs separates the source from the uv arguments after --.
func splitInstallArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	dash := -1
	if cmd != nil {
		dash = cmd.ArgsLenAtDash()
	}
	positional := args
	var extra []string
	if dash >= 0 {
		positional = args[:dash]
		extra = append(extra, args[dash:]...)
	}
	if len(positional) != 1 {
		return "", nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("expected exactly one install source, got %d", len(positional)))
	}
	return positional[0], extra, nil
}
