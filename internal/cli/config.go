package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyimport/internal/types"
)

func setConfigDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	local := filepath.Join(home, "packages")
	release := filepath.Join(home, ".pyimport", "packages", "int")
	viper.SetDefault("local_packages_path", local)
	viper.SetDefault("release_packages_path", release)
	viper.SetDefault("packages_path", []string{local, release})
	viper.SetDefault("platform", runtime.GOOS)
}

// loadImportConfig reads the import configuration from viper and
// validates the remap rules.
func loadImportConfig() (types.ImportConfig, error) {
	var remaps []types.RemapRule
	if err := viper.UnmarshalKey("pip_install_remaps", &remaps); err != nil {
		return types.ImportConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid pip_install_remaps").
			WithCause(err)
	}
	compiled, err := types.CompileRemapRules(remaps)
	if err != nil {
		return types.ImportConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid pip_install_remaps").
			WithCause(err)
	}
	return types.ImportConfig{
		ReleasePackagesPath: expandHome(viper.GetString("release_packages_path")),
		LocalPackagesPath:   expandHome(viper.GetString("local_packages_path")),
		PackagesPath:        expandHomeAll(viper.GetStringSlice("packages_path")),
		ExtraArgs:           viper.GetStringSlice("pip_extra_args"),
		Remaps:              compiled,
		Verbose:             viper.GetBool("verbose"),
		Platform:            viper.GetString("platform"),
		Arch:                viper.GetString("arch"),
	}, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func expandHomeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		out = append(out, expandHome(path))
	}
	return out
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
