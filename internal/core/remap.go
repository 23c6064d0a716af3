package core

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"pyimport/internal/types"
)

const (
	// ExecutableDir is where installers put entry-point scripts.
	ExecutableDir = "bin"
	// PayloadDir is the package-relative root for library files.
	PayloadDir = "python"

	distInfoSuffix = ".dist-info"
	parentDir      = ".."
)

// ErrUnmappedPath is the cause of every error raised for an installed file
// that has no place inside the package.
var ErrUnmappedPath = errors.New("unmapped installed path")

// PathRemapper decides where each installed file of a distribution lands
// inside the published package.
type PathRemapper struct {
	rules  []types.CompiledRemapRule
	logger zerolog.Logger
	exists func(string) bool
}

func NewPathRemapper(rules []types.CompiledRemapRule, logger zerolog.Logger) PathRemapper {
	return PathRemapper{rules: rules, logger: logger, exists: fileExists}
}

// WithExists replaces the on-disk existence check.
func (r PathRemapper) WithExists(exists func(string) bool) PathRemapper {
	r.exists = exists
	return r
}

// MapFile maps one RECORD entry to its scratch-relative source and its
// package-relative destination. Both must stay inside their roots.
func (r PathRemapper) MapFile(relSource string, dist types.Distribution) (string, string, error) {
	src, dest, ok := r.mapFile(relSource)
	if !ok {
		r.logger.Error().Msg(unmappedPathHelp(relSource, dist))
		return "", "", unmappedPathError(relSource, dist)
	}
	if !filepath.IsLocal(filepath.FromSlash(src)) || !filepath.IsLocal(filepath.FromSlash(dest)) {
		r.logger.Error().
			Str("src", src).
			Str("dest", dest).
			Msg(unmappedPathHelp(relSource, dist))
		return "", "", unmappedPathError(relSource, dist)
	}
	return src, dest, nil
}

func (r PathRemapper) mapFile(relSource string) (string, string, bool) {
	topDir := strings.SplitN(relSource, "/", 2)[0]

	switch {
	case topDir == ExecutableDir:
		return relSource, relSource, true
	case strings.HasSuffix(topDir, distInfoSuffix):
		// the dist-info dir carries RECORD, keep it whole next to the code
		return relSource, path.Join(PayloadDir, relSource), true
	case topDir == parentDir:
		for _, rule := range r.rules {
			if !rule.Pattern.MatchString(relSource) {
				continue
			}
			src := rule.Pattern.ReplaceAllString(relSource, rule.Rule.InstallPath)
			dest := rule.Pattern.ReplaceAllString(relSource, rule.Rule.PackagePath)
			return path.Clean(src), path.Clean(dest), true
		}
		return "", "", false
	default:
		return relSource, path.Join(PayloadDir, relSource), true
	}
}

func unmappedPathError(relSource string, dist types.Distribution) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("unmapped installed path %s in %s, see the error above for remediation", relSource, dist.RecordPath())).
		WithCause(ErrUnmappedPath)
}

// BuildFileMapping maps every installed file of dist. Files the installer
// listed but did not place under scratchRoot are skipped.
func (r PathRemapper) BuildFileMapping(dist types.Distribution, scratchRoot string) (*types.FileMapping, error) {
	mapping := types.NewFileMapping()
	for _, installed := range dist.Files {
		original := path.Clean(filepath.ToSlash(installed))
		src, dest, err := r.MapFile(original, dist)
		if err != nil {
			return nil, err
		}
		srcPath := filepath.Join(scratchRoot, filepath.FromSlash(src))
		if !r.exists(srcPath) {
			r.logger.Warn().
				Str("path", srcPath).
				Str("record", original).
				Msg("skipping non-existent source file")
			continue
		}
		mapping.Set(src, dest)
	}
	return mapping, nil
}

// ToolsFromMapping lists the executables mapped directly into bin.
func ToolsFromMapping(mapping *types.FileMapping) []string {
	var tools []string
	for _, src := range mapping.Sources() {
		dest, _ := mapping.Get(src)
		dir, name := path.Split(dest)
		if path.Clean(dir) == ExecutableDir {
			tools = append(tools, name)
		}
	}
	return tools
}

func unmappedPathHelp(relSource string, dist types.Distribution) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Unknown source file in %s: %q\n\n", dist.RecordPath(), relSource)
	builder.WriteString("To resolve:\n\n")
	builder.WriteString("1. Install the distribution manually with 'uv pip install --target <tmp>'.\n")
	fmt.Fprintf(&builder, "2. Find where %q was placed, relative to <tmp>.\n", relSource)
	builder.WriteString("3. Add a rule to 'pip_install_remaps' in the configuration:\n\n")
	fmt.Fprintf(&builder, "     - record_path: '%s'\n", regexp.QuoteMeta(relSource))
	builder.WriteString("       install_path: '<path from step 2, relative to <tmp>>'\n")
	builder.WriteString("       package_path: '<destination inside the package>'\n\n")
	builder.WriteString("   Both paths must stay inside their roots. Refer to groups as ${1}.\n\n")
	builder.WriteString("4. Run the import again.\n")
	return builder.String()
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
