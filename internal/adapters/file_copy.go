package adapters

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyimport/internal/types"
)

// CopyMappedFiles copies every mapped file from srcRoot into destRoot.
// Only executable sources keep their mode and timestamps; everything
// else is written with default permissions. A mapping that resolves
// outside either root is refused before anything is written for it.
func CopyMappedFiles(srcRoot string, destRoot string, mapping *types.FileMapping) error {
	for _, relSrc := range mapping.Sources() {
		relDest, _ := mapping.Get(relSrc)
		src, err := joinWithin(srcRoot, relSrc)
		if err != nil {
			return err
		}
		dest, err := joinWithin(destRoot, relDest)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to create directory for %s", relDest)).
				WithCause(err)
		}
		if err := copyFile(src, dest); err != nil {
			return err
		}
		info, err := os.Stat(src)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to stat %s", relSrc)).
				WithCause(err)
		}
		if !isExecutable(info) {
			continue
		}
		if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to set mode on %s", relDest)).
				WithCause(err)
		}
		if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to set times on %s", relDest)).
				WithCause(err)
		}
	}
	return nil
}

func joinWithin(root string, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("path %s escapes %s", rel, root))
	}
	return filepath.Join(root, local), nil
}

func isExecutable(info os.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func copyFile(srcPath string, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open source file").
			WithCause(err)
	}
	defer srcFile.Close()
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination file").
			WithCause(err)
	}
	if _, err := io.Copy(destFile, srcFile); err != nil {
		_ = destFile.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy file").
			WithCause(err)
	}
	if err := destFile.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close destination file").
			WithCause(err)
	}
	return nil
}
