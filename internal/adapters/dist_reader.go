package adapters

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"pyimport/internal/ports"
	"pyimport/internal/types"
)

const distInfoSuffix = ".dist-info"

// DistributionReaderAdapter reads the distributions an installer placed
// in a target directory, one per top-level .dist-info directory.
type DistributionReaderAdapter struct {
	Logger zerolog.Logger
}

func NewDistributionReaderAdapter(logger zerolog.Logger) DistributionReaderAdapter {
	return DistributionReaderAdapter{Logger: logger}
}

func (a DistributionReaderAdapter) ReadDistributions(dir string) ([]types.Distribution, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read install directory").
			WithCause(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), distInfoSuffix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var dists []types.Distribution
	for _, name := range names {
		dist, ok, err := a.readDistribution(dir, name)
		if err != nil {
			return nil, err
		}
		if ok {
			dists = append(dists, dist)
		}
	}
	return dists, nil
}

func (a DistributionReaderAdapter) readDistribution(root string, infoDir string) (types.Distribution, bool, error) {
	infoPath := filepath.Join(root, infoDir)
	content, err := os.ReadFile(filepath.Join(infoPath, "METADATA"))
	if err != nil {
		return types.Distribution{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read distribution metadata").
			WithCause(err)
	}
	dist := parseMetadata(string(content))
	if strings.TrimSpace(dist.Name) == "" || strings.TrimSpace(dist.Version) == "" {
		a.Logger.Warn().Str("dist_info", infoDir).Msg("skipping distribution without name or version")
		return types.Distribution{}, false, nil
	}
	dist.InfoDir = infoDir

	pure, err := readPurelib(filepath.Join(infoPath, "WHEEL"))
	if err != nil {
		return types.Distribution{}, false, err
	}
	dist.Pure = pure

	files, err := readRecord(filepath.Join(infoPath, "RECORD"))
	if err != nil {
		return types.Distribution{}, false, err
	}
	if files == nil {
		a.Logger.Warn().Str("dist", dist.NameAndVersion()).Msg("distribution has no RECORD")
	}
	dist.Files = files
	return dist, true, nil
}

// parseMetadata reads the header block of a core metadata file. The
// description body after the first blank line is ignored.
func parseMetadata(content string) types.Distribution {
	var dist types.Distribution
	var downloadURL string
	var key, value string
	flush := func() {
		if key == "" {
			return
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(key) {
		case "name":
			dist.Name = value
		case "version":
			dist.Version = value
		case "summary":
			dist.Metadata.Summary = value
		case "home-page":
			dist.Metadata.HomePage = value
		case "download-url":
			downloadURL = value
		case "project-url":
			label, url, found := strings.Cut(value, ",")
			if found && isSourceLabel(label) && dist.Metadata.SourceURL == "" {
				dist.Metadata.SourceURL = strings.TrimSpace(url)
			}
		case "author":
			dist.Metadata.Author = value
		case "author-email":
			dist.Metadata.AuthorEmail = value
		case "requires-dist":
			dist.RunRequires = append(dist.RunRequires, value)
		case "requires-python":
			dist.RequiresPython = value
		}
		key, value = "", ""
	}
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			value += " " + strings.TrimSpace(line)
			continue
		}
		flush()
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key, value = strings.TrimSpace(k), v
	}
	flush()
	if downloadURL != "" {
		dist.Metadata.SourceURL = downloadURL
	}
	return dist
}

func isSourceLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "source", "source code", "repository", "code":
		return true
	default:
		return false
	}
}

func readPurelib(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read WHEEL file").
			WithCause(err)
	}
	for _, line := range strings.Split(string(content), "\n") {
		k, v, found := strings.Cut(line, ":")
		if found && strings.EqualFold(strings.TrimSpace(k), "Root-Is-Purelib") {
			return strings.EqualFold(strings.TrimSpace(v), "true"), nil
		}
	}
	return false, nil
}

// readRecord returns the file column of a RECORD manifest, or nil when the
// distribution has none.
func readRecord(path string) ([]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open RECORD").
			WithCause(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	files := []string{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid RECORD file").
				WithCause(err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		files = append(files, row[0])
	}
	return files, nil
}

var _ ports.DistributionReaderPort = DistributionReaderAdapter{}
