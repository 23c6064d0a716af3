package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"

	"pyimport/internal/types"
)

const InterpreterFamily = "python"

// versionCache memoizes parsed store versions during sorting. Store
// versions are dotted alphanumeric strings, which Debian ordering
// compares token by token.
type versionCache struct {
	parsed map[string]debversion.Version
	failed map[string]struct{}
}

func newVersionCache() *versionCache {
	return &versionCache{
		parsed: map[string]debversion.Version{},
		failed: map[string]struct{}{},
	}
}

func (c *versionCache) version(value string) (debversion.Version, bool) {
	if parsed, ok := c.parsed[value]; ok {
		return parsed, true
	}
	if _, ok := c.failed[value]; ok {
		return debversion.Version{}, false
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		c.failed[value] = struct{}{}
		return debversion.Version{}, false
	}
	c.parsed[value] = parsed
	return parsed, true
}

// compare returns -1, 0, or 1. Unparseable versions sort below parseable
// ones and compare lexically among themselves.
func (c *versionCache) compare(a string, b string) int {
	va, okA := c.version(a)
	vb, okB := c.version(b)
	switch {
	case okA && okB:
		return va.Compare(vb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// SortPackagesDesc orders handles by version, highest first.
func SortPackagesDesc(handles []types.PackageHandle) {
	cache := newVersionCache()
	sort.SliceStable(handles, func(i, j int) bool {
		return cache.compare(handles[i].Version, handles[j].Version) > 0
	})
}

// SelectInterpreter picks the interpreter to install against. A
// constraint is trimmed to major.minor and matches every version with
// that prefix; the highest match wins. An empty constraint selects the
// latest interpreter available.
func SelectInterpreter(candidates []types.PackageHandle, constraint string) (types.PackageHandle, error) {
	constraint = strings.TrimSpace(constraint)
	var matching []types.PackageHandle
	for _, candidate := range candidates {
		if constraint == "" || versionHasPrefix(candidate.Version, majorMinor(constraint)) {
			matching = append(matching, candidate)
		}
	}
	if len(matching) == 0 {
		msg := fmt.Sprintf("found no %s package", InterpreterFamily)
		if constraint != "" {
			msg = fmt.Sprintf("found no %s package matching %s-%s", InterpreterFamily, InterpreterFamily, majorMinor(constraint))
		}
		return types.PackageHandle{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(msg)
	}
	SortPackagesDesc(matching)
	return matching[0], nil
}

func versionHasPrefix(version string, prefix string) bool {
	return version == prefix || strings.HasPrefix(version, prefix+".")
}
