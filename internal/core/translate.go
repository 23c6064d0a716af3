package core

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog"

	"pyimport/internal/ports"
	"pyimport/internal/shared"
	"pyimport/internal/types"
)

// Translator converts pip requirement and version strings into package
// store requirements. Platform and Arch describe the machine the
// imported binaries target and feed both marker evaluation and the
// variant axis of non-pure distributions.
type Translator struct {
	Platform string
	Arch     string
	Logger   zerolog.Logger
}

func NewTranslator(platform string, arch string) Translator {
	if strings.TrimSpace(platform) == "" {
		platform = runtime.GOOS
	}
	if strings.TrimSpace(arch) == "" {
		arch = machineArch(runtime.GOARCH)
	}
	return Translator{Platform: platform, Arch: arch}
}

// WithLogger sets where dropped version bounds are reported.
func (t Translator) WithLogger(logger zerolog.Logger) Translator {
	t.Logger = logger
	return t
}

// PackageName turns a pip distribution name into a package name. Case is
// preserved; dashes are not valid in package names.
func (t Translator) PackageName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

// PackageVersion normalises a PEP 440 version. The local version
// separator becomes a dash.
func (t Translator) PackageVersion(version string) (string, error) {
	parsed, err := pep440.Parse(strings.TrimSpace(version))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid pip version %q", version)).
			WithCause(err)
	}
	return strings.ReplaceAll(parsed.String(), "+", "-"), nil
}

func (t Translator) Translate(dist types.Distribution, pythonVersion string, distNames []string) (types.TranslatedRequirements, error) {
	casings := map[string]string{}
	for _, name := range distNames {
		casings[shared.NormalizePipName(name)] = name
	}
	self := shared.NormalizePipName(dist.Name)
	env := t.markerEnv(pythonVersion)

	var requires []string
	seen := map[string]struct{}{}
	for _, raw := range dist.RunRequires {
		req, err := parseRequirement(raw)
		if err != nil {
			return types.TranslatedRequirements{}, err
		}
		if req.name == "" || shared.NormalizePipName(req.name) == self {
			continue
		}
		if req.marker != "" && !evalMarker(req.marker, env) {
			continue
		}
		name := req.name
		if cased, ok := casings[shared.NormalizePipName(name)]; ok {
			name = cased
		}
		translated := t.requirement(t.PackageName(name), req.specifiers)
		if _, ok := seen[translated]; ok {
			continue
		}
		seen[translated] = struct{}{}
		requires = append(requires, translated)
	}

	result := types.TranslatedRequirements{Pure: dist.Pure}
	if dist.Pure {
		requires = append(requires, t.requirement("python", splitSpecifiers(dist.RequiresPython)))
	} else {
		result.VariantRequires = []string{
			"platform-" + t.Platform,
			"arch-" + t.Arch,
			"python-" + majorMinor(pythonVersion),
		}
	}
	result.Requires = requires
	return result, nil
}

// requirement renders one package requirement from PEP 440 specifiers.
// A specifier whose version cannot be parsed, such as the legacy >=3.5.*,
// is dropped with a warning and the remaining bounds still apply.
func (t Translator) requirement(name string, specifiers []string) string {
	var lower, upper, exact, prefix string
	for _, spec := range specifiers {
		op, value := splitOperator(spec)
		if value == "" {
			continue
		}
		if op == "!=" {
			// exclusions have no package store equivalent
			continue
		}
		if (op == "==" || op == "===") && strings.HasSuffix(value, ".*") {
			prefix = strings.TrimSuffix(value, ".*")
			continue
		}
		if op == "" {
			t.dropSpecifier(name, spec, "missing operator")
			continue
		}
		v, err := t.PackageVersion(value)
		if err != nil {
			t.dropSpecifier(name, spec, "unparseable version")
			continue
		}
		switch op {
		case "==", "===":
			exact = v
		case ">=":
			lower = v + "+"
		case ">":
			lower = ">" + v
		case "<", "<=":
			upper = op + v
		case "~=":
			lower = v + "+"
			if bound, ok := compatibleUpperBound(value); ok {
				upper = "<" + bound
			}
		}
	}
	switch {
	case exact != "":
		return name + "==" + exact
	case prefix != "":
		return name + "-" + prefix
	case strings.HasPrefix(lower, ">"):
		return name + lower + upper
	case lower != "":
		return name + "-" + lower + upper
	default:
		return name + upper
	}
}

func (t Translator) dropSpecifier(name string, spec string, reason string) {
	t.Logger.Warn().
		Str("requirement", name).
		Str("specifier", spec).
		Msgf("ignoring version bound: %s", reason)
}

type requirement struct {
	name       string
	specifiers []string
	marker     string
}

// parseRequirement splits a Requires-Dist value such as
// `foo[bar] (>=1.0,<2); python_version < "3.10"`.
func parseRequirement(raw string) (requirement, error) {
	value := strings.TrimSpace(raw)
	var req requirement
	if idx := strings.Index(value, ";"); idx != -1 {
		req.marker = strings.TrimSpace(value[idx+1:])
		value = strings.TrimSpace(value[:idx])
	}
	req.name = parseRequiresDistName(value)
	rest := strings.TrimSpace(value[len(req.name):])
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end == -1 {
			return requirement{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unterminated extras in requirement %q", raw))
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	if strings.HasPrefix(rest, "@") {
		// direct URL reference, unversioned
		return req, nil
	}
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")"))
	req.specifiers = splitSpecifiers(rest)
	return req, nil
}

func splitSpecifiers(value string) []string {
	var specs []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			specs = append(specs, part)
		}
	}
	return specs
}

func splitOperator(spec string) (string, string) {
	for _, op := range []string{"===", "==", "!=", "~=", ">=", "<=", ">", "<"} {
		if strings.HasPrefix(spec, op) {
			return op, strings.TrimSpace(strings.TrimPrefix(spec, op))
		}
	}
	return "", strings.TrimSpace(spec)
}

// compatibleUpperBound returns the exclusive upper bound implied by
// ~=value: 1.4.5 gives 1.5, 2.2 gives 3.
func compatibleUpperBound(value string) (string, bool) {
	parsed, err := pep440.Parse(value)
	if err != nil {
		return "", false
	}
	release := strings.SplitN(parsed.String(), "+", 2)[0]
	var parts []string
	for _, part := range strings.Split(release, ".") {
		digits := leadingDigits(part)
		parts = append(parts, digits)
		if digits != part {
			break
		}
	}
	if len(parts) < 2 {
		return "", false
	}
	parts = parts[:len(parts)-1]
	last, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", false
	}
	parts[len(parts)-1] = strconv.Itoa(last + 1)
	return strings.Join(parts, "."), true
}

func leadingDigits(value string) string {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	return value[:end]
}

func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

func machineArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return goarch
	}
}

// parseRequiresDistName returns the distribution name at the start of a
// requirement string.
func parseRequiresDistName(value string) string {
	var builder strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if !isPipNameRune(r) {
			break
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func isPipNameRune(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= 'A' && r <= 'Z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	return r == '-' || r == '_' || r == '.'
}

var _ ports.TranslatorPort = Translator{}
