package types

import (
	"fmt"
	"regexp"
	"strconv"
)

// RemapRule redirects a file the installer placed outside its target
// root. RecordPath is a regular expression matched against the RECORD
// entry; InstallPath and PackagePath are replacement templates producing
// the scratch-relative source and the package-relative destination.
// Templates refer to groups as $1 or ${1}; a group followed by a name
// character must be braced (${1}_data), and \1 is not a group reference.
type RemapRule struct {
	RecordPath  string `yaml:"record_path" mapstructure:"record_path"`
	InstallPath string `yaml:"install_path" mapstructure:"install_path"`
	PackagePath string `yaml:"package_path" mapstructure:"package_path"`
}

type CompiledRemapRule struct {
	Rule    RemapRule
	Pattern *regexp.Regexp
}

// CompileRemapRules compiles rules in order. The first invalid rule fails
// the whole set.
func CompileRemapRules(rules []RemapRule) ([]CompiledRemapRule, error) {
	compiled := make([]CompiledRemapRule, 0, len(rules))
	for i, rule := range rules {
		if rule.RecordPath == "" {
			return nil, fmt.Errorf("remap rule %d: record_path is empty", i)
		}
		if rule.InstallPath == "" || rule.PackagePath == "" {
			return nil, fmt.Errorf("remap rule %d (%s): install_path and package_path are required", i, rule.RecordPath)
		}
		pattern, err := regexp.Compile(rule.RecordPath)
		if err != nil {
			return nil, fmt.Errorf("remap rule %d: invalid record_path: %w", i, err)
		}
		for _, template := range []string{rule.InstallPath, rule.PackagePath} {
			if err := checkTemplate(pattern, template); err != nil {
				return nil, fmt.Errorf("remap rule %d (%s): %w", i, rule.RecordPath, err)
			}
		}
		compiled = append(compiled, CompiledRemapRule{Rule: rule, Pattern: pattern})
	}
	return compiled, nil
}

var (
	templateRef   = regexp.MustCompile(`\$(?:\$|\{([^}]*)\}|([0-9A-Za-z_]+))`)
	backslashRef  = regexp.MustCompile(`\\[0-9]`)
	ambiguousName = regexp.MustCompile(`^[0-9]+[A-Za-z_]`)
)

// checkTemplate rejects group references that regexp.Expand would turn
// into an empty string without complaint.
func checkTemplate(pattern *regexp.Regexp, template string) error {
	if ref := backslashRef.FindString(template); ref != "" {
		return fmt.Errorf("template %q uses %s, write ${%s} instead", template, ref, ref[1:])
	}
	for _, match := range templateRef.FindAllStringSubmatch(template, -1) {
		if match[0] == "$$" {
			continue
		}
		name := match[1]
		if name == "" {
			name = match[2]
			if ambiguousName.MatchString(name) {
				return fmt.Errorf("template %q: $%s is read as group %q, brace the number as ${...}", template, name, name)
			}
		}
		if n, err := strconv.Atoi(name); err == nil {
			if n > pattern.NumSubexp() {
				return fmt.Errorf("template %q refers to group %d but the pattern has %d", template, n, pattern.NumSubexp())
			}
			continue
		}
		if pattern.SubexpIndex(name) < 0 {
			return fmt.Errorf("template %q refers to unknown group %q", template, name)
		}
	}
	return nil
}
