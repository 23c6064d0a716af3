package core

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

var versionMarkers = map[string]struct{}{
	"python_version":         {},
	"python_full_version":    {},
	"implementation_version": {},
}

func (t Translator) markerEnv(pythonVersion string) map[string]string {
	env := map[string]string{
		"python_version":                 majorMinor(pythonVersion),
		"python_full_version":            pythonVersion,
		"implementation_version":         pythonVersion,
		"implementation_name":            "cpython",
		"platform_python_implementation": "CPython",
		"platform_machine":               t.Arch,
		"os_name":                        "posix",
	}
	switch t.Platform {
	case "windows":
		env["sys_platform"] = "win32"
		env["platform_system"] = "Windows"
		env["os_name"] = "nt"
	case "darwin":
		env["sys_platform"] = "darwin"
		env["platform_system"] = "Darwin"
	case "":
	default:
		env["sys_platform"] = t.Platform
		env["platform_system"] = strings.ToUpper(t.Platform[:1]) + t.Platform[1:]
	}
	return env
}

// evalMarker evaluates a PEP 508 environment marker. Requirements guarded
// only by an extra are excluded. Markers that cannot be parsed, or that
// name unknown variables, keep the requirement.
func evalMarker(marker string, env map[string]string) bool {
	p := &markerParser{tokens: tokenizeMarker(marker), env: env}
	result, ok := p.parseOr()
	if !ok || p.pos != len(p.tokens) {
		return true
	}
	return result
}

type markerToken struct {
	value  string
	quoted bool
}

func tokenizeMarker(marker string) []markerToken {
	var tokens []markerToken
	i := 0
	for i < len(marker) {
		c := marker[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			tokens = append(tokens, markerToken{value: string(c)})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(marker[i+1:], c)
			if end == -1 {
				return append(tokens, markerToken{value: marker[i+1:], quoted: true})
			}
			tokens = append(tokens, markerToken{value: marker[i+1 : i+1+end], quoted: true})
			i += end + 2
		case strings.ContainsRune("=!<>~", rune(c)):
			j := i
			for j < len(marker) && strings.ContainsRune("=!<>~", rune(marker[j])) {
				j++
			}
			tokens = append(tokens, markerToken{value: marker[i:j]})
			i = j
		default:
			j := i
			for j < len(marker) && !strings.ContainsRune(" \t()'\"=!<>~", rune(marker[j])) {
				j++
			}
			tokens = append(tokens, markerToken{value: marker[i:j]})
			i = j
		}
	}
	return tokens
}

type markerParser struct {
	tokens []markerToken
	pos    int
	env    map[string]string
}

func (p *markerParser) peek() (markerToken, bool) {
	if p.pos >= len(p.tokens) {
		return markerToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *markerParser) next() (markerToken, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *markerParser) keyword(word string) bool {
	tok, ok := p.peek()
	if ok && !tok.quoted && tok.value == word {
		p.pos++
		return true
	}
	return false
}

func (p *markerParser) parseOr() (bool, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return false, false
	}
	for p.keyword("or") {
		right, ok := p.parseAnd()
		if !ok {
			return false, false
		}
		left = left || right
	}
	return left, true
}

func (p *markerParser) parseAnd() (bool, bool) {
	left, ok := p.parseAtom()
	if !ok {
		return false, false
	}
	for p.keyword("and") {
		right, ok := p.parseAtom()
		if !ok {
			return false, false
		}
		left = left && right
	}
	return left, true
}

func (p *markerParser) parseAtom() (bool, bool) {
	if p.keyword("(") {
		result, ok := p.parseOr()
		if !ok || !p.keyword(")") {
			return false, false
		}
		return result, true
	}
	lhs, ok := p.next()
	if !ok {
		return false, false
	}
	op, ok := p.next()
	if !ok || op.quoted {
		return false, false
	}
	if op.value == "not" {
		if !p.keyword("in") {
			return false, false
		}
		op.value = "not in"
	}
	rhs, ok := p.next()
	if !ok {
		return false, false
	}
	return p.compare(lhs, op.value, rhs), true
}

func (p *markerParser) compare(lhs markerToken, op string, rhs markerToken) bool {
	variable, literal, flipped := lhs, rhs, false
	if lhs.quoted {
		variable, literal, flipped = rhs, lhs, true
	}
	if variable.quoted {
		return compareStrings(lhs.value, op, rhs.value)
	}
	if variable.value == "extra" {
		return false
	}
	actual, known := p.env[variable.value]
	if !known {
		return true
	}
	if flipped && (op == "in" || op == "not in") {
		return compareStrings(literal.value, op, actual)
	}
	if _, isVersion := versionMarkers[variable.value]; isVersion && op != "in" && op != "not in" {
		if flipped {
			op = flipOperator(op)
		}
		return compareVersions(actual, op, literal.value)
	}
	if flipped {
		return compareStrings(literal.value, op, actual)
	}
	return compareStrings(actual, op, literal.value)
}

func compareVersions(actual string, op string, want string) bool {
	version, err := pep440.Parse(actual)
	if err != nil {
		return true
	}
	specifiers, err := pep440.NewSpecifiers(op + " " + want)
	if err != nil {
		return true
	}
	return specifiers.Check(version)
}

func compareStrings(a string, op string, b string) bool {
	switch op {
	case "==", "===":
		return a == b
	case "!=":
		return a != b
	case "in":
		return strings.Contains(b, a)
	case "not in":
		return !strings.Contains(b, a)
	default:
		return true
	}
}

func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}
