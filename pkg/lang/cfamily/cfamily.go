// Package cfamily extracts identifiers from C and C++ source using anchored
// regular expressions plus lexical brace matching. It is intentionally a
// heuristic, not a parser: the patterns below target typical, readably
// formatted source. Preprocessor tricks, minified code and exotic template
// declarations are out of scope.
package cfamily

import (
	"regexp"
	"strings"

	"github.com/odvcencio/aiguard/pkg/lang"
	"github.com/odvcencio/aiguard/pkg/textscan"
)

// Extensions are the file extensions this extractor registers for.
var Extensions = []string{".c", ".h", ".cpp", ".hpp", ".cc", ".cxx", ".hxx"}

// controlKeywords can spuriously match the function-header pattern
// ("if (x) {" looks like a call-shaped definition). Matches with these
// names are always skipped.
var controlKeywords = map[string]bool{
	"if": true, "while": true, "for": true, "switch": true,
	"return": true, "sizeof": true,
}

const (
	modifiers  = `(?:(?:static|inline|extern|virtual|const|unsigned|signed|long|short)\s+)*`
	attributes = `(?:__\w+__\s*\([^)]*\)\s*)*`
	funcTail   = `\s*\([^)]*\)\s*(?:const\s*)?(?:override\s*)?(?:noexcept(?:\([^)]*\))?\s*)?\{`
)

// Generic patterns used when listing; per-name extraction rebuilds the
// pattern around the quoted name so "char *f" / "char* f" / "char * f"
// all anchor correctly.
var (
	funcPattern = regexp.MustCompile(
		`(?m)^[ \t]*` + attributes + modifiers + `[\w][\w\s*&:<>,]*?\s+(?P<name>\w+)` + funcTail)

	structPattern = regexp.MustCompile(
		`(?m)^[ \t]*(?P<keyword>struct|class|union|enum)\s+(?P<name>\w+)\s*(?::\s*[^{]+)?\s*\{`)

	typedefPattern = regexp.MustCompile(
		`(?m)^[ \t]*typedef\s+.+?\s+(?P<name>\w+)\s*;`)

	definePattern = regexp.MustCompile(
		`(?m)^[ \t]*#\s*define\s+(?P<name>\w+)(?:\([^)]*\))?`)

	globalVarPattern = regexp.MustCompile(
		`(?m)^[ \t]*(?:static\s+|extern\s+|const\s+|volatile\s+)*[\w][\w\s*&]+?\s+(?P<name>\w+)\s*(?:\[[^\]]*\])?\s*(?:=\s*[^;]+)?\s*;`)
)

// Extractor implements lang.Family for C and C++ source.
type Extractor struct{}

// New returns the C-family extractor. One instance serves both C and C++;
// the patterns accept the C++-only keywords (class, virtual, override)
// which simply never match in C source.
func New() *Extractor { return &Extractor{} }

// Separator returns the C++ scope-resolution operator used in qualified
// member names.
func (x *Extractor) Separator() string { return "::" }

// ExtractIdentifier extracts a single named construct. Qualified names
// (Container::member) resolve through the member extractor; bare names are
// tried as function, struct/class/union/enum, typedef, macro, then global
// variable, in that order.
func (x *Extractor) ExtractIdentifier(source, name string) *lang.Identifier {
	lines := strings.Split(source, "\n")

	if strings.Contains(name, "::") {
		return x.extractMember(source, lines, name)
	}

	finders := []func(string, []string, string) *lang.Identifier{
		x.findFunction,
		x.findStructClass,
		x.findTypedef,
		x.findMacro,
		x.findGlobalVar,
	}
	for _, find := range finders {
		if id := find(source, lines, name); id != nil {
			return id
		}
	}
	return nil
}

// ListIdentifiers returns every top-level construct, one pass per construct
// kind in priority order. The first kind to claim a name wins; later kinds
// never produce a duplicate entry for the same name. The global-variable
// pass skips declarations resolving inside an earlier construct's span, so
// function locals and aggregate fields never surface as top-level globals.
func (x *Extractor) ListIdentifiers(source string) []lang.Identifier {
	lines := strings.Split(source, "\n")
	var out []lang.Identifier
	seen := make(map[string]bool)

	inClaimed := func(line int) bool {
		for _, id := range out {
			if line >= id.StartLine && line <= id.EndLine {
				return true
			}
		}
		return false
	}

	collect := func(re *regexp.Regexp, keywordGuard, topLevelOnly bool, find func(string, []string, string) *lang.Identifier) {
		nameIdx := re.SubexpIndex("name")
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			name := m[nameIdx]
			if seen[name] {
				continue
			}
			if keywordGuard && controlKeywords[name] {
				continue
			}
			id := find(source, lines, name)
			if id == nil {
				continue
			}
			if topLevelOnly && inClaimed(id.StartLine) {
				continue
			}
			out = append(out, *id)
			seen[name] = true
		}
	}

	collect(funcPattern, true, false, x.findFunction)
	collect(structPattern, false, false, x.findStructClass)
	collect(typedefPattern, false, false, x.findTypedef)
	collect(definePattern, false, false, x.findMacro)
	collect(globalVarPattern, false, true, x.findGlobalVar)

	return out
}

// ExpandPattern resolves wildcard and Container::member patterns.
func (x *Extractor) ExpandPattern(source, pattern string) []lang.Identifier {
	return lang.Expand(x, source, pattern)
}

// findFunction locates a function definition by name. The body end is the
// brace matching the one that terminates the signature.
func (x *Extractor) findFunction(source string, lines []string, name string) *lang.Identifier {
	re := regexp.MustCompile(
		`(?m)^[ \t]*` + attributes + modifiers +
			`[\w][\w\s*&:<>,]*?[\s*&]` + regexp.QuoteMeta(name) + funcTail)

	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	startLine := textscan.LineAt(source, loc[0])
	endPos := textscan.FindMatchingBrace(source, loc[1]-1)
	if endPos == -1 {
		return nil
	}
	endLine := textscan.LineAt(source, endPos+1)

	return &lang.Identifier{
		Name:      name,
		Source:    strings.Join(lines[startLine-1:endLine], "\n"),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// findStructClass locates a struct/class/union/enum definition by name and
// consumes an optional trailing semicolon after the closing brace.
func (x *Extractor) findStructClass(source string, lines []string, name string) *lang.Identifier {
	re := regexp.MustCompile(
		`(?m)^[ \t]*(?:struct|class|union|enum)\s+` + regexp.QuoteMeta(name) + `\s*(?::\s*[^{]+)?\s*\{`)

	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	startLine := textscan.LineAt(source, loc[0])
	endPos := textscan.FindMatchingBrace(source, loc[1]-1)
	if endPos == -1 {
		return nil
	}

	// C struct declarations end in "};" — include the semicolon when it
	// follows within a few characters of the closing brace.
	tail := source[endPos+1:]
	if len(tail) > 9 {
		tail = tail[:9]
	}
	if strings.HasPrefix(strings.TrimLeft(tail, " \t\r\n"), ";") {
		endPos = endPos + 1 + strings.Index(source[endPos+1:], ";") + 1
	}

	endLine := textscan.LineAt(source, endPos)

	return &lang.Identifier{
		Name:      name,
		Source:    strings.Join(lines[startLine-1:endLine], "\n"),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// findTypedef locates a simple (non-struct) typedef; the span is the single
// statement ending at the terminating semicolon.
func (x *Extractor) findTypedef(source string, lines []string, name string) *lang.Identifier {
	re := regexp.MustCompile(`(?m)^[ \t]*typedef\s+.+?\s+` + regexp.QuoteMeta(name) + `\s*;`)

	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	startLine := textscan.LineAt(source, loc[0])
	endLine := textscan.LineAt(source, loc[1])

	return &lang.Identifier{
		Name:      name,
		Source:    strings.Join(lines[startLine-1:endLine], "\n"),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// findMacro locates a #define and extends the span across backslash line
// continuations.
func (x *Extractor) findMacro(source string, lines []string, name string) *lang.Identifier {
	re := regexp.MustCompile(`(?m)^[ \t]*#\s*define\s+` + regexp.QuoteMeta(name) + `(?:\([^)]*\))?`)

	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	startLine := textscan.LineAt(source, loc[0])
	endLine := startLine
	for endLine <= len(lines) && strings.HasSuffix(strings.TrimRight(lines[endLine-1], " \t\r"), "\\") {
		endLine++
	}

	return &lang.Identifier{
		Name:      name,
		Source:    strings.Join(lines[startLine-1:endLine], "\n"),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// findGlobalVar locates a file-scope variable declaration; the span is the
// single statement ending at the terminating semicolon.
func (x *Extractor) findGlobalVar(source string, lines []string, name string) *lang.Identifier {
	re := regexp.MustCompile(
		`(?m)^[ \t]*(?:static\s+|extern\s+|const\s+|volatile\s+)*[\w][\w\s*&]+?[\s*&]` +
			regexp.QuoteMeta(name) + `\s*(?:\[[^\]]*\])?\s*(?:=\s*[^;]+)?\s*;`)

	loc := re.FindStringIndex(source)
	if loc == nil {
		return nil
	}

	startLine := textscan.LineAt(source, loc[0])
	endLine := textscan.LineAt(source, loc[1])

	return &lang.Identifier{
		Name:      name,
		Source:    strings.Join(lines[startLine-1:endLine], "\n"),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

var _ lang.Family = (*Extractor)(nil)
