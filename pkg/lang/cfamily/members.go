package cfamily

import (
	"regexp"
	"strings"

	"github.com/odvcencio/aiguard/pkg/lang"
	"github.com/odvcencio/aiguard/pkg/textscan"
)

const (
	memberFuncModifiers  = `(?:(?:static|inline|virtual|const|explicit)\s+)*`
	memberFieldModifiers = `(?:(?:static|const|volatile|mutable)\s+)*`
)

// memberFuncListPattern finds member function headers inside a container
// body; the body end comes from the brace matcher.
var memberFuncListPattern = regexp.MustCompile(
	`(?m)^[ \t]*` + memberFuncModifiers + `[\w][\w\s*&:<>,]*?[\s*&](?P<name>\w+)` + funcTail)

// memberFieldPattern matches one field declaration within a single
// ';'-terminated statement segment (see fieldStatements). Capture group 1
// is the declaration; group "name" the field name.
var memberFieldPattern = regexp.MustCompile(
	`(?m)^[ \t]*(` + memberFieldModifiers + `[\w][\w\s*&]*?[\s*&](?P<name>\w+)\s*(?:\[[^\]]*\])?\s*(?:=\s*[^;]+)?\s*;)`)

// extractMember resolves a Container::member qualified name. Only one
// nesting level is supported.
func (x *Extractor) extractMember(source string, lines []string, qualifiedName string) *lang.Identifier {
	parts := strings.SplitN(qualifiedName, "::", 2)
	if len(parts) != 2 {
		return nil
	}
	container, member := parts[0], parts[1]

	st := x.findStructClass(source, lines, container)
	if st == nil {
		return nil
	}
	body, ok := structBody(st.Source)
	if !ok {
		return nil
	}

	if id := findMemberFunction(body, member, qualifiedName); id != nil {
		return id
	}
	return findMemberField(body, member, qualifiedName)
}

// ListMembers returns every member of the named struct/class, methods
// first. A field whose name was already claimed by a member function is
// skipped so ambiguous matches never produce duplicate entries.
func (x *Extractor) ListMembers(source, container string) []lang.Identifier {
	lines := strings.Split(source, "\n")

	st := x.findStructClass(source, lines, container)
	if st == nil {
		return nil
	}
	body, ok := structBody(st.Source)
	if !ok {
		return nil
	}

	var out []lang.Identifier
	taken := make(map[string]bool)

	nameIdx := memberFuncListPattern.SubexpIndex("name")
	for _, m := range memberFuncListPattern.FindAllStringSubmatch(body, -1) {
		name := m[nameIdx]
		if controlKeywords[name] || taken[name] {
			continue
		}
		qualified := container + "::" + name
		if id := findMemberFunction(body, name, qualified); id != nil {
			out = append(out, *id)
			taken[name] = true
		}
	}

	for _, seg := range fieldStatements(body) {
		name, declStart, ok := fieldInSegment(body, seg)
		if !ok || taken[name] {
			continue
		}
		out = append(out, fieldIdentifier(body, container+"::"+name, declStart, seg.end))
		taken[name] = true
	}

	return out
}

// structBody isolates the text strictly between a container's outermost
// braces.
func structBody(structSource string) (string, bool) {
	open := strings.Index(structSource, "{")
	if open == -1 {
		return "", false
	}
	closeIdx := strings.LastIndex(structSource, "}")
	if closeIdx < open+1 {
		closeIdx = len(structSource)
	}
	return structSource[open+1 : closeIdx], true
}

// findMemberFunction locates a member function inside a container body.
// Line numbers are relative to the body text.
func findMemberFunction(body, member, qualifiedName string) *lang.Identifier {
	re := regexp.MustCompile(
		`(?m)^[ \t]*` + memberFuncModifiers + `[\w][\w\s*&:<>,]*?[\s*&]` +
			regexp.QuoteMeta(member) + funcTail)

	loc := re.FindStringIndex(body)
	if loc == nil {
		return nil
	}
	endPos := textscan.FindMatchingBrace(body, loc[1]-1)
	if endPos == -1 {
		return nil
	}

	return &lang.Identifier{
		Name:      qualifiedName,
		Source:    strings.TrimSpace(body[loc[0] : endPos+1]),
		StartLine: textscan.LineAt(body, loc[0]),
		EndLine:   textscan.LineAt(body, endPos+1),
	}
}

// findMemberField locates a member field inside a container body. Line
// numbers are relative to the body text.
func findMemberField(body, member, qualifiedName string) *lang.Identifier {
	for _, seg := range fieldStatements(body) {
		name, declStart, ok := fieldInSegment(body, seg)
		if !ok || name != member {
			continue
		}
		id := fieldIdentifier(body, qualifiedName, declStart, seg.end)
		return &id
	}
	return nil
}

// segment is a ';'-terminated statement span within a container body.
type segment struct {
	start int
	end   int // one past the terminating ';'
}

// fieldStatements splits a container body into statement segments at
// top-level semicolons. Brace-delimited blocks (member function bodies,
// nested aggregates) are skipped wholesale, so their internal semicolons
// never produce segments. Declarations sharing a line ("int x;int y;")
// yield one segment each.
func fieldStatements(body string) []segment {
	var out []segment
	segStart := 0
	i := 0
	for i < len(body) {
		switch body[i] {
		case '{':
			end := textscan.FindMatchingBrace(body, i)
			if end == -1 {
				return out
			}
			i = end + 1
			segStart = i
		case ';':
			out = append(out, segment{segStart, i + 1})
			segStart = i + 1
			i++
		default:
			i++
		}
	}
	return out
}

// fieldInSegment matches a field declaration within one statement segment.
// It returns the field name and the offset of the declaration (past any
// leading whitespace or access-specifier lines) within body.
func fieldInSegment(body string, seg segment) (name string, declStart int, ok bool) {
	text := body[seg.start:seg.end]
	loc := memberFieldPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, false
	}
	nameIdx := memberFieldPattern.SubexpIndex("name")
	name = text[loc[2*nameIdx]:loc[2*nameIdx+1]]
	return name, seg.start + loc[2], true
}

func fieldIdentifier(body, qualifiedName string, declStart, end int) lang.Identifier {
	return lang.Identifier{
		Name:      qualifiedName,
		Source:    strings.TrimSpace(body[declStart:end]),
		StartLine: textscan.LineAt(body, declStart),
		EndLine:   textscan.LineAt(body, end),
	}
}
