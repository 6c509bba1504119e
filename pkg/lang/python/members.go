package python

import (
	"strings"

	"github.com/odvcencio/aiguard/pkg/lang"
)

// extractMember resolves a Class.member qualified name. Only one nesting
// level is supported; methods of nested classes are not addressable.
func (x *Extractor) extractMember(source, qualifiedName string) *lang.Identifier {
	parts := strings.SplitN(qualifiedName, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	for _, m := range x.ListMembers(source, parts[0]) {
		if m.Name == qualifiedName {
			out := m
			return &out
		}
	}
	return nil
}

// ListMembers returns every method and class-level assignment of the named
// class, in source order, with names qualified as Class.member. Line
// numbers are absolute file lines.
func (x *Extractor) ListMembers(source, container string) []lang.Identifier {
	lines := strings.Split(source, "\n")
	logical := logicalLines(lines)

	header, bodyEnd := x.findClass(lines, logical, container)
	if header == -1 {
		return nil
	}

	var out []lang.Identifier
	seen := make(map[string]bool)

	bodyIndent := -1
	decoStart := -1
	i := stmtEnd(lines, logical, header)
	for i < bodyEnd {
		stripped := strings.TrimSpace(lines[i])
		if !logical[i] || stripped == "" {
			i++
			continue
		}
		indent := indentOf(lines[i])
		if bodyIndent == -1 {
			bodyIndent = indent
		}
		if indent != bodyIndent || strings.HasPrefix(stripped, "#") {
			i++
			continue
		}
		if strings.HasPrefix(stripped, "@") {
			if decoStart == -1 {
				decoStart = i
			}
			i = stmtEnd(lines, logical, i)
			continue
		}

		m := defPattern.FindStringSubmatch(stripped)
		if m == nil {
			m = classPattern.FindStringSubmatch(stripped)
		}
		if m != nil {
			start := i
			if decoStart != -1 {
				start = decoStart
			}
			end := blockEnd(lines, logical, i, bodyIndent)
			if end > bodyEnd {
				end = bodyEnd
			}
			qualified := container + "." + m[1]
			if !seen[m[1]] {
				out = append(out, spanIdentifier(lines, qualified, start, end))
				seen[m[1]] = true
			}
			decoStart = -1
			i = end
			continue
		}
		if m := assignPattern.FindStringSubmatch(stripped); m != nil {
			end := stmtEnd(lines, logical, i)
			if end > bodyEnd {
				end = bodyEnd
			}
			qualified := container + "." + m[1]
			if !seen[m[1]] {
				out = append(out, spanIdentifier(lines, qualified, i, end))
				seen[m[1]] = true
			}
			decoStart = -1
			i = end
			continue
		}
		decoStart = -1
		i++
	}
	return out
}

// findClass locates a module-level class by name and returns its header
// line index and exclusive block end, or (-1, 0) when not found.
func (x *Extractor) findClass(lines []string, logical []bool, name string) (header, end int) {
	for i, line := range lines {
		if !logical[i] || indentOf(line) > 0 {
			continue
		}
		m := classPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil && m[1] == name {
			return i, blockEnd(lines, logical, i, 0)
		}
	}
	return -1, 0
}
