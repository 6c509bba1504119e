// Package python extracts identifiers from Python source with an
// indentation-aware line scanner. Logical-line tracking (brackets, triple
// quotes, backslash continuations) keeps multi-line statements intact;
// blocks end where the indentation returns to the defining level.
package python

import (
	"regexp"
	"strings"

	"github.com/odvcencio/aiguard/pkg/lang"
)

// Extensions are the file extensions this extractor registers for.
var Extensions = []string{".py", ".pyw"}

var (
	defPattern    = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)`)
	classPattern  = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`)
	assignPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::[^=]+)?=(?:[^=]|$)`)
)

// Extractor implements lang.Family for Python source.
type Extractor struct{}

// New returns the Python extractor.
func New() *Extractor { return &Extractor{} }

// Separator returns the attribute-access separator used in qualified
// member names (Class.method).
func (x *Extractor) Separator() string { return "." }

// ExtractIdentifier extracts a module-level def, class or assignment by
// name, or a Class.member qualified construct.
func (x *Extractor) ExtractIdentifier(source, name string) *lang.Identifier {
	if strings.Contains(name, ".") {
		return x.extractMember(source, name)
	}
	for _, id := range x.ListIdentifiers(source) {
		if id.Name == name {
			out := id
			return &out
		}
	}
	return nil
}

// ListIdentifiers returns every module-level def, async def, class and
// simple assignment, in source order. Reassignments of the same name are
// reported once, at the first occurrence.
func (x *Extractor) ListIdentifiers(source string) []lang.Identifier {
	lines := strings.Split(source, "\n")
	logical := logicalLines(lines)

	var out []lang.Identifier
	seen := make(map[string]bool)

	decoStart := -1
	i := 0
	for i < len(lines) {
		stripped := strings.TrimSpace(lines[i])
		switch {
		case !logical[i] || stripped == "" || indentOf(lines[i]) > 0:
			i++
		case strings.HasPrefix(stripped, "#"):
			// Comments between decorators and the decorated statement are
			// legal; keep the pending decorator run.
			i++
		case strings.HasPrefix(stripped, "@"):
			if decoStart == -1 {
				decoStart = i
			}
			i = stmtEnd(lines, logical, i)
		case defPattern.MatchString(stripped) || classPattern.MatchString(stripped):
			m := defPattern.FindStringSubmatch(stripped)
			if m == nil {
				m = classPattern.FindStringSubmatch(stripped)
			}
			start := i
			if decoStart != -1 {
				start = decoStart
			}
			end := blockEnd(lines, logical, i, 0)
			if !seen[m[1]] {
				out = append(out, spanIdentifier(lines, m[1], start, end))
				seen[m[1]] = true
			}
			decoStart = -1
			i = end
		default:
			if m := assignPattern.FindStringSubmatch(stripped); m != nil {
				end := stmtEnd(lines, logical, i)
				if !seen[m[1]] {
					out = append(out, spanIdentifier(lines, m[1], i, end))
					seen[m[1]] = true
				}
				decoStart = -1
				i = end
				continue
			}
			decoStart = -1
			i++
		}
	}
	return out
}

// ExpandPattern resolves wildcard and Class.member patterns.
func (x *Extractor) ExpandPattern(source, pattern string) []lang.Identifier {
	return lang.Expand(x, source, pattern)
}

// spanIdentifier builds an identifier from a half-open 0-based line range.
// Trailing newlines and carriage returns are stripped from the span so the
// fingerprint is stable across trailing-blank-line edits.
func spanIdentifier(lines []string, name string, start, end int) lang.Identifier {
	return lang.Identifier{
		Name:      name,
		Source:    strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n\r"),
		StartLine: start + 1,
		EndLine:   end,
	}
}

// indentOf counts leading whitespace characters, the way Python compares
// indentation within a consistently formatted file.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// stmtEnd returns the exclusive end of the logical statement starting at
// line i: its physical line plus any bracket, string or backslash
// continuation lines.
func stmtEnd(lines []string, logical []bool, i int) int {
	j := i + 1
	for j < len(lines) && !logical[j] {
		j++
	}
	return j
}

// blockEnd returns the exclusive end of the indented block whose header is
// at line i with the given indent. The block runs until the next logical,
// non-blank line at or below the header indent, with trailing blank lines
// trimmed off.
func blockEnd(lines []string, logical []bool, i, headerIndent int) int {
	end := stmtEnd(lines, logical, i)
	for end < len(lines) {
		stripped := strings.TrimSpace(lines[end])
		if logical[end] && stripped != "" && indentOf(lines[end]) <= headerIndent {
			break
		}
		end++
	}
	for end > i+1 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return end
}

// logicalLines reports, per physical line, whether it starts a new logical
// line: false inside bracketed expressions, triple-quoted strings and
// after a backslash continuation.
func logicalLines(lines []string) []bool {
	flags := make([]bool, len(lines))
	depth := 0
	triple := "" // closing delimiter while inside a triple-quoted string
	backslash := false

	for i, line := range lines {
		flags[i] = depth == 0 && triple == "" && !backslash
		backslash = false

		j := 0
		for j < len(line) {
			if triple != "" {
				switch {
				case strings.HasPrefix(line[j:], triple):
					triple = ""
					j += 3
				case line[j] == '\\':
					j += 2
				default:
					j++
				}
				continue
			}
			switch c := line[j]; c {
			case '#':
				j = len(line)
			case '(', '[', '{':
				depth++
				j++
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
				j++
			case '\'', '"':
				q := strings.Repeat(string(c), 3)
				if strings.HasPrefix(line[j:], q) {
					triple = q
					j += 3
					continue
				}
				j++
				for j < len(line) {
					if line[j] == '\\' {
						j += 2
						continue
					}
					if line[j] == c {
						j++
						break
					}
					j++
				}
			case '\\':
				if j == len(line)-1 {
					backslash = true
				}
				j++
			default:
				j++
			}
		}
	}
	return flags
}

var _ lang.Family = (*Extractor)(nil)
