// Package textscan provides lexical-level scanning helpers for C-family
// source text. It is deliberately not a tokenizer: it tracks just enough
// state (strings, character literals, comments) to pair braces correctly
// in readably-formatted source.
package textscan

// FindMatchingBrace returns the offset of the closing brace that matches
// the opening brace at open. Braces inside double-quoted strings, character
// literals, line comments and block comments do not affect nesting depth.
// Returns -1 if open does not point at '{' or the brace is never closed.
func FindMatchingBrace(src string, open int) int {
	if open < 0 || open >= len(src) || src[open] != '{' {
		return -1
	}

	depth := 1
	pos := open + 1
	inString := false
	inChar := false
	inLineComment := false
	inBlockComment := false

	for pos < len(src) && depth > 0 {
		c := src[pos]
		var prev byte
		if pos > 0 {
			prev = src[pos-1]
		}
		var next byte
		if pos+1 < len(src) {
			next = src[pos+1]
		}

		if inLineComment {
			if c == '\n' {
				inLineComment = false
			}
			pos++
			continue
		}

		if inBlockComment {
			if c == '/' && prev == '*' {
				inBlockComment = false
			}
			pos++
			continue
		}

		if !inString && !inChar {
			if c == '/' && next == '/' {
				inLineComment = true
				pos += 2
				continue
			}
			if c == '/' && next == '*' {
				inBlockComment = true
				pos += 2
				continue
			}
		}

		if c == '"' && prev != '\\' && !inChar {
			inString = !inString
			pos++
			continue
		}

		if c == '\'' && prev != '\\' && !inString {
			inChar = !inChar
			pos++
			continue
		}

		if !inString && !inChar {
			switch c {
			case '{':
				depth++
			case '}':
				depth--
			}
		}

		pos++
	}

	if depth != 0 {
		return -1
	}
	return pos - 1
}

// LineAt returns the 1-based line number containing byte offset pos.
func LineAt(src string, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	line := 1
	for i := 0; i < pos; i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return line
}
