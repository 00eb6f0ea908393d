// Package util collects the small string and byte helpers shared by the
// flow and script packages: tokenizing colon-separated specs,
// hex-encoding addresses for flow keys, and trimming comment/whitespace
// noise out of script lines.
package util

import (
	"encoding/hex"
	"strings"
)

// Tokenize splits s on every occurrence of delim, the way
// std::getline(stream, token, delim) does in a loop: consecutive
// delimiters produce empty tokens.
func Tokenize(s string, delim byte) []string {
	return strings.Split(s, string(delim))
}

// BytesToHexString renders data as lowercase hex, used to build the
// address portion of a FlowKey.
func BytesToHexString(data []byte) string {
	return hex.EncodeToString(data)
}

// Trim removes leading and trailing whitespace, mirroring trimLeft/trimRight.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// IsComment reports whether line's first non-whitespace rune is '#'.
func IsComment(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' || line[i] == '\t' || line[i] == '\r' || line[i] == '\n' {
			continue
		}
		return line[i] == '#'
	}
	return false
}

// Token splits s at the first occurrence of delim, returning the text
// before it and the remainder starting at (and including) the delimiter
// itself rather than past it, so that a caller can tell a "found but
// empty" split from "not found".
func Token(s string, delim byte) (before, rest string, found bool) {
	idx := strings.IndexByte(s, delim)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx:], true
}
