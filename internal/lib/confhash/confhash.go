// Package confhash parses DokuWiki-style `key value` configuration
// text as used by info.txt files and the credential file.
package confhash

import (
	"regexp"
	"strings"
)

var bom = "\xef\xbb\xbf"

var whitespace = regexp.MustCompile(`\s+`)

// Parse builds a map from `key value` lines.
//
// Comments start at a `#` that is not escaped with `\` (or part of an
// entity, i.e. preceded by `&`) and run to the end of the line. Empty
// lines produce no entry, a key without a value maps to the empty
// string, and later duplicate keys overwrite earlier ones. Parse never
// fails; malformed input degrades to skipped lines.
func Parse(lines []string, lower bool) map[string]string {
	conf := make(map[string]string, len(lines))

	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, bom)
		}

		line = stripComment(line)
		line = strings.ReplaceAll(line, `\#`, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := whitespace.Split(line, 2)
		key := parts[0]
		value := ""
		if len(parts) == 2 {
			value = parts[1]
		}

		if lower {
			key = strings.ToLower(key)
		}
		conf[key] = value
	}

	return conf
}

// ParseString splits content on newlines and parses it with Parse.
func ParseString(content string, lower bool) map[string]string {
	return Parse(strings.Split(content, "\n"), lower)
}

// stripComment removes everything from the first `#` that is not
// preceded by `&` or `\`.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i > 0 && (line[i-1] == '&' || line[i-1] == '\\') {
			continue
		}
		return line[:i]
	}
	return line
}
