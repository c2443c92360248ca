// Package diseaseparser turns the free-form text a language model returns for
// an extraction prompt into an ordered list of disease names.
//
// Models answer the same prompt in many shapes: a JSON array, a Python-style
// list with single quotes, a comma separated sentence, a code fence around any
// of those. Parse tries the strict shapes first and degrades to a plain split,
// so the caller always gets a list back.
package diseaseparser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// elementCutset is trimmed from both ends of every extracted name
const elementCutset = "\"' \t\r\n"

var (
	openFence   = regexp.MustCompile("^```[a-zA-Z0-9_+-]*")
	closeFence  = regexp.MustCompile("```$")
	fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\s*\\n(.*?)```")

	languageTags = []string{"python", "json", "text", "py"}
)

// Parse returns the disease names found in raw, in order. It never returns nil.
func Parse(raw string) []string {
	cleaned := clean(raw)

	if names, ok := parseJSONList(cleaned); ok {
		return names
	}

	if names, ok := parseLiteralList(cleaned); ok {
		return names
	}

	if names := splitCommas(cleaned); len(names) > 0 {
		return names
	}

	if single := strings.TrimSpace(strings.Trim(cleaned, "[]")); single != "" {
		return []string{single}
	}

	return []string{}
}

// clean strips code fences, surrounding quotes and a leading language tag
func clean(raw string) string {
	s := strings.TrimSpace(raw)

	// A fenced block preceded by chatter ("Here is the list: ```...```")
	if !strings.HasPrefix(s, "```") {
		if m := fencedBlock.FindStringSubmatch(s); m != nil {
			s = strings.TrimSpace(m[1])
		}
	}

	s = openFence.ReplaceAllString(s, "")
	s = closeFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'\n ")

	return strings.TrimSpace(stripLanguageTag(s))
}

// stripLanguageTag drops a leading "python", "json"... left behind by a fence
// that lost its backticks. Only "python" may be followed by a space; the
// shorter tags must sit on their own line or touch the list, so a leading
// word such as "Text" in a sentence is kept.
func stripLanguageTag(s string) string {
	for _, tag := range languageTags {
		if len(s) <= len(tag) || !strings.EqualFold(s[:len(tag)], tag) {
			continue
		}
		switch next := s[len(tag)]; {
		case next == '[' || next == '\n' || next == '\r':
			return s[len(tag):]
		case tag == "python" && unicode.IsSpace(rune(next)):
			return s[len(tag):]
		}
	}
	return s
}

// parseJSONList accepts a JSON array. Strings are used as is, other scalars
// by their JSON text, nulls are skipped.
func parseJSONList(s string) ([]string, bool) {
	var items []json.RawMessage
	// A bare null decodes into a nil slice without error; it is not a list
	if err := json.Unmarshal([]byte(s), &items); err != nil || items == nil {
		return nil, false
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(string(item))
		if text == "null" {
			continue
		}

		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			text = str
		}

		if name := strings.Trim(text, elementCutset); name != "" {
			names = append(names, name)
		}
	}

	return names, true
}

// parseLiteralList accepts a bracketed list of single or double quoted
// strings and bare numbers, the way a Python list literal is printed
func parseLiteralList(s string) ([]string, bool) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	body := s[1 : len(s)-1]

	names := []string{}
	expectItem := true
	for i := 0; ; {
		for i < len(body) && unicode.IsSpace(rune(body[i])) {
			i++
		}
		if i >= len(body) {
			break
		}

		if !expectItem {
			if body[i] != ',' {
				return nil, false
			}
			i++
			expectItem = true
			continue
		}

		var (
			value string
			n     int
			ok    bool
		)
		switch c := body[i]; {
		case c == '\'' || c == '"':
			value, n, ok = scanQuoted(body[i:])
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			value, n, ok = scanNumber(body[i:])
		}
		if !ok {
			return nil, false
		}

		if name := strings.Trim(value, elementCutset); name != "" {
			names = append(names, name)
		}
		i += n
		expectItem = false
	}

	return names, true
}

// scanQuoted reads a quoted literal at the start of s and returns its value
// and the number of bytes consumed
func scanQuoted(s string) (string, int, bool) {
	quote := s[0]
	var b strings.Builder

	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == quote:
			return b.String(), i + 1, true
		case c == '\n':
			return "", 0, false
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}

	return "", 0, false
}

func scanNumber(s string) (string, int, bool) {
	n := 0
	for n < len(s) && strings.IndexByte("+-.0123456789eE_", s[n]) >= 0 {
		n++
	}
	text := s[:n]
	if _, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err != nil {
		return "", 0, false
	}
	return text, n, true
}

// splitCommas is the last structured attempt: drop brackets, split on commas
func splitCommas(s string) []string {
	s = strings.Trim(s, "[]")

	names := []string{}
	for _, piece := range strings.Split(s, ",") {
		if name := strings.Trim(piece, elementCutset); name != "" {
			names = append(names, name)
		}
	}
	return names
}
