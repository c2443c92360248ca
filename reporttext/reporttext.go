// Package reporttext turns pasted or uploaded radiology report text into
// clean, NFC-normalized plain text before analysis.
package reporttext

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	markupPattern = regexp.MustCompile(`(?i)<(html|body|p|br|div|span|table|tr|td|li|ul|ol|b|i|em|strong|pre|h[1-6])\b[^>]*>`)
	spaceRun      = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLines    = regexp.MustCompile(`\n{3,}`)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ")
)

const blockSelector = "p, div, li, tr, pre, table, ul, ol, h1, h2, h3, h4, h5, h6"

// Normalize returns the report as plain text in Unicode NFC with LF line endings.
// Reports copied out of an HTML viewer are reduced to their visible text.
func Normalize(s string) string {
	s = lineEndings.Replace(s)
	if LooksLikeHTML(s) {
		if text, ok := htmlText(s); ok {
			s = text
		}
	}
	return strings.TrimSpace(norm.NFC.String(s))
}

// LooksLikeHTML reports whether s contains common block or inline markup
func LooksLikeHTML(s string) bool {
	return markupPattern.MatchString(s)
}

func htmlText(s string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", false
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).AppendHtml("\n")
	doc.Find("td, th").AppendHtml(" ")

	lines := strings.Split(doc.Find("body").Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}

	text := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), true
}

// Decode converts uploaded bytes to a string. Input that is not valid UTF-8
// is read as Windows-1252, the usual encoding of exported reports.
func Decode(b []byte) (string, error) {
	b = trimBOM(b)
	if utf8.Valid(b) {
		return string(b), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
