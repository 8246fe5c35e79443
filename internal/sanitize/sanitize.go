// Package sanitize holds the two text-cleaning passes used by the pipeline:
// a conservative one that makes comment bodies safe for delimited storage,
// and an aggressive one that reduces text to a keyword-matching form.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	markdownLink = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	urlRun       = regexp.MustCompile(`(?:http|www)\S+`)
	nonWord      = regexp.MustCompile(`[^\w\s]`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// asciiFold decomposes accented characters and drops the combining marks, so
// "café" folds to "cafe" instead of losing the rune entirely.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var storageReplacer = strings.NewReplacer("\n", " ", "\r", " ", `"`, "'")

// ForStorage makes a comment body safe for a delimited row: newlines and
// carriage returns each become a space, double quotes become single quotes.
// Case, punctuation, and content are otherwise preserved.
func ForStorage(s string) string {
	if s == "" {
		return ""
	}
	return storageReplacer.Replace(s)
}

// ForTriage reduces text to a lowercase, ASCII-only, punctuation-free form
// suitable for keyword matching. Markdown links are removed before bare URL
// runs so that the link label does not survive as stray text. The result is
// never a substitute for the stored body.
func ForTriage(s string) string {
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = markdownLink.ReplaceAllString(s, "")
	s = urlRun.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, "")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
