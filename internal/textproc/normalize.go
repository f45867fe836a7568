// Package textproc canonicalizes raw extracted text before chunking.
package textproc

import (
	"regexp"
	"strings"
)

var (
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
	spaceRunRe  = regexp.MustCompile(` +`)
)

// Normalize collapses runs of whitespace-only lines into a single blank line,
// collapses runs of spaces into one space, and trims the ends of the
// document. PDF layout reconstruction tends to produce both kinds of noise.
func Normalize(text string) string {
	text = blankLineRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
