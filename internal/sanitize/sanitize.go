// Package sanitize strips markdown decoration from generated answers so the
// plain-text presentation layer can render them directly.
package sanitize

import (
	"regexp"
	"strings"
)

// Rule order matters: fenced blocks before inline code, bold before italic,
// headings and bullets after the inline markers, newline collapsing last.
var (
	fencedCode   = regexp.MustCompile("(?s)```(?:\\w+\n)?(.+?)```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	boldStars    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnders   = regexp.MustCompile(`__(.*?)__`)
	italicStars  = regexp.MustCompile(`\*(.*?)\*`)
	italicUnders = regexp.MustCompile(`_(.*?)_`)
	links        = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	headings     = regexp.MustCompile(`(?m)^#+\s`)
	bullets      = regexp.MustCompile(`(?m)^\s*[\*\-\+]\s`)
	blankRuns    = regexp.MustCompile(`\n{2,}`)
)

// Answer is a pure, total transform: any input produces an output, no step
// can fail. Applying it twice gives the same result as applying it once.
func Answer(s string) string {
	s = fencedCode.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = boldStars.ReplaceAllString(s, "$1")
	s = boldUnders.ReplaceAllString(s, "$1")
	s = italicStars.ReplaceAllString(s, "$1")
	s = italicUnders.ReplaceAllString(s, "$1")
	s = links.ReplaceAllString(s, "$1")
	s = headings.ReplaceAllString(s, "")
	s = bullets.ReplaceAllString(s, "• ")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
