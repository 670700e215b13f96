// Package preview converts raw Markdown note content into short, plain-text
// snippets suitable for card display. Sanitization is best-effort: malformed
// Markdown degrades to stripped text and never produces an error.
package preview

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/davidvkimball/cardbase/internal/parser"
)

// MaxLength is the visible-character budget of a preview snippet. Output is
// at most MaxLength runes plus one ellipsis marker.
const MaxLength = 500

const (
	ellipsis     = "…"
	oneDotLeader = "․"
)

// Options controls per-note sanitization behaviour.
type Options struct {
	// OmitFirstLine drops the first line of the result unconditionally.
	OmitFirstLine bool
	// Title, when it exactly matches the first line, suppresses that line
	// (duplicate-title suppression on cards that already render the title).
	Title string
	// Filename behaves like Title for notes whose first line repeats the
	// file name.
	Filename string
}

var (
	calloutLineRe   = regexp.MustCompile(`(?m)^\s*>\s*\[![^\]]*\].*$`)
	blockquoteRe    = regexp.MustCompile(`(?m)^(?:\s*>)+\s?`)
	inlineCodeRe    = regexp.MustCompile("`([^`\n]*)`")
	boldItalicRe    = regexp.MustCompile(`\*\*\*([^*]+)\*\*\*`)
	boldRe          = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe        = regexp.MustCompile(`\*([^*\n]+)\*`)
	uBoldItalicRe   = regexp.MustCompile(`___([^_]+)___`)
	uBoldRe         = regexp.MustCompile(`__([^_]+)__`)
	uItalicRe       = regexp.MustCompile(`_([^_\n]+)_`)
	strikeRe        = regexp.MustCompile(`~~([^~]+)~~`)
	highlightRe     = regexp.MustCompile(`==([^=]+)==`)
	imageEmbedRe    = regexp.MustCompile(`!\[\[[^\[\]]*\]\]`)
	imageMDRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe          = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	wikiAliasRe     = regexp.MustCompile(`\[\[[^\[\]|]*\|([^\[\]]*)\]\]`)
	wikiRe          = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)
	hashtagRe       = regexp.MustCompile(`(^|\s)#[A-Za-z][A-Za-z0-9_/-]*`)
	checkboxRe      = regexp.MustCompile(`(?m)^\s*[-*+]\s+\[[ xX]\]\s+`)
	bulletRe        = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	orderedRe       = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	headingLineRe   = regexp.MustCompile(`(?m)^#{1,6}\s.*$`)
	horizontalRe    = regexp.MustCompile(`(?m)^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	tableLineRe     = regexp.MustCompile(`(?m)^\s*\|.*$`)
	footnoteDefRe   = regexp.MustCompile(`(?m)^\[\^[^\]]+\]:.*$`)
	footnoteRefRe   = regexp.MustCompile(`\[\^[^\]]+\]`)
	caretMarkerRe   = regexp.MustCompile(`\^[A-Za-z0-9-]+`)
	bareHTMLTagRe   = regexp.MustCompile(`</?[A-Za-z!][^<>]*>`)
	openHTMLTagRe   = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9-]*)(?:\s[^<>]*)?>`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
	periodRunRe     = regexp.MustCompile(`\.{2,}`)
)

// Sanitize strips Markdown syntax from raw note content and returns a
// bounded-length plain-text snippet. It never fails: unparseable input
// degrades to best-effort stripped text.
func Sanitize(raw string, opts Options) string {
	// 1. Drop a leading YAML frontmatter block if present.
	_, text, _ := parser.SplitFrontmatter([]byte(raw))

	// 2. Callout headers go entirely; remaining quote markers are unwrapped.
	text = calloutLineRe.ReplaceAllString(text, "")
	text = blockquoteRe.ReplaceAllString(text, "")

	// 3. Protect backslash-escaped characters so escaped syntax is not
	// mistaken for live syntax.
	text, escapes := protectEscapes(text)

	// 4. Fenced code blocks.
	text = stripFences(text)

	// 5. Ordered substitution chain. Triple markers before double before
	// single, embeds before the link forms they contain.
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = boldItalicRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = uBoldItalicRe.ReplaceAllString(text, "$1")
	text = uBoldRe.ReplaceAllString(text, "$1")
	text = uItalicRe.ReplaceAllString(text, "$1")
	text = strikeRe.ReplaceAllString(text, "$1")
	text = highlightRe.ReplaceAllString(text, "$1")
	text = imageEmbedRe.ReplaceAllString(text, "")
	text = imageMDRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = wikiAliasRe.ReplaceAllString(text, "$1")
	text = wikiRe.ReplaceAllString(text, "$1")
	text = hashtagRe.ReplaceAllString(text, "$1")
	text = checkboxRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = orderedRe.ReplaceAllString(text, "")
	text = headingLineRe.ReplaceAllString(text, "")
	text = horizontalRe.ReplaceAllString(text, "")
	text = tableLineRe.ReplaceAllString(text, "")
	text = footnoteDefRe.ReplaceAllString(text, "")
	text = footnoteRefRe.ReplaceAllString(text, "")
	text = stripHTML(text)

	// 6. Restore protected characters.
	text = restoreEscapes(text, escapes)

	// 7. First-line suppression.
	text = dropFirstLine(text, opts)

	// 8. Caret footnote markers, then whitespace normalisation.
	text = caretMarkerRe.ReplaceAllString(text, "")
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	// 9. Period runs become one-dot-leader characters so they cannot be
	// read as a truncation marker.
	text = periodRunRe.ReplaceAllStringFunc(text, func(run string) string {
		return strings.Repeat(oneDotLeader, len(run))
	})

	// 10. Truncate.
	runes := []rune(text)
	if len(runes) > MaxLength {
		text = string(runes[:MaxLength]) + ellipsis
	}
	return text
}

// protectEscapes substitutes every backslash-escaped character with a unique
// placeholder token and returns the token→character mapping.
func protectEscapes(s string) (string, map[string]string) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	escapes := make(map[string]string)
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			token := fmt.Sprintf("\x00E%d\x00", len(escapes))
			escapes[token] = string(runes[i+1])
			b.WriteString(token)
			i++
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String(), escapes
}

// restoreEscapes replaces placeholder tokens with their literal characters.
func restoreEscapes(s string, escapes map[string]string) string {
	for token, ch := range escapes {
		s = strings.ReplaceAll(s, token, ch)
	}
	return s
}

// stripFences removes fenced code blocks. A fence opener is a line whose
// content starts with 3+ identical fence characters (backtick or tilde); the
// closer is a later line consisting solely of the same character, at least as
// long as the opener. An opener without a closer loses only its own line.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		ch, n := fenceOpener(lines[i])
		if n == 0 {
			out = append(out, lines[i])
			continue
		}
		closed := false
		for j := i + 1; j < len(lines); j++ {
			if isFenceCloser(lines[j], ch, n) {
				i = j
				closed = true
				break
			}
		}
		if !closed {
			// Malformed fence: drop the opener line only.
			continue
		}
	}
	return strings.Join(out, "\n")
}

// fenceOpener reports the fence character and its run length when line opens
// a fenced block, or (0, 0) otherwise.
func fenceOpener(line string) (byte, int) {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return 0, 0
	}
	ch := t[0]
	if ch != '`' && ch != '~' {
		return 0, 0
	}
	n := 0
	for n < len(t) && t[n] == ch {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	return ch, n
}

// isFenceCloser reports whether line closes a fence of the given character
// and minimum length.
func isFenceCloser(line string, ch byte, minLen int) bool {
	t := strings.TrimSpace(line)
	if len(t) < minLen {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != ch {
			return false
		}
	}
	return true
}

// stripHTML removes inline HTML. Container tags keep their inner text; bare
// tags are dropped.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	// Unwrap container tags first: find an opening tag, then its matching
	// close tag, and drop both while keeping the inner text.
	for {
		loc := openHTMLTagRe.FindStringSubmatchIndex(s)
		if loc == nil {
			break
		}
		name := s[loc[2]:loc[3]]
		closeTag := "</" + name + ">"
		rest := s[loc[1]:]
		closeIdx := strings.Index(strings.ToLower(rest), strings.ToLower(closeTag))
		if closeIdx < 0 {
			// Bare or unclosed tag: drop the tag itself.
			s = s[:loc[0]] + s[loc[1]:]
			continue
		}
		inner := rest[:closeIdx]
		s = s[:loc[0]] + inner + rest[closeIdx+len(closeTag):]
	}
	// Anything left (closing tags without openers, comments, void tags).
	return bareHTMLTagRe.ReplaceAllString(s, "")
}

// dropFirstLine removes the first line when requested or when it duplicates
// the note's title or file name.
func dropFirstLine(s string, opts Options) string {
	trimmed := strings.TrimLeft(s, "\n\r \t")
	first := trimmed
	rest := ""
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		first = trimmed[:i]
		rest = trimmed[i+1:]
	}
	firstTrim := strings.TrimSpace(first)

	drop := opts.OmitFirstLine
	if !drop && firstTrim != "" {
		if (opts.Title != "" && firstTrim == opts.Title) ||
			(opts.Filename != "" && firstTrim == opts.Filename) {
			drop = true
		}
	}
	if !drop {
		return s
	}
	return rest
}
