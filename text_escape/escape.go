package text_escape

import (
	"html"
	"strings"
	"unicode"
)

// Escaper neutralizes generated text for a particular display surface.
type Escaper interface {
	Escape(text string) string
}

type EscaperFunc func(text string) string

func (f EscaperFunc) Escape(text string) string {
	return f(text)
}

// HTML escapes & < > " and ' so the text is never interpreted as markup.
var HTML Escaper = EscaperFunc(html.EscapeString)

var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"@", "@\u200b",
)

// Markdown escapes Discord markdown, mentions and masked links.
var Markdown Escaper = EscaperFunc(markdownReplacer.Replace)

// Terminal drops control characters so generated text cannot move the cursor
// or recolor the terminal. Newlines and tabs are kept.
var Terminal Escaper = EscaperFunc(func(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}

		if unicode.IsControl(r) {
			return -1
		}

		return r
	}, text)
})
