package announce

import (
	"html"
	"strings"

	"git.home.luguber.info/inful/releasebot/internal/chat"
)

// markdownV2Reserved lists every character Telegram's MarkdownV2 dialect
// requires to be backslash-escaped in plain text.
const markdownV2Reserved = "\\_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes s for use as plain text in a MarkdownV2 message.
// Each reserved character gets exactly one backslash; the input is treated
// as raw text, so escaping an already escaped string escapes its backslashes.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeMarkdownV2URL escapes the target of an inline link, where only ')'
// and '\' are special.
func escapeMarkdownV2URL(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for _, r := range s {
		if r == ')' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Escape escapes plain text for the given parse mode.
func Escape(mode chat.ParseMode, s string) string {
	if mode == chat.ParseModeHTML {
		return html.EscapeString(s)
	}
	return EscapeMarkdownV2(s)
}
