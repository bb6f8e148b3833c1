package format

import (
	"html"
	"strings"
)

// EscapeHTML escapes user-supplied text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// Bold wraps escaped text in <b> tags.
func Bold(text string) string {
	return "<b>" + EscapeHTML(text) + "</b>"
}

// Italic wraps escaped text in <i> tags.
func Italic(text string) string {
	return "<i>" + EscapeHTML(text) + "</i>"
}

// Code wraps escaped text in <code> tags.
func Code(text string) string {
	return "<code>" + EscapeHTML(text) + "</code>"
}

// Lines joins non-empty parts with newlines, skipping blanks so optional
// envelope rows collapse cleanly.
func Lines(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "\n")
}
