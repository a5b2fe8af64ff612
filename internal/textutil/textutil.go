// Package textutil holds the pure text helpers the codec relies on:
// username cleaning, emoji modifier stripping and UTF-8 validation.
package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// emojiModifiers are stripped from the end of an emoji: variation selectors
// and the five skin tone modifiers.
var emojiModifiers = []string{
	"\uFE0E",
	"\uFE0F",
	"\U0001F3FB",
	"\U0001F3FC",
	"\U0001F3FD",
	"\U0001F3FE",
	"\U0001F3FF",
}

// IsValidUTF8 reports whether s is valid UTF-8.
func IsValidUTF8(s string) bool { return utf8.ValidString(s) }

// CleanUsername normalises a short name for lookups: dots are dropped and the
// rest is case folded. Invalid UTF-8 yields an empty result.
func CleanUsername(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	return lower.String(strings.ReplaceAll(s, ".", ""))
}

// RemoveEmojiModifiers strips trailing variation selectors and skin tones.
func RemoveEmojiModifiers(emoji string) string {
	for {
		trimmed := false
		for _, m := range emojiModifiers {
			if strings.HasSuffix(emoji, m) {
				emoji = emoji[:len(emoji)-len(m)]
				trimmed = true
			}
		}
		if !trimmed {
			return emoji
		}
	}
}
