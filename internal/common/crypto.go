package common

import (
	"strconv"
	"unicode/utf8"
)

const maskVisibleChars = 4

// MaskSecret keeps the first few characters of a secret for diagnostics,
// e.g. "$2b$...(29 chars)".
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	n := utf8.RuneCountInString(secret)
	if n <= maskVisibleChars*2 {
		return "***(" + strconv.Itoa(n) + " chars)"
	}
	visible := []rune(secret)[:maskVisibleChars]
	return string(visible) + "...(" + strconv.Itoa(n) + " chars)"
}
