// Package encoding provides shared text escaping for document parts.
package encoding

import (
	"strings"
)

// EscapeXMLText escapes only the basic XML entities for text content.
// Quotes are left alone since they are legal in character data.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// StripInvalidXMLChars removes runes that XML 1.0 does not allow in
// character data, such as NUL or vertical tab.
func StripInvalidXMLChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
