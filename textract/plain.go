package textract

import (
	"strings"
	"unicode/utf8"
)

// PlainText decodes UTF-8, falling back to Latin-1 for anything else.
func PlainText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
