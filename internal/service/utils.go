package service

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// so billing exports in legacy encodings still load into PostgreSQL
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// stripCodeFences unwraps a markdown code block, if the model added one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```sql", "```SQL", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
