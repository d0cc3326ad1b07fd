package completion

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matches reports whether name is a candidate for prefix. An empty prefix
// matches every name. Otherwise name must start with prefix, either
// exactly or ignoring case, or, for a camel-case prefix, match it hump by
// hump: "aBC" matches "aBigCat".
func Matches(prefix, name string) bool {
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return true
	}
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return true
	}
	return IsCamelPrefix(prefix) && camelMatch(prefix, name)
}

// IsCamelPrefix reports whether prefix has an uppercase letter after its
// first character.
func IsCamelPrefix(prefix string) bool {
	_, size := utf8.DecodeRuneInString(prefix)
	for _, r := range prefix[size:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func camelMatch(prefix, name string) bool {
	want, have := humps(prefix), humps(name)
	if len(want) > len(have) {
		return false
	}
	for i, h := range want {
		if !strings.HasPrefix(have[i], h) {
			return false
		}
	}
	return true
}

// humps splits s before every uppercase letter.
func humps(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if i > start && unicode.IsUpper(r) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return append(out, s[start:])
}
