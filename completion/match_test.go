package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		prefix, name string
		want         bool
	}{
		{"", "anything", true},
		{"pr", "println", true},
		{"PR", "println", true},
		{"str", "StringBuilder", true},
		{"aBC", "aBigCat", true},
		{"SB", "StringBuilder", true},
		{"SBx", "StringBuilder", false},
		{"aBC", "another", false},
		{"wr", "println", false},
		{"printlnx", "println", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Matches(tc.prefix, tc.name), "Matches(%q, %q)", tc.prefix, tc.name)
	}
}

func TestIsCamelPrefix(t *testing.T) {
	assert.True(t, IsCamelPrefix("aBC"))
	assert.True(t, IsCamelPrefix("SB"))
	assert.False(t, IsCamelPrefix("Str"))
	assert.False(t, IsCamelPrefix("abc"))
	assert.False(t, IsCamelPrefix(""))
}
