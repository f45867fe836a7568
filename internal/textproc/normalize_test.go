package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"already clean", "one two three", "one two three"},
		{"space runs", "one   two    three", "one two three"},
		{"blank line run", "The quick brown fox. \n\n\n The lazy dog.", "The quick brown fox. \n\n The lazy dog."},
		{"blank lines with spaces", "a\n \n\t\nb", "a\n\nb"},
		{"trim ends", "  \n hello \n  ", "hello"},
		{"only whitespace", " \n\n \t ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "a  b\n\n\nc   d\n\n\n\ne"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}
