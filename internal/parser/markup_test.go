package parser

import "testing"

func TestNormalizeMarkup(t *testing.T) {
	cases := map[string]string{
		"plain text":                     "plain text",
		"AT&amp;T  deal":                 "AT&T deal",
		"<p>Hello <a href='#'>world</a>": "Hello world",
		"  spaced  ":                     "  spaced  ",
	}
	for in, want := range cases {
		if got := NormalizeMarkup(in); got != want {
			t.Errorf("NormalizeMarkup(%q) = %q, want %q", in, got, want)
		}
	}
}
