package domain

import (
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I love this!", "I love this"},
		{"check https://example.com/a?b=c now", "check now"},
		{"hey @alice.bsky.social what's up", "hey bskysocial whats up"},
		{"@bob thanks!!!", "thanks"},
		{"  lots   of\t\nspace  ", "lots of space"},
		{"café déjà vu", "café déjà vu"},
		{"snake_case stays", "snake_case stays"},
		{"http", ""},
		{"h.ttp://x.com trick", "trick"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"I love this!",
		"see http://a.b/c and https://d.e",
		"@carol @dave hi",
		"h.ttp://sneaky h@ttp",
		"mixed spaces here",
		"emoji 🎉 party",
		"x@y http@z",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		twice := NormalizeText(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.Contains(once, "http") || strings.Contains(once, "@") {
			t.Fatalf("NormalizeText(%q) = %q still contains a URL or mention", in, once)
		}
	}
}
