package db

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	cases := map[string]string{
		"natal":    "natal",
		"%":        `\%`,
		"_":        `\_`,
		"100%":     `100\%`,
		`a\b`:      `a\\b`,
		"s_o %ulo": `s\_o \%ulo`,
	}
	for in, want := range cases {
		if got := EscapeLikePattern(in); got != want {
			t.Errorf("EscapeLikePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
