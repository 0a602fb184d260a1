package slug

import (
	"regexp"
	"testing"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Why Practices Stall!", "why-practices-stall"},
		{"Hello, World", "hello-world"},
		{"  leading & trailing  ", "leading-trailing"},
		{"Already-A-Slug", "already-a-slug"},
		{"CAPS and 123 numbers", "caps-and-123-numbers"},
		{"---", ""},
		{"", ""},
		{"über cool ☃ title", "ber-cool-title"},
	}

	for _, tc := range cases {
		if got := Derive(tc.title); got != tc.want {
			t.Errorf("Derive(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestDeriveShape(t *testing.T) {
	valid := regexp.MustCompile(`^$|^[a-z0-9]+(-[a-z0-9]+)*$`)

	titles := []string{
		"Why Practices Stall!",
		"50% Off -- Today Only!!!",
		"    ",
		"a",
		"The Quick (Brown) Fox; Jumps?",
		"tabs\tand\nnewlines",
	}

	for _, title := range titles {
		got := Derive(title)
		if !valid.MatchString(got) {
			t.Errorf("Derive(%q) = %q: not a valid slug", title, got)
		}
	}
}

func TestDeriveIdempotent(t *testing.T) {
	titles := []string{
		"Why Practices Stall!",
		"Hello, World",
		"already-a-slug",
		"Mixed CASE With 42 Things",
	}

	for _, title := range titles {
		once := Derive(title)
		if twice := Derive(once); twice != once {
			t.Errorf("Derive not idempotent for %q: %q != %q", title, twice, once)
		}
	}
}
