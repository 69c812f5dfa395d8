package validation

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple", title: "Hello World", want: "hello-world"},
		{name: "already lower", title: "hello", want: "hello"},
		{name: "punctuation collapses", title: "Go 1.26: What's New?", want: "go-1-26-what-s-new"},
		{name: "leading and trailing junk", title: "  --Hello--  ", want: "hello"},
		{name: "accents folded", title: "Caffè Crème Brûlée", want: "caffe-creme-brulee"},
		{name: "multiple spaces", title: "a   b", want: "a-b"},
		{name: "numbers kept", title: "Top 10 Tips", want: "top-10-tips"},
		{name: "empty", title: "", want: ""},
		{name: "only symbols", title: "!!!", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Slugify(tc.title)
			if got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
			// Slugs are stable across calls.
			if again := Slugify(tc.title); again != got {
				t.Fatalf("Slugify(%q) not deterministic: %q then %q", tc.title, got, again)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "valid", slug: "hello-world", ok: true},
		{name: "valid with numbers", slug: "go-1-26", ok: true},
		{name: "empty", slug: "", ok: false},
		{name: "uppercase", slug: "Hello", ok: false},
		{name: "underscore", slug: "hello_world", ok: false},
		{name: "leading hyphen", slug: "-hello", ok: false},
		{name: "trailing hyphen", slug: "hello-", ok: false},
		{name: "reserved admin", slug: "admin", ok: false},
		{name: "reserved stats", slug: "stats", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSlug(tc.slug)
			if tc.ok && err != nil {
				t.Fatalf("expected valid slug, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid slug, got nil error")
			}
		})
	}
}
