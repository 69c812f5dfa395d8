package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugCheckRegex = regexp.MustCompile(`^[a-z0-9-]{1,220}$`)

var reservedSlugs = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"blogs":    {},
	"comments": {},
	"drafts":   {},
	"feed":     {},
	"healthz":  {},
	"login":    {},
	"metrics":  {},
	"new":      {},
	"readyz":   {},
	"rss":      {},
	"settings": {},
	"signup":   {},
	"stats":    {},
	"tags":     {},
	"users":    {},
	"ws":       {},
}

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a title: accents are folded to ASCII,
// letters lowercased, and every run of non-alphanumeric characters collapses
// to a single hyphen. The same title always yields the same slug.
func Slugify(title string) string {
	folded, _, err := transform.String(asciiFolder, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// ValidateSlug validates slug format and reserved names.
func ValidateSlug(slug string) error {
	if !slugCheckRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-220 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}
