package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// CombineBaseURL hosts the yearly combine results pages
	CombineBaseURL = "https://www.pro-football-reference.com"
	// CollegeBaseURL hosts the college player statistics pages
	CollegeBaseURL = "https://www.sports-reference.com"
)

// CombineURL returns the combine results page for year
func CombineURL(base string, year int) string {
	return fmt.Sprintf("%s/draft/%d-combine.htm", strings.TrimRight(base, "/"), year)
}

// PlayerURL returns the college statistics page for a player slug
func PlayerURL(base, slug string) string {
	return fmt.Sprintf("%s/cfb/players/%s.html", strings.TrimRight(base, "/"), slug)
}

// CollegeURL resolves a combine "college" href against base. Absolute links are
// returned unchanged.
func CollegeURL(base, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parsing college link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// PlayerSlug builds the page slug the site assigns a player, e.g. "joe-burrow-1".
// Accents are folded, punctuation dropped and words joined with hyphens. n
// distinguishes players sharing a name and is at least 1.
func PlayerSlug(first, last string, n int) string {
	if n < 1 {
		n = 1
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, err := transform.String(fold, strings.ToLower(first+" "+last))
	if err != nil {
		name = strings.ToLower(first + " " + last)
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}

	return fmt.Sprintf("%s-%d", b.String(), n)
}
