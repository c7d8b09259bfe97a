package policy

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	schemePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):`)
	imageDataURL = regexp.MustCompile(`^data:image/[a-z0-9.+\-]+[;,]`)
)

var linkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
	"blob":   true,
}

var imageSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"blob":  true,
}

// IsSafeLinkURL reports whether raw may be used as an anchor href.
// Accepts http, https, mailto, tel and blob, plus relative and scheme-relative URLs.
func IsSafeLinkURL(raw string) bool {
	return checkURL(raw, linkSchemes, false)
}

// IsSafeImageURL reports whether raw may be used as an image src.
// Same as links, except mailto/tel are meaningless and data URLs of an image media type are allowed.
func IsSafeImageURL(raw string) bool {
	return checkURL(raw, imageSchemes, true)
}

func checkURL(raw string, schemes map[string]bool, allowImageData bool) bool {
	cleaned := collapseForSchemeCheck(raw)
	if cleaned == "" {
		return false
	}

	scheme := ""
	if m := schemePrefix.FindStringSubmatch(cleaned); m != nil {
		scheme = strings.ToLower(m[1])
	}

	if scheme == "data" {
		return allowImageData && imageDataURL.MatchString(strings.ToLower(cleaned))
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		// Unparseable: only a plain relative path without anything scheme-like is acceptable
		return scheme == "" && !strings.Contains(cleaned, ":")
	}

	if scheme == "" {
		scheme = strings.ToLower(u.Scheme)
	}
	if scheme == "" {
		return true
	}
	return schemes[scheme]
}

// collapseForSchemeCheck drops whitespace and control characters anywhere in the value,
// matching how browsers read "java\tscript:" as "javascript:".
func collapseForSchemeCheck(raw string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
}
