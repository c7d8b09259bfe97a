package policy

import "strings"

// ZeroWidthMarker anchors the caret inside an otherwise empty inline wrapper.
// It must never appear in normalized output.
const ZeroWidthMarker = "\u200b"

// BlockTags are the canonical block-level tags
var BlockTags = []string{"p", "h1", "h2", "h3", "h4", "ul", "ol", "li", "blockquote", "pre"}

// InlineTags are the canonical inline tags
var InlineTags = []string{"strong", "em", "u", "s", "code", "a", "img", "br"}

// HeadingTags are the block types the heading commands produce
var HeadingTags = []string{"h1", "h2", "h3", "h4"}

var (
	blockSet   = toSet(BlockTags)
	allowedSet = toSet(append(append([]string{}, BlockTags...), InlineTags...))
	headingSet = toSet(HeadingTags)

	// formatting tags never contain blocks; links and code spans included
	formattingSet = toSet([]string{"strong", "em", "u", "s", "code", "a"})

	// opaque inline subtrees copied verbatim by clear formatting
	opaqueSet = toSet([]string{"br", "a", "img", "code"})
)

// aliases maps legacy or equivalent tags to their canonical counterpart
var aliases = map[string]string{
	"b":      "strong",
	"i":      "em",
	"strike": "s",
	"del":    "s",
	"ins":    "u",
}

// blocked subtrees are discarded with all their content
var blocked = toSet([]string{
	"script", "style", "iframe", "frame", "frameset", "object", "embed", "applet",
	"form", "input", "textarea", "button", "select", "option", "optgroup", "label", "fieldset",
	"video", "audio", "source", "track", "picture", "canvas", "map",
	"svg", "math", "noscript", "template", "link", "meta", "base", "title", "head",
})

// attribute whitelist, class excluded (class is always rewritten from the ClassMap)
var allowedAttrs = map[string][]string{
	"a":   {"href", "target", "rel"},
	"img": {"src", "alt", "style"},
}

// IsBlock reports whether tag is a canonical block tag
func IsBlock(tag string) bool { return blockSet[strings.ToLower(tag)] }

// IsAllowed reports whether tag is canonical (block or inline)
func IsAllowed(tag string) bool { return allowedSet[strings.ToLower(tag)] }

// IsHeading reports whether tag is h1-h4
func IsHeading(tag string) bool { return headingSet[strings.ToLower(tag)] }

// IsList reports whether tag is ul or ol
func IsList(tag string) bool {
	tag = strings.ToLower(tag)
	return tag == "ul" || tag == "ol"
}

// IsFormatting reports whether tag is an inline formatting element (may not contain blocks)
func IsFormatting(tag string) bool { return formattingSet[strings.ToLower(tag)] }

// IsOpaqueInline reports whether clear formatting keeps tag and its subtree verbatim
func IsOpaqueInline(tag string) bool { return opaqueSet[strings.ToLower(tag)] }

// IsBlocked reports whether tag's whole subtree must be discarded
func IsBlocked(tag string) bool { return blocked[strings.ToLower(tag)] }

// BlockedTags returns the blocked tag names
func BlockedTags() []string {
	out := make([]string, 0, len(blocked))
	for tag := range blocked {
		out = append(out, tag)
	}
	return out
}

// Alias returns the canonical tag for a legacy tag, if any
func Alias(tag string) (string, bool) {
	canonical, ok := aliases[strings.ToLower(tag)]
	return canonical, ok
}

// AllowedAttributes returns the whitelisted attribute names for tag (excluding class)
func AllowedAttributes(tag string) []string {
	return allowedAttrs[strings.ToLower(tag)]
}

// IsEventHandler reports whether an attribute name is an inline event handler (on*)
func IsEventHandler(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "on")
}

func toSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}
