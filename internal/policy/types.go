package policy

import "strings"

// ClassMap maps a canonical tag name to the style class string the editor assigns to it.
// Each editor instance owns its own ClassMap; never share one between instances.
type ClassMap map[string]string

var defaultClasses = map[string]string{
	// Block elements
	"p":  "text-base leading-7 my-4",
	"h1": "text-4xl font-bold mt-8 mb-4 leading-tight",
	"h2": "text-3xl font-semibold mt-8 mb-3 leading-snug",
	"h3": "text-2xl font-semibold mt-6 mb-3 leading-snug",
	"h4": "text-xl font-semibold mt-4 mb-2",

	// Lists
	"ul": "list-disc pl-6 my-4 space-y-1",
	"ol": "list-decimal pl-6 my-4 space-y-1",
	"li": "text-base leading-7",

	// Quote & code blocks
	"blockquote": "border-l-4 border-gray-300 pl-4 py-1 my-4 italic text-gray-600",
	"pre":        "bg-gray-900 text-gray-100 p-4 rounded-lg overflow-x-auto font-mono text-sm my-4",
	"code":       "font-mono text-sm bg-gray-100 px-1.5 py-0.5 rounded",

	// Inline formatting
	"strong": "font-bold",
	"em":     "italic",
	"u":      "underline decoration-2 underline-offset-2",
	"s":      "line-through",

	// Links & media
	"a":   "text-blue-600 underline decoration-1 underline-offset-2",
	"img": "max-w-full h-auto rounded-lg my-4",
}

// DefaultClassMap returns a fresh copy of the built-in class mapping
func DefaultClassMap() ClassMap {
	m := make(ClassMap, len(defaultClasses))
	for tag, class := range defaultClasses {
		m[tag] = class
	}
	return m
}

// NewClassMap returns the defaults with overrides merged over them.
// Override keys are case-insensitive; the result never aliases the overrides map.
func NewClassMap(overrides map[string]string) ClassMap {
	m := DefaultClassMap()
	for tag, class := range overrides {
		m[strings.ToLower(strings.TrimSpace(tag))] = class
	}
	return m
}

// Clone returns an independent copy
func (m ClassMap) Clone() ClassMap {
	out := make(ClassMap, len(m))
	for tag, class := range m {
		out[tag] = class
	}
	return out
}

// ClassFor returns the class string for a tag (case-insensitive), or "" for unknown tags
func (m ClassMap) ClassFor(tag string) string {
	if m == nil {
		return defaultClasses[strings.ToLower(tag)]
	}
	return m[strings.ToLower(tag)]
}
