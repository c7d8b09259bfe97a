package css

import (
	"fmt"
	"regexp"
	"strings"
)

// Parser handles inline style attribute parsing
type Parser struct {
	importantRegex *regexp.Regexp
	lengthRegex    *regexp.Regexp
}

// NewParser creates a new inline style parser with compiled regexes
func NewParser() *Parser {
	return &Parser{
		importantRegex: regexp.MustCompile(`!\s*important\s*$`),

		// Plain lengths only: no calc(), url(), expression() or other functional values
		lengthRegex: regexp.MustCompile(`^(auto|0|\d+(\.\d+)?(px|%|em|rem|vw|vh))$`),
	}
}

// ParseInlineStyle parses an inline style attribute into declarations keyed by property
func (p *Parser) ParseInlineStyle(styleAttr string) map[string]Declaration {
	declarations := make(map[string]Declaration)

	parts := p.smartSplit(styleAttr, ';')

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first colon that's not in a quoted string
		colonIndex := p.findUnquotedChar(part, ':')
		if colonIndex == -1 {
			continue
		}

		property := strings.ToLower(strings.TrimSpace(part[:colonIndex]))
		value := strings.TrimSpace(part[colonIndex+1:])

		if property == "" || value == "" {
			continue
		}

		important := p.importantRegex.MatchString(value)
		if important {
			value = strings.TrimSpace(p.importantRegex.ReplaceAllString(value, ""))
		}

		declarations[property] = Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		}
	}

	return declarations
}

// Dimensions extracts validated width/height from an inline style attribute
func (p *Parser) Dimensions(styleAttr string) Dimensions {
	decls := p.ParseInlineStyle(styleAttr)
	var d Dimensions
	if decl, ok := decls["width"]; ok && p.IsLength(decl.Value) {
		d.Width = strings.ToLower(decl.Value)
	}
	if decl, ok := decls["height"]; ok && p.IsLength(decl.Value) {
		d.Height = strings.ToLower(decl.Value)
	}
	return d
}

// FilterDimensions rewrites a style attribute keeping only valid width/height declarations.
// Returns "" when nothing survives.
func (p *Parser) FilterDimensions(styleAttr string) string {
	return FormatDimensions(p.Dimensions(styleAttr))
}

// IsLength reports whether value is a plain CSS length usable as a display dimension
func (p *Parser) IsLength(value string) bool {
	return p.lengthRegex.MatchString(strings.ToLower(strings.TrimSpace(value)))
}

// FormatDimensions renders dimensions as a style attribute value in a stable order
func FormatDimensions(d Dimensions) string {
	var parts []string
	if d.Width != "" {
		parts = append(parts, fmt.Sprintf("width: %s", d.Width))
	}
	if d.Height != "" {
		parts = append(parts, fmt.Sprintf("height: %s", d.Height))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}

// smartSplit splits a string by delimiter, respecting quoted strings
func (p *Parser) smartSplit(s string, delimiter rune) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune

	for _, char := range s {
		switch {
		case !inQuotes && (char == '"' || char == '\''):
			inQuotes = true
			quoteChar = char
			current.WriteRune(char)
		case inQuotes && char == quoteChar:
			inQuotes = false
			current.WriteRune(char)
		case !inQuotes && char == delimiter:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// findUnquotedChar finds the first occurrence of char that's not in quotes
func (p *Parser) findUnquotedChar(s string, char rune) int {
	var inQuotes bool
	var quoteChar rune

	for i, c := range s {
		switch {
		case !inQuotes && (c == '"' || c == '\''):
			inQuotes = true
			quoteChar = c
		case inQuotes && c == quoteChar:
			inQuotes = false
		case !inQuotes && c == char:
			return i
		}
	}

	return -1
}
