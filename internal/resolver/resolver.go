package resolver

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"rteditor/internal/commands"
	"rteditor/internal/css"
	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// inlineCommands maps toolbar commands onto the canonical inline tag they toggle
var inlineCommands = map[commands.Name]string{
	commands.Bold:          "strong",
	commands.Italic:        "em",
	commands.Underline:     "u",
	commands.Strikethrough: "s",
	commands.Link:          "a",
}

// blockCommands maps toolbar commands onto the block tag that makes them active
var blockCommands = map[commands.Name]string{
	commands.Heading1:   "h1",
	commands.Heading2:   "h2",
	commands.Heading3:   "h3",
	commands.Heading4:   "h4",
	commands.Paragraph:  "p",
	commands.CodeBlock:  "pre",
	commands.Blockquote: "blockquote",
}

// State is the formatting at a selection, as a toolbar needs it for highlighting
type State struct {
	// Inline holds the formatting tags covering the selection
	Inline map[string]bool

	// Block is the tag of the closest block ("" outside any block)
	Block string

	// List is "ul" or "ol" when the selection sits in a list item
	List string

	Quoted bool

	// Link is the href of the enclosing link, if any
	Link string

	// Active reports per command whether its button shows as pressed
	Active map[commands.Name]bool
}

// Resolver computes formatting state for selections inside one editing root
type Resolver struct {
	root   *html.Node
	parser *css.Parser
}

// New creates a resolver for root
func New(root *html.Node) *Resolver {
	return &Resolver{
		root:   root,
		parser: css.NewParser(),
	}
}

// Resolve computes the formatting state at r. A selection outside the root resolves
// to an empty state.
func (r *Resolver) Resolve(sel dom.Range) State {
	state := State{
		Inline: make(map[string]bool),
		Active: make(map[commands.Name]bool),
	}
	if r.root == nil || sel.Start.Node == nil || !dom.InRoot(r.root, sel) {
		return state
	}
	sel = dom.Ordered(r.root, sel)

	// Step 1: inline formatting, from the caret ancestors or from every covered text span
	if sel.Collapsed() {
		for tag := range r.ancestorTags(sel.Start.Node) {
			if policy.IsFormatting(tag) {
				state.Inline[tag] = true
			}
		}
	} else {
		for _, tag := range []string{"strong", "em", "u", "s", "a", "code"} {
			if r.covers(sel, tag) {
				state.Inline[tag] = true
			}
		}
	}

	// Step 2: block context
	block := dom.ClosestBlock(sel.Start.Node, r.root)
	if block != nil {
		state.Block = dom.Tag(block)
		if state.Block == "li" && block.Parent != nil {
			state.List = dom.Tag(block.Parent)
		}
	}
	state.Quoted = dom.ClosestOfTag(sel.Start.Node, "blockquote", r.root) != nil
	if a := dom.ClosestOfTag(sel.Start.Node, "a", r.root); a != nil {
		state.Link, _ = dom.GetAttr(a, "href")
	}

	// Step 3: per-command button state
	for name, tag := range inlineCommands {
		state.Active[name] = state.Inline[tag]
	}
	for name, tag := range blockCommands {
		switch tag {
		case "blockquote":
			state.Active[name] = state.Quoted
		default:
			state.Active[name] = state.Block == tag
		}
	}
	state.Active[commands.UnorderedList] = state.List == "ul"
	state.Active[commands.OrderedList] = state.List == "ol"

	return state
}

// IsActive reports whether the toolbar button for name shows as pressed at sel
func (r *Resolver) IsActive(sel dom.Range, name commands.Name) bool {
	return r.Resolve(sel).Active[name]
}

// ancestorTags collects the tags of n and its ancestors up to (excluding) the root
func (r *Resolver) ancestorTags(n *html.Node) map[string]bool {
	tags := make(map[string]bool)
	if n.Type == html.ElementNode && n != r.root {
		tags[n.Data] = true
	}
	goquery.NewDocumentFromNode(n).ParentsUntilNodes(r.root).Each(func(_ int, s *goquery.Selection) {
		tags[goquery.NodeName(s)] = true
	})
	return tags
}

// covers reports whether every visible text span of sel sits inside tag
func (r *Resolver) covers(sel dom.Range, tag string) bool {
	considered := 0
	for _, span := range dom.TextSpans(r.root, sel) {
		covered := string([]rune(span.Node.Data)[span.From:span.To])
		if strings.TrimSpace(strings.ReplaceAll(covered, policy.ZeroWidthMarker, "")) == "" {
			continue
		}
		considered++
		if dom.ClosestOfTag(span.Node, tag, r.root) == nil {
			return false
		}
	}
	return considered > 0
}

// ImageDimensions returns the display width and height set in an image's inline style
func (r *Resolver) ImageDimensions(img *html.Node) css.Dimensions {
	if !dom.IsElement(img, "img") {
		return css.Dimensions{}
	}
	style, _ := dom.GetAttr(img, "style")
	return r.parser.Dimensions(style)
}

// ValidateDimensions reports the dimension values that would be dropped from an image style
func (r *Resolver) ValidateDimensions(d css.Dimensions) []ValidationWarning {
	var warnings []ValidationWarning
	for _, decl := range []css.Declaration{{Property: "width", Value: d.Width}, {Property: "height", Value: d.Height}} {
		if decl.Value == "" || r.parser.IsLength(decl.Value) {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			Property: decl.Property,
			Value:    decl.Value,
			Message:  "not a CSS length; the value is dropped",
		})
	}
	return warnings
}

// ValidationWarning describes a rejected style value
type ValidationWarning struct {
	Property string
	Value    string
	Message  string
}
