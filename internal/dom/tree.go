package dom

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"rteditor/internal/policy"
)

// NewElement creates a detached element with the given class ("" for none)
func NewElement(tag, class string) *html.Node {
	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

// NewText creates a detached text node
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Tag returns the lowercase tag name of an element, or "" for other node types
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// IsElement reports whether n is an element with one of the given tags (any tag when none given)
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	tag := Tag(n)
	for _, t := range tags {
		if tag == t {
			return true
		}
	}
	return false
}

// IsText reports whether n is a text node
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// GetAttr returns the value of an attribute
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, adding it if missing
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes an attribute if present
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Children returns the child nodes of n as a slice
func Children(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

// ChildCount returns the number of child nodes
func ChildCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// ChildAt returns the index-th child, or nil when out of range
func ChildAt(parent *html.Node, index int) *html.Node {
	if index < 0 {
		return nil
	}
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if count == index {
			return c
		}
		count++
	}
	return nil
}

// ChildIndex returns the position of n among its siblings, or -1 when detached
func ChildIndex(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return -1
	}
	count := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return count
		}
		count++
	}
	return -1
}

// Detach removes n from its parent, if any
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore detaches child and inserts it into parent before ref (append when ref is nil)
func InsertBefore(parent, child, ref *html.Node) {
	if child == ref {
		return
	}
	Detach(child)
	parent.InsertBefore(child, ref)
}

// InsertAfter detaches child and inserts it right after ref
func InsertAfter(child, ref *html.Node) {
	InsertBefore(ref.Parent, child, ref.NextSibling)
}

// InsertAt detaches child and inserts it at index in parent
func InsertAt(parent, child *html.Node, index int) {
	InsertBefore(parent, child, ChildAt(parent, index))
}

// Append detaches child and appends it to parent
func Append(parent, child *html.Node) {
	Detach(child)
	parent.AppendChild(child)
}

// ReplaceWith puts replacement where old was and detaches old
func ReplaceWith(old, replacement *html.Node) {
	if old.Parent == nil || old == replacement {
		return
	}
	InsertBefore(old.Parent, replacement, old)
	Detach(old)
}

// MoveChildren appends every child of src to dst, in order
func MoveChildren(dst, src *html.Node) {
	for src.FirstChild != nil {
		Append(dst, src.FirstChild)
	}
}

// RemoveChildren detaches every child of n
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Unwrap splices the children of n into its parent at n's position and detaches n
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for n.FirstChild != nil {
		InsertBefore(parent, n.FirstChild, n)
	}
	Detach(n)
}

// Retag builds a new element of tag carrying n's children and replaces n with it
func Retag(n *html.Node, tag, class string) *html.Node {
	replacement := NewElement(tag, class)
	MoveChildren(replacement, n)
	ReplaceWith(n, replacement)
	return replacement
}

// CloneShallow copies an element or text node without its children
func CloneShallow(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		clone.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return clone
}

// CloneDeep copies n and its whole subtree
func CloneDeep(n *html.Node) *html.Node {
	clone := CloneShallow(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(CloneDeep(c))
	}
	return clone
}

// IsAncestor reports whether a is a strict ancestor of b
func IsAncestor(a, b *html.Node) bool {
	if a == nil || b == nil {
		return false
	}
	for p := b.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Contains reports whether n is root or one of its descendants
func Contains(root, n *html.Node) bool {
	return n != nil && (n == root || IsAncestor(root, n))
}

// TextContent concatenates every text descendant of n
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return b.String()
}

// TextLen returns the length of a text node in runes
func TextLen(n *html.Node) int {
	return utf8.RuneCountInString(n.Data)
}

// MaxOffset returns the largest valid offset for a point in n
func MaxOffset(n *html.Node) int {
	if IsText(n) {
		return TextLen(n)
	}
	return ChildCount(n)
}

// SplitText splits a text node at a rune offset, keeping the head in t and returning the tail.
// The tail is inserted right after t when t has a parent.
func SplitText(t *html.Node, offset int) *html.Node {
	runes := []rune(t.Data)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	tail := NewText(string(runes[offset:]))
	t.Data = string(runes[:offset])
	if t.Parent != nil {
		t.Parent.InsertBefore(tail, t.NextSibling)
	}
	return tail
}

// MergeText joins adjacent text nodes and drops empty ones under n, recursively
func MergeText(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				following := next.NextSibling
				n.RemoveChild(next)
				next = following
			}
			if c.Data == "" {
				n.RemoveChild(c)
			}
		} else {
			MergeText(c)
		}
		c = next
	}
}

// HasBlockDescendant reports whether any descendant of n is a block element
func HasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsBlockNode(c) || HasBlockDescendant(c) {
			return true
		}
	}
	return false
}

// IsBlankText reports whether s holds nothing but whitespace and caret markers
func IsBlankText(s string) bool {
	return strings.TrimSpace(strings.ReplaceAll(s, policy.ZeroWidthMarker, "")) == ""
}

// IsVisuallyEmpty reports whether n has no meaningful text and no images
func IsVisuallyEmpty(n *html.Node) bool {
	if !IsBlankText(TextContent(n)) {
		return false
	}
	return FindFirst(n, func(c *html.Node) bool { return IsElement(c, "img") }) == nil
}

// FindFirst returns the first descendant of n (document order) matching fn
func FindFirst(n *html.Node, fn func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			return c
		}
		if found := FindFirst(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of n (document order) matching fn
func FindAll(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if fn(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// InlineRuns groups the children of a block into maximal runs of non-block nodes.
// Each run is returned as [first, last].
func InlineRuns(block *html.Node) [][2]*html.Node {
	var runs [][2]*html.Node
	var first, last *html.Node
	for c := block.FirstChild; c != nil; c = c.NextSibling {
		if IsBlockNode(c) {
			if first != nil {
				runs = append(runs, [2]*html.Node{first, last})
				first, last = nil, nil
			}
			continue
		}
		if first == nil {
			first = c
		}
		last = c
	}
	if first != nil {
		runs = append(runs, [2]*html.Node{first, last})
	}
	return runs
}

// IsContentBlock reports whether n is a block that holds inline content of its own:
// either a leaf block, or a block with at least one non-blank inline child.
func IsContentBlock(n *html.Node) bool {
	if !IsBlockNode(n) {
		return false
	}
	if !HasBlockDescendant(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsBlockNode(c) {
			continue
		}
		if c.Type == html.TextNode && IsBlankText(c.Data) {
			continue
		}
		return true
	}
	return false
}

// ContentBlocks returns every content block under root in document order
func ContentBlocks(root *html.Node) []*html.Node {
	return FindAll(root, IsContentBlock)
}

// OwnText returns the text nodes whose innermost block ancestor is block, in document order
func OwnText(block *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				out = append(out, c)
			case IsBlockNode(c):
				// nested blocks own their text
			default:
				walk(c)
			}
		}
	}
	walk(block)
	return out
}

// EnsurePlaceholder gives an empty block a <br> so it keeps a caret position
func EnsurePlaceholder(block *html.Node) {
	if block.FirstChild != nil && !IsVisuallyEmpty(block) {
		return
	}
	if FindFirst(block, func(c *html.Node) bool { return IsElement(c, "br") }) != nil {
		return
	}
	RemoveChildren(block)
	block.AppendChild(NewElement("br", ""))
}
