package dom

import "golang.org/x/net/html"

// NodePath represents the traversal steps from the root to a target node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
type NodePath []int

// Point is a boundary point inside the tree.
// For text nodes Offset counts runes; for elements it is a child index.
type Point struct {
	Node   *html.Node
	Offset int
}

// Range is a selection between two boundary points. Start == End is a caret.
type Range struct {
	Start Point
	End   Point
}

// Caret returns a collapsed range at (n, offset)
func Caret(n *html.Node, offset int) Range {
	p := Point{Node: n, Offset: offset}
	return Range{Start: p, End: p}
}

// Collapsed reports whether the range is a caret with no highlighted content
func (r Range) Collapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

// SavedSelection is a selection serialized as structural paths.
// It survives mutation as long as the shape of the tree along the paths is kept.
type SavedSelection struct {
	StartPath   NodePath `json:"start_path"`
	StartOffset int      `json:"start_offset"`
	EndPath     NodePath `json:"end_path"`
	EndOffset   int      `json:"end_offset"`
}

// BlockOffset locates a point as a content block index plus a rune offset into that
// block's own text.
type BlockOffset struct {
	Block  int
	Offset int
}

// Bookmark is a selection serialized against text content instead of structure.
// It survives block retagging, list wrapping and inline unwrapping.
type Bookmark struct {
	Start BlockOffset
	End   BlockOffset
}

// TextSpan is the part of a text node covered by a range, in runes [From, To)
type TextSpan struct {
	Node *html.Node
	From int
	To   int
}
