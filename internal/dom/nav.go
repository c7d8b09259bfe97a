package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"rteditor/internal/policy"
)

var blockSelector = cascadia.MustCompile(strings.Join(policy.BlockTags, ","))

// IsBlockNode reports whether n is an element of the canonical block set
func IsBlockNode(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockSelector.Match(n)
}

// ClosestBlock walks from n (inclusive) up to root (exclusive) and returns the first block element.
// Returns nil when none is found or n is not a descendant of root.
func ClosestBlock(n, root *html.Node) *html.Node {
	if !IsAncestor(root, n) {
		return nil
	}
	for current := n; current != nil && current != root; current = current.Parent {
		if IsBlockNode(current) {
			return current
		}
	}
	return nil
}

// ClosestOfTag walks from n (inclusive) up to root (exclusive) looking for tag
func ClosestOfTag(n *html.Node, tag string, root *html.Node) *html.Node {
	if !IsAncestor(root, n) {
		return nil
	}
	tag = strings.ToLower(tag)
	for current := n; current != nil && current != root; current = current.Parent {
		if Tag(current) == tag {
			return current
		}
	}
	return nil
}

// ClosestContentBlock returns the innermost content block holding n
func ClosestContentBlock(n, root *html.Node) *html.Node {
	for block := ClosestBlock(n, root); block != nil; block = ClosestBlock(block.Parent, root) {
		if IsContentBlock(block) {
			return block
		}
	}
	return nil
}

// ContentPoint moves a point that sits between the blocks of a list or quote to the
// nearest position holding inline content: the start of the following block, else the
// end of the preceding one. ok is false outside any block or when no such block exists.
func ContentPoint(root *html.Node, p Point) (Point, bool) {
	for {
		block := ClosestBlock(p.Node, root)
		if block == nil {
			return p, false
		}
		if IsContentBlock(block) {
			return p, true
		}

		parent, index := p.Node, p.Offset
		if p.Node.Type != html.ElementNode {
			parent, index = p.Node.Parent, ChildIndex(p.Node)
			if p.Offset > 0 {
				index++
			}
		}
		if count := ChildCount(parent); index > count {
			index = count
		}

		var found *html.Node
		for c := ChildAt(parent, index); c != nil && found == nil; c = c.NextSibling {
			if IsBlockNode(c) {
				found = c
			}
		}
		if found != nil {
			p = Point{Node: found, Offset: 0}
			continue
		}
		for c := ChildAt(parent, index-1); c != nil && found == nil; c = c.PrevSibling {
			if IsBlockNode(c) {
				found = c
			}
		}
		if found == nil {
			return p, false
		}
		p = Point{Node: found, Offset: ChildCount(found)}
	}
}

// PathFromRoot returns the child indices leading from root to n.
// ok is false when n is not root or one of its descendants.
func PathFromRoot(root, n *html.Node) (path NodePath, ok bool) {
	if n == nil || root == nil {
		return nil, false
	}
	var reversed []int
	for current := n; current != root; current = current.Parent {
		if current.Parent == nil {
			return nil, false
		}
		reversed = append(reversed, ChildIndex(current))
	}
	path = make(NodePath, len(reversed))
	for i, index := range reversed {
		path[len(reversed)-1-i] = index
	}
	return path, true
}

// ResolvePath walks path from root. It returns nil when any component is out of range.
func ResolvePath(root *html.Node, path NodePath) *html.Node {
	if root == nil {
		return nil
	}
	current := root
	for _, index := range path {
		current = ChildAt(current, index)
		if current == nil {
			return nil
		}
	}
	return current
}
