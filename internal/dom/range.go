package dom

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrOutsideContainer is returned when a boundary point does not lie within the container being split
var ErrOutsideContainer = errors.New("boundary point is outside the container")

// boundary is a position between two children of parent: immediately before ref,
// or at the end of parent when ref is nil.
type boundary struct {
	parent *html.Node
	ref    *html.Node
}

func (b boundary) container() *html.Node {
	if b.ref != nil {
		return b.ref.Parent
	}
	return b.parent
}

// splitTextAt turns a point into a boundary between children, splitting a text node when
// the offset falls strictly inside it.
func splitTextAt(p Point) boundary {
	if !IsText(p.Node) {
		return boundary{parent: p.Node, ref: ChildAt(p.Node, p.Offset)}
	}
	t := p.Node
	switch {
	case p.Offset <= 0:
		return boundary{parent: t.Parent, ref: t}
	case p.Offset >= TextLen(t):
		return boundary{parent: t.Parent, ref: t.NextSibling}
	default:
		return boundary{parent: t.Parent, ref: SplitText(t, p.Offset)}
	}
}

// liftTo raises a boundary until its parent is container, shallow-cloning every
// ancestor whose children it cuts in two.
func liftTo(container *html.Node, b boundary) (boundary, error) {
	for {
		parent := b.container()
		if parent == container {
			return boundary{parent: container, ref: b.ref}, nil
		}
		if parent == nil || parent.Parent == nil || !IsAncestor(container, parent) {
			return boundary{}, ErrOutsideContainer
		}
		switch {
		case b.ref == nil:
			b = boundary{parent: parent.Parent, ref: parent.NextSibling}
		case b.ref == parent.FirstChild:
			b = boundary{parent: parent.Parent, ref: parent}
		default:
			tail := CloneShallow(parent)
			for c := b.ref; c != nil; {
				next := c.NextSibling
				Append(tail, c)
				c = next
			}
			InsertAfter(tail, parent)
			b = boundary{parent: parent.Parent, ref: tail}
		}
	}
}

// SplitToContainer splits the tree along both endpoints of r so that each becomes a
// boundary between direct children of container. It returns the first child inside the
// range and the child after it (nil meaning the end of container).
func SplitToContainer(container *html.Node, r Range) (startRef, endRef *html.Node, err error) {
	end := splitTextAt(r.End)
	start := splitTextAt(r.Start)

	if end, err = liftTo(container, end); err != nil {
		return nil, nil, err
	}
	if start, err = liftTo(container, start); err != nil {
		return nil, nil, err
	}
	return start.ref, end.ref, nil
}

// Extract detaches the content of r from container, splitting partially covered nodes.
// It returns the detached top-level nodes and the child of container before which they
// sat (nil for the end of container).
func Extract(container *html.Node, r Range) (nodes []*html.Node, ref *html.Node, err error) {
	startRef, endRef, err := SplitToContainer(container, r)
	if err != nil {
		return nil, nil, err
	}
	for c := startRef; c != nil && c != endRef; {
		next := c.NextSibling
		Detach(c)
		nodes = append(nodes, c)
		c = next
	}
	return nodes, endRef, nil
}

// CommonContainer returns the deepest element containing both endpoints of r
func CommonContainer(r Range) *html.Node {
	a := r.Start.Node
	if IsText(a) {
		a = a.Parent
	}
	for candidate := a; candidate != nil; candidate = candidate.Parent {
		if Contains(candidate, r.End.Node) {
			return candidate
		}
	}
	return nil
}

// DeleteContents removes the content of r and returns the collapsed point where it was
func DeleteContents(root *html.Node, r Range) (Point, error) {
	r = Ordered(root, r)
	if r.Collapsed() {
		return r.Start, nil
	}
	container := CommonContainer(r)
	if container == nil || !Contains(root, container) {
		return Point{}, ErrOutsideContainer
	}
	_, ref, err := Extract(container, r)
	if err != nil {
		return Point{}, err
	}
	if ref == nil {
		return Point{Node: container, Offset: ChildCount(container)}, nil
	}
	return Before(ref), nil
}

// InsertAtPoint places n at p, splitting a text node when needed.
// It returns the point right after n.
func InsertAtPoint(p Point, n *html.Node) Point {
	b := splitTextAt(p)
	parent := b.container()
	InsertBefore(parent, n, b.ref)
	return After(n)
}

// SplitBlock cuts block in two at p. The original keeps the content before p; the
// returned clone, inserted right after it, holds the rest.
func SplitBlock(block *html.Node, p Point) (*html.Node, error) {
	b, err := liftTo(block, splitTextAt(p))
	if err != nil {
		return nil, err
	}
	tail := CloneShallow(block)
	for c := b.ref; c != nil; {
		next := c.NextSibling
		Append(tail, c)
		c = next
	}
	InsertAfter(tail, block)
	return tail, nil
}

// RangeText returns the text covered by r
func RangeText(root *html.Node, r Range) string {
	var out []rune
	for _, span := range TextSpans(root, r) {
		out = append(out, []rune(span.Node.Data)[span.From:span.To]...)
	}
	return string(out)
}
