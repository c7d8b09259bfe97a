package dom

import (
	"golang.org/x/net/html"
)

// pointKey orders boundary points: the container path followed by the offset.
// A shorter key that is a prefix of a longer one sorts first.
func pointKey(root *html.Node, p Point) ([]int, bool) {
	path, ok := PathFromRoot(root, p.Node)
	if !ok {
		return nil, false
	}
	return append(path, p.Offset), true
}

func compareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// ComparePoints returns -1, 0 or 1 as a is before, equal to, or after b in document order.
// Points outside root compare as equal.
func ComparePoints(root *html.Node, a, b Point) int {
	ka, okA := pointKey(root, a)
	kb, okB := pointKey(root, b)
	if !okA || !okB {
		return 0
	}
	return compareKeys(ka, kb)
}

// InRoot reports whether both endpoints of r lie inside root
func InRoot(root *html.Node, r Range) bool {
	return Contains(root, r.Start.Node) && Contains(root, r.End.Node)
}

// Ordered returns r with Start not after End
func Ordered(root *html.Node, r Range) Range {
	if ComparePoints(root, r.Start, r.End) > 0 {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

// Clamp limits the offsets of r to the lengths of their containers
func Clamp(r Range) Range {
	clamp := func(p Point) Point {
		if p.Offset < 0 {
			p.Offset = 0
		}
		if max := MaxOffset(p.Node); p.Offset > max {
			p.Offset = max
		}
		return p
	}
	return Range{Start: clamp(r.Start), End: clamp(r.End)}
}

// SelectContents returns a range covering the children of n
func SelectContents(n *html.Node) Range {
	return Range{Start: Point{Node: n, Offset: 0}, End: Point{Node: n, Offset: MaxOffset(n)}}
}

// Before returns the point immediately before n in its parent
func Before(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: ChildIndex(n)}
}

// After returns the point immediately after n in its parent
func After(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: ChildIndex(n) + 1}
}

// Save serializes r as paths relative to root. Returns nil when r is outside root.
func Save(root *html.Node, r Range) *SavedSelection {
	start, okStart := PathFromRoot(root, r.Start.Node)
	end, okEnd := PathFromRoot(root, r.End.Node)
	if !okStart || !okEnd {
		return nil
	}
	return &SavedSelection{
		StartPath:   start,
		StartOffset: r.Start.Offset,
		EndPath:     end,
		EndOffset:   r.End.Offset,
	}
}

// Restore resolves a saved selection against root, clamping offsets.
// ok is false when either path no longer resolves.
func Restore(root *html.Node, saved *SavedSelection) (r Range, ok bool) {
	if saved == nil {
		return Range{}, false
	}
	start := ResolvePath(root, saved.StartPath)
	end := ResolvePath(root, saved.EndPath)
	if start == nil || end == nil {
		return Range{}, false
	}
	return Clamp(Range{
		Start: Point{Node: start, Offset: saved.StartOffset},
		End:   Point{Node: end, Offset: saved.EndOffset},
	}), true
}

// TextSpans returns the portions of text nodes covered by a non-collapsed range, in document order
func TextSpans(root *html.Node, r Range) []TextSpan {
	if r.Collapsed() || !InRoot(root, r) {
		return nil
	}
	r = Ordered(root, r)
	startKey, _ := pointKey(root, r.Start)
	endKey, _ := pointKey(root, r.End)

	var spans []TextSpan
	for _, t := range FindAll(root, IsText) {
		length := TextLen(t)
		from, to := 0, length
		if t == r.Start.Node {
			from = r.Start.Offset
		} else if k, _ := pointKey(root, Point{Node: t, Offset: length}); compareKeys(k, startKey) <= 0 {
			continue
		}
		if t == r.End.Node {
			to = r.End.Offset
		} else if k, _ := pointKey(root, Point{Node: t, Offset: 0}); compareKeys(k, endKey) >= 0 {
			continue
		}
		if from < to {
			spans = append(spans, TextSpan{Node: t, From: from, To: to})
		}
	}
	return spans
}

// segmentIntersects reports whether [segStart, segEnd] overlaps the range [start, end]
func segmentIntersects(segStart, segEnd, start, end []int, collapsed bool) bool {
	if collapsed || compareKeys(segStart, segEnd) == 0 {
		return compareKeys(start, segEnd) <= 0 && compareKeys(segStart, end) <= 0
	}
	return compareKeys(start, segEnd) < 0 && compareKeys(segStart, end) < 0
}

// SelectedBlocks returns the content blocks whose own inline content intersects r, in document order
func SelectedBlocks(root *html.Node, r Range) []*html.Node {
	if !InRoot(root, r) {
		return nil
	}
	r = Ordered(root, r)
	if r.Collapsed() {
		if block := ClosestContentBlock(r.Start.Node, root); block != nil {
			return []*html.Node{block}
		}
		if IsContentBlock(r.Start.Node) && r.Start.Node != root {
			return []*html.Node{r.Start.Node}
		}
		return nil
	}

	startKey, _ := pointKey(root, r.Start)
	endKey, _ := pointKey(root, r.End)

	var blocks []*html.Node
	for _, block := range ContentBlocks(root) {
		runs := InlineRuns(block)
		if len(runs) == 0 {
			k, _ := pointKey(root, Point{Node: block, Offset: 0})
			if segmentIntersects(k, k, startKey, endKey, false) {
				blocks = append(blocks, block)
			}
			continue
		}
		for _, run := range runs {
			segStart, _ := pointKey(root, Before(run[0]))
			segEnd, _ := pointKey(root, After(run[1]))
			if segmentIntersects(segStart, segEnd, startKey, endKey, false) {
				blocks = append(blocks, block)
				break
			}
		}
	}
	return blocks
}

// NewBookmark captures r against the text of the content blocks under root
func NewBookmark(root *html.Node, r Range) *Bookmark {
	if !InRoot(root, r) {
		return nil
	}
	blocks := ContentBlocks(root)
	start, okStart := blockOffset(root, blocks, r.Start)
	end, okEnd := blockOffset(root, blocks, r.End)
	if !okStart || !okEnd {
		return nil
	}
	return &Bookmark{Start: start, End: end}
}

// Resolve maps a bookmark back onto the (possibly restructured) tree
func (b *Bookmark) Resolve(root *html.Node) (Range, bool) {
	if b == nil {
		return Range{}, false
	}
	blocks := ContentBlocks(root)
	start, okStart := resolveBlockOffset(blocks, b.Start)
	end, okEnd := resolveBlockOffset(blocks, b.End)
	if !okStart || !okEnd {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

func blockOffset(root *html.Node, blocks []*html.Node, p Point) (BlockOffset, bool) {
	key, ok := pointKey(root, p)
	if !ok {
		return BlockOffset{}, false
	}

	block := ClosestContentBlock(p.Node, root)
	if block == nil && IsContentBlock(p.Node) && p.Node != root {
		block = p.Node
	}
	if block == nil {
		// Between blocks: anchor to the start of the next content block
		for i, candidate := range blocks {
			k, _ := pointKey(root, Point{Node: candidate, Offset: 0})
			if compareKeys(k, key) >= 0 {
				return BlockOffset{Block: i, Offset: 0}, true
			}
		}
		if len(blocks) == 0 {
			return BlockOffset{}, false
		}
		last := len(blocks) - 1
		return BlockOffset{Block: last, Offset: ownTextLen(blocks[last])}, true
	}

	index := -1
	for i, candidate := range blocks {
		if candidate == block {
			index = i
			break
		}
	}
	if index < 0 {
		return BlockOffset{}, false
	}

	offset := 0
	for _, t := range OwnText(block) {
		if t == p.Node {
			offset += p.Offset
			break
		}
		tailKey, _ := pointKey(root, Point{Node: t, Offset: TextLen(t)})
		if compareKeys(tailKey, key) > 0 {
			break
		}
		offset += TextLen(t)
	}
	return BlockOffset{Block: index, Offset: offset}, true
}

func resolveBlockOffset(blocks []*html.Node, bo BlockOffset) (Point, bool) {
	if bo.Block < 0 || bo.Block >= len(blocks) {
		return Point{}, false
	}
	block := blocks[bo.Block]
	texts := OwnText(block)
	if len(texts) == 0 {
		return Point{Node: block, Offset: 0}, true
	}
	remaining := bo.Offset
	for _, t := range texts {
		length := TextLen(t)
		if remaining <= length {
			return Point{Node: t, Offset: remaining}, true
		}
		remaining -= length
	}
	last := texts[len(texts)-1]
	return Point{Node: last, Offset: TextLen(last)}, true
}

func ownTextLen(block *html.Node) int {
	total := 0
	for _, t := range OwnText(block) {
		total += TextLen(t)
	}
	return total
}
