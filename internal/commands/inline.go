package commands

import (
	"strings"

	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

func toggleInline(tag string) Func {
	return func(ctx *Context, r dom.Range, _ []string) Result {
		root := ctx.Root

		if r.Collapsed() {
			if existing := dom.ClosestOfTag(r.Start.Node, tag, root); existing != nil {
				return unwrapAll(ctx, []*html.Node{existing}, r)
			}
			point, ok := dom.ContentPoint(root, r.Start)
			if !ok {
				return unchanged()
			}
			el := ctx.element(tag)
			marker := dom.NewText(policy.ZeroWidthMarker)
			el.AppendChild(marker)
			dom.InsertAtPoint(point, el)
			return changed(dom.Caret(marker, 1))
		}

		spans := dom.TextSpans(root, r)
		if fullyFormatted(root, spans, tag) {
			var wrappers []*html.Node
			seen := make(map[*html.Node]bool)
			for _, span := range spans {
				for p := span.Node.Parent; p != nil && p != root; p = p.Parent {
					if dom.Tag(p) == tag && !seen[p] {
						seen[p] = true
						wrappers = append(wrappers, p)
					}
				}
			}
			return unwrapAll(ctx, wrappers, r)
		}

		wrappers := wrapRuns(ctx, r, func() *html.Node { return ctx.element(tag) })
		if len(wrappers) == 0 {
			return unchanged()
		}
		for _, el := range wrappers {
			flattenSameTag(el, tag)
		}
		return changed(spanning(wrappers))
	}
}

// fullyFormatted reports whether every covered text span sits inside tag.
// Spans holding nothing but caret markers are ignored; a selection of nothing but
// whitespace is never considered formatted.
func fullyFormatted(root *html.Node, spans []dom.TextSpan, tag string) bool {
	considered := 0
	visible := false
	for _, span := range spans {
		covered := string([]rune(span.Node.Data)[span.From:span.To])
		if strings.ReplaceAll(covered, policy.ZeroWidthMarker, "") == "" {
			continue
		}
		considered++
		if strings.TrimSpace(strings.ReplaceAll(covered, policy.ZeroWidthMarker, "")) != "" {
			visible = true
		}
		if dom.ClosestOfTag(span.Node, tag, root) == nil {
			return false
		}
	}
	return considered > 0 && visible
}

// unwrapAll removes each wrapper, keeping its children, and restores the selection by text position
func unwrapAll(ctx *Context, wrappers []*html.Node, r dom.Range) Result {
	if len(wrappers) == 0 {
		return unchanged()
	}
	bookmark := dom.NewBookmark(ctx.Root, r)
	for _, w := range wrappers {
		dom.Unwrap(w)
	}
	dom.MergeText(ctx.Root)
	return restore(ctx, bookmark, r)
}

// wrapRuns moves the selected part of every inline run into a fresh element from build.
// Blocks and runs are processed back to front so untouched boundary points stay valid.
// It returns the wrappers in document order.
func wrapRuns(ctx *Context, r dom.Range, build func() *html.Node) []*html.Node {
	root := ctx.Root
	blocks := dom.SelectedBlocks(root, r)
	if len(blocks) == 0 && !r.Collapsed() {
		// The selection may sit inside a root-level inline run
		if container := dom.CommonContainer(r); container != nil && (container == root || dom.ClosestBlock(container, root) == nil) {
			blocks = []*html.Node{root}
		}
	}

	var wrappers []*html.Node
	for i := len(blocks) - 1; i >= 0; i-- {
		block := blocks[i]
		runs := dom.InlineRuns(block)
		for j := len(runs) - 1; j >= 0; j-- {
			start, end := dom.Before(runs[j][0]), dom.After(runs[j][1])
			if dom.ComparePoints(root, r.Start, start) > 0 {
				start = r.Start
			}
			if dom.ComparePoints(root, r.End, end) < 0 {
				end = r.End
			}
			if dom.ComparePoints(root, start, end) >= 0 {
				continue
			}

			nodes, ref, err := dom.Extract(block, dom.Range{Start: start, End: end})
			if err != nil {
				ctx.logger().Debug("skipping inline run that could not be split")
				continue
			}
			if len(nodes) == 0 {
				continue
			}

			el := build()
			for _, n := range nodes {
				el.AppendChild(n)
			}
			block.InsertBefore(el, ref)
			wrappers = append([]*html.Node{el}, wrappers...)
		}
	}
	return wrappers
}

// spanning selects from the start of the first node to the end of the last
func spanning(nodes []*html.Node) dom.Range {
	first, last := nodes[0], nodes[len(nodes)-1]
	return dom.Range{
		Start: dom.Point{Node: first, Offset: 0},
		End:   dom.Point{Node: last, Offset: dom.ChildCount(last)},
	}
}

// flattenSameTag unwraps descendants of el that repeat its tag
func flattenSameTag(el *html.Node, tag string) {
	for _, nested := range dom.FindAll(el, func(n *html.Node) bool { return dom.IsElement(n, tag) }) {
		dom.Unwrap(nested)
	}
	dom.MergeText(el)
}
