package commands

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// link creates, updates or removes a link. Args: url, optional text for a collapsed caret.
func link(ctx *Context, r dom.Range, args []string) Result {
	root := ctx.Root
	url, text := arg(args, 0), arg(args, 1)

	if existing := dom.ClosestOfTag(r.Start.Node, "a", root); existing != nil {
		if url == "" {
			return unwrapAll(ctx, []*html.Node{existing}, r)
		}
		if !policy.IsSafeLinkURL(url) {
			ctx.logger().Debug("rejected link URL", zap.String("url", url))
			return unchanged()
		}
		dom.SetAttr(existing, "href", url)
		return changed(r)
	}

	if url == "" {
		return unchanged()
	}
	if !policy.IsSafeLinkURL(url) {
		ctx.logger().Debug("rejected link URL", zap.String("url", url))
		return unchanged()
	}

	if r.Collapsed() {
		if text == "" {
			text = url
		}
		a := newLink(ctx, url)
		a.AppendChild(dom.NewText(text))
		after := insertInline(ctx, r.Start, a)
		return changed(dom.Range{Start: after, End: after})
	}

	links := wrapRuns(ctx, r, func() *html.Node { return newLink(ctx, url) })
	if len(links) == 0 {
		return unchanged()
	}
	for _, a := range links {
		flattenSameTag(a, "a")
	}
	return changed(spanning(links))
}

func newLink(ctx *Context, url string) *html.Node {
	a := ctx.element("a")
	dom.SetAttr(a, "href", url)
	if ctx.LinkTarget != "" {
		dom.SetAttr(a, "target", ctx.LinkTarget)
	}
	if ctx.LinkRel != "" {
		dom.SetAttr(a, "rel", ctx.LinkRel)
	}
	return a
}

// insertInline places an inline node at p. Outside any block it gets a paragraph of its own,
// keeping the root free of bare inline content.
func insertInline(ctx *Context, p dom.Point, n *html.Node) dom.Point {
	block := dom.ClosestBlock(p.Node, ctx.Root)
	if block != nil {
		if point, ok := dom.ContentPoint(ctx.Root, p); ok {
			return dom.InsertAtPoint(point, n)
		}
	}
	para := ctx.element("p")
	para.AppendChild(n)
	if block != nil {
		// a list or quote with no blocks to hold it
		dom.InsertAfter(para, block)
	} else {
		dom.InsertAtPoint(p, para)
	}
	return dom.After(n)
}

// image inserts an image in its own paragraph. Args: src, optional alt.
func image(ctx *Context, r dom.Range, args []string) Result {
	src, alt := arg(args, 0), arg(args, 1)
	if !policy.IsSafeImageURL(src) {
		ctx.logger().Debug("rejected image URL", zap.String("src", src))
		return unchanged()
	}

	img := ctx.element("img")
	dom.SetAttr(img, "src", src)
	dom.SetAttr(img, "alt", alt)

	block := dom.ClosestBlock(r.Start.Node, ctx.Root)
	switch {
	case block == nil:
		insertInline(ctx, r.Start, img)
	case dom.IsElement(block, "li"):
		// the start lies in this item; the end may not
		dom.InsertAtPoint(r.Start, img)
	default:
		// Walk up to the block that sits directly in a container holding blocks
		for block.Parent != ctx.Root && !dom.IsElement(block.Parent, "blockquote", "li") {
			block = block.Parent
		}
		p := ctx.element("p")
		p.AppendChild(img)
		dom.InsertAfter(p, block)
	}
	return changed(dom.Caret(img.Parent, dom.ChildIndex(img)+1))
}
