package commands

import (
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// leafBlocks returns the selected blocks that hold no other block, excluding list items
func leafBlocks(root *html.Node, r dom.Range) []*html.Node {
	var out []*html.Node
	for _, block := range dom.SelectedBlocks(root, r) {
		if dom.IsElement(block, "li") || dom.HasBlockDescendant(block) {
			continue
		}
		out = append(out, block)
	}
	return out
}

func setBlockType(tag string) Func {
	return func(ctx *Context, r dom.Range, _ []string) Result {
		blocks := leafBlocks(ctx.Root, r)
		if len(blocks) == 0 {
			return unchanged()
		}

		target := tag
		if dom.Tag(blocks[0]) == tag {
			target = "p"
		}

		saved := dom.Save(ctx.Root, r)
		converted := false
		for _, block := range blocks {
			if dom.Tag(block) == target {
				continue
			}
			dom.Retag(block, target, ctx.Classes.ClassFor(target))
			converted = true
		}
		if !converted {
			return unchanged()
		}

		if restored, ok := dom.Restore(ctx.Root, saved); ok {
			return changed(restored)
		}
		return Result{Changed: true}
	}
}

// toggleCodeBlock turns the selected blocks into <pre><code> holding their text, or back
// into paragraphs when the first one already is a code block.
func toggleCodeBlock(ctx *Context, r dom.Range, _ []string) Result {
	blocks := leafBlocks(ctx.Root, r)
	if len(blocks) == 0 {
		return unchanged()
	}

	bookmark := dom.NewBookmark(ctx.Root, r)
	toParagraph := dom.Tag(blocks[0]) == "pre"
	for _, block := range blocks {
		text := dom.TextContent(block)
		if toParagraph {
			if dom.Tag(block) != "pre" {
				continue
			}
			p := ctx.element("p")
			if text != "" {
				p.AppendChild(dom.NewText(text))
			}
			dom.EnsurePlaceholder(p)
			dom.ReplaceWith(block, p)
			continue
		}

		if dom.Tag(block) == "pre" {
			continue
		}
		pre := ctx.element("pre")
		code := ctx.element("code")
		if text != "" {
			code.AppendChild(dom.NewText(text))
		} else {
			code.AppendChild(dom.NewElement("br", ""))
		}
		pre.AppendChild(code)
		dom.ReplaceWith(block, pre)
	}
	return restore(ctx, bookmark, r)
}

// clearFormatting rebuilds each selected block as a plain paragraph. Line breaks, links,
// images and code spans are copied verbatim; other inline formatting is unwrapped.
// List items are lifted out of their list, splitting it around them.
func clearFormatting(ctx *Context, r dom.Range, _ []string) Result {
	root := ctx.Root
	blocks := dom.SelectedBlocks(root, r)
	if len(blocks) == 0 {
		return unchanged()
	}
	bookmark := dom.NewBookmark(root, r)

	var items []*html.Node
	for _, block := range blocks {
		switch {
		case dom.IsElement(block, "li"):
			items = append(items, block)
		case dom.HasBlockDescendant(block):
			clearRuns(ctx, block)
		default:
			dom.ReplaceWith(block, cleanParagraph(ctx, block))
		}
	}
	for _, group := range groupByList(items) {
		liftItems(ctx, group.list, group.items, func(li *html.Node) *html.Node {
			return cleanParagraph(ctx, li)
		})
	}

	dom.MergeText(root)
	return restore(ctx, bookmark, r)
}

// cleanParagraph builds a paragraph holding the inline content of src with formatting removed
func cleanParagraph(ctx *Context, src *html.Node) *html.Node {
	p := ctx.element("p")
	copyClean(p, src)
	dom.MergeText(p)
	dom.EnsurePlaceholder(p)
	return p
}

// clearRuns replaces each inline run of a block that also holds blocks with a clean paragraph
func clearRuns(ctx *Context, block *html.Node) {
	for _, run := range dom.InlineRuns(block) {
		next := run[1].NextSibling
		holder := dom.NewElement("div", "")
		for c := run[0]; c != next; {
			following := c.NextSibling
			dom.Append(holder, c)
			c = following
		}
		if dom.IsVisuallyEmpty(holder) {
			// whitespace between blocks stays as it was
			for holder.FirstChild != nil {
				dom.InsertBefore(block, holder.FirstChild, next)
			}
			continue
		}
		block.InsertBefore(cleanParagraph(ctx, holder), next)
	}
}

func copyClean(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			dst.AppendChild(dom.NewText(c.Data))
		case c.Type != html.ElementNode:
			continue
		case policy.IsOpaqueInline(dom.Tag(c)):
			dst.AppendChild(dom.CloneDeep(c))
		case dom.IsBlockNode(c):
			// nested blocks are handled by the caller
		default:
			copyClean(dst, c)
		}
	}
}
