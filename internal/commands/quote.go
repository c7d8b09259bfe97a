package commands

import (
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// toggleBlockquote unwraps the selected blocks out of their quote when the first one is
// quoted, and otherwise wraps all of them in one new quote.
func toggleBlockquote(ctx *Context, r dom.Range, _ []string) Result {
	root := ctx.Root
	blocks := dom.SelectedBlocks(root, r)
	if len(blocks) == 0 {
		return unchanged()
	}

	bookmark := dom.NewBookmark(root, r)
	if dom.ClosestOfTag(blocks[0], "blockquote", root) != nil {
		unwrapQuotes(ctx, blocks)
	} else {
		wrapInQuote(ctx, blocks)
	}
	return restore(ctx, bookmark, r)
}

func unwrapQuotes(ctx *Context, blocks []*html.Node) {
	root := ctx.Root

	type quoteGroup struct {
		quote *html.Node
		units []*html.Node
		whole bool
	}
	var groups []*quoteGroup
	byQuote := make(map[*html.Node]*quoteGroup)

	for _, block := range blocks {
		quote := dom.ClosestOfTag(block, "blockquote", root)
		if quote == nil {
			continue
		}
		group, ok := byQuote[quote]
		if !ok {
			group = &quoteGroup{quote: quote}
			byQuote[quote] = group
			groups = append(groups, group)
		}
		if block == quote {
			group.whole = true
			continue
		}
		unit := block
		for unit.Parent != quote {
			unit = unit.Parent
		}
		group.units = append(group.units, unit)
	}

	for _, group := range groups {
		quote := group.quote
		if group.whole {
			// Text directly in the quote becomes paragraphs before anything moves out
			paragraphRuns(ctx, quote)
			first, last := firstElementChild(quote), lastElementChild(quote)
			if first == nil {
				dom.Retag(quote, "p", ctx.Classes.ClassFor("p"))
				continue
			}
			liftChildren(ctx, quote, first, last)
			continue
		}
		liftChildren(ctx, quote, group.units[0], group.units[len(group.units)-1])
	}
}

// liftChildren moves the children of quote from first to last out to follow it, in order.
// Children after last move into a new quote after them; an emptied quote is removed.
func liftChildren(ctx *Context, quote, first, last *html.Node) {
	parent := quote.Parent
	anchor := quote.NextSibling

	var lifted, trailing []*html.Node
	inRun := false
	for c := quote.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c == first:
			inRun = true
			lifted = append(lifted, c)
		case inRun:
			lifted = append(lifted, c)
		case len(lifted) > 0:
			trailing = append(trailing, c)
		}
		if c == last {
			inRun = false
		}
	}

	for _, c := range lifted {
		if c.Type == html.TextNode && dom.IsBlankText(c.Data) {
			dom.Detach(c)
			continue
		}
		dom.InsertBefore(parent, c, anchor)
	}

	holder := ctx.element("blockquote")
	for _, c := range trailing {
		dom.Append(holder, c)
	}
	if !dom.IsVisuallyEmpty(holder) {
		dom.InsertBefore(parent, holder, anchor)
	}

	if dom.IsVisuallyEmpty(quote) {
		dom.Detach(quote)
	}
}

// paragraphRuns wraps every non-blank inline run directly inside block into a paragraph
func paragraphRuns(ctx *Context, block *html.Node) {
	for _, run := range dom.InlineRuns(block) {
		next := run[1].NextSibling
		p := ctx.element("p")
		for c := run[0]; c != next; {
			following := c.NextSibling
			dom.Append(p, c)
			c = following
		}
		if dom.IsVisuallyEmpty(p) && dom.FindFirst(p, func(n *html.Node) bool { return dom.IsElement(n, "br") }) == nil {
			for p.FirstChild != nil {
				dom.InsertBefore(block, p.FirstChild, next)
			}
			continue
		}
		block.InsertBefore(p, next)
	}
}

func wrapInQuote(ctx *Context, blocks []*html.Node) {
	root := ctx.Root

	marked := make(map[*html.Node]bool)
	var candidates []*html.Node
	for _, block := range blocks {
		unit := block
		if dom.IsElement(block, "li") {
			for p := block; p != nil && p != root; p = p.Parent {
				if policy.IsList(dom.Tag(p)) {
					unit = p
				}
			}
		}
		if !marked[unit] {
			marked[unit] = true
			candidates = append(candidates, unit)
		}
	}

	var units []*html.Node
	for _, unit := range candidates {
		if !hasMarkedAncestor(unit, marked) {
			units = append(units, unit)
		}
	}
	if len(units) == 0 {
		return
	}

	quote := ctx.element("blockquote")
	dom.InsertBefore(units[0].Parent, quote, units[0])
	for _, unit := range units {
		tag := dom.Tag(unit)
		if tag != "p" && !policy.IsList(tag) {
			unit = dom.Retag(unit, "p", ctx.Classes.ClassFor("p"))
		}
		dom.Append(quote, unit)
	}
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
