package commands

import (
	"golang.org/x/net/html"

	"rteditor/internal/dom"
)

type listGroup struct {
	list  *html.Node
	items []*html.Node
}

// groupByList groups list items by their parent list, in document order
func groupByList(items []*html.Node) []listGroup {
	var groups []listGroup
	index := make(map[*html.Node]int)
	for _, li := range items {
		list := li.Parent
		if list == nil {
			continue
		}
		i, ok := index[list]
		if !ok {
			i = len(groups)
			index[list] = i
			groups = append(groups, listGroup{list: list})
		}
		groups[i].items = append(groups[i].items, li)
	}
	return groups
}

func toggleList(listTag string) Func {
	return func(ctx *Context, r dom.Range, _ []string) Result {
		blocks := dom.SelectedBlocks(ctx.Root, r)
		if len(blocks) == 0 {
			return unchanged()
		}

		allItems, allTarget := true, true
		for _, block := range blocks {
			if !dom.IsElement(block, "li") {
				allItems = false
				break
			}
			if dom.Tag(block.Parent) != listTag {
				allTarget = false
			}
		}

		bookmark := dom.NewBookmark(ctx.Root, r)
		switch {
		case allItems && allTarget:
			for _, group := range groupByList(blocks) {
				liftItems(ctx, group.list, group.items, func(li *html.Node) *html.Node {
					return itemParagraph(ctx, li)
				})
			}
		case allItems:
			switched := make(map[*html.Node]bool)
			for _, block := range blocks {
				list := block.Parent
				if switched[list] || dom.Tag(list) == listTag {
					continue
				}
				switched[list] = true
				dom.Retag(list, listTag, ctx.Classes.ClassFor(listTag))
			}
		default:
			if !wrapInLists(ctx, blocks, listTag) {
				return unchanged()
			}
		}
		return restore(ctx, bookmark, r)
	}
}

// itemParagraph moves the inline content of a list item into a new paragraph
func itemParagraph(ctx *Context, li *html.Node) *html.Node {
	p := ctx.element("p")
	for c := li.FirstChild; c != nil; {
		next := c.NextSibling
		if !dom.IsBlockNode(c) {
			dom.Append(p, c)
		}
		c = next
	}
	dom.EnsurePlaceholder(p)
	return p
}

// liftItems replaces the run of items (first to last) in list with the blocks built by convert,
// placed right after the list in their original order. Items after the run move into a new
// list of the same type after them; nested blocks of a lifted item follow its paragraph.
func liftItems(ctx *Context, list *html.Node, items []*html.Node, convert func(li *html.Node) *html.Node) {
	if len(items) == 0 || list.Parent == nil {
		return
	}
	parent := list.Parent
	anchor := list.NextSibling
	first, last := items[0], items[len(items)-1]

	var lifted, trailing []*html.Node
	inRun := false
	for c := list.FirstChild; c != nil; c = c.NextSibling {
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
		if !dom.IsElement(c, "li") {
			dom.Detach(c)
			continue
		}
		p := convert(c)
		dom.InsertBefore(parent, p, anchor)
		for _, nested := range dom.Children(c) {
			if dom.IsBlockNode(nested) {
				dom.InsertBefore(parent, nested, anchor)
			}
		}
		dom.Detach(c)
	}

	if hasItems(trailing) {
		tail := ctx.element(dom.Tag(list))
		for _, c := range trailing {
			dom.Append(tail, c)
		}
		dom.InsertBefore(parent, tail, anchor)
	} else {
		for _, c := range trailing {
			dom.Detach(c)
		}
	}

	if !hasItems(dom.Children(list)) {
		dom.Detach(list)
	}
}

func hasItems(nodes []*html.Node) bool {
	for _, n := range nodes {
		if dom.IsElement(n, "li") {
			return true
		}
	}
	return false
}

// wrapInLists wraps each run of contiguous sibling blocks (list items excluded) in a new list.
// A run right after a list of the same type joins that list instead.
func wrapInLists(ctx *Context, blocks []*html.Node, listTag string) bool {
	candidates := make(map[*html.Node]bool)
	for _, block := range blocks {
		if !dom.IsElement(block, "li") {
			candidates[block] = true
		}
	}

	var units []*html.Node
	for _, block := range blocks {
		if !candidates[block] || hasMarkedAncestor(block, candidates) {
			continue
		}
		units = append(units, block)
	}
	if len(units) == 0 {
		return false
	}

	var runs [][]*html.Node
	for _, unit := range units {
		if n := len(runs); n > 0 {
			prev := runs[n-1][len(runs[n-1])-1]
			if nextElement(prev) == unit {
				runs[n-1] = append(runs[n-1], unit)
				continue
			}
		}
		runs = append(runs, []*html.Node{unit})
	}

	for _, run := range runs {
		list := previousElement(run[0])
		if !dom.IsElement(list, listTag) {
			list = ctx.element(listTag)
			dom.InsertBefore(run[0].Parent, list, run[0])
		}
		for _, block := range run {
			li := ctx.element("li")
			dom.MoveChildren(li, block)
			dom.EnsurePlaceholder(li)
			list.AppendChild(li)
			dom.Detach(block)
		}
	}
	return true
}

func hasMarkedAncestor(n *html.Node, marked map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if marked[p] {
			return true
		}
	}
	return false
}

// nextElement returns the next sibling element, skipping whitespace text
func nextElement(n *html.Node) *html.Node {
	for c := n.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
		if c.Type == html.TextNode && !dom.IsBlankText(c.Data) {
			return nil
		}
	}
	return nil
}

// previousElement returns the previous sibling element, skipping whitespace text
func previousElement(n *html.Node) *html.Node {
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
		if c.Type == html.TextNode && !dom.IsBlankText(c.Data) {
			return nil
		}
	}
	return nil
}

// itemRun returns the list item holding the selection start plus the following sibling
// items the selection reaches.
func itemRun(root *html.Node, r dom.Range) []*html.Node {
	li := dom.ClosestOfTag(r.Start.Node, "li", root)
	if li == nil || !dom.IsElement(li.Parent, "ul", "ol") {
		return nil
	}

	selected := dom.SelectedBlocks(root, r)
	reaches := func(item *html.Node) bool {
		for _, block := range selected {
			if dom.Contains(item, block) {
				return true
			}
		}
		return false
	}

	run := []*html.Node{li}
	for next := nextElement(li); dom.IsElement(next, "li") && reaches(next); next = nextElement(next) {
		run = append(run, next)
	}
	return run
}

// indentList nests the selected items under their previous sibling item
func indentList(ctx *Context, r dom.Range, _ []string) Result {
	items := itemRun(ctx.Root, r)
	if len(items) == 0 {
		return unchanged()
	}
	prev := previousElement(items[0])
	if !dom.IsElement(prev, "li") {
		return unchanged()
	}

	bookmark := dom.NewBookmark(ctx.Root, r)
	listTag := dom.Tag(items[0].Parent)
	target := lastElementChild(prev)
	if !dom.IsElement(target, listTag) {
		target = ctx.element(listTag)
		prev.AppendChild(target)
	}
	for _, item := range items {
		if dom.Contains(item, target) {
			return unchanged()
		}
	}

	for _, item := range items {
		dom.Append(target, item)
	}
	return restore(ctx, bookmark, r)
}

// outdentList lifts the selected items of a nested list out to follow the parent item
func outdentList(ctx *Context, r dom.Range, _ []string) Result {
	items := itemRun(ctx.Root, r)
	if len(items) == 0 {
		return unchanged()
	}
	list := items[0].Parent
	parentItem := list.Parent
	if !dom.IsElement(parentItem, "li") || !dom.IsElement(parentItem.Parent, "ul", "ol") {
		return unchanged()
	}
	grand := parentItem.Parent

	bookmark := dom.NewBookmark(ctx.Root, r)
	last := items[len(items)-1]
	var trailing []*html.Node
	for c := last.NextSibling; c != nil; c = c.NextSibling {
		trailing = append(trailing, c)
	}

	anchor := parentItem.NextSibling
	for _, item := range items {
		dom.InsertBefore(grand, item, anchor)
	}
	if hasItems(trailing) {
		sub := ctx.element(dom.Tag(list))
		for _, c := range trailing {
			dom.Append(sub, c)
		}
		last.AppendChild(sub)
	}
	if !hasItems(dom.Children(list)) {
		dom.Detach(list)
	}
	return restore(ctx, bookmark, r)
}

func lastElementChild(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
