package rteditor

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/normalizer"
)

var blankLines = regexp.MustCompile(`\n[ \t]*\n\s*`)

// HandlePaste inserts clipboard content at the selection, replacing highlighted content.
// An HTML payload is sanitized first; without one, text is split into paragraphs on
// blank lines, and single newlines become line breaks.
func (e *Editor) HandlePaste(htmlPayload, text string) bool {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return false
	}

	nodes := e.pasteNodes(htmlPayload, text)
	if len(nodes) == 0 {
		e.mu.Unlock()
		return false
	}

	e.flushPendingTyping()
	changed := e.insertNodes(nodes)
	var n *notification
	if changed {
		e.settleTree()
		e.snapshot()
		n = e.changeNotification()
	}
	e.mu.Unlock()

	n.send()
	return changed
}

func (e *Editor) pasteNodes(payload, text string) []*html.Node {
	if strings.TrimSpace(payload) != "" {
		clean, report := e.normalizer.NormalizeWithReport(payload)
		e.logReport(report)
		frag, err := dom.ParseFragment(clean)
		if err != nil {
			e.logger.Warn("dropping unparsable paste payload", zap.Error(err))
		} else if nodes := dom.Children(frag); len(nodes) > 0 && !dom.IsVisuallyEmpty(frag) {
			for _, n := range nodes {
				dom.Detach(n)
			}
			return nodes
		}
	}
	return e.textParagraphs(text)
}

func (e *Editor) textParagraphs(text string) []*html.Node {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	var out []*html.Node
	for _, para := range blankLines.Split(text, -1) {
		p := dom.NewElement("p", e.classes.ClassFor("p"))
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				p.AppendChild(dom.NewElement("br", ""))
			}
			if line != "" {
				p.AppendChild(dom.NewText(line))
			}
		}
		out = append(out, p)
	}
	return out
}

func (e *Editor) insertNodes(nodes []*html.Node) bool {
	root := e.root
	r := e.selection

	point := dom.Point{Node: root, Offset: dom.ChildCount(root)}
	if r.Start.Node != nil && r.End.Node != nil && dom.InRoot(root, r) {
		r = dom.Ordered(root, r)
		point = r.Start
		if !r.Collapsed() {
			p, err := dom.DeleteContents(root, r)
			if err != nil {
				e.logger.Debug("could not delete selection before paste", zap.Error(err))
				return false
			}
			point = settle(root, p)
		}
	}

	block := dom.ClosestBlock(point.Node, root)

	// a single paragraph flows into the block at the caret
	if block != nil && dom.IsContentBlock(block) && len(nodes) == 1 && dom.IsElement(nodes[0], "p") {
		if dom.IsVisuallyEmpty(block) {
			dom.RemoveChildren(block)
			point = dom.Point{Node: block, Offset: 0}
		}
		for _, c := range dom.Children(nodes[0]) {
			point = dom.InsertAtPoint(point, c)
		}
		e.selection = dom.Caret(point.Node, point.Offset)
		return true
	}

	var last *html.Node
	switch {
	case block == nil:
		for _, n := range nodes {
			point = dom.InsertAtPoint(point, n)
			last = n
		}

	case !dom.IsContentBlock(block):
		// between the blocks of a list or quote
		if dom.IsElement(block, "ul", "ol") {
			nodes = e.asListItems(nodes)
		}
		for _, n := range nodes {
			point = dom.InsertAtPoint(point, n)
			last = n
		}

	default:
		if dom.IsElement(block, "li") {
			nodes = e.asListItems(nodes)
		}
		tail, err := dom.SplitBlock(block, point)
		if err != nil {
			e.logger.Debug("could not split block for paste", zap.Error(err))
			return false
		}
		ref := block
		for _, n := range nodes {
			dom.InsertAfter(n, ref)
			ref = n
			last = n
		}
		for _, half := range []*html.Node{block, tail} {
			if dom.IsVisuallyEmpty(half) {
				dom.Detach(half)
			}
		}
	}

	if last == nil {
		return false
	}
	end := endOf(last)
	e.selection = dom.Caret(end.Node, end.Offset)
	return true
}

// asListItems turns pasted blocks into items for the list they land in
func (e *Editor) asListItems(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		switch {
		case dom.IsElement(n, "li"):
			out = append(out, n)
		case dom.IsElement(n, "ul", "ol"):
			out = append(out, e.asListItems(detachAll(dom.Children(n)))...)
		case dom.IsBlockNode(n) && dom.HasBlockDescendant(n):
			out = append(out, e.asListItems(detachAll(dom.Children(n)))...)
		case dom.IsBlockNode(n):
			out = append(out, dom.Retag(n, "li", e.classes.ClassFor("li")))
		case n.Type == html.TextNode && dom.IsBlankText(n.Data):
		default:
			li := dom.NewElement("li", e.classes.ClassFor("li"))
			li.AppendChild(n)
			out = append(out, li)
		}
	}
	return out
}

func detachAll(nodes []*html.Node) []*html.Node {
	for _, n := range nodes {
		dom.Detach(n)
	}
	return nodes
}

// settleTree normalizes the live tree after a structural insert, keeping the selection
func (e *Editor) settleTree() {
	bookmark := dom.NewBookmark(e.root, e.selection)
	report := e.normalizer.NormalizeTree(e.root, normalizer.TreeOptions{KeepMarkers: true})
	e.logReport(report)
	e.ensureDefaultBlock()
	if r, ok := bookmark.Resolve(e.root); ok {
		e.selection = r
	}
	e.repairSelection()
}
