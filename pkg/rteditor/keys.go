package rteditor

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/commands"
	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// Key is a key press as the host reports it
type Key struct {
	Name  string // "b", "z", "Enter", ...
	Ctrl  bool
	Meta  bool
	Shift bool
}

var shortcuts = map[string]commands.Name{
	"b": commands.Bold,
	"i": commands.Italic,
	"u": commands.Underline,
	"z": commands.Undo,
}

// HandleKey runs the editor's keyboard behavior and reports whether the key was consumed,
// in which case the host must not apply its default action.
func (e *Editor) HandleKey(k Key) bool {
	name := strings.ToLower(k.Name)
	modifier := k.Ctrl || k.Meta

	switch {
	case modifier && !k.Shift:
		if cmd, ok := shortcuts[name]; ok {
			e.Execute(string(cmd))
			return true
		}
	case modifier && k.Shift && name == "z":
		e.Execute(string(commands.Redo))
		return true
	case name == "enter" && !k.Shift:
		e.HandleEnter()
		return true
	}
	return false
}

// HandleEnter splits the block at the caret, deleting any highlighted content first.
// Enter in an empty list item or an empty quoted block leaves the list or quote.
func (e *Editor) HandleEnter() bool {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return false
	}
	e.flushPendingTyping()
	changed := e.enter()
	var n *notification
	if changed {
		e.repairSelection()
		e.snapshot()
		n = e.changeNotification()
	}
	e.mu.Unlock()

	n.send()
	return changed
}

func (e *Editor) enter() bool {
	root := e.root
	r := e.selection
	if r.Start.Node == nil || r.End.Node == nil || !dom.InRoot(root, r) {
		return false
	}
	r = dom.Ordered(root, r)

	point := r.Start
	if !r.Collapsed() {
		p, err := dom.DeleteContents(root, r)
		if err != nil {
			e.logger.Debug("could not delete selection before split", zap.Error(err))
			return false
		}
		point = settle(root, p)
	}

	block := dom.ClosestBlock(point.Node, root)
	if block == nil {
		p := e.emptyParagraph()
		root.AppendChild(p)
		e.selection = dom.Caret(p, 0)
		return true
	}

	if dom.IsElement(block, "li") && dom.IsVisuallyEmpty(block) {
		return e.leaveList(block)
	}
	if quote := dom.ClosestOfTag(block, "blockquote", root); quote != nil &&
		(block == quote || block.Parent == quote) && dom.IsVisuallyEmpty(block) {
		return e.leaveQuote(block)
	}

	tail, err := dom.SplitBlock(block, point)
	if err != nil {
		e.logger.Debug("could not split block", zap.Error(err))
		return false
	}
	if policy.IsHeading(dom.Tag(block)) && dom.IsVisuallyEmpty(tail) {
		// headings don't chain
		tail = dom.Retag(tail, "p", e.classes.ClassFor("p"))
	}
	dom.EnsurePlaceholder(block)
	dom.EnsurePlaceholder(tail)
	e.selection = caretAtStart(root, tail)
	return true
}

// leaveList turns an empty item into a paragraph right after its list. The other items
// stay together in the list, which goes away once empty. An empty item of a nested list
// moves up one level instead.
func (e *Editor) leaveList(li *html.Node) bool {
	list := li.Parent
	if dom.IsElement(list.Parent, "li") {
		for c := li.FirstChild; c != nil; {
			next := c.NextSibling
			if !dom.IsBlockNode(c) {
				dom.Detach(c)
			}
			c = next
		}
		li.InsertBefore(dom.NewElement("br", ""), li.FirstChild)

		result, err := commands.Run(e.commandContext(), commands.OutdentList, dom.Caret(li, 0))
		if err != nil || !result.Changed {
			return false
		}
		if result.Selection != nil {
			e.selection = *result.Selection
		}
		return true
	}

	p := e.emptyParagraph()
	dom.InsertAfter(p, list)
	dom.Detach(li)
	if dom.FindFirst(list, func(n *html.Node) bool { return dom.IsElement(n, "li") }) == nil {
		dom.Detach(list)
	}
	e.selection = dom.Caret(p, 0)
	return true
}

// leaveQuote moves an empty block out of its quote, splitting the quote when the block
// sat in its middle.
func (e *Editor) leaveQuote(block *html.Node) bool {
	result, err := commands.Run(e.commandContext(), commands.Blockquote, dom.Caret(block, 0))
	if err != nil || !result.Changed {
		return false
	}
	if block.Parent != nil && dom.Contains(e.root, block) {
		dom.EnsurePlaceholder(block)
		e.selection = caretAtStart(e.root, block)
		return true
	}
	if result.Selection != nil {
		e.selection = *result.Selection
	}
	return true
}

// settle moves a point left between two blocks into the block before it. When the
// deletion cut through two leaf blocks, their remains are joined back into one.
func settle(root *html.Node, p dom.Point) dom.Point {
	if p.Node == nil || p.Node.Type != html.ElementNode || (dom.IsContentBlock(p.Node) && p.Node != root) {
		return p
	}
	prev := dom.ChildAt(p.Node, p.Offset-1)
	next := dom.ChildAt(p.Node, p.Offset)
	switch {
	case dom.IsBlockNode(prev) && dom.IsBlockNode(next):
		joint := endOf(prev)
		if !dom.HasBlockDescendant(prev) && !dom.HasBlockDescendant(next) {
			dom.MoveChildren(prev, next)
			dom.Detach(next)
		}
		return joint
	case dom.IsBlockNode(prev):
		return endOf(prev)
	case dom.IsBlockNode(next):
		return caretAtStart(root, next).Start
	}
	return p
}

// endOf returns the last caret position inside n
func endOf(n *html.Node) dom.Point {
	var last *html.Node
	for _, t := range dom.FindAll(n, dom.IsText) {
		last = t
	}
	if last != nil {
		return dom.Point{Node: last, Offset: dom.TextLen(last)}
	}
	return dom.Point{Node: n, Offset: dom.ChildCount(n)}
}
