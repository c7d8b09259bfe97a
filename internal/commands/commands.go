package commands

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// Name identifies an editor command as the toolbar sends it
type Name string

const (
	Bold            Name = "bold"
	Italic          Name = "italic"
	Underline       Name = "underline"
	Strikethrough   Name = "strikethrough"
	Heading1        Name = "h1"
	Heading2        Name = "h2"
	Heading3        Name = "h3"
	Heading4        Name = "h4"
	Paragraph       Name = "paragraph"
	UnorderedList   Name = "unorderedList"
	OrderedList     Name = "orderedList"
	Blockquote      Name = "blockquote"
	CodeBlock       Name = "codeBlock"
	Link            Name = "link"
	Image           Name = "image"
	ClearFormatting Name = "clearFormatting"
	IndentList      Name = "indentList"
	OutdentList     Name = "outdentList"
	Undo            Name = "undo"
	Redo            Name = "redo"
)

var names = []Name{
	Bold, Italic, Underline, Strikethrough,
	Heading1, Heading2, Heading3, Heading4, Paragraph,
	UnorderedList, OrderedList, Blockquote, CodeBlock,
	Link, Image, ClearFormatting, IndentList, OutdentList,
	Undo, Redo,
}

var (
	// ErrUnknownCommand is returned for names outside the command set
	ErrUnknownCommand = errors.New("unknown command")

	// ErrHistoryCommand is returned for undo/redo, which operate on history rather than the tree
	ErrHistoryCommand = errors.New("history command")
)

// Names returns every known command name
func Names() []Name {
	return append([]Name(nil), names...)
}

// Parse maps a command string onto a Name
func Parse(s string) (Name, bool) {
	for _, n := range names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// IsHistory reports whether the command is undo or redo
func (n Name) IsHistory() bool {
	return n == Undo || n == Redo
}

// Context carries what a command needs besides the selection
type Context struct {
	Root    *html.Node
	Classes policy.ClassMap
	Logger  *zap.Logger

	// LinkTarget and LinkRel are set on newly created links when non-empty
	LinkTarget string
	LinkRel    string
}

func (c *Context) element(tag string) *html.Node {
	return dom.NewElement(tag, c.Classes.ClassFor(tag))
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Result describes the outcome of a command
type Result struct {
	// Changed is false when the command was a no-op
	Changed bool

	// Selection is the post-command selection; nil leaves the caller's selection alone
	Selection *dom.Range
}

func unchanged() Result {
	return Result{}
}

func changed(r dom.Range) Result {
	return Result{Changed: true, Selection: &r}
}

// Func is a single command. It mutates ctx.Root in place.
type Func func(ctx *Context, r dom.Range, args []string) Result

// Lookup returns the function implementing a tree command
func Lookup(name Name) (Func, bool) {
	switch name {
	case Bold:
		return toggleInline("strong"), true
	case Italic:
		return toggleInline("em"), true
	case Underline:
		return toggleInline("u"), true
	case Strikethrough:
		return toggleInline("s"), true
	case Heading1:
		return setBlockType("h1"), true
	case Heading2:
		return setBlockType("h2"), true
	case Heading3:
		return setBlockType("h3"), true
	case Heading4:
		return setBlockType("h4"), true
	case Paragraph:
		return setBlockType("p"), true
	case UnorderedList:
		return toggleList("ul"), true
	case OrderedList:
		return toggleList("ol"), true
	case Blockquote:
		return toggleBlockquote, true
	case CodeBlock:
		return toggleCodeBlock, true
	case Link:
		return link, true
	case Image:
		return image, true
	case ClearFormatting:
		return clearFormatting, true
	case IndentList:
		return indentList, true
	case OutdentList:
		return outdentList, true
	}
	return nil, false
}

// Run executes a tree command against the selection r.
// A selection outside ctx.Root, or missing, makes every command a no-op.
func Run(ctx *Context, name Name, r dom.Range, args ...string) (Result, error) {
	if name.IsHistory() {
		return unchanged(), ErrHistoryCommand
	}
	fn, ok := Lookup(name)
	if !ok {
		return unchanged(), fmt.Errorf("%w: %q", ErrUnknownCommand, string(name))
	}

	r, ok = prepare(ctx, r)
	if !ok {
		ctx.logger().Debug("command ignored without a selection inside the root", zap.String("command", string(name)))
		return unchanged(), nil
	}
	return fn(ctx, r, args), nil
}

// prepare validates r against the root and returns it ordered and clamped
func prepare(ctx *Context, r dom.Range) (dom.Range, bool) {
	if ctx == nil || ctx.Root == nil || r.Start.Node == nil || r.End.Node == nil {
		return dom.Range{}, false
	}
	if !dom.InRoot(ctx.Root, r) {
		return dom.Range{}, false
	}
	return dom.Ordered(ctx.Root, dom.Clamp(r)), true
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// restore resolves a bookmark, falling back to the original range when it no longer resolves
func restore(ctx *Context, bookmark *dom.Bookmark, fallback dom.Range) Result {
	if r, ok := bookmark.Resolve(ctx.Root); ok {
		return changed(r)
	}
	if dom.InRoot(ctx.Root, fallback) {
		return changed(fallback)
	}
	return Result{Changed: true}
}
