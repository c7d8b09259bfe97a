package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

func setup(t *testing.T, content string) *Context {
	t.Helper()
	root, err := dom.ParseFragment(content)
	require.NoError(t, err)
	return &Context{Root: root, Classes: policy.ClassMap{}}
}

func findText(t *testing.T, root *html.Node, s string) *html.Node {
	t.Helper()
	n := dom.FindFirst(root, func(n *html.Node) bool { return dom.IsText(n) && strings.Contains(n.Data, s) })
	require.NotNil(t, n, "text %q not found", s)
	return n
}

// selectText selects the first occurrence of s inside a single text node
func selectText(t *testing.T, root *html.Node, s string) dom.Range {
	t.Helper()
	n := findText(t, root, s)
	start := len([]rune(n.Data[:strings.Index(n.Data, s)]))
	return dom.Range{
		Start: dom.Point{Node: n, Offset: start},
		End:   dom.Point{Node: n, Offset: start + len([]rune(s))},
	}
}

// selectAcross selects from the start of the text holding from to the end of the text holding to
func selectAcross(t *testing.T, root *html.Node, from, to string) dom.Range {
	t.Helper()
	start := findText(t, root, from)
	end := findText(t, root, to)
	return dom.Range{
		Start: dom.Point{Node: start, Offset: 0},
		End:   dom.Point{Node: end, Offset: dom.TextLen(end)},
	}
}

func caretIn(t *testing.T, root *html.Node, s string) dom.Range {
	t.Helper()
	return dom.Caret(findText(t, root, s), 0)
}

func run(t *testing.T, ctx *Context, name Name, r dom.Range, args ...string) Result {
	t.Helper()
	result, err := Run(ctx, name, r, args...)
	require.NoError(t, err)
	return result
}

func TestBoldRoundTrip(t *testing.T) {
	ctx := setup(t, `<p><strong>bold</strong> text</p>`)

	result := run(t, ctx, Bold, selectText(t, ctx.Root, "bold"))
	require.True(t, result.Changed)
	assert.Equal(t, `<p>bold text</p>`, dom.InnerHTML(ctx.Root))
	require.NotNil(t, result.Selection)
	assert.Equal(t, "bold", dom.RangeText(ctx.Root, *result.Selection))

	result = run(t, ctx, Bold, *result.Selection)
	require.True(t, result.Changed)
	assert.Equal(t, `<p><strong>bold</strong> text</p>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, "bold", dom.RangeText(ctx.Root, *result.Selection))
}

func TestBoldMixedSelectionFormatsUniformly(t *testing.T) {
	ctx := setup(t, `<p><strong>Bold</strong> normal</p>`)
	boldText := findText(t, ctx.Root, "Bold")
	normalText := findText(t, ctx.Root, " normal")

	result := run(t, ctx, Bold, dom.Range{
		Start: dom.Point{Node: boldText, Offset: 2},
		End:   dom.Point{Node: normalText, Offset: 4},
	})

	require.True(t, result.Changed)
	assert.Equal(t, `<p><strong>Bo</strong><strong>ld nor</strong>mal</p>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, "ld nor", dom.RangeText(ctx.Root, *result.Selection))
	assert.Equal(t, "Bold normal", dom.TextContent(ctx.Root))
}

func TestBoldAcrossBlocks(t *testing.T) {
	ctx := setup(t, `<p>one</p><p>two</p>`)

	run(t, ctx, Bold, selectAcross(t, ctx.Root, "one", "two"))
	assert.Equal(t, `<p><strong>one</strong></p><p><strong>two</strong></p>`, dom.InnerHTML(ctx.Root))
}

func TestCollapsedInlineInsertsMarker(t *testing.T) {
	ctx := setup(t, `<p>ab</p>`)
	text := findText(t, ctx.Root, "ab")

	result := run(t, ctx, Italic, dom.Caret(text, 1))
	assert.Equal(t, `<p>a<em>`+policy.ZeroWidthMarker+`</em>b</p>`, dom.InnerHTML(ctx.Root))
	require.NotNil(t, result.Selection)
	assert.Equal(t, policy.ZeroWidthMarker, result.Selection.Start.Node.Data)
	assert.Equal(t, 1, result.Selection.Start.Offset)

	// toggling again at the caret unwraps the empty wrapper
	run(t, ctx, Italic, *result.Selection)
	assert.NotContains(t, dom.InnerHTML(ctx.Root), "<em>")
}

func TestWhitespaceOnlySelectionIsNotFormatted(t *testing.T) {
	ctx := setup(t, `<p><u>a</u><u> </u>b</p>`)
	space := dom.FindFirst(ctx.Root, func(n *html.Node) bool { return dom.IsText(n) && n.Data == " " })
	require.NotNil(t, space)

	run(t, ctx, Underline, dom.Range{Start: dom.Point{Node: space, Offset: 0}, End: dom.Point{Node: space, Offset: 1}})
	// applying keeps the space underlined instead of stripping it
	assert.Equal(t, `<p><u>a</u><u> </u>b</p>`, dom.InnerHTML(ctx.Root))
}

func TestSetBlockType(t *testing.T) {
	ctx := setup(t, `<p>Title</p>`)

	result := run(t, ctx, Heading2, caretIn(t, ctx.Root, "Title"))
	require.True(t, result.Changed)
	assert.Equal(t, `<h2>Title</h2>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, "Title", result.Selection.Start.Node.Data)

	run(t, ctx, Heading2, caretIn(t, ctx.Root, "Title"))
	assert.Equal(t, `<p>Title</p>`, dom.InnerHTML(ctx.Root))
}

func TestSetBlockTypeMultipleBlocks(t *testing.T) {
	ctx := setup(t, `<p>A</p><h3>B</h3>`)

	run(t, ctx, Heading1, selectAcross(t, ctx.Root, "A", "B"))
	assert.Equal(t, `<h1>A</h1><h1>B</h1>`, dom.InnerHTML(ctx.Root))
}

func TestSetBlockTypeSkipsListItems(t *testing.T) {
	ctx := setup(t, `<ul><li>x</li></ul>`)

	result := run(t, ctx, Heading1, caretIn(t, ctx.Root, "x"))
	assert.False(t, result.Changed)
	assert.Equal(t, `<ul><li>x</li></ul>`, dom.InnerHTML(ctx.Root))
}

func TestListWrap(t *testing.T) {
	ctx := setup(t, `<p>A</p><p>B</p><h2>Head</h2>`)

	result := run(t, ctx, UnorderedList, selectAcross(t, ctx.Root, "A", "B"))
	require.True(t, result.Changed)
	assert.Equal(t, `<ul><li>A</li><li>B</li></ul><h2>Head</h2>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, "AB", dom.RangeText(ctx.Root, *result.Selection))
}

func TestListWrapJoinsPreviousList(t *testing.T) {
	ctx := setup(t, `<ol><li>A</li></ol><p>B</p>`)

	run(t, ctx, OrderedList, caretIn(t, ctx.Root, "B"))
	assert.Equal(t, `<ol><li>A</li><li>B</li></ol>`, dom.InnerHTML(ctx.Root))
}

func TestListUnwrapPreservesOrder(t *testing.T) {
	ctx := setup(t, `<ul><li>A</li><li>B</li><li>C</li></ul><p>After</p>`)

	run(t, ctx, UnorderedList, selectAcross(t, ctx.Root, "A", "C"))
	assert.Equal(t, `<p>A</p><p>B</p><p>C</p><p>After</p>`, dom.InnerHTML(ctx.Root))
}

func TestListUnwrapMiddleItemSplitsList(t *testing.T) {
	ctx := setup(t, `<ul><li>1</li><li>2</li><li>3</li></ul>`)

	run(t, ctx, UnorderedList, caretIn(t, ctx.Root, "2"))
	assert.Equal(t, `<ul><li>1</li></ul><p>2</p><ul><li>3</li></ul>`, dom.InnerHTML(ctx.Root))
}

func TestListUnwrapKeepsNestedList(t *testing.T) {
	ctx := setup(t, `<ul><li>A<ul><li>B</li></ul></li></ul>`)

	run(t, ctx, UnorderedList, caretIn(t, ctx.Root, "A"))
	assert.Equal(t, `<p>A</p><ul><li>B</li></ul>`, dom.InnerHTML(ctx.Root))
}

func TestListSwitch(t *testing.T) {
	ctx := setup(t, `<ul><li>A</li><li>B</li></ul>`)

	result := run(t, ctx, OrderedList, caretIn(t, ctx.Root, "A"))
	require.True(t, result.Changed)
	assert.Equal(t, `<ol><li>A</li><li>B</li></ol>`, dom.InnerHTML(ctx.Root))
}

func TestBlockquoteWrap(t *testing.T) {
	ctx := setup(t, `<p>A</p><h2>B</h2><ul><li>C</li></ul>`)

	run(t, ctx, Blockquote, selectAcross(t, ctx.Root, "A", "C"))
	assert.Equal(t, `<blockquote><p>A</p><p>B</p><ul><li>C</li></ul></blockquote>`, dom.InnerHTML(ctx.Root))
}

func TestBlockquoteUnwrapPreservesOrder(t *testing.T) {
	ctx := setup(t, `<blockquote><p>A</p><p>B</p></blockquote><p>After</p>`)

	run(t, ctx, Blockquote, selectAcross(t, ctx.Root, "A", "B"))
	assert.Equal(t, `<p>A</p><p>B</p><p>After</p>`, dom.InnerHTML(ctx.Root))
}

func TestBlockquoteUnwrapSplitsQuote(t *testing.T) {
	ctx := setup(t, `<blockquote><p>A</p><p>B</p><p>C</p></blockquote>`)

	run(t, ctx, Blockquote, caretIn(t, ctx.Root, "B"))
	assert.Equal(t, `<blockquote><p>A</p></blockquote><p>B</p><blockquote><p>C</p></blockquote>`, dom.InnerHTML(ctx.Root))
}

func TestBlockquoteWithDirectText(t *testing.T) {
	ctx := setup(t, `<blockquote>quoted</blockquote>`)

	run(t, ctx, Blockquote, caretIn(t, ctx.Root, "quoted"))
	assert.Equal(t, `<p>quoted</p>`, dom.InnerHTML(ctx.Root))
}

func TestCodeBlockToggle(t *testing.T) {
	ctx := setup(t, `<p>some <em>code</em></p>`)

	run(t, ctx, CodeBlock, caretIn(t, ctx.Root, "some"))
	assert.Equal(t, `<pre><code>some code</code></pre>`, dom.InnerHTML(ctx.Root))

	run(t, ctx, CodeBlock, caretIn(t, ctx.Root, "some"))
	assert.Equal(t, `<p>some code</p>`, dom.InnerHTML(ctx.Root))
}

func TestClearFormattingPreservesOpaqueInlines(t *testing.T) {
	ctx := setup(t, `<h2><strong>B</strong> <a href="https://x.y">l<em>i</em></a> <img src="a.png"> <code>c</code><br><u>u</u></h2>`)

	result := run(t, ctx, ClearFormatting, caretIn(t, ctx.Root, "B"))
	require.True(t, result.Changed)
	assert.Equal(t,
		`<p>B <a href="https://x.y">l<em>i</em></a> <img src="a.png"/> <code>c</code><br/>u</p>`,
		dom.InnerHTML(ctx.Root),
	)
}

func TestClearFormattingSplitsList(t *testing.T) {
	ctx := setup(t, `<ul><li>Item1</li><li><strong>Item2</strong></li><li>Item3</li></ul>`)

	run(t, ctx, ClearFormatting, caretIn(t, ctx.Root, "Item2"))
	assert.Equal(t, `<ul><li>Item1</li></ul><p>Item2</p><ul><li>Item3</li></ul>`, dom.InnerHTML(ctx.Root))
}

func TestIndentList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target string
		want   string
	}{
		{
			name:   "first item has no previous sibling",
			input:  `<ul><li>First item</li><li>Second item</li></ul>`,
			target: "First",
			want:   `<ul><li>First item</li><li>Second item</li></ul>`,
		},
		{
			name:   "second item nests under first",
			input:  `<ul><li>First item</li><li>Second item</li></ul>`,
			target: "Second",
			want:   `<ul><li>First item<ul><li>Second item</li></ul></li></ul>`,
		},
		{
			name:   "joins an existing sub-list",
			input:  `<ol><li>A<ol><li>B</li></ol></li><li>C</li></ol>`,
			target: "C",
			want:   `<ol><li>A<ol><li>B</li><li>C</li></ol></li></ol>`,
		},
		{
			name:   "sub-list of another type is left alone",
			input:  `<ul><li>A<ol><li>B</li></ol></li><li>C</li></ul>`,
			target: "C",
			want:   `<ul><li>A<ol><li>B</li></ol><ul><li>C</li></ul></li></ul>`,
		},
		{
			name:   "not inside a list",
			input:  `<p>Just a paragraph</p>`,
			target: "Just",
			want:   `<p>Just a paragraph</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setup(t, tt.input)
			run(t, ctx, IndentList, caretIn(t, ctx.Root, tt.target))
			assert.Equal(t, tt.want, dom.InnerHTML(ctx.Root))
		})
	}
}

func TestIndentNeverSelfNests(t *testing.T) {
	ctx := setup(t, `<ul><li>First</li><li>Second</li></ul>`)
	second := ctx.Root.FirstChild.LastChild

	run(t, ctx, IndentList, dom.SelectContents(second))

	first := ctx.Root.FirstChild.FirstChild
	assert.Equal(t, `<ul><li>First<ul><li>Second</li></ul></li></ul>`, dom.InnerHTML(ctx.Root))
	assert.False(t, dom.IsAncestor(second, second))
	assert.True(t, dom.IsAncestor(first, second))
	assert.False(t, dom.IsAncestor(second, first))
}

func TestIndentMultipleItems(t *testing.T) {
	ctx := setup(t, `<ul><li>A</li><li>B</li><li>C</li></ul>`)

	run(t, ctx, IndentList, selectAcross(t, ctx.Root, "B", "C"))
	assert.Equal(t, `<ul><li>A<ul><li>B</li><li>C</li></ul></li></ul>`, dom.InnerHTML(ctx.Root))
}

func TestOutdentList(t *testing.T) {
	ctx := setup(t, `<ul><li>First<ul><li>Second</li><li>Third</li></ul></li><li>Last</li></ul>`)

	run(t, ctx, OutdentList, caretIn(t, ctx.Root, "Second"))
	assert.Equal(t, `<ul><li>First</li><li>Second<ul><li>Third</li></ul></li><li>Last</li></ul>`, dom.InnerHTML(ctx.Root))

	// top-level items have nowhere to go
	result := run(t, ctx, OutdentList, caretIn(t, ctx.Root, "First"))
	assert.False(t, result.Changed)
}

func TestLinkCollapsed(t *testing.T) {
	ctx := setup(t, `<p>ab</p>`)
	ctx.LinkTarget = "_blank"
	ctx.LinkRel = "noopener noreferrer"
	text := findText(t, ctx.Root, "ab")

	result := run(t, ctx, Link, dom.Caret(text, 1), "https://example.com", "site")
	require.True(t, result.Changed)
	assert.Equal(t, `<p>a<a href="https://example.com" target="_blank" rel="noopener noreferrer">site</a>b</p>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, 2, result.Selection.Start.Offset)
}

func TestLinkCollapsedWithoutText(t *testing.T) {
	ctx := setup(t, `<p>x</p>`)

	run(t, ctx, Link, dom.Caret(findText(t, ctx.Root, "x"), 1), "https://example.com")
	assert.Equal(t, `<p>x<a href="https://example.com">https://example.com</a></p>`, dom.InnerHTML(ctx.Root))
}

func TestCaretBetweenBlocksMovesIntoContent(t *testing.T) {
	ctx := setup(t, `<ul><li>A</li></ul>`)
	list := ctx.Root.FirstChild

	result := run(t, ctx, Bold, dom.Caret(list, 0))
	require.True(t, result.Changed)
	assert.Equal(t, `<ul><li><strong>`+policy.ZeroWidthMarker+`</strong>A</li></ul>`, dom.InnerHTML(ctx.Root))

	ctx = setup(t, `<ul><li>A</li></ul>`)
	run(t, ctx, Link, dom.Caret(ctx.Root.FirstChild, 1), "https://example.com", "site")
	assert.Equal(t, `<ul><li>A<a href="https://example.com">site</a></li></ul>`, dom.InnerHTML(ctx.Root))

	ctx = setup(t, `<blockquote><p>q</p></blockquote>`)
	run(t, ctx, Italic, dom.Caret(ctx.Root.FirstChild, 1))
	assert.Equal(t, `<blockquote><p>q<em>`+policy.ZeroWidthMarker+`</em></p></blockquote>`, dom.InnerHTML(ctx.Root))
}

func TestLinkInEmptyListGetsParagraph(t *testing.T) {
	ctx := setup(t, `<ul></ul>`)

	run(t, ctx, Link, dom.Caret(ctx.Root.FirstChild, 0), "https://example.com", "site")
	assert.Equal(t, `<ul></ul><p><a href="https://example.com">site</a></p>`, dom.InnerHTML(ctx.Root))
}

func TestLinkWrapsSelection(t *testing.T) {
	ctx := setup(t, `<p>hello world</p>`)

	result := run(t, ctx, Link, selectText(t, ctx.Root, "hello"), "https://example.com")
	assert.Equal(t, `<p><a href="https://example.com">hello</a> world</p>`, dom.InnerHTML(ctx.Root))
	assert.Equal(t, "hello", dom.RangeText(ctx.Root, *result.Selection))
}

func TestLinkRejectsUnsafeURLs(t *testing.T) {
	for _, url := range []string{"javascript:alert(1)", "data:text/html,x", "vbscript:x", ""} {
		t.Run(url, func(t *testing.T) {
			ctx := setup(t, `<p>hello</p>`)
			result := run(t, ctx, Link, selectText(t, ctx.Root, "hello"), url)
			assert.False(t, result.Changed)
			assert.Equal(t, `<p>hello</p>`, dom.InnerHTML(ctx.Root))
		})
	}
}

func TestLinkUpdateAndRemove(t *testing.T) {
	ctx := setup(t, `<p><a href="https://old.example">hello</a> world</p>`)
	a := dom.FindFirst(ctx.Root, func(n *html.Node) bool { return dom.IsElement(n, "a") })

	run(t, ctx, Link, dom.SelectContents(a), "https://new.example")
	href, _ := dom.GetAttr(a, "href")
	assert.Equal(t, "https://new.example", href)

	result := run(t, ctx, Link, dom.SelectContents(a), "javascript:alert(1)")
	assert.False(t, result.Changed)
	href, _ = dom.GetAttr(a, "href")
	assert.Equal(t, "https://new.example", href)

	run(t, ctx, Link, dom.SelectContents(a), "")
	assert.Equal(t, `<p>hello world</p>`, dom.InnerHTML(ctx.Root))
}

func TestImage(t *testing.T) {
	ctx := setup(t, `<p>text</p>`)

	result := run(t, ctx, Image, caretIn(t, ctx.Root, "text"), "https://example.com/a.png", "alt")
	require.True(t, result.Changed)
	assert.Equal(t, `<p>text</p><p><img src="https://example.com/a.png" alt="alt"/></p>`, dom.InnerHTML(ctx.Root))
}

func TestImageInListUsesSelectionStart(t *testing.T) {
	ctx := setup(t, `<ul><li>A</li></ul><p>After</p>`)
	r := dom.Range{
		Start: dom.Point{Node: findText(t, ctx.Root, "A"), Offset: 0},
		End:   dom.Point{Node: ctx.Root, Offset: 2},
	}

	result := run(t, ctx, Image, r, "b.png", "alt")
	require.True(t, result.Changed)
	assert.Equal(t, `<ul><li><img src="b.png" alt="alt"/>A</li></ul><p>After</p>`, dom.InnerHTML(ctx.Root))
	require.NotNil(t, result.Selection)
	assert.Equal(t, "li", dom.Tag(result.Selection.Start.Node))
}

func TestImageURLPolicy(t *testing.T) {
	ctx := setup(t, `<p>text</p>`)

	result := run(t, ctx, Image, caretIn(t, ctx.Root, "text"), "javascript:alert(1)")
	assert.False(t, result.Changed)
	assert.NotContains(t, dom.InnerHTML(ctx.Root), "<img")

	run(t, ctx, Image, caretIn(t, ctx.Root, "text"), "data:image/png;base64,AAAA")
	assert.Contains(t, dom.InnerHTML(ctx.Root), `src="data:image/png;base64,AAAA"`)
}

func TestImageInsideQuoteStaysInQuote(t *testing.T) {
	ctx := setup(t, `<blockquote><p>q</p></blockquote>`)

	run(t, ctx, Image, caretIn(t, ctx.Root, "q"), "a.png")
	assert.Equal(t, `<blockquote><p>q</p><p><img src="a.png" alt=""/></p></blockquote>`, dom.InnerHTML(ctx.Root))
}

func TestRunErrorsAndNoops(t *testing.T) {
	ctx := setup(t, `<p>x</p>`)
	caret := caretIn(t, ctx.Root, "x")

	_, err := Run(ctx, Name("explode"), caret)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Run(ctx, Undo, caret)
	assert.ErrorIs(t, err, ErrHistoryCommand)

	other, err := dom.ParseFragment(`<p>y</p>`)
	require.NoError(t, err)
	result, err := Run(ctx, Bold, dom.Caret(other.FirstChild.FirstChild, 0))
	require.NoError(t, err)
	assert.False(t, result.Changed)

	result, err = Run(ctx, Bold, dom.Range{})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, `<p>x</p>`, dom.InnerHTML(ctx.Root))
}

func TestNames(t *testing.T) {
	for _, name := range Names() {
		parsed, ok := Parse(string(name))
		assert.True(t, ok)
		assert.Equal(t, name, parsed)
		if !name.IsHistory() {
			_, ok := Lookup(name)
			assert.True(t, ok, name)
		}
	}
	_, ok := Parse("bogus")
	assert.False(t, ok)
}

func TestCanonicalClassesOnNewElements(t *testing.T) {
	ctx := setup(t, `<p>A</p>`)
	ctx.Classes = policy.DefaultClassMap()

	run(t, ctx, UnorderedList, caretIn(t, ctx.Root, "A"))
	assert.Equal(t,
		`<ul class="`+ctx.Classes.ClassFor("ul")+`"><li class="`+ctx.Classes.ClassFor("li")+`">A</li></ul>`,
		dom.InnerHTML(ctx.Root),
	)
}
