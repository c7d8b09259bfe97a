package normalizer

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/css"
	"rteditor/internal/dom"
	"rteditor/internal/policy"
)

// Normalizer re-derives a canonical, safe tree from arbitrary HTML
type Normalizer struct {
	classes policy.ClassMap
	parser  *css.Parser
	logger  *zap.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New creates a normalizer that assigns classes from the given map.
// A nil map falls back to the built-in defaults.
func New(classes policy.ClassMap, opts ...Option) *Normalizer {
	if classes == nil {
		classes = policy.DefaultClassMap()
	}
	n := &Normalizer{
		classes: classes,
		parser:  css.NewParser(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize is a convenience wrapper that normalizes content with the given class map
func Normalize(content string, classes policy.ClassMap) string {
	return New(classes).Normalize(content)
}

// Normalize returns the canonical form of content. It never fails: markup the parser
// cannot handle is treated as plain text.
func (n *Normalizer) Normalize(content string) string {
	out, _ := n.NormalizeWithReport(content)
	return out
}

// NormalizeWithReport normalizes content and reports what was removed along the way
func (n *Normalizer) NormalizeWithReport(content string) (string, Report) {
	doc, err := dom.Parse(content)
	if err != nil {
		n.logger.Debug("treating unparseable markup as text", zap.Error(err))
		root := dom.NewElement("div", "")
		root.AppendChild(dom.NewText(content))
		doc = dom.NewDocument(root)
	}

	report := n.NormalizeTree(doc.Root(), TreeOptions{})
	out, err := doc.HTML()
	if err != nil {
		n.logger.Warn("failed to serialize normalized tree", zap.Error(err))
		return "", report
	}
	return out, report
}

// TreeOptions controls in-place normalization of a live tree
type TreeOptions struct {
	// KeepMarkers leaves zero-width caret markers in text so an active caret anchor survives
	KeepMarkers bool
}

// NormalizeTree normalizes the children of root in place
func (n *Normalizer) NormalizeTree(root *html.Node, opts TreeOptions) Report {
	var report Report

	// Blocked subtrees go first, content and all
	removed := dom.NewDocument(root).Find(strings.Join(policy.BlockedTags(), ",")).Remove()
	report.RemovedSubtrees = removed.Length()

	n.walk(root, root, opts, &report)
	n.wrapRootRuns(root, &report)
	return report
}

// walk normalizes the children of parent. Elements spliced into parent by unwrapping are
// visited in turn, so arbitrarily deep wrapper nesting collapses in one pass.
func (n *Normalizer) walk(root, parent *html.Node, opts TreeOptions, report *Report) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.ElementNode:
			next = n.element(root, c, opts, report)
		case html.TextNode:
			if !opts.KeepMarkers {
				c.Data = strings.ReplaceAll(c.Data, policy.ZeroWidthMarker, "")
			}
			if c.Data == "" {
				dom.Detach(c)
			}
		default:
			dom.Detach(c)
		}
		c = next
	}
}

// element normalizes one element and returns the node the walk continues from
func (n *Normalizer) element(root, el *html.Node, opts TreeOptions, report *Report) *html.Node {
	next := el.NextSibling
	for {
		tag := dom.Tag(el)

		if policy.IsBlocked(tag) {
			dom.Detach(el)
			report.RemovedSubtrees++
			return next
		}

		if canonical, ok := policy.Alias(tag); ok {
			el = dom.Retag(el, canonical, "")
			report.AliasedElements++
			continue
		}

		if !policy.IsAllowed(tag) || n.misplaced(root, el, tag) {
			first := el.FirstChild
			dom.Unwrap(el)
			report.UnwrappedElements++
			if first != nil {
				return first
			}
			return next
		}

		if tag == "li" && !dom.IsElement(el.Parent, "ul", "ol") {
			// a p cannot hold blocks, so an orphan item holding them is unwrapped
			if dom.HasBlockDescendant(el) {
				first := el.FirstChild
				dom.Unwrap(el)
				report.UnwrappedElements++
				return first
			}
			el = dom.Retag(el, "p", "")
			continue
		}
		break
	}

	n.attributes(el, report)
	n.walk(root, el, opts, report)
	if policy.IsList(dom.Tag(el)) {
		n.coerceListChildren(el)
	}
	return next
}

// misplaced reports elements that cannot survive a serialize/parse round trip where they are:
// formatting around blocks, and headings inside headings.
func (n *Normalizer) misplaced(root, el *html.Node, tag string) bool {
	if policy.IsFormatting(tag) && dom.HasBlockDescendant(el) {
		return true
	}
	if policy.IsHeading(tag) {
		for p := el.Parent; p != nil && p != root; p = p.Parent {
			if policy.IsHeading(dom.Tag(p)) {
				return true
			}
		}
	}
	return false
}

// attributes rebuilds the attribute list of el: canonical class first, then whitelisted
// attributes in whitelist order.
func (n *Normalizer) attributes(el *html.Node, report *Report) {
	tag := dom.Tag(el)
	original := el.Attr

	var attrs []html.Attribute
	if class := n.classes.ClassFor(tag); class != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: class})
	}

	kept := 0
	for _, key := range policy.AllowedAttributes(tag) {
		val, ok := dom.GetAttr(el, key)
		if !ok {
			continue
		}
		switch key {
		case "href":
			if !policy.IsSafeLinkURL(val) {
				n.logger.Debug("rejected link URL", zap.String("url", val))
				report.RejectedURLs++
				continue
			}
		case "src":
			if !policy.IsSafeImageURL(val) {
				n.logger.Debug("rejected image URL", zap.String("url", val))
				report.RejectedURLs++
				continue
			}
		case "style":
			val = n.parser.FilterDimensions(val)
			if val == "" {
				continue
			}
		}
		attrs = append(attrs, html.Attribute{Key: key, Val: val})
		kept++
	}

	stripped := -kept
	for _, a := range original {
		if a.Key == "class" && a.Namespace == "" {
			continue
		}
		if policy.IsEventHandler(a.Key) {
			report.EventHandlers++
		}
		stripped++
	}
	report.StrippedAttributes += stripped

	el.Attr = attrs
}

// coerceListChildren makes every child of a list a list item. Whitespace text is dropped;
// every other run of non-item children is wrapped into one new item.
func (n *Normalizer) coerceListChildren(list *html.Node) {
	var run []*html.Node
	flush := func(ref *html.Node) {
		if len(run) == 0 {
			return
		}
		li := dom.NewElement("li", n.classes.ClassFor("li"))
		list.InsertBefore(li, ref)
		for _, c := range run {
			dom.Append(li, c)
		}
		run = nil
	}

	for c := list.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case dom.IsElement(c, "li"):
			flush(c)
		case c.Type == html.TextNode && dom.IsBlankText(c.Data):
			dom.Detach(c)
		default:
			run = append(run, c)
		}
		c = next
	}
	flush(nil)
}

// wrapRootRuns wraps each run of non-block root children into one paragraph.
// Runs of nothing but whitespace are dropped.
func (n *Normalizer) wrapRootRuns(root *html.Node, report *Report) {
	var run []*html.Node
	flush := func(ref *html.Node) {
		if len(run) == 0 {
			return
		}
		defer func() { run = nil }()

		blank := true
		for _, c := range run {
			if c.Type != html.TextNode || !dom.IsBlankText(c.Data) {
				blank = false
				break
			}
		}
		if blank {
			for _, c := range run {
				dom.Detach(c)
			}
			return
		}

		p := dom.NewElement("p", n.classes.ClassFor("p"))
		root.InsertBefore(p, ref)
		for _, c := range run {
			dom.Append(p, c)
		}
		report.WrappedRuns++
	}

	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if dom.IsBlockNode(c) {
			flush(c)
		} else {
			run = append(run, c)
		}
		c = next
	}
	flush(nil)
}
