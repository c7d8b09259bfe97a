package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document wraps a detached editing root so goquery selections can run against it
type Document struct {
	doc  *goquery.Document
	root *html.Node
}

// NewDocument wraps an existing root without copying it
func NewDocument(root *html.Node) *Document {
	return &Document{doc: goquery.NewDocumentFromNode(root), root: root}
}

// ParseFragment parses HTML as body content into a detached <div> root
func ParseFragment(content string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}

	root := NewElement("div", "")
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return root, nil
}

// Parse parses HTML into a Document
func Parse(content string) (*Document, error) {
	root, err := ParseFragment(content)
	if err != nil {
		return nil, err
	}
	return NewDocument(root), nil
}

// Root returns the editing root element
func (d *Document) Root() *html.Node {
	return d.root
}

// Find returns the descendants of the root matching selector
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// HTML returns the serialized children of the root
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Selection.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return out, nil
}

// InnerHTML serializes the children of n. Serialization errors yield "".
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	out, err := goquery.NewDocumentFromNode(n).Selection.Html()
	if err != nil {
		return ""
	}
	return out
}

// SetInnerHTML replaces the children of n with the parsed fragment
func SetInnerHTML(n *html.Node, content string) error {
	parsed, err := ParseFragment(content)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	MoveChildren(n, parsed)
	return nil
}
