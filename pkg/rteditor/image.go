package rteditor

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"rteditor/internal/css"
	"rteditor/internal/dom"
)

// ImageDimensions returns the display size stored in the inline style of img
func (e *Editor) ImageDimensions(img *html.Node) css.Dimensions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.ImageDimensions(img)
}

// SetImageDimensions writes the display size of an image inside the editor.
// Values that are not plain CSS lengths are dropped; empty values clear that dimension.
// Listeners receive an image resize event followed by a change event.
func (e *Editor) SetImageDimensions(img *html.Node, width, height string) bool {
	e.mu.Lock()
	if e.destroyed || !dom.IsElement(img, "img") || !dom.Contains(e.root, img) {
		e.mu.Unlock()
		return false
	}

	e.flushPendingTyping()
	d := css.Dimensions{
		Width:  strings.ToLower(strings.TrimSpace(width)),
		Height: strings.ToLower(strings.TrimSpace(height)),
	}
	for _, w := range e.resolver.ValidateDimensions(d) {
		e.logger.Debug("ignoring image dimension",
			zap.String("property", w.Property),
			zap.String("value", w.Value),
			zap.String("reason", w.Message),
		)
		switch w.Property {
		case "width":
			d.Width = ""
		case "height":
			d.Height = ""
		}
	}

	before, _ := dom.GetAttr(img, "style")
	if style := css.FormatDimensions(d); style != "" {
		dom.SetAttr(img, "style", style)
	} else {
		dom.RemoveAttr(img, "style")
	}
	after, _ := dom.GetAttr(img, "style")
	if before == after {
		e.mu.Unlock()
		return false
	}

	e.snapshot()
	n := e.notify(
		Event{Type: EventImageResize, Image: img, Dimensions: e.resolver.ImageDimensions(img)},
		Event{Type: EventChange, HTML: e.normalizedHTML()},
	)
	e.mu.Unlock()

	n.send()
	return true
}
