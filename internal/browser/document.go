package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed DOM snapshot of the current page.
type Document struct {
	doc *goquery.Document
}

// Element is a handle to one DOM node.
type Element struct {
	sel *goquery.Selection
}

// ParseDocument parses raw HTML into a Document.
func ParseDocument(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// All returns every element matching selector, in document order.
func (d *Document) All(selector string) []Element {
	return collect(d.doc.Find(selector))
}

// First returns the first element matching selector.
func (d *Document) First(selector string) (Element, bool) {
	return first(d.doc.Find(selector))
}

// All returns every descendant matching selector.
func (e Element) All(selector string) []Element {
	return collect(e.sel.Find(selector))
}

// First returns the first descendant matching selector.
func (e Element) First(selector string) (Element, bool) {
	return first(e.sel.Find(selector))
}

// Text is the combined text content of the element.
func (e Element) Text() string {
	return e.sel.Text()
}

// Attr returns an attribute value and whether it is set.
func (e Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func first(sel *goquery.Selection) (Element, bool) {
	if sel.Length() == 0 {
		return Element{}, false
	}
	return Element{sel: sel.First()}, true
}

func collect(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}
