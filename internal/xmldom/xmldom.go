// Package xmldom is a small document-object model over encoding/xml.
//
// The loader needs three things a streaming decoder does not give it
// directly: attribute order preserved as declared, repeated traversal of
// the same element (documents are retained for the whole load session),
// and the source line of every element so that validation errors can
// point at the offending declaration. Elements built in memory (line 0)
// are used by the serializer.
package xmldom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Attr is a single name="value" attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is one XML element: a tag name, attributes in declaration
// order, child elements in document order, and the source line it
// started on (0 for elements built in memory).
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Line     int
}

// Document holds a parsed file. Root is never nil for a successfully
// parsed document.
type Document struct {
	Root *Element
}

// NewElement returns an in-memory element with the given tag name.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Attr returns the value of the named attribute and whether it exists.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the named attribute value, or "" if absent.
func (e *Element) AttrValue(name string) string {
	v, _ := e.Attr(name)
	return v
}

// HasAttr reports whether the named attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr appends or replaces the named attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// AddChild appends a child element.
func (e *Element) AddChild(child *Element) {
	e.Children = append(e.Children, child)
}

// ChildrenNamed returns the child elements with the given tag name, in
// document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildNamed returns the first child with the given tag name, or nil.
func (e *Element) FirstChildNamed(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ParseText parses an in-memory XML string.
func ParseText(text string) (*Document, error) {
	return Parse([]byte(text))
}

// Parse builds a Document from raw XML. Character data between elements
// is ignored; the tree grammar has no text content. A document with no
// element, or with more than one top-level element, is an error.
func Parse(data []byte) (*Document, error) {
	lines := newlineOffsets(data)
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name: t.Name.Local,
				Line: lineAt(lines, dec.InputOffset()),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("unexpected second top-level element <%s> at line %d", el.Name, el.Line)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document contains no elements")
	}
	return &Document{Root: root}, nil
}

// newlineOffsets returns the byte offset of every '\n' in data.
func newlineOffsets(data []byte) []int {
	var offs []int
	for i, b := range data {
		if b == '\n' {
			offs = append(offs, i)
		}
	}
	return offs
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(newlines []int, offset int64) int {
	return sort.Search(len(newlines), func(i int) bool {
		return int64(newlines[i]) >= offset
	}) + 1
}

// Render writes the document as indented XML text.
func (d *Document) Render() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	renderElement(&sb, d.Root, 0)
	return sb.String()
}

func renderElement(sb *strings.Builder, e *Element, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(e.Name)
	for _, a := range e.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(a.Value))
		sb.WriteByte('"')
	}
	if len(e.Children) == 0 {
		sb.WriteString("/>\n")
		return
	}
	sb.WriteString(">\n")
	for _, c := range e.Children {
		renderElement(sb, c, depth+1)
	}
	sb.WriteString(indent)
	sb.WriteString("</")
	sb.WriteString(e.Name)
	sb.WriteString(">\n")
}

func escapeAttr(s string) string {
	var buf bytes.Buffer
	// EscapeText covers quotes too, so the result is safe in attribute context.
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}
