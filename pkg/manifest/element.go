// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/xml"
	"io"
	"strings"
	"unicode"
)

// NodeKind distinguishes elements from comments in a child list.
type NodeKind int

const (
	NodeElement NodeKind = iota
	// NodeComment has no name; Text holds the comment body.
	NodeComment
)

// Element is one XML element or comment. Name.Space holds the raw prefix as
// written in the source document ("" when unprefixed), not a resolved
// namespace URL.
type Element struct {
	Kind     NodeKind
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Element
	Text     string
	// CDATA is set when the text was written as a CDATA section.
	CDATA bool
}

// NewComment creates a comment node.
func NewComment(text string) *Element {
	return &Element{Kind: NodeComment, Text: text}
}

// NewElement creates an unprefixed element with the given text.
func NewElement(local, text string) *Element {
	return &Element{Name: xml.Name{Local: local}, Text: text}
}

// FindChildIgnoringNamespace returns the first direct child whose local name
// is local, or nil.
func (e *Element) FindChildIgnoringNamespace(local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenIgnoringNamespace returns every direct child whose local name is local.
func (e *Element) ChildrenIgnoringNamespace(local string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// FindDescendantIgnoringNamespace returns the first element below e, in
// document order, whose local name is local.
func (e *Element) FindDescendantIgnoringNamespace(local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
		if d := c.FindDescendantIgnoringNamespace(local); d != nil {
			return d
		}
	}
	return nil
}

// AddChild appends a new unprefixed child element and returns it.
func (e *Element) AddChild(local, text string) *Element {
	c := NewElement(local, text)
	e.Children = append(e.Children, c)
	return c
}

// Attr returns the value of the attribute with the given local name.
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an unprefixed attribute.
func (e *Element) SetAttr(local, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == local && a.Name.Space != "xmlns" {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// Value returns the element text with surrounding whitespace removed.
func (e *Element) Value() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")
)

// writeText escapes text, or wraps it in a CDATA section when cdata is set.
// Whitespace around the section stays outside it.
func writeText(b *strings.Builder, text string, cdata bool) {
	trimmed := strings.TrimSpace(text)
	if !cdata || trimmed == "" || strings.Contains(trimmed, "]]>") {
		b.WriteString(textEscaper.Replace(text))
		return
	}
	lead := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	b.WriteString(textEscaper.Replace(text[:lead]))
	b.WriteString("<![CDATA[" + trimmed + "]]>")
	b.WriteString(textEscaper.Replace(text[lead+len(trimmed):]))
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// write serializes e at the given depth with two space indentation. Leaf
// text is written as is; whitespace between child elements is regenerated.
func (e *Element) write(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	if e.Kind == NodeComment {
		_, err := io.WriteString(w, indent+"<!--"+e.Text+"-->\n")
		return err
	}
	var b strings.Builder

	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(qualified(e.Name))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(qualified(a.Name))
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteString(`"`)
	}

	text := e.Text
	if len(e.Children) > 0 {
		text = strings.TrimSpace(text)
	}

	if len(e.Children) == 0 && text == "" {
		b.WriteString(" />\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(">")
	writeText(&b, text, e.CDATA)

	if len(e.Children) == 0 {
		b.WriteString("</" + qualified(e.Name) + ">\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := c.write(w, depth+1); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, indent+"</"+qualified(e.Name)+">\n")
	return err
}
