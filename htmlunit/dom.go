package htmlunit

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

// walk visits every element below root in document order. It stops when fn
// returns false.
func walk(root *html.Node, fn func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func first(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func parentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func ancestor(n *html.Node, a atom.Atom) *html.Node {
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if p.DataAtom == a {
			return p
		}
	}
	return nil
}

// hidden reports whether n's content is never rendered.
func hidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Title:
		return true
	case atom.Input:
		return strings.EqualFold(attrValue(n, "type"), "hidden")
	}
	_, ok := attr(n, "hidden")
	return ok
}

// text returns the rendered text below n with whitespace collapsed.
func text(n *html.Node) string {
	var sb strings.Builder
	var visit func(n *html.Node, pre bool)
	visit = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				sb.WriteString(n.Data)
			} else {
				sb.WriteString(strings.Map(func(r rune) rune {
					if r == '\n' || r == '\r' || r == '\t' {
						return ' '
					}
					return r
				}, n.Data))
			}
			return
		case html.ElementNode:
			if hidden(n) {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteString("\n")
			}
			pre = pre || n.DataAtom == atom.Pre
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, pre)
		}
		if n.Type == html.ElementNode && block(n.DataAtom) {
			sb.WriteString("\n")
		}
	}
	visit(n, false)
	return collapse(sb.String())
}

func block(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Pre, atom.Form, atom.Table, atom.Ul, atom.Ol:
		return true
	}
	return false
}

// collapse trims every line and joins runs of blanks.
func collapse(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func title(doc *html.Node) string {
	if t := first(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		var sb strings.Builder
		for c := t.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	return ""
}

func body(doc *html.Node) *html.Node {
	if b := first(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body }); b != nil {
		return b
	}
	return doc
}

func render(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func checkable(n *html.Node) bool {
	if !isElement(n, atom.Input) {
		return false
	}
	switch strings.ToLower(attrValue(n, "type")) {
	case "checkbox", "radio":
		return true
	}
	return false
}

func selected(n *html.Node) bool {
	if isElement(n, atom.Option) {
		_, ok := attr(n, "selected")
		return ok
	}
	_, ok := attr(n, "checked")
	return ok
}

func disabled(n *html.Node) bool {
	_, ok := attr(n, "disabled")
	return ok
}

// value returns the current value of a form control.
func value(n *html.Node) string {
	switch n.DataAtom {
	case atom.Textarea:
		if v, ok := attr(n, "value"); ok {
			return v
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return sb.String()
	case atom.Select:
		var opts []*html.Node
		walk(n, func(c *html.Node) bool {
			if c.DataAtom == atom.Option {
				opts = append(opts, c)
			}
			return true
		})
		for _, o := range opts {
			if selected(o) {
				return value(o)
			}
		}
		if len(opts) > 0 {
			return value(opts[0])
		}
		return ""
	case atom.Option:
		if v, ok := attr(n, "value"); ok {
			return v
		}
		return text(n)
	case atom.Input:
		if v, ok := attr(n, "value"); ok {
			return v
		}
		if checkable(n) {
			return "on"
		}
	}
	return attrValue(n, "value")
}
