// Package richtext converts the HTML fragments used in item bodies and exhibits
// into plain text (for indexing) and markdown (for terminal rendering).
package richtext

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsReference reports whether an exhibit merely points at external media.
// The check is a substring heuristic on the raw fragment.
func IsReference(fragment string) bool {
	return strings.Contains(fragment, ".com")
}

func parseFragment(fragment string) []*html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil
	}
	return nodes
}

// PlainText returns the concatenated text content of an HTML fragment.
// Script and style contents are dropped.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range parseFragment(fragment) {
		walk(n)
	}
	return b.String()
}

// Markdown converts an HTML fragment into markdown suitable for glamour.
func Markdown(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	w := &mdWriter{}
	for _, n := range parseFragment(fragment) {
		w.node(n)
	}
	return tidy(w.b.String())
}

type mdWriter struct {
	b strings.Builder
	// list nesting: 0 for unordered, otherwise next ordinal.
	lists []int
}

func (w *mdWriter) block() {
	s := w.b.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		w.b.WriteString("\n")
		return
	}
	w.b.WriteString("\n\n")
}

func (w *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func (w *mdWriter) inline(n *html.Node, mark string) {
	inner := strings.TrimSpace(collect(n))
	if inner == "" {
		return
	}
	w.b.WriteString(mark + inner + mark)
}

func (w *mdWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(escape(collapseSpace(n.Data)))
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
	case atom.Br:
		w.b.WriteString("  \n")
	case atom.P, atom.Div, atom.Section, atom.Blockquote:
		w.block()
		w.children(n)
		w.block()
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		w.block()
		w.b.WriteString(strings.Repeat("#", level) + " " + strings.TrimSpace(collect(n)))
		w.block()
	case atom.B, atom.Strong:
		w.inline(n, "**")
	case atom.I, atom.Em:
		w.inline(n, "*")
	case atom.Code:
		w.inline(n, "`")
	case atom.A:
		text := strings.TrimSpace(collect(n))
		href := attr(n, "href")
		if href == "" {
			w.b.WriteString(escape(text))
			return
		}
		if text == "" {
			text = href
		}
		w.b.WriteString("[" + escape(text) + "](" + href + ")")
	case atom.Img:
		w.b.WriteString("![" + attr(n, "alt") + "](" + attr(n, "src") + ")")
	case atom.Ul:
		w.list(n, 0)
	case atom.Ol:
		w.list(n, 1)
	case atom.Li:
		depth := len(w.lists)
		if depth == 0 {
			w.lists = append(w.lists, 0)
			depth = 1
			defer func() { w.lists = w.lists[:0] }()
		}
		if !strings.HasSuffix(w.b.String(), "\n") && w.b.Len() > 0 {
			w.b.WriteString("\n")
		}
		w.b.WriteString(strings.Repeat("  ", depth-1))
		if ord := w.lists[depth-1]; ord > 0 {
			w.b.WriteString(strconv.Itoa(ord) + ". ")
			w.lists[depth-1]++
		} else {
			w.b.WriteString("- ")
		}
		w.b.WriteString(strings.TrimSpace(Markdown(innerHTML(n))))
		w.b.WriteString("\n")
	case atom.Table:
		w.table(n)
	default:
		w.children(n)
	}
}

func (w *mdWriter) list(n *html.Node, start int) {
	w.block()
	w.lists = append(w.lists, start)
	w.children(n)
	w.lists = w.lists[:len(w.lists)-1]
	w.block()
}

func (w *mdWriter) table(n *html.Node) {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.ElementNode && x.DataAtom == atom.Tr {
			var cells []string
			for c := x.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cell := strings.TrimSpace(collapseSpace(collect(c)))
					cells = append(cells, strings.ReplaceAll(cell, "|", "\\|"))
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if len(rows) == 0 {
		return
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	w.block()
	for i, r := range rows {
		for len(r) < cols {
			r = append(r, "")
		}
		w.b.WriteString("| " + strings.Join(r, " | ") + " |\n")
		if i == 0 {
			w.b.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
		}
	}
	w.block()
}

func collect(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	// Keep a single boundary space so adjacent inline nodes do not fuse.
	if strings.TrimLeft(s, " \t\r\n") != s && out != "" {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n") != s && out != "" {
		out += " "
	}
	if out == "" {
		return " "
	}
	return out
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`")

func escape(s string) string { return mdEscaper.Replace(s) }

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		trimmed := strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(trimmed, "- ") || isOrdinal(trimmed):
			l = strings.TrimRight(l, " ")
		case strings.HasSuffix(l, "  "):
			l = strings.TrimLeft(l, " ")
		default:
			l = trimmed
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isOrdinal(l string) bool {
	i := strings.Index(l, ". ")
	if i <= 0 {
		return false
	}
	_, err := strconv.Atoi(l[:i])
	return err == nil
}
