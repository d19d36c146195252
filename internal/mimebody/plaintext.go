package mimebody

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLToPlaintext converts an HTML body into readable plaintext. Headings,
// lists, emphasis, links and quotes are kept with Markdown-style markers;
// scripts and styles are dropped.
func HTMLToPlaintext(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	w := &textWriter{start: true}
	for _, n := range doc.Nodes {
		w.render(n)
	}
	return strings.TrimSpace(w.buf.String()), nil
}

type textWriter struct {
	buf      strings.Builder
	prefix   string
	pending  int
	trailing int
	start    bool
	space    bool
	lists    []int
}

func (w *textWriter) breakLine(n int) {
	if n > w.pending {
		w.pending = n
	}
}

func (w *textWriter) flushBreak() {
	if w.buf.Len() == 0 {
		w.pending = 0
		return
	}
	for w.trailing < w.pending {
		if w.trailing > 0 {
			w.buf.WriteString(strings.TrimSpace(w.prefix))
		}
		w.buf.WriteByte('\n')
		w.trailing++
		w.start = true
	}
	w.pending = 0
}

// begin prepares for content and reports whether it starts a new line.
func (w *textWriter) begin() bool {
	w.flushBreak()
	fresh := w.start
	if fresh {
		w.buf.WriteString(w.prefix)
		w.start = false
		w.space = false
	}
	w.trailing = 0
	return fresh
}

// open writes a marker that precedes content.
func (w *textWriter) open(marker string) {
	w.begin()
	if w.space {
		w.buf.WriteByte(' ')
		w.space = false
	}
	w.buf.WriteString(marker)
}

// close writes a marker that follows content.
func (w *textWriter) close(marker string) {
	w.begin()
	w.buf.WriteString(marker)
}

func (w *textWriter) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			w.space = true
		}
		return
	}

	leading := isSpace(s[0])
	if fresh := w.begin(); !fresh && (leading || w.space) {
		w.buf.WriteByte(' ')
	}
	w.buf.WriteString(strings.Join(words, " "))
	w.space = isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.render(c)
	}
}

func (w *textWriter) render(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.DocumentNode:
		w.children(n)
		return
	case html.ElementNode:
	default:
		return
	}

	switch tag := n.Data; tag {
	case "script", "style", "head", "title", "noscript":
	case "br":
		w.breakLine(1)
		w.space = false
	case "p", "table":
		w.block(2, n)
	case "div", "section", "article", "header", "footer", "tr":
		w.block(1, n)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(tag[1:])
		w.breakLine(2)
		w.open(strings.Repeat("#", level) + " ")
		w.children(n)
		w.breakLine(2)
	case "ul", "ol":
		w.list(tag == "ol", n)
	case "li":
		w.item(n)
	case "b", "strong":
		w.wrap("**", n)
	case "i", "em":
		w.wrap("_", n)
	case "a":
		w.link(n)
	case "blockquote":
		w.breakLine(2)
		w.flushBreak()
		outer := w.prefix
		w.prefix += "> "
		w.children(n)
		w.prefix = outer
		w.breakLine(2)
	case "hr":
		w.breakLine(2)
		w.open("---")
		w.breakLine(2)
	case "pre":
		w.breakLine(2)
		for _, line := range strings.Split(strings.Trim(goquery.NewDocumentFromNode(n).Text(), "\n"), "\n") {
			w.open(line)
			w.breakLine(1)
		}
		w.breakLine(2)
	case "img":
		for _, attr := range n.Attr {
			if attr.Key == "alt" {
				w.text(attr.Val)
			}
		}
	case "td", "th":
		w.children(n)
		w.space = true
	default:
		w.children(n)
	}
}

func (w *textWriter) block(lines int, n *html.Node) {
	w.breakLine(lines)
	w.children(n)
	w.breakLine(lines)
}

func (w *textWriter) wrap(marker string, n *html.Node) {
	w.open(marker)
	w.children(n)
	w.close(marker)
}

func (w *textWriter) list(ordered bool, n *html.Node) {
	if len(w.lists) == 0 {
		w.breakLine(2)
	} else {
		w.breakLine(1)
	}

	counter := 0
	if !ordered {
		counter = -1
	}
	w.lists = append(w.lists, counter)
	w.children(n)
	w.lists = w.lists[:len(w.lists)-1]

	if len(w.lists) == 0 {
		w.breakLine(2)
	} else {
		w.breakLine(1)
	}
}

func (w *textWriter) item(n *html.Node) {
	w.breakLine(1)

	marker := "- "
	depth := len(w.lists)
	if depth > 0 && w.lists[depth-1] >= 0 {
		w.lists[depth-1]++
		marker = strconv.Itoa(w.lists[depth-1]) + ". "
	}
	if depth > 1 {
		marker = strings.Repeat("  ", depth-1) + marker
	}

	w.open(marker)
	w.children(n)
	w.breakLine(1)
}

func (w *textWriter) link(n *html.Node) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
		}
	}

	w.children(n)

	label := strings.TrimSpace(goquery.NewDocumentFromNode(n).Text())
	if href == "" || strings.HasPrefix(href, "#") || href == label || "mailto:"+label == href {
		return
	}
	w.close(" (" + href + ")")
}
