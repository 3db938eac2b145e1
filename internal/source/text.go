package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skipped elements never contribute visible text
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"template": true,
	"head":     true,
}

// block elements end a line of text
var block = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "blockquote": true, "pre": true,
}

// VisibleText parses an HTML document and returns its title and readable text.
// Paragraph-like elements are separated by newlines; whitespace inside them is collapsed.
func VisibleText(r io.Reader) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var lines []string
	var line strings.Builder

	flush := func() {
		if s := strings.Join(strings.Fields(line.String()), " "); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			line.WriteString(n.Data)
			line.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && block[n.Data] {
			flush()
		}
	}

	findTitle(doc, &title)
	walk(doc)
	flush()

	return title, strings.Join(lines, "\n"), nil
}

// findTitle picks the first <title> text, which lives in the skipped <head>
func findTitle(n *html.Node, title *string) {
	if *title != "" {
		return
	}
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		*title = strings.TrimSpace(n.FirstChild.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findTitle(c, title)
	}
}
