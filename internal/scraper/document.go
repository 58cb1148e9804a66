package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses HTML and restores tables hidden inside comments
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	uncommentTables(root)
	return goquery.NewDocumentFromNode(root), nil
}

// uncommentTables replaces every comment containing a table with the nodes
// parsed from its text. Comments that fail to parse are left alone.
func uncommentTables(root *html.Node) {
	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
			comments = append(comments, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, c := range comments {
		parent := c.Parent
		if parent == nil {
			continue
		}
		ctxNode := parent
		if ctxNode.Type != html.ElementNode {
			ctxNode = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		}

		nodes, err := html.ParseFragment(strings.NewReader(c.Data), ctxNode)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			parent.InsertBefore(n, c)
		}
		parent.RemoveChild(c)
	}
}
