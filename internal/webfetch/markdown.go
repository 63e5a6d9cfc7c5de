package webfetch

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skippedTags = map[atom.Atom]bool{
	atom.Nav:    true,
	atom.Footer: true,
	atom.Aside:  true,
	atom.Head:   true,
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Br: true, atom.Hr: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true,
}

var headingPrefix = map[atom.Atom]string{
	atom.H1: "# ", atom.H2: "## ", atom.H3: "### ",
	atom.H4: "#### ", atom.H5: "##### ", atom.H6: "###### ",
}

// markdown renders the document body as markdown-like text.
func markdown(doc *html.Node) string {
	start := doc
	_ = walk(doc, func(n *html.Node) error {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			start = n
			return errStop
		}
		return nil
	})

	var sb strings.Builder
	writeMarkdown(&sb, start)

	out := blankLineRe.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeMarkdown(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := collapseSpace(n.Data); strings.TrimSpace(text) != "" {
			sb.WriteString(text)
		}
		return
	case html.ElementNode:
		if skippedTags[n.DataAtom] {
			return
		}
	}

	if n.Type == html.ElementNode {
		if prefix, ok := headingPrefix[n.DataAtom]; ok {
			sb.WriteString("\n" + prefix)
		}
		switch n.DataAtom {
		case atom.Li:
			sb.WriteString("\n- ")
		case atom.Br:
			sb.WriteString("\n")
		case atom.Hr:
			sb.WriteString("\n---\n")
		case atom.Pre:
			sb.WriteString("\n```\n")
		case atom.Strong, atom.B:
			sb.WriteString("**")
		case atom.Em, atom.I:
			sb.WriteString("*")
		case atom.P, atom.Div, atom.Section, atom.Article, atom.Blockquote:
			sb.WriteString("\n")
		case atom.Img:
			if alt := attr(n, "alt"); alt != "" {
				fmt.Fprintf(sb, "![%s](%s) ", alt, attr(n, "src"))
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeMarkdown(sb, c)
	}

	if n.Type != html.ElementNode {
		return
	}
	switch n.DataAtom {
	case atom.Pre:
		sb.WriteString("\n```\n")
	case atom.Strong, atom.B:
		sb.WriteString("**")
	case atom.Em, atom.I:
		sb.WriteString("*")
	case atom.A:
		if href := attr(n, "href"); href != "" && !strings.HasPrefix(href, "#") {
			fmt.Fprintf(sb, " (%s)", href)
		}
	}
	if blockTags[n.DataAtom] {
		sb.WriteString("\n")
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
