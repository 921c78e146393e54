package review

import (
	"fmt"
	"regexp"
	"strings"

	"codereviewer/internal/api"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractText turns rendered review markup back into plain text. Code
// blocks come back wrapped in ``` fences.
func ExtractText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}

	var b strings.Builder
	writeText(&b, doc)
	return tidy(b.String()), nil
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Pre:
			writeFence(b, n)
			return
		case atom.Code:
			b.WriteString("`")
			writeChildren(b, n)
			b.WriteString("`")
			return
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.Li:
			b.WriteString("\n- ")
		case atom.Style, atom.Script:
			return
		}
	}

	writeChildren(b, n)

	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteString("\n\n")
	}
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func writeFence(b *strings.Builder, pre *html.Node) {
	code := textContent(pre)
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	lang := blockLanguage(pre)
	if lang == "" {
		lang = codeLanguage(pre)
	}
	fence := strings.Repeat("`", max(3, longestBacktickRun(code)+1))

	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString(lang)
	b.WriteString("\n")
	b.WriteString(code)
	b.WriteString(fence)
	b.WriteString("\n\n")
}

func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for _, r := range s {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

// blockLanguage reads data-lang from the code-block wrapper written by
// Renderer.
func blockLanguage(pre *html.Node) string {
	for n := pre.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode || n.DataAtom != atom.Div {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "data-lang" {
				return a.Val
			}
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// codeLanguage reads the language-xxx class goldmark puts on unhighlighted
// blocks. Highlighted blocks carry no language.
func codeLanguage(n *html.Node) string {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key != "class" {
				continue
			}
			for _, cls := range strings.Fields(a.Val) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok {
					return lang
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if lang := codeLanguage(c); lang != "" {
			return lang
		}
	}
	return ""
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Blockquote, atom.Table, atom.Tr, atom.Hr:
		return true
	}
	return false
}

// tidy collapses runs of blank lines outside code fences. A fence closes
// only on a bare backtick line at least as long as the one that opened it.
func tidy(s string) string {
	var out []string
	fence := ""
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		switch {
		case fence == "" && strings.HasPrefix(line, "```"):
			fence = line[:len(line)-len(strings.TrimLeft(line, "`"))]
		case fence != "":
			if trimmed := strings.TrimSpace(line); strings.Trim(trimmed, "`") == "" && len(trimmed) >= len(fence) {
				fence = ""
			}
			blank = 0
			out = append(out, line)
			continue
		}

		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			line = ""
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var codeBlockRegex = regexp.MustCompile("(?s)```([A-Za-z0-9_+#-]*)[^\n]*\n(.*?)```")

// ExtractCode returns the first fenced block tagged with language, or the
// first untagged-or-otherwise block when none matches.
func ExtractCode(markdown, language string) (string, bool) {
	matches := codeBlockRegex.FindAllStringSubmatch(markdown, -1)
	if len(matches) == 0 {
		return "", false
	}

	want, err := api.ParseLanguage(language)
	if err == nil {
		for _, m := range matches {
			if tag, err := api.ParseLanguage(m[1]); err == nil && tag == want {
				return strings.TrimSpace(m[2]), true
			}
		}
	}
	return strings.TrimSpace(matches[0][2]), true
}
