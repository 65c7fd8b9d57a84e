// Package format turns mail bodies into compact plain text for prompts and
// renders assistant answers as safe HTML fragments.
package format

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripTags removes markup from an HTML body and returns the remaining text,
// trimmed. It tokenizes instead of building a tree: the result feeds a
// summarizer, not a renderer.
func StripTags(htmlContent string) string {
	z := html.NewTokenizer(strings.NewReader(htmlContent))

	var buf bytes.Buffer
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseBlankLines(buf.String())
		case html.TextToken:
			if skipDepth == 0 {
				buf.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if isInvisible(a) && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if isBreak(a) {
				buf.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if isInvisible(a) {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if isBreak(a) {
				buf.WriteByte('\n')
			}
		}
	}
}

func isInvisible(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		return true
	}
	return false
}

func isBreak(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.P, atom.Div, atom.Tr, atom.Li, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote:
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
