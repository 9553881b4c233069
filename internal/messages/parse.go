package messages

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse splits a message file into messages. Lines are trimmed; empty lines
// and lines starting with '#' are skipped.
func Parse(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// SplitEditor turns editor text into messages: one per non-blank line. Unlike
// Parse it keeps lines starting with '#'.
func SplitEditor(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Format renders a category file: a header line, a blank line, then one
// message per line.
func Format(c Category, msgs []string) string {
	return fmt.Sprintf("# %s\n\n%s", c.Name(), strings.Join(msgs, "\n"))
}

// Preview summarizes a message list for display.
func Preview(msgs []string) string {
	switch len(msgs) {
	case 0:
		return "No messages found"
	case 1:
		return fmt.Sprintf("1 message: %q", msgs[0])
	default:
		return fmt.Sprintf("%d messages: %q and %d more...", len(msgs), msgs[0], len(msgs)-1)
	}
}

// PlainText reduces inline markdown in a message to the words that should be
// spoken.
func PlainText(md string) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	out := strings.Join(strings.Fields(buf.String()), " ")
	if out == "" {
		return strings.TrimSpace(md)
	}
	return out
}
