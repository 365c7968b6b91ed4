package corpus

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownConverter reduces markdown to plain text. Every block lands on its
// own lines, separated by a blank line, so headings stay visible to the
// segmenter and paragraphs stay visible to the paragraph split.
type MarkdownConverter struct {
	md goldmark.Markdown
}

// NewMarkdownConverter creates a converter with GitHub flavored extensions.
func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Convert returns the plain text of src.
func (c *MarkdownConverter) Convert(src []byte) string {
	doc := c.md.Parser().Parse(text.NewReader(src))

	var blocks []string
	// Ordered list markers carry clause numbers, so they are kept.
	var marker string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		blocks = append(blocks, marker+s)
		marker = ""
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.ListItem:
			marker = listMarker(node)
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			add(inlineText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			add(linesText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			add(linesText(node, src))
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			add(tableText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n\n")
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return ""
	}
	n := list.Start
	for sib := item.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		n++
	}
	return strconv.Itoa(n) + ". "
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return buf.String()
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
		case *ast.RawHTML:
			// dropped
		default:
			writeInline(buf, c, src)
		}
	}
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func tableText(table *extast.Table, src []byte) string {
	var rows []string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(inlineText(cell, src)))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}
