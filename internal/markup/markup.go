// Package markup turns the supported LaTeX subset into an HTML preview
// fragment. Math spans are kept verbatim, delimiters included, for the
// browser-side math renderer to pick up.
package markup

import (
	"strconv"
	"strings"
	"time"
)

const (
	EmptyFragment       = `<p>Start typing to see the preview...</p>`
	MissingBodyFragment = `<p class="latex-hint">Add <code>\begin{document}</code> and <code>\end{document}</code> to see the preview.</p>`
)

// Transformer is safe for concurrent use. Now only feeds \date{\today}.
type Transformer struct {
	Now func() time.Time
}

func New() *Transformer {
	return &Transformer{Now: time.Now}
}

var defaultTransformer = New()

// Transform renders text with the wall clock.
func Transform(text string) string {
	return defaultTransformer.Transform(text)
}

func (t *Transformer) Transform(text string) string {
	if strings.TrimSpace(text) == "" {
		return EmptyFragment
	}
	nodes, ok := t.Parse(text)
	if !ok {
		return MissingBodyFragment
	}
	return Render(nodes)
}

// Parse runs every stage and returns the finished tree. It reports false when
// the document body markers are missing.
func (t *Transformer) Parse(text string) ([]Node, bool) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	fm := ParseFrontMatter(text, now())
	body, ok := ExtractBody(text)
	if !ok {
		return nil, false
	}

	nodes := ProtectMath(body)
	for _, stage := range []Stage{
		ExpandTitle(fm),
		ConvertHeadings,
		ConvertLists,
		SegmentParagraphs,
	} {
		nodes = stage(nodes)
	}
	return nodes, true
}

// Render serializes a tree. Top-level blocks are separated by newlines.
func Render(nodes []Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		renderNode(&sb, n)
	}
	return sb.String()
}

func renderNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		sb.WriteString(n.Value)
	case *Math:
		sb.WriteString(n.Source)
	case *TitleBlock:
		if n.Title != "" {
			sb.WriteString(`<h1 class="latex-title">` + n.Title + `</h1>`)
		}
		if n.Author != "" {
			sb.WriteString(`<p class="latex-author">` + n.Author + `</p>`)
		}
		if n.Date != "" {
			sb.WriteString(`<p class="latex-date">` + n.Date + `</p>`)
		}
	case *Heading:
		tag := "h" + strconv.Itoa(n.Level+1)
		sb.WriteString("<" + tag + ">")
		renderChildren(sb, n.Children)
		sb.WriteString("</" + tag + ">")
	case *List:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		sb.WriteString("<" + tag + ">")
		renderChildren(sb, n.Children)
		sb.WriteString("</" + tag + ">")
	case *ListItem:
		sb.WriteString("<li>")
		renderChildren(sb, n.Children)
		sb.WriteString("</li>")
	case *Paragraph:
		if n.Bare {
			renderChildren(sb, n.Children)
			return
		}
		sb.WriteString("<p>")
		renderChildren(sb, n.Children)
		sb.WriteString("</p>")
	}
}

func renderChildren(sb *strings.Builder, children []Node) {
	for _, c := range children {
		renderNode(sb, c)
	}
}
