package widget

import (
	"html"
	"strings"

	"texcollab/pkg/logger"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.css">
<script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.js"></script>
<script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/contrib/auto-render.min.js"
  onload="renderMathInElement(document.body, {delimiters: [
    {left: '$$', right: '$$', display: true},
    {left: '\\[', right: '\\]', display: true},
    {left: '$', right: '$', display: false},
    {left: '\\(', right: '\\)', display: false}
  ]});"></script>
<meta http-equiv="refresh" content="5">
</head>
<body class="latex-preview">
{{body}}
</body>
</html>
`

// HTMLPreview writes every fragment into a standalone page. Math is rendered
// in the browser by KaTeX auto-render.
type HTMLPreview struct {
	Path  string
	Title string
}

func (p *HTMLPreview) Show(fragment string) {
	page := strings.NewReplacer(
		"{{title}}", html.EscapeString(p.Title),
		"{{body}}", fragment,
	).Replace(pageTemplate)
	if err := writeFileAtomic(p.Path, []byte(page), 0o644); err != nil {
		logger.Sugar.Errorf("Failed to write preview %s: %v", p.Path, err)
	}
}
