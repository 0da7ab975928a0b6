package markup

import (
	"regexp"
	"strings"
	"time"
)

// Stage is one pure step of the pipeline. Stages only look inside Text
// nodes, so Math leaves pass through every stage untouched.
type Stage func([]Node) []Node

var (
	titleRe  = regexp.MustCompile(`\\title\{([^}]+)\}`)
	authorRe = regexp.MustCompile(`\\author\{([^}]+)\}`)
	dateRe   = regexp.MustCompile(`\\date\{([^}]+)\}`)
	bodyRe   = regexp.MustCompile(`(?s)\\begin\{document\}(.*?)\\end\{document\}`)

	// Order matters: display delimiters are claimed before inline ones so
	// "$$x$$" never splits into two inline spans.
	mathPasses = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\$\$.*?\$\$`),
		regexp.MustCompile(`(?s)\\\[.*?\\\]`),
		regexp.MustCompile(`\$[^$]+\$`),
		regexp.MustCompile(`\\\([^)]+\\\)`),
	}

	maketitleRe = regexp.MustCompile(`\\maketitle`)
	closeBrace  = regexp.MustCompile(`\}`)
	headingRes  = []*regexp.Regexp{
		regexp.MustCompile(`\\section\{`),
		regexp.MustCompile(`\\subsection\{`),
		regexp.MustCompile(`\\subsubsection\{`),
	}

	itemizeBegin   = regexp.MustCompile(`\\begin\{itemize\}`)
	itemizeEnd     = regexp.MustCompile(`\\end\{itemize\}`)
	enumerateBegin = regexp.MustCompile(`\\begin\{enumerate\}`)
	enumerateEnd   = regexp.MustCompile(`\\end\{enumerate\}`)
	itemRe         = regexp.MustCompile(`\\item\s+`)
	newlineRe      = regexp.MustCompile(`\n`)

	// A paragraph break is a newline followed by at least one blank line.
	paragraphBreak = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)
)

// FrontMatter holds the preamble fields used by \maketitle.
type FrontMatter struct {
	Title  string
	Author string
	Date   string
}

func (fm FrontMatter) empty() bool {
	return fm.Title == "" && fm.Author == "" && fm.Date == ""
}

// ParseFrontMatter scans the whole text for \title, \author and \date. A date
// of \today resolves to now.
func ParseFrontMatter(text string, now time.Time) FrontMatter {
	var fm FrontMatter
	if m := titleRe.FindStringSubmatch(text); m != nil {
		fm.Title = m[1]
	}
	if m := authorRe.FindStringSubmatch(text); m != nil {
		fm.Author = m[1]
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		fm.Date = m[1]
		if fm.Date == `\today` {
			fm.Date = now.Format("January 2, 2006")
		}
	}
	return fm
}

// ExtractBody returns the text between \begin{document} and the next
// \end{document}.
func ExtractBody(text string) (string, bool) {
	m := bodyRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ProtectMath turns the body into Text and Math nodes. The four delimiter
// styles are claimed in order, each pass only searching text the previous
// passes left behind; Seq increases across all passes.
func ProtectMath(body string) []Node {
	nodes := []Node{&Text{Value: body}}
	seq := 0
	for _, re := range mathPasses {
		var out []Node
		for _, n := range nodes {
			t, isText := n.(*Text)
			if !isText {
				out = append(out, n)
				continue
			}
			last := 0
			for _, loc := range re.FindAllStringIndex(t.Value, -1) {
				out = append(out, &Text{Value: t.Value[last:loc[0]]}, &Math{Seq: seq, Source: t.Value[loc[0]:loc[1]]})
				seq++
				last = loc[1]
			}
			out = append(out, &Text{Value: t.Value[last:]})
		}
		nodes = mergeText(out)
	}
	return nodes
}

// ExpandTitle replaces the first \maketitle with a title block built from
// fm. Without any front matter the marker is simply removed.
func ExpandTitle(fm FrontMatter) Stage {
	return func(nodes []Node) []Node {
		start, end, ok := find(nodes, pos{}, maketitleRe)
		if !ok {
			return nodes
		}
		out := slice(nodes, pos{}, start)
		if !fm.empty() {
			out = append(out, &TitleBlock{Title: fm.Title, Author: fm.Author, Date: fm.Date})
		}
		out = append(out, slice(nodes, end, endPos(nodes))...)
		return mergeText(out)
	}
}

// ConvertHeadings rewrites \section, \subsection and \subsubsection. The
// argument runs to the first closing brace outside math.
func ConvertHeadings(nodes []Node) []Node {
	for i, open := range headingRes {
		level := i + 1
		nodes = replaceDelimited(nodes, open, closeBrace, true, func(inner []Node) Node {
			return &Heading{Level: level, Children: inner}
		})
	}
	return nodes
}

// ConvertLists rewrites itemize and enumerate environments. Each \item takes
// the rest of its line. Enumerates inside an itemize are converted before the
// itemize splits its items, so they nest as a block.
func ConvertLists(nodes []Node) []Node {
	nodes = replaceDelimited(nodes, itemizeBegin, itemizeEnd, false, func(inner []Node) Node {
		return &List{Ordered: false, Children: splitItems(convertEnumerates(inner))}
	})
	return convertEnumerates(nodes)
}

func convertEnumerates(nodes []Node) []Node {
	return replaceDelimited(nodes, enumerateBegin, enumerateEnd, false, func(inner []Node) Node {
		return &List{Ordered: true, Children: splitItems(inner)}
	})
}

func splitItems(nodes []Node) []Node {
	var out []Node
	from := pos{}
	for {
		itemStart, itemEnd, ok := find(nodes, from, itemRe)
		if !ok {
			break
		}
		out = append(out, slice(nodes, from, itemStart)...)
		lineEnd, _, ok := find(nodes, itemEnd, newlineRe)
		if !ok {
			lineEnd = endPos(nodes)
		}
		out = append(out, &ListItem{Children: slice(nodes, itemEnd, lineEnd)})
		from = lineEnd
	}
	out = append(out, slice(nodes, from, endPos(nodes))...)

	kept := out[:0]
	for _, n := range mergeText(out) {
		if t, ok := n.(*Text); ok && strings.TrimSpace(t.Value) == "" {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

// SegmentParagraphs groups inline content into paragraphs. Blank lines and
// block nodes end the current paragraph, so blocks are never nested inside
// one, and paragraphs holding only whitespace are dropped. When the body
// opens with a markup tag, its first paragraph is left unwrapped.
func SegmentParagraphs(nodes []Node) []Node {
	var out, current []Node
	leadingTag := false
	if len(nodes) > 0 {
		if t, ok := nodes[0].(*Text); ok {
			leadingTag = strings.HasPrefix(strings.TrimSpace(t.Value), "<")
		}
	}
	flush := func() {
		if inline := trimInline(current); len(inline) > 0 {
			out = append(out, &Paragraph{Children: inline, Bare: leadingTag && len(out) == 0})
		}
		current = nil
	}
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			for i, part := range paragraphBreak.Split(n.Value, -1) {
				if i > 0 {
					flush()
				}
				if part != "" {
					current = append(current, &Text{Value: part})
				}
			}
		case *Math:
			current = append(current, n)
		default:
			flush()
			out = append(out, n)
		}
	}
	flush()
	return out
}

func trimInline(nodes []Node) []Node {
	nodes = mergeText(nodes)
	if len(nodes) == 0 {
		return nil
	}
	if t, ok := nodes[0].(*Text); ok {
		nodes[0] = &Text{Value: strings.TrimLeft(t.Value, " \t\r\n")}
	}
	if t, ok := nodes[len(nodes)-1].(*Text); ok {
		nodes[len(nodes)-1] = &Text{Value: strings.TrimRight(t.Value, " \t\r\n")}
	}
	return mergeText(nodes)
}
