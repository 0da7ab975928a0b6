package markup

import "regexp"

// Node is one element of the document tree built from the body text.
type Node interface {
	isNode()
}

// Text is plain body text that structural stages may still rewrite.
type Text struct {
	Value string
}

// Math is an opaque math span. Source keeps the original delimiters and is
// emitted byte for byte. Seq numbers spans in the order they were protected.
type Math struct {
	Seq    int
	Source string
}

// TitleBlock is the expansion of \maketitle.
type TitleBlock struct {
	Title  string
	Author string
	Date   string
}

// Heading is a sectioning command; Level 1 is \section.
type Heading struct {
	Level    int
	Children []Node
}

// List is an itemize (unordered) or enumerate (ordered) environment. Its
// children are ListItems plus any non-blank text found between items.
type List struct {
	Ordered  bool
	Children []Node
}

type ListItem struct {
	Children []Node
}

// Paragraph is a run of inline content. A Bare paragraph is rendered without
// its <p> wrapper.
type Paragraph struct {
	Children []Node
	Bare     bool
}

func (*Text) isNode()       {}
func (*Math) isNode()       {}
func (*TitleBlock) isNode() {}
func (*Heading) isNode()    {}
func (*List) isNode()       {}
func (*ListItem) isNode()   {}
func (*Paragraph) isNode()  {}

// pos addresses a byte offset inside nodes[node]. Offsets are only meaningful
// for Text nodes; any other node is addressed with off 0.
type pos struct {
	node int
	off  int
}

func endPos(nodes []Node) pos {
	return pos{node: len(nodes)}
}

// find returns the first match of re at or after from. Matches never span
// nodes: only Text nodes are searched and everything else is skipped whole.
func find(nodes []Node, from pos, re *regexp.Regexp) (start, end pos, ok bool) {
	for i := from.node; i < len(nodes); i++ {
		t, isText := nodes[i].(*Text)
		if !isText {
			continue
		}
		base := 0
		if i == from.node {
			base = from.off
		}
		if loc := re.FindStringIndex(t.Value[base:]); loc != nil {
			return pos{i, base + loc[0]}, pos{i, base + loc[1]}, true
		}
	}
	return pos{}, pos{}, false
}

// slice returns the nodes in [a, b), cutting Text nodes at the boundaries.
func slice(nodes []Node, a, b pos) []Node {
	var out []Node
	for i := a.node; i <= b.node && i < len(nodes); i++ {
		t, isText := nodes[i].(*Text)
		if !isText {
			if i == b.node {
				break
			}
			out = append(out, nodes[i])
			continue
		}
		lo, hi := 0, len(t.Value)
		if i == a.node {
			lo = a.off
		}
		if i == b.node {
			hi = b.off
		}
		if lo < hi {
			out = append(out, &Text{Value: t.Value[lo:hi]})
		}
	}
	return out
}

// mergeText joins adjacent Text nodes and drops empty ones.
func mergeText(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		t, isText := n.(*Text)
		if !isText {
			out = append(out, n)
			continue
		}
		if t.Value == "" {
			continue
		}
		if len(out) > 0 {
			if prev, ok := out[len(out)-1].(*Text); ok {
				out[len(out)-1] = &Text{Value: prev.Value + t.Value}
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// replaceDelimited rewrites every open…close construct into build(inner).
// close is searched from the end of open, so inner may contain math and other
// opaque nodes. With nonEmpty set, an opener directly followed by its closer
// is left as text.
func replaceDelimited(nodes []Node, open, close *regexp.Regexp, nonEmpty bool, build func(inner []Node) Node) []Node {
	var out []Node
	from := pos{}
	for {
		openStart, openEnd, ok := find(nodes, from, open)
		if !ok {
			break
		}
		closeStart, closeEnd, ok := find(nodes, openEnd, close)
		if !ok {
			break
		}
		inner := slice(nodes, openEnd, closeStart)
		if nonEmpty && len(inner) == 0 {
			out = append(out, slice(nodes, from, openEnd)...)
			from = openEnd
			continue
		}
		out = append(out, slice(nodes, from, openStart)...)
		out = append(out, build(inner))
		from = closeEnd
	}
	out = append(out, slice(nodes, from, endPos(nodes))...)
	return mergeText(out)
}
