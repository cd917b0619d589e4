// Sidecar spans for Nexus ASTs.
//
// Associates source byte spans with AST nodes without touching the nodes
// themselves. The parser records one Span per finished node in post-order
// (children before parent); BuildSpanIndexPostOrder walks the tree in the
// same order and binds each span to a structural NodePath. The executor
// threads its current path through evaluation and resolves it here when a
// runtime error needs a source position.
package nexus

import (
	"strconv"
	"strings"
)

// Span is a half-open byte interval [StartByte, EndByte) in the source.
type Span struct {
	StartByte int // inclusive
	EndByte   int // exclusive
}

// NodePath is a stable structural address into an S-expression AST. Each
// element selects a child: path element k refers to S[k+1], since S[0] is
// the node tag.
type NodePath []int

// SpanIndex maps NodePath → Span for one parsed program. Read-only after
// construction; safe for concurrent reads.
type SpanIndex struct {
	byPath map[string]Span
}

// Get returns the span recorded for the given path, if any.
func (si *SpanIndex) Get(p NodePath) (Span, bool) {
	if si == nil {
		return Span{}, false
	}
	sp, ok := si.byPath[pathKey(p)]
	return sp, ok
}

// BuildSpanIndexPostOrder binds the parser's post-order span list to node
// paths. If the list is shorter than the node count the remaining nodes are
// left unindexed; extras are ignored.
func BuildSpanIndexPostOrder(root S, postorder []Span) *SpanIndex {
	si := &SpanIndex{byPath: make(map[string]Span, len(postorder))}
	bindPostOrder(si, root, postorder)
	return si
}

func pathKey(p NodePath) string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, x := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(x))
	}
	return sb.String()
}

func bindPostOrder(si *SpanIndex, root S, postorder []Span) {
	i := 0
	var walk func(n S, path NodePath)
	walk = func(n S, path NodePath) {
		for ci := 1; ci < len(n); ci++ {
			if child, ok := n[ci].(S); ok {
				walk(child, append(path, ci-1))
			}
		}
		if i < len(postorder) {
			si.byPath[pathKey(path)] = postorder[i]
			i++
		}
	}
	walk(root, nil)
}

// offsetToLineCol converts a byte offset into 1-based line and column.
func offsetToLineCol(src string, off int) (line, col int) {
	if off < 0 {
		off = 0
	}
	if off > len(src) {
		off = len(src)
	}
	line, col = 1, 1
	for i := 0; i < off; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
