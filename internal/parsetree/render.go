package parsetree

import (
	"github.com/dekarrin/rosed"
)

// Render returns the indented outline of the tree, word-wrapped to the given
// width for terminal output. Each outline line wraps independently, so deep
// trees with long lexemes stay readable in a narrow console.
func Render(n *Node, width int) string {
	return rosed.
		Edit(n.String()).
		WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
		Wrap(width).
		String()
}

// TerminalsTable returns a two-column table of the tree's terminals in
// left-to-right order: token id on the left, lexed value on the right.
func TerminalsTable(n *Node, width int) string {
	var defs [][2]string
	collectTerminals(n, &defs)
	if len(defs) == 0 {
		return ""
	}

	return rosed.
		Edit("").
		WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
		InsertDefinitionsTable(0, defs, width).
		String()
}

func collectTerminals(n *Node, defs *[][2]string) {
	switch n.Kind {
	case KindTerminal:
		*defs = append(*defs, [2]string{n.Name, string(n.Value)})
	case KindNonTerminal:
		for _, c := range n.Children {
			collectTerminals(c, defs)
		}
	}
}
