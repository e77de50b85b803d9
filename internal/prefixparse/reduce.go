package prefixparse

import (
	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/parsetree"
)

// actionOutcome is the result of driving the parser on one terminal: either
// it reduced zero or more times then shifted the lookahead (whose node is
// now on top of nodes), accepted, or errored.
type actionOutcome struct {
	action grammar.ActionType
	nodes  []*parsetree.Node
}

// driveAction runs stack/nodes through zero or more Reduce actions on
// terminal until a Shift or Accept is reached, building a tree node for each
// reduction along the way. lookahead is the tree node for the terminal
// itself; it is pushed onto the node stack only when the terminal is
// actually shifted, keeping the node stack aligned one-to-one with the
// completed grammar symbols on the state stack. It is the tree-building
// counterpart of the continuation oracle's reachability-only simulation:
// same ACTION/GOTO loop, generalized to also pop and push parsetree.Node
// values in lockstep with the state stack.
func driveAction(table grammar.Table, stack []int, nodes []*parsetree.Node, terminal string, lookahead *parsetree.Node, opt Options) (actionOutcome, []int) {
	s := cloneInts(stack)
	ns := cloneNodes(nodes)

	for {
		act := table.Action(s[len(s)-1], terminal)
		switch act.Type {
		case grammar.Shift:
			ns = append(ns, lookahead)
			return actionOutcome{action: grammar.Shift, nodes: ns}, append(s, act.ShiftState)
		case grammar.Accept:
			return actionOutcome{action: grammar.Accept, nodes: ns}, s
		case grammar.Reduce:
			if act.ReduceLen >= len(s) {
				return actionOutcome{action: grammar.Error, nodes: ns}, s
			}

			var children []*parsetree.Node
			if act.ReduceLen > 0 {
				popped := ns[len(ns)-act.ReduceLen:]
				ns = ns[:len(ns)-act.ReduceLen]
				for _, c := range popped {
					if c == nil {
						continue // an omitted epsilon child
					}
					children = append(children, c)
				}
			}

			s = s[:len(s)-act.ReduceLen]
			nextState, ok := table.Goto(s[len(s)-1], act.ReduceSymbol)
			if !ok {
				return actionOutcome{action: grammar.Error, nodes: ns}, s
			}
			s = append(s, nextState)

			var node *parsetree.Node
			switch {
			case act.ReduceLen == 0:
				if !opt.SkipEmpty {
					node = parsetree.Empty(act.ReduceSymbol)
				}
			case opt.CollapseSingle && len(children) == 1:
				node = children[0]
			default:
				node = parsetree.NonTerminal(act.ReduceSymbol, children)
			}
			ns = append(ns, node)
		default:
			return actionOutcome{action: grammar.Error, nodes: ns}, s
		}
	}
}
