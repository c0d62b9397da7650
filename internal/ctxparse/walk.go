package ctxparse

// Walk visits every node of docs depth-first in document order: a
// mapping's key before its value, sequence elements first to last. It keeps
// its own stack, so nesting depth only costs heap.
func Walk(docs []*Node, visit func(*Node)) {
	stack := make([]*Node, 0, 64)
	for i := len(docs) - 1; i >= 0; i-- {
		if docs[i] != nil {
			stack = append(stack, docs[i])
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			if c := n.Children[i]; c != nil {
				stack = append(stack, c)
			}
		}
	}
}

// Strings returns the textual scalars of docs in walk order.
func Strings(docs []*Node) []string {
	var out []string
	Walk(docs, func(n *Node) {
		if n.Kind == Scalar && n.Textual {
			out = append(out, n.Value)
		}
	})
	return out
}
