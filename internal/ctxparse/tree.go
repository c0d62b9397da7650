package ctxparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v3"
)

// Kind is the shape of a Node.
type Kind uint8

const (
	Scalar Kind = iota
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Node is one element of a parsed document. Mapping children alternate
// key, value, key, value; sequence children are the elements in order.
// Only Textual scalars are candidates for matching.
type Node struct {
	Kind     Kind
	Value    string
	Textual  bool
	Line     int
	Children []*Node
}

// DefaultMaxNodes bounds the size of an expanded document. Aliases are
// expanded in place, so a small file can describe an enormous tree.
const DefaultMaxNodes = 1 << 20

// ErrTooLarge is returned when expansion exceeds the node budget.
var ErrTooLarge = errors.New("document expands beyond node budget")

// ParseYAML decodes every document of a YAML stream. Empty documents
// (null, {} or []) are dropped, so a nil result with a nil error means the
// content holds nothing to search structurally.
func ParseYAML(b []byte) ([]*Node, error) {
	return ParseYAMLWithLimit(b, DefaultMaxNodes)
}

// ParseYAMLWithLimit is ParseYAML with an explicit node budget.
func ParseYAMLWithLimit(b []byte, maxNodes int) ([]*Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	var docs []*Node
	budget := maxNodes
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		n, used, err := convert(&root, budget)
		if err != nil {
			return nil, err
		}
		budget -= used
		if !isEmpty(n) {
			docs = append(docs, n)
		}
	}
	return docs, nil
}

type frame struct {
	src *yaml.Node
	dst *Node
}

// convert copies a yaml.v3 node graph into a Node tree using an explicit
// stack. Aliases are replaced by their anchor's subtree.
func convert(root *yaml.Node, budget int) (*Node, int, error) {
	src := root
	if src.Kind == yaml.DocumentNode {
		if len(src.Content) == 0 {
			return nil, 0, nil
		}
		src = src.Content[0]
	}
	out := &Node{}
	stack := []frame{{src: src, dst: out}}
	used := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		used++
		if used > budget {
			return nil, used, ErrTooLarge
		}

		n := f.src
		for n.Kind == yaml.AliasNode && n.Alias != nil {
			n = n.Alias
		}
		f.dst.Line = n.Line
		switch n.Kind {
		case yaml.MappingNode, yaml.SequenceNode:
			f.dst.Kind = Sequence
			if n.Kind == yaml.MappingNode {
				f.dst.Kind = Mapping
			}
			f.dst.Children = make([]*Node, len(n.Content))
			for i, c := range n.Content {
				child := &Node{}
				f.dst.Children[i] = child
				stack = append(stack, frame{src: c, dst: child})
			}
		case yaml.ScalarNode:
			f.dst.Kind = Scalar
			f.dst.Value = n.Value
			f.dst.Textual = isTextual(n)
		default:
			// Unresolvable alias or stray document marker: an untyped,
			// non-textual scalar.
			f.dst.Kind = Scalar
		}
	}
	return out, used, nil
}

// isTextual reports whether a scalar resolves to a string. Application
// tags such as !Ref keep their textual value.
func isTextual(n *yaml.Node) bool {
	switch n.ShortTag() {
	case "!!int", "!!float", "!!bool", "!!null", "!!timestamp", "!!binary", "!!merge":
		return false
	}
	return true
}

func isEmpty(n *Node) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case Mapping, Sequence:
		return len(n.Children) == 0
	default:
		return !n.Textual && (n.Value == "" || n.Value == "~" || n.Value == "null" || n.Value == "Null" || n.Value == "NULL")
	}
}
