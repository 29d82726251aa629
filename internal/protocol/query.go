package protocol

import (
	"fmt"
	"maps"

	"github.com/reichert621/instachat/internal/common"
)

// OptionsKey is the reserved key holding node options in the mapping form.
const OptionsKey = "$"

type Cardinality string

const (
	CardinalityMany Cardinality = ""
	CardinalityOne  Cardinality = "one"
)

// Node is one level of a query shape.
type Node struct {
	// Is names the collection the node ranges over. Top-level nodes default
	// to their key; nested nodes default to following links.
	Is          string
	Where       map[string]any
	Cardinality Cardinality
	Children    Query
}

// Query is a nested query shape keyed by result name.
type Query map[string]Node

// Collection returns the collection a top-level node named key reads from.
func (n Node) Collection(key string) string {
	if n.Is != "" {
		return n.Is
	}
	return key
}

// Map renders the node in the nested mapping form.
func (n Node) Map() map[string]any {
	m := make(map[string]any, len(n.Children)+1)

	opts := map[string]any{}
	if n.Is != "" {
		opts["is"] = n.Is
	}
	if len(n.Where) > 0 {
		opts["where"] = maps.Clone(n.Where)
	}
	if n.Cardinality == CardinalityOne {
		opts["cardinality"] = string(CardinalityOne)
	}
	if len(opts) > 0 {
		m[OptionsKey] = opts
	}

	for k, child := range n.Children {
		m[k] = child.Map()
	}
	return m
}

// Map renders the query in the nested mapping form.
func (q Query) Map() map[string]any {
	m := make(map[string]any, len(q))
	for k, n := range q {
		m[k] = n.Map()
	}
	return m
}

// ParseQuery is the inverse of Query.Map.
func ParseQuery(m map[string]any) (Query, error) {
	q := make(Query, len(m))
	for k, v := range m {
		if k == OptionsKey {
			return nil, fmt.Errorf("%w: options key at top level", common.ErrInvalidOp)
		}
		raw, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: query node %q is %T, want object", common.ErrInvalidOp, k, v)
		}
		n, err := parseNode(raw)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", k, err)
		}
		q[k] = n
	}
	return q, nil
}

func parseNode(m map[string]any) (Node, error) {
	var n Node

	if rawOpts, ok := m[OptionsKey]; ok {
		opts, ok := rawOpts.(map[string]any)
		if !ok {
			return Node{}, fmt.Errorf("%w: options are %T, want object", common.ErrInvalidOp, rawOpts)
		}
		if is, ok := opts["is"]; ok {
			s, ok := is.(string)
			if !ok {
				return Node{}, fmt.Errorf("%w: \"is\" must be a string", common.ErrInvalidOp)
			}
			n.Is = s
		}
		if where, ok := opts["where"]; ok {
			w, ok := where.(map[string]any)
			if !ok {
				return Node{}, fmt.Errorf("%w: \"where\" must be an object", common.ErrInvalidOp)
			}
			n.Where = maps.Clone(w)
		}
		if card, ok := opts["cardinality"]; ok {
			switch card {
			case string(CardinalityOne):
				n.Cardinality = CardinalityOne
			case "many", "":
				n.Cardinality = CardinalityMany
			default:
				return Node{}, fmt.Errorf("%w: unknown cardinality %v", common.ErrInvalidOp, card)
			}
		}
	}

	rest := make(map[string]any, len(m))
	for k, v := range m {
		if k != OptionsKey {
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		children, err := ParseQuery(rest)
		if err != nil {
			return Node{}, err
		}
		n.Children = children
	}
	return n, nil
}
