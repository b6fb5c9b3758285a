package dag

import "context"

// Node is the execution unit in a DAG.
type Node interface {
	Name() string
	Run(ctx context.Context, state *State) (any, error)
}

// NodeFunc adapts a function into a Node.
func NodeFunc(name string, fn func(ctx context.Context, state *State) (any, error)) Node {
	return &funcNode{name: name, fn: fn}
}

type funcNode struct {
	name string
	fn   func(ctx context.Context, state *State) (any, error)
}

func (n *funcNode) Name() string { return n.name }

func (n *funcNode) Run(ctx context.Context, state *State) (any, error) {
	return n.fn(ctx, state)
}

// Producer builds a node that writes fn's result to a typed Port.
func Producer[T any](name string, out Port[T], fn func(ctx context.Context, state *State) (T, error)) Node {
	return NodeFunc(name, func(ctx context.Context, state *State) (any, error) {
		value, err := fn(ctx, state)
		if err != nil {
			return nil, err
		}
		Write(state, out, value)
		return value, nil
	})
}
