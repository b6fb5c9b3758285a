package dag

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine executes a graph in dependency order.
type Engine struct {
	// MaxParallel limits concurrent nodes per level (0 = unlimited, 1 = serial).
	MaxParallel int
}

// Execute runs every node in dependency order. When any node of a level
// fails, the nodes already started in that level finish, later levels are
// marked skipped, and the first failing node's error (in level order) is
// returned unchanged alongside the partial result.
func (e *Engine) Execute(ctx context.Context, g *Graph, state *State) (*Result, error) {
	start := time.Now()

	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	result := &Result{
		NodeResults: make(map[string]NodeResult, len(g.Nodes)),
	}

	var failure error
	for _, level := range levels {
		if failure == nil {
			failure = ctx.Err()
		}
		if failure != nil {
			for _, name := range level {
				result.NodeResults[name] = NodeResult{Name: name, Status: StatusSkipped}
			}
			continue
		}

		e.executeLevel(ctx, g, state, level, result)
		for _, name := range level {
			if nr := result.NodeResults[name]; nr.Status == StatusFailed {
				failure = nr.Error
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result, failure
}

func (e *Engine) executeLevel(ctx context.Context, g *Graph, state *State, names []string, result *Result) {
	var mu sync.Mutex
	var group errgroup.Group
	if limit := e.concurrency(len(names)); limit > 0 {
		group.SetLimit(limit)
	}

	for _, name := range names {
		node := g.Nodes[name]
		group.Go(func() error {
			nr := e.executeNode(ctx, node, state)
			nr.Name = name
			mu.Lock()
			result.NodeResults[name] = nr
			result.Order = append(result.Order, name)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
}

func (e *Engine) executeNode(ctx context.Context, node Node, state *State) NodeResult {
	start := time.Now()
	output, err := node.Run(ctx, state)
	duration := time.Since(start)

	if err != nil {
		return NodeResult{
			Name:     node.Name(),
			Status:   StatusFailed,
			Duration: duration,
			Error:    err,
		}
	}

	return NodeResult{
		Name:     node.Name(),
		Status:   StatusCompleted,
		Duration: duration,
		Output:   output,
	}
}

func (e *Engine) concurrency(levelSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > levelSize {
		return levelSize
	}
	return e.MaxParallel
}
