package scaffold

import (
	"context"
	"sync/atomic"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/pipe"
)

// MockPipe mirrors another pipe's ports and does nothing when run.
type MockPipe struct {
	*pipe.Pipe
	calls atomic.Int64
}

// Mock creates a no-op stand-in for p with the same name, ports and
// schemas. Ports are tabular regardless of the original variant.
func Mock(p pipe.Flower) *MockPipe {
	m := &MockPipe{Pipe: pipe.New(p.Self().Name())}
	if err := m.Hydrate(p.Self().Shell()); err != nil {
		panic(err)
	}
	return m
}

// Flow counts the call.
func (m *MockPipe) Flow(context.Context) error {
	m.calls.Add(1)
	return nil
}

// Calls returns how many times Flow ran.
func (m *MockPipe) Calls() int { return int(m.calls.Load()) }

// MockChildren replaces the named children of parent with mocks, or every
// child when no names are given.
func MockChildren(parent *pipe.Pipe, names ...string) (map[string]*MockPipe, error) {
	if len(names) == 0 {
		names = parent.Children()
	}
	mocks := make(map[string]*MockPipe, len(names))
	for _, name := range names {
		child, ok := parent.Child(name)
		if !ok {
			return nil, apperrors.NotFound("child", name).WithDetail("pipe", parent.Name())
		}
		m := Mock(child)
		if err := parent.ReplaceChild(name, m); err != nil {
			return nil, err
		}
		mocks[name] = m
	}
	return mocks, nil
}
