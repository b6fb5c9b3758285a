// Package pipe composes units of work into graphs.
//
// A Pipe declares named source and target subjects, child pipes and the
// connections between them. Concrete pipes embed *Pipe and implement Flow:
//
//	type Upper struct{ *pipe.Pipe }
//
//	func NewUpper() *Upper {
//	    p := &Upper{Pipe: pipe.New("upper")}
//	    p.MustAddSource("main", nil)
//	    p.MustAddTarget("main", nil)
//	    return p
//	}
//
//	func (u *Upper) Flow(ctx context.Context) error { ... }
//
// A Composite runs its children. The child named "self" is the enclosing
// pipe: connections from self read the pipe's sources and connections to
// self write its targets.
//
// The Scheduler validates the connection set and turns it into a dag.Graph
// with three kinds of node:
//
//	P.run        runs P.Flow
//	P.target.t   publishes P's target t once P.run finished
//	P.t->Q.s     links Q's source s from P's target t
//
// self is represented by the bridge nodes self.in and self.out, which never
// call Flow.
package pipe
