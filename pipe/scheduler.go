package pipe

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/dag"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/subject"
)

// Bridge node names standing in for the enclosing pipe.
const (
	SelfIn  = "self.in"
	SelfOut = "self.out"
)

// Scheduler evaluates a pipe's child graph.
type Scheduler struct {
	Engine *dag.Engine
	Log    *logger.Logger
	// Metrics, when set, records run and node metrics.
	Metrics *observability.Metrics
	// Tracing wraps every node in a span.
	Tracing bool
	// LogNodes logs every node completion.
	LogNodes bool
}

// NewScheduler creates a scheduler from configuration.
func NewScheduler(cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		Engine:   &dag.Engine{MaxParallel: cfg.MaxParallel},
		Log:      logger.Get("scheduler"),
		Tracing:  cfg.Tracing,
		LogNodes: cfg.LogNodes,
	}
}

// DefaultScheduler evaluates serially in declaration order.
func DefaultScheduler() *Scheduler {
	return NewScheduler(config.SchedulerConfig{MaxParallel: 1})
}

// WithMetrics sets the metrics sink and returns the scheduler.
func (s *Scheduler) WithMetrics(m *observability.Metrics) *Scheduler {
	s.Metrics = m
	return s
}

// RunNode names the node running a child.
func RunNode(child string) string { return child + ".run" }

// AccessorNode names the node publishing a child's target.
func AccessorNode(child, target string) string { return child + ".target." + target }

// LinkNode names the node materializing a connection.
func LinkNode(c Connection) string { return c.String() }

func accessorPort(e Endpoint) dag.Port[subject.Subject] {
	if e.Pipe == SelfName {
		return dag.Port[subject.Subject]{Key: "self.source." + e.Port}
	}
	return dag.Port[subject.Subject]{Key: AccessorNode(e.Pipe, e.Port)}
}

// Plan validates p and builds its evaluation graph.
func (s *Scheduler) Plan(p *Pipe) (*dag.Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := dag.NewGraph()
	add := func(n dag.Node) error { return g.AddNode(s.wrap(n, p.Name())) }

	if err := add(dag.NodeFunc(SelfIn, func(_ context.Context, state *dag.State) (any, error) {
		for _, src := range p.sources.All() {
			dag.Write(state, accessorPort(Endpoint{Pipe: SelfName, Port: src.Name()}), src)
		}
		return nil, nil
	})); err != nil {
		return nil, err
	}

	for _, name := range p.childOrder {
		child := p.children[name]
		if err := add(dag.NodeFunc(RunNode(name), func(ctx context.Context, _ *dag.State) (any, error) {
			return nil, child.Flow(ctx)
		})); err != nil {
			return nil, err
		}
		for _, t := range child.Self().targets.All() {
			port := accessorPort(Endpoint{Pipe: name, Port: t.Name()})
			if err := add(dag.Producer(port.Key, port, func(context.Context, *dag.State) (subject.Subject, error) {
				return t, nil
			})); err != nil {
				return nil, err
			}
			g.AddEdge(RunNode(name), port.Key)
		}
	}

	if err := add(dag.NodeFunc(SelfOut, func(context.Context, *dag.State) (any, error) {
		return nil, nil
	})); err != nil {
		return nil, err
	}

	for _, c := range p.connections {
		conn := *c
		down, _ := p.downstream(conn.To)
		port := accessorPort(conn.From)
		node := LinkNode(conn)
		if err := add(dag.NodeFunc(node, func(ctx context.Context, state *dag.State) (any, error) {
			up, err := dag.Read(state, port)
			if err != nil {
				return nil, err
			}
			return nil, down.LinkFrom(ctx, up)
		})); err != nil {
			return nil, err
		}

		if conn.From.Pipe == SelfName {
			g.AddEdge(SelfIn, node)
		} else {
			g.AddEdge(port.Key, node)
		}
		if conn.To.Pipe == SelfName {
			g.AddEdge(node, SelfOut)
		} else {
			g.AddEdge(node, RunNode(conn.To.Pipe))
		}
	}
	return g, nil
}

func (s *Scheduler) wrap(n dag.Node, pipeName string) dag.Node {
	if s.LogNodes && s.Log != nil {
		n = dag.WithLogging(n, s.Log.WithPipe(pipeName))
	}
	if s.Metrics != nil {
		n = dag.WithMetrics(n, s.Metrics, pipeName)
	}
	if s.Tracing {
		n = dag.WithTracing(n, "flow")
	}
	return n
}

// Run validates and evaluates p's child graph. Errors from a child's Flow
// are returned unchanged.
func (s *Scheduler) Run(ctx context.Context, p *Pipe) (result *dag.Result, err error) {
	g, err := s.Plan(p)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	if parent := observability.RunContextFromContext(ctx); parent != nil {
		runID = parent.RunID
	}
	rc := observability.NewRunContext(p.Name(), runID, s.Metrics)
	ctx, span := rc.Start(ctx)
	defer func() { rc.End(ctx, span, err) }()

	engine := s.Engine
	if engine == nil {
		engine = &dag.Engine{MaxParallel: 1}
	}
	result, err = engine.Execute(ctx, g, dag.NewState())

	log := s.Log
	if log == nil {
		log = logger.Get("scheduler")
	}
	log = log.WithPipe(p.Name())
	if err != nil {
		log.Error("Pipe run failed", logger.Fields(
			logger.FieldError, err.Error(),
			"run_id", runID,
			logger.FieldDuration, rc.Duration().Milliseconds(),
		))
		return result, err
	}
	log.Debug("Pipe run completed", logger.Fields(
		"run_id", runID,
		logger.FieldCount, len(result.Order),
		logger.FieldDuration, rc.Duration().Milliseconds(),
	))
	return result, nil
}

// Describe renders the plan as one line per level.
func (s *Scheduler) Describe(p *Pipe) (string, error) {
	g, err := s.Plan(p)
	if err != nil {
		return "", err
	}
	levels, err := dag.BuildLevels(g)
	if err != nil {
		return "", err
	}
	out := ""
	for i, level := range levels {
		out += fmt.Sprintf("%d: %v\n", i, level)
	}
	return out, nil
}
