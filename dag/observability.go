package dag

import (
	"context"
	"time"

	apperrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// WithTracing wraps a Node with OpenTelemetry span creation.
// Each execution creates a span named "{prefix}.{nodeName}".
func WithTracing(node Node, prefix string) Node {
	return &tracingNode{inner: node, prefix: prefix}
}

type tracingNode struct {
	inner  Node
	prefix string
}

func (n *tracingNode) Name() string { return n.inner.Name() }

func (n *tracingNode) Run(ctx context.Context, state *State) (any, error) {
	ctx, span := observability.StartSpan(ctx, n.prefix+"."+n.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrNode, n.inner.Name())

	result, err := n.inner.Run(ctx, state)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return result, err
}

// WithMetrics wraps a Node with metric recording under the given pipe name.
func WithMetrics(node Node, metrics *observability.Metrics, pipe string) Node {
	return &metricsNode{inner: node, metrics: metrics, pipe: pipe}
}

type metricsNode struct {
	inner   Node
	metrics *observability.Metrics
	pipe    string
}

func (n *metricsNode) Name() string { return n.inner.Name() }

func (n *metricsNode) Run(ctx context.Context, state *State) (any, error) {
	start := time.Now()
	result, err := n.inner.Run(ctx, state)
	duration := time.Since(start)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
		n.metrics.RecordError(ctx, apperrors.TypeName(err), n.inner.Name())
	}
	n.metrics.RecordNode(ctx, n.pipe, n.inner.Name(), status, duration)

	return result, err
}

// WithLogging wraps a Node with execution logging.
func WithLogging(node Node, log *logger.Logger) Node {
	return &loggingNode{inner: node, log: log}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }

func (n *loggingNode) Run(ctx context.Context, state *State) (any, error) {
	start := time.Now()
	result, err := n.inner.Run(ctx, state)
	fields := logger.DurationFields(n.inner.Name(), time.Since(start))

	if err != nil {
		fields[logger.FieldError] = err.Error()
		n.log.Error("dag node failed", fields)
	} else {
		n.log.Debug("dag node completed", fields)
	}
	return result, err
}
