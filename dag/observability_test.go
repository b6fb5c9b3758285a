package dag

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

func TestWithTracing_WrapsNode(t *testing.T) {
	inner := newFuncNode("test-node", func(_ context.Context, _ *State) (any, error) {
		return "traced-result", nil
	})

	traced := WithTracing(inner, "flow")
	if traced.Name() != "test-node" {
		t.Fatalf("expected 'test-node', got %q", traced.Name())
	}

	result, err := traced.Run(context.Background(), NewState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "traced-result" {
		t.Fatalf("expected 'traced-result', got %v", result)
	}
}

func TestWithTracing_PropagatesError(t *testing.T) {
	nodeErr := errors.New("fail")
	traced := WithTracing(newFuncNode("fail-node", func(_ context.Context, _ *State) (any, error) {
		return nil, nodeErr
	}), "flow")

	if _, err := traced.Run(context.Background(), NewState()); err != nodeErr {
		t.Fatalf("expected node error unchanged, got %v", err)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, &buf)

	ok := WithLogging(newFuncNode("extract.run", nil), log)
	if ok.Name() != "extract.run" {
		t.Fatalf("expected 'extract.run', got %q", ok.Name())
	}
	if _, err := ok.Run(context.Background(), NewState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodeErr := errors.New("log-fail")
	failing := WithLogging(newFuncNode("load.run", func(context.Context, *State) (any, error) {
		return nil, nodeErr
	}), log)
	if _, err := failing.Run(context.Background(), NewState()); !errors.Is(err, nodeErr) {
		t.Fatalf("expected node error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"node":"extract.run"`) || !strings.Contains(out, "dag node completed") {
		t.Errorf("expected completion line for extract.run, got %s", out)
	}
	if !strings.Contains(out, `"error":"log-fail"`) || !strings.Contains(out, "dag node failed") {
		t.Errorf("expected failure line for load.run, got %s", out)
	}
}

func TestWithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("dag-test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	wrapped := WithMetrics(newFuncNode("metrics-node", func(context.Context, *State) (any, error) {
		return "measured", nil
	}), metrics, "root")
	if wrapped.Name() != "metrics-node" {
		t.Fatalf("expected 'metrics-node', got %q", wrapped.Name())
	}
	result, err := wrapped.Run(context.Background(), NewState())
	if err != nil || result != "measured" {
		t.Fatalf("expected 'measured', got %v (%v)", result, err)
	}

	nodeErr := errors.New("metrics-fail")
	failing := WithMetrics(newFuncNode("fail-metrics", func(context.Context, *State) (any, error) {
		return nil, nodeErr
	}), metrics, "root")
	if _, err := failing.Run(context.Background(), NewState()); !errors.Is(err, nodeErr) {
		t.Fatalf("expected node error, got %v", err)
	}
}

func TestWrappedNodesInGraph(t *testing.T) {
	outPort := Port[string]{Key: "traced-out"}
	log := logger.Nop()

	g := NewGraph()
	_ = g.AddNode(WithLogging(WithTracing(newFuncNode("a", func(_ context.Context, s *State) (any, error) {
		Write(s, outPort, "from-a")
		return "a-done", nil
	}), "flow"), log))
	_ = g.AddNode(WithLogging(WithTracing(newFuncNode("b", func(_ context.Context, s *State) (any, error) {
		v, err := Read(s, outPort)
		if err != nil {
			return nil, err
		}
		return "b-got:" + v, nil
	}), "flow"), log))
	g.AddEdge("a", "b")

	result, err := (&Engine{}).Execute(context.Background(), g, NewState())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NodeResults["b"].Output != "b-got:from-a" {
		t.Fatalf("expected 'b-got:from-a', got %v", result.NodeResults["b"].Output)
	}
}
