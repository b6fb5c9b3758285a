// Package dag provides a DAG (Directed Acyclic Graph) execution engine.
//
// A Graph holds named nodes and dependency edges in declaration order.
// BuildLevels groups nodes with Kahn's algorithm; Engine.Execute runs the
// levels in order, bounding concurrency within a level, and stops after the
// first level that has a failing node. A failing node's error is returned
// as-is.
//
// Nodes exchange values through a shared State using typed Ports. Node
// wrappers add logging, tracing and metrics without changing behavior.
package dag
