// Package observability wires OpenTelemetry tracing and metrics into pipe runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("nightly"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "pipe.run")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("nightly"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("nightly"))
//	metrics.RecordNode(ctx, "root", "extract.run", observability.StatusOK, duration)
//
// Runs:
//
//	rc := observability.NewRunContext("root", runID, metrics)
//	ctx, span := rc.Start(ctx)
//	defer rc.End(ctx, span, err)
package observability
