// Package trace is the logging layer of the checker: structured events
// grouped into spans.
//
// Tracing is off by default. The CLI turns it on:
//
//	viper check --trace=phase --trace-out=- ./project
//	viper check --trace=detail --trace-out=trace.ndjson ./project
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only the ring dump after a halted compilation
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: plus one span per module
//   - LevelDebug: everything
//
// # Propagation
//
// The tracer travels through the pipeline in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "solve")
//	defer span.End("")
//
// Spans filtered out by the level are inert and do not become parents, so
// a pass span under a hidden module span attaches to the driver span.
package trace
