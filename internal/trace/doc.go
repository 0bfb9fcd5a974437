// Package trace records what the compiler is doing and for how long.
//
// Pipeline stages emit pass spans and the incremental engine emits one query
// span per tracked-function execution; cache hits emit nothing, so a trace
// shows which work an edit caused. Every event carries the unit (source file)
// it belongs to, which keeps parallel builds readable.
//
//	mcc compile --trace=- --trace-level=detail main.c
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx = trace.WithUnit(ctx, "main.c")
//	ctx, span := trace.BeginContext(ctx, trace.ScopePass, "lower")
//	defer span.End("")
//
// Implementations: Nop, StreamTracer (buffered writer), RingTracer (last N
// events, dumped on failure) and MultiTracer (fan-out).
package trace
