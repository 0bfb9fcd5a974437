// Package query is a demand-driven incremental computation engine.
//
// A computation is split into tracked functions (NewTracked) that read inputs
// (NewInput) and other tracked functions through a *Ctx. Every call is memoized
// per key together with the fingerprints of everything it read. When an input
// changes, the engine bumps its revision; a memo from an older revision is
// re-verified lazily the next time somebody demands it:
//
//  1. each recorded dependency is demanded again (recursively verified);
//  2. if every dependency still has the recorded fingerprint the memo is
//     re-stamped for the current revision without running the function;
//  3. otherwise the function runs again. If the new value has the same
//     fingerprint as the old one, dependents stay valid (backdating).
//
// Diagnostics reported through a Ctx are attached to the memo and pushed to the
// engine Accumulator only when the function really executes, so Drain after a
// fully cached query returns nothing. Accumulated collects the diagnostics of a
// memo and of all its transitive dependencies.
//
// Concurrent demands of one key collapse into a single execution. Reads hold
// the engine read gate for the whole top-level demand; Input.Set takes the
// write gate, so a revision never changes under a running query.
//
// A tracked function may demand other queries only from its own goroutine.
package query
