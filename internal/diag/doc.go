// Package diag defines the diagnostic model shared by every compiler stage.
//
// # Purpose
//
//   - Provide deterministic, serialisable records of the problems found while
//     lexing, parsing, lowering and generating code.
//   - Offer light-weight producers (Reporter, ReportBuilder, Bag) that let a
//     stage emit findings without knowing where they end up.
//   - Provide the Accumulator, the thread-safe sink that the incremental
//     engine drains after every top-level query.
//
// # Scope
//
// Package diag does not format or print anything except the single-line form
// used by tests (FormatShortDiagnostics). Human-oriented rendering lives in
// internal/diagfmt.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Stage: the pipeline stage that produced the finding (stage.go).
//   - Message: short, actionable text.
//   - Primary: the source.Span the finding points at.
//   - Notes: optional secondary spans with extra context.
//
// A diagnostic with Severity Error blocks code generation for its unit.
// Warnings and infos never do.
//
// # Ordering
//
// Producers emit in source order. The Accumulator preserves emission order and
// never deduplicates; Bag.Sort gives a deterministic order for display.
package diag
