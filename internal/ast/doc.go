// Package ast is the syntax tree of the C subset. Every node carries the
// source.Span of the text it was parsed from; lowering reports diagnostics at
// those spans. Types are resolved by the parser, so declarations carry
// *types.Type values rather than type syntax.
package ast
