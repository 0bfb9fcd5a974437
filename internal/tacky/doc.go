// Package tacky defines the three-address intermediate representation produced
// by lowering and consumed by code generation.
//
// A function body is a flat instruction list. Values are constants, function
// local pseudos (named variables and temporaries alike) or symbols with static
// storage. The form is not SSA: a pseudo may be assigned many times.
package tacky
