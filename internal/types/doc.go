// Package types models the object and function types of the C subset and its
// typed constants. Sizes and alignments follow the x86-64 System V ABI.
package types
