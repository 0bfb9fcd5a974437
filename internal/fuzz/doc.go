// Package fuzztests holds fuzz harnesses for the C front end and the whole
// compilation pipeline. They look for panics, hangs and internal contract
// violations on arbitrary input.
package fuzztests
