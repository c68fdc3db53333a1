// Package errors provides foundational, type-safe error primitives used across bookforge.
//
// The pipeline distinguishes errors by where they strike, not by what raised
// them: structural defects in the master document abort the build before any
// toolchain pass runs, missing probed fragments are absorbed, toolchain
// failures are recorded but never halt the pass sequence, and a missing
// artifact after the final pass is the sole build-failure condition.
// ClassifiedError carries that category plus a severity so stage boundaries
// can route errors without string matching.
package errors
