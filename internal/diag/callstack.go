// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

// The function-name call stack of spec.md §4.5 lives in the emitted
// program, not in this compiler process: internal/codegen emits a call
// to push_call_stack at every function entry and to pop_call_stack
// before every return, and the C runtime (internal/link/runtime)
// maintains the actual vector and prints it on a fatal runtime error.
// These symbol names are the contract between the two; they must match
// internal/link/runtime/diag.c exactly.
const (
	PushCallStackSymbol = "push_call_stack"
	PopCallStackSymbol  = "pop_call_stack"
	RuntimeErrorSymbol  = "runtime_error"
)

// FrameWidth is the constant size, in pointers, of one call-stack
// frame record in the C runtime: just the function-name pointer. The
// vector is truncated back to a handler's recorded depth on exception
// dispatch (spec.md §9, "pop behavior of the call-stack on exception
// longjmp") so a diagnostic printed from inside a handler reports a
// consistent stack rather than the frames the raise() unwound through.
const FrameWidth = 1
