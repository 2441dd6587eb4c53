// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package build holds the driver plumbing shared by cmd/wsc's
// subcommands: the Command dispatch structure and process-exit-status
// bookkeeping, generalized directly from
// cmd_local/go/internal/base.Command/Errorf/Fatalf/SetExitStatus — the
// same split spec.md §7's propagation policy requires between a
// recoverable user error (bumps the exit status, keeps going within a
// phase where that is safe) and a fatal one (exits immediately).
package build

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Command is one wsc subcommand (build, run, test).
type Command struct {
	Run       func(cmd *Command, args []string) int
	UsageLine string
	Short     string
	Long      string
}

func (c *Command) Name() string {
	name := c.UsageLine
	if i := strings.Index(name, " "); i >= 0 {
		name = name[:i]
	}
	return name
}

func (c *Command) Usage() {
	fmt.Fprintf(os.Stderr, "usage: %s\n", c.UsageLine)
	os.Exit(2)
}

var (
	exitMu     sync.Mutex
	exitStatus int
)

// SetExitStatus raises the process exit status floor; it never lowers
// it, matching cmd_local/go/internal/base.SetExitStatus so a later
// success in the same phase can't paper over an earlier recorded
// error (spec.md §7: "the first error in a major phase aborts the
// phase" for phases that can't batch, or the whole run for those that
// can).
func SetExitStatus(n int) {
	exitMu.Lock()
	defer exitMu.Unlock()
	if exitStatus < n {
		exitStatus = n
	}
}

func ExitStatus() int {
	exitMu.Lock()
	defer exitMu.Unlock()
	return exitStatus
}

// Errorf records a host-level failure (bad flags, I/O opening the
// source file) that is not part of the compiler's own structured
// diagnostic taxonomy (internal/diag) — see SPEC_FULL.md §2.1.
func Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
	SetExitStatus(1)
}

func Fatalf(format string, args ...interface{}) {
	Errorf(format, args...)
	os.Exit(ExitStatus())
}

// TargetInits mirrors cmd_local/compile/main.go's archInits map: a seam
// for per-target initialization. WadeScript v1 always targets the
// host triple (spec.md never describes cross-compilation), so the map
// has exactly one entry today; a future multi-arch LLVM target adds
// entries here without touching cmd/wsc's dispatch.
var TargetInits = map[string]func() string{
	"host": func() string { return hostTriple() },
}

func hostTriple() string {
	return "x86_64-unknown-linux-gnu"
}
