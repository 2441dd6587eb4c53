// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"

	"golang.org/x/sys/unix"

	"wadescript.dev/wsc/internal/build"
)

var cmdRun = &build.Command{
	UsageLine: "run file.ws [args...]",
	Short:     "compile and run a WadeScript source file, then delete the executable",
	Long: `Run compiles file.ws to a throwaway executable in a temporary
directory, runs it with args forwarded on argv, relays its stdout and
stderr, and deletes the executable on exit (spec.md §6.3). The
program's own exit code becomes wsc's exit code.`,
	Run: runRun,
}

func runRun(cmd *build.Command, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		cmd.Usage()
		return 2
	}
	src := fs.Arg(0)
	progArgs := fs.Args()[1:]

	work, err := os.MkdirTemp("", "wsc-run-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsc: %v\n", err)
		return 1
	}
	defer os.RemoveAll(work)

	outPath := filepath.Join(work, "a.out")
	if _, err := compileToExecutable(src, outPath, false, ""); err != nil {
		return 1
	}

	child := exec.Command(outPath, progArgs...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "wsc: %v\n", err)
		return 1
	}

	// Forward SIGINT/SIGTERM to the child so an interactive Ctrl-C hits
	// the compiled program rather than wsc itself, mirroring
	// cmd/go's StartSigHandlers: the driver is a thin pass-through, the
	// compiled process owns its own signal handling.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if child.Process != nil {
					child.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	waitErr := child.Wait()
	close(done)
	signal.Stop(sigCh)

	if waitErr == nil {
		return 0
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "wsc: %v\n", waitErr)
	return 1
}
