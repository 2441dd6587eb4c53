// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"wadescript.dev/wsc/internal/build"
)

var cmdTest = &build.Command{
	UsageLine: "test",
	Short:     "compile and run every tests/test_*.ws fixture in the working directory",
	Long: `Test iterates tests/test_*.ws, compiling and running each one; a
fixture passes iff its compiled executable exits 0 (spec.md §6.3).`,
	Run: runTest,
}

func runTest(cmd *build.Command, args []string) int {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	matches, err := filepath.Glob(filepath.Join("tests", "test_*.ws"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsc: %v\n", err)
		return 1
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "wsc: no tests/test_*.ws fixtures found")
		return 1
	}

	work, err := os.MkdirTemp("", "wsc-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsc: %v\n", err)
		return 1
	}
	defer os.RemoveAll(work)

	failed := 0
	for _, src := range matches {
		name := filepath.Base(src)
		outPath := filepath.Join(work, name+".bin")
		if _, err := compileToExecutable(src, outPath, false, ""); err != nil {
			fmt.Printf("FAIL %s (compile error)\n", name)
			failed++
			continue
		}
		child := exec.Command(outPath)
		if err := child.Run(); err != nil {
			fmt.Printf("FAIL %s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", name)
	}

	if failed > 0 {
		fmt.Printf("%d/%d tests failed\n", failed, len(matches))
		return 1
	}
	return 0
}
