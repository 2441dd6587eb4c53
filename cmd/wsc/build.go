// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wadescript.dev/wsc/internal/build"
)

var cmdBuild = &build.Command{
	UsageLine: "build file.ws [-o name]",
	Short:     "compile a WadeScript source file to a native executable",
	Long: `Build compiles file.ws and its transitive imports to a standalone
executable, linking the emitted object against the WadeScript runtime
archive (spec.md §4.8). Exit code 0 means success, 1 means a compile
or I/O error (spec.md §6.3).

-allocprofile path writes a pprof profile of every RC allocation site
the planner saw, labeled with the optimization phase (non-escaping,
moved, baseline) that ended up owning it.`,
	Run: runBuild,
}

func runBuild(cmd *build.Command, args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	out := fs.String("o", "", "output executable path")
	keepS := fs.Bool("S", false, "keep the intermediate object file")
	allocProfile := fs.String("allocprofile", "", "write an RC allocation-site pprof profile to this path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		cmd.Usage()
		return 2
	}
	src := fs.Arg(0)
	outPath := *out
	if outPath == "" {
		base := filepath.Base(src)
		outPath = strings.TrimSuffix(base, filepath.Ext(base))
	}

	res, err := compileToExecutable(src, outPath, *keepS, *allocProfile)
	if err != nil {
		return 1
	}
	if *keepS {
		fmt.Fprintf(os.Stderr, "wsc: object file kept at %s\n", res.objPath)
	}
	return 0
}
