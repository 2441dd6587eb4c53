// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rcplan implements the per-statement planning half of
// spec.md §4.7: given a checked, escape-annotated function, it decides
// — once, ahead of code generation — which local variables need no RC
// traffic at all (non-escaping, phase 3/4), which assignments transfer
// ownership by move rather than retain (last-use, phase 2b), and which
// return statements hand off a local without retaining (phase 2a).
// internal/codegen consults a Plan rather than re-deriving any of this
// while it's in the middle of emitting IR.
package rcplan

import (
	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/escape"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// FuncPlan is the RC plan for one function or method body.
type FuncPlan struct {
	// RCLocals is every local (parameter or VarDecl) whose static type
	// is RC-eligible, keyed by name.
	RCLocals map[string]*types.Type

	// ReleaseAtExit is the subset of RCLocals that must be released
	// (null-safe) on every normal and non-local exit edge: everything
	// except the names the escape analyzer proved non-escaping.
	ReleaseAtExit map[string]bool

	// MovedOnReturn maps a *syntax.ReturnStmt to the local it returns
	// by move (phase 2a): the callee does not retain before handing it
	// back, and that one return's exit sequence must skip releasing it
	// (every other exit edge still releases it normally).
	MovedOnReturn map[*syntax.ReturnStmt]string

	// LastUseMoves maps a statement (*syntax.VarDecl or
	// *syntax.AssignStmt) whose right-hand side is exactly a simple
	// reference to an RC-eligible local, to that local's name, when no
	// statement following it (spec.md §4.7.3: same scope or nested,
	// control flow unmodeled) reads it again. The generator skips the
	// retain that assignment would otherwise need and nulls the source
	// variable's slot immediately afterward, so its eventual
	// scope-exit release is a safe no-op rather than a double release.
	LastUseMoves map[syntax.Stmt]string

	Escape *escape.FuncInfo
}

// Plan is the RC plan for an entire checked, escape-annotated program.
type Plan struct {
	Funcs map[string]*FuncPlan // same keys as check.Info.FuncDecls / escape.Info.Funcs
}

// Build runs the planner over every function in info, using esc's
// escape/invariance annotations.
func Build(info *check.Info, esc *escape.Info) *Plan {
	out := &Plan{Funcs: map[string]*FuncPlan{}}
	for name, fd := range info.FuncDecls {
		out.Funcs[name] = planFunc(fd, info, esc.Funcs[name])
	}
	return out
}

func planFunc(fd *syntax.FuncDecl, info *check.Info, ei *escape.FuncInfo) *FuncPlan {
	fp := &FuncPlan{
		RCLocals:      escape.RCEligibleLocals(fd, info),
		ReleaseAtExit: map[string]bool{},
		MovedOnReturn: map[*syntax.ReturnStmt]string{},
		LastUseMoves:  map[syntax.Stmt]string{},
		Escape:        ei,
	}
	for name := range fp.RCLocals {
		if !ei.NonEscaping[name] {
			fp.ReleaseAtExit[name] = true
		}
	}
	if ei.Overflowed {
		// Conservative fallback: baseline retain/release only, no
		// move optimizations — matches the "exceeding it falls back to
		// conservative emission" rule of spec.md §4.7.4.
		return fp
	}
	planBody(fd.Body, nil, fp)
	return fp
}

func planBody(body []syntax.Stmt, cont []syntax.Stmt, fp *FuncPlan) {
	for i, st := range body {
		rest := append(append([]syntax.Stmt{}, body[i+1:]...), cont...)
		planStmt(st, rest, fp)
	}
}

func planStmt(st syntax.Stmt, rest []syntax.Stmt, fp *FuncPlan) {
	switch st := st.(type) {
	case *syntax.VarDecl:
		tryLastUseMove(st, st.Init, rest, fp)
	case *syntax.AssignStmt:
		if st.Op == syntax.ASSIGN {
			tryLastUseMove(st, st.Value, rest, fp)
		}
	case *syntax.BlockStmt:
		planBody(st.List, rest, fp)
	case *syntax.IfStmt:
		planBody(st.Body, rest, fp)
		planBody(st.Else, rest, fp)
		for _, e := range st.Elif {
			planBody(e.Body, rest, fp)
		}
	case *syntax.WhileStmt:
		// The loop body can read a moved-from variable again on its
		// next iteration; folding the body into its own continuation
		// once is enough to make any such use visible to BodyUses and
		// keep the optimization sound across the back-edge.
		loopRest := append(append([]syntax.Stmt{}, st.Body...), rest...)
		planBody(st.Body, loopRest, fp)
	case *syntax.ForStmt:
		loopRest := append(append([]syntax.Stmt{}, st.Body...), rest...)
		planBody(st.Body, loopRest, fp)
	case *syntax.TryStmt:
		planBody(st.Body, rest, fp)
		planBody(st.Finally, rest, fp)
		for _, ex := range st.Excepts {
			planBody(ex.Body, rest, fp)
		}
	case *syntax.ReturnStmt:
		if id, ok := st.Value.(*syntax.Ident); ok {
			if t, isRC := fp.RCLocals[id.Name]; isRC && t.IsRCEligible() {
				fp.MovedOnReturn[st] = id.Name
			}
		}
	}
}

func tryLastUseMove(stmt syntax.Stmt, value syntax.Expr, rest []syntax.Stmt, fp *FuncPlan) {
	id, ok := value.(*syntax.Ident)
	if !ok {
		return
	}
	t, isRC := fp.RCLocals[id.Name]
	if !isRC || !t.IsRCEligible() {
		return
	}
	if fp.Escape.NonEscaping[id.Name] {
		return // already carries no RC ops; nothing to move
	}
	if escape.BodyUses(rest, id.Name) {
		return
	}
	fp.LastUseMoves[stmt] = id.Name
}
