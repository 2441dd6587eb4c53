// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// isPureCall reports whether fun, as the callee of a CallExpr, is one
// of the fixed pure builtins of spec.md §4.7.5. A method call's
// purity depends on its receiver's static type, not just its method
// name — a user class happening to define a method called "get" must
// stay conservatively impure — so this consults info.Types for the
// receiver's resolved type rather than matching on name alone.
func isPureCall(fun syntax.Expr, info *check.Info) bool {
	switch fun := fun.(type) {
	case *syntax.Ident:
		switch fun.Name {
		case "print_int", "print_float", "print_str", "print_bool":
			return true
		}
		return false
	case *syntax.FieldExpr:
		rt := info.Types[fun.X]
		if rt == nil {
			return false
		}
		var prefix string
		switch rt.Kind {
		case types.TList:
			prefix = "list."
		case types.TDict:
			prefix = "dict."
		case types.TStr:
			prefix = "str."
		default:
			return false // TClass and anything else: user-defined, conservatively impure
		}
		return check.IsPureBuiltin(prefix + fun.Name)
	}
	return false
}

// escapes implements spec.md §4.7.4: name escapes its declaring
// function iff some statement passes it to an impure callee, returns
// it, or stores it into a heap container.
func escapes(name string, body []syntax.Stmt, info *check.Info) bool {
	return bodyEscapes(body, name, info)
}

func bodyEscapes(body []syntax.Stmt, name string, info *check.Info) bool {
	for _, st := range body {
		if stmtEscapes(st, name, info) {
			return true
		}
	}
	return false
}

func stmtEscapes(st syntax.Stmt, name string, info *check.Info) bool {
	switch st := st.(type) {
	case *syntax.VarDecl:
		return exprEscapesAsValue(st.Init, name, info)
	case *syntax.DestructureStmt:
		return false // destructuring reads a tuple's elements; it doesn't escape the source variable itself
	case *syntax.AssignStmt:
		if _, isIndex := st.Target.(*syntax.IndexExpr); isIndex {
			if exprEscapesAsValue(st.Value, name, info) {
				return true
			}
		}
		if _, isField := st.Target.(*syntax.FieldExpr); isField {
			if exprEscapesAsValue(st.Value, name, info) {
				return true
			}
		}
		return exprContainsEscapingCall(st.Value, name, info) || exprContainsEscapingCall(st.Target, name, info)
	case *syntax.ExprStmt:
		return exprContainsEscapingCall(st.X, name, info)
	case *syntax.BlockStmt:
		return bodyEscapes(st.List, name, info)
	case *syntax.IfStmt:
		if exprContainsEscapingCall(st.Cond, name, info) || bodyEscapes(st.Body, name, info) || bodyEscapes(st.Else, name, info) {
			return true
		}
		for _, e := range st.Elif {
			if exprContainsEscapingCall(e.Cond, name, info) || bodyEscapes(e.Body, name, info) {
				return true
			}
		}
		return false
	case *syntax.WhileStmt:
		return exprContainsEscapingCall(st.Cond, name, info) || bodyEscapes(st.Body, name, info)
	case *syntax.ForStmt:
		return exprContainsEscapingCall(st.Iter, name, info) || bodyEscapes(st.Body, name, info)
	case *syntax.ReturnStmt:
		return exprEscapesAsValue(st.Value, name, info)
	case *syntax.RaiseStmt:
		return exprContainsEscapingCall(st.Message, name, info)
	case *syntax.TryStmt:
		if bodyEscapes(st.Body, name, info) || bodyEscapes(st.Finally, name, info) {
			return true
		}
		for _, ex := range st.Excepts {
			if bodyEscapes(ex.Body, name, info) {
				return true
			}
		}
		return false
	case *syntax.AssertStmt:
		return exprContainsEscapingCall(st.Cond, name, info) || exprContainsEscapingCall(st.Message, name, info)
	}
	return false
}

// exprEscapesAsValue reports whether e, used as a value in a return or
// an initializer store, is exactly a reference to name (a direct
// "hand the whole object out" use) or contains an escaping call on it.
func exprEscapesAsValue(e syntax.Expr, name string, info *check.Info) bool {
	if id, ok := e.(*syntax.Ident); ok {
		return id.Name == name
	}
	return exprContainsEscapingCall(e, name, info)
}

// exprContainsEscapingCall walks e looking for a CallExpr whose callee
// is impure and which passes name as one of its arguments.
func exprContainsEscapingCall(e syntax.Expr, name string, info *check.Info) bool {
	if e == nil {
		return false
	}
	switch e := e.(type) {
	case *syntax.CallExpr:
		impure := !isPureCall(e.Fun, info)
		for _, a := range e.Args {
			if impure && identIs(a.Value, name) {
				return true
			}
			if exprContainsEscapingCall(a.Value, name, info) {
				return true
			}
		}
		if fe, ok := e.Fun.(*syntax.FieldExpr); ok {
			return exprContainsEscapingCall(fe.X, name, info)
		}
		return false
	case *syntax.FStringLit:
		for _, p := range e.Parts {
			if exprContainsEscapingCall(p.Expr, name, info) {
				return true
			}
		}
	case *syntax.ListLit:
		for _, el := range e.Elems {
			if exprContainsEscapingCall(el, name, info) {
				return true
			}
		}
	case *syntax.DictLit:
		for _, ent := range e.Entries {
			if exprContainsEscapingCall(ent.Key, name, info) || exprContainsEscapingCall(ent.Value, name, info) {
				return true
			}
		}
	case *syntax.TupleLit:
		for _, el := range e.Elems {
			if exprContainsEscapingCall(el, name, info) {
				return true
			}
		}
	case *syntax.UnaryExpr:
		return exprContainsEscapingCall(e.X, name, info)
	case *syntax.BinaryExpr:
		return exprContainsEscapingCall(e.X, name, info) || exprContainsEscapingCall(e.Y, name, info)
	case *syntax.IndexExpr:
		return exprContainsEscapingCall(e.X, name, info) || exprContainsEscapingCall(e.Index, name, info)
	case *syntax.SliceExpr:
		return exprContainsEscapingCall(e.X, name, info)
	case *syntax.FieldExpr:
		return exprContainsEscapingCall(e.X, name, info)
	case *syntax.TupleIndexExpr:
		return exprContainsEscapingCall(e.X, name, info)
	}
	return false
}

func identIs(e syntax.Expr, name string) bool {
	id, ok := e.(*syntax.Ident)
	return ok && id.Name == name
}

// walkLoops finds every while/for loop in body and records, for each,
// which names from outerDecls (variables declared strictly outside
// the loop) are loop-invariant per spec.md §4.7.6: never assigned
// anywhere inside the loop, including nested loops and conditionals.
func walkLoops(body []syntax.Stmt, outerDecls []string, fi *FuncInfo) {
	decls := append([]string{}, outerDecls...)
	for _, st := range body {
		switch st := st.(type) {
		case *syntax.VarDecl:
			decls = append(decls, st.Name)
		case *syntax.WhileStmt:
			fi.LoopInvariant[st] = invariantSet(decls, st.Body)
			walkLoops(st.Body, decls, fi)
		case *syntax.ForStmt:
			fi.LoopInvariant[st] = invariantSet(decls, st.Body)
			walkLoops(st.Body, append(decls, st.Var), fi)
		case *syntax.IfStmt:
			walkLoops(st.Body, decls, fi)
			walkLoops(st.Else, decls, fi)
			for _, e := range st.Elif {
				walkLoops(e.Body, decls, fi)
			}
		case *syntax.BlockStmt:
			walkLoops(st.List, decls, fi)
		case *syntax.TryStmt:
			walkLoops(st.Body, decls, fi)
			walkLoops(st.Finally, decls, fi)
			for _, ex := range st.Excepts {
				walkLoops(ex.Body, decls, fi)
			}
		}
	}
}

func invariantSet(candidates []string, loopBody []syntax.Stmt) map[string]bool {
	out := map[string]bool{}
	for _, name := range candidates {
		if !assignsToAny(loopBody, name) {
			out[name] = true
		}
	}
	return out
}
