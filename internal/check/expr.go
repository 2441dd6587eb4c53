// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"strings"

	"wadescript.dev/wsc/internal/diag"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// checkExpr types one expression, records it in the Info annotation
// table (codegen and escape both key off syntax.Expr identity rather
// than re-deriving types later), and returns its type. A nil return
// means an error was already reported for this subtree; callers must
// tolerate nil rather than cascading further errors from it.
func (c *Checker) checkExpr(e syntax.Expr, s *scope) *types.Type {
	t := c.checkExpr1(e, s)
	if t != nil {
		c.info.Types[e] = t
	}
	return t
}

func (c *Checker) checkExpr1(e syntax.Expr, s *scope) *types.Type {
	switch e := e.(type) {
	case *syntax.Ident:
		return c.checkIdent(e, s)
	case *syntax.IntLit:
		return types.Int
	case *syntax.FloatLit:
		return types.Float
	case *syntax.BoolLit:
		return types.Bool
	case *syntax.NullLit:
		return types.Void // inhabits any Optional<T> per types.AssignableTo
	case *syntax.StringLit:
		return types.Str
	case *syntax.FStringLit:
		return c.checkFString(e, s)
	case *syntax.ListLit:
		return c.checkListLit(e, s)
	case *syntax.DictLit:
		return c.checkDictLit(e, s)
	case *syntax.TupleLit:
		return c.checkTupleLit(e, s)
	case *syntax.CallExpr:
		return c.checkCall(e, s)
	case *syntax.UnaryExpr:
		return c.checkUnary(e, s)
	case *syntax.BinaryExpr:
		return c.checkBinary(e, s)
	case *syntax.IndexExpr:
		return c.checkIndex(e, s)
	case *syntax.SliceExpr:
		return c.checkSlice(e, s)
	case *syntax.FieldExpr:
		return c.checkField(e, s)
	case *syntax.TupleIndexExpr:
		return c.checkTupleIndex(e, s)
	}
	diag.Fatalf("check: unhandled expression type %T", e)
	return nil
}

func (c *Checker) checkIdent(e *syntax.Ident, s *scope) *types.Type {
	if l, ok := s.lookup(e.Name); ok {
		return l.typ
	}
	if fn, ok := c.info.Funcs[e.Name]; ok {
		// A bare function name outside a call position has no scalar
		// type in WadeScript (no first-class functions, spec.md §3.3
		// Non-goals) — report but still fail the lookup.
		_ = fn
		c.errf(diag.TypeError, e.Line(), "%q is a function, not a value", e.Name)
		return nil
	}
	c.errf(diag.TypeError, e.Line(), "undefined name %q", e.Name)
	return nil
}

func (c *Checker) checkFString(e *syntax.FStringLit, s *scope) *types.Type {
	for _, p := range e.Parts {
		if p.Expr != nil {
			c.checkExpr(p.Expr, s) // any type is interpolatable via its str() conversion
		}
	}
	return types.Str
}

func (c *Checker) checkListLit(e *syntax.ListLit, s *scope) *types.Type {
	if len(e.Elems) == 0 {
		return types.NewList(types.Void)
	}
	elem := c.checkExpr(e.Elems[0], s)
	for _, el := range e.Elems[1:] {
		t := c.checkExpr(el, s)
		if elem != nil && t != nil && !types.Equal(elem, t) {
			c.errf(diag.TypeError, el.Line(), "list element type %s does not match earlier element type %s", t, elem)
		}
	}
	if elem == nil {
		elem = types.Void
	}
	return types.NewList(elem)
}

func (c *Checker) checkDictLit(e *syntax.DictLit, s *scope) *types.Type {
	if len(e.Entries) == 0 {
		return types.NewDict(types.Str, types.Void)
	}
	key := c.checkExpr(e.Entries[0].Key, s)
	val := c.checkExpr(e.Entries[0].Value, s)
	for _, ent := range e.Entries[1:] {
		k := c.checkExpr(ent.Key, s)
		v := c.checkExpr(ent.Value, s)
		if key != nil && k != nil && !types.Equal(key, k) {
			c.errf(diag.TypeError, ent.Key.Line(), "dict key type %s does not match earlier key type %s", k, key)
		}
		if val != nil && v != nil && !types.Equal(val, v) {
			c.errf(diag.TypeError, ent.Value.Line(), "dict value type %s does not match earlier value type %s", v, val)
		}
	}
	if key == nil {
		key = types.Str
	}
	if val == nil {
		val = types.Void
	}
	return types.NewDict(key, val)
}

func (c *Checker) checkTupleLit(e *syntax.TupleLit, s *scope) *types.Type {
	elems := make([]*types.Type, len(e.Elems))
	for i, el := range e.Elems {
		elems[i] = c.checkExpr(el, s)
		if elems[i] == nil {
			elems[i] = types.Void
		}
	}
	return types.NewTuple(elems...)
}

func (c *Checker) checkUnary(e *syntax.UnaryExpr, s *scope) *types.Type {
	t := c.checkExpr(e.X, s)
	if t == nil {
		return nil
	}
	switch e.Op {
	case syntax.MINUS:
		if !t.IsNumeric() {
			c.errf(diag.TypeError, e.Line(), "unary - requires a numeric operand, got %s", t)
			return nil
		}
		return t
	case syntax.NOT:
		if t.Kind != types.TBool {
			c.errf(diag.TypeError, e.Line(), "not requires a bool operand, got %s", t)
			return nil
		}
		return types.Bool
	}
	diag.Fatalf("check: unhandled unary operator %s", e.Op)
	return nil
}

// checkBinary implements spec.md §4.6.3's widening: arithmetic between
// two numeric operands produces Float if either is Float, else Int;
// comparisons produce Bool; and/or require and produce Bool; + also
// concatenates two Str operands.
func (c *Checker) checkBinary(e *syntax.BinaryExpr, s *scope) *types.Type {
	x := c.checkExpr(e.X, s)
	y := c.checkExpr(e.Y, s)
	if x == nil || y == nil {
		return nil
	}
	switch e.Op {
	case syntax.AND, syntax.OR:
		if x.Kind != types.TBool || y.Kind != types.TBool {
			c.errf(diag.TypeError, e.Line(), "%s requires bool operands, got %s and %s", e.Op, x, y)
			return nil
		}
		return types.Bool
	case syntax.PLUS:
		if x.Kind == types.TStr && y.Kind == types.TStr {
			return types.Str
		}
		if x.Kind == types.TList && types.Equal(x, y) {
			return x
		}
		return c.arith(e, x, y)
	case syntax.MINUS, syntax.STAR, syntax.SLASH, syntax.PERCENT:
		return c.arith(e, x, y)
	case syntax.EQ, syntax.NEQ:
		if !types.Equal(x, y) && !(x.IsNumeric() && y.IsNumeric()) {
			c.errf(diag.TypeError, e.Line(), "cannot compare %s and %s", x, y)
			return nil
		}
		return types.Bool
	case syntax.LT, syntax.GT, syntax.LE, syntax.GE:
		if !x.IsNumeric() || !y.IsNumeric() {
			c.errf(diag.TypeError, e.Line(), "%s requires numeric operands, got %s and %s", e.Op, x, y)
			return nil
		}
		return types.Bool
	}
	diag.Fatalf("check: unhandled binary operator %s", e.Op)
	return nil
}

func (c *Checker) arith(e *syntax.BinaryExpr, x, y *types.Type) *types.Type {
	if !x.IsNumeric() || !y.IsNumeric() {
		c.errf(diag.TypeError, e.Line(), "%s requires numeric operands, got %s and %s", e.Op, x, y)
		return nil
	}
	if x.Kind == types.TFloat || y.Kind == types.TFloat {
		return types.Float
	}
	return types.Int
}

func (c *Checker) checkIndex(e *syntax.IndexExpr, s *scope) *types.Type {
	xt := c.checkExpr(e.X, s)
	it := c.checkExpr(e.Index, s)
	if xt == nil {
		return nil
	}
	switch xt.Kind {
	case types.TList, types.TArray:
		if it != nil && it.Kind != types.TInt {
			c.errf(diag.IndexError, e.Line(), "list/array index must be int, got %s", it)
		}
		return xt.Elem()
	case types.TDict:
		if it != nil && !types.Equal(it, xt.DictKey()) {
			c.errf(diag.KeyError, e.Line(), "dict key must be %s, got %s", xt.DictKey(), it)
		}
		return xt.DictVal()
	case types.TStr:
		if it != nil && it.Kind != types.TInt {
			c.errf(diag.IndexError, e.Line(), "str index must be int, got %s", it)
		}
		return types.Str
	}
	c.errf(diag.TypeError, e.Line(), "%s is not indexable", xt)
	return nil
}

func (c *Checker) checkSlice(e *syntax.SliceExpr, s *scope) *types.Type {
	xt := c.checkExpr(e.X, s)
	for _, b := range []syntax.Expr{e.Low, e.High, e.Step} {
		if b == nil {
			continue
		}
		if bt := c.checkExpr(b, s); bt != nil && bt.Kind != types.TInt {
			c.errf(diag.IndexError, b.Line(), "slice bound must be int, got %s", bt)
		}
	}
	if xt == nil {
		return nil
	}
	switch xt.Kind {
	case types.TList, types.TArray, types.TStr:
		if xt.Kind == types.TStr {
			return types.Str
		}
		return types.NewList(xt.Elem())
	}
	c.errf(diag.TypeError, e.Line(), "%s is not sliceable", xt)
	return nil
}

// checkField implements spec.md §3.3's access control: a name
// beginning with "_" is only visible from within the class that
// defines it.
func (c *Checker) checkField(e *syntax.FieldExpr, s *scope) *types.Type {
	xt := c.checkExpr(e.X, s)
	if xt == nil {
		return nil
	}
	if xt.Kind != types.TClass {
		c.errf(diag.TypeError, e.Line(), "%s has no field %q", xt, e.Name)
		return nil
	}
	if strings.HasPrefix(e.Name, "_") && (c.curCls == nil || c.curCls.Name != xt.Class.Name) {
		c.errf(diag.AccessError, e.Line(), "%s.%s is private", xt.Class.Name, e.Name)
	}
	for _, f := range xt.Class.Fields {
		if f.Name == e.Name {
			return f.Type
		}
	}
	if _, ok := xt.Class.Methods[e.Name]; ok {
		// A bare method reference outside a call is only meaningful as
		// the Fun of a CallExpr; checkCall handles that case directly
		// without routing through checkField, so getting here means
		// the method was referenced as a value.
		c.errf(diag.TypeError, e.Line(), "%s.%s is a method, not a field", xt.Class.Name, e.Name)
		return nil
	}
	c.errf(diag.TypeError, e.Line(), "%s has no field %q", xt, e.Name)
	return nil
}

func (c *Checker) checkTupleIndex(e *syntax.TupleIndexExpr, s *scope) *types.Type {
	xt := c.checkExpr(e.X, s)
	if xt == nil {
		return nil
	}
	if xt.Kind != types.TTuple {
		c.errf(diag.TypeError, e.Line(), "%s is not a tuple", xt)
		return nil
	}
	if e.Idx < 0 || e.Idx >= len(xt.Elems) {
		c.errf(diag.IndexError, e.Line(), "tuple index %d out of range for %s", e.Idx, xt)
		return nil
	}
	return xt.Elems[e.Idx]
}
