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

func (c *Checker) checkCall(e *syntax.CallExpr, s *scope) *types.Type {
	switch fun := e.Fun.(type) {
	case *syntax.Ident:
		return c.checkFreeCall(e, fun, s)
	case *syntax.FieldExpr:
		return c.checkMethodCall(e, fun, s)
	}
	c.errf(diag.TypeError, e.Line(), "expression is not callable")
	return nil
}

func (c *Checker) checkFreeCall(e *syntax.CallExpr, fun *syntax.Ident, s *scope) *types.Type {
	if b, ok := freeBuiltins[fun.Name]; ok {
		return c.checkBuiltinCall(e, fun.Name, b, s)
	}
	sig, ok := c.info.Funcs[fun.Name]
	if !ok {
		c.errf(diag.TypeError, e.Line(), "undefined function %q", fun.Name)
		c.checkArgExprs(e, s)
		return nil
	}
	return c.resolveArgs(e, sig, fun.Name, s)
}

func (c *Checker) checkMethodCall(e *syntax.CallExpr, fe *syntax.FieldExpr, s *scope) *types.Type {
	rt := c.checkExpr(fe.X, s)
	if rt == nil {
		c.checkArgExprs(e, s)
		return nil
	}
	switch rt.Kind {
	case types.TList:
		b, ok := listMethodSig(rt.Elem(), fe.Name)
		if !ok {
			c.errf(diag.TypeError, e.Line(), "list has no method %q", fe.Name)
			c.checkArgExprs(e, s)
			return nil
		}
		return c.checkBuiltinCall(e, "list."+fe.Name, b, s)
	case types.TDict:
		b, ok := dictMethodSig(rt.DictVal(), fe.Name)
		if !ok {
			c.errf(diag.TypeError, e.Line(), "dict has no method %q", fe.Name)
			c.checkArgExprs(e, s)
			return nil
		}
		return c.checkBuiltinCall(e, "dict."+fe.Name, b, s)
	case types.TStr:
		b, ok := strMethodSig(fe.Name)
		if !ok {
			c.errf(diag.TypeError, e.Line(), "str has no method %q", fe.Name)
			c.checkArgExprs(e, s)
			return nil
		}
		return c.checkBuiltinCall(e, "str."+fe.Name, b, s)
	case types.TClass:
		if strings.HasPrefix(fe.Name, "_") && (c.curCls == nil || c.curCls.Name != rt.Class.Name) {
			c.errf(diag.AccessError, e.Line(), "%s.%s is private", rt.Class.Name, fe.Name)
		}
		sig, ok := rt.Class.Methods[fe.Name]
		if !ok {
			c.errf(diag.TypeError, e.Line(), "%s has no method %q", rt.Class.Name, fe.Name)
			c.checkArgExprs(e, s)
			return nil
		}
		// The receiver is sig.Params[0] (spec.md §3.3's implicit self);
		// call-site arguments resolve against the remaining parameters.
		rest := &types.Func{Name: sig.Name, RetType: sig.RetType, IsMethod: true}
		if len(sig.Params) > 0 {
			rest.Params = sig.Params[1:]
		}
		return c.resolveArgs(e, rest, rt.Class.Name+"."+fe.Name, s)
	}
	c.errf(diag.TypeError, e.Line(), "%s has no method %q", rt, fe.Name)
	c.checkArgExprs(e, s)
	return nil
}

func (c *Checker) checkArgExprs(e *syntax.CallExpr, s *scope) {
	for _, a := range e.Args {
		c.checkExpr(a.Value, s)
	}
}

func (c *Checker) checkBuiltinCall(e *syntax.CallExpr, name string, b builtinSig, s *scope) *types.Type {
	for _, a := range e.Args {
		if a.Name != "" {
			c.errf(diag.ArityError, e.Line(), "%s does not accept named arguments", name)
		}
	}
	if len(e.Args) != len(b.Params) {
		c.errf(diag.ArityError, e.Line(), "%s expects %d argument(s), got %d", name, len(b.Params), len(e.Args))
	}
	n := len(e.Args)
	if len(b.Params) < n {
		n = len(b.Params)
	}
	for i := 0; i < n; i++ {
		at := c.checkExpr(e.Args[i].Value, s)
		if at != nil && !types.AssignableTo(at, b.Params[i]) {
			c.errf(diag.TypeError, e.Args[i].Value.Line(), "%s argument %d: cannot use %s as %s", name, i+1, at, b.Params[i])
		}
	}
	for i := n; i < len(e.Args); i++ {
		c.checkExpr(e.Args[i].Value, s)
	}
	return b.Ret
}

// resolveArgs implements spec.md §4.6 item 4: positional args bind
// first, then named args fill remaining parameters by name, then any
// parameter still unset must have a default. A parameter named twice,
// an unknown name, a missing required argument, or a type mismatch is
// an error. On success e.Args is rewritten into canonical positional
// order (Default-valued Arg.Value filled in from the parameter's own
// default expression) so internal/codegen never has to re-derive the
// binding.
func (c *Checker) resolveArgs(e *syntax.CallExpr, sig *types.Func, declKey string, s *scope) *types.Type {
	n := len(sig.Params)
	bound := make([]syntax.Expr, n)
	set := make([]bool, n)

	positional := true
	for _, a := range e.Args {
		if a.Name != "" {
			positional = false
			continue
		}
		if !positional {
			c.errf(diag.ArityError, e.Line(), "positional argument follows a named argument")
			continue
		}
	}

	pi := 0
	for _, a := range e.Args {
		if a.Name != "" {
			continue
		}
		if pi >= n {
			c.errf(diag.ArityError, e.Line(), "too many positional arguments, %s takes %d", sig.Name, n)
			c.checkExpr(a.Value, s)
			pi++
			continue
		}
		bound[pi] = a.Value
		set[pi] = true
		pi++
	}

	for _, a := range e.Args {
		if a.Name == "" {
			continue
		}
		idx := -1
		for i, p := range sig.Params {
			if p.Name == a.Name {
				idx = i
				break
			}
		}
		if idx == -1 {
			c.errf(diag.ArityError, e.Line(), "%s has no parameter named %q", sig.Name, a.Name)
			c.checkExpr(a.Value, s)
			continue
		}
		if set[idx] {
			c.errf(diag.ArityError, e.Line(), "parameter %q given more than once", a.Name)
			c.checkExpr(a.Value, s)
			continue
		}
		bound[idx] = a.Value
		set[idx] = true
	}

	canon := make([]syntax.Arg, 0, n)
	for i, p := range sig.Params {
		if !set[i] {
			if !p.HasDefault {
				c.errf(diag.ArityError, e.Line(), "missing required argument %q in call to %s", p.Name, sig.Name)
				continue
			}
			fd := c.info.FuncDecls[declKey]
			var def syntax.Expr
			if fd != nil {
				pidx := i
				if sig.IsMethod {
					pidx++ // the receiver occupies Params[0] on the FuncDecl but was excluded from sig.Params
				}
				if pidx < len(fd.Params) {
					def = fd.Params[pidx].Default
				}
			}
			canon = append(canon, syntax.Arg{Value: def})
			continue
		}
		at := c.checkExpr(bound[i], s)
		if at != nil && !types.AssignableTo(at, p.Type) {
			c.errf(diag.TypeError, bound[i].Line(), "%s argument %q: cannot use %s as %s", sig.Name, p.Name, at, p.Type)
		}
		canon = append(canon, syntax.Arg{Value: bound[i]})
	}
	e.Args = canon
	return sig.RetType
}
