// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check implements component F of spec.md §2: symbol
// resolution, type inference and expression typing, call-site
// argument resolution (named/default/positional canonicalization),
// access control, decorator validation, tuple destructuring, and
// optional-type handling. It is the compiler's front gate: nothing
// reaches internal/escape or internal/codegen without having passed
// through here first.
package check

import (
	"wadescript.dev/wsc/internal/diag"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// Info is the typed result of checking a Program: every expression's
// resolved type, plus the merged global symbol tables internal/escape
// and internal/codegen need.
type Info struct {
	Types   map[syntax.Expr]*types.Type
	Funcs   map[string]*types.Func
	Classes map[string]*types.ClassType
	// FuncDecls maps a resolved function name back to its AST, since
	// Info.Funcs only carries the signature.
	FuncDecls map[string]*syntax.FuncDecl
}

type Checker struct {
	bag     *diag.Bag
	info    *Info
	curFile string
	curFunc *syntax.FuncDecl
	curCls  *syntax.ClassDecl // non-nil while checking a method body
}

func init() {
	types.Fatalf = diag.Fatalf
}

// Check type-checks an entire loaded Program and returns its Info, or
// the accumulated errors. Per spec.md §7, the first error in this
// phase does not necessarily abort it — the checker keeps going to
// batch as many independent errors as it reasonably can — but the
// driver must not proceed to internal/escape if the Bag is non-empty.
func Check(prog *load.Program) (*Info, *diag.Bag) {
	c := &Checker{
		bag: &diag.Bag{},
		info: &Info{
			Types:     map[syntax.Expr]*types.Type{},
			Funcs:     map[string]*types.Func{},
			Classes:   map[string]*types.ClassType{},
			FuncDecls: map[string]*syntax.FuncDecl{},
		},
	}
	c.registerSignatures(prog)
	for _, f := range prog.Files {
		c.curFile = f.Name
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *syntax.FuncDecl:
				c.checkFunc(d)
			case *syntax.ClassDecl:
				c.curCls = d
				for _, m := range d.Methods {
					c.checkFunc(m)
				}
				c.curCls = nil
			}
		}
	}
	return c.info, c.bag
}

func (c *Checker) errf(cat diag.Category, line syntax.Pos, format string, args ...interface{}) {
	c.bag.Add(cat, c.curFile, int(line), format, args...)
}

// registerSignatures does the forward-declaration pass: every class's
// field/method shape and every function's signature is known before
// any body is type-checked, so mutual recursion and out-of-order
// definitions work without a separate prototype syntax.
func (c *Checker) registerSignatures(prog *load.Program) {
	for _, f := range prog.Files {
		c.curFile = f.Name
		for _, d := range f.Decls {
			if cd, ok := d.(*syntax.ClassDecl); ok {
				c.info.Classes[cd.Name] = &types.ClassType{Name: cd.Name, Methods: map[string]*types.Func{}}
			}
		}
	}
	for _, f := range prog.Files {
		c.curFile = f.Name
		for _, d := range f.Decls {
			cd, ok := d.(*syntax.ClassDecl)
			if !ok {
				continue
			}
			ct := c.info.Classes[cd.Name]
			for _, fld := range cd.Fields {
				c.checkDecorators(fld)
				ct.Fields = append(ct.Fields, types.Field{Name: fld.Name, Type: c.resolveType(fld.Type)})
			}
			for _, m := range cd.Methods {
				sig := c.resolveFuncSig(m)
				ct.Methods[m.Name] = sig
				c.info.FuncDecls[cd.Name+"."+m.Name] = m
			}
		}
	}
	for _, f := range prog.Files {
		c.curFile = f.Name
		for _, d := range f.Decls {
			if fd, ok := d.(*syntax.FuncDecl); ok {
				sig := c.resolveFuncSig(fd)
				c.info.Funcs[fd.Name] = sig
				c.info.FuncDecls[fd.Name] = fd
			}
		}
	}
}

func (c *Checker) resolveFuncSig(fd *syntax.FuncDecl) *types.Func {
	sig := &types.Func{Name: fd.Name, IsMethod: fd.IsMethod}
	seenDefault := false
	for _, p := range fd.Params {
		hasDefault := p.Default != nil
		if !hasDefault && seenDefault {
			c.errf(diag.ArityError, p.Pos, "parameter %q without a default may not follow a defaulted parameter", p.Name)
		}
		if hasDefault {
			seenDefault = true
		}
		sig.Params = append(sig.Params, types.Param{Name: p.Name, Type: c.resolveType(p.Type), HasDefault: hasDefault})
	}
	if fd.RetType != nil {
		sig.RetType = c.resolveType(fd.RetType)
	} else {
		sig.RetType = types.Void
	}
	return sig
}

func (c *Checker) resolveType(t *syntax.Type) *types.Type {
	if t == nil {
		return types.Void
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
		base = types.Void
	case "list":
		if len(t.Args) != 1 {
			c.errf(diag.TypeError, 0, "list requires exactly one element type")
			base = types.NewList(types.Void)
		} else {
			base = types.NewList(c.resolveType(t.Args[0]))
		}
	case "dict":
		if len(t.Args) != 2 {
			c.errf(diag.TypeError, 0, "dict requires a key and a value type")
			base = types.NewDict(types.Str, types.Void)
		} else {
			base = types.NewDict(c.resolveType(t.Args[0]), c.resolveType(t.Args[1]))
		}
	case "array":
		if len(t.Args) != 1 {
			c.errf(diag.TypeError, 0, "array requires an element type and a length")
			base = types.NewArray(types.Void, 0)
		} else {
			base = types.NewArray(c.resolveType(t.Args[0]), t.ArrayLen)
		}
	case "tuple":
		var elems []*types.Type
		for _, a := range t.Args {
			elems = append(elems, c.resolveType(a))
		}
		base = types.NewTuple(elems...)
	case "Optional":
		if len(t.Args) != 1 {
			c.errf(diag.TypeError, 0, "Optional requires exactly one type argument")
			base = types.Void
		} else {
			return types.NewOptional(c.resolveType(t.Args[0]))
		}
	default:
		ct, ok := c.info.Classes[t.Name]
		if !ok {
			c.errf(diag.TypeError, 0, "undefined type %q", t.Name)
			base = types.Void
		} else {
			base = types.NewClass(ct)
		}
	}
	if t.Optional {
		return types.NewOptional(base)
	}
	return base
}

// checkDecorators implements spec.md §4.6.6: @arg is valid only on Str
// fields; @option(short, long, help) is valid on Str/Int/Bool fields;
// short must be exactly one character; unknown decorators are errors.
func (c *Checker) checkDecorators(f *syntax.Field) {
	ft := c.resolveType(f.Type)
	for _, d := range f.Decorators {
		switch d.Name {
		case "arg":
			if ft.Kind != types.TStr {
				c.errf(diag.DecoratorError, d.Pos, "@arg is only valid on str fields, not %s", ft)
			}
		case "option":
			if ft.Kind != types.TStr && ft.Kind != types.TInt && ft.Kind != types.TBool {
				c.errf(diag.DecoratorError, d.Pos, "@option is only valid on str/int/bool fields, not %s", ft)
			}
			if len(d.Args) > 0 {
				if lit, ok := d.Args[0].(*syntax.StringLit); ok && len(lit.Value) != 1 {
					c.errf(diag.DecoratorError, d.Pos, "@option short flag must be exactly one character, got %q", lit.Value)
				}
			}
		default:
			c.errf(diag.DecoratorError, d.Pos, "unknown decorator @%s", d.Name)
		}
	}
}

func (c *Checker) checkFunc(fd *syntax.FuncDecl) {
	c.curFunc = fd
	top := newScope(nil)
	if fd.IsMethod {
		ct := c.info.Classes[fd.Receiver]
		top.declare(fd.Params[0].Name, types.NewClass(ct), int(fd.Pos))
		for _, p := range fd.Params[1:] {
			top.declare(p.Name, c.resolveType(p.Type), int(p.Pos))
		}
	} else {
		for _, p := range fd.Params {
			top.declare(p.Name, c.resolveType(p.Type), int(p.Pos))
		}
	}
	ret := types.Void
	if fd.RetType != nil {
		ret = c.resolveType(fd.RetType)
	}
	c.checkBlock(fd.Body, top, ret)
	c.curFunc = nil
}

func (c *Checker) checkBlock(body []syntax.Stmt, parent *scope, retType *types.Type) {
	s := newScope(parent)
	for _, st := range body {
		c.checkStmt(st, s, retType)
	}
}
