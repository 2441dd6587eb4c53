// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen implements component H of spec.md §2/§4.7: lowering
// of the checked, escape- and RC-planned AST to LLVM IR text. Every
// RC-eligible value's retain/release traffic is decided once, ahead of
// time, by internal/rcplan; this package's only job during emission is
// to consult that plan and either emit the call or not — it never
// re-derives an escape or last-use decision itself.
//
// The generator builds IR as a flat strings.Builder, the same
// accumulate-and-join approach used by hand-written LLVM emitters that
// don't bind to the C++ API (see malphas-lang's mir2llvm.Generator,
// which this package's structure mirrors test-for-test: header, then
// runtime declarations, then one function at a time, then a trailing
// string-constant pool).
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"wadescript.dev/wsc/internal/buildid"
	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/escape"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/rcplan"
	"wadescript.dev/wsc/internal/types"
)

// Generator accumulates one compilation unit's IR text.
type Generator struct {
	b strings.Builder

	info *check.Info
	esc  *escape.Info
	plan *rcplan.Plan

	reg   int
	label int

	strConsts map[string]string // literal content -> global name

	curFunc    string
	curFP      *rcplan.FuncPlan
	curLoops   []loopCtx
	curHandler int // handler-stack depth id, for try/except codegen
}

type loopCtx struct {
	continueLabel string
	breakLabel    string
}

// Generate lowers an entire checked program to LLVM IR text.
func Generate(prog *load.Program, info *check.Info, esc *escape.Info, plan *rcplan.Plan) string {
	g := &Generator{info: info, esc: esc, plan: plan, strConsts: map[string]string{}}
	g.emitHeader()
	g.emitRuntimeDecls()
	g.emitClassTypes()
	g.emitFuncsInOrder(prog)
	g.emitMainWrapper()
	g.emitStringConstants()
	ir := g.b.String()
	// Stamped as an IR comment only; nothing writes the ID into the
	// object file or the executable. internal/link uses internal/buildid
	// separately, to key its cached runtime archive.
	return fmt.Sprintf("; build id %s\n%s", buildid.HashBytes([]byte(ir)), ir)
}

func (g *Generator) emit(s string) {
	g.b.WriteString(s)
	g.b.WriteByte('\n')
}

func (g *Generator) emitf(format string, args ...interface{}) {
	g.emit(fmt.Sprintf(format, args...))
}

func (g *Generator) nextReg() string {
	g.reg++
	return fmt.Sprintf("%%r%d", g.reg)
}

func (g *Generator) nextLabel(prefix string) string {
	g.label++
	return fmt.Sprintf("%s%d", prefix, g.label)
}

func (g *Generator) emitHeader() {
	g.emit(`; ModuleID = 'wadescript'`)
	g.emit(`source_filename = "wadescript"`)
	g.emit(`target triple = "x86_64-unknown-linux-gnu"`)
	g.emit("")
}

// emitRuntimeDecls declares every entry point the runtime library
// (components A-E, internal/link/runtime) exports. Names here must
// match the C symbol names in internal/link/runtime exactly, and
// push_call_stack/pop_call_stack/runtime_error must match
// internal/diag's symbol constants.
func (g *Generator) emitRuntimeDecls() {
	g.emit("; runtime allocator (A)")
	g.emit("declare i8* @rc_alloc(i64)")
	g.emit("declare void @rc_retain(i8*)")
	g.emit("declare void @rc_release(i8*)")
	g.emit("")
	g.emit("; runtime collections (B)")
	g.emit("declare i8* @list_new(i64)")
	g.emit("declare i8* @list_get(i8*, i64)")
	g.emit("declare void @list_set(i8*, i64, i8*)")
	g.emit("declare void @list_push(i8*, i8*)")
	g.emit("declare i8* @list_pop(i8*)")
	g.emit("declare i64 @list_length(i8*)")
	g.emit("declare i8* @dict_new()")
	g.emit("declare i8* @dict_get(i8*, i8*)")
	g.emit("declare void @dict_set(i8*, i8*, i8*)")
	g.emit("declare i1 @dict_has(i8*, i8*)")
	g.emit("declare i64 @dict_length(i8*)")
	g.emit("declare i8* @dict_keys(i8*)") // List<Str> snapshot of keys, drives `for k in dict`'s bucket walk
	g.emit("; monomorphized int/float element entry points, spec.md §4.2")
	g.emit("declare i64 @list_get_int(i8*, i64)")
	g.emit("declare void @list_set_int(i8*, i64, i64)")
	g.emit("declare void @list_push_int(i8*, i64)")
	g.emit("declare i64 @list_pop_int(i8*)")
	g.emit("declare double @list_get_float(i8*, i64)")
	g.emit("declare void @list_set_float(i8*, i64, double)")
	g.emit("declare void @list_push_float(i8*, double)")
	g.emit("declare double @list_pop_float(i8*)")
	g.emit("declare i64 @dict_get_int(i8*, i8*)")
	g.emit("declare void @dict_set_int(i8*, i8*, i64)")
	g.emit("declare double @dict_get_float(i8*, i8*)")
	g.emit("declare void @dict_set_float(i8*, i8*, double)")
	g.emit("declare i8* @list_concat(i8*, i8*)")
	g.emit("declare i8* @list_concat_raw(i8*, i8*)")
	g.emit("declare i8* @list_slice(i8*, i64, i64, i64)")
	g.emit("declare i8* @list_slice_raw(i8*, i64, i64, i64)")
	g.emit("")
	g.emit("; runtime strings & I/O (C)")
	g.emit("declare i8* @str_concat(i8*, i8*)")
	g.emit("declare i64 @str_length(i8*)")
	g.emit("declare i8* @str_upper(i8*)")
	g.emit("declare i8* @str_lower(i8*)")
	g.emit("declare i1 @str_contains(i8*, i8*)")
	g.emit("declare i8* @str_char_at(i8*, i64)")
	g.emit("declare i8* @str_slice(i8*, i64, i64, i64)")
	g.emit("declare i8* @str_from_int(i64)")
	g.emit("declare i8* @str_from_float(double)")
	g.emit("declare i8* @str_from_bool(i1)")
	g.emit("declare void @print_int(i64)")
	g.emit("declare void @print_float(double)")
	g.emit("declare void @print_str(i8*)")
	g.emit("declare void @print_bool(i1)")
	g.emit("")
	g.emit("; tuples and the range() builtin (B, shared slot layout)")
	g.emit("declare i8* @tuple_get(i8*, i64)")
	g.emit("declare void @tuple_set(i8*, i64, i8*)")
	g.emit("declare i8* @ws_range(i64)")
	g.emit("")
	g.emit("; runtime exceptions (D)")
	g.emit("declare i8* @exc_reserve_handler()")
	g.emit("declare void @exc_pop_handler()")
	g.emit("declare void @exc_raise(i8*, i8*)")
	g.emit("declare void @exc_reraise()")
	g.emit("declare i1 @exc_tag_matches(i8*)")
	g.emit("declare i8* @exc_current()")
	g.emit("; the setjmp checkpoint itself must execute in the emitted")
	g.emit("; function's own frame (see control.go's emitTry), not inside")
	g.emit("; a runtime helper that would have already returned by the time")
	g.emit("; a later longjmp targets it")
	g.emit("declare i32 @setjmp(i8*) returns_twice")
	g.emit("")
	g.emit("; runtime diagnostics (E)")
	g.emit("declare void @push_call_stack(i8*)")
	g.emit("declare void @pop_call_stack()")
	g.emit("declare void @runtime_error(i8*, i8*)")
	g.emit("")
}

// emitClassTypes emits a %class.Name = type { ... } for every class
// known to the checker; field order matches the declared order, which
// is also the order internal/check's ClassType.Fields preserves.
func (g *Generator) emitClassTypes() {
	if len(g.info.Classes) == 0 {
		return
	}
	g.emit("; class layouts")
	names := make([]string, 0, len(g.info.Classes))
	for name := range g.info.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ct := g.info.Classes[name]
		var fields []string
		for _, f := range ct.Fields {
			fields = append(fields, g.llvmType(f.Type))
		}
		if len(fields) == 0 {
			fields = []string{"i8"} // LLVM disallows an empty struct body here
		}
		g.emitf("%%class.%s = type { %s }", name, strings.Join(fields, ", "))
	}
	g.emit("")
}

// llvmType maps a WadeScript static type to its LLVM representation.
// Every RC-eligible type is represented as an opaque i8* runtime
// handle (list/dict/str/tuple-on-heap/class instance); the allocator
// and collection runtime are the only code that ever look inside one.
func (g *Generator) llvmType(t *types.Type) string {
	switch t.Kind {
	case types.TInt:
		return "i64"
	case types.TFloat:
		return "double"
	case types.TBool:
		return "i1"
	case types.TVoid:
		return "void"
	case types.TStr, types.TList, types.TDict, types.TClass, types.TTuple:
		return "i8*"
	case types.TArray:
		return fmt.Sprintf("[%d x %s]", t.Len, g.llvmType(t.Elem()))
	case types.TOptional:
		// {i1 has_value, T value}; primitive T is inlined, RC-eligible T
		// is already an i8* so the pair is two machine words.
		return fmt.Sprintf("{ i1, %s }", g.llvmType(t.Elem()))
	}
	return "i8*"
}

func (g *Generator) emitStringConstants() {
	if len(g.strConsts) == 0 {
		return
	}
	g.emit("; string constants")
	contents := make([]string, 0, len(g.strConsts))
	for content := range g.strConsts {
		contents = append(contents, content)
	}
	sort.Strings(contents)
	for _, content := range contents {
		name := g.strConsts[content]
		esc, n := escapeLLVMString(content)
		g.emitf("%s = private unnamed_addr constant [%d x i8] c\"%s\", align 1", name, n, esc)
	}
}

func escapeLLVMString(s string) (string, int) {
	var b strings.Builder
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 32 && c < 127 && c != '"' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\%02X", c)
		}
		n++
	}
	b.WriteString("\\00")
	n++
	return b.String(), n
}

// stringConst interns a literal and returns an i8* operand pointing at
// its global; literal strings are immortal (spec.md §4.7.1) so callers
// must never retain/release the returned pointer.
func (g *Generator) stringConst(s string) string {
	name, ok := g.strConsts[s]
	if !ok {
		name = fmt.Sprintf("@.str.%d", len(g.strConsts))
		g.strConsts[s] = name
	}
	r := g.nextReg()
	n := len(s) + 1
	g.emitf("%s = getelementptr [%d x i8], [%d x i8]* %s, i64 0, i64 0", r, n, n, name)
	return r
}
